package domain

import (
	"fmt"
	"strings"
)

// Evidence is a single piece of visual claim evidence handed to the workflow.
// Data carries the payload exactly as the ingestion side produced it, with
// the transfer encoding (base64) already applied.
type Evidence struct {
	// Name is an optional caller-supplied label, typically a file name.
	Name string `json:"name,omitempty"`

	// MediaType is the declared IANA media type of the payload.
	// Only image/* and video/* are accepted.
	MediaType string `json:"media_type"`

	Data []byte `json:"data"`
}

// Validate rejects evidence before any session state changes.
func (e Evidence) Validate() error {
	if len(e.Data) == 0 {
		return ErrNoEvidence
	}
	if !SupportedMediaType(e.MediaType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedMedia, e.MediaType)
	}
	return nil
}

// SupportedMediaType reports whether the workflow accepts the given media type.
func SupportedMediaType(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/") || strings.HasPrefix(mediaType, "video/")
}
