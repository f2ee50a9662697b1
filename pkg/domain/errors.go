package domain

import (
	"errors"
	"fmt"
)

// ErrNoEvidence is returned when a submission carries no payload bytes.
var ErrNoEvidence = errors.New("no evidence supplied")

// ErrUnsupportedMedia is returned when evidence is not an image or video.
var ErrUnsupportedMedia = errors.New("unsupported media type")

// ErrSessionBusy is returned when evidence arrives while a claim is already
// in flight. The live session is left untouched.
var ErrSessionBusy = errors.New("a claim is already in progress")

// ErrSessionReset is returned to a submitter whose in-flight claim was
// discarded by a reset. Hosts treat it as a silent cancellation.
var ErrSessionReset = errors.New("session was reset")

// ErrInvalidReport is returned when a damage report violates its contract.
var ErrInvalidReport = errors.New("invalid damage report")

// ErrNoSnapshot is returned by snapshot publishers when nothing has been
// published yet or the mirror was cleared.
var ErrNoSnapshot = errors.New("no session snapshot published")

// AnalysisError describes a recoverable vision analysis failure.
// The workflow returns to idle after one; Reason is safe to surface to users.
type AnalysisError struct {
	// Reason is a short human-readable cause, e.g. "collaborator unavailable".
	Reason string
	// Err is the underlying cause, if any.
	Err error
}

// NewAnalysisError wraps err with a user-facing reason.
func NewAnalysisError(reason string, err error) *AnalysisError {
	return &AnalysisError{Reason: reason, Err: err}
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("analysis failed: %s", e.Reason)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}
