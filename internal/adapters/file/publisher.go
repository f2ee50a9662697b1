// Package file mirrors the live claim session to a JSON file on disk,
// so shell tooling and sidecar processes can watch a claim without any
// network dependency.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/adjuster/pkg/domain"
)

// Publisher implements ports.SnapshotPublisher using the local filesystem.
// The snapshot lives in a single JSON file that is replaced atomically on
// every publish, so readers never observe a partial write.
type Publisher struct {
	Path string
}

// New creates a Publisher writing to the given file path.
// If path is empty, it defaults to ".adjuster/session.json".
func New(path string) *Publisher {
	if path == "" {
		path = filepath.Join(".adjuster", "session.json")
	}
	return &Publisher{Path: path}
}

// Publish writes the snapshot atomically: temp file, fsync, rename.
func (p *Publisher) Publish(ctx context.Context, session domain.Session) error {
	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// The temp file shares the destination directory so the rename stays on
	// one filesystem, which is what makes it atomic.
	tmpFile, err := os.CreateTemp(dir, "tmp-session-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // Remove if still exists (not renamed)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if the destination exists; remove first.
	// The delete+rename window is acceptable for a local mirror compared to
	// readers seeing a partial file.
	if _, err := os.Stat(p.Path); err == nil {
		if err := os.Remove(p.Path); err != nil {
			return fmt.Errorf("failed to remove existing snapshot for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, p.Path); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

// Load reads the mirrored snapshot back.
func (p *Publisher) Load(ctx context.Context) (*domain.Session, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Clear removes the snapshot file.
func (p *Publisher) Clear(ctx context.Context) error {
	err := os.Remove(p.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}
