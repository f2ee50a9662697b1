// Package memory provides an in-process SnapshotPublisher, the default
// mirror for single-binary hosts and tests.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/adjuster/pkg/domain"
)

// Publisher implements ports.SnapshotPublisher in memory.
// Safe for concurrent use.
type Publisher struct {
	snapshot *domain.Session
	mu       sync.RWMutex
}

// NewPublisher creates a new in-memory publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish stores the snapshot in memory.
func (p *Publisher) Publish(ctx context.Context, session domain.Session) error {
	// Deep copy to ensure isolation, similar to serialization
	cloned := session.Clone()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = &cloned
	return nil
}

// Load retrieves the last published snapshot.
func (p *Publisher) Load(ctx context.Context) (*domain.Session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.snapshot == nil {
		return nil, domain.ErrNoSnapshot
	}

	// Copy on read so the caller can't mutate the mirror by pointer
	cloned := p.snapshot.Clone()
	return &cloned, nil
}

// Clear removes the mirrored snapshot.
func (p *Publisher) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = nil
	return nil
}
