package ports

import (
	"context"

	"github.com/aretw0/adjuster/pkg/domain"
)

// SnapshotPublisher defines the interface for mirroring the live session to
// an external presentation surface (a dashboard, a shared cache).
// The workflow's in-memory snapshot stays authoritative; publishers are a
// best-effort mirror and never feed state back into the workflow.
type SnapshotPublisher interface {
	// Publish overwrites the mirrored snapshot with the given session.
	Publish(ctx context.Context, session domain.Session) error

	// Load retrieves the last published snapshot.
	// Returns domain.ErrNoSnapshot if nothing has been published or the
	// mirror was cleared.
	Load(ctx context.Context) (*domain.Session, error)

	// Clear removes the mirrored snapshot, typically on host shutdown.
	Clear(ctx context.Context) error
}
