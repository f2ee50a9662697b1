package ports

import (
	"context"

	"github.com/aretw0/adjuster/pkg/domain"
)

// Workflow defines the interface host adapters (HTTP, MCP, CLI) drive the
// claim engine through. It is intentionally narrow: one live session,
// observable snapshots, explicit reset.
type Workflow interface {
	// Submit runs a full claim for the given evidence. It returns
	// domain.ErrSessionBusy without side effects if a claim is already in
	// flight, and domain.ErrSessionReset if a reset discarded this run.
	Submit(ctx context.Context, evidence domain.Evidence) error

	// Snapshot returns a copy of the current session safe to retain.
	Snapshot() domain.Session

	// Reset abandons any in-flight claim and returns the session to idle.
	Reset()

	// Subscribe registers ch to receive a snapshot after every observable
	// change. The returned cancel function unregisters it. Slow receivers
	// miss intermediate snapshots rather than blocking the workflow.
	Subscribe(ch chan<- domain.Session) (cancel func())

	// Threshold reports the approval threshold the policy agent applies.
	Threshold() int64
}
