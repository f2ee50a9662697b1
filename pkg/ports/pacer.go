package ports

import "context"

// Pacer defines the deliberate delay between negotiation phases.
// Interactive hosts use it to keep transitions followable by a human
// observer; tests inject a zero-delay implementation to run instantly.
type Pacer interface {
	// Pause blocks for the configured delay or until ctx is done,
	// returning the context error in the latter case.
	Pause(ctx context.Context) error
}
