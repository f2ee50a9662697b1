// Package pacing provides ready-made Pacer implementations.
//
// Interactive hosts pace the negotiation so a human can follow the
// transcript as it grows; tests and agent hosts use None to run instantly.
package pacing

import (
	"context"
	"time"

	"github.com/aretw0/adjuster/pkg/ports"
)

type fixed struct {
	delay time.Duration
}

// Fixed returns a Pacer that pauses for d between negotiation phases.
// A non-positive d behaves like None.
func Fixed(d time.Duration) ports.Pacer {
	return fixed{delay: d}
}

// None returns a zero-delay Pacer. It still honors context cancellation.
func None() ports.Pacer {
	return fixed{}
}

func (f fixed) Pause(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.delay <= 0 {
		return nil
	}

	timer := time.NewTimer(f.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
