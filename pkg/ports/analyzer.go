package ports

import (
	"context"

	"github.com/aretw0/adjuster/pkg/domain"
)

// Analyzer defines how evidence is turned into a damage report.
// The workflow emits analysis requests, and an adapter (a remote vision
// gateway, a simulated profile set) implements this interface to handle them.
//
// Failures that should return the session to idle are reported as
// *domain.AnalysisError; any other error is treated the same way but
// without a user-facing reason.
type Analyzer interface {
	Analyze(ctx context.Context, evidence domain.Evidence) (*domain.DamageReport, error)
}
