// Package negotiation implements the agent-to-agent claim settlement
// conversation: a claim proposal, a policy evaluation, and, for approved
// claims, a payment initiation.
//
// The package drives both built-in agents in-process. Every message is
// handed to a Sink as it is emitted so the owning workflow can append it
// to the session transcript one entry at a time.
package negotiation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/adjuster/internal/logging"
	"github.com/aretw0/adjuster/pkg/domain"
	"github.com/aretw0/adjuster/pkg/ports"
)

// Sink receives each transcript entry the moment it is emitted.
// Returning an error aborts the negotiation; the error is passed through
// to the caller of Run unchanged.
type Sink func(domain.Message) error

// Protocol runs the settlement conversation between the requesting agent
// and the policy agent.
type Protocol struct {
	threshold    int64
	pacer        ports.Pacer
	clock        func() time.Time
	newReference func() string
	logger       *slog.Logger
}

// Option defines a functional option for configuring the Protocol.
type Option func(*Protocol)

// WithThreshold sets the approval threshold. Claims with an estimated cost
// strictly below it are auto-approved; everything else, the boundary
// included, goes to manual review.
func WithThreshold(threshold int64) Option {
	return func(p *Protocol) {
		p.threshold = threshold
	}
}

// WithPacer sets the delay applied between protocol phases.
func WithPacer(pacer ports.Pacer) Option {
	return func(p *Protocol) {
		p.pacer = pacer
	}
}

// WithClock overrides the time source for transcript timestamps.
func WithClock(clock func() time.Time) Option {
	return func(p *Protocol) {
		p.clock = clock
	}
}

// WithReferenceGenerator overrides how outcome reference IDs are minted.
func WithReferenceGenerator(gen func() string) Option {
	return func(p *Protocol) {
		p.newReference = gen
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Protocol) {
		p.logger = logger
	}
}

// New creates a Protocol with the default threshold, no pacing, wall-clock
// timestamps and UUID reference IDs.
func New(opts ...Option) *Protocol {
	p := &Protocol{
		threshold:    DefaultThreshold,
		clock:        time.Now,
		newReference: uuid.NewString,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Threshold reports the approval threshold this protocol applies.
func (p *Protocol) Threshold() int64 {
	return p.threshold
}

// Run executes the full conversation for an analyzed claim and returns the
// outcome. The emitted transcript for an approved claim is proposal,
// evaluation, payment initiation; for a manual-review claim the payment
// entry is absent. Messages reach emit strictly in that order.
func (p *Protocol) Run(ctx context.Context, report *domain.DamageReport, emit Sink) (*domain.ClaimResult, error) {
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("negotiation requires an analyzed report: %w", err)
	}
	if emit == nil {
		emit = func(domain.Message) error { return nil }
	}

	p.logger.Debug("negotiation starting",
		"estimated_cost", report.EstimatedCost,
		"threshold", p.threshold,
	)

	if err := emit(newProposal(p.clock(), report)); err != nil {
		return nil, err
	}
	if err := p.pause(ctx); err != nil {
		return nil, err
	}

	approved := report.EstimatedCost < p.threshold
	outcome := ResultRequireManualReview
	if approved {
		outcome = ResultAutoApprove
	}
	if err := emit(newEvaluation(p.clock(), outcome, p.threshold)); err != nil {
		return nil, err
	}

	if approved {
		if err := p.pause(ctx); err != nil {
			return nil, err
		}
		if err := emit(newSettlement(p.clock(), report.EstimatedCost)); err != nil {
			return nil, err
		}
	}

	result := &domain.ClaimResult{
		Status:           domain.ClaimManualReview,
		PaymentInitiated: approved,
		ReferenceID:      p.newReference(),
		Report:           report,
	}
	if approved {
		result.Status = domain.ClaimApproved
	}

	p.logger.Info("negotiation settled",
		"status", result.Status,
		"payment_initiated", result.PaymentInitiated,
		"reference_id", result.ReferenceID,
	)
	return result, nil
}

func (p *Protocol) pause(ctx context.Context) error {
	if p.pacer == nil {
		return ctx.Err()
	}
	return p.pacer.Pause(ctx)
}
