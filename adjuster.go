package adjuster

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/adjuster/internal/negotiation"
	"github.com/aretw0/adjuster/internal/workflow"
	"github.com/aretw0/adjuster/pkg/domain"
	"github.com/aretw0/adjuster/pkg/ports"
)

// Workflow is the high-level entry point for the adjuster library.
// It wraps the internal controller and provides a simplified API for
// consumers: submit evidence, observe the session, reset.
type Workflow struct {
	controller *workflow.Controller
	publisher  ports.SnapshotPublisher

	threshold    int64
	pacer        ports.Pacer
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	clock        func() time.Time
	newReference func() string
}

// Option defines a functional option for configuring the Workflow.
type Option func(*Workflow)

// WithThreshold sets the approval threshold the policy agent applies.
// Claims with an estimated cost strictly below it are auto-approved.
func WithThreshold(threshold int64) Option {
	return func(w *Workflow) {
		w.threshold = threshold
	}
}

// WithPacer sets the deliberate delay between negotiation phases.
// Use pacing.None() in tests to run instantly.
func WithPacer(pacer ports.Pacer) Option {
	return func(w *Workflow) {
		w.pacer = pacer
	}
}

// WithPublisher mirrors every session snapshot to the given publisher.
func WithPublisher(publisher ports.SnapshotPublisher) Option {
	return func(w *Workflow) {
		w.publisher = publisher
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Workflow) {
		w.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the workflow.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// WithClock overrides the time source, used for deterministic transcripts
// in tests and examples.
func WithClock(clock func() time.Time) Option {
	return func(w *Workflow) {
		w.clock = clock
	}
}

// WithReferenceGenerator overrides how outcome reference IDs are minted.
func WithReferenceGenerator(gen func() string) Option {
	return func(w *Workflow) {
		w.newReference = gen
	}
}

// New initializes a claim Workflow around the given analyzer.
// By default it applies the standard threshold, paces nothing, publishes
// nowhere and stays silent; options override each of those.
func New(analyzer ports.Analyzer, opts ...Option) (*Workflow, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("an analyzer is required")
	}

	w := &Workflow{
		threshold: negotiation.DefaultThreshold,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}

	// Ensure logger is initialized (so we don't pass nil down, which would
	// overwrite the defaults below).
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	protocolOpts := []negotiation.Option{
		negotiation.WithThreshold(w.threshold),
		negotiation.WithClock(w.clock),
		negotiation.WithLogger(w.logger),
	}
	if w.pacer != nil {
		protocolOpts = append(protocolOpts, negotiation.WithPacer(w.pacer))
	}
	if w.newReference != nil {
		protocolOpts = append(protocolOpts, negotiation.WithReferenceGenerator(w.newReference))
	}

	controllerOpts := []workflow.Option{
		workflow.WithLifecycleHooks(w.hooks),
		workflow.WithLogger(w.logger),
		workflow.WithClock(w.clock),
	}
	if w.publisher != nil {
		controllerOpts = append(controllerOpts, workflow.WithPublisher(w.publisher))
	}

	w.controller = workflow.New(analyzer, negotiation.New(protocolOpts...), controllerOpts...)
	return w, nil
}

// Submit runs one claim from evidence to completion. It blocks until the
// session completes, analysis fails, or a reset discards the run.
func (w *Workflow) Submit(ctx context.Context, evidence domain.Evidence) error {
	return w.controller.Submit(ctx, evidence)
}

// Snapshot returns a copy of the current session safe to retain.
func (w *Workflow) Snapshot() domain.Session {
	return w.controller.Snapshot()
}

// Reset abandons any in-flight claim and returns the session to idle.
func (w *Workflow) Reset() {
	w.controller.Reset()
}

// Subscribe registers ch to receive a snapshot after every observable
// change and returns a cancel function.
func (w *Workflow) Subscribe(ch chan<- domain.Session) (cancel func()) {
	return w.controller.Subscribe(ch)
}

// Threshold reports the approval threshold the policy agent applies.
func (w *Workflow) Threshold() int64 {
	return w.controller.Threshold()
}

// Publisher returns the snapshot publisher the workflow mirrors to, or nil.
func (w *Workflow) Publisher() ports.SnapshotPublisher {
	return w.publisher
}
