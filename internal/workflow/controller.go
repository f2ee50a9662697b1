// Package workflow implements the single-session claim controller: the
// state machine that takes evidence from intake through analysis and
// negotiation to a settled result, and makes every transition observable.
package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/adjuster/internal/logging"
	"github.com/aretw0/adjuster/internal/negotiation"
	"github.com/aretw0/adjuster/pkg/domain"
	"github.com/aretw0/adjuster/pkg/ports"
)

// Controller owns the single live claim session.
//
// All mutation happens under one lock, and observers (hooks, the snapshot
// publisher, subscriber channels) are notified while it is held, so every
// observer sees transitions in emission order. Each accepted submission
// gets an epoch; a reset bumps it, and any in-flight run whose epoch no
// longer matches is discarded without touching the fresh session.
type Controller struct {
	analyzer  ports.Analyzer
	protocol  *negotiation.Protocol
	publisher ports.SnapshotPublisher
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	clock     func() time.Time

	mu          sync.Mutex
	epoch       uint64
	session     domain.Session
	subscribers map[chan<- domain.Session]struct{}
}

// Option defines a functional option for configuring the Controller.
type Option func(*Controller)

// WithPublisher mirrors every snapshot to the given publisher.
func WithPublisher(publisher ports.SnapshotPublisher) Option {
	return func(c *Controller) {
		c.publisher = publisher
	}
}

// WithLifecycleHooks configures observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithClock overrides the time source for snapshot timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// New creates a Controller in the idle step.
// The analyzer and protocol are required; everything else has defaults.
func New(analyzer ports.Analyzer, protocol *negotiation.Protocol, opts ...Option) *Controller {
	c := &Controller{
		analyzer:    analyzer,
		protocol:    protocol,
		logger:      logging.NewNop(),
		clock:       time.Now,
		session:     domain.NewSession(),
		subscribers: make(map[chan<- domain.Session]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Threshold reports the approval threshold the policy agent applies.
func (c *Controller) Threshold() int64 {
	return c.protocol.Threshold()
}

// Snapshot returns a copy of the current session safe to retain.
func (c *Controller) Snapshot() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// Subscribe registers ch to receive a snapshot after every observable
// change. Sends never block: a subscriber whose channel is full misses
// that snapshot and catches up on the next one.
func (c *Controller) Subscribe(ch chan<- domain.Session) (cancel func()) {
	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, ch)
		c.mu.Unlock()
	}
}

// Reset abandons any in-flight claim and returns the session to idle.
// In-flight work notices the epoch change at its next transition and is
// discarded silently.
func (c *Controller) Reset() {
	ctx := context.Background()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	from := c.session.Step
	c.session = domain.NewSession()
	c.session.UpdatedAt = c.clock()

	c.logger.Info("session reset", "from", from, "epoch", c.epoch)
	c.notifyLocked(ctx)
	if from != domain.StepIdle {
		c.fireStepChangeLocked(ctx, from, domain.StepIdle, domain.CauseReset)
	}
}

// Submit runs one claim from evidence to completion. It blocks until the
// session completes, analysis fails, or a reset discards the run.
//
// Invalid evidence is rejected up front with no state change. A second
// submission while one is in flight returns domain.ErrSessionBusy, also
// with no state change.
func (c *Controller) Submit(ctx context.Context, evidence domain.Evidence) error {
	if err := evidence.Validate(); err != nil {
		c.logger.Warn("evidence rejected", "error", err, "media_type", evidence.MediaType)
		return err
	}

	c.mu.Lock()
	if c.session.Step != domain.StepIdle {
		c.mu.Unlock()
		return domain.ErrSessionBusy
	}
	epoch := c.epoch
	c.transitionLocked(ctx, domain.StepUploading, domain.CauseAdvance)
	c.mu.Unlock()

	c.logger.Info("evidence accepted",
		"name", evidence.Name,
		"media_type", evidence.MediaType,
		"bytes", len(evidence.Data),
	)

	// The payload is already staged in memory, so uploading completes as
	// soon as observers have seen it.
	if err := c.advance(ctx, epoch, domain.StepAnalyzing); err != nil {
		return err
	}

	report, err := c.analyzer.Analyze(ctx, evidence)
	if err == nil {
		err = report.Validate()
	}
	if err != nil {
		return c.failAnalysis(ctx, epoch, err)
	}

	if err := c.attachReport(ctx, epoch, report); err != nil {
		return err
	}

	result, err := c.protocol.Run(ctx, report, func(m domain.Message) error {
		return c.appendMessage(ctx, epoch, m)
	})
	if err != nil {
		return err
	}

	return c.complete(ctx, epoch, result)
}

// advance moves the session forward one step unless the run went stale.
func (c *Controller) advance(ctx context.Context, epoch uint64, to domain.Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return domain.ErrSessionReset
	}
	c.transitionLocked(ctx, to, domain.CauseAdvance)
	return nil
}

// failAnalysis recovers from a failed analysis: the session returns to idle
// and stays submittable. The analyzer's error is returned to the caller.
func (c *Controller) failAnalysis(ctx context.Context, epoch uint64, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return domain.ErrSessionReset
	}

	stage := c.session.Step
	c.logger.Warn("analysis failed", "error", cause, "stage", stage)

	c.session.Report = nil
	c.transitionLocked(ctx, domain.StepIdle, domain.CauseFailure)

	if c.hooks.OnFailure != nil {
		c.hooks.OnFailure(ctx, &domain.FailureEvent{
			EventBase: domain.EventBase{Timestamp: c.clock(), Type: domain.EventFailure},
			Stage:     stage,
			Reason:    cause.Error(),
		})
	}
	return cause
}

func (c *Controller) attachReport(ctx context.Context, epoch uint64, report *domain.DamageReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return domain.ErrSessionReset
	}
	c.session.Report = report
	c.transitionLocked(ctx, domain.StepNegotiating, domain.CauseAdvance)
	return nil
}

// appendMessage is the protocol sink: each entry lands in the transcript
// and is broadcast before the next phase may proceed.
func (c *Controller) appendMessage(ctx context.Context, epoch uint64, m domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return domain.ErrSessionReset
	}

	c.session.Transcript = append(c.session.Transcript, m)
	c.session.UpdatedAt = c.clock()
	seq := len(c.session.Transcript) - 1

	c.logger.Debug("transcript entry",
		"seq", seq,
		"method", m.Payload.Method,
		"from", m.From,
		"to", m.To,
		"status", m.Status,
	)
	c.notifyLocked(ctx)

	if c.hooks.OnMessage != nil {
		c.hooks.OnMessage(ctx, &domain.MessageEvent{
			EventBase: domain.EventBase{Timestamp: c.clock(), Type: domain.EventMessage},
			Seq:       seq,
			Message:   m,
		})
	}
	return nil
}

func (c *Controller) complete(ctx context.Context, epoch uint64, result *domain.ClaimResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return domain.ErrSessionReset
	}

	c.session.Result = result
	c.transitionLocked(ctx, domain.StepCompleted, domain.CauseAdvance)

	c.logger.Info("claim completed",
		"status", result.Status,
		"payment_initiated", result.PaymentInitiated,
		"reference_id", result.ReferenceID,
	)

	if c.hooks.OnResult != nil {
		c.hooks.OnResult(ctx, &domain.ResultEvent{
			EventBase: domain.EventBase{Timestamp: c.clock(), Type: domain.EventResult},
			Result:    *result,
		})
	}
	return nil
}

// transitionLocked moves to the given step and notifies observers.
// Callers hold c.mu.
func (c *Controller) transitionLocked(ctx context.Context, to domain.Step, cause domain.StepCause) {
	from := c.session.Step
	c.session.Step = to
	c.session.UpdatedAt = c.clock()

	c.notifyLocked(ctx)
	if from != to {
		c.fireStepChangeLocked(ctx, from, to, cause)
	}
}

func (c *Controller) fireStepChangeLocked(ctx context.Context, from, to domain.Step, cause domain.StepCause) {
	if c.hooks.OnStepChange == nil {
		return
	}
	c.hooks.OnStepChange(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: c.clock(), Type: domain.EventStepChange},
		From:      from,
		To:        to,
		Cause:     cause,
	})
}

// notifyLocked fans the current snapshot out to the publisher and all
// subscribers. Callers hold c.mu, which is what keeps observers ordered.
func (c *Controller) notifyLocked(ctx context.Context) {
	snapshot := c.session.Clone()

	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, snapshot); err != nil {
			// The mirror is best-effort; the in-memory session stays
			// authoritative.
			c.logger.Warn("snapshot publish failed", "error", err)
		}
	}

	for ch := range c.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Slow subscriber: skip this snapshot rather than stall the
			// session.
		}
	}
}
