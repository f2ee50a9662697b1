package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepChange EventType = "step_change"
	EventMessage    EventType = "message"
	EventResult     EventType = "result"
	EventFailure    EventType = "failure"
)

// StepCause explains why a step transition happened.
type StepCause string

const (
	// CauseAdvance is normal forward progress through the claim.
	CauseAdvance StepCause = "advance"
	// CauseFailure is the recovery transition back to idle after a failed
	// analysis.
	CauseFailure StepCause = "failure"
	// CauseReset is an explicit operator or host reset.
	CauseReset StepCause = "reset"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// StepEvent represents a workflow step transition.
type StepEvent struct {
	EventBase
	From  Step      `json:"from"`
	To    Step      `json:"to"`
	Cause StepCause `json:"cause"`
}

// MessageEvent represents a transcript entry being recorded.
type MessageEvent struct {
	EventBase
	// Seq is the entry's zero-based position in the transcript.
	Seq     int     `json:"seq"`
	Message Message `json:"message"`
}

// ResultEvent represents a session reaching its outcome.
type ResultEvent struct {
	EventBase
	Result ClaimResult `json:"result"`
}

// FailureEvent represents a recoverable analysis failure.
type FailureEvent struct {
	EventBase
	// Stage is the step the workflow was in when the failure happened.
	Stage  Step   `json:"stage"`
	Reason string `json:"reason"`
}

// LifecycleHooks defines callbacks for workflow observability.
// Callbacks run synchronously on the workflow goroutine while the session
// lock is held: they must return promptly and must not call back into the
// workflow.
type LifecycleHooks struct {
	OnStepChange func(context.Context, *StepEvent)
	OnMessage    func(context.Context, *MessageEvent)
	OnResult     func(context.Context, *ResultEvent)
	OnFailure    func(context.Context, *FailureEvent)
}

// MergeLifecycleHooks combines hook sets so hosts can stack observers,
// for example metrics alongside logging. Callbacks fire in argument order.
func MergeLifecycleHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range hooks {
		merged = LifecycleHooks{
			OnStepChange: chain(merged.OnStepChange, h.OnStepChange),
			OnMessage:    chain(merged.OnMessage, h.OnMessage),
			OnResult:     chain(merged.OnResult, h.OnResult),
			OnFailure:    chain(merged.OnFailure, h.OnFailure),
		}
	}
	return merged
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev *E) {
		a(ctx, ev)
		b(ctx, ev)
	}
}
