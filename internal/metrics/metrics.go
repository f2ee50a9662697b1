// Package metrics instruments the claim workflow for Prometheus. The
// library core stays metrics-free; hosts attach the instrumentation
// through lifecycle hooks.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/adjuster/pkg/domain"
)

type Metrics struct {
	// Traffic: claims entering the workflow.
	ClaimsSubmitted prometheus.Counter

	// Outcomes, labelled by claim status.
	ClaimsCompleted *prometheus.CounterVec

	// Errors: recoverable analysis failures that sent the session back to idle.
	AnalysisFailures prometheus.Counter

	// Operator or host resets, including mid-claim aborts.
	SessionResets prometheus.Counter

	// Transcript entries, labelled by protocol.
	TranscriptMessages *prometheus.CounterVec

	// Latency of the negotiation phase, from entering it to the outcome.
	NegotiationDuration prometheus.Histogram

	// negotiationStart is written and read only from lifecycle callbacks,
	// which the workflow serializes under its session lock.
	negotiationStart time.Time
}

// New registers the workflow metrics on reg. A nil registerer wires the
// metrics to a private registry so the instruments still work but export
// nowhere.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		ClaimsSubmitted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "adjuster_claims_submitted_total",
			Help: "Total number of claims that entered the workflow.",
		}),

		ClaimsCompleted: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "adjuster_claims_completed_total",
			Help: "Total number of completed claims by outcome status.",
		}, []string{"status"}),

		AnalysisFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "adjuster_analysis_failures_total",
			Help: "Total number of vision analysis failures.",
		}),

		SessionResets: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "adjuster_session_resets_total",
			Help: "Total number of session resets.",
		}),

		TranscriptMessages: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "adjuster_transcript_messages_total",
			Help: "Total number of transcript messages by protocol.",
		}, []string{"protocol"}),

		NegotiationDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "adjuster_negotiation_duration_seconds",
			Help:    "Histogram of negotiation phase latencies.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// Hooks bridges the metrics onto workflow lifecycle events. Durations are
// computed from event timestamps, so they follow the workflow clock.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepChange: func(_ context.Context, e *domain.StepEvent) {
			if e.Cause == domain.CauseReset {
				m.SessionResets.Inc()
				m.negotiationStart = time.Time{}
				return
			}
			switch e.To {
			case domain.StepUploading:
				m.ClaimsSubmitted.Inc()
			case domain.StepNegotiating:
				m.negotiationStart = e.Timestamp
			}
		},
		OnMessage: func(_ context.Context, e *domain.MessageEvent) {
			m.TranscriptMessages.WithLabelValues(string(e.Message.Protocol)).Inc()
		},
		OnResult: func(_ context.Context, e *domain.ResultEvent) {
			m.ClaimsCompleted.WithLabelValues(string(e.Result.Status)).Inc()
			if !m.negotiationStart.IsZero() {
				m.NegotiationDuration.Observe(e.Timestamp.Sub(m.negotiationStart).Seconds())
				m.negotiationStart = time.Time{}
			}
		},
		OnFailure: func(_ context.Context, e *domain.FailureEvent) {
			m.AnalysisFailures.Inc()
			m.negotiationStart = time.Time{}
		},
	}
}
