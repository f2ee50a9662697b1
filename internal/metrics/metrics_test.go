package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/aretw0/adjuster"
	"github.com/aretw0/adjuster/pkg/domain"
)

type analyzerFunc func(context.Context, domain.Evidence) (*domain.DamageReport, error)

func (f analyzerFunc) Analyze(ctx context.Context, ev domain.Evidence) (*domain.DamageReport, error) {
	return f(ctx, ev)
}

func approvableAnalyzer() analyzerFunc {
	return func(context.Context, domain.Evidence) (*domain.DamageReport, error) {
		return &domain.DamageReport{
			Intensity:       domain.SeverityModerate,
			EstimatedCost:   3200,
			IdentifiedItems: []string{"front bumper"},
			Summary:         "Low-speed collision damage.",
		}, nil
	}
}

func evidence() domain.Evidence {
	return domain.Evidence{Name: "crash.jpg", MediaType: "image/jpeg", Data: []byte("ZmFrZQ==")}
}

func TestHooks_CountClaimLifecycle(t *testing.T) {
	m := New(nil)
	wf, err := adjuster.New(approvableAnalyzer(), adjuster.WithLifecycleHooks(m.Hooks()))
	if err != nil {
		t.Fatalf("Failed to initialize workflow: %v", err)
	}

	if err := wf.Submit(context.Background(), evidence()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	wf.Reset()

	if got := testutil.ToFloat64(m.ClaimsSubmitted); got != 1 {
		t.Errorf("claims submitted = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ClaimsCompleted.WithLabelValues(string(domain.ClaimApproved))); got != 1 {
		t.Errorf("approved claims = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TranscriptMessages.WithLabelValues(string(domain.ProtocolNegotiation))); got != 2 {
		t.Errorf("negotiation messages = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.TranscriptMessages.WithLabelValues(string(domain.ProtocolPayment))); got != 1 {
		t.Errorf("payment messages = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SessionResets); got != 1 {
		t.Errorf("session resets = %v, want 1", got)
	}

	var sample dto.Metric
	if err := m.NegotiationDuration.Write(&sample); err != nil {
		t.Fatalf("Failed to read histogram: %v", err)
	}
	if sample.Histogram.GetSampleCount() != 1 {
		t.Errorf("negotiation duration samples = %d, want 1", sample.Histogram.GetSampleCount())
	}
}

func TestHooks_CountAnalysisFailures(t *testing.T) {
	m := New(nil)
	failing := analyzerFunc(func(context.Context, domain.Evidence) (*domain.DamageReport, error) {
		return nil, domain.NewAnalysisError("collaborator unavailable", errors.New("dial tcp: refused"))
	})
	wf, err := adjuster.New(failing, adjuster.WithLifecycleHooks(m.Hooks()))
	if err != nil {
		t.Fatalf("Failed to initialize workflow: %v", err)
	}

	if err := wf.Submit(context.Background(), evidence()); err == nil {
		t.Fatal("Expected the analysis to fail")
	}

	if got := testutil.ToFloat64(m.AnalysisFailures); got != 1 {
		t.Errorf("analysis failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ClaimsSubmitted); got != 1 {
		t.Errorf("claims submitted = %v, want 1", got)
	}

	var sample dto.Metric
	if err := m.NegotiationDuration.Write(&sample); err != nil {
		t.Fatalf("Failed to read histogram: %v", err)
	}
	if sample.Histogram.GetSampleCount() != 0 {
		t.Error("A failed claim must not record a negotiation duration")
	}
}

func TestNew_ExportsOnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	wf, err := adjuster.New(approvableAnalyzer(), adjuster.WithLifecycleHooks(m.Hooks()))
	if err != nil {
		t.Fatalf("Failed to initialize workflow: %v", err)
	}
	if err := wf.Submit(context.Background(), evidence()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	got := make(map[string]bool, len(families))
	for _, f := range families {
		got[f.GetName()] = true
	}
	for _, name := range []string{
		"adjuster_claims_submitted_total",
		"adjuster_claims_completed_total",
		"adjuster_transcript_messages_total",
		"adjuster_negotiation_duration_seconds",
	} {
		if !got[name] {
			t.Errorf("Registry is missing %s", name)
		}
	}
}
