package adjuster_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/adjuster"
	"github.com/aretw0/adjuster/pkg/adapters/memory"
	"github.com/aretw0/adjuster/pkg/adapters/vision"
	"github.com/aretw0/adjuster/pkg/domain"
	"github.com/aretw0/adjuster/pkg/ports"
)

// The facade must satisfy the driving port host adapters consume.
var _ ports.Workflow = (*adjuster.Workflow)(nil)

type analyzerFunc func(context.Context, domain.Evidence) (*domain.DamageReport, error)

func (f analyzerFunc) Analyze(ctx context.Context, ev domain.Evidence) (*domain.DamageReport, error) {
	return f(ctx, ev)
}

func fixedAnalyzer(cost int64) ports.Analyzer {
	return analyzerFunc(func(context.Context, domain.Evidence) (*domain.DamageReport, error) {
		return &domain.DamageReport{
			Intensity:       domain.SeveritySevere,
			EstimatedCost:   cost,
			IdentifiedItems: []string{"assessed damage"},
			Summary:         "Stub assessment for facade tests.",
		}, nil
	})
}

func evidence() domain.Evidence {
	return domain.Evidence{Name: "crash.jpg", MediaType: "image/jpeg", Data: []byte("ZmFrZS1ieXRlcw==")}
}

func TestWorkflow_Integration(t *testing.T) {
	// End to end through the public surface: simulated vision backend,
	// in-memory mirror, full claim.
	mirror := memory.NewPublisher()
	wf, err := adjuster.New(
		vision.NewSimulated(vision.WithFixedProfile("fender-bender")),
		adjuster.WithPublisher(mirror),
	)
	if err != nil {
		t.Fatalf("Failed to initialize workflow: %v", err)
	}

	if got := wf.Snapshot().Step; got != domain.StepIdle {
		t.Fatalf("fresh workflow step = %q, want idle", got)
	}

	ctx := context.Background()
	if err := wf.Submit(ctx, evidence()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	session := wf.Snapshot()
	if session.Step != domain.StepCompleted {
		t.Fatalf("step = %q, want completed", session.Step)
	}
	if session.Result == nil || session.Result.Status != domain.ClaimApproved {
		t.Fatalf("result = %+v, want an approved claim", session.Result)
	}
	if session.Report == nil || session.Report.EstimatedCost != 3200 {
		t.Errorf("report = %+v, want the fender-bender assessment", session.Report)
	}

	mirrored, err := mirror.Load(ctx)
	if err != nil {
		t.Fatalf("mirror load failed: %v", err)
	}
	if mirrored.Step != domain.StepCompleted {
		t.Errorf("mirrored step = %q, want completed", mirrored.Step)
	}

	// Reset clears both the session and rearms submission.
	wf.Reset()
	if got := wf.Snapshot().Step; got != domain.StepIdle {
		t.Fatalf("step after reset = %q, want idle", got)
	}
	if err := wf.Submit(ctx, evidence()); err != nil {
		t.Fatalf("Submit after reset failed: %v", err)
	}
}

func TestWorkflow_ClaimScenarios(t *testing.T) {
	tests := []struct {
		name           string
		analyzer       ports.Analyzer
		wantErr        bool
		wantStep       domain.Step
		wantStatus     domain.ClaimStatus
		wantPayment    bool
		wantTranscript int
	}{
		{
			name:           "Moderate Damage Auto-Approved",
			analyzer:       fixedAnalyzer(3200),
			wantStep:       domain.StepCompleted,
			wantStatus:     domain.ClaimApproved,
			wantPayment:    true,
			wantTranscript: 3,
		},
		{
			name:           "Boundary Cost Goes To Review",
			analyzer:       fixedAnalyzer(5000),
			wantStep:       domain.StepCompleted,
			wantStatus:     domain.ClaimManualReview,
			wantPayment:    false,
			wantTranscript: 2,
		},
		{
			name:           "Expensive Claim Goes To Review",
			analyzer:       fixedAnalyzer(12000),
			wantStep:       domain.StepCompleted,
			wantStatus:     domain.ClaimManualReview,
			wantPayment:    false,
			wantTranscript: 2,
		},
		{
			name: "Gateway Malfunction Recovers To Idle",
			analyzer: analyzerFunc(func(context.Context, domain.Evidence) (*domain.DamageReport, error) {
				return nil, domain.NewAnalysisError("vision collaborator unreachable", errors.New("dial tcp: refused"))
			}),
			wantErr:        true,
			wantStep:       domain.StepIdle,
			wantTranscript: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf, err := adjuster.New(tt.analyzer)
			if err != nil {
				t.Fatalf("Failed to initialize workflow: %v", err)
			}

			err = wf.Submit(context.Background(), evidence())
			if tt.wantErr {
				var analysisErr *domain.AnalysisError
				if !errors.As(err, &analysisErr) {
					t.Fatalf("Submit = %v, want an AnalysisError", err)
				}
			} else if err != nil {
				t.Fatalf("Submit failed: %v", err)
			}

			session := wf.Snapshot()
			if session.Step != tt.wantStep {
				t.Errorf("step = %q, want %q", session.Step, tt.wantStep)
			}
			if len(session.Transcript) != tt.wantTranscript {
				t.Errorf("transcript length = %d, want %d", len(session.Transcript), tt.wantTranscript)
			}
			if err := domain.VerifyTranscript(session.Transcript); err != nil {
				t.Errorf("transcript causality violated: %v", err)
			}

			if tt.wantErr {
				if session.Result != nil || session.Report != nil {
					t.Error("failed analysis must leave no report or result behind")
				}
				return
			}

			if session.Result == nil {
				t.Fatal("completed session is missing its result")
			}
			if session.Result.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", session.Result.Status, tt.wantStatus)
			}
			if session.Result.PaymentInitiated != tt.wantPayment {
				t.Errorf("payment initiated = %v, want %v", session.Result.PaymentInitiated, tt.wantPayment)
			}
			if session.Result.ReferenceID == "" {
				t.Error("result is missing its reference ID")
			}
		})
	}
}

func TestWorkflow_CustomThreshold(t *testing.T) {
	wf, err := adjuster.New(fixedAnalyzer(5000), adjuster.WithThreshold(10000))
	if err != nil {
		t.Fatalf("Failed to initialize workflow: %v", err)
	}
	if wf.Threshold() != 10000 {
		t.Fatalf("Threshold() = %d, want 10000", wf.Threshold())
	}

	if err := wf.Submit(context.Background(), evidence()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	result := wf.Snapshot().Result
	if result == nil || result.Status != domain.ClaimApproved {
		t.Errorf("result = %+v; 5000 should clear a 10000 threshold", result)
	}
}

func TestWorkflow_RequiresAnalyzer(t *testing.T) {
	if _, err := adjuster.New(nil); err == nil {
		t.Fatal("New(nil) should fail")
	}
}

func TestWorkflow_StackedHooks(t *testing.T) {
	// Hosts stack observers, for example metrics beside presentation.
	// Merged callbacks fire in argument order.
	var calls []string
	first := domain.LifecycleHooks{
		OnStepChange: func(_ context.Context, e *domain.StepEvent) {
			calls = append(calls, "first:"+string(e.To))
		},
		OnResult: func(_ context.Context, _ *domain.ResultEvent) {
			calls = append(calls, "first:result")
		},
	}
	second := domain.LifecycleHooks{
		OnStepChange: func(_ context.Context, e *domain.StepEvent) {
			calls = append(calls, "second:"+string(e.To))
		},
	}

	wf, err := adjuster.New(fixedAnalyzer(3200),
		adjuster.WithLifecycleHooks(domain.MergeLifecycleHooks(first, second)))
	if err != nil {
		t.Fatalf("Failed to initialize workflow: %v", err)
	}
	if err := wf.Submit(context.Background(), evidence()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if len(calls) < 3 {
		t.Fatalf("merged hooks recorded %d calls, want the full lifecycle", len(calls))
	}
	if calls[0] != "first:uploading" || calls[1] != "second:uploading" {
		t.Errorf("first transition observed as %v, want first then second", calls[:2])
	}
	if calls[len(calls)-1] != "first:result" {
		t.Errorf("last call = %q, want the result observer", calls[len(calls)-1])
	}
}

func TestWorkflow_SubscribeSeesLifecycle(t *testing.T) {
	wf, err := adjuster.New(fixedAnalyzer(3200))
	if err != nil {
		t.Fatalf("Failed to initialize workflow: %v", err)
	}

	updates := make(chan domain.Session, 32)
	cancel := wf.Subscribe(updates)

	if err := wf.Submit(context.Background(), evidence()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	cancel()
	close(updates)

	var steps []domain.Step
	for snap := range updates {
		if len(steps) == 0 || steps[len(steps)-1] != snap.Step {
			steps = append(steps, snap.Step)
		}
	}

	want := []domain.Step{domain.StepUploading, domain.StepAnalyzing, domain.StepNegotiating, domain.StepCompleted}
	if len(steps) != len(want) {
		t.Fatalf("observed steps %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, steps[i], want[i])
		}
	}
}
