package negotiation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/adjuster/pkg/domain"
	"github.com/aretw0/adjuster/pkg/pacing"
)

func sampleReport(cost int64) *domain.DamageReport {
	return &domain.DamageReport{
		Intensity:       domain.SeverityModerate,
		EstimatedCost:   cost,
		IdentifiedItems: []string{"front bumper", "left headlamp"},
		Summary:         "Moderate front-end damage consistent with a low-speed collision.",
	}
}

func collect(into *[]domain.Message) Sink {
	return func(m domain.Message) error {
		*into = append(*into, m)
		return nil
	}
}

func TestRunApprovedClaim(t *testing.T) {
	report := sampleReport(3200)
	protocol := New()

	var transcript []domain.Message
	result, err := protocol.Run(context.Background(), report, collect(&transcript))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Status != domain.ClaimApproved {
		t.Errorf("Status = %q, want APPROVED", result.Status)
	}
	if !result.PaymentInitiated {
		t.Error("PaymentInitiated should be true for an approved claim")
	}
	if result.ReferenceID == "" {
		t.Error("ReferenceID should be minted")
	}
	if result.Report != report {
		t.Error("Result should share the analyzed report, not copy it")
	}

	if len(transcript) != 3 {
		t.Fatalf("transcript length = %d, want 3", len(transcript))
	}
	if err := domain.VerifyTranscript(transcript); err != nil {
		t.Errorf("transcript causality violated: %v", err)
	}

	proposal, evaluation, settlement := transcript[0], transcript[1], transcript[2]

	if proposal.Payload.Method != MethodProposeClaim || proposal.Status != domain.StatusSent {
		t.Errorf("first entry = %s/%s, want PROPOSE_CLAIM/SENT", proposal.Payload.Method, proposal.Status)
	}
	if proposal.From != domain.RoleRequester || proposal.To != domain.RolePolicy {
		t.Errorf("proposal direction = %s -> %s", proposal.From, proposal.To)
	}
	if proposal.Protocol != domain.ProtocolNegotiation {
		t.Errorf("proposal protocol = %q", proposal.Protocol)
	}

	if evaluation.Payload.Method != MethodEvaluatePolicy || evaluation.Status != domain.StatusProcessed {
		t.Errorf("second entry = %s/%s, want EVALUATE_POLICY/PROCESSED", evaluation.Payload.Method, evaluation.Status)
	}
	if evaluation.From != domain.RolePolicy || evaluation.To != domain.RoleRequester {
		t.Errorf("evaluation direction = %s -> %s", evaluation.From, evaluation.To)
	}
	var evalParams EvaluatePolicyParams
	if err := evaluation.Payload.DecodeParams(&evalParams); err != nil {
		t.Fatalf("decoding evaluation params: %v", err)
	}
	if evalParams.Result != ResultAutoApprove {
		t.Errorf("evaluation result = %q, want AUTO_APPROVE", evalParams.Result)
	}
	if evalParams.ThresholdApplied != DefaultThreshold {
		t.Errorf("threshold applied = %d, want %d", evalParams.ThresholdApplied, DefaultThreshold)
	}

	if settlement.Payload.Method != MethodInitiatePayment || settlement.Status != domain.StatusSent {
		t.Errorf("third entry = %s/%s, want INITIATE_PAYMENT/SENT", settlement.Payload.Method, settlement.Status)
	}
	if settlement.From != domain.RolePolicy || settlement.To != domain.RolePolicy {
		t.Errorf("settlement should be self-directed, got %s -> %s", settlement.From, settlement.To)
	}
	if settlement.Protocol != domain.ProtocolPayment {
		t.Errorf("settlement protocol = %q, want payment-protocol", settlement.Protocol)
	}
	var payParams InitiatePaymentParams
	if err := settlement.Payload.DecodeParams(&payParams); err != nil {
		t.Fatalf("decoding settlement params: %v", err)
	}
	if payParams.Amount != 3200 {
		t.Errorf("settlement amount = %d, want 3200", payParams.Amount)
	}
	if payParams.Currency != Currency || payParams.SettlementNetwork != SettlementNetwork {
		t.Errorf("settlement rails = %s/%s", payParams.Currency, payParams.SettlementNetwork)
	}

	var proposalParams ProposeClaimParams
	if err := proposal.Payload.DecodeParams(&proposalParams); err != nil {
		t.Fatalf("decoding proposal params: %v", err)
	}
	if proposalParams.Assessment != report {
		t.Error("proposal should carry the shared report")
	}
	if proposalParams.AgentVersion != RequesterVersion {
		t.Errorf("agent version = %q", proposalParams.AgentVersion)
	}
}

func TestRunThresholdDecisions(t *testing.T) {
	tests := []struct {
		name       string
		cost       int64
		threshold  int64
		wantStatus domain.ClaimStatus
		wantMsgs   int
	}{
		{"Below Default", 3200, DefaultThreshold, domain.ClaimApproved, 3},
		{"Exactly At Boundary", 5000, DefaultThreshold, domain.ClaimManualReview, 2},
		{"Above Default", 12000, DefaultThreshold, domain.ClaimManualReview, 2},
		{"One Under Custom", 9999, 10000, domain.ClaimApproved, 3},
		{"At Custom Boundary", 10000, 10000, domain.ClaimManualReview, 2},
		{"Zero Cost", 0, DefaultThreshold, domain.ClaimApproved, 3},
		{"Zero Threshold Reviews Everything", 0, 0, domain.ClaimManualReview, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			protocol := New(WithThreshold(tt.threshold))

			var transcript []domain.Message
			result, err := protocol.Run(context.Background(), sampleReport(tt.cost), collect(&transcript))
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			if result.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", result.Status, tt.wantStatus)
			}
			if result.PaymentInitiated != (tt.wantStatus == domain.ClaimApproved) {
				t.Errorf("PaymentInitiated = %v for %q", result.PaymentInitiated, result.Status)
			}
			if len(transcript) != tt.wantMsgs {
				t.Errorf("transcript length = %d, want %d", len(transcript), tt.wantMsgs)
			}
			for _, m := range transcript {
				if tt.wantStatus == domain.ClaimManualReview && m.Payload.Method == MethodInitiatePayment {
					t.Error("manual review transcript must not contain a payment entry")
				}
			}
		})
	}
}

func TestRunRejectsUnanalyzedReport(t *testing.T) {
	protocol := New()

	sinkCalls := 0
	_, err := protocol.Run(context.Background(), nil, func(domain.Message) error {
		sinkCalls++
		return nil
	})
	if !errors.Is(err, domain.ErrInvalidReport) {
		t.Fatalf("Run(nil report) = %v, want ErrInvalidReport", err)
	}
	if sinkCalls != 0 {
		t.Errorf("sink called %d times before validation", sinkCalls)
	}

	bad := sampleReport(100)
	bad.Summary = ""
	if _, err := protocol.Run(context.Background(), bad, nil); !errors.Is(err, domain.ErrInvalidReport) {
		t.Fatalf("Run(invalid report) = %v, want ErrInvalidReport", err)
	}
}

func TestRunSinkErrorAborts(t *testing.T) {
	protocol := New()
	discard := errors.New("session superseded")

	calls := 0
	result, err := protocol.Run(context.Background(), sampleReport(100), func(domain.Message) error {
		calls++
		return discard
	})
	if !errors.Is(err, discard) {
		t.Fatalf("Run = %v, want the sink's error", err)
	}
	if result != nil {
		t.Error("no result should be produced after a sink refusal")
	}
	if calls != 1 {
		t.Errorf("sink called %d times after refusing, want 1", calls)
	}
}

func TestRunCancellationBetweenPhases(t *testing.T) {
	protocol := New(WithPacer(pacing.Fixed(5 * time.Second)))

	ctx, cancel := context.WithCancel(context.Background())
	var transcript []domain.Message

	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		_, runErr = protocol.Run(ctx, sampleReport(100), collect(&transcript))
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not unblock on cancellation")
	}

	if !errors.Is(runErr, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", runErr)
	}
	if len(transcript) != 1 {
		t.Errorf("transcript length = %d, want only the proposal emitted before the pause", len(transcript))
	}
}

type countingPacer struct {
	pauses int
}

func (c *countingPacer) Pause(ctx context.Context) error {
	c.pauses++
	return ctx.Err()
}

func TestRunPausesBetweenPhases(t *testing.T) {
	t.Run("Approved Has Two Pauses", func(t *testing.T) {
		pacer := &countingPacer{}
		protocol := New(WithPacer(pacer))
		if _, err := protocol.Run(context.Background(), sampleReport(100), nil); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if pacer.pauses != 2 {
			t.Errorf("pauses = %d, want 2", pacer.pauses)
		}
	})

	t.Run("Manual Review Has One Pause", func(t *testing.T) {
		pacer := &countingPacer{}
		protocol := New(WithPacer(pacer))
		if _, err := protocol.Run(context.Background(), sampleReport(99999), nil); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if pacer.pauses != 1 {
			t.Errorf("pauses = %d, want 1", pacer.pauses)
		}
	})
}

func TestReferenceIDsAreUnique(t *testing.T) {
	protocol := New()

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		result, err := protocol.Run(context.Background(), sampleReport(100), nil)
		if err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
		if _, dup := seen[result.ReferenceID]; dup {
			t.Fatalf("duplicate reference ID %q on run %d", result.ReferenceID, i)
		}
		seen[result.ReferenceID] = struct{}{}
	}
}

func TestRunFixedClockTimestamps(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	protocol := New(WithClock(func() time.Time { return at }), WithReferenceGenerator(func() string { return "ref-fixed" }))

	var transcript []domain.Message
	result, err := protocol.Run(context.Background(), sampleReport(100), collect(&transcript))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ReferenceID != "ref-fixed" {
		t.Errorf("ReferenceID = %q, generator not honored", result.ReferenceID)
	}
	for i, m := range transcript {
		if !m.Time.Equal(at) {
			t.Errorf("entry %d timestamp = %v, want injected clock", i, m.Time)
		}
	}
}
