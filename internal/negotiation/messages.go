package negotiation

import (
	"time"

	"github.com/aretw0/adjuster/pkg/domain"
)

// Method names carried in transcript payloads.
const (
	MethodProposeClaim    = "PROPOSE_CLAIM"
	MethodEvaluatePolicy  = "EVALUATE_POLICY"
	MethodInitiatePayment = "INITIATE_PAYMENT"
)

// Evaluation outcomes carried in EVALUATE_POLICY payloads.
const (
	ResultAutoApprove         = "AUTO_APPROVE"
	ResultRequireManualReview = "REQUIRE_MANUAL_REVIEW"
)

// Fixed identifiers the built-in agents announce on the wire.
const (
	// RequesterVersion identifies the requesting agent implementation.
	RequesterVersion = "claims-requester/1.0.0"
	// Currency is the settlement currency for initiated payments.
	Currency = "USD"
	// SettlementNetwork names the rails payments are initiated on.
	SettlementNetwork = "sim-rail-01"
)

// DefaultThreshold is the approval threshold applied when none is configured:
// claims strictly below it are auto-approved.
const DefaultThreshold int64 = 5000

// ProposeClaimParams is the typed view of a PROPOSE_CLAIM payload.
type ProposeClaimParams struct {
	Assessment   *domain.DamageReport `json:"assessment" mapstructure:"assessment"`
	AgentVersion string               `json:"agent_version" mapstructure:"agent_version"`
}

// EvaluatePolicyParams is the typed view of an EVALUATE_POLICY payload.
type EvaluatePolicyParams struct {
	Result           string `json:"result" mapstructure:"result"`
	ThresholdApplied int64  `json:"threshold_applied" mapstructure:"threshold_applied"`
}

// InitiatePaymentParams is the typed view of an INITIATE_PAYMENT payload.
type InitiatePaymentParams struct {
	Amount            int64  `json:"amount" mapstructure:"amount"`
	Currency          string `json:"currency" mapstructure:"currency"`
	SettlementNetwork string `json:"settlement_network" mapstructure:"settlement_network"`
}

func newProposal(now time.Time, report *domain.DamageReport) domain.Message {
	return domain.Message{
		Time:     now,
		From:     domain.RoleRequester,
		To:       domain.RolePolicy,
		Protocol: domain.ProtocolNegotiation,
		Status:   domain.StatusSent,
		Payload: domain.Payload{
			Method: MethodProposeClaim,
			Params: map[string]any{
				"assessment":    report,
				"agent_version": RequesterVersion,
			},
		},
	}
}

func newEvaluation(now time.Time, outcome string, threshold int64) domain.Message {
	return domain.Message{
		Time:     now,
		From:     domain.RolePolicy,
		To:       domain.RoleRequester,
		Protocol: domain.ProtocolNegotiation,
		Status:   domain.StatusProcessed,
		Payload: domain.Payload{
			Method: MethodEvaluatePolicy,
			Params: map[string]any{
				"result":            outcome,
				"threshold_applied": threshold,
			},
		},
	}
}

// newSettlement is self-directed: the policy agent instructs its own payment
// rail, so both endpoints are the policy agent.
func newSettlement(now time.Time, amount int64) domain.Message {
	return domain.Message{
		Time:     now,
		From:     domain.RolePolicy,
		To:       domain.RolePolicy,
		Protocol: domain.ProtocolPayment,
		Status:   domain.StatusSent,
		Payload: domain.Payload{
			Method: MethodInitiatePayment,
			Params: map[string]any{
				"amount":             amount,
				"currency":           Currency,
				"settlement_network": SettlementNetwork,
			},
		},
	}
}
