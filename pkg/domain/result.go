package domain

// ClaimStatus is the terminal disposition of a processed claim.
type ClaimStatus string

const (
	// ClaimApproved means the claim cleared the policy threshold and a
	// payment was initiated automatically.
	ClaimApproved ClaimStatus = "APPROVED"
	// ClaimManualReview means the claim needs a human adjuster before any
	// payment can move.
	ClaimManualReview ClaimStatus = "MANUAL_REVIEW"
)

// ClaimResult is the outcome record produced when a session completes.
type ClaimResult struct {
	Status ClaimStatus `json:"status"`

	// PaymentInitiated is true exactly when Status is ClaimApproved.
	PaymentInitiated bool `json:"payment_initiated"`

	// ReferenceID uniquely identifies this outcome for downstream systems.
	ReferenceID string `json:"reference_id"`

	// Report points at the same DamageReport the session analyzed.
	// Reports are immutable after analysis, so sharing is safe.
	Report *DamageReport `json:"report,omitempty"`
}
