package domain

import (
	"fmt"
	"strings"
)

// Severity is the ordered damage scale reported by the vision collaborator.
type Severity string

const (
	SeverityLow          Severity = "Low"
	SeverityModerate     Severity = "Moderate"
	SeveritySevere       Severity = "Severe"
	SeverityCatastrophic Severity = "Catastrophic"
)

// severityRanks orders the scale: Low < Moderate < Severe < Catastrophic.
var severityRanks = map[Severity]int{
	SeverityLow:          0,
	SeverityModerate:     1,
	SeveritySevere:       2,
	SeverityCatastrophic: 3,
}

// Valid reports whether s is one of the four scale levels.
func (s Severity) Valid() bool {
	_, ok := severityRanks[s]
	return ok
}

// Rank returns the position of s on the scale (Low = 0). Invalid values rank -1.
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s is as severe as other or worse.
func (s Severity) AtLeast(other Severity) bool {
	return s.Valid() && other.Valid() && s.Rank() >= other.Rank()
}

// ParseSeverity maps a wire value onto the scale, ignoring case.
func ParseSeverity(raw string) (Severity, error) {
	for level := range severityRanks {
		if strings.EqualFold(raw, string(level)) {
			return level, nil
		}
	}
	return "", fmt.Errorf("%w: unknown intensity %q", ErrInvalidReport, raw)
}

// DamageReport is the structured output of a vision analysis.
// It is immutable once produced and owned by the session that requested it;
// downstream consumers share the pointer rather than copying.
type DamageReport struct {
	Intensity Severity `json:"intensity"`

	// EstimatedCost is a non-negative amount in whole monetary units.
	EstimatedCost int64 `json:"estimated_cost"`

	// IdentifiedItems lists damaged items in detection order.
	// The order is not semantically significant and the list may be empty.
	IdentifiedItems []string `json:"identified_items"`

	Summary string `json:"summary"`

	StructuralIntegrityRisk bool `json:"structural_integrity_risk"`
}

// Validate enforces the gateway output contract: a report that fails here
// must never enter negotiation.
func (r *DamageReport) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: report is nil", ErrInvalidReport)
	}
	if !r.Intensity.Valid() {
		return fmt.Errorf("%w: unknown intensity %q", ErrInvalidReport, r.Intensity)
	}
	if r.EstimatedCost < 0 {
		return fmt.Errorf("%w: estimated cost %d is negative", ErrInvalidReport, r.EstimatedCost)
	}
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("%w: summary is empty", ErrInvalidReport)
	}
	return nil
}
