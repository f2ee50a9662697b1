package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/adjuster/pkg/domain"
)

var stepColors = map[domain.Step]string{
	domain.StepIdle:        "#94a3b8",
	domain.StepUploading:   "#38bdf8",
	domain.StepAnalyzing:   "#facc15",
	domain.StepNegotiating: "#c084fc",
	domain.StepCompleted:   "#4ade80",
}

// StepLabel returns a colored one-line indicator for the given step.
func StepLabel(step domain.Step) string {
	p := termenv.ColorProfile()
	color, ok := stepColors[step]
	if !ok {
		color = "#94a3b8"
	}
	return termenv.String("● " + string(step)).Foreground(p.Color(color)).String()
}

// FormatReport renders a damage report as markdown.
func FormatReport(report *domain.DamageReport) string {
	if report == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Damage Assessment\n\n")
	fmt.Fprintf(&sb, "- **Intensity:** %s\n", report.Intensity)
	fmt.Fprintf(&sb, "- **Estimated cost:** USD %d\n", report.EstimatedCost)
	if len(report.IdentifiedItems) > 0 {
		fmt.Fprintf(&sb, "- **Identified items:** %s\n", strings.Join(report.IdentifiedItems, ", "))
	}
	if report.StructuralIntegrityRisk {
		sb.WriteString("- **Structural integrity at risk**\n")
	}
	fmt.Fprintf(&sb, "\n> %s\n", report.Summary)
	return sb.String()
}

// FormatMessage renders one transcript entry as markdown. Seq is the
// entry's zero-based position; it is shown one-based.
func FormatMessage(seq int, msg domain.Message) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%d. %s → %s** `%s`\n\n", seq+1, msg.From, msg.To, msg.Payload.Method)
	fmt.Fprintf(&sb, "_%s, %s_\n", msg.Protocol, msg.Status)

	if len(msg.Payload.Params) > 0 {
		if params, err := json.MarshalIndent(msg.Payload.Params, "", "  "); err == nil {
			fmt.Fprintf(&sb, "\n```json\n%s\n```\n", params)
		}
	}
	return sb.String()
}

// FormatResult renders the claim outcome as markdown.
func FormatResult(result *domain.ClaimResult) string {
	if result == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Claim %s\n\n", result.Status)
	if result.PaymentInitiated {
		sb.WriteString("- **Payment:** initiated\n")
	} else {
		sb.WriteString("- **Payment:** not initiated\n")
	}
	fmt.Fprintf(&sb, "- **Reference:** `%s`\n", result.ReferenceID)
	if result.Status == domain.ClaimManualReview {
		sb.WriteString("\n> A human adjuster will review this claim.\n")
	}
	return sb.String()
}
