// Package graph renders the claim workflow as a Mermaid flowchart,
// optionally overlaying a session's progress onto it.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/adjuster/pkg/domain"
)

// stepOrder is the forward path a claim takes.
var stepOrder = []domain.Step{
	domain.StepIdle,
	domain.StepUploading,
	domain.StepAnalyzing,
	domain.StepNegotiating,
	domain.StepCompleted,
}

// GenerateMermaid produces Mermaid flowchart syntax for the workflow.
// It applies semantic styling:
// - idle: ((Circle)), the resting state
// - uploading: [/Parallelogram/], evidence intake
// - analyzing: [[Subroutine]], the external vision call
// - other steps: [Rectangle]
// A non-nil session overlays visited/current styles onto the steps.
func GenerateMermaid(session *domain.Session) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, step := range stepOrder {
		opener, closer := "[", "]"
		switch step {
		case domain.StepIdle:
			opener, closer = "((", "))"
		case domain.StepUploading:
			opener, closer = "[/", "/]"
		case domain.StepAnalyzing:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", step, opener, step, closer)
	}

	sb.WriteString("    idle -- \"evidence submitted\" --> uploading\n")
	sb.WriteString("    uploading --> analyzing\n")
	sb.WriteString("    analyzing -- \"damage report\" --> negotiating\n")
	sb.WriteString("    negotiating -- \"outcome\" --> completed\n")
	sb.WriteString("    analyzing -. \"analysis failed\" .-> idle\n")
	sb.WriteString("    completed -. \"reset\" .-> idle\n")

	if session != nil {
		sb.WriteString("\n    %% Session Overlay\n")
		// Force black text for high contrast regardless of theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for _, step := range stepOrder {
			if step == session.Step {
				break
			}
			fmt.Fprintf(&sb, "    class %s visited;\n", step)
		}
		fmt.Fprintf(&sb, "    class %s current;\n", session.Step)
	}

	return sb.String()
}
