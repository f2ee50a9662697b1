package graph

import (
	"strings"
	"testing"

	"github.com/aretw0/adjuster/pkg/domain"
)

func TestGenerateMermaid_Static(t *testing.T) {
	out := GenerateMermaid(nil)

	if !strings.HasPrefix(out, "graph TD\n") {
		t.Fatalf("Expected a TD flowchart, got:\n%s", out)
	}
	for _, want := range []string{
		`idle(("idle"))`,
		`uploading[/"uploading"/]`,
		`analyzing[["analyzing"]]`,
		`negotiating["negotiating"]`,
		`completed["completed"]`,
		`analyzing -. "analysis failed" .-> idle`,
		`completed -. "reset" .-> idle`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Diagram is missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "classDef") {
		t.Error("A nil session must not produce an overlay")
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	session := domain.NewSession()
	session.Step = domain.StepNegotiating

	out := GenerateMermaid(&session)

	for _, want := range []string{
		"class idle visited;",
		"class uploading visited;",
		"class analyzing visited;",
		"class negotiating current;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Overlay is missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "class completed") {
		t.Error("Steps after the current one must not be styled")
	}
}
