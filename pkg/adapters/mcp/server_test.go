package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aretw0/adjuster"
	"github.com/aretw0/adjuster/pkg/domain"
	"github.com/aretw0/adjuster/pkg/ports"
)

type analyzerFunc func(context.Context, domain.Evidence) (*domain.DamageReport, error)

func (f analyzerFunc) Analyze(ctx context.Context, ev domain.Evidence) (*domain.DamageReport, error) {
	return f(ctx, ev)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	var analyzer ports.Analyzer = analyzerFunc(func(context.Context, domain.Evidence) (*domain.DamageReport, error) {
		return &domain.DamageReport{
			Intensity:       domain.SeverityModerate,
			EstimatedCost:   3200,
			IdentifiedItems: []string{"front bumper"},
			Summary:         "Low-speed collision damage.",
		}, nil
	})
	wf, err := adjuster.New(analyzer)
	if err != nil {
		t.Fatalf("Failed to initialize workflow: %v", err)
	}
	return NewServer(wf)
}

func TestHandleSubmitEvidence(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.handleSubmitEvidence(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"data":       "ZmFrZS1ieXRlcw==",
		"media_type": "image/jpeg",
		"name":       "crash.jpg",
	})
	if err != nil {
		t.Fatalf("submit_evidence failed: %v", err)
	}

	if !resp.Terminal {
		t.Error("Expected a terminal session after a synchronous run")
	}
	if resp.Session.Step != domain.StepCompleted {
		t.Errorf("step = %q, want completed", resp.Session.Step)
	}
	if resp.Session.Result == nil || resp.Session.Result.Status != domain.ClaimApproved {
		t.Errorf("result = %+v, want an approved claim", resp.Session.Result)
	}
}

func TestHandleSubmitEvidence_Rejections(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{
			name: "missing payload",
			args: map[string]interface{}{"media_type": "image/jpeg"},
			want: "evidence rejected",
		},
		{
			name: "unsupported media type",
			args: map[string]interface{}{"data": "Zm9v", "media_type": "application/pdf"},
			want: "unsupported media type",
		},
		{
			name: "invalid base64",
			args: map[string]interface{}{"data": "not base64!!", "media_type": "image/jpeg"},
			want: "not valid base64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)

			_, err := srv.handleSubmitEvidence(context.Background(), mcp.CallToolRequest{}, tt.args)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
			if step := srv.workflow.Snapshot().Step; step != domain.StepIdle {
				t.Errorf("Rejected evidence must not advance the session, step = %q", step)
			}
		})
	}
}

func TestHandleGetSession(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.handleGetSession(context.Background(), mcp.CallToolRequest{}, nil)
	if err != nil {
		t.Fatalf("get_session failed: %v", err)
	}
	if resp.Session.Step != domain.StepIdle || resp.Terminal {
		t.Errorf("Expected an idle non-terminal session, got %+v", resp)
	}
}
