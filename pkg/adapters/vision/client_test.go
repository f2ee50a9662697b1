package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/adjuster/pkg/domain"
)

func testEvidence() domain.Evidence {
	return domain.Evidence{Name: "crash.jpg", MediaType: "image/jpeg", Data: []byte("ZmFrZS1ieXRlcw==")}
}

func TestClientAnalyze(t *testing.T) {
	var gotRequest analysisRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"intensity":                 "Moderate",
			"estimated_cost":            3200,
			"identified_items":          []string{"front bumper", "left headlamp"},
			"summary":                   "Moderate front-end damage.",
			"structural_integrity_risk": false,
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, WithToken("secret-token"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	report, err := client.Analyze(context.Background(), testEvidence())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if report.Intensity != domain.SeverityModerate {
		t.Errorf("Intensity = %q", report.Intensity)
	}
	if report.EstimatedCost != 3200 {
		t.Errorf("EstimatedCost = %d", report.EstimatedCost)
	}
	if len(report.IdentifiedItems) != 2 {
		t.Errorf("IdentifiedItems = %v", report.IdentifiedItems)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization header = %q", gotAuth)
	}
	if gotRequest.MediaType != "image/jpeg" || gotRequest.Data != "ZmFrZS1ieXRlcw==" {
		t.Errorf("request = %+v, evidence not forwarded verbatim", gotRequest)
	}
}

func TestClientAnalyzeFailures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantReason string
	}{
		{
			name: "Unsuitable Evidence",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				json.NewEncoder(w).Encode(map[string]string{"error": "no vehicle visible in frame"})
			},
			wantReason: "no vehicle visible",
		},
		{
			name: "Unsuitable Without Body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
			},
			wantReason: "unsuitable",
		},
		{
			name: "Gateway Crash",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantReason: "status 500",
		},
		{
			name: "Unknown Intensity",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"intensity":      "off-the-charts",
					"estimated_cost": 100,
					"summary":        "weird",
				})
			},
			wantReason: "malformed",
		},
		{
			name: "Fractional Cost",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"intensity":      "Low",
					"estimated_cost": 99.5,
					"summary":        "half units are not a thing",
				})
			},
			wantReason: "malformed",
		},
		{
			name: "Negative Cost",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"intensity":      "Low",
					"estimated_cost": -10,
					"summary":        "refund?",
				})
			},
			wantReason: "malformed",
		},
		{
			name: "Garbage Body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>not json</html>"))
			},
			wantReason: "malformed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client, err := NewClient(server.URL)
			if err != nil {
				t.Fatalf("NewClient failed: %v", err)
			}

			_, err = client.Analyze(context.Background(), testEvidence())
			var analysisErr *domain.AnalysisError
			if !errors.As(err, &analysisErr) {
				t.Fatalf("Analyze = %v, want *domain.AnalysisError", err)
			}
			if !strings.Contains(strings.ToLower(analysisErr.Reason), strings.ToLower(tt.wantReason)) {
				t.Errorf("Reason = %q, want it to mention %q", analysisErr.Reason, tt.wantReason)
			}
		})
	}
}

func TestClientAnalyzeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens anymore

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	_, err = client.Analyze(context.Background(), testEvidence())
	var analysisErr *domain.AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("Analyze = %v, want *domain.AnalysisError", err)
	}
	if !strings.Contains(analysisErr.Reason, "unreachable") {
		t.Errorf("Reason = %q", analysisErr.Reason)
	}
	if analysisErr.Unwrap() == nil {
		t.Error("transport failures should keep their cause")
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Fatal("NewClient(\"\") should fail")
	}
}
