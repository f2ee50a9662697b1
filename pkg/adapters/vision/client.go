// Package vision provides Analyzer adapters: an HTTP client for a remote
// damage-assessment gateway and a simulated backend for offline use.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/adjuster/internal/logging"
	"github.com/aretw0/adjuster/pkg/domain"
)

// DefaultTimeout bounds a single analysis round-trip when the caller does
// not supply an *http.Client of their own.
const DefaultTimeout = 60 * time.Second

// Client calls a remote vision gateway over HTTP.
// Every failure mode is reported as a *domain.AnalysisError so the workflow
// treats the gateway as a recoverable collaborator.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption defines a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client, e.g. to tune
// timeouts or inject a test transport.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithToken sends a bearer token with every analysis request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a gateway client for the given endpoint, typically
// something like "https://vision.internal/v1/assess".
func NewClient(endpoint string, opts ...ClientOption) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("a gateway endpoint is required")
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// analysisRequest is the gateway wire format for submissions. Data carries
// the evidence payload with its transfer encoding already applied.
type analysisRequest struct {
	Name      string `json:"name,omitempty"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// analysisResponse mirrors domain.DamageReport but keeps the loosely typed
// wire values so malformed gateway output fails here, not in negotiation.
type analysisResponse struct {
	Intensity               string      `json:"intensity"`
	EstimatedCost           json.Number `json:"estimated_cost"`
	IdentifiedItems         []string    `json:"identified_items"`
	Summary                 string      `json:"summary"`
	StructuralIntegrityRisk bool        `json:"structural_integrity_risk"`
}

type gatewayError struct {
	Error string `json:"error"`
}

// Analyze submits the evidence and decodes the gateway's assessment.
func (c *Client) Analyze(ctx context.Context, evidence domain.Evidence) (*domain.DamageReport, error) {
	body, err := json.Marshal(analysisRequest{
		Name:      evidence.Name,
		MediaType: evidence.MediaType,
		Data:      string(evidence.Data),
	})
	if err != nil {
		return nil, domain.NewAnalysisError("could not encode evidence", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewAnalysisError("could not build gateway request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("analysis request", "endpoint", c.endpoint, "media_type", evidence.MediaType, "bytes", len(evidence.Data))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewAnalysisError("vision collaborator unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(resp)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var wire analysisResponse
	if err := decoder.Decode(&wire); err != nil {
		return nil, domain.NewAnalysisError("malformed analysis response", err)
	}
	return c.buildReport(wire)
}

// statusError maps non-2xx responses onto analysis failures, preserving the
// gateway's own reason when it supplies one.
func (c *Client) statusError(resp *http.Response) *domain.AnalysisError {
	var ge gatewayError
	if err := json.NewDecoder(resp.Body).Decode(&ge); err == nil && ge.Error != "" {
		return domain.NewAnalysisError(ge.Error, nil)
	}
	if resp.StatusCode == http.StatusUnprocessableEntity {
		return domain.NewAnalysisError("evidence unsuitable for analysis", nil)
	}
	return domain.NewAnalysisError(fmt.Sprintf("vision collaborator returned status %d", resp.StatusCode), nil)
}

func (c *Client) buildReport(wire analysisResponse) (*domain.DamageReport, error) {
	intensity, err := domain.ParseSeverity(wire.Intensity)
	if err != nil {
		return nil, domain.NewAnalysisError("malformed analysis response", err)
	}

	// Costs are whole monetary units; a fractional value means the gateway
	// spoke a different contract version.
	cost, err := wire.EstimatedCost.Int64()
	if err != nil {
		return nil, domain.NewAnalysisError("malformed analysis response",
			fmt.Errorf("estimated cost %q is not a whole amount: %w", wire.EstimatedCost, err))
	}

	report := &domain.DamageReport{
		Intensity:               intensity,
		EstimatedCost:           cost,
		IdentifiedItems:         wire.IdentifiedItems,
		Summary:                 wire.Summary,
		StructuralIntegrityRisk: wire.StructuralIntegrityRisk,
	}
	if err := report.Validate(); err != nil {
		return nil, domain.NewAnalysisError("malformed analysis response", err)
	}

	c.logger.Debug("analysis response",
		"intensity", report.Intensity,
		"estimated_cost", report.EstimatedCost,
		"items", len(report.IdentifiedItems),
	)
	return report, nil
}
