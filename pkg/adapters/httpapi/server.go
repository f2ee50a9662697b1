// Package httpapi exposes the claim workflow over HTTP: evidence intake,
// session inspection, reset and a server-sent-events stream of session
// diffs. The OpenAPI document under api/ is the contract it implements.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/adjuster"
	"github.com/aretw0/adjuster/api"
	"github.com/aretw0/adjuster/pkg/domain"
)

// Workflow defines what the server needs from the claim workflow core.
type Workflow interface {
	Submit(ctx context.Context, evidence domain.Evidence) error
	Snapshot() domain.Session
	Reset()
	Subscribe(ch chan<- domain.Session) (cancel func())
	Threshold() int64
}

// Server hosts one Workflow; the single live session is shared by every
// client of the API.
type Server struct {
	Workflow Workflow
	Streams  *StreamManager

	logger     *slog.Logger
	gatherer   prometheus.Gatherer
	apiVersion string
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the structured logger for request handling.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics sets the gatherer backing GET /metrics. Defaults to the
// process-wide prometheus registry.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// NewHandler creates the HTTP handler for the workflow and starts the
// diff pump feeding the event stream. The pump lives as long as the
// process; one handler per workflow is the expected shape.
func NewHandler(workflow Workflow, opts ...Option) http.Handler {
	server := &Server{
		Workflow: workflow,
		Streams:  NewStreamManager(),
		logger:   slog.Default(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(server)
	}

	server.apiVersion = "unknown"
	if doc, err := openapi3.NewLoader().LoadFromData(api.Spec); err == nil && doc.Info != nil {
		server.apiVersion = doc.Info.Version
	}

	updates := make(chan domain.Session, 32)
	workflow.Subscribe(updates)
	initial := workflow.Snapshot()
	go server.pump(initial, updates)

	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(api.Spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	r.Post("/claim/evidence", server.SubmitEvidence)
	r.Get("/claim/session", server.GetSession)
	r.Get("/claim/transcript", server.GetTranscript)
	r.Post("/claim/reset", server.ResetSession)
	r.Get("/events", server.SubscribeEvents)
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Adjuster API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

type evidenceRequest struct {
	Name      string `json:"name,omitempty"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// SubmitEvidence handles the POST /claim/evidence request. The claim runs
// on its own goroutine; clients observe progress via the session endpoints
// or the event stream.
func (s *Server) SubmitEvidence(w http.ResponseWriter, r *http.Request) {
	var body evidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("SubmitEvidence: Invalid request body", "err", err)
		return
	}

	evidence := domain.Evidence{
		Name:      body.Name,
		MediaType: body.MediaType,
		Data:      []byte(body.Data),
	}
	if err := evidence.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		s.logger.Warn("SubmitEvidence: Evidence rejected", "err", err)
		return
	}
	if _, err := base64.StdEncoding.DecodeString(body.Data); err != nil {
		s.writeError(w, http.StatusBadRequest, "evidence payload is not valid base64")
		s.logger.Warn("SubmitEvidence: Payload rejected", "err", err)
		return
	}

	// Best-effort early rejection; the workflow enforces the single-session
	// rule atomically either way.
	if step := s.Workflow.Snapshot().Step; step != domain.StepIdle {
		s.writeError(w, http.StatusConflict, domain.ErrSessionBusy.Error())
		return
	}

	go func() {
		err := s.Workflow.Submit(context.Background(), evidence)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrSessionReset):
			s.logger.Info("Claim run discarded by reset")
		case errors.Is(err, domain.ErrSessionBusy):
			s.logger.Warn("Claim lost the race for the session")
		default:
			s.logger.Error("Claim run failed", "err", err)
		}
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// GetSession handles the GET /claim/session request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Workflow.Snapshot())
}

// GetTranscript handles the GET /claim/transcript request.
func (s *Server) GetTranscript(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Workflow.Snapshot().Transcript)
}

// ResetSession handles the POST /claim/reset request.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	s.Workflow.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":         "adjuster-http",
		"version":     strings.TrimSpace(adjuster.Version),
		"api_version": s.apiVersion,
		"threshold":   s.Workflow.Threshold(),
	})
}

// pump turns workflow snapshots into broadcast diff frames. Dropped
// snapshots are harmless: the diff is always computed against the last
// snapshot actually received, so gaps collapse into one larger frame.
func (s *Server) pump(initial domain.Session, updates <-chan domain.Session) {
	prev := initial
	for snapshot := range updates {
		diff := domain.Diff(&prev, &snapshot)
		prev = snapshot
		if diff == nil {
			continue
		}
		frame, err := json.Marshal(diff)
		if err != nil {
			s.logger.Error("Diff marshal failed", "err", err)
			continue
		}
		s.Streams.Broadcast(string(frame))
	}
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- string]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan<- string]struct{}),
	}
}

func (sm *StreamManager) Subscribe() (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			// Drop the frame rather than stall the pump on a slow client.
			slog.Warn("SSE: Client buffer full, dropping frame")
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE). The stream opens
// with a ping and a full snapshot, then forwards one diff frame per
// observable session change until the client disconnects.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	if snapshot, err := json.Marshal(s.Workflow.Snapshot()); err == nil {
		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snapshot)
	}
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !matchesWatch(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// matchesWatch reports whether the frame touches any watched diff field.
// It deserializes the frame to inspect it, which costs a little per client;
// acceptable at the connection counts a single-session server sees.
func matchesWatch(msg string, watchList []string) bool {
	var diff domain.SessionDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "step":
			if diff.Step != nil || diff.Cleared {
				return true
			}
		case "report":
			if diff.Report != nil {
				return true
			}
		case "transcript":
			if diff.Transcript != nil {
				return true
			}
		case "result":
			if diff.Result != nil {
				return true
			}
		}
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
