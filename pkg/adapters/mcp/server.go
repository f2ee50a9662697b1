// Package mcp exposes the claim workflow as a Model Context Protocol
// server so agent hosts can submit evidence and inspect the session.
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/adjuster"
	"github.com/aretw0/adjuster/pkg/domain"
)

// SessionResponse aligns with the HTTP API schema and provides a unified
// structure across adapters.
type SessionResponse struct {
	Session  domain.Session `json:"session" jsonschema_description:"Point-in-time snapshot of the live claim session"`
	Terminal bool           `json:"terminal" jsonschema_description:"Indicates the session reached its outcome"`
}

// Workflow defines the interface required by the MCP server to drive claims.
type Workflow interface {
	Submit(ctx context.Context, evidence domain.Evidence) error
	Snapshot() domain.Session
	Reset()
	Threshold() int64
}

// Server wraps the claim workflow and exposes it as an MCP server.
type Server struct {
	workflow  Workflow
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(workflow Workflow) *Server {
	s := &Server{
		workflow:  workflow,
		mcpServer: server.NewMCPServer("adjuster-mcp", strings.TrimSpace(adjuster.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: submit_evidence
	submitTool := mcp.NewTool("submit_evidence",
		mcp.WithDescription("Submit claim evidence and run the workflow to its outcome. Blocks until the claim completes."),
		mcp.WithString("data", mcp.Required(), mcp.Description("Base64-encoded evidence payload")),
		mcp.WithString("media_type", mcp.Required(), mcp.Description("IANA media type, image/* or video/*")),
		mcp.WithString("name", mcp.Description("Optional label, typically a file name")),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(submitTool, mcp.NewStructuredToolHandler(s.handleSubmitEvidence))

	// TOOL: get_session
	sessionTool := mcp.NewTool("get_session",
		mcp.WithDescription("Get the current session snapshot: step, damage report, transcript and outcome."),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(sessionTool, mcp.NewStructuredToolHandler(s.handleGetSession))

	// TOOL: get_transcript
	s.mcpServer.AddTool(mcp.NewTool("get_transcript",
		mcp.WithDescription("Get every negotiation message exchanged so far, in emission order."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.workflow.Snapshot().Transcript)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("transcript marshal failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: reset_session
	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Abandon the session: discard the report, transcript and outcome and return to idle."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.workflow.Reset()
		return mcp.NewToolResultText("session reset to idle"), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleSubmitEvidence(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	data, _ := args["data"].(string)
	mediaType, _ := args["media_type"].(string)
	name, _ := args["name"].(string)

	evidence := domain.Evidence{
		Name:      name,
		MediaType: mediaType,
		Data:      []byte(data),
	}
	if err := evidence.Validate(); err != nil {
		slog.Warn("MCP SubmitEvidence: Evidence rejected", "err", err)
		return SessionResponse{}, fmt.Errorf("evidence rejected: %w", err)
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		slog.Warn("MCP SubmitEvidence: Payload rejected", "err", err)
		return SessionResponse{}, fmt.Errorf("evidence rejected: payload is not valid base64")
	}

	if err := s.workflow.Submit(ctx, evidence); err != nil {
		return SessionResponse{}, fmt.Errorf("claim failed: %w", err)
	}

	return s.currentSession(), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SessionResponse, error) {
	return s.currentSession(), nil
}

func (s *Server) currentSession() SessionResponse {
	session := s.workflow.Snapshot()
	return SessionResponse{
		Session:  session,
		Terminal: session.Step.Terminal(),
	}
}

func (s *Server) registerResources() {
	// EXPOSE: adjuster://session
	s.mcpServer.AddResource(mcp.NewResource("adjuster://session", "Current Claim Session",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.workflow.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal session: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "adjuster://session",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
