// ABOUTME: MCP server over SSE transport: GET /sse, POST /messages, GET /health.
// ABOUTME: JSON-RPC responses are delivered on the session's SSE stream.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopstream/shopmcp/internal/tools"
)

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// Config holds configuration for the MCP server.
type Config struct {
	Registry    *tools.Registry
	Logger      *slog.Logger
	Version     string
	ToolTimeout time.Duration
}

// Server serves tools over the MCP SSE transport.
type Server struct {
	registry    *tools.Registry
	sessions    *SessionRegistry
	logger      *slog.Logger
	version     string
	toolTimeout time.Duration
	startedAt   time.Time
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.ToolTimeout == 0 {
		cfg.ToolTimeout = 30 * time.Second
	}

	return &Server{
		registry:    cfg.Registry,
		sessions:    NewSessionRegistry(logger),
		logger:      logger,
		version:     cfg.Version,
		toolTimeout: cfg.ToolTimeout,
		startedAt:   time.Now(),
	}, nil
}

// Sessions exposes the session registry, mainly for tests and shutdown.
func (s *Server) Sessions() *SessionRegistry {
	return s.sessions
}

// RegisterRoutes registers the MCP endpoints on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/sse", s.handleSSE)
	mux.HandleFunc("/messages", s.handleMessages)
	mux.HandleFunc("/health", s.handleHealth)
}

// Shutdown notifies connected clients and closes every session.
func (s *Server) Shutdown() {
	s.logger.Info("notifying clients of shutdown", "connections", s.sessions.Len())
	s.sessions.Broadcast(Event{Name: "server_shutdown", Data: []byte(`{"reason":"server is shutting down"}`)})
	s.sessions.CloseAll()
}

// handleSSE opens a session and streams its events to the client. The
// first frame is the endpoint event telling the client where to POST.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sess := s.sessions.Open()
	defer s.sessions.Close(sess.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	endpoint := fmt.Sprintf("/messages?sessionId=%s", sess.ID)
	writeSSEEvent(w, flusher, "endpoint", []byte(endpoint))

	for {
		select {
		case ev := <-sess.Events():
			writeSSEEvent(w, flusher, ev.Name, ev.Data)
		case <-sess.Done():
			// Drain anything queued before the close, such as the
			// shutdown notice.
			for {
				select {
				case ev := <-sess.Events():
					writeSSEEvent(w, flusher, ev.Name, ev.Data)
				default:
					return
				}
			}
		case <-r.Context().Done():
			return
		}
	}
}

// handleMessages accepts a JSON-RPC message for an existing session. The
// HTTP response is always 202; the JSON-RPC response rides the SSE stream.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sendJSONError(w, http.StatusBadRequest, "sessionId query parameter is required")
		return
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		sendJSONError(w, http.StatusNotFound, "unknown session")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		sendJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.respond(sess, errorResponse(nil, JSONRPCParseError, "invalid JSON"))
		w.WriteHeader(http.StatusAccepted)
		return
	}
	if req.JSONRPC != "2.0" {
		s.respond(sess, errorResponse(req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version"))
		w.WriteHeader(http.StatusAccepted)
		return
	}

	s.logger.Debug("message received",
		"method", req.Method,
		"session_id", sessionID,
		"is_notification", req.IsNotification(),
	)

	// Notifications get no response at all.
	if req.IsNotification() {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	go s.dispatch(sess, req)
	w.WriteHeader(http.StatusAccepted)
}

// dispatch routes one request and queues its response on the session stream.
func (s *Server) dispatch(sess *Session, req JSONRPCRequest) {
	var resp JSONRPCResponse
	switch req.Method {
	case "initialize":
		resp = s.handleInitialize(req)
	case "tools/list":
		resp = s.handleToolsList(req)
	case "tools/call":
		resp = s.handleToolsCall(req)
	case "ping":
		resp = resultResponse(req.ID, map[string]any{})
	default:
		resp = errorResponse(req.ID, JSONRPCMethodNotFound, "method not found")
	}
	s.respond(sess, resp)
}

func (s *Server) handleInitialize(req JSONRPCRequest) JSONRPCResponse {
	s.logger.Info("client initialized", "session_count", s.sessions.Len())
	return resultResponse(req.ID, InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]any{"tools": map[string]any{}},
		ServerInfo:      ServerInfo{Name: "shopmcp-server", Version: s.version},
	})
}

func (s *Server) handleToolsList(req JSONRPCRequest) JSONRPCResponse {
	defs := s.registry.List()
	s.logger.Debug("tools/list", "count", len(defs))
	return resultResponse(req.ID, map[string]any{"tools": defs})
}

func (s *Server) handleToolsCall(req JSONRPCRequest) JSONRPCResponse {
	var params CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, JSONRPCInvalidParams, "invalid params")
		}
	}
	if params.Name == "" {
		return errorResponse(req.ID, JSONRPCInvalidParams, "tool name is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.toolTimeout)
	defer cancel()

	started := time.Now()
	result, err := s.registry.Dispatch(ctx, params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, tools.ErrToolNotFound) {
			return errorResponse(req.ID, JSONRPCInvalidParams, fmt.Sprintf("tool not found: %s", params.Name))
		}
		s.logger.Warn("tool dispatch failed", "tool_name", params.Name, "error", err)
		return errorResponse(req.ID, JSONRPCInternalError, "tool execution failed")
	}

	s.logger.Debug("tools/call complete",
		"tool_name", params.Name,
		"is_error", result.IsError,
		"elapsed", time.Since(started),
	)
	return resultResponse(req.ID, result)
}

// respond queues a JSON-RPC response as a message event on the stream.
func (s *Server) respond(sess *Session, resp JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sess.Send(ctx, Event{Name: "message", Data: data}); err != nil {
		s.logger.Warn("failed to deliver response", "session_id", sess.ID, "error", err)
	}
}

// handleHealth reports server status and the number of open sessions.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"version":     s.version,
		"uptime":      time.Since(s.startedAt).Round(time.Second).String(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"connections": s.sessions.Len(),
	})
}

func resultResponse(id json.RawMessage, result any) JSONRPCResponse {
	data, err := json.Marshal(result)
	if err != nil {
		return errorResponse(id, JSONRPCInternalError, "failed to encode result")
	}
	return JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: data}
}

func errorResponse(id json.RawMessage, code int, message string) JSONRPCResponse {
	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	}
}

// sendJSONError writes a plain JSON error for transport-level failures.
func sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeSSEEvent writes one SSE frame and flushes it.
func writeSSEEvent(w io.Writer, flusher http.Flusher, name string, data []byte) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	flusher.Flush()
}
