// ABOUTME: HTTP API for the web chat frontend.
// ABOUTME: Serves the embedded UI plus /api/tools, /api/chat, and /api/call-tool.

package webchat

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/shopstream/shopmcp/internal/chat"
)

// MaxRequestBodySize caps API request bodies (256KB).
const MaxRequestBodySize = 256 * 1024

// Config holds configuration for the web chat app.
type Config struct {
	Orchestrator *chat.Orchestrator
	Tools        chat.ToolSource
	Logger       *slog.Logger
}

// App serves the chat UI and its JSON API.
type App struct {
	orchestrator *chat.Orchestrator
	tools        chat.ToolSource
	logger       *slog.Logger
	markdown     goldmark.Markdown
}

// NewApp creates the web chat app.
func NewApp(cfg Config) (*App, error) {
	if cfg.Orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}
	if cfg.Tools == nil {
		return nil, errors.New("tool source is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &App{
		orchestrator: cfg.Orchestrator,
		tools:        cfg.Tools,
		logger:       logger.With("component", "webchat"),
		markdown:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

// RegisterRoutes registers the UI and API endpoints on the given ServeMux.
func (a *App) RegisterRoutes(mux *http.ServeMux) {
	public, err := fs.Sub(publicFiles, "public")
	if err != nil {
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(public)))
	mux.HandleFunc("/api/tools", a.handleTools)
	mux.HandleFunc("/api/chat", a.handleChat)
	mux.HandleFunc("/api/call-tool", a.handleCallTool)
}

func (a *App) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	defs, err := a.tools.Tools(r.Context())
	if err != nil {
		a.logger.Error("listing tools failed", "error", err)
		sendJSONError(w, http.StatusBadGateway, "could not reach tool server")
		return
	}
	sendJSON(w, map[string]any{"tools": defs})
}

type chatRequest struct {
	Message string         `json:"message"`
	History []chat.Message `json:"history"`
}

type chatResponse struct {
	Response  string                `json:"response"`
	HTML      string                `json:"html,omitempty"`
	ToolCalls []chat.ToolCallRecord `json:"toolCalls,omitempty"`
}

func (a *App) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Message == "" {
		sendJSONError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := a.orchestrator.Exchange(r.Context(), req.History, req.Message)
	if err != nil {
		a.logger.Error("exchange failed", "error", err)
		sendJSONError(w, http.StatusBadGateway, "chat request failed")
		return
	}

	sendJSON(w, chatResponse{
		Response:  reply.Text,
		HTML:      a.renderMarkdown(reply.Text),
		ToolCalls: reply.ToolCalls,
	})
}

type callToolRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func (a *App) handleCallTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req callToolRequest
	if err := decodeJSON(r, &req); err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		sendJSONError(w, http.StatusBadRequest, "tool name is required")
		return
	}

	result, err := a.tools.Call(r.Context(), req.Name, req.Arguments)
	if err != nil {
		a.logger.Warn("direct tool call failed", "name", req.Name, "error", err)
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sendJSON(w, map[string]any{
		"result":  result.Text(),
		"isError": result.IsError,
	})
}

// renderMarkdown converts model output to HTML. On failure the raw text
// is simply omitted from the html field.
func (a *App) renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := a.markdown.Convert([]byte(text), &buf); err != nil {
		a.logger.Warn("markdown rendering failed", "error", err)
		return ""
	}
	return buf.String()
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize))
	if err != nil {
		return errors.New("failed to read request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func sendJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
