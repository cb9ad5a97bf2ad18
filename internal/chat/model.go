// ABOUTME: Conversation types and the ModelClient/ToolSource interfaces.
// ABOUTME: Shared by the orchestrator, the Anthropic client, and the chat frontends.

package chat

import (
	"context"
	"encoding/json"

	"github.com/shopstream/shopmcp/internal/tools"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ModelReply is the model's answer to one completion request.
type ModelReply struct {
	Text      string
	ToolCalls []ToolCall
}

// CompletionRequest asks the model for the next turn. Tools may be empty,
// in which case the model cannot request tool calls.
type CompletionRequest struct {
	Messages []Message
	Tools    []tools.Definition
}

// ModelClient produces completions for a conversation.
type ModelClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*ModelReply, error)
}

// ToolSource provides tool definitions and invocations. Satisfied by the
// MCP client for remote tools and by RegistrySource for in-process ones.
type ToolSource interface {
	Tools(ctx context.Context) ([]tools.Definition, error)
	Call(ctx context.Context, name string, args json.RawMessage) (*tools.Result, error)
}

// RegistrySource adapts an in-process tool registry to the ToolSource
// interface.
type RegistrySource struct {
	registry *tools.Registry
}

// NewRegistrySource wraps a registry.
func NewRegistrySource(registry *tools.Registry) *RegistrySource {
	return &RegistrySource{registry: registry}
}

// Tools lists the registry's definitions.
func (s *RegistrySource) Tools(ctx context.Context) ([]tools.Definition, error) {
	return s.registry.List(), nil
}

// Call dispatches a tool through the registry.
func (s *RegistrySource) Call(ctx context.Context, name string, args json.RawMessage) (*tools.Result, error) {
	return s.registry.Dispatch(ctx, name, args)
}
