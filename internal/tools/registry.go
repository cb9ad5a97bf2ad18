// ABOUTME: In-process tool registry with schema-validated dispatch.
// ABOUTME: Tool-level failures become error results; only unknown names return errors.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrDuplicateTool is returned when registering a name that already exists.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrToolNotFound is returned by Dispatch for unknown tool names.
	ErrToolNotFound = errors.New("tool not found")
)

// Definition describes a tool as advertised to clients.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Handler executes a tool with already-validated arguments.
type Handler func(ctx context.Context, args json.RawMessage) (*Result, error)

// Tool pairs a definition with its handler.
type Tool struct {
	Definition Definition
	Handler    Handler
}

type registeredTool struct {
	tool   *Tool
	schema *Schema
}

// Registry holds the server's tools. Registration order is preserved for
// listing. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*registeredTool
	order  []string
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]*registeredTool),
		logger: logger,
	}
}

// Register adds a tool. The input schema is compiled eagerly so a broken
// schema fails at startup rather than on first call. Duplicate names are
// rejected with ErrDuplicateTool.
func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Definition.Name == "" {
		return errors.New("tool must have a name")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q has no handler", t.Definition.Name)
	}

	schema, err := CompileSchema(t.Definition.InputSchema)
	if err != nil {
		return fmt.Errorf("tool %q: %w", t.Definition.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Definition.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Definition.Name)
	}
	r.tools[t.Definition.Name] = &registeredTool{tool: t, schema: schema}
	r.order = append(r.order, t.Definition.Name)
	r.logger.Debug("registered tool", "name", t.Definition.Name)
	return nil
}

// List returns tool definitions in registration order.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].tool.Definition)
	}
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Dispatch validates args and invokes the named tool. Unknown names return
// ErrToolNotFound. Every other failure, including handler errors, argument
// validation failures, and panics, is converted into an error result so the
// model can see what went wrong.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (result *Result, err error) {
	r.mu.RLock()
	reg, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked", "name", name, "panic", rec)
			result = ErrorResult("Tool %s failed: internal error", name)
			err = nil
		}
	}()

	normalized, nerr := reg.schema.Normalize(args)
	if nerr != nil {
		r.logger.Warn("tool arguments rejected", "name", name, "error", nerr)
		return ErrorResult("Invalid arguments for tool %s: %v", name, nerr), nil
	}

	res, herr := reg.tool.Handler(ctx, normalized)
	if herr != nil {
		r.logger.Warn("tool execution failed", "name", name, "error", herr)
		return ErrorResult("Tool %s failed: %v", name, herr), nil
	}
	if res == nil {
		res = TextResult("")
	}
	return res, nil
}
