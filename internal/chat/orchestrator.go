// ABOUTME: Two-turn orchestration between the chat model and the tool source.
// ABOUTME: Dispatches requested tools sequentially with retry, then asks for a final answer.

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopstream/shopmcp/internal/retry"
	"github.com/shopstream/shopmcp/internal/tools"
)

// ToolCallRecord is what happened for one requested tool call.
type ToolCallRecord struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Result    string          `json:"result"`
	IsError   bool            `json:"isError,omitempty"`
}

// Reply is the outcome of one Exchange.
type Reply struct {
	Text      string           `json:"response"`
	ToolCalls []ToolCallRecord `json:"toolCalls,omitempty"`
}

// OrchestratorConfig configures an Orchestrator.
type OrchestratorConfig struct {
	Model       ModelClient
	Tools       ToolSource
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      *slog.Logger
}

// Orchestrator runs the tool-use loop: one completion with tools offered,
// the requested tool calls, then one completion with the results. Tools
// are offered only on the first turn, so a single exchange performs at
// most one round of calls.
type Orchestrator struct {
	model     ModelClient
	tools     ToolSource
	retryOpts []retry.Option
	logger    *slog.Logger
}

// NewOrchestrator wires a model to a tool source.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("model client is required")
	}
	if cfg.Tools == nil {
		return nil, fmt.Errorf("tool source is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var retryOpts []retry.Option
	if cfg.MaxAttempts > 0 {
		retryOpts = append(retryOpts, retry.WithMaxAttempts(cfg.MaxAttempts))
	}
	// Zero means the retry default; negative disables the delay outright.
	if cfg.RetryDelay > 0 {
		retryOpts = append(retryOpts, retry.WithDelay(cfg.RetryDelay))
	} else if cfg.RetryDelay < 0 {
		retryOpts = append(retryOpts, retry.WithDelay(0))
	}
	retryOpts = append(retryOpts, retry.WithLogger(logger))

	return &Orchestrator{
		model:     cfg.Model,
		tools:     cfg.Tools,
		retryOpts: retryOpts,
		logger:    logger.With("component", "orchestrator"),
	}, nil
}

// Exchange processes one user message against the conversation history.
func (o *Orchestrator) Exchange(ctx context.Context, history []Message, userMessage string) (*Reply, error) {
	defs, err := o.tools.Tools(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}

	messages := append(append([]Message(nil), history...), Message{Role: RoleUser, Content: userMessage})

	first, err := o.model.Complete(ctx, CompletionRequest{Messages: messages, Tools: defs})
	if err != nil {
		return nil, fmt.Errorf("model turn: %w", err)
	}

	if len(first.ToolCalls) == 0 {
		return &Reply{Text: first.Text}, nil
	}

	records := o.runToolCalls(ctx, first.ToolCalls)

	// Second turn: hand the serialized results back as a user turn with
	// no tools offered, so the model must answer in text.
	assistantTurn := first.Text
	if assistantTurn == "" {
		assistantTurn = describeToolCalls(first.ToolCalls)
	}
	messages = append(messages,
		Message{Role: RoleAssistant, Content: assistantTurn},
		Message{Role: RoleUser, Content: formatToolResults(records)},
	)

	final, err := o.model.Complete(ctx, CompletionRequest{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("model turn with tool results: %w", err)
	}

	return &Reply{Text: final.Text, ToolCalls: records}, nil
}

// runToolCalls dispatches the requested calls one at a time, in the order
// the model asked for them. Failures become error records, never aborts.
func (o *Orchestrator) runToolCalls(ctx context.Context, calls []ToolCall) []ToolCallRecord {
	records := make([]ToolCallRecord, 0, len(calls))
	for _, call := range calls {
		o.logger.Info("calling tool", "name", call.Name)

		result, err := retry.Do(ctx, func(ctx context.Context) (*tools.Result, error) {
			return o.tools.Call(ctx, call.Name, call.Arguments)
		}, o.retryOpts...)

		record := ToolCallRecord{Name: call.Name, Arguments: call.Arguments}
		if err != nil {
			o.logger.Warn("tool call failed", "name", call.Name, "error", err)
			record.Result = err.Error()
			record.IsError = true
		} else {
			record.Result = result.Text()
			record.IsError = result.IsError
		}
		records = append(records, record)
	}
	return records
}

func describeToolCalls(calls []ToolCall) string {
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	return fmt.Sprintf("I need to call the following tools: %s", strings.Join(names, ", "))
}

// formatToolResults serializes tool outcomes for the second model turn as a
// JSON array of {name, result|error} records.
func formatToolResults(records []ToolCallRecord) string {
	type outcome struct {
		Name   string `json:"name"`
		Result string `json:"result,omitempty"`
		Error  string `json:"error,omitempty"`
	}
	outcomes := make([]outcome, len(records))
	for i, r := range records {
		outcomes[i].Name = r.Name
		if r.IsError {
			outcomes[i].Error = r.Result
		} else {
			outcomes[i].Result = r.Result
		}
	}
	data, err := json.Marshal(outcomes)
	if err != nil {
		data = []byte("[]")
	}
	return fmt.Sprintf("Here are the tool results:\n%s\n\nPlease answer the original question using these results.", data)
}
