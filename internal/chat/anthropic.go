// ABOUTME: ModelClient implementation on top of the Anthropic Messages API.
// ABOUTME: Converts tool definitions and conversation turns into SDK params.

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/shopstream/shopmcp/internal/tools"
)

// AnthropicConfig configures an AnthropicClient.
type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
	Logger    *slog.Logger
}

// AnthropicClient implements ModelClient using Anthropic Claude.
type AnthropicClient struct {
	client    sdk.Client
	model     sdk.Model
	maxTokens int64
	logger    *slog.Logger
}

// NewAnthropicClient builds a client from the configuration.
func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("model identifier is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicClient{
		client:    sdk.NewClient(opts...),
		model:     sdk.Model(cfg.Model),
		maxTokens: cfg.MaxTokens,
		logger:    logger.With("component", "anthropic"),
	}, nil
}

// Complete issues one Messages.New request and translates the response.
func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (*ModelReply, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("at least one message is required")
	}

	params := sdk.MessageNewParams{
		MaxTokens: c.maxTokens,
		Model:     c.model,
		Messages:  encodeMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		toolParams, err := encodeTools(req.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = toolParams
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages.new: %w", err)
	}

	reply := &ModelReply{}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			reply.Text += block.Text
		case "tool_use":
			reply.ToolCalls = append(reply.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: json.RawMessage(block.Input),
			})
		}
	}

	c.logger.Debug("completion received",
		"stop_reason", string(msg.StopReason),
		"tool_calls", len(reply.ToolCalls),
	)
	return reply, nil
}

func encodeMessages(msgs []Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case RoleAssistant:
			out = append(out, sdk.NewAssistantMessage(block))
		default:
			out = append(out, sdk.NewUserMessage(block))
		}
	}
	return out
}

func encodeTools(defs []tools.Definition) ([]sdk.ToolUnionParam, error) {
	out := make([]sdk.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		var m map[string]any
		if len(def.InputSchema) > 0 {
			if err := json.Unmarshal(def.InputSchema, &m); err != nil {
				return nil, fmt.Errorf("tool %q schema: %w", def.Name, err)
			}
		}
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: m}, def.Name)
		if u.OfTool != nil && def.Description != "" {
			u.OfTool.Description = sdk.String(def.Description)
		}
		out = append(out, u)
	}
	return out, nil
}
