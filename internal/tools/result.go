// ABOUTME: Tool result and content types shared between the server and clients.
// ABOUTME: Mirrors the MCP tool-result wire shape.

package tools

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Content is one block of a tool result, either text or an image.
// Images carry base64 data plus a mime type.
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// Result is the outcome of a tool invocation. IsError marks tool-level
// failures that should be surfaced to the model rather than the transport.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// TextResult builds a successful single-text result.
func TextResult(text string) *Result {
	return &Result{Content: []Content{{Type: "text", Text: text}}}
}

// JSONResult marshals v and wraps it in a successful text result.
func JSONResult(v any) (*Result, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling tool result: %w", err)
	}
	return TextResult(string(data)), nil
}

// ImageContent builds an image block from raw bytes.
func ImageContent(data []byte, mimeType string) Content {
	return Content{
		Type:     "image",
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}
}

// ImageResult builds a successful single-image result.
func ImageResult(data []byte, mimeType string) *Result {
	return &Result{Content: []Content{ImageContent(data, mimeType)}}
}

// ErrorResult builds a tool-level error result.
func ErrorResult(format string, args ...any) *Result {
	return &Result{
		Content: []Content{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// Text concatenates all text blocks of the result.
func (r *Result) Text() string {
	var out string
	for _, c := range r.Content {
		if c.Type == "text" {
			out += c.Text
		}
	}
	return out
}
