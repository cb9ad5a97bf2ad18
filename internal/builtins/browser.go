// ABOUTME: Browser pack exposes the scripted page automation tool.
// ABOUTME: Backed by the chromedp automation service.

package builtins

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopstream/shopmcp/internal/services"
	"github.com/shopstream/shopmcp/internal/tools"
)

// BrowserPack creates the browser pack from the automation service.
func BrowserPack(auto *services.AutomationService) *Pack {
	h := &browserHandlers{auto: auto}
	return &Pack{
		ID: "builtin:browser",
		Tools: []*tools.Tool{
			{
				Definition: tools.Definition{
					Name:        "automateWebPage",
					Description: "Open a web page in a browser and run scripted actions: click, fill, wait, text, title, navigate, screenshot. Actions can be a JSON array or one action per line, e.g. \"click: #submit\"",
					InputSchema: json.RawMessage(`{
						"type": "object",
						"properties": {
							"url": {"type": "string", "description": "Page to open"},
							"actions": {"type": "string", "default": "", "description": "Action script to run after the page loads"}
						},
						"required": ["url"]
					}`),
				},
				Handler: h.Automate,
			},
		},
	}
}

type browserHandlers struct {
	auto *services.AutomationService
}

func (h *browserHandlers) Automate(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	var in struct {
		URL     string `json:"url"`
		Actions string `json:"actions"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	actions, err := services.ParseActions(in.Actions)
	if err != nil {
		return nil, err
	}

	run, err := h.auto.Run(ctx, in.URL, actions)
	if err != nil {
		return nil, err
	}

	result := tools.TextResult(run.Transcript)
	for _, shot := range run.Screenshots {
		result.Content = append(result.Content, tools.ImageContent(shot, "image/png"))
	}
	return result, nil
}
