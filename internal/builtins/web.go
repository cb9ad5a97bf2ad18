// ABOUTME: Web pack exposes weather, website fetch, and web search tools.
// ABOUTME: Backed by the services package clients.

package builtins

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopstream/shopmcp/internal/services"
	"github.com/shopstream/shopmcp/internal/tools"
)

// WebPack creates the web pack from the weather, website, and search services.
func WebPack(weather *services.WeatherService, website *services.WebsiteService, search *services.SearchService) *Pack {
	h := &webHandlers{weather: weather, website: website, search: search}
	return &Pack{
		ID: "builtin:web",
		Tools: []*tools.Tool{
			{
				Definition: tools.Definition{
					Name:        "getWeather",
					Description: "Get current weather and a short forecast for a city",
					InputSchema: json.RawMessage(`{
						"type": "object",
						"properties": {
							"city": {"type": "string", "description": "City name, e.g. London or Tokyo"}
						},
						"required": ["city"]
					}`),
				},
				Handler: h.Weather,
			},
			{
				Definition: tools.Definition{
					Name:        "fetchWebsite",
					Description: "Fetch the raw content of a web page by URL",
					InputSchema: json.RawMessage(`{
						"type": "object",
						"properties": {
							"url": {"type": "string", "description": "Full URL including http:// or https://"}
						},
						"required": ["url"]
					}`),
				},
				Handler: h.Fetch,
			},
			{
				Definition: tools.Definition{
					Name:        "searchLang",
					Description: "Search the web. Supports freshness filtering, result counts, and optional long summaries",
					InputSchema: json.RawMessage(`{
						"type": "object",
						"properties": {
							"query": {"type": "string", "description": "Search query"},
							"freshness": {
								"type": "string",
								"enum": ["oneDay", "oneWeek", "oneMonth", "oneYear", "noLimit"],
								"default": "noLimit",
								"description": "How recent the results must be"
							},
							"summary": {"type": "boolean", "default": false, "description": "Include long text summaries"},
							"count": {"type": "integer", "minimum": 1, "maximum": 10, "default": 5, "description": "Number of results"}
						},
						"required": ["query"]
					}`),
				},
				Handler: h.Search,
			},
		},
	}
}

type webHandlers struct {
	weather *services.WeatherService
	website *services.WebsiteService
	search  *services.SearchService
}

func (h *webHandlers) Weather(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	var in struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	report, err := h.weather.Report(ctx, in.City)
	if err != nil {
		return nil, err
	}
	return tools.TextResult(report), nil
}

func (h *webHandlers) Fetch(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	var in struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	content, err := h.website.Fetch(ctx, in.URL)
	if err != nil {
		return nil, err
	}
	return tools.TextResult(content), nil
}

func (h *webHandlers) Search(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	var in services.SearchRequest
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	results, err := h.search.Search(ctx, in)
	if err != nil {
		return nil, err
	}
	return tools.TextResult(services.FormatResults(results)), nil
}
