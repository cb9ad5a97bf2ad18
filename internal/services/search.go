// ABOUTME: Web search client for the LangSearch API.
// ABOUTME: Supports freshness windows, result counts, and optional summaries.

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Freshness windows accepted by the search API.
const (
	FreshnessOneDay   = "oneDay"
	FreshnessOneWeek  = "oneWeek"
	FreshnessOneMonth = "oneMonth"
	FreshnessOneYear  = "oneYear"
	FreshnessNoLimit  = "noLimit"
)

// SearchConfig configures a SearchService.
type SearchConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// SearchService queries the LangSearch web search API.
type SearchService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewSearchService creates a search client.
func NewSearchService(cfg SearchConfig) *SearchService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.langsearch.com"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SearchService{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  cfg.HTTPClient,
		logger:  cfg.Logger.With("service", "search"),
	}
}

// SearchRequest is one search invocation.
type SearchRequest struct {
	Query     string `json:"query"`
	Freshness string `json:"freshness,omitempty"`
	Summary   bool   `json:"summary"`
	Count     int    `json:"count"`
}

// SearchResult is one hit returned by the API.
type SearchResult struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	Snippet       string `json:"snippet"`
	Summary       string `json:"summary,omitempty"`
	DatePublished string `json:"datePublished,omitempty"`
}

type searchAPIResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		WebPages struct {
			Value []SearchResult `json:"value"`
		} `json:"webPages"`
	} `json:"data"`
}

// Search runs a web search. The API key must be configured.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("search API key is not configured")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if req.Count <= 0 {
		req.Count = 5
	}
	if req.Count > 10 {
		req.Count = 10
	}
	if req.Freshness == "" {
		req.Freshness = FreshnessNoLimit
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/web-search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling search API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var apiResp searchAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	if apiResp.Code != 200 {
		return nil, fmt.Errorf("search API error %d: %s", apiResp.Code, apiResp.Msg)
	}

	s.logger.Debug("search completed", "query", req.Query, "results", len(apiResp.Data.WebPages.Value))
	return apiResp.Data.WebPages.Value, nil
}

// FormatResults renders search hits as numbered text for model consumption.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, r.Name, r.URL)
		if r.Summary != "" {
			fmt.Fprintf(&b, "   %s\n", r.Summary)
		} else if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
		if r.DatePublished != "" {
			fmt.Fprintf(&b, "   Published: %s\n", r.DatePublished)
		}
	}
	return b.String()
}
