// ABOUTME: Tests for external service clients using httptest backends.
// ABOUTME: Covers weather parsing, website limits, search requests, flights, action parsing.

package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWeatherReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "London") {
			t.Errorf("expected city in path, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("format") != "j1" {
			t.Errorf("expected format=j1, got %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{
			"current_condition": [{
				"temp_C": "18", "FeelsLikeC": "17", "humidity": "72",
				"weatherDesc": [{"value": "Partly cloudy"}],
				"windspeedKmph": "13"
			}],
			"weather": [{
				"date": "2026-08-31", "maxtempC": "21", "mintempC": "12",
				"hourly": [
					{"time": "0", "tempC": "13", "weatherDesc": [{"value": "Clear"}]},
					{"time": "600", "tempC": "14", "weatherDesc": [{"value": "Sunny"}]},
					{"time": "1200", "tempC": "20", "weatherDesc": [{"value": "Partly cloudy"}]}
				]
			}]
		}`))
	}))
	defer srv.Close()

	svc := NewWeatherService(WeatherConfig{BaseURL: srv.URL})
	report, err := svc.Report(context.Background(), "London")
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	for _, want := range []string{"Weather in London", "Partly cloudy", "18°C", "Morning: Sunny", "Noon:"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "Clear") {
		t.Errorf("midnight bucket should be skipped:\n%s", report)
	}
}

func TestWeatherReportEmptyCity(t *testing.T) {
	svc := NewWeatherService(WeatherConfig{})
	if _, err := svc.Report(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty city")
	}
}

func TestWeatherReportUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewWeatherService(WeatherConfig{BaseURL: srv.URL})
	_, err := svc.Report(context.Background(), "London")
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestWebsiteFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("expected browser-like user agent, got %q", ua)
		}
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	svc := NewWebsiteService(WebsiteConfig{})
	body, err := svc.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.Contains(body, "hello") {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestWebsiteFetchRejectsBadScheme(t *testing.T) {
	svc := NewWebsiteService(WebsiteConfig{})
	if _, err := svc.Fetch(context.Background(), "ftp://example.com"); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}

func TestWebsiteFetchStopsRedirectLoops(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/again", http.StatusFound)
	}))
	defer srv.Close()

	svc := NewWebsiteService(WebsiteConfig{})
	_, err := svc.Fetch(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "redirects") {
		t.Fatalf("expected redirect error, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/web-search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Freshness != FreshnessNoLimit {
			t.Errorf("expected default freshness, got %s", req.Freshness)
		}
		if req.Count != 5 {
			t.Errorf("expected default count 5, got %d", req.Count)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"code": 200,
			"msg":  "success",
			"data": map[string]any{
				"webPages": map[string]any{
					"value": []map[string]any{
						{"name": "Go", "url": "https://go.dev", "snippet": "The Go language"},
					},
				},
			},
		})
	}))
	defer srv.Close()

	svc := NewSearchService(SearchConfig{APIKey: "test-key", BaseURL: srv.URL})
	results, err := svc.Search(context.Background(), SearchRequest{Query: "golang"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Go" {
		t.Fatalf("unexpected results: %+v", results)
	}

	text := FormatResults(results)
	if !strings.Contains(text, "1. Go") || !strings.Contains(text, "https://go.dev") {
		t.Errorf("unexpected formatting:\n%s", text)
	}
}

func TestSearchRequiresAPIKey(t *testing.T) {
	svc := NewSearchService(SearchConfig{})
	_, err := svc.Search(context.Background(), SearchRequest{Query: "golang"})
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Fatalf("expected API key error, got %v", err)
	}
}

func TestSearchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 403, "msg": "quota exceeded"})
	}))
	defer srv.Close()

	svc := NewSearchService(SearchConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := svc.Search(context.Background(), SearchRequest{Query: "golang"})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestFlightLookup(t *testing.T) {
	svc := NewFlightService()

	flights, err := svc.Lookup(context.Background(), "lga", "lax")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(flights) == 0 {
		t.Fatal("expected flights for LGA-LAX")
	}

	text := FormatFlights("lga", "lax", flights)
	if !strings.Contains(text, "LGA to LAX") {
		t.Errorf("unexpected formatting:\n%s", text)
	}

	_, err = svc.Lookup(context.Background(), "LGA", "SFO")
	if err == nil || !strings.Contains(err.Error(), "no flight data") {
		t.Fatalf("expected unknown-route error, got %v", err)
	}
}

func TestParseActionsJSON(t *testing.T) {
	actions, err := ParseActions(`[{"type":"click","selector":"#go"},{"type":"title"}]`)
	if err != nil {
		t.Fatalf("ParseActions failed: %v", err)
	}
	if len(actions) != 2 || actions[0].Type != "click" || actions[0].Selector != "#go" {
		t.Fatalf("unexpected actions: %+v", actions)
	}
}

func TestParseActionsLines(t *testing.T) {
	input := `
click: #submit
fill: #name = Alice Smith
wait: .results
text: h1
title
`
	actions, err := ParseActions(input)
	if err != nil {
		t.Fatalf("ParseActions failed: %v", err)
	}
	if len(actions) != 5 {
		t.Fatalf("expected 5 actions, got %d", len(actions))
	}
	if actions[1].Type != "fill" || actions[1].Selector != "#name" || actions[1].Value != "Alice Smith" {
		t.Errorf("unexpected fill action: %+v", actions[1])
	}
	if actions[4].Type != "title" {
		t.Errorf("unexpected last action: %+v", actions[4])
	}
}

func TestParseActionsScreenshotAndNavigate(t *testing.T) {
	actions, err := ParseActions(`[{"type":"screenshot"},{"type":"navigate","value":"https://example.com"}]`)
	if err != nil {
		t.Fatalf("ParseActions failed: %v", err)
	}
	if len(actions) != 2 || actions[0].Type != "screenshot" {
		t.Fatalf("unexpected actions: %+v", actions)
	}
	if actions[1].Type != "navigate" || actions[1].Value != "https://example.com" {
		t.Errorf("unexpected navigate action: %+v", actions[1])
	}

	actions, err = ParseActions("navigate: https://example.com/next\nscreenshot")
	if err != nil {
		t.Fatalf("ParseActions failed: %v", err)
	}
	if actions[0].Type != "navigate" || actions[0].Value != "https://example.com/next" {
		t.Errorf("unexpected navigate action: %+v", actions[0])
	}
	if actions[1].Type != "screenshot" {
		t.Errorf("unexpected screenshot action: %+v", actions[1])
	}
}

func TestParseActionsErrors(t *testing.T) {
	if _, err := ParseActions("teleport: #nowhere"); err == nil {
		t.Error("expected error for unknown action type")
	}
	if _, err := ParseActions(`[{"type":"navigate"}]`); err == nil {
		t.Error("expected error for navigate without url")
	}
	if _, err := ParseActions("click:"); err == nil {
		t.Error("expected error for click without selector")
	}
	if _, err := ParseActions(`[{"type":"fill"}]`); err == nil {
		t.Error("expected error for fill without selector")
	}
	actions, err := ParseActions("   ")
	if err != nil || actions != nil {
		t.Errorf("blank input should be nil actions, got %v / %v", actions, err)
	}
}
