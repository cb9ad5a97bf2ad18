// ABOUTME: Raw website fetching with a browser-like user agent.
// ABOUTME: Caps redirects and response size so a bad URL cannot wedge a tool call.

package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	websiteUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxRedirects     = 5
	maxBodyBytes     = 512 * 1024
)

// WebsiteConfig configures a WebsiteService.
type WebsiteConfig struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

// WebsiteService fetches page content over plain HTTP.
type WebsiteService struct {
	client *http.Client
	logger *slog.Logger
}

// NewWebsiteService creates a website fetcher.
func NewWebsiteService(cfg WebsiteConfig) *WebsiteService {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	client := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return &WebsiteService{
		client: client,
		logger: cfg.Logger.With("service", "website"),
	}
}

// Fetch retrieves the body of a URL as text, truncated to a fixed size.
func (s *WebsiteService) Fetch(ctx context.Context, rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "", fmt.Errorf("url must start with http:// or https://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", websiteUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json,text/plain,*/*")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", rawURL, err)
	}

	s.logger.Debug("website fetched", "url", rawURL, "bytes", len(body))
	return string(body), nil
}
