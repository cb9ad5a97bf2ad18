// ABOUTME: Package documentation for external service clients.
// ABOUTME: Weather, website fetching, web search, flights, browser automation.

// Package services holds the clients behind the non-shop tools: wttr.in
// weather reports, raw website fetching, LangSearch web search, the static
// flight schedule, and chromedp browser automation. Each service takes a
// small Config struct and fills missing fields with defaults.
package services
