// ABOUTME: Package config loads and validates shopmcp YAML configuration.
// ABOUTME: Shared by the server, CLI and web client binaries.

// Package config handles configuration file loading for shopmcp.
//
// Configuration is YAML with ${VAR} environment variable expansion applied
// before parsing, so secrets like API keys can live in the environment:
//
//	server:
//	  http_addr: "localhost:8083"
//	  tool_timeout: "30s"
//	ai:
//	  anthropic_api_key: "${ANTHROPIC_API_KEY}"
//	  model: "claude-3-5-sonnet-20240620"
//	retry:
//	  max_attempts: 3
//	  delay: "2s"
//
// Fields left empty fall back to documented defaults or well-known
// environment variables (ANTHROPIC_API_KEY, MCP_SERVER_URL,
// LANGSEARCH_API_KEY).
package config
