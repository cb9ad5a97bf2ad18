// ABOUTME: Package documentation for the builtin tool packs.
// ABOUTME: Shop, web, travel, and browser packs.

// Package builtins defines the tool packs served over MCP. Each pack
// constructor takes its backing store or service and returns a Pack whose
// tools carry inline JSON Schemas for their inputs.
package builtins
