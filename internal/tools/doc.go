// ABOUTME: Package documentation for the tools package.
// ABOUTME: Describes the registry, dispatch boundary, and result types.

// Package tools defines the tool registry that backs the MCP server.
//
// A Tool couples a wire-level Definition (name, description, JSON Schema
// for its input) with a Handler. The Registry validates arguments against
// the compiled schema before a handler ever runs, coercing numeric strings
// and filling schema defaults along the way.
//
// Dispatch draws a hard line between transport errors and tool errors:
// an unknown tool name is the caller's mistake and returns ErrToolNotFound,
// while anything that goes wrong inside a known tool becomes a Result with
// IsError set, suitable for feeding back to the model.
package tools
