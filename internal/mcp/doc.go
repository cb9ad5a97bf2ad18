// ABOUTME: Package documentation for the MCP SSE transport.
// ABOUTME: Covers the server endpoints, session model, and client handshake.

// Package mcp implements the Model Context Protocol over SSE transport.
//
// The server exposes three endpoints: GET /sse opens a session and streams
// events to the client, starting with an endpoint event naming the POST
// target; POST /messages accepts JSON-RPC 2.0 requests and always answers
// 202, with the JSON-RPC response delivered as a message event on the
// session's stream; GET /health reports status and open connections.
//
// The client mirrors that flow: connect, wait for the endpoint event, run
// the initialize handshake, then correlate responses to requests by id.
package mcp
