// ABOUTME: Package documentation for the chat orchestration layer.

// Package chat connects a chat model to a tool source. The Orchestrator
// runs the two-turn loop: offer tools, execute what the model requests,
// then feed the results back for a final text answer. AnthropicClient is
// the production ModelClient; tests substitute fakes.
package chat
