// ABOUTME: Tests for the MCP SSE server and session registry.
// ABOUTME: Includes a full client-server round trip over httptest.

package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopstream/shopmcp/internal/tools"
)

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry(nil)
	err := reg.Register(&tools.Tool{
		Definition: tools.Definition{
			Name:        "echo",
			Description: "Echoes the message back",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"message":{"type":"string"}},"required":["message"]}`),
		},
		Handler: func(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
			var in struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, err
			}
			return tools.TextResult(in.Message), nil
		},
	})
	require.NoError(t, err)
	return reg
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(Config{Registry: testRegistry(t), Version: "test"})
	require.NoError(t, err)

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return srv, ts
}

func connectedClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()
	client := NewClient(ClientConfig{ServerURL: ts.URL + "/sse", CallTimeout: 5 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Connect(ctx))
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSessionRegistry(t *testing.T) {
	reg := NewSessionRegistry(nil)

	s1 := reg.Open()
	s2 := reg.Open()
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.Equal(t, 2, reg.Len())

	got, err := reg.Get(s1.ID)
	require.NoError(t, err)
	assert.Same(t, s1, got)

	_, err = reg.Get("nonexistent")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.True(t, reg.Close(s1.ID))
	assert.False(t, reg.Close(s1.ID))
	assert.Equal(t, 1, reg.Len())

	reg.CloseAll()
	assert.Equal(t, 0, reg.Len())
	select {
	case <-s2.Done():
	default:
		t.Fatal("CloseAll should close remaining sessions")
	}
}

func TestSessionSendAfterClose(t *testing.T) {
	reg := NewSessionRegistry(nil)
	sess := reg.Open()
	reg.Close(sess.ID)

	err := sess.Send(context.Background(), Event{Name: "message", Data: []byte("{}")})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "test", health["version"])
	assert.Contains(t, health, "uptime")
	assert.Contains(t, health, "timestamp")
	assert.Equal(t, float64(0), health["connections"])
}

func TestMessagesRequiresSession(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/messages", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/messages?sessionId=bogus", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "unknown session", body["error"])
}

func TestClientRoundTrip(t *testing.T) {
	srv, ts := newTestServer(t)
	client := connectedClient(t, ts)
	ctx := context.Background()

	assert.Equal(t, 1, srv.Sessions().Len())

	defs, err := client.Tools(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "echo", defs[0].Name)

	result, err := client.Call(ctx, "echo", json.RawMessage(`{"message":"round trip"}`))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "round trip", result.Text())

	require.NoError(t, client.Ping(ctx))
}

func TestClientCallUnknownTool(t *testing.T) {
	_, ts := newTestServer(t)
	client := connectedClient(t, ts)

	_, err := client.Call(context.Background(), "nope", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool not found")
}

func TestClientValidationErrorIsToolResult(t *testing.T) {
	_, ts := newTestServer(t)
	client := connectedClient(t, ts)

	result, err := client.Call(context.Background(), "echo", json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestShutdownNotifiesClients(t *testing.T) {
	srv, ts := newTestServer(t)
	client := connectedClient(t, ts)

	srv.Shutdown()

	select {
	case <-client.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("client should close after server_shutdown")
	}
	assert.Equal(t, 0, srv.Sessions().Len())

	_, err := client.Tools(context.Background())
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestConcurrentSessions(t *testing.T) {
	srv, ts := newTestServer(t)

	c1 := connectedClient(t, ts)
	c2 := connectedClient(t, ts)
	assert.Equal(t, 2, srv.Sessions().Len())

	ctx := context.Background()
	r1, err := c1.Call(ctx, "echo", json.RawMessage(`{"message":"one"}`))
	require.NoError(t, err)
	r2, err := c2.Call(ctx, "echo", json.RawMessage(`{"message":"two"}`))
	require.NoError(t, err)

	assert.Equal(t, "one", r1.Text())
	assert.Equal(t, "two", r2.Text())
}
