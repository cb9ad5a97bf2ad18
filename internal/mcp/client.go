// ABOUTME: MCP client over SSE transport with id-correlated responses.
// ABOUTME: Reads the endpoint event, then POSTs JSON-RPC and waits on the stream.

package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopstream/shopmcp/internal/tools"
)

// ErrClientClosed is returned from calls after the client has shut down.
var ErrClientClosed = errors.New("mcp client closed")

// ClientConfig holds configuration for the MCP client.
type ClientConfig struct {
	ServerURL   string
	Logger      *slog.Logger
	CallTimeout time.Duration
}

// Client is an MCP client speaking the SSE transport.
type Client struct {
	serverURL   string
	logger      *slog.Logger
	callTimeout time.Duration

	// stream has no timeout: the SSE connection stays open for the
	// client's lifetime. post is used for /messages requests.
	stream *http.Client
	post   *http.Client

	mu       sync.Mutex
	endpoint string
	pending  map[string]chan JSONRPCResponse

	nextID    atomic.Int64
	ready     chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	cancel    context.CancelFunc
}

// NewClient creates a client for the given SSE URL.
func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	return &Client{
		serverURL:   cfg.ServerURL,
		logger:      logger.With("component", "mcp-client"),
		callTimeout: cfg.CallTimeout,
		stream:      &http.Client{},
		post:        &http.Client{Timeout: 15 * time.Second},
		pending:     make(map[string]chan JSONRPCResponse),
		ready:       make(chan struct{}),
		closed:      make(chan struct{}),
	}
}

// Connect opens the SSE stream, waits for the endpoint event, and runs
// the initialize handshake.
func (c *Client) Connect(ctx context.Context) error {
	streamCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, c.serverURL, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("building SSE request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		cancel()
		return fmt.Errorf("connecting to %s: %w", c.serverURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("connecting to %s: status %d", c.serverURL, resp.StatusCode)
	}

	go c.readStream(resp)

	select {
	case <-c.ready:
	case <-c.closed:
		return errors.New("stream closed before endpoint event")
	case <-ctx.Done():
		c.Close()
		return fmt.Errorf("waiting for endpoint event: %w", ctx.Err())
	}

	if _, err := c.call(ctx, "initialize", map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "shopmcp-client", "version": "1.0.0"},
	}); err != nil {
		c.Close()
		return fmt.Errorf("initialize handshake: %w", err)
	}
	if err := c.notify(ctx, "notifications/initialized"); err != nil {
		c.logger.Warn("initialized notification failed", "error", err)
	}

	c.logger.Info("connected", "server", c.serverURL)
	return nil
}

// readStream consumes SSE frames until the connection drops.
func (c *Client) readStream(resp *http.Response) {
	defer resp.Body.Close()
	defer c.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), MaxRequestBodySize)

	var eventName string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case line == "":
			if eventName != "" || data.Len() > 0 {
				c.handleEvent(eventName, data.String())
			}
			eventName = ""
			data.Reset()
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.Debug("stream ended", "error", err)
	}
}

func (c *Client) handleEvent(name, data string) {
	switch name {
	case "endpoint":
		endpoint, err := c.resolveEndpoint(data)
		if err != nil {
			c.logger.Error("bad endpoint event", "data", data, "error", err)
			return
		}
		c.mu.Lock()
		first := c.endpoint == ""
		c.endpoint = endpoint
		c.mu.Unlock()
		if first {
			close(c.ready)
		}
	case "message":
		var resp JSONRPCResponse
		if err := json.Unmarshal([]byte(data), &resp); err != nil {
			c.logger.Warn("undecodable message event", "error", err)
			return
		}
		c.deliver(resp)
	case "server_shutdown":
		c.logger.Info("server is shutting down")
		c.Close()
	default:
		c.logger.Debug("ignoring event", "event", name)
	}
}

// resolveEndpoint makes the (usually relative) endpoint absolute.
func (c *Client) resolveEndpoint(endpoint string) (string, error) {
	base, err := url.Parse(c.serverURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *Client) deliver(resp JSONRPCResponse) {
	key := string(resp.ID)
	c.mu.Lock()
	ch, ok := c.pending[key]
	delete(c.pending, key)
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("response for unknown id", "id", key)
		return
	}
	ch <- resp
}

// call sends a request and waits for its correlated response.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	select {
	case <-c.closed:
		return nil, ErrClientClosed
	default:
	}

	id := c.nextID.Add(1)
	idJSON := json.RawMessage(strconv.FormatInt(id, 10))

	var paramsJSON json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encoding params: %w", err)
		}
		paramsJSON = data
	}

	ch := make(chan JSONRPCResponse, 1)
	key := string(idJSON)
	c.mu.Lock()
	c.pending[key] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
	}()

	if err := c.send(ctx, JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      idJSON,
		Method:  method,
		Params:  paramsJSON,
	}); err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, fmt.Errorf("%s: %s (code %d)", method, resp.Error.Message, resp.Error.Code)
		}
		return resp.Result, nil
	case <-c.closed:
		return nil, ErrClientClosed
	case <-waitCtx.Done():
		return nil, fmt.Errorf("waiting for %s response: %w", method, waitCtx.Err())
	}
}

// notify sends a notification, which gets no response.
func (c *Client) notify(ctx context.Context, method string) error {
	return c.send(ctx, JSONRPCRequest{JSONRPC: "2.0", Method: method})
}

func (c *Client) send(ctx context.Context, req JSONRPCRequest) error {
	c.mu.Lock()
	endpoint := c.endpoint
	c.mu.Unlock()
	if endpoint == "" {
		return errors.New("not connected")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.post.Do(httpReq)
	if err != nil {
		return fmt.Errorf("posting %s: %w", req.Method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("posting %s: status %d", req.Method, resp.StatusCode)
	}
	return nil
}

// Tools lists the server's tool definitions.
func (c *Client) Tools(ctx context.Context) ([]tools.Definition, error) {
	result, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Tools []tools.Definition `json:"tools"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, fmt.Errorf("decoding tools/list result: %w", err)
	}
	return out.Tools, nil
}

// Call invokes a tool on the server.
func (c *Client) Call(ctx context.Context, name string, args json.RawMessage) (*tools.Result, error) {
	result, err := c.call(ctx, "tools/call", CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}
	var out tools.Result
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, fmt.Errorf("decoding tools/call result: %w", err)
	}
	return &out, nil
}

// Ping checks that the server is responsive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, "ping", nil)
	return err
}

// Close tears down the stream and fails outstanding calls. Idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.cancel != nil {
			c.cancel()
		}
	})
	return nil
}
