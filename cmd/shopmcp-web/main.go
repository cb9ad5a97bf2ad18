// ABOUTME: Web chat frontend for the shopmcp tool server.
// ABOUTME: Serves the browser UI and proxies chat exchanges through Claude.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/shopstream/shopmcp/internal/chat"
	"github.com/shopstream/shopmcp/internal/config"
	"github.com/shopstream/shopmcp/internal/mcp"
	"github.com/shopstream/shopmcp/internal/webchat"
)

var version = "dev"

// getConfigPath returns the path to the config file shared with the server.
// Priority: SHOPMCP_CONFIG env var > XDG_CONFIG_HOME/shopmcp/config.yaml > ~/.config/shopmcp/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SHOPMCP_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "shopmcp", "config.yaml")
}

func main() {
	listenAddr := flag.String("listen", "localhost:8084", "Address to serve the web UI on")
	serverURL := flag.String("server", "", "MCP server URL (overrides config)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *listenAddr, *serverURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, listenAddr, serverURL string) error {
	cfg, err := loadConfig(getConfigPath())
	if err != nil {
		return err
	}
	if serverURL != "" {
		cfg.MCP.ServerURL = serverURL
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	client := mcp.NewClient(mcp.ClientConfig{
		ServerURL: cfg.MCP.ServerURL,
		Logger:    logger,
	})
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.MCP.ServerURL, err)
	}
	defer client.Close()

	model, err := chat.NewAnthropicClient(chat.AnthropicConfig{
		APIKey:    cfg.AI.AnthropicAPIKey,
		BaseURL:   cfg.AI.AnthropicAPIURL,
		Model:     cfg.AI.Model,
		MaxTokens: int64(cfg.AI.MaxTokens),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}

	orchestrator, err := chat.NewOrchestrator(chat.OrchestratorConfig{
		Model:       model,
		Tools:       client,
		MaxAttempts: cfg.Retry.MaxAttempts,
		RetryDelay:  cfg.Retry.Delay,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating orchestrator: %w", err)
	}

	app, err := webchat.NewApp(webchat.Config{
		Orchestrator: orchestrator,
		Tools:        client,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("creating web app: %w", err)
	}

	mux := http.NewServeMux()
	app.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:    listenAddr,
		Handler: mux,
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("shopmcp-web %s\n", version)
	fmt.Printf("UI:     http://%s\n", listenAddr)
	fmt.Printf("Server: %s\n", cfg.MCP.ServerURL)
	fmt.Println()

	logger.Info("starting shopmcp-web", "listen_addr", listenAddr, "mcp_server", cfg.MCP.ServerURL)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
