// ABOUTME: Terminal chat client that connects Claude to the shopmcp tool server.
// ABOUTME: Provides a readline-style loop with slash commands for tool inspection.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/shopstream/shopmcp/internal/chat"
	"github.com/shopstream/shopmcp/internal/config"
	"github.com/shopstream/shopmcp/internal/mcp"
)

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
	serverURL := flag.String("server", "", "MCP server URL (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(getConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.MCP.ServerURL = *serverURL
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
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

func run(ctx context.Context, cfg *config.Config) error {
	client := mcp.NewClient(mcp.ClientConfig{ServerURL: cfg.MCP.ServerURL})
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.MCP.ServerURL, err)
	}
	defer client.Close()

	model, err := chat.NewAnthropicClient(chat.AnthropicConfig{
		APIKey:    cfg.AI.AnthropicAPIKey,
		BaseURL:   cfg.AI.AnthropicAPIURL,
		Model:     cfg.AI.Model,
		MaxTokens: int64(cfg.AI.MaxTokens),
	})
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}

	orchestrator, err := chat.NewOrchestrator(chat.OrchestratorConfig{
		Model:       model,
		Tools:       client,
		MaxAttempts: cfg.Retry.MaxAttempts,
		RetryDelay:  cfg.Retry.Delay,
	})
	if err != nil {
		return fmt.Errorf("creating orchestrator: %w", err)
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("shopmcp-cli connected to %s\n", cfg.MCP.ServerURL)
	fmt.Printf("Model: %s\n", cfg.AI.Model)
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	var history []chat.Message

	for {
		color.New(color.FgGreen).Print("> ")

		// Read input with context awareness
		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)

		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "/quit" || input == "/exit" || input == "/q" || input == "quit" || input == "exit" {
			return nil
		}

		if input == "/tools" {
			if err := listTools(ctx, client); err != nil {
				fmt.Printf("[error] %v\n", err)
			}
			fmt.Println()
			continue
		}

		if input == "/clear" {
			history = nil
			fmt.Println("Conversation history cleared")
			fmt.Println()
			continue
		}

		if input == "/help" {
			printHelp()
			fmt.Println()
			continue
		}

		reply, err := orchestrator.Exchange(ctx, history, input)
		if err != nil {
			fmt.Printf("[error] %v\n", err)
			fmt.Println()
			continue
		}

		gray := color.New(color.FgHiBlack)
		for _, call := range reply.ToolCalls {
			if call.IsError {
				gray.Printf("  [tool %s failed]\n", call.Name)
			} else {
				gray.Printf("  [tool %s]\n", call.Name)
			}
			for _, line := range strings.Split(formatToolResult(call.Result), "\n") {
				gray.Printf("    %s\n", line)
			}
		}

		fmt.Println(reply.Text)
		fmt.Println()

		history = append(history,
			chat.Message{Role: chat.RoleUser, Content: input},
			chat.Message{Role: chat.RoleAssistant, Content: reply.Text},
		)
	}
}

// printHelp displays available commands.
func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /tools         List tools exposed by the server")
	fmt.Println("  /clear         Clear conversation history")
	fmt.Println("  /help          Show this help")
	fmt.Println("  /quit          Exit")
}

// formatToolResult pretty-prints JSON results and passes plain text through.
func formatToolResult(result string) string {
	var v any
	if err := json.Unmarshal([]byte(result), &v); err != nil {
		return result
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return result
	}
	return string(pretty)
}

// listTools fetches and displays the server's tool catalog.
func listTools(ctx context.Context, client *mcp.Client) error {
	defs, err := client.Tools(ctx)
	if err != nil {
		return fmt.Errorf("fetching tools: %w", err)
	}

	if len(defs) == 0 {
		fmt.Println("No tools registered")
		return nil
	}

	fmt.Printf("Tools (%d):\n", len(defs))
	for _, def := range defs {
		fmt.Printf("  %-20s %s\n", def.Name, def.Description)
	}
	return nil
}
