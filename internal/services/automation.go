// ABOUTME: Browser automation via chromedp for the automateWebPage tool.
// ABOUTME: Parses a small action language and drives a headless Chrome session.

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Action is one step of a browser automation script.
type Action struct {
	Type     string `json:"type"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
}

// AutomationConfig configures an AutomationService.
type AutomationConfig struct {
	Headless   bool
	NavTimeout time.Duration
	Logger     *slog.Logger
}

// AutomationService runs scripted browser sessions.
type AutomationService struct {
	headless   bool
	navTimeout time.Duration
	logger     *slog.Logger
}

// NewAutomationService creates a browser automation service.
func NewAutomationService(cfg AutomationConfig) *AutomationService {
	if cfg.NavTimeout == 0 {
		cfg.NavTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AutomationService{
		headless:   cfg.Headless,
		navTimeout: cfg.NavTimeout,
		logger:     cfg.Logger.With("service", "automation"),
	}
}

// ParseActions accepts either a JSON array of actions or a line-oriented
// script. Lines look like "click: #submit", "fill: #name = Alice",
// "wait: .results", "text: h1", "navigate: https://example.com",
// "screenshot", or "title". An empty input means navigate-only.
func ParseActions(input string) ([]Action, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	if strings.HasPrefix(input, "[") {
		var actions []Action
		if err := json.Unmarshal([]byte(input), &actions); err != nil {
			return nil, fmt.Errorf("parsing actions JSON: %w", err)
		}
		for i, a := range actions {
			if err := validateAction(a); err != nil {
				return nil, fmt.Errorf("action %d: %w", i+1, err)
			}
		}
		return actions, nil
	}

	var actions []Action
	for i, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		action, err := parseActionLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func parseActionLine(line string) (Action, error) {
	if line == "title" || line == "screenshot" {
		return Action{Type: line}, nil
	}

	typ, rest, found := strings.Cut(line, ":")
	if !found {
		return Action{}, fmt.Errorf("expected \"type: selector\", got %q", line)
	}
	typ = strings.TrimSpace(typ)
	rest = strings.TrimSpace(rest)

	action := Action{Type: typ}
	switch typ {
	case "fill":
		selector, value, ok := strings.Cut(rest, "=")
		if !ok {
			return Action{}, fmt.Errorf("fill needs \"selector = value\", got %q", rest)
		}
		action.Selector = strings.TrimSpace(selector)
		action.Value = strings.TrimSpace(value)
	case "navigate":
		action.Value = rest
	default:
		action.Selector = rest
	}
	return action, validateAction(action)
}

func validateAction(a Action) error {
	switch a.Type {
	case "title", "screenshot":
		return nil
	case "click", "wait", "text":
		if a.Selector == "" {
			return fmt.Errorf("%s action needs a selector", a.Type)
		}
		return nil
	case "fill":
		if a.Selector == "" {
			return fmt.Errorf("fill action needs a selector")
		}
		return nil
	case "navigate":
		if a.Value == "" {
			return fmt.Errorf("navigate action needs a url")
		}
		return nil
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
}

// RunResult holds the transcript of an automation run plus any screenshots
// captured along the way, as raw PNG bytes.
type RunResult struct {
	Transcript  string
	Screenshots [][]byte
}

// Run opens the URL and executes the actions in order, returning a
// transcript of what happened and any captured screenshots.
func (s *AutomationService) Run(ctx context.Context, url string, actions []Action) (*RunResult, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("url must start with http:// or https://")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.headless),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, s.navTimeout)
	defer cancelRun()

	var transcript []string
	tasks := chromedp.Tasks{chromedp.Navigate(url)}
	transcript = append(transcript, fmt.Sprintf("Navigated to %s", url))

	// Outputs are filled in when the task list runs, so collect pointers
	// and render afterwards.
	type capture struct {
		label string
		value *string
	}
	var captures []capture
	var screenshots []*[]byte

	for _, a := range actions {
		switch a.Type {
		case "click":
			tasks = append(tasks, chromedp.Click(a.Selector, chromedp.ByQuery))
			transcript = append(transcript, fmt.Sprintf("Clicked %s", a.Selector))
		case "fill":
			tasks = append(tasks,
				chromedp.Clear(a.Selector, chromedp.ByQuery),
				chromedp.SendKeys(a.Selector, a.Value, chromedp.ByQuery))
			transcript = append(transcript, fmt.Sprintf("Filled %s", a.Selector))
		case "wait":
			tasks = append(tasks, chromedp.WaitVisible(a.Selector, chromedp.ByQuery))
			transcript = append(transcript, fmt.Sprintf("Waited for %s", a.Selector))
		case "text":
			out := new(string)
			tasks = append(tasks, chromedp.Text(a.Selector, out, chromedp.ByQuery))
			captures = append(captures, capture{label: fmt.Sprintf("Text of %s", a.Selector), value: out})
		case "title":
			out := new(string)
			tasks = append(tasks, chromedp.Title(out))
			captures = append(captures, capture{label: "Page title", value: out})
		case "navigate":
			tasks = append(tasks, chromedp.Navigate(a.Value))
			transcript = append(transcript, fmt.Sprintf("Navigated to %s", a.Value))
		case "screenshot":
			buf := new([]byte)
			tasks = append(tasks, chromedp.CaptureScreenshot(buf))
			transcript = append(transcript, "Captured screenshot")
			screenshots = append(screenshots, buf)
		}
	}

	start := time.Now()
	if err := chromedp.Run(runCtx, tasks); err != nil {
		return nil, fmt.Errorf("browser automation failed: %w", err)
	}
	s.logger.Debug("automation completed", "url", url, "actions", len(actions), "elapsed", time.Since(start))

	for _, c := range captures {
		transcript = append(transcript, fmt.Sprintf("%s: %s", c.label, *c.value))
	}

	result := &RunResult{Transcript: strings.Join(transcript, "\n")}
	for _, buf := range screenshots {
		result.Screenshots = append(result.Screenshots, *buf)
	}
	return result, nil
}
