// ABOUTME: Retry wrapper for transient failures in tool invocations.
// ABOUTME: Retries only timeout-shaped errors, with a fixed delay between attempts.

package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	// DefaultMaxAttempts is the total number of attempts including the first.
	DefaultMaxAttempts = 3

	// DefaultDelay is the pause between attempts.
	DefaultDelay = 2 * time.Second
)

// Options controls retry behavior.
type Options struct {
	MaxAttempts int
	Delay       time.Duration
	Logger      *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithMaxAttempts sets the total attempt count. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(o *Options) {
		if n >= 1 {
			o.MaxAttempts = n
		}
	}
}

// WithDelay sets the pause between attempts.
func WithDelay(d time.Duration) Option {
	return func(o *Options) {
		if d >= 0 {
			o.Delay = d
		}
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// Do invokes fn, retrying on transient errors up to the configured number
// of attempts. Non-transient errors are returned immediately. The final
// error is returned unwrapped so callers can inspect it with errors.Is.
func Do[T any](ctx context.Context, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	o := Options{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
		Logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= o.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !IsTransient(err) {
			return zero, err
		}
		lastErr = err

		if attempt < o.MaxAttempts {
			o.Logger.Warn("transient failure, retrying",
				"attempt", attempt,
				"max_attempts", o.MaxAttempts,
				"delay", o.Delay,
				"error", err)
			select {
			case <-time.After(o.Delay):
			case <-ctx.Done():
				return zero, fmt.Errorf("retry aborted: %w", ctx.Err())
			}
		}
	}
	return zero, lastErr
}

// IsTransient reports whether err looks like a timeout. Only these errors
// are worth retrying; anything else fails the same way on every attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "deadline exceeded")
}
