package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoProvider is returned by a fallback chain with nothing configured.
var ErrNoProvider = errors.New("ai: no provider configured")

// fallbackCompleter wraps two Completer implementations. It calls the
// primary first; if that returns an error it logs the failure and tries the
// secondary. Which provider is primary is decided in main.go.
type fallbackCompleter struct {
	primary   Completer
	secondary Completer
	logger    *slog.Logger
}

// NewFallbackCompleter returns a Completer that calls primary and, on
// failure, falls back to secondary. Either argument may be nil: if primary is
// nil it goes straight to secondary; if secondary is nil and primary fails,
// the primary error is returned wrapped.
//
// Both providers share the caller's ctx, so a Strategy timeout bounds the
// whole chain rather than each provider.
func NewFallbackCompleter(primary, secondary Completer, logger *slog.Logger) Completer {
	return &fallbackCompleter{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (f *fallbackCompleter) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	if f.primary != nil {
		text, err := f.primary.Complete(ctx, prompt, cfg)
		if err == nil {
			return text, nil
		}
		f.logger.Warn("ai: primary provider failed, trying secondary",
			"error", err,
			"prompt_bytes", len(prompt),
		)
		if f.secondary == nil {
			return "", fmt.Errorf("ai: primary failed and no secondary configured: %w", err)
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("ai: primary failed: %w", err)
		}
	}

	if f.secondary == nil {
		return "", ErrNoProvider
	}
	return f.secondary.Complete(ctx, prompt, cfg)
}
