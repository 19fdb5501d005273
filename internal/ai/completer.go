// Package ai talks to generative model providers and turns their free-text
// output into validated risk assessments.
package ai

import "context"

// GenerationConfig tunes a single completion request.
type GenerationConfig struct {
	System      string
	Temperature float64
	MaxTokens   int
	// JSONMode asks the provider for a JSON-only response where supported.
	// Callers must still extract and validate the JSON themselves.
	JSONMode bool
}

// Completer is a generative model provider: prompt in, text out. It knows
// nothing about risk assessments; the Strategy owns all shape validation.
//
// Implementations must be safe to call concurrently and must honour ctx
// cancellation.
type Completer interface {
	Complete(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	return f(ctx, prompt, cfg)
}
