package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

// TreatmentPlanner turns an existing assessment into a free-text care plan.
// It never alters the assessment it is given.
type TreatmentPlanner struct {
	completer Completer
	timeout   time.Duration
}

// NewTreatmentPlanner returns a planner backed by c. timeout <= 0 uses
// DefaultTimeout.
func NewTreatmentPlanner(c Completer, timeout time.Duration) *TreatmentPlanner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TreatmentPlanner{completer: c, timeout: timeout}
}

// Plan asks the provider for a care plan for result. Unlike TryScore, failures
// are returned; there is no deterministic fallback for free text.
func (p *TreatmentPlanner) Plan(ctx context.Context, result model.RiskAssessmentResult, profile model.UserProfile) (string, error) {
	if p == nil || p.completer == nil {
		return "", ErrNoProvider
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err := p.completer.Complete(ctx, buildTreatmentPrompt(result, profile), GenerationConfig{
		System:    treatmentSystemPrompt,
		MaxTokens: 600,
	})
	if err != nil {
		return "", fmt.Errorf("ai: treatment plan: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("ai: treatment plan: empty response")
	}
	return text, nil
}
