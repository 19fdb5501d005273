package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

// ErrUnavailable marks every generative failure. Outcome.Reason always wraps
// it, so callers can test with errors.Is without knowing the cause.
var ErrUnavailable = errors.New("ai: generative assessment unavailable")

// Defaults applied when StrategyConfig leaves a field zero.
const (
	DefaultTimeout     = 8 * time.Second
	DefaultHistoryDays = 7
)

// ─── OUTCOME ──────────────────────────────────────────────────────────────────

// Outcome is the result of one generative attempt: either a validated
// assessment or the reason none is available. It is never both.
type Outcome struct {
	result model.RiskAssessmentResult
	reason error
}

// Ok wraps a validated result.
func Ok(r model.RiskAssessmentResult) Outcome {
	return Outcome{result: r}
}

// Unavailable wraps the reason a result could not be produced.
func Unavailable(reason error) Outcome {
	if reason == nil {
		return Outcome{reason: ErrUnavailable}
	}
	return Outcome{reason: fmt.Errorf("%w: %w", ErrUnavailable, reason)}
}

// Available reports whether the outcome carries a result.
func (o Outcome) Available() bool { return o.reason == nil }

// Result returns the assessment. ok is false for an Unavailable outcome.
func (o Outcome) Result() (r model.RiskAssessmentResult, ok bool) {
	return o.result, o.reason == nil
}

// Reason is nil for an Ok outcome.
func (o Outcome) Reason() error { return o.reason }

// ─── STRATEGY ─────────────────────────────────────────────────────────────────

// StrategyConfig bounds a generative attempt.
type StrategyConfig struct {
	// Timeout caps the whole provider call, fallback chain included.
	Timeout time.Duration
	// HistoryDays is how many days of check-ins go into the prompt.
	HistoryDays int
	Temperature float64
	MaxTokens   int
}

// Strategy is the generative risk strategy. It makes exactly one provider
// call per TryScore and never returns provider errors to the caller.
type Strategy struct {
	completer Completer
	cfg       StrategyConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewStrategy returns a Strategy backed by c. A nil c yields a Strategy whose
// every attempt is Unavailable.
func NewStrategy(c Completer, cfg StrategyConfig, logger *slog.Logger) *Strategy {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = DefaultHistoryDays
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	return &Strategy{
		completer: c,
		cfg:       cfg,
		logger:    logger.With("component", "ai.strategy"),
		now:       time.Now,
	}
}

// TryScore asks the provider for an assessment. Network errors, timeouts,
// non-2xx responses, missing or malformed JSON, and out-of-range values all
// come back as Unavailable.
func (s *Strategy) TryScore(ctx context.Context, weather model.WeatherSnapshot, profile model.UserProfile, logs []model.SymptomLog) Outcome {
	if s == nil || s.completer == nil {
		return Unavailable(ErrNoProvider)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	ref := weather.CapturedAt
	if ref.IsZero() {
		ref = s.now()
	}

	prompt := buildAssessmentPrompt(weather, profile, windowLogs(logs, ref, s.cfg.HistoryDays))

	start := time.Now()
	text, err := s.completer.Complete(ctx, prompt, GenerationConfig{
		System:      assessmentSystemPrompt,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		s.logger.Warn("provider call failed", "error", err, "elapsed", time.Since(start))
		return Unavailable(err)
	}

	raw, ok := ExtractJSONObject(text)
	if !ok {
		s.logger.Warn("no JSON object in provider response", "raw", truncate(text, 200))
		return Unavailable(errors.New("no JSON object in response"))
	}

	result, err := DecodeAssessment([]byte(raw))
	if err != nil {
		s.logger.Warn("invalid assessment from provider", "error", err)
		return Unavailable(err)
	}

	result.Strategy = model.StrategyGenerative
	result.AssessedAt = ref
	return Ok(result)
}

// windowLogs keeps logs dated within days of ref, preserving order. Logs with
// malformed dates are dropped.
func windowLogs(logs []model.SymptomLog, ref time.Time, days int) []model.SymptomLog {
	refDay := ref.UTC().Truncate(24 * time.Hour)
	cutoff := refDay.AddDate(0, 0, -(days - 1))

	out := make([]model.SymptomLog, 0, len(logs))
	for _, l := range logs {
		d, ok := l.Day()
		if !ok || d.Before(cutoff) || d.After(refDay) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ─── DECODING ─────────────────────────────────────────────────────────────────

// Pointer fields distinguish "absent" from "zero".
type wireAssessment struct {
	RiskScore       *float64             `json:"risk_score"`
	RiskLevel       *string              `json:"risk_level"`
	Confidence      *float64             `json:"confidence"`
	Reasoning       string               `json:"reasoning"`
	KeyFactors      []wireFactor         `json:"key_factors"`
	Recommendations []wireRecommendation `json:"recommendations"`
	Prediction      *wirePrediction      `json:"prediction"`
}

type wireFactor struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Impact      float64 `json:"impact"`
	Description string  `json:"description"`
}

type wireRecommendation struct {
	Priority  string `json:"priority"`
	Category  string `json:"category"`
	Text      string `json:"text"`
	Rationale string `json:"rationale"`
}

type wirePrediction struct {
	Next24h    *float64 `json:"next_24h"`
	Next7Days  *float64 `json:"next_7_days"`
	Trajectory string   `json:"trajectory"`
}

// DecodeAssessment parses and validates a provider JSON object. Required:
// risk_score, risk_level, confidence and prediction. Every numeric field
// must be in range and every enum known.
func DecodeAssessment(data []byte) (model.RiskAssessmentResult, error) {
	var w wireAssessment
	if err := json.Unmarshal(data, &w); err != nil {
		return model.RiskAssessmentResult{}, fmt.Errorf("ai: decode assessment: %w", err)
	}

	var errs []error
	missing := func(field string) { errs = append(errs, fmt.Errorf("missing %s", field)) }

	if w.RiskScore == nil {
		missing("risk_score")
	}
	if w.RiskLevel == nil {
		missing("risk_level")
	}
	if w.Confidence == nil {
		missing("confidence")
	}
	if w.Prediction == nil {
		missing("prediction")
	} else {
		if w.Prediction.Next24h == nil {
			missing("prediction.next_24h")
		}
		if w.Prediction.Next7Days == nil {
			missing("prediction.next_7_days")
		}
	}
	if len(errs) > 0 {
		return model.RiskAssessmentResult{}, fmt.Errorf("ai: invalid assessment: %w", errors.Join(errs...))
	}

	score, err := percent("risk_score", *w.RiskScore)
	if err != nil {
		errs = append(errs, err)
	}
	level := model.RiskLevel(*w.RiskLevel)
	if !level.Valid() {
		errs = append(errs, fmt.Errorf("risk_level %q not recognised", *w.RiskLevel))
	}
	if c := *w.Confidence; math.IsNaN(c) || c < 0 || c > 1 {
		errs = append(errs, fmt.Errorf("confidence %v out of range [0,1]", c))
	}

	next24, err := percent("prediction.next_24h", *w.Prediction.Next24h)
	if err != nil {
		errs = append(errs, err)
	}
	next7, err := percent("prediction.next_7_days", *w.Prediction.Next7Days)
	if err != nil {
		errs = append(errs, err)
	}
	trajectory := model.Trajectory(w.Prediction.Trajectory)
	if !trajectory.Valid() {
		errs = append(errs, fmt.Errorf("prediction.trajectory %q not recognised", w.Prediction.Trajectory))
	}

	factors := make([]model.KeyFactor, 0, len(w.KeyFactors))
	for i, f := range w.KeyFactors {
		impact, err := percent(fmt.Sprintf("key_factors[%d].impact", i), f.Impact)
		if err != nil {
			errs = append(errs, err)
		}
		cat := model.FactorCategory(f.Category)
		if !cat.Valid() {
			errs = append(errs, fmt.Errorf("key_factors[%d].category %q not recognised", i, f.Category))
		}
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("key_factors[%d].name empty", i))
		}
		factors = append(factors, model.KeyFactor{
			Name:        f.Name,
			Category:    cat,
			Impact:      impact,
			Description: f.Description,
		})
	}

	recs := make([]model.Recommendation, 0, len(w.Recommendations))
	for i, r := range w.Recommendations {
		p := model.Priority(r.Priority)
		if !p.Valid() {
			errs = append(errs, fmt.Errorf("recommendations[%d].priority %q not recognised", i, r.Priority))
		}
		c := model.RecommendationCategory(r.Category)
		if !c.Valid() {
			errs = append(errs, fmt.Errorf("recommendations[%d].category %q not recognised", i, r.Category))
		}
		if r.Text == "" {
			errs = append(errs, fmt.Errorf("recommendations[%d].text empty", i))
		}
		recs = append(recs, model.Recommendation{Priority: p, Category: c, Text: r.Text, Rationale: r.Rationale})
	}

	if len(errs) > 0 {
		return model.RiskAssessmentResult{}, fmt.Errorf("ai: invalid assessment: %w", errors.Join(errs...))
	}

	return model.RiskAssessmentResult{
		RiskScore:       score,
		RiskLevel:       level,
		Confidence:      *w.Confidence,
		Reasoning:       w.Reasoning,
		KeyFactors:      factors,
		Recommendations: recs,
		Prediction: model.Prediction{
			Next24h:    next24,
			Next7Days:  next7,
			Trajectory: trajectory,
		},
	}, nil
}

// percent validates a 0–100 value and rounds it to an int.
func percent(field string, v float64) (int, error) {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return 0, fmt.Errorf("%s %v out of range [0,100]", field, v)
	}
	return int(math.Round(v)), nil
}
