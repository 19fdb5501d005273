// Package assess is the risk assessment orchestrator. Engine picks a strategy
// for each assessment (generative when available, deterministic otherwise);
// Service loads the inputs an assessment needs and records the result.
//
// Dependency rule: assess never imports api, worker or notify.
package assess

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nyashahama/flareguard-backend/internal/ai"
	"github.com/nyashahama/flareguard-backend/internal/model"
	"github.com/nyashahama/flareguard-backend/internal/scoring"
	"github.com/nyashahama/flareguard-backend/internal/trends"
)

var (
	ErrMissingWeather = errors.New("assess: weather snapshot is required")
	ErrMissingProfile = errors.New("assess: user profile is required")
)

// Generator is the generative strategy. *ai.Strategy satisfies it.
type Generator interface {
	TryScore(ctx context.Context, weather model.WeatherSnapshot, profile model.UserProfile, logs []model.SymptomLog) ai.Outcome
}

// Engine runs one assessment at a time per call and holds no per-request
// state, so a single Engine is shared by every handler and worker.
type Engine struct {
	scorer   *scoring.Scorer
	gen      Generator
	analyzer *trends.Analyzer
	tracer   trace.Tracer
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine wires the strategies. gen may be nil, in which case every
// assessment is deterministic. A nil scorer uses the default weights.
func NewEngine(scorer *scoring.Scorer, gen Generator, analyzer *trends.Analyzer, logger *slog.Logger) *Engine {
	if scorer == nil {
		scorer = scoring.Default()
	}
	if analyzer == nil {
		analyzer = trends.New()
	}
	return &Engine{
		scorer:   scorer,
		gen:      gen,
		analyzer: analyzer,
		tracer:   otel.Tracer("github.com/nyashahama/flareguard-backend/internal/assess"),
		logger:   logger.With("component", "assess.engine"),
		now:      time.Now,
	}
}

// Assess returns a risk assessment for the given inputs. The generative
// strategy is tried once; if it is unavailable for any reason the result
// comes entirely from the deterministic scorer. The two are never mixed.
//
// A snapshot without a capture time is stamped with the current time before
// either strategy sees it, so both score the same instant.
//
// The only errors are ErrMissingWeather and ErrMissingProfile, returned
// before either strategy runs.
func (e *Engine) Assess(ctx context.Context, weather *model.WeatherSnapshot, profile *model.UserProfile, logs []model.SymptomLog) (model.RiskAssessmentResult, error) {
	if weather == nil {
		return model.RiskAssessmentResult{}, ErrMissingWeather
	}
	if profile == nil {
		return model.RiskAssessmentResult{}, ErrMissingProfile
	}

	ctx, span := e.tracer.Start(ctx, "assess.Assess")
	defer span.End()

	w := *weather
	if w.CapturedAt.IsZero() {
		w.CapturedAt = e.now().UTC()
	}

	var result model.RiskAssessmentResult
	if r, ok := e.tryGenerative(ctx, span, w, *profile, logs); ok {
		result = r
	} else {
		result = e.scorer.Score(w, *profile, logs)
	}
	if result.AssessedAt.IsZero() {
		result.AssessedAt = w.CapturedAt
	}

	span.SetAttributes(
		attribute.String("assess.strategy", string(result.Strategy)),
		attribute.Int("assess.score", result.RiskScore),
		attribute.String("assess.level", string(result.RiskLevel)),
	)
	e.logger.Debug("assessment complete",
		"strategy", result.Strategy,
		"score", result.RiskScore,
		"level", result.RiskLevel,
	)
	return result, nil
}

func (e *Engine) tryGenerative(ctx context.Context, span trace.Span, w model.WeatherSnapshot, p model.UserProfile, logs []model.SymptomLog) (model.RiskAssessmentResult, bool) {
	if e.gen == nil {
		return model.RiskAssessmentResult{}, false
	}
	out := e.gen.TryScore(ctx, w, p, logs)
	r, ok := out.Result()
	if !ok {
		span.AddEvent("generative unavailable")
		e.logger.Info("generative strategy unavailable, using deterministic scorer", "reason", out.Reason())
		return model.RiskAssessmentResult{}, false
	}
	return normalize(r), true
}

// normalize re-derives the level from the score and orders factors and
// recommendations the same way the deterministic scorer does.
func normalize(r model.RiskAssessmentResult) model.RiskAssessmentResult {
	r.RiskScore = model.ClampInt(r.RiskScore, 0, 100)
	r.RiskLevel = model.LevelForScore(r.RiskScore)
	r.Confidence = model.ClampFloat(r.Confidence, 0, 1)
	r.Strategy = model.StrategyGenerative

	factors := append([]model.KeyFactor(nil), r.KeyFactors...)
	for i := range factors {
		factors[i].Impact = model.ClampInt(factors[i].Impact, 0, 100)
	}
	sort.SliceStable(factors, func(a, b int) bool { return factors[a].Impact > factors[b].Impact })
	r.KeyFactors = factors

	recs := append([]model.Recommendation(nil), r.Recommendations...)
	sort.SliceStable(recs, func(a, b int) bool { return recs[a].Priority.Rank() < recs[b].Priority.Rank() })
	r.Recommendations = recs

	if r.KeyFactors == nil {
		r.KeyFactors = []model.KeyFactor{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []model.Recommendation{}
	}
	return r
}

// AnalyzeTrends summarises check-ins over the last windowDays days.
func (e *Engine) AnalyzeTrends(logs []model.SymptomLog, windowDays int) model.TrendReport {
	return e.analyzer.Analyze(logs, windowDays)
}
