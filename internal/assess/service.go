package assess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nyashahama/flareguard-backend/internal/ai"
	"github.com/nyashahama/flareguard-backend/internal/model"
	"github.com/nyashahama/flareguard-backend/internal/store"
	"github.com/nyashahama/flareguard-backend/internal/trends"
	"github.com/nyashahama/flareguard-backend/internal/weather"
)

var (
	ErrProfileNotFound    = errors.New("assess: profile not found")
	ErrNoAssessment       = errors.New("assess: no assessment recorded yet")
	ErrStoreUnavailable   = errors.New("assess: store unavailable")
	ErrWeatherUnavailable = errors.New("assess: weather unavailable")
	ErrPlanUnavailable    = errors.New("assess: treatment plan unavailable")
)

// DefaultHistoryDays is how many days of check-ins feed an assessment.
const DefaultHistoryDays = 7

// ─── COLLABORATORS ────────────────────────────────────────────────────────────

// ProfileStore is the read side of persistence plus the check-in write.
// *store.Store satisfies it.
type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (model.UserProfile, error)
	GetRecentLogs(ctx context.Context, userID uuid.UUID, days int) ([]model.SymptomLog, error)
	LatestAssessment(ctx context.Context, userID uuid.UUID) (model.RiskAssessmentResult, error)
	SaveCheckIn(ctx context.Context, l model.SymptomLog) (model.SymptomLog, error)
}

// AssessmentRecorder persists finished assessments. *store.Store satisfies it.
type AssessmentRecorder interface {
	SaveAssessment(ctx context.Context, userID uuid.UUID, result model.RiskAssessmentResult) (uuid.UUID, error)
}

// Planner elaborates an assessment into a treatment plan.
// *ai.TreatmentPlanner satisfies it.
type Planner interface {
	Plan(ctx context.Context, result model.RiskAssessmentResult, profile model.UserProfile) (string, error)
}

// ─── SERVICE ──────────────────────────────────────────────────────────────────

// UserAssessment is a recorded assessment together with the profile it was
// made for.
type UserAssessment struct {
	ID      uuid.UUID
	Profile model.UserProfile
	Result  model.RiskAssessmentResult
}

// Service gathers the inputs for user-scoped operations and hands them to the
// Engine. It owns no state of its own.
type Service struct {
	engine      *Engine
	profiles    ProfileStore
	recorder    AssessmentRecorder
	weather     weather.Provider
	planner     Planner
	historyDays int
	logger      *slog.Logger
}

// NewService wires a Service. planner may be nil, in which case
// TreatmentPlan always fails with ErrPlanUnavailable.
func NewService(
	engine *Engine,
	profiles ProfileStore,
	recorder AssessmentRecorder,
	wp weather.Provider,
	planner Planner,
	historyDays int,
	logger *slog.Logger,
) *Service {
	if historyDays <= 0 {
		historyDays = DefaultHistoryDays
	}
	return &Service{
		engine:      engine,
		profiles:    profiles,
		recorder:    recorder,
		weather:     wp,
		planner:     planner,
		historyDays: historyDays,
		logger:      logger.With("component", "assess.service"),
	}
}

// AssessUser runs and records an assessment for userID. loc overrides the
// stored location when non-nil and non-empty.
func (s *Service) AssessUser(ctx context.Context, userID uuid.UUID, loc *model.Location) (UserAssessment, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return UserAssessment{}, err
	}

	logs, err := s.profiles.GetRecentLogs(ctx, userID, s.historyDays)
	if err != nil {
		return UserAssessment{}, fmt.Errorf("%w: recent logs: %w", ErrStoreUnavailable, err)
	}

	snap, err := s.weather.Current(ctx, locationFor(profile, loc))
	if err != nil {
		return UserAssessment{}, fmt.Errorf("%w: %w", ErrWeatherUnavailable, err)
	}

	result, err := s.engine.Assess(ctx, &snap, &profile, logs)
	if err != nil {
		return UserAssessment{}, err
	}

	id, err := s.recorder.SaveAssessment(ctx, userID, result)
	if err != nil {
		return UserAssessment{}, fmt.Errorf("%w: save assessment: %w", ErrStoreUnavailable, err)
	}

	s.logger.Info("user assessed",
		"user_id", userID,
		"assessment_id", id,
		"strategy", result.Strategy,
		"level", result.RiskLevel,
	)
	return UserAssessment{ID: id, Profile: profile, Result: result}, nil
}

// CheckIn records the day's symptoms. When the log carries no weather and
// the profile has a location, the current snapshot is attached; a weather
// failure is logged and the check-in is saved without it.
func (s *Service) CheckIn(ctx context.Context, l model.SymptomLog) (model.SymptomLog, error) {
	profile, err := s.loadProfile(ctx, l.UserID)
	if err != nil {
		return model.SymptomLog{}, err
	}

	if l.Weather.CapturedAt.IsZero() && profile.Location != nil && !profile.Location.IsZero() {
		snap, err := s.weather.Current(ctx, *profile.Location)
		if err != nil {
			s.logger.Warn("check-in saved without weather", "user_id", l.UserID, "error", err)
		} else {
			l.Weather = snap
		}
	}

	saved, err := s.profiles.SaveCheckIn(ctx, l)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return model.SymptomLog{}, ErrProfileNotFound
	case err != nil:
		return model.SymptomLog{}, fmt.Errorf("%w: save check-in: %w", ErrStoreUnavailable, err)
	}
	return saved, nil
}

// TrendsForUser analyses the user's check-ins over windowDays days.
func (s *Service) TrendsForUser(ctx context.Context, userID uuid.UUID, windowDays int) (model.TrendReport, error) {
	if _, err := s.loadProfile(ctx, userID); err != nil {
		return model.TrendReport{}, err
	}
	if windowDays <= 0 {
		windowDays = trends.DefaultWindowDays
	}
	logs, err := s.profiles.GetRecentLogs(ctx, userID, windowDays)
	if err != nil {
		return model.TrendReport{}, fmt.Errorf("%w: recent logs: %w", ErrStoreUnavailable, err)
	}
	return s.engine.AnalyzeTrends(logs, windowDays), nil
}

// TreatmentPlan elaborates the user's latest recorded assessment. Failure
// here never changes the stored assessment.
func (s *Service) TreatmentPlan(ctx context.Context, userID uuid.UUID) (string, model.RiskAssessmentResult, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return "", model.RiskAssessmentResult{}, err
	}

	latest, err := s.profiles.LatestAssessment(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "", model.RiskAssessmentResult{}, ErrNoAssessment
	case err != nil:
		return "", model.RiskAssessmentResult{}, fmt.Errorf("%w: latest assessment: %w", ErrStoreUnavailable, err)
	}

	if s.planner == nil {
		return "", latest, fmt.Errorf("%w: %w", ErrPlanUnavailable, ai.ErrNoProvider)
	}
	plan, err := s.planner.Plan(ctx, latest, profile)
	if err != nil {
		s.logger.Warn("treatment plan failed", "user_id", userID, "error", err)
		return "", latest, fmt.Errorf("%w: %w", ErrPlanUnavailable, err)
	}
	return plan, latest, nil
}

func (s *Service) loadProfile(ctx context.Context, userID uuid.UUID) (model.UserProfile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return model.UserProfile{}, ErrProfileNotFound
	case err != nil:
		return model.UserProfile{}, fmt.Errorf("%w: get profile: %w", ErrStoreUnavailable, err)
	}
	return p, nil
}

// locationFor prefers an explicit location over the stored one. The zero
// Location is returned when neither exists and the provider rejects it.
func locationFor(p model.UserProfile, override *model.Location) model.Location {
	if override != nil && !override.IsZero() {
		return *override
	}
	if p.Location != nil {
		return *p.Location
	}
	return model.Location{}
}
