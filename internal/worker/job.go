package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nyashahama/flareguard-backend/internal/assess"
	"github.com/nyashahama/flareguard-backend/internal/model"
	"github.com/nyashahama/flareguard-backend/internal/notify"
)

// Assessor runs and records an assessment. *assess.Service satisfies it.
type Assessor interface {
	AssessUser(ctx context.Context, userID uuid.UUID, loc *model.Location) (assess.UserAssessment, error)
}

// AlertMarker records the outcome of the day's alert decision. A user stays
// due until one of these succeeds. *store.Store satisfies it.
type AlertMarker interface {
	MarkAlertChecked(ctx context.Context, assessmentID uuid.UUID) error
	MarkAlertSent(ctx context.Context, assessmentID uuid.UUID) error
}

// Job holds the dependencies for the daily assess-and-alert pipeline.
type Job struct {
	assessor Assessor
	marker   AlertMarker
	mailer   notify.Sender
	logger   *slog.Logger
}

// NewJob constructs a Job with all required dependencies.
func NewJob(assessor Assessor, marker AlertMarker, mailer notify.Sender, logger *slog.Logger) *Job {
	return &Job{
		assessor: assessor,
		marker:   marker,
		mailer:   mailer,
		logger:   logger,
	}
}

// Run executes the pipeline for a single user:
//
//  1. Assess with the stored location and record the result.
//  2. If the level meets the user's threshold, send the alert.
//  3. Mark the assessment as checked, or as alerted when mail went out.
//
// Only a failed assessment is returned to the Runner for retry. A failed
// email leaves the assessment unmarked, so the next poll tries again.
func (j *Job) Run(ctx context.Context, userID uuid.UUID) error {
	log := j.logger.With("user_id", userID)
	log.Info("job: starting")

	// ── 1. Assess ─────────────────────────────────────────────────────────────
	ua, err := j.assessor.AssessUser(ctx, userID, nil)
	if err != nil {
		return fmt.Errorf("job: assess user: %w", err)
	}

	log.Debug("job: assessed",
		"assessment_id", ua.ID,
		"strategy", ua.Result.Strategy,
		"score", ua.Result.RiskScore,
		"level", ua.Result.RiskLevel,
	)

	// ── 2. Alert ──────────────────────────────────────────────────────────────
	if !notify.ShouldAlert(ua.Profile, ua.Result) {
		log.Debug("job: below alert threshold", "threshold", ua.Profile.Preferences.RiskThreshold)
		if err := j.marker.MarkAlertChecked(ctx, ua.ID); err != nil {
			log.Error("job: could not mark alert checked", "assessment_id", ua.ID, "error", err)
		}
		return nil
	}

	var place string
	if ua.Profile.Location != nil {
		place = ua.Profile.Location.City
	}
	if err := j.mailer.SendRiskAlert(ctx, notify.RiskAlertParams{
		To:       ua.Profile.Email,
		Result:   ua.Result,
		Location: place,
	}); err != nil {
		log.Error("job: failed to send risk alert", "to", ua.Profile.Email, "error", err)
		return nil
	}

	// ── 3. Record delivery ────────────────────────────────────────────────────
	if err := j.marker.MarkAlertSent(ctx, ua.ID); err != nil {
		log.Error("job: could not mark alert sent", "assessment_id", ua.ID, "error", err)
	}

	log.Info("job: risk alert sent", "level", ua.Result.RiskLevel)
	return nil
}
