package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nyashahama/flareguard-backend/internal/db"
	"github.com/nyashahama/flareguard-backend/internal/model"
)

// SaveAssessment stores result as the user's assessment for the day it was
// made, replacing any earlier one from the same day. It returns the row id.
func (s *Store) SaveAssessment(ctx context.Context, userID uuid.UUID, result model.RiskAssessmentResult) (uuid.UUID, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: marshal assessment: %w", err)
	}

	on := result.AssessedAt
	if on.IsZero() {
		on = s.now()
	}

	row, err := s.q.UpsertRiskAssessment(ctx, db.UpsertRiskAssessmentParams{
		UserID:     userID,
		AssessedOn: day(on),
		RiskScore:  int32(result.RiskScore),
		RiskLevel:  string(result.RiskLevel),
		Strategy:   string(result.Strategy),
		Result:     raw,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: save assessment: %w", err)
	}
	return row.ID, nil
}

// LatestAssessment returns the most recent stored assessment for the user.
// ErrNotFound when none has been made.
func (s *Store) LatestAssessment(ctx context.Context, userID uuid.UUID) (model.RiskAssessmentResult, error) {
	row, err := s.q.GetLatestRiskAssessment(ctx, userID)
	if err != nil {
		return model.RiskAssessmentResult{}, notFound("latest assessment", err)
	}
	var r model.RiskAssessmentResult
	if err := json.Unmarshal(row.Result, &r); err != nil {
		return model.RiskAssessmentResult{}, fmt.Errorf("store: decode assessment %s: %w", row.ID, err)
	}
	return r, nil
}

// MarkAlertChecked records that the day's alert was evaluated and not needed.
func (s *Store) MarkAlertChecked(ctx context.Context, assessmentID uuid.UUID) error {
	if err := s.q.MarkAlertChecked(ctx, assessmentID); err != nil {
		return fmt.Errorf("store: mark alert checked: %w", err)
	}
	return nil
}

// MarkAlertSent records that the risk alert for an assessment went out.
func (s *Store) MarkAlertSent(ctx context.Context, assessmentID uuid.UUID) error {
	if err := s.q.MarkAlertSent(ctx, assessmentID); err != nil {
		return fmt.Errorf("store: mark alert sent: %w", err)
	}
	return nil
}
