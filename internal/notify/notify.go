// Package notify delivers risk alerts and decides when a user should get one.
// The worker holds a Sender; tests inject a stub that records calls without
// hitting the network.
package notify

import (
	"context"
	"log/slog"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

// RiskAlertParams holds the data for a flare risk alert email.
type RiskAlertParams struct {
	To     string
	Result model.RiskAssessmentResult
	// Location is a display label for the place the weather came from; may be empty.
	Location string
}

// Sender delivers alerts.
type Sender interface {
	SendRiskAlert(ctx context.Context, p RiskAlertParams) error
}

// ShouldAlert reports whether result warrants an alert for profile: the user
// has notifications on, has an address, and the level is at or above their
// threshold. An unset threshold means high.
func ShouldAlert(profile model.UserProfile, result model.RiskAssessmentResult) bool {
	if !profile.Preferences.Notifications || profile.Email == "" {
		return false
	}
	threshold := profile.Preferences.RiskThreshold
	if threshold == "" {
		threshold = model.LevelHigh
	}
	return result.RiskLevel.AtLeast(threshold)
}

// logSender is used when no email provider is configured.
type logSender struct {
	logger *slog.Logger
}

// NewLogSender returns a Sender that only logs the alert.
func NewLogSender(logger *slog.Logger) Sender {
	return &logSender{logger: logger.With("component", "notify.log")}
}

func (s *logSender) SendRiskAlert(_ context.Context, p RiskAlertParams) error {
	s.logger.Info("risk alert (email disabled)",
		"to", p.To,
		"level", p.Result.RiskLevel,
		"score", p.Result.RiskScore,
	)
	return nil
}
