package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

const (
	maxWindowDays = 365
	maxTriggers   = 30
	maxNoteLen    = 1000
	maxLogs       = 400
)

// validateLogs checks the ranges a check-in must respect. It returns a
// client-facing message, or "" when the logs are acceptable.
func validateLogs(logs []model.SymptomLog) string {
	if len(logs) > maxLogs {
		return fmt.Sprintf("at most %d logs per request", maxLogs)
	}
	for i, l := range logs {
		if msg := validateLog(l); msg != "" {
			return fmt.Sprintf("logs[%d]: %s", i, msg)
		}
	}
	return ""
}

func validateLog(l model.SymptomLog) string {
	if _, ok := l.Day(); !ok {
		return "date must be YYYY-MM-DD"
	}
	if l.ItchScore < 0 || l.ItchScore > model.MaxItchScore {
		return fmt.Sprintf("itch_score must be between 0 and %d", model.MaxItchScore)
	}
	if l.RednessScore < 0 || l.RednessScore > model.MaxRednessScore {
		return fmt.Sprintf("redness_score must be between 0 and %d", model.MaxRednessScore)
	}
	if len(l.Note) > maxNoteLen {
		return fmt.Sprintf("note must be at most %d characters", maxNoteLen)
	}
	return ""
}

// normalizeProfile trims and validates a profile submitted by the user.
func normalizeProfile(p *model.UserProfile) string {
	if !p.SkinType.Valid() {
		return "skin_type must be one of dry, oily, combination, sensitive"
	}

	switch p.Preferences.RiskThreshold {
	case "", model.LevelLow, model.LevelModerate, model.LevelHigh:
	default:
		return "preferences.risk_threshold must be one of low, moderate, high"
	}

	if len(p.Triggers) > maxTriggers {
		return fmt.Sprintf("at most %d triggers", maxTriggers)
	}
	triggers := make([]string, 0, len(p.Triggers))
	for _, t := range p.Triggers {
		if t = strings.TrimSpace(t); t != "" {
			triggers = append(triggers, t)
		}
	}
	p.Triggers = triggers

	for i, e := range p.SeverityHistory {
		if _, err := time.Parse(model.DateLayout, e.Date); err != nil {
			return fmt.Sprintf("severity_history[%d].date must be YYYY-MM-DD", i)
		}
		if !e.Severity.Valid() {
			return fmt.Sprintf("severity_history[%d].severity must be mild, moderate or severe", i)
		}
	}

	if p.Location != nil {
		if msg := validateLocation(*p.Location); msg != "" {
			return "location: " + msg
		}
		p.Location.City = strings.TrimSpace(p.Location.City)
	}

	p.Email = strings.TrimSpace(p.Email)
	if p.Preferences.Notifications && p.Email == "" {
		return "email is required when notifications are enabled"
	}
	return ""
}

func validateLocation(l model.Location) string {
	if (l.Latitude == nil) != (l.Longitude == nil) {
		return "latitude and longitude must be set together"
	}
	if l.Latitude != nil && (*l.Latitude < -90 || *l.Latitude > 90) {
		return "latitude must be between -90 and 90"
	}
	if l.Longitude != nil && (*l.Longitude < -180 || *l.Longitude > 180) {
		return "longitude must be between -180 and 180"
	}
	return ""
}
