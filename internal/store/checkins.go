package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/nyashahama/flareguard-backend/internal/db"
	"github.com/nyashahama/flareguard-backend/internal/model"
)

// maxSeverityHistory bounds the history kept on a profile.
const maxSeverityHistory = 90

// SaveCheckIn stores the day's check-in and records its severity on the
// profile. It atomically:
//
//  1. Confirms the profile exists (ErrNotFound otherwise).
//  2. Upserts the symptom log; a second check-in for the same day replaces
//     the first.
//  3. Replaces the profile's severity entry for that day.
func (s *Store) SaveCheckIn(ctx context.Context, l model.SymptomLog) (model.SymptomLog, error) {
	d, ok := l.Day()
	if !ok {
		return model.SymptomLog{}, fmt.Errorf("store: check-in date %q is not YYYY-MM-DD", l.Date)
	}
	weather, err := json.Marshal(l.Weather)
	if err != nil {
		return model.SymptomLog{}, fmt.Errorf("store: marshal weather: %w", err)
	}

	var saved model.SymptomLog
	err = s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		profile, err := q.GetProfile(ctx, l.UserID)
		if err != nil {
			return notFound("SaveCheckIn: get profile", err)
		}

		row, err := q.UpsertSymptomLog(ctx, db.UpsertSymptomLogParams{
			UserID:         l.UserID,
			LogDate:        d,
			ItchScore:      int32(model.ClampInt(l.ItchScore, 0, model.MaxItchScore)),
			RednessScore:   int32(model.ClampInt(l.RednessScore, 0, model.MaxRednessScore)),
			MedicationUsed: l.MedicationUsed,
			Note:           nullString(l.Note),
			Weather:        weather,
		})
		if err != nil {
			return fmt.Errorf("SaveCheckIn: upsert log: %w", err)
		}
		saved, err = logFromRow(row)
		if err != nil {
			return err
		}

		var history []model.SeverityEntry
		if err := unmarshalJSONB(profile.SeverityHistory, &history); err != nil {
			return fmt.Errorf("SaveCheckIn: decode history: %w", err)
		}
		history = withSeverity(history, model.SeverityEntry{
			Date:     saved.Date,
			Severity: SeverityForTotal(saved.Total()),
		})
		raw, err := marshalJSONB(history)
		if err != nil {
			return err
		}
		if _, err := q.UpdateSeverityHistory(ctx, db.UpdateSeverityHistoryParams{
			ID:              l.UserID,
			SeverityHistory: raw,
		}); err != nil {
			return fmt.Errorf("SaveCheckIn: update history: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.SymptomLog{}, err
	}
	return saved, nil
}

// GetRecentLogs returns the user's check-ins from the last days days,
// today included, newest first.
func (s *Store) GetRecentLogs(ctx context.Context, userID uuid.UUID, days int) ([]model.SymptomLog, error) {
	if days <= 0 {
		days = 1
	}
	since := day(s.now()).AddDate(0, 0, -(days - 1))
	rows, err := s.q.ListRecentSymptomLogs(ctx, db.ListRecentSymptomLogsParams{
		UserID:  userID,
		LogDate: since,
	})
	if err != nil {
		return nil, fmt.Errorf("store: recent logs: %w", err)
	}
	out := make([]model.SymptomLog, 0, len(rows))
	for _, r := range rows {
		l, err := logFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// SeverityForTotal maps a check-in's itch+redness to a severity label:
// below 4 mild, below 6 moderate, otherwise severe.
func SeverityForTotal(total int) model.Severity {
	switch {
	case total >= 6:
		return model.SeveritySevere
	case total >= 4:
		return model.SeverityModerate
	default:
		return model.SeverityMild
	}
}

// withSeverity replaces or inserts e, keeps the history sorted by date, and
// trims it to the most recent maxSeverityHistory entries.
func withSeverity(history []model.SeverityEntry, e model.SeverityEntry) []model.SeverityEntry {
	out := make([]model.SeverityEntry, 0, len(history)+1)
	for _, h := range history {
		if h.Date != e.Date {
			out = append(out, h)
		}
	}
	out = append(out, e)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	if len(out) > maxSeverityHistory {
		out = out[len(out)-maxSeverityHistory:]
	}
	return out
}

func logFromRow(r db.SymptomLog) (model.SymptomLog, error) {
	l := model.SymptomLog{
		ID:             r.ID,
		UserID:         r.UserID,
		Date:           r.LogDate.UTC().Format(model.DateLayout),
		ItchScore:      int(r.ItchScore),
		RednessScore:   int(r.RednessScore),
		MedicationUsed: r.MedicationUsed,
		Note:           r.Note.String,
		CreatedAt:      r.CreatedAt,
	}
	if err := unmarshalJSONB(r.Weather, &l.Weather); err != nil {
		return model.SymptomLog{}, fmt.Errorf("store: log %s weather: %w", r.ID, err)
	}
	return l, nil
}
