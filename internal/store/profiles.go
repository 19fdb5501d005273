package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/flareguard-backend/internal/db"
	"github.com/nyashahama/flareguard-backend/internal/model"
)

// GetProfile loads a profile. ErrNotFound when the id is unknown.
func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (model.UserProfile, error) {
	row, err := s.q.GetProfile(ctx, id)
	if err != nil {
		return model.UserProfile{}, notFound("get profile", err)
	}
	return profileFromRow(row)
}

// SaveProfile creates or replaces a profile. A nil ID is assigned a new one.
// A nil SeverityHistory keeps whatever history is stored; an empty non-nil
// slice clears it.
func (s *Store) SaveProfile(ctx context.Context, p model.UserProfile) (model.UserProfile, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	params, err := upsertProfileParams(p)
	if err != nil {
		return model.UserProfile{}, err
	}
	row, err := s.q.UpsertProfile(ctx, params)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("store: save profile: %w", err)
	}
	return profileFromRow(row)
}

// ListDueUsers returns profiles with notifications on and a stored location
// whose alert for the given day has not been evaluated yet. On-demand
// assessments do not count.
func (s *Store) ListDueUsers(ctx context.Context, on time.Time, limit int) ([]model.UserProfile, error) {
	rows, err := s.q.ListDueProfiles(ctx, db.ListDueProfilesParams{
		AssessedOn: day(on),
		Limit:      int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("store: list due users: %w", err)
	}
	out := make([]model.UserProfile, 0, len(rows))
	for _, r := range rows {
		p, err := profileFromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ─── CONVERSION ───────────────────────────────────────────────────────────────

func profileFromRow(r db.Profile) (model.UserProfile, error) {
	p := model.UserProfile{
		ID:       r.ID,
		Email:    r.Email.String,
		SkinType: model.SkinType(r.SkinType.String),
		Preferences: model.Preferences{
			Notifications: r.Notifications,
			RiskThreshold: model.RiskLevel(r.RiskThreshold),
		},
		AgeRange:  r.AgeRange.String,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := unmarshalJSONB(r.Triggers, &p.Triggers); err != nil {
		return model.UserProfile{}, fmt.Errorf("store: profile %s triggers: %w", r.ID, err)
	}
	if err := unmarshalJSONB(r.SeverityHistory, &p.SeverityHistory); err != nil {
		return model.UserProfile{}, fmt.Errorf("store: profile %s severity history: %w", r.ID, err)
	}
	if r.Location.Valid {
		var loc model.Location
		if err := json.Unmarshal(r.Location.RawMessage, &loc); err != nil {
			return model.UserProfile{}, fmt.Errorf("store: profile %s location: %w", r.ID, err)
		}
		if !loc.IsZero() {
			p.Location = &loc
		}
	}
	if p.Triggers == nil {
		p.Triggers = []string{}
	}
	if p.SeverityHistory == nil {
		p.SeverityHistory = []model.SeverityEntry{}
	}
	return p, nil
}

func upsertProfileParams(p model.UserProfile) (db.UpsertProfileParams, error) {
	triggers, err := marshalJSONB(p.Triggers)
	if err != nil {
		return db.UpsertProfileParams{}, err
	}
	var history pqtype.NullRawMessage
	if p.SeverityHistory != nil {
		raw, err := json.Marshal(p.SeverityHistory)
		if err != nil {
			return db.UpsertProfileParams{}, fmt.Errorf("store: marshal severity history: %w", err)
		}
		history = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}

	var loc pqtype.NullRawMessage
	if p.Location != nil && !p.Location.IsZero() {
		raw, err := json.Marshal(p.Location)
		if err != nil {
			return db.UpsertProfileParams{}, fmt.Errorf("store: marshal location: %w", err)
		}
		loc = pqtype.NullRawMessage{RawMessage: raw, Valid: true}
	}

	threshold := p.Preferences.RiskThreshold
	if threshold == "" {
		threshold = model.LevelHigh
	}

	return db.UpsertProfileParams{
		ID:              p.ID,
		Email:           nullString(p.Email),
		SkinType:        nullString(string(p.SkinType)),
		Triggers:        triggers,
		SeverityHistory: history,
		Notifications:   p.Preferences.Notifications,
		RiskThreshold:   string(threshold),
		Location:        loc,
		AgeRange:        nullString(p.AgeRange),
	}, nil
}

// marshalJSONB encodes v, writing nil slices as [] so NOT NULL columns hold
// an array rather than null.
func marshalJSONB[T any](v []T) (json.RawMessage, error) {
	if v == nil {
		v = []T{}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: marshal jsonb: %w", err)
	}
	return raw, nil
}

func unmarshalJSONB(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
