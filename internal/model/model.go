// Package model holds the value types shared by the engine, its collaborators,
// and the transport layer. It imports nothing from internal/ so every other
// package can depend on it without cycles.
package model

import (
	"time"

	"github.com/google/uuid"
)

// ─── WEATHER ──────────────────────────────────────────────────────────────────

// Pollen holds per-type pollen indices on a 0–10 scale.
type Pollen struct {
	Tree    float64 `json:"tree"`
	Grass   float64 `json:"grass"`
	Weed    float64 `json:"weed"`
	Overall float64 `json:"overall"`
}

// ForecastSnapshot is the next-24h outlook attached to a WeatherSnapshot when
// the provider has one. The scorer uses it for the 24h prediction only.
type ForecastSnapshot struct {
	Temperature     float64 `json:"temperature"`
	Humidity        float64 `json:"humidity"`
	UVIndex         float64 `json:"uv_index"`
	AirQualityIndex float64 `json:"air_quality_index"`
	PollenOverall   float64 `json:"pollen_overall"`
}

// WeatherSnapshot is the environment at a point in time. Produced by the
// weather provider and never mutated afterwards.
type WeatherSnapshot struct {
	Temperature     float64           `json:"temperature"`       // °C
	Humidity        float64           `json:"humidity"`          // %, 0–100
	Pressure        float64           `json:"pressure"`          // hPa
	UVIndex         float64           `json:"uv_index"`          // 0–11+
	AirQualityIndex float64           `json:"air_quality_index"` // US AQI, >= 0
	Pollen          Pollen            `json:"pollen"`
	Condition       string            `json:"condition"`
	WindSpeed       float64           `json:"wind_speed"` // km/h
	CapturedAt      time.Time         `json:"captured_at"`
	Forecast        *ForecastSnapshot `json:"forecast,omitempty"`
}

// ─── PROFILE ──────────────────────────────────────────────────────────────────

// SkinType is the user's self-declared skin type. The zero value means unknown.
type SkinType string

const (
	SkinDry         SkinType = "dry"
	SkinOily        SkinType = "oily"
	SkinCombination SkinType = "combination"
	SkinSensitive   SkinType = "sensitive"
)

// Valid reports whether t is empty or one of the known skin types.
func (t SkinType) Valid() bool {
	switch t {
	case "", SkinDry, SkinOily, SkinCombination, SkinSensitive:
		return true
	}
	return false
}

// Severity is a clinical severity label recorded in the profile history.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityMild, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

// SeverityEntry is one dated point in a user's severity history.
type SeverityEntry struct {
	Date     string   `json:"date"` // YYYY-MM-DD
	Severity Severity `json:"severity"`
}

// Preferences are the user's notification settings. RiskThreshold is one of
// low, moderate or high.
type Preferences struct {
	Notifications bool      `json:"notifications"`
	RiskThreshold RiskLevel `json:"risk_threshold"`
}

// Location is either a coordinate pair or a city name. Coordinates win when
// both are present.
type Location struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	City      string   `json:"city,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// IsZero reports whether neither coordinates nor a city are set.
func (l Location) IsZero() bool {
	return !l.HasCoordinates() && l.City == ""
}

// UserProfile is created at onboarding and changed only by the user.
type UserProfile struct {
	ID              uuid.UUID       `json:"id"`
	Email           string          `json:"email,omitempty"`
	SkinType        SkinType        `json:"skin_type,omitempty"`
	Triggers        []string        `json:"triggers"`
	SeverityHistory []SeverityEntry `json:"severity_history"`
	Preferences     Preferences     `json:"preferences"`
	Location        *Location       `json:"location,omitempty"`
	AgeRange        string          `json:"age_range,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ─── SYMPTOM LOG ──────────────────────────────────────────────────────────────

// Score ranges for a check-in.
const (
	MaxItchScore    = 5
	MaxRednessScore = 3
)

// SymptomLog is a single daily check-in.
type SymptomLog struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	Date           string          `json:"date"` // YYYY-MM-DD
	ItchScore      int             `json:"itch_score"`
	RednessScore   int             `json:"redness_score"`
	MedicationUsed bool            `json:"medication_used"`
	Note           string          `json:"note,omitempty"`
	Weather        WeatherSnapshot `json:"weather"`
	CreatedAt      time.Time       `json:"created_at"`
}

// DateLayout is the calendar-day layout used for SymptomLog.Date and
// SeverityEntry.Date.
const DateLayout = "2006-01-02"

// Day parses the log date. ok is false when the date is malformed.
func (l SymptomLog) Day() (day time.Time, ok bool) {
	t, err := time.Parse(DateLayout, l.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Total returns itch + redness with both components clamped to their ranges.
func (l SymptomLog) Total() int {
	return ClampInt(l.ItchScore, 0, MaxItchScore) + ClampInt(l.RednessScore, 0, MaxRednessScore)
}

// ClampInt constrains v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampFloat constrains v to [lo, hi].
func ClampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
