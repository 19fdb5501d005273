package ai

import (
	"fmt"
	"strings"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

const assessmentSystemPrompt = `You are a dermatology risk assistant for people with eczema and other inflammatory skin conditions.
You receive today's weather, the user's profile, and their recent daily check-ins.
Estimate today's flare risk.

Respond ONLY with one JSON object, no markdown fences, no preamble, matching this schema exactly:
{
  "risk_score": <integer 0-100>,
  "risk_level": "minimal" | "low" | "moderate" | "high" | "severe",
  "confidence": <number 0-1>,
  "reasoning": "<one or two sentences>",
  "key_factors": [
    {"name": "...", "category": "environmental" | "physiological" | "behavioral" | "clinical", "impact": <integer 0-100>, "description": "..."}
  ],
  "recommendations": [
    {"priority": "critical" | "high" | "medium" | "low", "category": "immediate" | "preventive" | "lifestyle" | "medical", "text": "...", "rationale": "..."}
  ],
  "prediction": {"next_24h": <integer 0-100>, "next_7_days": <integer 0-100>, "trajectory": "improving" | "stable" | "worsening"}
}
risk_level must follow risk_score: 0-19 minimal, 20-39 low, 40-59 moderate, 60-79 high, 80-100 severe.`

const treatmentSystemPrompt = `You are a dermatology care assistant. Given a skin flare risk assessment and the user's profile,
write a short, practical care plan for the next 24 hours in plain text (no markdown headings).
Keep it under 200 words. Do not diagnose or prescribe new medication; suggest seeing a clinician when risk is high.`

// buildAssessmentPrompt serialises the inputs into a compact prompt string.
// logs are expected newest-first and already windowed.
func buildAssessmentPrompt(w model.WeatherSnapshot, p model.UserProfile, logs []model.SymptomLog) string {
	var sb strings.Builder

	sb.WriteString("Weather now:\n")
	fmt.Fprintf(&sb, "temperature_c: %.1f\n", w.Temperature)
	fmt.Fprintf(&sb, "humidity_pct: %.0f\n", w.Humidity)
	fmt.Fprintf(&sb, "pressure_hpa: %.0f\n", w.Pressure)
	fmt.Fprintf(&sb, "uv_index: %.1f\n", w.UVIndex)
	fmt.Fprintf(&sb, "air_quality_index: %.0f\n", w.AirQualityIndex)
	fmt.Fprintf(&sb, "pollen (0-10): tree %.1f, grass %.1f, weed %.1f, overall %.1f\n",
		w.Pollen.Tree, w.Pollen.Grass, w.Pollen.Weed, w.Pollen.Overall)
	if w.Condition != "" {
		fmt.Fprintf(&sb, "condition: %s\n", w.Condition)
	}
	fmt.Fprintf(&sb, "wind_kmh: %.0f\n", w.WindSpeed)
	if f := w.Forecast; f != nil {
		fmt.Fprintf(&sb, "forecast_next_24h: temperature %.1f, humidity %.0f, uv %.1f, aqi %.0f, pollen %.1f\n",
			f.Temperature, f.Humidity, f.UVIndex, f.AirQualityIndex, f.PollenOverall)
	}

	sb.WriteString("\nProfile:\n")
	skin := string(p.SkinType)
	if skin == "" {
		skin = "unknown"
	}
	fmt.Fprintf(&sb, "skin_type: %s\n", skin)
	if len(p.Triggers) > 0 {
		fmt.Fprintf(&sb, "known_triggers: %s\n", strings.Join(p.Triggers, ", "))
	} else {
		sb.WriteString("known_triggers: none declared\n")
	}
	if p.AgeRange != "" {
		fmt.Fprintf(&sb, "age_range: %s\n", p.AgeRange)
	}
	if n := len(p.SeverityHistory); n > 0 {
		sb.WriteString("severity_history:")
		// Most recent few entries only.
		from := n - 5
		if from < 0 {
			from = 0
		}
		for _, e := range p.SeverityHistory[from:] {
			fmt.Fprintf(&sb, " %s=%s", e.Date, e.Severity)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nRecent check-ins (itch 0-5, redness 0-3):\n")
	if len(logs) == 0 {
		sb.WriteString("none\n")
	}
	for _, l := range logs {
		fmt.Fprintf(&sb, "%s itch=%d redness=%d medication=%t", l.Date, l.ItchScore, l.RednessScore, l.MedicationUsed)
		if l.Weather.CapturedAt.IsZero() {
			sb.WriteString("\n")
			continue
		}
		fmt.Fprintf(&sb, " temp=%.0f humidity=%.0f uv=%.0f pollen=%.1f\n",
			l.Weather.Temperature, l.Weather.Humidity, l.Weather.UVIndex, l.Weather.Pollen.Overall)
	}

	return sb.String()
}

func buildTreatmentPrompt(r model.RiskAssessmentResult, p model.UserProfile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "risk_score: %d\nrisk_level: %s\n", r.RiskScore, r.RiskLevel)
	if r.Reasoning != "" {
		fmt.Fprintf(&sb, "reasoning: %s\n", r.Reasoning)
	}
	for _, f := range r.KeyFactors {
		fmt.Fprintf(&sb, "factor: %s (%s, impact %d)\n", f.Name, f.Category, f.Impact)
	}
	if p.SkinType != "" {
		fmt.Fprintf(&sb, "skin_type: %s\n", p.SkinType)
	}
	if len(p.Triggers) > 0 {
		fmt.Fprintf(&sb, "known_triggers: %s\n", strings.Join(p.Triggers, ", "))
	}
	return sb.String()
}
