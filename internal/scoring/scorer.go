package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

// ─── CONSTANTS ────────────────────────────────────────────────────────────────

// Deterministic level cut points. The three coarse buckets map onto
// low/moderate/high of the canonical scale.
const (
	moderateFloor = 25
	highFloor     = 50
)

// maxSymptomTotal is the largest possible itch+redness for one log.
const maxSymptomTotal = model.MaxItchScore + model.MaxRednessScore

// Neutral substitutes for readings that are missing or not a number.
const (
	neutralTemperature = 20.0
	neutralHumidity    = 50.0
)

// ─── TYPES ────────────────────────────────────────────────────────────────────

// condition identifies an active environmental crossing. String values double
// as recommendation template keys.
type condition string

const (
	condHumidityHigh condition = "humidity_high"
	condHumidityLow  condition = "humidity_low"
	condHeat         condition = "heat"
	condCold         condition = "cold"
	condUV           condition = "uv"
	condAirQuality   condition = "air_quality"
	condPollen       condition = "pollen"
)

// triggerKeywords maps each condition to the substrings that make a declared
// trigger match it. Matching is case-insensitive.
var triggerKeywords = map[condition][]string{
	condHumidityHigh: {"humid", "moisture", "damp", "sweat"},
	condHumidityLow:  {"dry", "low humidity"},
	condHeat:         {"heat", "hot", "warm", "sweat"},
	condCold:         {"cold", "winter", "frost", "chill"},
	condUV:           {"sun", "uv"},
	condAirQuality:   {"pollution", "air quality", "smog", "smoke", "dust"},
	condPollen:       {"pollen", "allerg", "hay fever", "grass", "ragweed", "tree"},
}

// factor is a KeyFactor plus the raw points it contributed and the template
// key used to derive recommendations.
type factor struct {
	key    string
	points float64
	kf     model.KeyFactor
	// detail feeds the recommendation template, e.g. the trigger name.
	detail string
}

// Scorer computes deterministic risk assessments. It holds no mutable state
// and is safe for concurrent use.
type Scorer struct {
	w Weights
}

// NewScorer returns a Scorer using w. Callers should Validate w first.
func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Default returns a Scorer using DefaultWeights.
func Default() *Scorer {
	return NewScorer(DefaultWeights())
}

// ─── CORE ─────────────────────────────────────────────────────────────────────

// LevelForScore maps a deterministic score onto the canonical scale:
//
//	0–24 low, 25–49 moderate, 50–100 high
//
// minimal and severe are never returned.
func LevelForScore(score int) model.RiskLevel {
	score = model.ClampInt(score, 0, 100)
	switch {
	case score >= highFloor:
		return model.LevelHigh
	case score >= moderateFloor:
		return model.LevelModerate
	default:
		return model.LevelLow
	}
}

// Score fuses weather, profile and recent logs into a risk assessment. It is
// total: out-of-range inputs are clamped, unknown optional fields contribute
// nothing, and identical inputs always yield identical output.
//
// recentLogs may be in any order; the caller controls the window.
func (s *Scorer) Score(weather model.WeatherSnapshot, profile model.UserProfile, recentLogs []model.SymptomLog) model.RiskAssessmentResult {
	env := sanitize(weather)

	// 1. Environmental crossings.
	envFactors := s.environmentalFactors(env)
	active := make([]condition, 0, len(envFactors))
	envPoints := 0.0
	for _, f := range envFactors {
		active = append(active, condition(f.key))
		envPoints += f.points
	}

	factors := append([]factor(nil), envFactors...)

	// 2. Personalisation.
	factors = append(factors, s.triggerFactors(profile.Triggers, active)...)
	if profile.SkinType == model.SkinSensitive && len(envFactors) > 0 && s.w.SensitiveSkinBonus > 0 {
		factors = append(factors, s.newFactor("sensitive_skin", s.w.SensitiveSkinBonus, model.KeyFactor{
			Name:        "Sensitive skin",
			Category:    model.CategoryClinical,
			Description: "Sensitive skin reacts more strongly to today's environmental stressors.",
		}, ""))
	}
	if f, ok := s.recentSevereFactor(profile.SeverityHistory, env.CapturedAt); ok {
		factors = append(factors, f)
	}

	// 3. Symptom history. Omitted entirely when there are no logs.
	stats := summarizeLogs(recentLogs)
	if stats.count > 0 {
		factors = append(factors, s.symptomFactors(stats)...)
	}

	// 4. Accumulate and clamp.
	total := 0.0
	for _, f := range factors {
		total += f.points
	}
	score := clampScore(total)

	sort.SliceStable(factors, func(a, b int) bool {
		return factors[a].kf.Impact > factors[b].kf.Impact
	})

	keyFactors := make([]model.KeyFactor, len(factors))
	for i, f := range factors {
		keyFactors[i] = f.kf
	}

	level := LevelForScore(score)

	return model.RiskAssessmentResult{
		RiskScore:       score,
		RiskLevel:       level,
		Confidence:      1.0,
		Reasoning:       reasoning(level, factors),
		KeyFactors:      keyFactors,
		Recommendations: recommendationsFor(factors),
		Prediction:      s.predict(score, total, envPoints, env.Forecast, stats),
		Strategy:        model.StrategyDeterministic,
		AssessedAt:      env.CapturedAt,
	}
}

// ─── ENVIRONMENT ──────────────────────────────────────────────────────────────

// sanitize clamps every reading into a usable range. NaN readings and a
// humidity of exactly zero (the JSON zero value) are treated as missing and
// replaced by neutral values.
func sanitize(w model.WeatherSnapshot) model.WeatherSnapshot {
	out := w
	out.Temperature = neutralIfNaN(w.Temperature, neutralTemperature)
	out.Temperature = model.ClampFloat(out.Temperature, -60, 60)

	out.Humidity = sanitizeHumidity(w.Humidity)

	out.UVIndex = model.ClampFloat(neutralIfNaN(w.UVIndex, 0), 0, 20)
	out.AirQualityIndex = model.ClampFloat(neutralIfNaN(w.AirQualityIndex, 0), 0, 500)
	out.Pollen.Overall = model.ClampFloat(neutralIfNaN(w.Pollen.Overall, 0), 0, 10)

	if w.Forecast != nil {
		f := *w.Forecast
		f.Temperature = model.ClampFloat(neutralIfNaN(f.Temperature, neutralTemperature), -60, 60)
		f.Humidity = sanitizeHumidity(f.Humidity)
		f.UVIndex = model.ClampFloat(neutralIfNaN(f.UVIndex, 0), 0, 20)
		f.AirQualityIndex = model.ClampFloat(neutralIfNaN(f.AirQualityIndex, 0), 0, 500)
		f.PollenOverall = model.ClampFloat(neutralIfNaN(f.PollenOverall, 0), 0, 10)
		out.Forecast = &f
	}
	return out
}

// sanitizeHumidity treats an exact zero as "not reported" and clamps
// everything else, so negative readings count as very dry air.
func sanitizeHumidity(h float64) float64 {
	if h == 0 {
		return neutralHumidity
	}
	return model.ClampFloat(neutralIfNaN(h, neutralHumidity), 0, 100)
}

func neutralIfNaN(v, neutral float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return neutral
	}
	return v
}

// environmentalFactors returns one factor per threshold crossing, in a fixed
// order so the output is deterministic.
func (s *Scorer) environmentalFactors(w model.WeatherSnapshot) []factor {
	var out []factor
	add := func(c condition, b Band, distance float64, name, desc string) {
		p := b.points(distance)
		if p <= 0 {
			return
		}
		out = append(out, s.newFactor(string(c), p, model.KeyFactor{
			Name:        name,
			Category:    model.CategoryEnvironmental,
			Description: desc,
		}, ""))
	}

	add(condHumidityHigh, s.w.HumidityHigh, w.Humidity-s.w.HumidityHigh.Threshold,
		"High humidity", fmt.Sprintf("Humidity is %.0f%%, above %.0f%%.", w.Humidity, s.w.HumidityHigh.Threshold))
	add(condHumidityLow, s.w.HumidityLow, s.w.HumidityLow.Threshold-w.Humidity,
		"Low humidity", fmt.Sprintf("Humidity is %.0f%%, below %.0f%%; dry air draws moisture from the skin.", w.Humidity, s.w.HumidityLow.Threshold))
	add(condHeat, s.w.Heat, w.Temperature-s.w.Heat.Threshold,
		"Heat", fmt.Sprintf("Temperature is %.1f°C, above %.0f°C.", w.Temperature, s.w.Heat.Threshold))
	add(condCold, s.w.Cold, s.w.Cold.Threshold-w.Temperature,
		"Cold", fmt.Sprintf("Temperature is %.1f°C, below %.0f°C.", w.Temperature, s.w.Cold.Threshold))
	add(condUV, s.w.UV, w.UVIndex-s.w.UV.Threshold,
		"High UV", fmt.Sprintf("UV index is %.1f, above %.0f.", w.UVIndex, s.w.UV.Threshold))
	add(condAirQuality, s.w.AirQuality, w.AirQualityIndex-s.w.AirQuality.Threshold,
		"Poor air quality", fmt.Sprintf("Air quality index is %.0f, above %.0f.", w.AirQualityIndex, s.w.AirQuality.Threshold))
	add(condPollen, s.w.Pollen, w.Pollen.Overall-s.w.Pollen.Threshold,
		"High pollen", fmt.Sprintf("Overall pollen is %.1f/10, above %.0f.", w.Pollen.Overall, s.w.Pollen.Threshold))

	return out
}

// environmentalPoints scores a forecast the same way environmentalFactors
// scores the current snapshot.
func (s *Scorer) environmentalPoints(f model.ForecastSnapshot) float64 {
	return s.w.HumidityHigh.points(f.Humidity-s.w.HumidityHigh.Threshold) +
		s.w.HumidityLow.points(s.w.HumidityLow.Threshold-f.Humidity) +
		s.w.Heat.points(f.Temperature-s.w.Heat.Threshold) +
		s.w.Cold.points(s.w.Cold.Threshold-f.Temperature) +
		s.w.UV.points(f.UVIndex-s.w.UV.Threshold) +
		s.w.AirQuality.points(f.AirQualityIndex-s.w.AirQuality.Threshold) +
		s.w.Pollen.points(f.PollenOverall-s.w.Pollen.Threshold)
}

// ─── PERSONALISATION ──────────────────────────────────────────────────────────

// triggerFactors matches each declared trigger against the active conditions.
// A trigger counts at most once; the running total never exceeds TriggerCap.
func (s *Scorer) triggerFactors(triggers []string, active []condition) []factor {
	if len(active) == 0 || s.w.TriggerBonus <= 0 {
		return nil
	}

	var out []factor
	budget := s.w.TriggerCap
	seen := make(map[string]struct{}, len(triggers))

	for _, raw := range triggers {
		name := strings.TrimSpace(raw)
		norm := strings.ToLower(name)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}

		c, ok := matchTrigger(norm, active)
		if !ok || budget <= 0 {
			continue
		}
		p := math.Min(s.w.TriggerBonus, budget)
		budget -= p

		out = append(out, s.newFactor("trigger", p, model.KeyFactor{
			Name:        "Trigger: " + name,
			Category:    model.CategoryClinical,
			Description: fmt.Sprintf("Your declared trigger %q matches today's %s.", name, conditionLabel(c)),
		}, name))
	}
	return out
}

func matchTrigger(trigger string, active []condition) (condition, bool) {
	for _, c := range active {
		for _, kw := range triggerKeywords[c] {
			if strings.Contains(trigger, kw) {
				return c, true
			}
		}
	}
	return "", false
}

func conditionLabel(c condition) string {
	switch c {
	case condHumidityHigh:
		return "high humidity"
	case condHumidityLow:
		return "low humidity"
	case condHeat:
		return "heat"
	case condCold:
		return "cold"
	case condUV:
		return "UV exposure"
	case condAirQuality:
		return "poor air quality"
	case condPollen:
		return "pollen levels"
	}
	return string(c)
}

// recentSevereFactor looks for a severe history entry within RecentSevereDays
// of ref. A zero ref disables the check so the scorer never reads the clock.
func (s *Scorer) recentSevereFactor(history []model.SeverityEntry, ref time.Time) (factor, bool) {
	if ref.IsZero() || s.w.RecentSevereBonus <= 0 {
		return factor{}, false
	}
	refDay := ref.UTC().Truncate(24 * time.Hour)
	for _, e := range history {
		if e.Severity != model.SeveritySevere {
			continue
		}
		d, err := time.Parse(model.DateLayout, e.Date)
		if err != nil {
			continue
		}
		age := refDay.Sub(d).Hours() / 24
		if age < 0 || age > float64(s.w.RecentSevereDays) {
			continue
		}
		return s.newFactor("recent_severe", s.w.RecentSevereBonus, model.KeyFactor{
			Name:        "Recent severe flare",
			Category:    model.CategoryClinical,
			Description: fmt.Sprintf("A severe flare was recorded on %s.", e.Date),
		}, e.Date), true
	}
	return factor{}, false
}

// ─── SYMPTOM HISTORY ──────────────────────────────────────────────────────────

type logStats struct {
	count          int
	mean           float64 // mean itch+redness
	medicationDays int
	olderMean      float64
	newerMean      float64
	trendable      bool // enough dated logs to compare halves
}

func summarizeLogs(logs []model.SymptomLog) logStats {
	st := logStats{count: len(logs)}
	if st.count == 0 {
		return st
	}

	type dated struct {
		day   time.Time
		total int
	}
	datedLogs := make([]dated, 0, len(logs))
	sum := 0
	for _, l := range logs {
		total := l.Total()
		sum += total
		if l.MedicationUsed {
			st.medicationDays++
		}
		if d, ok := l.Day(); ok {
			datedLogs = append(datedLogs, dated{day: d, total: total})
		}
	}
	st.mean = float64(sum) / float64(st.count)

	sort.SliceStable(datedLogs, func(a, b int) bool { return datedLogs[a].day.Before(datedLogs[b].day) })
	if n := len(datedLogs); n >= 2 {
		half := n / 2
		older, newer := 0, 0
		for i, d := range datedLogs {
			if i < half {
				older += d.total
			} else {
				newer += d.total
			}
		}
		st.olderMean = float64(older) / float64(half)
		st.newerMean = float64(newer) / float64(n-half)
		st.trendable = true
	}
	return st
}

func (s *Scorer) symptomFactors(st logStats) []factor {
	var out []factor

	if p := s.w.SymptomMean.points(st.mean - s.w.SymptomMean.Threshold); p > 0 {
		out = append(out, s.newFactor("elevated_symptoms", p, model.KeyFactor{
			Name:        "Elevated symptoms",
			Category:    model.CategoryPhysiological,
			Description: fmt.Sprintf("Average itch+redness over %d recent check-ins is %.1f of %d.", st.count, st.mean, maxSymptomTotal),
		}, ""))
	}

	if st.trendable && st.count >= s.w.MinLogsForTrend && s.w.RisingBonus > 0 &&
		st.newerMean-st.olderMean >= s.w.RisingDelta {
		out = append(out, s.newFactor("rising_symptoms", s.w.RisingBonus, model.KeyFactor{
			Name:        "Worsening symptoms",
			Category:    model.CategoryPhysiological,
			Description: fmt.Sprintf("Recent check-ins average %.1f versus %.1f earlier in the window.", st.newerMean, st.olderMean),
		}, ""))
	}

	if st.count >= s.w.MinLogsForMedication && s.w.MedicationBonus > 0 {
		rate := float64(st.medicationDays) / float64(st.count)
		if rate >= s.w.MedicationRate {
			out = append(out, s.newFactor("medication", s.w.MedicationBonus, model.KeyFactor{
				Name:        "Frequent medication use",
				Category:    model.CategoryBehavioral,
				Description: fmt.Sprintf("Medication was needed on %d of %d recent days.", st.medicationDays, st.count),
			}, ""))
		}
	}

	return out
}

// ─── PREDICTION ───────────────────────────────────────────────────────────────

func (s *Scorer) predict(score int, total, envPoints float64, forecast *model.ForecastSnapshot, st logStats) model.Prediction {
	next24 := score
	if forecast != nil {
		next24 = clampScore(total - envPoints + s.environmentalPoints(*forecast))
	}

	next7 := score
	if st.count > 0 {
		history := st.mean / maxSymptomTotal * 100
		next7 = clampScore(float64(score) + s.w.Smoothing*(history-float64(score)))
	}

	trajectory := model.TrajectoryStable
	switch {
	case float64(next7) > float64(score)+s.w.TrajectoryEpsilon:
		trajectory = model.TrajectoryWorsening
	case float64(next7) < float64(score)-s.w.TrajectoryEpsilon:
		trajectory = model.TrajectoryImproving
	}

	return model.Prediction{
		Next24h:    next24,
		Next7Days:  next7,
		Trajectory: trajectory,
	}
}

// ─── HELPERS ──────────────────────────────────────────────────────────────────

func (s *Scorer) newFactor(key string, points float64, kf model.KeyFactor, detail string) factor {
	kf.Impact = model.ClampInt(int(math.Round(points/s.w.ImpactScale*100)), 0, 100)
	return factor{key: key, points: points, kf: kf, detail: detail}
}

// clampScore rounds and constrains an accumulated point total to [0,100].
func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return model.ClampInt(int(math.Round(v)), 0, 100)
}

func reasoning(level model.RiskLevel, factors []factor) string {
	if len(factors) == 0 {
		return "No environmental or personal risk factors are active today."
	}
	return fmt.Sprintf("%s risk from %d contributing factor(s); strongest: %s.",
		capitalize(string(level)), len(factors), factors[0].kf.Name)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
