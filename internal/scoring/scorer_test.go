package scoring_test

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nyashahama/flareguard-backend/internal/model"
	"github.com/nyashahama/flareguard-backend/internal/scoring"
)

var captured = time.Date(2026, 7, 14, 9, 0, 0, 0, time.UTC)

func calmWeather() model.WeatherSnapshot {
	return model.WeatherSnapshot{
		Temperature:     20,
		Humidity:        50,
		Pressure:        1013,
		UVIndex:         3,
		AirQualityIndex: 30,
		Pollen:          model.Pollen{Overall: 2},
		Condition:       "Clear sky",
		CapturedAt:      captured,
	}
}

func harshWeather() model.WeatherSnapshot {
	return model.WeatherSnapshot{
		Temperature:     32,
		Humidity:        80,
		UVIndex:         9,
		AirQualityIndex: 150,
		Pollen:          model.Pollen{Overall: 8},
		CapturedAt:      captured,
	}
}

func logsWith(n, itch, redness int, medication bool) []model.SymptomLog {
	logs := make([]model.SymptomLog, n)
	for i := range logs {
		logs[i] = model.SymptomLog{
			Date:           captured.AddDate(0, 0, -i).Format(model.DateLayout),
			ItchScore:      itch,
			RednessScore:   redness,
			MedicationUsed: medication,
		}
	}
	return logs
}

func hasFactor(r model.RiskAssessmentResult, name string) bool {
	for _, f := range r.KeyFactors {
		if f.Name == name {
			return true
		}
	}
	return false
}

// ─── LevelForScore ────────────────────────────────────────────────────────────

func TestLevelForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  model.RiskLevel
	}{
		{-5, model.LevelLow},
		{0, model.LevelLow},
		{24, model.LevelLow},
		{25, model.LevelModerate},
		{49, model.LevelModerate},
		{50, model.LevelHigh},
		{100, model.LevelHigh},
		{140, model.LevelHigh},
	}
	for _, tt := range tests {
		if got := scoring.LevelForScore(tt.score); got != tt.want {
			t.Errorf("LevelForScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

// ─── Score ────────────────────────────────────────────────────────────────────

func TestScore_HarshConditionsWithMatchingTrigger(t *testing.T) {
	s := scoring.Default()
	profile := model.UserProfile{Triggers: []string{"High humidity"}}

	r := s.Score(harshWeather(), profile, nil)

	if r.RiskScore < 50 {
		t.Errorf("score = %d, want >= 50", r.RiskScore)
	}
	if r.RiskLevel != model.LevelHigh {
		t.Errorf("level = %s, want high", r.RiskLevel)
	}
	for _, name := range []string{"High humidity", "Heat", "High UV", "Poor air quality", "High pollen", "Trigger: High humidity"} {
		if !hasFactor(r, name) {
			t.Errorf("missing factor %q", name)
		}
	}
	if r.Strategy != model.StrategyDeterministic {
		t.Errorf("strategy = %s", r.Strategy)
	}
	if r.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", r.Confidence)
	}
}

func TestScore_MildHistoryIsLow(t *testing.T) {
	r := scoring.Default().Score(calmWeather(), model.UserProfile{}, logsWith(7, 1, 1, false))

	if r.RiskLevel != model.LevelLow {
		t.Errorf("level = %s (score %d), want low", r.RiskLevel, r.RiskScore)
	}
	if hasFactor(r, "Elevated symptoms") || hasFactor(r, "Worsening symptoms") {
		t.Errorf("unexpected symptom factor: %+v", r.KeyFactors)
	}
}

func TestScore_EmptyLogsOmitHistoryFactors(t *testing.T) {
	r := scoring.Default().Score(harshWeather(), model.UserProfile{}, nil)

	for _, f := range r.KeyFactors {
		if f.Category == model.CategoryPhysiological || f.Category == model.CategoryBehavioral {
			t.Errorf("factor %q has category %s with no logs", f.Name, f.Category)
		}
	}
	if r.Prediction.Next7Days != r.RiskScore {
		t.Errorf("next7 = %d, want current score %d with no logs", r.Prediction.Next7Days, r.RiskScore)
	}
}

func TestScore_CalmDayGivesMaintenanceTip(t *testing.T) {
	r := scoring.Default().Score(calmWeather(), model.UserProfile{}, nil)

	if r.RiskScore != 0 {
		t.Errorf("score = %d, want 0", r.RiskScore)
	}
	if len(r.KeyFactors) != 0 {
		t.Errorf("factors = %+v, want none", r.KeyFactors)
	}
	if len(r.Recommendations) != 1 || r.Recommendations[0].Priority != model.PriorityLow {
		t.Errorf("recommendations = %+v, want one low-priority tip", r.Recommendations)
	}
}

func TestScore_HumidityIsMonotonic(t *testing.T) {
	s := scoring.Default()
	prev := -1
	for h := 50.0; h <= 90; h += 5 {
		w := calmWeather()
		w.Humidity = h
		got := s.Score(w, model.UserProfile{}, nil).RiskScore
		if got < prev {
			t.Fatalf("humidity %.0f: score %d dropped below %d", h, got, prev)
		}
		prev = got
	}
}

func TestScore_IsIdempotent(t *testing.T) {
	s := scoring.Default()
	profile := model.UserProfile{
		SkinType: model.SkinSensitive,
		Triggers: []string{"heat", "Pollen", "dust"},
		SeverityHistory: []model.SeverityEntry{
			{Date: captured.AddDate(0, 0, -3).Format(model.DateLayout), Severity: model.SeveritySevere},
		},
	}
	logs := logsWith(6, 4, 2, true)

	a := s.Score(harshWeather(), profile, logs)
	b := s.Score(harshWeather(), profile, logs)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("results differ:\n%+v\n%+v", a, b)
	}
}

func TestScore_RangesHoldForExtremeInputs(t *testing.T) {
	s := scoring.Default()
	weathers := []model.WeatherSnapshot{
		{Temperature: math.NaN(), Humidity: math.NaN(), UVIndex: math.NaN()},
		{Temperature: 300, Humidity: 400, UVIndex: 99, AirQualityIndex: 9000, Pollen: model.Pollen{Overall: 50}},
		{Temperature: -200, Humidity: -10, UVIndex: -3, AirQualityIndex: -1, Pollen: model.Pollen{Overall: -4}},
	}
	profile := model.UserProfile{
		SkinType: model.SkinSensitive,
		Triggers: []string{"humidity", "heat", "sun", "smog", "pollen", "sweat", "cold", "dry skin"},
	}
	logs := logsWith(10, 99, 99, true)

	for i, w := range weathers {
		r := s.Score(w, profile, logs)
		if r.RiskScore < 0 || r.RiskScore > 100 {
			t.Errorf("case %d: score %d out of range", i, r.RiskScore)
		}
		if r.RiskLevel != scoring.LevelForScore(r.RiskScore) {
			t.Errorf("case %d: level %s does not match score %d", i, r.RiskLevel, r.RiskScore)
		}
		for _, f := range r.KeyFactors {
			if f.Impact < 0 || f.Impact > 100 {
				t.Errorf("case %d: factor %q impact %d out of range", i, f.Name, f.Impact)
			}
		}
		p := r.Prediction
		if p.Next24h < 0 || p.Next24h > 100 || p.Next7Days < 0 || p.Next7Days > 100 {
			t.Errorf("case %d: prediction out of range: %+v", i, p)
		}
	}
}

func TestScore_NegativeHumidityClampsToDryAir(t *testing.T) {
	s := scoring.Default()
	score := func(h float64) model.RiskAssessmentResult {
		w := calmWeather()
		w.Humidity = h
		return s.Score(w, model.UserProfile{}, nil)
	}
	factorNames := func(r model.RiskAssessmentResult) []string {
		var names []string
		for _, f := range r.KeyFactors {
			names = append(names, f.Name)
		}
		return names
	}

	negative, dry := score(-5), score(1)
	if !reflect.DeepEqual(factorNames(negative), factorNames(dry)) {
		t.Fatalf("factors differ: %v vs %v", factorNames(negative), factorNames(dry))
	}
	if len(negative.KeyFactors) == 0 || negative.KeyFactors[0].Name != "Low humidity" {
		t.Fatalf("expected a low humidity factor, got %v", factorNames(negative))
	}
	if negative.RiskScore < dry.RiskScore {
		t.Errorf("score fell as humidity dropped: -5%% gives %d, 1%% gives %d", negative.RiskScore, dry.RiskScore)
	}

	// An exact zero is an unreported reading and scores as neutral.
	if missing := score(0); len(missing.KeyFactors) != 0 {
		t.Errorf("unreported humidity produced factors: %v", factorNames(missing))
	}
}

func TestScore_TriggerBonusIsCapped(t *testing.T) {
	w := scoring.DefaultWeights()
	s := scoring.NewScorer(w)
	profile := model.UserProfile{Triggers: []string{"humidity", "heat", "sun", "smog", "pollen"}}

	r := s.Score(harshWeather(), profile, nil)

	triggers := 0
	for _, f := range r.KeyFactors {
		if strings.HasPrefix(f.Name, "Trigger: ") {
			triggers++
		}
	}
	// 8 + 8 + 4 reaches the cap of 20.
	if triggers != 3 {
		t.Errorf("trigger factors = %d, want 3", triggers)
	}
}

func TestScore_DuplicateTriggerCountsOnce(t *testing.T) {
	s := scoring.Default()
	one := s.Score(harshWeather(), model.UserProfile{Triggers: []string{"heat"}}, nil)
	dup := s.Score(harshWeather(), model.UserProfile{Triggers: []string{"heat", "Heat", " HEAT "}}, nil)
	if one.RiskScore != dup.RiskScore {
		t.Errorf("duplicate triggers changed score: %d vs %d", one.RiskScore, dup.RiskScore)
	}
}

func TestScore_TriggerWithoutActiveConditionIgnored(t *testing.T) {
	r := scoring.Default().Score(calmWeather(), model.UserProfile{Triggers: []string{"heat"}}, nil)
	if r.RiskScore != 0 {
		t.Errorf("score = %d, want 0", r.RiskScore)
	}
}

func TestScore_SensitiveSkinNeedsActiveEnvironment(t *testing.T) {
	s := scoring.Default()
	profile := model.UserProfile{SkinType: model.SkinSensitive}

	if r := s.Score(calmWeather(), profile, nil); hasFactor(r, "Sensitive skin") {
		t.Error("sensitive skin factor on a calm day")
	}
	if r := s.Score(harshWeather(), profile, nil); !hasFactor(r, "Sensitive skin") {
		t.Error("sensitive skin factor missing on a harsh day")
	}
}

func TestScore_RecentSevereFlare(t *testing.T) {
	s := scoring.Default()
	recent := model.UserProfile{SeverityHistory: []model.SeverityEntry{
		{Date: captured.AddDate(0, 0, -5).Format(model.DateLayout), Severity: model.SeveritySevere},
	}}
	old := model.UserProfile{SeverityHistory: []model.SeverityEntry{
		{Date: captured.AddDate(0, 0, -90).Format(model.DateLayout), Severity: model.SeveritySevere},
	}}

	if r := s.Score(calmWeather(), recent, nil); !hasFactor(r, "Recent severe flare") {
		t.Error("missing recent severe factor")
	}
	if r := s.Score(calmWeather(), old, nil); hasFactor(r, "Recent severe flare") {
		t.Error("old flare counted as recent")
	}

	w := calmWeather()
	w.CapturedAt = time.Time{}
	if r := s.Score(w, recent, nil); hasFactor(r, "Recent severe flare") {
		t.Error("severe factor applied without a capture time")
	}
}

func TestScore_SymptomFactors(t *testing.T) {
	s := scoring.Default()

	r := s.Score(calmWeather(), model.UserProfile{}, logsWith(5, 5, 3, true))
	for _, name := range []string{"Elevated symptoms", "Frequent medication use"} {
		if !hasFactor(r, name) {
			t.Errorf("missing factor %q", name)
		}
	}

	// Newest logs first in the slice; dates decide ordering.
	rising := []model.SymptomLog{
		{Date: "2026-07-14", ItchScore: 4, RednessScore: 2},
		{Date: "2026-07-13", ItchScore: 4, RednessScore: 2},
		{Date: "2026-07-12", ItchScore: 1, RednessScore: 0},
		{Date: "2026-07-11", ItchScore: 1, RednessScore: 0},
	}
	if r := s.Score(calmWeather(), model.UserProfile{}, rising); !hasFactor(r, "Worsening symptoms") {
		t.Errorf("missing worsening factor: %+v", r.KeyFactors)
	}
}

func TestScore_FactorsSortedByImpactAndRecommendationsByPriority(t *testing.T) {
	profile := model.UserProfile{SkinType: model.SkinSensitive, Triggers: []string{"sweat"}}
	r := scoring.Default().Score(harshWeather(), profile, logsWith(5, 5, 3, true))

	for i := 1; i < len(r.KeyFactors); i++ {
		if r.KeyFactors[i].Impact > r.KeyFactors[i-1].Impact {
			t.Fatalf("factors not sorted by impact: %+v", r.KeyFactors)
		}
	}
	for i := 1; i < len(r.Recommendations); i++ {
		if r.Recommendations[i].Priority.Rank() < r.Recommendations[i-1].Priority.Rank() {
			t.Fatalf("recommendations not sorted by priority: %+v", r.Recommendations)
		}
	}
}

func TestScore_ForecastDrivesNext24h(t *testing.T) {
	s := scoring.Default()
	w := harshWeather()
	w.Forecast = &model.ForecastSnapshot{Temperature: 20, Humidity: 50, UVIndex: 2, AirQualityIndex: 20}

	r := s.Score(w, model.UserProfile{}, nil)
	if r.Prediction.Next24h >= r.RiskScore {
		t.Errorf("next24h = %d, want below current %d for a calm forecast", r.Prediction.Next24h, r.RiskScore)
	}
}

func TestScore_TrajectoryFollowsHistory(t *testing.T) {
	s := scoring.Default()

	worse := s.Score(calmWeather(), model.UserProfile{}, logsWith(7, 5, 3, false))
	if worse.Prediction.Trajectory != model.TrajectoryWorsening {
		t.Errorf("trajectory = %s, want worsening", worse.Prediction.Trajectory)
	}

	better := s.Score(harshWeather(), model.UserProfile{}, logsWith(7, 0, 0, false))
	if better.Prediction.Trajectory != model.TrajectoryImproving {
		t.Errorf("trajectory = %s, want improving", better.Prediction.Trajectory)
	}
}

// ─── Weights ──────────────────────────────────────────────────────────────────

func TestDefaultWeights_Valid(t *testing.T) {
	if err := scoring.DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights invalid: %v", err)
	}
}

func TestWeights_ValidateRejectsBadValues(t *testing.T) {
	w := scoring.DefaultWeights()
	w.Smoothing = 2
	w.ImpactScale = 0
	w.HumidityLow.Threshold = 90

	err := w.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"smoothing", "impact_scale", "humidity_low"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadWeights_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	yaml := "humidity_high:\n  threshold: 60\n  base: 12\n  per_unit: 1\n  max: 25\ntrigger_bonus: 10\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	w, err := scoring.LoadWeights(path)
	if err != nil {
		t.Fatalf("LoadWeights: %v", err)
	}
	if w.HumidityHigh.Threshold != 60 || w.HumidityHigh.Max != 25 {
		t.Errorf("humidity_high = %+v", w.HumidityHigh)
	}
	if w.TriggerBonus != 10 {
		t.Errorf("trigger_bonus = %v, want 10", w.TriggerBonus)
	}
	if w.Heat != scoring.DefaultWeights().Heat {
		t.Errorf("heat changed: %+v", w.Heat)
	}
}

func TestLoadWeights_EmptyPathReturnsDefaults(t *testing.T) {
	w, err := scoring.LoadWeights("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(w, scoring.DefaultWeights()) {
		t.Error("empty path did not return defaults")
	}
}

func TestLoadWeights_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	if err := os.WriteFile(path, []byte("smoothing: 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := scoring.LoadWeights(path); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := scoring.LoadWeights(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}
