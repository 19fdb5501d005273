package trends_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nyashahama/flareguard-backend/internal/model"
	"github.com/nyashahama/flareguard-backend/internal/trends"
)

var today = time.Date(2026, 7, 14, 15, 30, 0, 0, time.UTC)

func fixedAnalyzer() *trends.Analyzer {
	return trends.NewWithClock(func() time.Time { return today })
}

func daysAgo(n int) string {
	return today.AddDate(0, 0, -n).Format(model.DateLayout)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	r := fixedAnalyzer().Analyze(nil, 0)

	require.Equal(t, trends.DefaultWindowDays, r.WindowDays)
	require.NotNil(t, r.Weekly)
	require.Empty(t, r.Weekly)
	require.Equal(t, model.TrendOverview{}, r.Overview)
	require.Equal(t, model.Correlations{}, r.Correlations)
	require.Empty(t, r.Strongest)
}

func TestAnalyze_WeeklyBucketsWithGap(t *testing.T) {
	// 13 days back from today with ages 4–6 missing: 10 logs.
	var logs []model.SymptomLog
	for age := 0; age <= 12; age++ {
		if age >= 4 && age <= 6 {
			continue
		}
		logs = append(logs, model.SymptomLog{Date: daysAgo(age), ItchScore: 2, RednessScore: 1})
	}
	require.Len(t, logs, 10)

	r := fixedAnalyzer().Analyze(logs, 28)

	require.Len(t, r.Weekly, 2)
	older, newer := r.Weekly[0], r.Weekly[1]
	require.Equal(t, 6, older.LogCount)
	require.Equal(t, 4, newer.LogCount)
	require.Equal(t, daysAgo(13), older.StartDate)
	require.Equal(t, daysAgo(7), older.EndDate)
	require.Equal(t, daysAgo(6), newer.StartDate)
	require.Equal(t, daysAgo(0), newer.EndDate)
	require.True(t, older.StartDate < newer.StartDate)
	require.InDelta(t, 2.0, newer.AverageItch, 1e-9)
	require.InDelta(t, 1.0, newer.AverageRedness, 1e-9)

	require.Equal(t, 10, r.Overview.TotalDays)
}

func TestAnalyze_IgnoresFutureAndOutOfWindowLogs(t *testing.T) {
	logs := []model.SymptomLog{
		{Date: daysAgo(-2), ItchScore: 5},
		{Date: daysAgo(40), ItchScore: 5},
		{Date: "not-a-date", ItchScore: 5},
		{Date: daysAgo(1), ItchScore: 1},
	}

	r := fixedAnalyzer().Analyze(logs, 28)

	require.Len(t, r.Weekly, 1)
	require.Equal(t, 1, r.Overview.TotalDays)
	require.InDelta(t, 1.0, r.Overview.AverageItch, 1e-9)
}

func TestAnalyze_ShortWindow(t *testing.T) {
	logs := []model.SymptomLog{
		{Date: daysAgo(0), ItchScore: 1},
		{Date: daysAgo(3), ItchScore: 1},
		{Date: daysAgo(10), ItchScore: 1},
	}

	r := fixedAnalyzer().Analyze(logs, 7)

	require.Equal(t, 7, r.WindowDays)
	require.Equal(t, 2, r.Overview.TotalDays)
	require.Len(t, r.Weekly, 1)
}

func TestAnalyze_Correlations(t *testing.T) {
	hot := model.WeatherSnapshot{Temperature: 30, Humidity: 50}
	humid := model.WeatherSnapshot{Temperature: 20, Humidity: 85}
	logs := []model.SymptomLog{
		{Date: daysAgo(0), ItchScore: 4, RednessScore: 2, Weather: hot},   // high
		{Date: daysAgo(1), ItchScore: 4, RednessScore: 1, Weather: hot},   // high
		{Date: daysAgo(2), ItchScore: 1, RednessScore: 0, Weather: hot},   // low
		{Date: daysAgo(3), ItchScore: 1, RednessScore: 1, Weather: humid}, // low
		{Date: daysAgo(4), ItchScore: 0, RednessScore: 0, Weather: model.WeatherSnapshot{Temperature: 25, UVIndex: 6}},
	}

	r := fixedAnalyzer().Analyze(logs, 28)

	require.Equal(t, 3, r.ExposedDays.Temperature, "25 is not above the threshold")
	require.Equal(t, 67, r.Correlations.Temperature)
	require.Equal(t, 1, r.ExposedDays.Humidity)
	require.Equal(t, 0, r.Correlations.Humidity)
	require.Equal(t, 0, r.ExposedDays.UV)
	require.Equal(t, 0, r.Correlations.UV, "no exposed days must give 0")
	require.Equal(t, 0, r.Correlations.Pollen)
	require.Equal(t, "temperature", r.Strongest)
}

func TestAnalyze_OverviewMedicationRate(t *testing.T) {
	logs := []model.SymptomLog{
		{Date: daysAgo(0), MedicationUsed: true},
		{Date: daysAgo(1), MedicationUsed: true},
		{Date: daysAgo(2)},
	}

	r := fixedAnalyzer().Analyze(logs, 28)

	require.Equal(t, 67, r.Overview.MedicationUsageRate)
	require.Equal(t, 2, r.Weekly[0].MedicationDays)
}

func TestAnalyze_NeverNaN(t *testing.T) {
	logs := []model.SymptomLog{{Date: daysAgo(0), ItchScore: 99, RednessScore: -4}}

	r := fixedAnalyzer().Analyze(logs, 28)

	for _, v := range []float64{r.Overview.AverageItch, r.Overview.AverageRedness, r.Weekly[0].AverageItch} {
		require.False(t, math.IsNaN(v))
	}
	require.InDelta(t, float64(model.MaxItchScore), r.Overview.AverageItch, 1e-9)
	require.InDelta(t, 0, r.Overview.AverageRedness, 1e-9)
}
