// Package trends explains a user's symptom history against the weather they
// logged it in. It is retrospective and independent of the live assessment.
package trends

import (
	"math"
	"sort"
	"time"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

// DefaultWindowDays is used when Analyze is called with windowDays <= 0.
const DefaultWindowDays = 28

const (
	maxBuckets     = 4
	bucketDays     = 7
	highSymptomMin = 5 // itch+redness at or above this is a high-symptom day
)

// Exposure thresholds. A day is exposed when the logged weather is strictly
// above the threshold.
const (
	temperatureExposure = 25.0
	humidityExposure    = 70.0
	uvExposure          = 6.0
	pollenExposure      = 6.0
)

// Analyzer computes TrendReports. The zero value is not usable; call New.
type Analyzer struct {
	now func() time.Time
}

// New returns an Analyzer using the wall clock.
func New() *Analyzer {
	return &Analyzer{now: time.Now}
}

// NewWithClock returns an Analyzer whose notion of "today" comes from now.
func NewWithClock(now func() time.Time) *Analyzer {
	return &Analyzer{now: now}
}

// Analyze buckets logs into up to four seven-day windows counted back from
// today, computes per-variable weather correlations, and an overview.
//
// Logs dated in the future, older than windowDays, or with malformed dates
// are ignored. Empty input yields a zeroed report with no buckets. Analyze
// never returns NaN.
func (a *Analyzer) Analyze(logs []model.SymptomLog, windowDays int) model.TrendReport {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	today := a.now().UTC().Truncate(24 * time.Hour)
	windowStart := today.AddDate(0, 0, -(windowDays - 1))

	report := model.TrendReport{
		WindowDays: windowDays,
		Weekly:     []model.WeeklyBucket{},
	}

	type bucketAcc struct {
		itch, redness, count, medication int
	}
	var buckets [maxBuckets]bucketAcc

	var (
		itchSum, rednessSum, medicationDays int
		inWindow                            []model.SymptomLog
	)
	days := make(map[string]struct{})

	for _, l := range logs {
		day, ok := l.Day()
		if !ok || day.After(today) || day.Before(windowStart) {
			continue
		}
		inWindow = append(inWindow, l)

		itch := model.ClampInt(l.ItchScore, 0, model.MaxItchScore)
		redness := model.ClampInt(l.RednessScore, 0, model.MaxRednessScore)
		itchSum += itch
		rednessSum += redness
		if l.MedicationUsed {
			medicationDays++
		}
		days[l.Date] = struct{}{}

		age := int(today.Sub(day).Hours() / 24)
		idx := age / bucketDays
		if idx >= maxBuckets {
			continue
		}
		b := &buckets[idx]
		b.itch += itch
		b.redness += redness
		b.count++
		if l.MedicationUsed {
			b.medication++
		}
	}

	if len(inWindow) == 0 {
		return report
	}

	// Oldest bucket first.
	for idx := maxBuckets - 1; idx >= 0; idx-- {
		b := buckets[idx]
		if b.count == 0 {
			continue
		}
		end := today.AddDate(0, 0, -idx*bucketDays)
		start := end.AddDate(0, 0, -(bucketDays - 1))
		report.Weekly = append(report.Weekly, model.WeeklyBucket{
			StartDate:      start.Format(model.DateLayout),
			EndDate:        end.Format(model.DateLayout),
			AverageItch:    round1(float64(b.itch) / float64(b.count)),
			AverageRedness: round1(float64(b.redness) / float64(b.count)),
			LogCount:       b.count,
			MedicationDays: b.medication,
		})
	}

	n := float64(len(inWindow))
	report.Overview = model.TrendOverview{
		AverageItch:         round1(float64(itchSum) / n),
		AverageRedness:      round1(float64(rednessSum) / n),
		TotalDays:           len(days),
		MedicationUsageRate: percent(medicationDays, len(inWindow)),
	}

	report.Correlations, report.ExposedDays = correlate(inWindow)
	report.Strongest = strongest(report.Correlations)
	return report
}

// correlate computes, per weather variable, the share of exposed days that
// were high-symptom days.
func correlate(logs []model.SymptomLog) (model.Correlations, model.ExposedDays) {
	type tally struct{ exposed, high int }
	var temp, hum, uv, pollen tally

	count := func(t *tally, exposed, high bool) {
		if !exposed {
			return
		}
		t.exposed++
		if high {
			t.high++
		}
	}

	for _, l := range logs {
		high := l.Total() >= highSymptomMin
		w := l.Weather
		count(&temp, w.Temperature > temperatureExposure, high)
		count(&hum, w.Humidity > humidityExposure, high)
		count(&uv, w.UVIndex > uvExposure, high)
		count(&pollen, w.Pollen.Overall > pollenExposure, high)
	}

	return model.Correlations{
			Temperature: percent(temp.high, temp.exposed),
			Humidity:    percent(hum.high, hum.exposed),
			UV:          percent(uv.high, uv.exposed),
			Pollen:      percent(pollen.high, pollen.exposed),
		}, model.ExposedDays{
			Temperature: temp.exposed,
			Humidity:    hum.exposed,
			UV:          uv.exposed,
			Pollen:      pollen.exposed,
		}
}

// strongest returns the variable with the highest non-zero correlation.
// Ties resolve in the fixed order temperature, humidity, uv, pollen.
func strongest(c model.Correlations) string {
	candidates := []struct {
		name  string
		value int
	}{
		{"temperature", c.Temperature},
		{"humidity", c.Humidity},
		{"uv", c.UV},
		{"pollen", c.Pollen},
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].value > candidates[j].value })
	if candidates[0].value == 0 {
		return ""
	}
	return candidates[0].name
}

// percent returns part/whole×100 rounded, or 0 when whole is 0.
func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
