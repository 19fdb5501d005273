// Package scoring implements the deterministic risk scorer. It is
// intentionally pure: it performs no I/O once weights are loaded and imports
// nothing from internal/ besides model, so it can be tested without a
// database or network.
package scoring

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Band describes one graduated threshold crossing. A value past Threshold
// contributes Base points plus PerUnit points for every unit of distance past
// it, never more than Max.
//
// YAML shape:
//
//	threshold: 70
//	base: 10
//	per_unit: 0.5
//	max: 20
type Band struct {
	Threshold float64 `yaml:"threshold"`
	Base      float64 `yaml:"base"`
	PerUnit   float64 `yaml:"per_unit"`
	Max       float64 `yaml:"max"`
}

// points returns the contribution for a crossing of the given distance.
// A distance <= 0 means the threshold was not crossed.
func (b Band) points(distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	p := b.Base + b.PerUnit*distance
	if p > b.Max {
		return b.Max
	}
	return p
}

func (b Band) validate(name string) error {
	if b.Base < 0 || b.PerUnit < 0 {
		return fmt.Errorf("weights: %s: base and per_unit must be >= 0", name)
	}
	if b.Max < b.Base {
		return fmt.Errorf("weights: %s: max %.2f < base %.2f", name, b.Max, b.Base)
	}
	return nil
}

// Weights is the tunable scoring policy. Every point value the scorer uses
// lives here; DefaultWeights returns the shipped policy.
type Weights struct {
	HumidityHigh Band `yaml:"humidity_high"` // threshold in %, crossing is above
	HumidityLow  Band `yaml:"humidity_low"`  // threshold in %, crossing is below
	Heat         Band `yaml:"heat"`          // °C, above
	Cold         Band `yaml:"cold"`          // °C, below
	UV           Band `yaml:"uv"`
	AirQuality   Band `yaml:"air_quality"`
	Pollen       Band `yaml:"pollen"` // overall index, 0–10

	// TriggerBonus is added once per declared trigger that matches an active
	// condition. The sum of trigger bonuses never exceeds TriggerCap.
	TriggerBonus float64 `yaml:"trigger_bonus"`
	TriggerCap   float64 `yaml:"trigger_cap"`

	// SensitiveSkinBonus applies when the profile declares sensitive skin and
	// at least one environmental factor is active.
	SensitiveSkinBonus float64 `yaml:"sensitive_skin_bonus"`

	// RecentSevereBonus applies when the severity history holds a severe
	// entry within RecentSevereDays of the weather capture date.
	RecentSevereBonus float64 `yaml:"recent_severe_bonus"`
	RecentSevereDays  int     `yaml:"recent_severe_days"`

	// SymptomMean is applied to the mean of itch+redness across recent logs.
	SymptomMean Band `yaml:"symptom_mean"`

	// RisingDelta is how much the newer half of the logs must exceed the
	// older half (in mean itch+redness) to count as rising.
	RisingDelta     float64 `yaml:"rising_delta"`
	RisingBonus     float64 `yaml:"rising_bonus"`
	MinLogsForTrend int     `yaml:"min_logs_for_trend"`

	// MedicationRate is the share of logs with medication (0–1) at which the
	// behavioural factor applies.
	MedicationRate       float64 `yaml:"medication_rate"`
	MedicationBonus      float64 `yaml:"medication_bonus"`
	MinLogsForMedication int     `yaml:"min_logs_for_medication"`

	// ImpactScale is the point value that maps to a KeyFactor impact of 100.
	ImpactScale float64 `yaml:"impact_scale"`

	// Smoothing pulls the 7-day prediction toward the symptom-history score:
	// 0 keeps the current score, 1 uses the history score outright.
	Smoothing         float64 `yaml:"smoothing"`
	TrajectoryEpsilon float64 `yaml:"trajectory_epsilon"`
}

// DefaultWeights returns the shipped scoring policy.
func DefaultWeights() Weights {
	return Weights{
		HumidityHigh: Band{Threshold: 70, Base: 10, PerUnit: 0.5, Max: 20},
		HumidityLow:  Band{Threshold: 30, Base: 10, PerUnit: 0.5, Max: 20},
		Heat:         Band{Threshold: 30, Base: 10, PerUnit: 1, Max: 20},
		Cold:         Band{Threshold: 5, Base: 8, PerUnit: 1, Max: 18},
		UV:           Band{Threshold: 7, Base: 10, PerUnit: 2, Max: 20},
		AirQuality:   Band{Threshold: 100, Base: 10, PerUnit: 0.1, Max: 20},
		Pollen:       Band{Threshold: 6, Base: 10, PerUnit: 2, Max: 20},

		TriggerBonus: 8,
		TriggerCap:   20,

		SensitiveSkinBonus: 5,
		RecentSevereBonus:  6,
		RecentSevereDays:   30,

		SymptomMean:     Band{Threshold: 4, Base: 10, PerUnit: 2.5, Max: 20},
		RisingDelta:     1,
		RisingBonus:     8,
		MinLogsForTrend: 4,

		MedicationRate:       0.5,
		MedicationBonus:      8,
		MinLogsForMedication: 3,

		ImpactScale:       25,
		Smoothing:         0.5,
		TrajectoryEpsilon: 5,
	}
}

// Validate checks internal consistency. Call it once after loading, not on
// every request.
func (w Weights) Validate() error {
	var errs []error

	bands := []struct {
		name string
		b    Band
	}{
		{"humidity_high", w.HumidityHigh},
		{"humidity_low", w.HumidityLow},
		{"heat", w.Heat},
		{"cold", w.Cold},
		{"uv", w.UV},
		{"air_quality", w.AirQuality},
		{"pollen", w.Pollen},
		{"symptom_mean", w.SymptomMean},
	}
	for _, nb := range bands {
		if err := nb.b.validate(nb.name); err != nil {
			errs = append(errs, err)
		}
	}

	if w.HumidityLow.Threshold >= w.HumidityHigh.Threshold {
		errs = append(errs, fmt.Errorf("weights: humidity_low threshold %.1f must be below humidity_high threshold %.1f",
			w.HumidityLow.Threshold, w.HumidityHigh.Threshold))
	}
	if w.HumidityHigh.Threshold > 100 || w.HumidityLow.Threshold < 0 {
		errs = append(errs, errors.New("weights: humidity thresholds must lie within [0,100]"))
	}
	if w.Cold.Threshold >= w.Heat.Threshold {
		errs = append(errs, fmt.Errorf("weights: cold threshold %.1f must be below heat threshold %.1f",
			w.Cold.Threshold, w.Heat.Threshold))
	}
	if w.TriggerBonus < 0 || w.TriggerCap < 0 {
		errs = append(errs, errors.New("weights: trigger_bonus and trigger_cap must be >= 0"))
	}
	if w.SensitiveSkinBonus < 0 || w.RecentSevereBonus < 0 || w.RisingBonus < 0 || w.MedicationBonus < 0 {
		errs = append(errs, errors.New("weights: bonuses must be >= 0"))
	}
	if w.RecentSevereDays < 0 {
		errs = append(errs, errors.New("weights: recent_severe_days must be >= 0"))
	}
	if w.MedicationRate < 0 || w.MedicationRate > 1 {
		errs = append(errs, fmt.Errorf("weights: medication_rate %.2f out of range [0,1]", w.MedicationRate))
	}
	if w.MinLogsForTrend < 2 {
		errs = append(errs, errors.New("weights: min_logs_for_trend must be >= 2"))
	}
	if w.ImpactScale <= 0 {
		errs = append(errs, errors.New("weights: impact_scale must be > 0"))
	}
	if w.Smoothing < 0 || w.Smoothing > 1 {
		errs = append(errs, fmt.Errorf("weights: smoothing %.2f out of range [0,1]", w.Smoothing))
	}
	if w.TrajectoryEpsilon < 0 {
		errs = append(errs, errors.New("weights: trajectory_epsilon must be >= 0"))
	}

	return errors.Join(errs...)
}

// LoadWeights reads a YAML override on top of DefaultWeights. Fields absent
// from the file keep their default values. An empty path returns the
// defaults.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	if path == "" {
		return w, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, fmt.Errorf("weights: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("weights: parse %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}
