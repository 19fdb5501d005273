package model

// WeeklyBucket aggregates the check-ins of one seven-day window.
type WeeklyBucket struct {
	StartDate      string  `json:"start_date"` // YYYY-MM-DD, inclusive
	EndDate        string  `json:"end_date"`   // YYYY-MM-DD, inclusive
	AverageItch    float64 `json:"average_itch"`
	AverageRedness float64 `json:"average_redness"`
	LogCount       int     `json:"log_count"`
	MedicationDays int     `json:"medication_days"`
}

// TrendOverview summarises every check-in inside the analysis window.
type TrendOverview struct {
	AverageItch         float64 `json:"average_itch"`
	AverageRedness      float64 `json:"average_redness"`
	TotalDays           int     `json:"total_days"`
	MedicationUsageRate int     `json:"medication_usage_rate"` // percent
}

// Correlations holds the share of exposed days that were high-symptom days,
// per weather variable, as whole percentages.
type Correlations struct {
	Temperature int `json:"temperature"`
	Humidity    int `json:"humidity"`
	UV          int `json:"uv"`
	Pollen      int `json:"pollen"`
}

// ExposedDays counts, per weather variable, the days above its threshold.
type ExposedDays struct {
	Temperature int `json:"temperature"`
	Humidity    int `json:"humidity"`
	UV          int `json:"uv"`
	Pollen      int `json:"pollen"`
}

// TrendReport is the Trend/Correlation Analyzer's output.
type TrendReport struct {
	WindowDays   int            `json:"window_days"`
	Overview     TrendOverview  `json:"overview"`
	Weekly       []WeeklyBucket `json:"weekly"`
	Correlations Correlations   `json:"correlations"`
	ExposedDays  ExposedDays    `json:"exposed_days"`
	// Strongest names the variable with the highest non-zero correlation,
	// or is empty when every correlation is zero.
	Strongest string `json:"strongest,omitempty"`
}
