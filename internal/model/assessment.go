package model

import "time"

// ─── RISK LEVEL ───────────────────────────────────────────────────────────────

// RiskLevel is the canonical five-level scale. The deterministic scorer only
// produces low, moderate and high; minimal and severe come from the
// generative strategy.
type RiskLevel string

const (
	LevelMinimal  RiskLevel = "minimal"
	LevelLow      RiskLevel = "low"
	LevelModerate RiskLevel = "moderate"
	LevelHigh     RiskLevel = "high"
	LevelSevere   RiskLevel = "severe"
)

var levelRank = map[RiskLevel]int{
	LevelMinimal:  0,
	LevelLow:      1,
	LevelModerate: 2,
	LevelHigh:     3,
	LevelSevere:   4,
}

// Valid reports whether l is one of the five canonical levels.
func (l RiskLevel) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// Rank orders levels from 0 (minimal) to 4 (severe). Unknown levels rank -1.
func (l RiskLevel) Rank() int {
	if r, ok := levelRank[l]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether l is at or above other on the canonical scale.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Valid() && other.Valid() && l.Rank() >= other.Rank()
}

// Cut points for the five-level scale. A score belongs to the highest level
// whose floor it reaches.
const (
	lowFloor      = 20
	moderateFloor = 40
	highFloor     = 60
	severeFloor   = 80
)

// LevelForScore maps a 0–100 score onto the five-level scale:
//
//	0–19 minimal, 20–39 low, 40–59 moderate, 60–79 high, 80–100 severe
//
// Generative results are normalised through this function so their level
// never disagrees with their score.
func LevelForScore(score int) RiskLevel {
	score = ClampInt(score, 0, 100)
	switch {
	case score >= severeFloor:
		return LevelSevere
	case score >= highFloor:
		return LevelHigh
	case score >= moderateFloor:
		return LevelModerate
	case score >= lowFloor:
		return LevelLow
	default:
		return LevelMinimal
	}
}

// ─── FACTORS & RECOMMENDATIONS ────────────────────────────────────────────────

// FactorCategory classifies a KeyFactor.
type FactorCategory string

const (
	CategoryEnvironmental FactorCategory = "environmental"
	CategoryPhysiological FactorCategory = "physiological"
	CategoryBehavioral    FactorCategory = "behavioral"
	CategoryClinical      FactorCategory = "clinical"
)

// Valid reports whether c is a known factor category.
func (c FactorCategory) Valid() bool {
	switch c {
	case CategoryEnvironmental, CategoryPhysiological, CategoryBehavioral, CategoryClinical:
		return true
	}
	return false
}

// KeyFactor is a named contributor to the risk score.
type KeyFactor struct {
	Name        string         `json:"name"`
	Category    FactorCategory `json:"category"`
	Impact      int            `json:"impact"` // 0–100
	Description string         `json:"description"`
}

// Priority of a Recommendation.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var priorityRank = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Rank orders priorities from 0 (critical) to 3 (low).
func (p Priority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank)
}

// RecommendationCategory classifies a Recommendation.
type RecommendationCategory string

const (
	RecImmediate  RecommendationCategory = "immediate"
	RecPreventive RecommendationCategory = "preventive"
	RecLifestyle  RecommendationCategory = "lifestyle"
	RecMedical    RecommendationCategory = "medical"
)

// Valid reports whether c is a known recommendation category.
func (c RecommendationCategory) Valid() bool {
	switch c {
	case RecImmediate, RecPreventive, RecLifestyle, RecMedical:
		return true
	}
	return false
}

// Recommendation is one piece of actionable advice.
type Recommendation struct {
	Priority  Priority               `json:"priority"`
	Category  RecommendationCategory `json:"category"`
	Text      string                 `json:"text"`
	Rationale string                 `json:"rationale"`
}

// Trajectory is the predicted direction of risk.
type Trajectory string

const (
	TrajectoryImproving Trajectory = "improving"
	TrajectoryStable    Trajectory = "stable"
	TrajectoryWorsening Trajectory = "worsening"
)

// Valid reports whether t is a known trajectory.
func (t Trajectory) Valid() bool {
	switch t {
	case TrajectoryImproving, TrajectoryStable, TrajectoryWorsening:
		return true
	}
	return false
}

// Prediction is the short-term outlook.
type Prediction struct {
	Next24h    int        `json:"next_24h"`    // 0–100
	Next7Days  int        `json:"next_7_days"` // 0–100
	Trajectory Trajectory `json:"trajectory"`
}

// ─── RESULT ───────────────────────────────────────────────────────────────────

// Strategy names the computation that produced a result.
type Strategy string

const (
	StrategyGenerative    Strategy = "generative"
	StrategyDeterministic Strategy = "deterministic"
)

// RiskAssessmentResult is the engine's output. Both strategies produce this
// shape; Strategy records which one did.
type RiskAssessmentResult struct {
	RiskScore       int              `json:"risk_score"`
	RiskLevel       RiskLevel        `json:"risk_level"`
	Confidence      float64          `json:"confidence"`
	Reasoning       string           `json:"reasoning"`
	KeyFactors      []KeyFactor      `json:"key_factors"`
	Recommendations []Recommendation `json:"recommendations"`
	Prediction      Prediction       `json:"prediction"`
	Strategy        Strategy         `json:"strategy"`
	AssessedAt      time.Time        `json:"assessed_at"`
}
