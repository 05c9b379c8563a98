// Package safety turns route candidates plus external risk signals into
// ranked, explainable 0-100 safety scores.
package safety

import (
	"time"

	"github.com/DNA-Coded/RakshaMarg/internal/risk"
	"github.com/DNA-Coded/RakshaMarg/internal/routing"
)

// Sub-score ceilings. The final score is the clamped sum of all factors,
// so the ceilings document how much each factor can contribute.
const (
	MaxCrimeScore         = risk.MaxLevelScore // 30
	MaxLightingScore      = 20
	MaxCrowdScore         = 15
	MaxHelpProximityScore = 15
	MaxTimeOfDayScore     = 15

	// MaxTotalScore is the clamp ceiling of the aggregate score.
	MaxTotalScore = 100
)

// Signals carries the contextual inputs available to heuristic factors.
type Signals struct {
	// Now is the evaluation time, for time-of-day dependent factors.
	Now time.Time
}

// FactorFunc computes one heuristic sub-score for a route candidate.
// Implementations must stay within their documented ceiling; the scorer
// clamps regardless.
type FactorFunc func(route routing.Route, sig Signals) int

// Placeholder heuristic factors. Each is a separate, pluggable function
// so a real signal source (street-light data, footfall, POI density) can
// replace it without touching the aggregation rule. Until then each
// returns its ceiling.

// LightingFactor estimates street lighting along the route.
func LightingFactor(_ routing.Route, _ Signals) int { return MaxLightingScore }

// CrowdFactor estimates crowd presence along the route.
func CrowdFactor(_ routing.Route, _ Signals) int { return MaxCrowdScore }

// HelpProximityFactor estimates proximity to police stations and hospitals.
func HelpProximityFactor(_ routing.Route, _ Signals) int { return MaxHelpProximityScore }

// TimeOfDayFactor adjusts for the time of travel.
func TimeOfDayFactor(_ routing.Route, _ Signals) int { return MaxTimeOfDayScore }

// Breakdown records each factor's contribution for auditability.
type Breakdown struct {
	Crime         int `json:"crime"`
	Lighting      int `json:"lighting"`
	Crowd         int `json:"crowd"`
	HelpProximity int `json:"helpProximity"`
	TimeOfDay     int `json:"timeOfDay"`
}

// Sum returns the unclamped sum of all sub-scores.
func (b Breakdown) Sum() int {
	return b.Crime + b.Lighting + b.Crowd + b.HelpProximity + b.TimeOfDay
}

// Score is the aggregate safety score of one route candidate.
type Score struct {
	// Value is the final score, the breakdown sum clamped to [0, 100].
	Value int `json:"value"`

	// Breakdown lists the contributing sub-scores.
	Breakdown Breakdown `json:"breakdown"`

	// RiskLevel is the categorical level the crime sub-score derives from.
	RiskLevel risk.Level `json:"riskLevel"`

	// RiskRationale is the classifier's explanation, when available.
	RiskRationale string `json:"riskRationale,omitempty"`

	// RiskProvenance identifies what produced the risk signal.
	RiskProvenance string `json:"riskProvenance"`
}

// Risk label bands for the aggregate score.
const (
	RiskLabelLow      = "low"
	RiskLabelModerate = "moderate"
	RiskLabelHigh     = "high"
)

// RiskLabel buckets an aggregate score into the label bands shown to
// travelers: 80 and above is low risk, 50-79 moderate, below 50 high.
func RiskLabel(score int) string {
	switch {
	case score >= 80:
		return RiskLabelLow
	case score >= 50:
		return RiskLabelModerate
	default:
		return RiskLabelHigh
	}
}

// ScorerConfig holds configuration for the scorer. Nil factors default
// to the placeholder constants.
type ScorerConfig struct {
	Lighting      FactorFunc
	Crowd         FactorFunc
	HelpProximity FactorFunc
	TimeOfDay     FactorFunc
}

// Scorer combines the crime/risk sub-score with heuristic factors into
// one safety score per route candidate.
type Scorer struct {
	lighting      FactorFunc
	crowd         FactorFunc
	helpProximity FactorFunc
	timeOfDay     FactorFunc
}

// NewScorer creates a new scorer.
func NewScorer(cfg ScorerConfig) *Scorer {
	lighting := cfg.Lighting
	if lighting == nil {
		lighting = LightingFactor
	}
	crowd := cfg.Crowd
	if crowd == nil {
		crowd = CrowdFactor
	}
	helpProximity := cfg.HelpProximity
	if helpProximity == nil {
		helpProximity = HelpProximityFactor
	}
	timeOfDay := cfg.TimeOfDay
	if timeOfDay == nil {
		timeOfDay = TimeOfDayFactor
	}

	return &Scorer{
		lighting:      lighting,
		crowd:         crowd,
		helpProximity: helpProximity,
		timeOfDay:     timeOfDay,
	}
}

// Score computes the safety score of one route candidate from its risk
// assessment and the heuristic factors. Aggregation is the sum of all
// sub-scores clamped to [0, 100]; no other normalization.
func (s *Scorer) Score(route routing.Route, assessment *risk.Assessment, sig Signals) Score {
	if assessment == nil {
		assessment = risk.FallbackAssessment()
	}

	breakdown := Breakdown{
		Crime:         clamp(risk.LevelScore(assessment.Level), MaxCrimeScore),
		Lighting:      clamp(s.lighting(route, sig), MaxLightingScore),
		Crowd:         clamp(s.crowd(route, sig), MaxCrowdScore),
		HelpProximity: clamp(s.helpProximity(route, sig), MaxHelpProximityScore),
		TimeOfDay:     clamp(s.timeOfDay(route, sig), MaxTimeOfDayScore),
	}

	return Score{
		Value:          clamp(breakdown.Sum(), MaxTotalScore),
		Breakdown:      breakdown,
		RiskLevel:      assessment.Level,
		RiskRationale:  assessment.Rationale,
		RiskProvenance: assessment.Provenance,
	}
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
