// Package risk normalizes external area-risk classifications into the
// bounded crime/risk sub-score used by route safety scoring. It is the
// single place where classifier semantics enter the numeric model.
package risk

import (
	"context"
	"errors"
	"strings"

	"github.com/DNA-Coded/RakshaMarg/internal/routing"
)

// Classifier errors.
var (
	// ErrClassifierUnavailable indicates the risk classifier is down or
	// the circuit breaker is open. Always absorbed by the Adapter.
	ErrClassifierUnavailable = errors.New("risk classifier unavailable")
	// ErrUnparseableAssessment indicates the classifier replied with a
	// shape that could not be interpreted as a risk level.
	ErrUnparseableAssessment = errors.New("unparseable risk assessment")
)

// Level is a categorical area-risk classification.
type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelUnknown  Level = "unknown"
)

// ProvenanceFallback tags assessments produced locally because the
// external classifier failed or was unavailable.
const ProvenanceFallback = "fallback"

// Assessment is one classifier verdict for one route candidate.
// Created per candidate per ranking pass; never mutated.
type Assessment struct {
	// Level is the categorical risk level.
	Level Level

	// Rationale is the classifier's free-text explanation, if any.
	Rationale string

	// Provenance identifies the provider/model that produced the
	// assessment, or ProvenanceFallback.
	Provenance string
}

// Classifier defines the interface for external risk classification providers.
type Classifier interface {
	// Classify assesses the area risk of a route candidate.
	Classify(ctx context.Context, route routing.Route) (*Assessment, error)
	// Name returns the provider identifier for logging and provenance.
	Name() string
}

// ParseLevel maps a classifier's textual risk level onto the four levels
// the scoring model understands. Unrecognized input maps to LevelUnknown;
// any future provider must be adapted through this function.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return LevelLow
	case "moderate", "medium":
		return LevelModerate
	case "high":
		return LevelHigh
	default:
		return LevelUnknown
	}
}

// Crime/risk sub-score bounds and level mapping.
const (
	// MaxLevelScore is the ceiling of the crime/risk sub-score.
	MaxLevelScore = 30

	scoreLow      = 28
	scoreModerate = 17
	scoreHigh     = 5
	scoreUnknown  = 15 // neutral midpoint, also the failure fallback
)

// LevelScore maps a categorical risk level to the crime/risk sub-score.
// Pure and total over the four levels: the same input always yields the
// same output and unrecognized levels score as unknown.
func LevelScore(level Level) int {
	switch level {
	case LevelLow:
		return scoreLow
	case LevelModerate:
		return scoreModerate
	case LevelHigh:
		return scoreHigh
	default:
		return scoreUnknown
	}
}

// FallbackAssessment returns the assessment applied when the external
// classifier fails: level unknown at the neutral midpoint score.
func FallbackAssessment() *Assessment {
	return &Assessment{
		Level:      LevelUnknown,
		Provenance: ProvenanceFallback,
	}
}
