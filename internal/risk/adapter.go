package risk

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/routing"
)

// AdapterConfig holds configuration for the risk adapter.
type AdapterConfig struct {
	// Classifier is the external risk classification provider.
	Classifier Classifier

	// Logger for adapter operations.
	Logger zerolog.Logger

	// Timeout bounds each classifier call; once it elapses the fallback
	// assessment applies (default: 5 seconds).
	Timeout time.Duration
}

// Adapter isolates route scoring from classifier failure modes. Assess
// never returns an error: a failed, slow, or unparseable classification
// degrades to the neutral fallback assessment instead.
type Adapter struct {
	classifier Classifier
	logger     zerolog.Logger
	timeout    time.Duration
}

// NewAdapter creates a new risk adapter.
func NewAdapter(cfg AdapterConfig) *Adapter {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &Adapter{
		classifier: cfg.Classifier,
		logger:     cfg.Logger,
		timeout:    timeout,
	}
}

// Assess classifies the risk of one route candidate. One candidate's
// classification failure must never fail a ranking pass, so every error
// path converges on FallbackAssessment.
func (a *Adapter) Assess(ctx context.Context, route routing.Route) *Assessment {
	if a.classifier == nil {
		return FallbackAssessment()
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	assessment, err := a.classifier.Classify(ctx, route)
	if err != nil {
		a.logger.Warn().Err(err).
			Str("route_id", route.ID).
			Str("classifier", a.classifier.Name()).
			Msg("risk classification degraded to fallback")
		return FallbackAssessment()
	}
	if assessment == nil {
		return FallbackAssessment()
	}

	a.logger.Debug().
		Str("route_id", route.ID).
		Str("level", string(assessment.Level)).
		Str("provenance", assessment.Provenance).
		Msg("risk classification received")

	return assessment
}
