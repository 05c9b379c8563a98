package safety

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/risk"
	"github.com/DNA-Coded/RakshaMarg/internal/routing"
)

// RouteSource supplies candidate routes for an origin/destination pair.
// *routing.Service satisfies this.
type RouteSource interface {
	GetRoutes(ctx context.Context, req routing.RoutesRequest) (*routing.RoutesResponse, error)
	ProviderName() string
}

// Assessor supplies a risk assessment per candidate. *risk.Adapter
// satisfies this; Assess never fails, it degrades to the fallback.
type Assessor interface {
	Assess(ctx context.Context, route routing.Route) *risk.Assessment
}

// RankedRoute pairs one candidate with its safety score.
type RankedRoute struct {
	Route     routing.Route
	Score     Score
	RiskLabel string
}

// RankedRouteSet is the scored, ordered result of one ranking pass.
// Ordered descending by score, ties broken by shorter duration. A new
// set replaces the old one on every pass; it is never mutated in place.
type RankedRouteSet struct {
	Routes      []RankedRoute
	Origin      string
	Destination string
	Provider    string
	GeneratedAt time.Time
}

// Recommended returns the safest route, the head of the ordered set.
func (s *RankedRouteSet) Recommended() *RankedRoute {
	if s == nil || len(s.Routes) == 0 {
		return nil
	}
	return &s.Routes[0]
}

// RankerConfig holds configuration for the route ranker.
type RankerConfig struct {
	// Routes is the candidate route source.
	Routes RouteSource

	// Risk supplies per-candidate risk assessments.
	Risk Assessor

	// Scorer aggregates sub-scores. Defaults to NewScorer with
	// placeholder factors.
	Scorer *Scorer

	// Logger for ranking operations.
	Logger zerolog.Logger
}

// Ranker orchestrates one ranking pass: fetch candidates, score them
// concurrently, and order the result. Stateless and safe to invoke
// repeatedly; both the initial route check and deviation re-routes use it.
type Ranker struct {
	routes RouteSource
	risk   Assessor
	scorer *Scorer
	logger zerolog.Logger
}

// NewRanker creates a new route ranker.
func NewRanker(cfg RankerConfig) *Ranker {
	scorer := cfg.Scorer
	if scorer == nil {
		scorer = NewScorer(ScorerConfig{})
	}

	return &Ranker{
		routes: cfg.Routes,
		risk:   cfg.Risk,
		scorer: scorer,
		logger: cfg.Logger,
	}
}

// Rank fetches and scores all candidate routes between origin and
// destination. Mapping-provider failures surface to the caller
// (ErrUpstreamUnavailable, ErrNoRouteFound); risk-classifier failures
// never do. Every fetched candidate appears in the result: a candidate
// whose risk lookup failed is scored with the fallback assessment rather
// than dropped.
func (r *Ranker) Rank(ctx context.Context, origin, destination string) (*RankedRouteSet, error) {
	resp, err := r.routes.GetRoutes(ctx, routing.RoutesRequest{
		Origin:      origin,
		Destination: destination,
	})
	if err != nil {
		return nil, err
	}

	sig := Signals{Now: time.Now()}
	ranked := make([]RankedRoute, len(resp.Routes))

	// Score candidates concurrently and independently. Each result lands
	// in its own slot, so completion order never affects the outcome.
	var wg sync.WaitGroup
	for i, route := range resp.Routes {
		wg.Add(1)
		go func(i int, route routing.Route) {
			defer wg.Done()
			assessment := r.risk.Assess(ctx, route)
			score := r.scorer.Score(route, assessment, sig)
			ranked[i] = RankedRoute{
				Route:     route,
				Score:     score,
				RiskLabel: RiskLabel(score.Value),
			}
		}(i, route)
	}
	wg.Wait()

	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].Score.Value != ranked[b].Score.Value {
			return ranked[a].Score.Value > ranked[b].Score.Value
		}
		return ranked[a].Route.DurationSeconds < ranked[b].Route.DurationSeconds
	})

	set := &RankedRouteSet{
		Routes:      ranked,
		Origin:      origin,
		Destination: destination,
		Provider:    resp.Provider,
		GeneratedAt: time.Now(),
	}

	evt := r.logger.Info().
		Str("origin", origin).
		Str("destination", destination).
		Int("candidate_count", len(ranked))
	if top := set.Recommended(); top != nil {
		evt = evt.Int("top_score", top.Score.Value)
	}
	evt.Msg("ranked route candidates")

	return set, nil
}
