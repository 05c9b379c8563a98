// Package handler provides HTTP handlers for the RakshaMarg API.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/DNA-Coded/RakshaMarg/internal/api/models"
	"github.com/DNA-Coded/RakshaMarg/internal/api/response"
	"github.com/DNA-Coded/RakshaMarg/internal/routing"
	"github.com/DNA-Coded/RakshaMarg/internal/safety"
)

// RouteRanker ranks route candidates between two points by safety.
// *safety.Ranker satisfies this.
type RouteRanker interface {
	Rank(ctx context.Context, origin, destination string) (*safety.RankedRouteSet, error)
}

// NavigationHandler handles route-safety check endpoints.
type NavigationHandler struct {
	ranker RouteRanker
}

// NewNavigationHandler creates a new NavigationHandler.
func NewNavigationHandler(ranker RouteRanker) *NavigationHandler {
	return &NavigationHandler{ranker: ranker}
}

// CheckRoute handles GET /v1/navigation/route - rank route candidates
// between origin and destination by safety, safest first.
func (h *NavigationHandler) CheckRoute(w http.ResponseWriter, r *http.Request) {
	origin := r.URL.Query().Get("origin")
	destination := r.URL.Query().Get("destination")

	var fieldErrors []models.FieldError
	if origin == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "origin", Message: "required"})
	}
	if destination == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "destination", Message: "required"})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "origin and destination are required", fieldErrors)
		return
	}

	set, err := h.ranker.Rank(r.Context(), origin, destination)
	if err != nil {
		writeRoutingError(w, r, err)
		return
	}

	resp := models.RouteCheckResponse{
		Routes: make([]models.RankedRoute, 0, len(set.Routes)),
		Meta: models.RouteCheckMeta{
			Count:     len(set.Routes),
			Provider:  set.Provider,
			Timestamp: models.Timestamp(set.GeneratedAt),
		},
	}
	for i, ranked := range set.Routes {
		resp.Routes = append(resp.Routes, toAPIRankedRoute(ranked, i == 0))
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, resp)
}

func toAPIRankedRoute(ranked safety.RankedRoute, recommended bool) models.RankedRoute {
	return models.RankedRoute{
		ID:               ranked.Route.ID,
		Summary:          ranked.Route.Summary,
		DistanceMeters:   ranked.Route.DistanceMeters,
		DurationSeconds:  ranked.Route.DurationSeconds,
		GeometryPolyline: ranked.Route.GeometryPolyline,
		SafetyScore:      ranked.Score.Value,
		ScoreBreakdown: models.ScoreBreakdown{
			Crime:         ranked.Score.Breakdown.Crime,
			Lighting:      ranked.Score.Breakdown.Lighting,
			Crowd:         ranked.Score.Breakdown.Crowd,
			HelpProximity: ranked.Score.Breakdown.HelpProximity,
			TimeOfDay:     ranked.Score.Breakdown.TimeOfDay,
		},
		RiskLevel:     string(ranked.Score.RiskLevel),
		RiskLabel:     models.RiskLabel(ranked.RiskLabel),
		RiskRationale: ranked.Score.RiskRationale,
		Recommended:   recommended,
	}
}

// writeRoutingError maps mapping-provider failures onto problem responses.
func writeRoutingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, routing.ErrInvalidLocation):
		response.BadRequest(w, r, "origin or destination could not be resolved", nil)
	case errors.Is(err, routing.ErrNoRouteFound):
		response.NotFound(w, r, "no route found between the given points")
	case errors.Is(err, routing.ErrRateLimitExceeded):
		response.TooManyRequests(w, r, "mapping provider rate limit exceeded, retry shortly")
	case errors.Is(err, routing.ErrUpstreamUnavailable):
		response.ServiceUnavailable(w, r, "mapping provider unavailable, retry shortly")
	case errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(w, r, "route computation timed out")
	default:
		response.InternalError(w, r, "route computation failed")
	}
}

func timestampPtr(t time.Time) *models.Timestamp {
	ts := models.Timestamp(t)
	return &ts
}
