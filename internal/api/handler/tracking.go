package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DNA-Coded/RakshaMarg/internal/api/models"
	"github.com/DNA-Coded/RakshaMarg/internal/api/response"
	"github.com/DNA-Coded/RakshaMarg/internal/sharetoken"
	"github.com/DNA-Coded/RakshaMarg/internal/tracking"
	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

// TrackingHandler handles live-tracking session endpoints.
type TrackingHandler struct {
	manager *tracking.Manager
	ranker  RouteRanker
	tokens  *sharetoken.Service
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(manager *tracking.Manager, ranker RouteRanker, tokens *sharetoken.Service) *TrackingHandler {
	return &TrackingHandler{
		manager: manager,
		ranker:  ranker,
		tokens:  tokens,
	}
}

// Start handles POST /v1/tracking/{travelerId}/start - rank routes for the
// trip and begin monitoring the safest one.
func (h *TrackingHandler) Start(w http.ResponseWriter, r *http.Request) {
	travelerID := chi.URLParam(r, "travelerId")

	var input models.TrackingStartRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	var fieldErrors []models.FieldError
	if input.Origin == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "origin", Message: "required"})
	}
	if input.Destination == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "destination", Message: "required"})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "origin and destination are required", fieldErrors)
		return
	}

	set, err := h.ranker.Rank(r.Context(), input.Origin, input.Destination)
	if err != nil {
		writeRoutingError(w, r, err)
		return
	}
	recommended := set.Recommended()
	if recommended == nil {
		response.NotFound(w, r, "no route found between the given points")
		return
	}

	session, err := h.manager.Start(r.Context(), tracking.StartRequest{
		TravelerID:  travelerID,
		Route:       *recommended,
		Destination: input.Destination,
	})
	if err != nil {
		if errors.Is(err, tracking.ErrAlreadyActive) {
			response.Conflict(w, r, "a tracking session is already active for this traveler")
			return
		}
		response.InternalError(w, r, "could not start tracking session")
		return
	}

	response.Created(w, r, "/v1/tracking/"+travelerID+"/status", h.toAPISession(session))
}

// ReportPosition handles POST /v1/tracking/{travelerId}/position.
func (h *TrackingHandler) ReportPosition(w http.ResponseWriter, r *http.Request) {
	travelerID := chi.URLParam(r, "travelerId")

	var input models.TrackingPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	pos := tracking.Position{
		Coordinate: geo.Coordinate{Lat: input.Position.Lat, Lon: input.Position.Lng},
		RecordedAt: time.Now(),
	}
	if input.AccuracyMeters != nil {
		pos.AccuracyMeters = *input.AccuracyMeters
	}
	if input.Timestamp != nil {
		if ts, err := time.Parse(time.RFC3339, *input.Timestamp); err == nil {
			pos.RecordedAt = ts
		}
	}

	if err := h.manager.RecordPosition(travelerID, pos); err != nil {
		writeSessionError(w, r, err)
		return
	}

	response.Accepted(w, r, "", map[string]string{"status": "accepted"})
}

// Stop handles POST /v1/tracking/{travelerId}/stop. Stopping is
// idempotent; stopping an absent session is not an error.
func (h *TrackingHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.manager.Stop(chi.URLParam(r, "travelerId"))
	response.NoContent(w, r)
}

// Status handles GET /v1/tracking/{travelerId}/status.
func (h *TrackingHandler) Status(w http.ResponseWriter, r *http.Request) {
	session, ok := h.manager.Get(chi.URLParam(r, "travelerId"))
	if !ok {
		response.NotFound(w, r, "no tracking session for this traveler")
		return
	}
	response.JSON(w, r, http.StatusOK, h.toAPISession(session))
}

// Share handles POST /v1/tracking/{travelerId}/share - issue a signed
// token a trusted contact can use to follow the session.
func (h *TrackingHandler) Share(w http.ResponseWriter, r *http.Request) {
	travelerID := chi.URLParam(r, "travelerId")
	session, ok := h.manager.Get(travelerID)
	if !ok {
		response.NotFound(w, r, "no tracking session for this traveler")
		return
	}

	token, expiresAt, err := h.tokens.Issue(session.ID(), travelerID)
	if err != nil {
		response.InternalError(w, r, "could not issue share token")
		return
	}

	response.JSON(w, r, http.StatusOK, models.TrackingShareResponse{
		Token:     token,
		ExpiresAt: models.Timestamp(expiresAt),
	})
}

// SharedView handles GET /v1/tracking/shared/{token} - the read-only
// session view behind a share token. Public: the token is the credential.
func (h *TrackingHandler) SharedView(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tokens.Validate(chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, sharetoken.ErrTokenExpired) {
			response.Unauthorized(w, r, "share link has expired")
			return
		}
		response.Unauthorized(w, r, "invalid share link")
		return
	}

	session, ok := h.manager.Get(claims.TravelerID)
	if !ok || session.ID() != claims.SessionID {
		response.NotFound(w, r, "the shared session has ended")
		return
	}
	response.JSON(w, r, http.StatusOK, h.toAPISession(session))
}

func (h *TrackingHandler) toAPISession(session *tracking.Session) models.TrackingSession {
	snap := session.Snapshot()
	route := session.ActiveRoute()

	out := models.TrackingSession{
		SessionID:      snap.SessionID,
		TravelerID:     snap.TravelerID,
		Status:         string(snap.Status),
		Destination:    snap.Destination,
		Route:          toAPIRankedRoute(route, true),
		OffRouteStreak: snap.OffRouteStreak,
		DeviationCount: snap.DeviationCount,
		RerouteCount:   snap.RerouteCount,
		StartedAt:      models.Timestamp(snap.StartedAt),
	}
	if snap.LastKnownPosition != nil {
		out.LastKnownPosition = &models.TrackingPosition{
			Position: models.Point{
				Lat: snap.LastKnownPosition.Coordinate.Lat,
				Lng: snap.LastKnownPosition.Coordinate.Lon,
			},
			AccuracyMeters: snap.LastKnownPosition.AccuracyMeters,
			RecordedAt:     models.Timestamp(snap.LastKnownPosition.RecordedAt),
		}
	}
	return out
}

func writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tracking.ErrSessionNotFound):
		response.NotFound(w, r, "no tracking session for this traveler")
	case errors.Is(err, tracking.ErrNotActive):
		response.Conflict(w, r, "tracking session is no longer active")
	default:
		response.InternalError(w, r, "tracking session error")
	}
}
