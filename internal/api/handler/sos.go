package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DNA-Coded/RakshaMarg/internal/api/models"
	"github.com/DNA-Coded/RakshaMarg/internal/api/response"
	"github.com/DNA-Coded/RakshaMarg/internal/escalation"
	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

// SOSHandler handles emergency escalation endpoints.
type SOSHandler struct {
	engine *escalation.Engine
}

// NewSOSHandler creates a new SOSHandler.
func NewSOSHandler(engine *escalation.Engine) *SOSHandler {
	return &SOSHandler{engine: engine}
}

// Trigger handles POST /v1/navigation/{travelerId}/sos - raise the alarm.
// An unreadable body is treated as an empty request: an SOS must never
// fail on malformed input.
func (h *SOSHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	travelerID := chi.URLParam(r, "travelerId")
	if travelerID == "" {
		response.BadRequest(w, r, "travelerId is required", nil)
		return
	}

	var input models.SOSRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&input)
	}

	req := escalation.TriggerRequest{UserID: travelerID}
	if input.Lat != nil && input.Lng != nil {
		req.Position = &geo.Coordinate{Lat: *input.Lat, Lon: *input.Lng}
	}
	if input.RouteSummary != nil {
		req.RouteSummary = *input.RouteSummary
	}

	event, err := h.engine.Trigger(r.Context(), req)
	if err != nil {
		response.InternalError(w, r, "escalation failed")
		return
	}

	resp := models.SOSResponse{
		Status:     "triggered",
		SOSID:      event.ID,
		Deliveries: make([]models.SOSDelivery, 0, len(event.Outcomes)),
	}
	if event.Position != nil {
		resp.Position = &models.Point{Lat: event.Position.Lat, Lng: event.Position.Lon}
	}
	for _, outcome := range event.Outcomes {
		delivery := models.SOSDelivery{
			ContactID:   outcome.ContactID,
			ContactName: outcome.ContactName,
			Channel:     outcome.Channel,
			Delivered:   outcome.Delivered,
		}
		if outcome.Error != "" {
			msg := outcome.Error
			delivery.Error = &msg
		}
		resp.Deliveries = append(resp.Deliveries, delivery)
	}

	response.JSON(w, r, http.StatusOK, resp)
}
