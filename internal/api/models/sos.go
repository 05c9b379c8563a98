package models

// SOSRequest triggers an emergency escalation. The position is
// optional; escalation proceeds with the session's last-known position
// or an explicit unknown marker when absent.
type SOSRequest struct {
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	Timestamp    *string  `json:"timestamp,omitempty"`
	RouteSummary *string  `json:"routeSummary,omitempty"`
}

// SOSDelivery is the per-contact outcome of the emergency fan-out.
type SOSDelivery struct {
	ContactID   string  `json:"contactId"`
	ContactName string  `json:"contactName"`
	Channel     string  `json:"channel"`
	Delivered   bool    `json:"delivered"`
	Error       *string `json:"error,omitempty"`
}

// SOSResponse confirms a triggered escalation.
type SOSResponse struct {
	Status     string        `json:"status"`
	SOSID      string        `json:"sosId"`
	Position   *Point        `json:"position,omitempty"`
	Deliveries []SOSDelivery `json:"deliveries"`
}
