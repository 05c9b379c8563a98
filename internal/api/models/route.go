package models

// ScoreBreakdown itemizes the sub-scores that sum to a safety score.
type ScoreBreakdown struct {
	Crime         int `json:"crime"`
	Lighting      int `json:"lighting"`
	Crowd         int `json:"crowd"`
	HelpProximity int `json:"helpProximity"`
	TimeOfDay     int `json:"timeOfDay"`
}

// RankedRoute is a single scored route alternative.
type RankedRoute struct {
	ID               string         `json:"id"`
	Summary          string         `json:"summary"`
	DistanceMeters   int            `json:"distanceMeters"`
	DurationSeconds  int            `json:"durationSeconds"`
	GeometryPolyline string         `json:"geometryPolyline,omitempty"`
	SafetyScore      int            `json:"safetyScore"`
	ScoreBreakdown   ScoreBreakdown `json:"scoreBreakdown"`
	RiskLevel        string         `json:"riskLevel"`
	RiskLabel        RiskLabel      `json:"riskLabel"`
	RiskRationale    string         `json:"riskRationale,omitempty"`
	Recommended      bool           `json:"recommended"`
}

// RouteCheckMeta describes one route-check response.
type RouteCheckMeta struct {
	Count     int       `json:"count"`
	Provider  string    `json:"provider"`
	Timestamp Timestamp `json:"timestamp"`
}

// RouteCheckResponse is the response for a route-safety check. Routes
// are ordered by safety score, safest first.
type RouteCheckResponse struct {
	Routes []RankedRoute  `json:"routes"`
	Meta   RouteCheckMeta `json:"meta"`
}
