package googlemaps

// directionsResponse is the wire format of the Directions API response.
type directionsResponse struct {
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Routes       []apiRoute `json:"routes"`
}

type apiRoute struct {
	Summary          string      `json:"summary"`
	OverviewPolyline apiPolyline `json:"overview_polyline"`
	Legs             []apiLeg    `json:"legs"`
}

type apiPolyline struct {
	Points string `json:"points"`
}

type apiLeg struct {
	Distance apiValue `json:"distance"`
	Duration apiValue `json:"duration"`
}

type apiValue struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}

// Directions API status codes.
const (
	statusOK             = "OK"
	statusZeroResults    = "ZERO_RESULTS"
	statusNotFound       = "NOT_FOUND"
	statusOverQueryLimit = "OVER_QUERY_LIMIT"
	statusOverDailyLimit = "OVER_DAILY_LIMIT"
	statusRequestDenied  = "REQUEST_DENIED"
	statusInvalidRequest = "INVALID_REQUEST"
)
