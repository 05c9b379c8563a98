// Package googlemaps provides a client for the Google Maps Directions API.
package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/provider/resilience"
	"github.com/DNA-Coded/RakshaMarg/internal/routing"
	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

const (
	// ProviderName identifies this mapping provider.
	ProviderName = "googlemaps"

	// DefaultBaseURL is the Google Maps API base URL.
	DefaultBaseURL = "https://maps.googleapis.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Google Maps client.
type ClientConfig struct {
	// APIKey is the Google Maps API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the public API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Google Maps Directions API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Google Maps client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetRoutes retrieves candidate routes between two points.
// Requests alternatives so every viable candidate reaches the ranking pass.
func (c *Client) GetRoutes(ctx context.Context, req routing.RoutesRequest) (*routing.RoutesResponse, error) {
	query := url.Values{}
	query.Set("origin", req.Origin)
	query.Set("destination", req.Destination)
	query.Set("alternatives", "true")
	query.Set("mode", "driving")
	query.Set("key", c.apiKey)

	reqURL := fmt.Sprintf("%s/maps/api/directions/json?%s", c.baseURL, query.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("origin", req.Origin).
		Str("destination", req.Destination).
		Msg("requesting directions from Google Maps")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach mapping provider",
			Err:      routing.ErrUpstreamUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  "mapping provider returned an error status",
			Err:      routing.ErrUpstreamUnavailable,
		}
	}

	var apiResp directionsResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if apiResp.Status != statusOK {
		return nil, c.statusError(apiResp.Status, apiResp.ErrorMessage)
	}

	if len(apiResp.Routes) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     statusZeroResults,
			Message:  "provider returned zero route candidates",
			Err:      routing.ErrNoRouteFound,
		}
	}

	routes := make([]routing.Route, 0, len(apiResp.Routes))
	for _, r := range apiResp.Routes {
		var distance, duration int
		for _, leg := range r.Legs {
			distance += leg.Distance.Value
			duration += leg.Duration.Value
		}

		routes = append(routes, routing.Route{
			ID:               "rt_" + uuid.New().String()[:22],
			Summary:          r.Summary,
			GeometryPolyline: r.OverviewPolyline.Points,
			Path:             geo.DecodePolyline(r.OverviewPolyline.Points),
			DistanceMeters:   distance,
			DurationSeconds:  duration,
			Provider:         ProviderName,
		})
	}

	c.logger.Debug().
		Int("candidate_count", len(routes)).
		Msg("received route candidates")

	return &routing.RoutesResponse{
		Routes:    routes,
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}, nil
}

// statusError maps a Directions API status code to a routing error.
func (c *Client) statusError(status, message string) error {
	if message == "" {
		message = "directions request failed with status " + status
	}

	switch status {
	case statusZeroResults, statusNotFound:
		return &routing.Error{
			Provider: ProviderName,
			Code:     status,
			Message:  message,
			Err:      routing.ErrNoRouteFound,
		}
	case statusOverQueryLimit, statusOverDailyLimit:
		return &routing.Error{
			Provider: ProviderName,
			Code:     status,
			Message:  message,
			Err:      routing.ErrRateLimitExceeded,
		}
	case statusRequestDenied, statusInvalidRequest:
		return &routing.Error{
			Provider: ProviderName,
			Code:     status,
			Message:  message,
			Err:      routing.ErrInvalidLocation,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     status,
			Message:  message,
			Err:      routing.ErrUpstreamUnavailable,
		}
	}
}
