// Package gemini provides a client for the Gemini generateContent API
// used as the area-risk classifier.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/provider/resilience"
	"github.com/DNA-Coded/RakshaMarg/internal/risk"
	"github.com/DNA-Coded/RakshaMarg/internal/routing"
)

const (
	// ProviderName identifies this risk classification provider.
	ProviderName = "gemini"

	// DefaultBaseURL is the Gemini API base URL.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is the model used for risk classification.
	DefaultModel = "gemini-1.5-flash"

	// DefaultTimeout is the default request timeout. The adapter applies
	// its own, usually shorter, deadline on top.
	DefaultTimeout = 8 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Gemini client.
type ClientConfig struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the public API).
	BaseURL string

	// Model is the model identifier (optional, defaults to DefaultModel).
	Model string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 8s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Gemini generateContent client that phrases route risk
// classification as a constrained-JSON prompt.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Gemini client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		// Retrying a slow LLM call rarely beats the fallback score.
		clientCfg.MaxRetries = 1
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// generateRequest is the wire format of a generateContent request.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse is the wire format of a generateContent response.
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// verdict is the JSON shape the model is instructed to reply with.
type verdict struct {
	OverallRiskLevel string `json:"overall_risk_level"`
	Rationale        string `json:"rationale"`
}

// Classify assesses the area risk of a route candidate.
func (c *Client) Classify(ctx context.Context, route routing.Route) (*risk.Assessment, error) {
	prompt := buildPrompt(route)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	c.logger.Debug().
		Str("route_id", route.ID).
		Str("model", c.model).
		Msg("requesting risk classification")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", risk.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", risk.ErrClassifierUnavailable, resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("%w: %s", risk.ErrUnparseableAssessment, err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty candidates", risk.ErrUnparseableAssessment)
	}

	text := genResp.Candidates[0].Content.Parts[0].Text

	var v verdict
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &v); err != nil {
		return nil, fmt.Errorf("%w: %s", risk.ErrUnparseableAssessment, err)
	}

	return &risk.Assessment{
		Level:      risk.ParseLevel(v.OverallRiskLevel),
		Rationale:  v.Rationale,
		Provenance: ProviderName + ":" + c.model,
	}, nil
}

// buildPrompt describes one route candidate and constrains the reply shape.
func buildPrompt(route routing.Route) string {
	var b strings.Builder
	b.WriteString("You assess how safe a travel route is for a lone traveler. ")
	b.WriteString("Considering typical conditions along the route described below, ")
	b.WriteString(`reply with exactly one JSON object of the form `)
	b.WriteString(`{"overall_risk_level": "low"|"moderate"|"high", "rationale": "<one sentence>"}`)
	b.WriteString(" and nothing else.\n\n")

	fmt.Fprintf(&b, "Route summary: %s\n", route.Summary)
	fmt.Fprintf(&b, "Distance: %.1f km\n", float64(route.DistanceMeters)/1000)
	fmt.Fprintf(&b, "Duration: %d min\n", route.DurationSeconds/60)
	if len(route.Path) > 0 {
		first := route.Path[0]
		last := route.Path[len(route.Path)-1]
		fmt.Fprintf(&b, "From: %.4f,%.4f\nTo: %.4f,%.4f\n", first.Lat, first.Lon, last.Lat, last.Lon)
	}

	return b.String()
}

// stripCodeFences removes a surrounding markdown code fence, which the
// model emits despite instructions often enough to handle here.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
