package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/provider/resilience"
)

// WebhookChannelName identifies the emergency webhook channel.
const WebhookChannelName = "emergency-webhook"

// WebhookConfig holds configuration for the emergency webhook channel.
type WebhookConfig struct {
	// URL is the webhook endpoint (required).
	URL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient interface {
		Do(req *http.Request) (*http.Response, error)
	}

	// Timeout is the request timeout (optional, defaults to 5s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for channel operations.
	Logger zerolog.Logger
}

// WebhookChannel posts emergency payloads to a configured endpoint. It
// is the last-resort path when a traveler has no trusted contacts: the
// alert goes to an emergency-services relay instead of a person.
type WebhookChannel struct {
	url        string
	httpClient interface {
		Do(req *http.Request) (*http.Response, error)
	}
	logger zerolog.Logger
}

// NewWebhookChannel creates a new emergency webhook channel.
func NewWebhookChannel(cfg WebhookConfig) *WebhookChannel {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(WebhookChannelName)
		clientCfg.Timeout = timeout
		clientCfg.MaxRetries = 1
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &WebhookChannel{
		url:        cfg.URL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the channel name.
func (c *WebhookChannel) Name() string {
	return WebhookChannelName
}

type webhookPayload struct {
	Recipient string `json:"recipient,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Message   string `json:"message"`
}

// Send posts the message to the webhook endpoint.
func (c *WebhookChannel) Send(ctx context.Context, recipient Recipient, message string) error {
	payload, err := json.Marshal(webhookPayload{
		Recipient: recipient.Name,
		Phone:     recipient.Phone,
		Message:   message,
	})
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %v", ErrDeliveryFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: building request: %v", ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: webhook returned status %d", ErrDeliveryFailed, resp.StatusCode)
	}

	return nil
}
