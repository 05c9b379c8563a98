// Package smsgateway delivers emergency messages through an HTTP SMS
// gateway.
package smsgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/notify"
	"github.com/DNA-Coded/RakshaMarg/internal/provider/resilience"
)

const (
	// ProviderName identifies this messaging channel.
	ProviderName = "smsgateway"

	// DefaultTimeout is the default request timeout. Kept short: an SOS
	// fan-out should not stall on one slow delivery.
	DefaultTimeout = 5 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the SMS gateway client.
type ClientConfig struct {
	// BaseURL is the gateway base URL (required).
	BaseURL string

	// APIKey authenticates against the gateway (required).
	APIKey string

	// Sender is the originating number or alphanumeric ID (optional).
	Sender string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 5s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client sends SMS messages through the gateway. Implements
// notify.Channel.
type Client struct {
	baseURL    string
	apiKey     string
	sender     string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new SMS gateway client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		// One retry at most; a stuck fan-out is worse than a missed
		// retry for one contact.
		clientCfg.MaxRetries = 1
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		sender:     cfg.Sender,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the channel name.
func (c *Client) Name() string {
	return ProviderName
}

type sendRequest struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Body string `json:"body"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// Send delivers one message to one recipient.
func (c *Client) Send(ctx context.Context, recipient notify.Recipient, message string) error {
	payload, err := json.Marshal(sendRequest{
		To:   recipient.Phone,
		From: c.sender,
		Body: message,
	})
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", notify.ErrDeliveryFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: building request: %v", notify.ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", notify.ErrDeliveryFailed, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: gateway returned status %d", notify.ErrDeliveryFailed, resp.StatusCode)
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.MessageID != "" {
		c.logger.Debug().
			Str("message_id", result.MessageID).
			Str("contact_id", recipient.ContactID).
			Msg("sms accepted by gateway")
	}

	return nil
}
