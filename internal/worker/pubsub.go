package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/escalation"
)

// ErrMalformedMessage marks a message that can never be processed.
// Such messages are acked to stop redelivery.
var ErrMalformedMessage = errors.New("malformed dispatch message")

// PubSubHandler consumes SOS dispatch messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	job              *DispatchJob
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Job              *DispatchJob
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// SOS events are rare and must move fast; keep the window small so a
	// stuck handler never starves redelivery for long.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		job:              cfg.Job,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting sos dispatch handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	var dispatch escalation.DispatchMessage
	if err := json.Unmarshal(msg.Data, &dispatch); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Ack() // Poison message; redelivery cannot help
		return
	}

	if err := h.job.Handle(ctx, dispatch); err != nil {
		if errors.Is(err, ErrMalformedMessage) {
			logger.Error().Err(err).Msg("dropping malformed dispatch message")
			msg.Ack()
			return
		}
		logger.Error().Err(err).Str("event_id", dispatch.EventID).Msg("dispatch failed")
		msg.Nack()
		return
	}

	logger.Info().
		Str("event_id", dispatch.EventID).
		Dur("duration", time.Since(startTime)).
		Msg("dispatch completed")
	msg.Ack()
}
