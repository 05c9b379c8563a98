package escalation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

// DispatchMessage is the wire format published for each SOS event. The
// dispatch worker consumes these and relays them to the emergency sink.
type DispatchMessage struct {
	EventID        string          `json:"event_id"`
	UserID         string          `json:"user_id"`
	SessionID      string          `json:"session_id,omitempty"`
	Position       *geo.Coordinate `json:"position,omitempty"`
	PositionOrigin string          `json:"position_origin"`
	RouteSummary   string          `json:"route_summary,omitempty"`
	TriggeredAt    time.Time       `json:"triggered_at"`
	DeliveredCount int             `json:"delivered_count"`
	ContactCount   int             `json:"contact_count"`
}

// PublisherConfig holds configuration for the SOS event publisher.
type PublisherConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// Publisher reports SOS events to a Pub/Sub topic. Reporting is
// fire-and-forget relative to the rest of escalation; a publish failure
// is logged by the engine, never fatal to contact notification.
type Publisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicName string
	logger    zerolog.Logger
}

// NewPublisher creates a new SOS event publisher.
func NewPublisher(ctx context.Context, cfg PublisherConfig) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &Publisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		topicName: cfg.TopicName,
		logger:    cfg.Logger,
	}, nil
}

// Report publishes one event and waits for the broker's acknowledgement.
func (p *Publisher) Report(ctx context.Context, event *Event) error {
	data, err := json.Marshal(DispatchMessage{
		EventID:        event.ID,
		UserID:         event.UserID,
		SessionID:      event.SessionID,
		Position:       event.Position,
		PositionOrigin: string(event.PositionOrigin),
		RouteSummary:   event.RouteSummary,
		TriggeredAt:    event.TriggeredAt,
		DeliveredCount: event.DeliveredCount(),
		ContactCount:   len(event.Outcomes),
	})
	if err != nil {
		return fmt.Errorf("encoding dispatch message: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_id": event.ID,
		},
	})

	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", p.topicName, err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("message_id", id).
		Msg("sos event published")
	return nil
}

// Close closes the Pub/Sub client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
