package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/escalation"
	"github.com/DNA-Coded/RakshaMarg/internal/notify"
)

// DispatchJobConfig holds configuration for the dispatch job.
type DispatchJobConfig struct {
	// Relay delivers the event to the emergency-services sink (required).
	Relay notify.Channel

	// Timeout bounds each relay call. Default: 10 seconds.
	Timeout time.Duration

	// Logger for job operations.
	Logger zerolog.Logger
}

// DispatchJob relays one SOS event to the emergency-services sink. The
// API already notified the traveler's trusted contacts; this path exists
// so an event survives even when every personal contact was unreachable.
type DispatchJob struct {
	relay   notify.Channel
	timeout time.Duration
	logger  zerolog.Logger
}

// NewDispatchJob creates a new dispatch job.
func NewDispatchJob(cfg DispatchJobConfig) *DispatchJob {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &DispatchJob{
		relay:   cfg.Relay,
		timeout: timeout,
		logger:  cfg.Logger,
	}
}

// Handle relays one event. A malformed message is a permanent failure;
// a relay failure is transient and the message should be redelivered.
func (j *DispatchJob) Handle(ctx context.Context, msg escalation.DispatchMessage) error {
	if msg.EventID == "" || msg.UserID == "" {
		return fmt.Errorf("%w: missing event or user id", ErrMalformedMessage)
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	recipient := notify.Recipient{Name: "emergency-dispatch"}
	if err := j.relay.Send(ctx, recipient, formatDispatch(msg)); err != nil {
		return fmt.Errorf("relaying event %s: %w", msg.EventID, err)
	}

	j.logger.Info().
		Str("event_id", msg.EventID).
		Str("user_id", msg.UserID).
		Int("delivered_count", msg.DeliveredCount).
		Int("contact_count", msg.ContactCount).
		Msg("sos event relayed")
	return nil
}

// formatDispatch renders the dispatcher-facing summary of one event.
func formatDispatch(msg escalation.DispatchMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SOS %s raised by traveler %s at %s.",
		msg.EventID, msg.UserID, msg.TriggeredAt.Format(time.RFC3339))

	if msg.Position != nil {
		fmt.Fprintf(&b, " Last known position: %s (%s).", msg.Position.String(), msg.PositionOrigin)
	} else {
		b.WriteString(" Position unknown.")
	}
	if msg.RouteSummary != "" {
		fmt.Fprintf(&b, " Route: %s.", msg.RouteSummary)
	}
	fmt.Fprintf(&b, " Trusted contacts reached: %d of %d.", msg.DeliveredCount, msg.ContactCount)
	return b.String()
}
