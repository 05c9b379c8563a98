package escalation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/contacts"
	"github.com/DNA-Coded/RakshaMarg/internal/notify"
	"github.com/DNA-Coded/RakshaMarg/internal/tracking"
	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

const (
	// DefaultPositionTimeout bounds the live position fix. An SOS is
	// never held up waiting for GPS.
	DefaultPositionTimeout = 3 * time.Second

	// reportTimeout bounds the background event report.
	reportTimeout = 10 * time.Second
)

// ContactSource supplies the traveler's trusted contacts as a read-only
// snapshot. *contacts.Service satisfies this.
type ContactSource interface {
	Snapshot(ctx context.Context, userID string) ([]*contacts.TrustedContact, error)
}

// SessionSource looks up the traveler's tracking session for last-known
// position and route context. *tracking.Manager satisfies this.
type SessionSource interface {
	Get(travelerID string) (*tracking.Session, bool)
}

// Reporter sends the event to a backend sink. *Publisher satisfies this.
type Reporter interface {
	Report(ctx context.Context, event *Event) error
}

// EngineConfig holds configuration for the escalation engine.
type EngineConfig struct {
	// Contacts supplies trusted-contact snapshots (required).
	Contacts ContactSource

	// Channel delivers messages to trusted contacts (required).
	Channel notify.Channel

	// Emergency is the last-resort channel used when the traveler has
	// no trusted contacts (optional).
	Emergency notify.Channel

	// Repository records triggered events (optional).
	Repository Repository

	// Reporter forwards events to the dispatch backend (optional,
	// fire-and-forget).
	Reporter Reporter

	// Sessions resolves tracking sessions (optional).
	Sessions SessionSource

	// Source supplies a live position fix (optional).
	Source tracking.PositionSource

	// PositionTimeout bounds the live fix. Defaults to 3s.
	PositionTimeout time.Duration

	// Logger for engine operations.
	Logger zerolog.Logger
}

// TriggerRequest describes one SOS trigger.
type TriggerRequest struct {
	// UserID is the traveler raising the alarm (required).
	UserID string

	// Position is the caller-supplied position, if any.
	Position *geo.Coordinate

	// RouteSummary describes the route being traveled, if known.
	RouteSummary string
}

// Engine coordinates one SOS escalation: capture position once, record
// the event, and fan the emergency message out to every trusted contact
// independently.
type Engine struct {
	contacts        ContactSource
	channel         notify.Channel
	emergency       notify.Channel
	repo            Repository
	reporter        Reporter
	sessions        SessionSource
	source          tracking.PositionSource
	positionTimeout time.Duration
	logger          zerolog.Logger
}

// NewEngine creates a new escalation engine.
func NewEngine(cfg EngineConfig) *Engine {
	timeout := cfg.PositionTimeout
	if timeout <= 0 {
		timeout = DefaultPositionTimeout
	}

	return &Engine{
		contacts:        cfg.Contacts,
		channel:         cfg.Channel,
		emergency:       cfg.Emergency,
		repo:            cfg.Repository,
		reporter:        cfg.Reporter,
		sessions:        cfg.Sessions,
		source:          cfg.Source,
		positionTimeout: timeout,
		logger:          cfg.Logger,
	}
}

// Trigger runs one escalation. It never fails for lack of a position
// fix: the fallback chain is caller position, live fix, session
// last-known, then an explicit unknown marker. The returned event is
// complete and immutable.
func (e *Engine) Trigger(ctx context.Context, req TriggerRequest) (*Event, error) {
	event := &Event{
		ID:           "sos_" + uuid.New().String()[:22],
		UserID:       req.UserID,
		RouteSummary: req.RouteSummary,
		TriggeredAt:  time.Now(),
	}

	session, hasSession := e.lookupSession(req.UserID)
	if hasSession {
		event.SessionID = session.ID()
		if event.RouteSummary == "" {
			event.RouteSummary = session.ActiveRoute().Route.Summary
		}
	}

	event.Position, event.PositionOrigin = e.resolvePosition(ctx, req, session)

	event.Outcomes = e.fanOut(ctx, event)

	e.logger.Info().
		Str("event_id", event.ID).
		Str("user_id", event.UserID).
		Str("position_origin", string(event.PositionOrigin)).
		Int("contacts", len(event.Outcomes)).
		Int("delivered", event.DeliveredCount()).
		Msg("sos escalation triggered")

	if e.repo != nil {
		if err := e.repo.Create(ctx, event); err != nil {
			e.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to record sos event")
		}
	}

	e.report(ctx, event)

	return event, nil
}

// lookupSession fetches the traveler's session if a source is wired.
func (e *Engine) lookupSession(userID string) (*tracking.Session, bool) {
	if e.sessions == nil {
		return nil, false
	}
	return e.sessions.Get(userID)
}

// resolvePosition walks the fallback chain. The fix is captured once,
// not streamed.
func (e *Engine) resolvePosition(ctx context.Context, req TriggerRequest, session *tracking.Session) (*geo.Coordinate, PositionOrigin) {
	if req.Position != nil {
		return req.Position, PositionFromRequest
	}

	if e.source != nil {
		fixCtx, cancel := context.WithTimeout(ctx, e.positionTimeout)
		pos, err := e.source.CurrentPosition(fixCtx)
		cancel()
		if err == nil {
			coord := pos.Coordinate
			return &coord, PositionFromSource
		}
		e.logger.Warn().Err(err).Msg("position fix unavailable, falling back")
	}

	if session != nil {
		if pos, ok := session.LastKnownPosition(); ok {
			coord := pos.Coordinate
			return &coord, PositionFromSession
		}
	}

	return nil, PositionUnknown
}

// fanOut delivers the emergency message to every contact independently.
// One contact's failure never blocks or rolls back the others. With
// zero contacts the emergency channel is used instead, so the alarm
// always goes somewhere.
func (e *Engine) fanOut(ctx context.Context, event *Event) []DeliveryOutcome {
	list, err := e.contacts.Snapshot(ctx, event.UserID)
	if err != nil {
		e.logger.Error().Err(err).Str("user_id", event.UserID).Msg("failed to load trusted contacts")
		list = nil
	}

	if len(list) == 0 {
		return e.emergencyFallback(ctx, event)
	}

	message := formatMessage(event)
	outcomes := make([]DeliveryOutcome, len(list))

	var wg sync.WaitGroup
	for i, contact := range list {
		wg.Add(1)
		go func(i int, contact *contacts.TrustedContact) {
			defer wg.Done()
			outcomes[i] = e.deliver(ctx, contact, message)
		}(i, contact)
	}
	wg.Wait()

	return outcomes
}

func (e *Engine) deliver(ctx context.Context, contact *contacts.TrustedContact, message string) DeliveryOutcome {
	outcome := DeliveryOutcome{
		ContactID:   contact.ID,
		ContactName: contact.Name,
		Channel:     e.channel.Name(),
		AttemptedAt: time.Now(),
	}

	err := e.channel.Send(ctx, notify.Recipient{
		ContactID: contact.ID,
		Name:      contact.Name,
		Phone:     contact.Phone,
	}, message)
	if err != nil {
		outcome.Error = err.Error()
		e.logger.Error().
			Err(err).
			Str("contact_id", contact.ID).
			Msg("emergency message delivery failed")
		return outcome
	}

	outcome.Delivered = true
	return outcome
}

// emergencyFallback routes the alarm to the emergency channel when no
// trusted contacts exist. Exactly one fallback path is taken.
func (e *Engine) emergencyFallback(ctx context.Context, event *Event) []DeliveryOutcome {
	if e.emergency == nil {
		e.logger.Error().
			Str("event_id", event.ID).
			Msg("no trusted contacts and no emergency channel configured")
		return nil
	}

	outcome := DeliveryOutcome{
		ContactName: "emergency services",
		Channel:     e.emergency.Name(),
		AttemptedAt: time.Now(),
	}

	err := e.emergency.Send(ctx, notify.Recipient{Name: "emergency services"}, formatMessage(event))
	if err != nil {
		outcome.Error = err.Error()
		e.logger.Error().Err(err).Str("event_id", event.ID).Msg("emergency channel delivery failed")
	} else {
		outcome.Delivered = true
	}

	return []DeliveryOutcome{outcome}
}

// report forwards the event to the backend sink in the background.
// Detached from the request context so an early client disconnect does
// not lose the report.
func (e *Engine) report(ctx context.Context, event *Event) {
	if e.reporter == nil {
		return
	}

	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	go func() {
		defer cancel()
		if err := e.reporter.Report(reportCtx, event); err != nil {
			e.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to report sos event")
		}
	}()
}

// formatMessage builds the emergency text sent to contacts.
func formatMessage(event *Event) string {
	location := "Location unknown"
	if event.Position != nil {
		location = fmt.Sprintf("Last known location: https://maps.google.com/?q=%s", event.Position.String())
	}

	msg := fmt.Sprintf("SOS! I need help. %s.", location)
	if event.RouteSummary != "" {
		msg += fmt.Sprintf(" I was traveling via %s.", event.RouteSummary)
	}
	msg += " Sent via RakshaMarg at " + event.TriggeredAt.Format("15:04 MST") + "."
	return msg
}
