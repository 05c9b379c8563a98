package worker_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DNA-Coded/RakshaMarg/internal/escalation"
	"github.com/DNA-Coded/RakshaMarg/internal/notify"
	"github.com/DNA-Coded/RakshaMarg/internal/worker"
	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

type recordingChannel struct {
	messages []string
	err      error
}

func (c *recordingChannel) Send(_ context.Context, _ notify.Recipient, message string) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, message)
	return nil
}

func (c *recordingChannel) Name() string { return "recording" }

func testMessage() escalation.DispatchMessage {
	return escalation.DispatchMessage{
		EventID:        "sos_abc123",
		UserID:         "usr_meera",
		SessionID:      "trk_xyz789",
		Position:       &geo.Coordinate{Lat: 28.6139, Lon: 77.2090},
		PositionOrigin: "request",
		RouteSummary:   "NH 48",
		TriggeredAt:    time.Date(2026, 3, 14, 22, 30, 0, 0, time.UTC),
		DeliveredCount: 2,
		ContactCount:   3,
	}
}

func TestDispatchJob_RelaysEvent(t *testing.T) {
	relay := &recordingChannel{}
	job := worker.NewDispatchJob(worker.DispatchJobConfig{
		Relay:  relay,
		Logger: zerolog.New(io.Discard),
	})

	err := job.Handle(context.Background(), testMessage())
	require.NoError(t, err)

	require.Len(t, relay.messages, 1)
	msg := relay.messages[0]
	assert.Contains(t, msg, "sos_abc123")
	assert.Contains(t, msg, "usr_meera")
	assert.Contains(t, msg, "28.613900,77.209000")
	assert.Contains(t, msg, "NH 48")
	assert.Contains(t, msg, "2 of 3")
}

func TestDispatchJob_PositionUnknown(t *testing.T) {
	relay := &recordingChannel{}
	job := worker.NewDispatchJob(worker.DispatchJobConfig{
		Relay:  relay,
		Logger: zerolog.New(io.Discard),
	})

	msg := testMessage()
	msg.Position = nil
	msg.RouteSummary = ""

	err := job.Handle(context.Background(), msg)
	require.NoError(t, err)

	require.Len(t, relay.messages, 1)
	assert.Contains(t, relay.messages[0], "Position unknown")
}

func TestDispatchJob_MalformedMessage(t *testing.T) {
	relay := &recordingChannel{}
	job := worker.NewDispatchJob(worker.DispatchJobConfig{
		Relay:  relay,
		Logger: zerolog.New(io.Discard),
	})

	err := job.Handle(context.Background(), escalation.DispatchMessage{})
	assert.ErrorIs(t, err, worker.ErrMalformedMessage)
	assert.Empty(t, relay.messages)
}

func TestDispatchJob_RelayFailure(t *testing.T) {
	relay := &recordingChannel{err: notify.ErrDeliveryFailed}
	job := worker.NewDispatchJob(worker.DispatchJobConfig{
		Relay:  relay,
		Logger: zerolog.New(io.Discard),
	})

	err := job.Handle(context.Background(), testMessage())
	assert.ErrorIs(t, err, notify.ErrDeliveryFailed)
	assert.NotErrorIs(t, err, worker.ErrMalformedMessage)
}
