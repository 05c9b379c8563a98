package tracking_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DNA-Coded/RakshaMarg/internal/routing"
	"github.com/DNA-Coded/RakshaMarg/internal/safety"
	"github.com/DNA-Coded/RakshaMarg/internal/tracking"
	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

func routingRoute(id string, path []geo.Coordinate) routing.Route {
	return routing.Route{
		ID:              id,
		Summary:         "Outer Ring Road",
		Path:            path,
		DurationSeconds: 1200,
	}
}

// testPath is a straight north-south segment through central Delhi.
func testPath() []geo.Coordinate {
	return []geo.Coordinate{
		{Lat: 28.60, Lon: 77.20},
		{Lat: 28.70, Lon: 77.20},
	}
}

func onRoute() geo.Coordinate  { return geo.Coordinate{Lat: 28.65, Lon: 77.20} }
func offRoute() geo.Coordinate { return geo.Coordinate{Lat: 28.65, Lon: 77.30} }

func chosenRoute() safety.RankedRoute {
	return safety.RankedRoute{
		Route: routingRoute("rt_original", testPath()),
		Score: safety.Score{Value: 85},
	}
}

// mockReranker returns a single-route set on a shifted path.
type mockReranker struct {
	calls atomic.Int32
	err   error
}

func (m *mockReranker) Rank(_ context.Context, origin, destination string) (*safety.RankedRouteSet, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	newPath := []geo.Coordinate{
		{Lat: 28.60, Lon: 77.30},
		{Lat: 28.70, Lon: 77.30},
	}
	return &safety.RankedRouteSet{
		Routes: []safety.RankedRoute{{
			Route: routingRoute("rt_rerouted", newPath),
			Score: safety.Score{Value: 78},
		}},
		Origin:      origin,
		Destination: destination,
		GeneratedAt: time.Now(),
	}, nil
}

func sample(c geo.Coordinate) tracking.Position {
	return tracking.Position{Coordinate: c, RecordedAt: time.Now()}
}

func TestDeviationMonitor_StreakResets(t *testing.T) {
	monitor := tracking.NewDeviationMonitor(testPath(), 50, 3)

	obs := monitor.Observe(offRoute())
	assert.True(t, obs.OffRoute)
	assert.False(t, obs.Confirmed)
	assert.Equal(t, 1, obs.Streak)

	// Back in tolerance: streak resets, so a later off-route run starts over.
	obs = monitor.Observe(onRoute())
	assert.False(t, obs.OffRoute)
	assert.Equal(t, 0, monitor.Streak())

	obs = monitor.Observe(offRoute())
	assert.Equal(t, 1, obs.Streak)
}

func TestDeviationMonitor_ConfirmsAfterStreak(t *testing.T) {
	monitor := tracking.NewDeviationMonitor(testPath(), 50, 3)

	require.False(t, monitor.Observe(offRoute()).Confirmed)
	require.False(t, monitor.Observe(offRoute()).Confirmed)

	obs := monitor.Observe(offRoute())
	assert.True(t, obs.Confirmed)

	// Confirmation resets the streak; the deviation must rebuild it
	// before confirming again.
	obs = monitor.Observe(offRoute())
	assert.False(t, obs.Confirmed)
	assert.Equal(t, 1, obs.Streak)
}

func TestDeviationMonitor_Defaults(t *testing.T) {
	monitor := tracking.NewDeviationMonitor(testPath(), 0, 0)
	assert.Equal(t, tracking.DefaultToleranceMeters, monitor.ToleranceMeters())
}

func TestSession_ConfirmedDeviationTriggersOneReroute(t *testing.T) {
	reranker := &mockReranker{}
	events := make(chan tracking.DeviationEvent, 16)

	session := tracking.NewSession(tracking.SessionConfig{
		TravelerID:      "usr_1",
		Route:           chosenRoute(),
		Destination:     "Saket",
		ToleranceMeters: 50,
		DeviationStreak: 3,
		Reranker:        reranker,
		OnDeviation:     func(e tracking.DeviationEvent) { events <- e },
		Logger:          zerolog.Nop(),
	})
	require.NoError(t, session.Start())
	defer session.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, session.ReportPosition(sample(offRoute())))
	}

	var confirmed int
	for i := 0; i < 3; i++ {
		select {
		case e := <-events:
			assert.Greater(t, e.DistanceMeters, 50.0)
			if e.Confirmed {
				confirmed++
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for deviation events")
		}
	}
	assert.Equal(t, 1, confirmed)

	assert.Eventually(t, func() bool {
		return session.ActiveRoute().Route.ID == "rt_rerouted"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), reranker.calls.Load())

	snap := session.Snapshot()
	assert.Equal(t, 1, snap.RerouteCount)
	assert.Equal(t, 3, snap.DeviationCount)
}

func TestSession_JitterDoesNotReroute(t *testing.T) {
	reranker := &mockReranker{}
	events := make(chan tracking.DeviationEvent, 16)

	session := tracking.NewSession(tracking.SessionConfig{
		TravelerID:      "usr_1",
		Route:           chosenRoute(),
		Destination:     "Saket",
		DeviationStreak: 3,
		Reranker:        reranker,
		OnDeviation:     func(e tracking.DeviationEvent) { events <- e },
		Logger:          zerolog.Nop(),
	})
	require.NoError(t, session.Start())
	defer session.Stop()

	// Two off-route samples interleaved with in-tolerance ones never
	// complete a streak.
	require.NoError(t, session.ReportPosition(sample(offRoute())))
	require.NoError(t, session.ReportPosition(sample(onRoute())))
	require.NoError(t, session.ReportPosition(sample(offRoute())))
	require.NoError(t, session.ReportPosition(sample(onRoute())))

	assert.Eventually(t, func() bool {
		pos, ok := session.LastKnownPosition()
		return ok && pos.Coordinate == onRoute()
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(0), reranker.calls.Load())
	assert.Equal(t, "rt_original", session.ActiveRoute().Route.ID)
}

func TestSession_StopDiscardsLateSamples(t *testing.T) {
	session := tracking.NewSession(tracking.SessionConfig{
		TravelerID: "usr_1",
		Route:      chosenRoute(),
		Reranker:   &mockReranker{},
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, session.Start())

	require.NoError(t, session.ReportPosition(sample(onRoute())))
	session.Stop()
	// Idempotent.
	session.Stop()

	err := session.ReportPosition(sample(offRoute()))
	require.ErrorIs(t, err, tracking.ErrNotActive)

	snap := session.Snapshot()
	assert.Equal(t, tracking.StatusIdle, snap.Status)
	assert.Equal(t, 0, snap.DeviationCount)
	require.NotNil(t, snap.StoppedAt)
}

func TestSession_StartTwice(t *testing.T) {
	session := tracking.NewSession(tracking.SessionConfig{
		TravelerID: "usr_1",
		Route:      chosenRoute(),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, session.Start())
	defer session.Stop()

	assert.ErrorIs(t, session.Start(), tracking.ErrAlreadyActive)
}

func TestManager_OneSessionPerTraveler(t *testing.T) {
	manager := tracking.NewManager(tracking.ManagerConfig{
		Reranker: &mockReranker{},
		Logger:   zerolog.Nop(),
	})
	defer manager.StopAll()

	ctx := context.Background()
	req := tracking.StartRequest{
		TravelerID:  "usr_1",
		Route:       chosenRoute(),
		Destination: "Saket",
	}

	first, err := manager.Start(ctx, req)
	require.NoError(t, err)

	_, err = manager.Start(ctx, req)
	require.ErrorIs(t, err, tracking.ErrAlreadyActive)

	// A different traveler is unaffected.
	other := req
	other.TravelerID = "usr_2"
	_, err = manager.Start(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 2, manager.ActiveCount())

	manager.Stop("usr_1")
	// Stopping again is a no-op.
	manager.Stop("usr_1")
	assert.Equal(t, 1, manager.ActiveCount())

	_, err = manager.Snapshot("usr_1")
	assert.ErrorIs(t, err, tracking.ErrSessionNotFound)

	// The stopped traveler can start fresh.
	restarted, err := manager.Start(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), restarted.ID())
}

func TestManager_RecordPosition(t *testing.T) {
	manager := tracking.NewManager(tracking.ManagerConfig{
		Reranker: &mockReranker{},
		Logger:   zerolog.Nop(),
	})
	defer manager.StopAll()

	err := manager.RecordPosition("usr_1", sample(onRoute()))
	require.ErrorIs(t, err, tracking.ErrSessionNotFound)

	_, err = manager.Start(context.Background(), tracking.StartRequest{
		TravelerID:  "usr_1",
		Route:       chosenRoute(),
		Destination: "Saket",
	})
	require.NoError(t, err)

	require.NoError(t, manager.RecordPosition("usr_1", sample(onRoute())))

	assert.Eventually(t, func() bool {
		snap, err := manager.Snapshot("usr_1")
		return err == nil && snap.LastKnownPosition != nil
	}, 2*time.Second, 10*time.Millisecond)
}
