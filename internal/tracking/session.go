package tracking

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/safety"
)

const (
	// DefaultSampleInterval is how often a configured position source is
	// polled while a session is active.
	DefaultSampleInterval = 5 * time.Second

	// defaultSampleBuffer bounds pushed samples waiting for the session
	// goroutine.
	defaultSampleBuffer = 16

	// rerouteTimeout bounds one deviation-triggered re-route request.
	rerouteTimeout = 15 * time.Second
)

// PositionSource supplies the traveler's current position on demand.
// Optional: sessions fed purely by pushed samples leave it nil.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// SessionConfig holds configuration for creating a tracking session.
type SessionConfig struct {
	// TravelerID identifies the traveler being tracked.
	TravelerID string

	// Route is the chosen route the traveler is following.
	Route safety.RankedRoute

	// Destination is the original destination, kept for re-routing.
	Destination string

	// ToleranceMeters is the off-route distance threshold.
	// Defaults to DefaultToleranceMeters.
	ToleranceMeters float64

	// DeviationStreak is how many consecutive off-route samples confirm
	// a deviation. Defaults to DefaultDeviationStreak.
	DeviationStreak int

	// Source, when set, is polled every SampleInterval.
	Source PositionSource

	// SampleInterval is the polling cadence for Source.
	// Defaults to DefaultSampleInterval.
	SampleInterval time.Duration

	// Reranker recomputes routes after a confirmed deviation.
	Reranker Reranker

	// OnDeviation, when set, observes every deviation event. Called from
	// the session goroutine; must not block.
	OnDeviation func(DeviationEvent)

	// Logger for session operations.
	Logger zerolog.Logger
}

// Session owns one traveler's live-tracking lifecycle. All mutable state
// is driven by a single goroutine consuming samples in arrival order;
// callers interact through Start, ReportPosition, Stop, and Snapshot.
type Session struct {
	id          string
	travelerID  string
	destination string
	interval    time.Duration

	monitor  *DeviationMonitor
	source   PositionSource
	reranker Reranker
	observe  func(DeviationEvent)
	logger   zerolog.Logger

	samples chan Position
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	stopOnce  sync.Once
	startOnce sync.Once
	started   atomic.Bool

	mu             sync.RWMutex
	status         Status
	route          safety.RankedRoute
	lastKnown      *Position
	offRouteStreak int
	deviationCount int
	rerouteCount   int
	startedAt      time.Time
	stoppedAt      *time.Time
}

// NewSession creates an idle session for the given route. Call Start to
// begin sampling.
func NewSession(cfg SessionConfig) *Session {
	interval := cfg.SampleInterval
	if interval <= 0 {
		interval = DefaultSampleInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := "trk_" + uuid.New().String()[:22]

	return &Session{
		id:          id,
		travelerID:  cfg.TravelerID,
		destination: cfg.Destination,
		interval:    interval,
		monitor:     NewDeviationMonitor(cfg.Route.Route.Path, cfg.ToleranceMeters, cfg.DeviationStreak),
		source:      cfg.Source,
		reranker:    cfg.Reranker,
		observe:     cfg.OnDeviation,
		logger:      cfg.Logger.With().Str("session_id", id).Logger(),
		samples:     make(chan Position, defaultSampleBuffer),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		status:      StatusIdle,
		route:       cfg.Route,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// TravelerID returns the tracked traveler's identifier.
func (s *Session) TravelerID() string { return s.travelerID }

// Start transitions the session from idle to active and launches the
// sampling goroutine. Returns ErrAlreadyActive if called twice and
// ErrNotActive on a stopped session.
func (s *Session) Start() error {
	if s.ctx.Err() != nil {
		return ErrNotActive
	}

	var ok bool
	s.startOnce.Do(func() {
		s.mu.Lock()
		s.status = StatusActive
		s.startedAt = time.Now()
		s.mu.Unlock()
		s.started.Store(true)
		ok = true
		go s.loop()
	})
	if !ok {
		return ErrAlreadyActive
	}

	s.logger.Info().
		Str("traveler_id", s.travelerID).
		Str("route_id", s.route.Route.ID).
		Str("destination", s.destination).
		Msg("tracking session started")
	return nil
}

// ReportPosition pushes one sample into the session. Samples are
// processed strictly in arrival order. Returns ErrNotActive once the
// session has stopped; late samples are discarded, never applied.
func (s *Session) ReportPosition(pos Position) error {
	s.mu.RLock()
	active := s.status == StatusActive
	s.mu.RUnlock()
	if !active {
		return ErrNotActive
	}

	select {
	case s.samples <- pos:
		return nil
	case <-s.ctx.Done():
		return ErrNotActive
	}
}

// Stop transitions the session to idle and cancels all pending sampling.
// Idempotent: stopping a stopped session is a no-op. Any in-flight
// re-route resolves into a dead context and is discarded.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()

		s.mu.Lock()
		s.status = StatusIdle
		now := time.Now()
		s.stoppedAt = &now
		s.mu.Unlock()

		if s.started.Load() {
			<-s.done
		} else {
			close(s.done)
		}

		s.logger.Info().
			Str("traveler_id", s.travelerID).
			Msg("tracking session stopped")
	})
}

// Done is closed when the sampling goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// LastKnownPosition returns the most recent processed sample.
func (s *Session) LastKnownPosition() (Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastKnown == nil {
		return Position{}, false
	}
	return *s.lastKnown, true
}

// ActiveRoute returns the route the session is currently following. It
// changes after a successful deviation re-route.
func (s *Session) ActiveRoute() safety.RankedRoute {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.route
}

// Snapshot returns a point-in-time view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		SessionID:      s.id,
		TravelerID:     s.travelerID,
		Status:         s.status,
		Destination:    s.destination,
		RouteID:        s.route.Route.ID,
		RouteSummary:   s.route.Route.Summary,
		SafetyScore:    s.route.Score.Value,
		OffRouteStreak: s.offRouteStreak,
		DeviationCount: s.deviationCount,
		RerouteCount:   s.rerouteCount,
		StartedAt:      s.startedAt,
		StoppedAt:      s.stoppedAt,
	}
	if s.lastKnown != nil {
		pos := *s.lastKnown
		snap.LastKnownPosition = &pos
	}
	return snap
}

// loop consumes samples in order and polls the position source if one is
// configured. Exits when the session stops; buffered samples left behind
// are discarded.
func (s *Session) loop() {
	defer close(s.done)

	var tick <-chan time.Time
	if s.source != nil {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case pos := <-s.samples:
			s.process(pos)
		case <-tick:
			s.poll()
		}
	}
}

// poll fetches one sample from the position source. Fetch failures are
// logged and skipped; the next tick tries again.
func (s *Session) poll() {
	ctx, cancel := context.WithTimeout(s.ctx, s.interval)
	defer cancel()

	pos, err := s.source.CurrentPosition(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("position source fetch failed")
		return
	}
	s.process(pos)
}

// process applies one sample: update last-known position, classify it
// against the route path, and trigger a re-route on a confirmed
// deviation.
func (s *Session) process(pos Position) {
	if s.ctx.Err() != nil {
		return
	}
	if pos.RecordedAt.IsZero() {
		pos.RecordedAt = time.Now()
	}

	obs := s.monitor.Observe(pos.Coordinate)

	s.mu.Lock()
	p := pos
	s.lastKnown = &p
	s.offRouteStreak = obs.Streak
	if obs.OffRoute {
		s.deviationCount++
	}
	s.mu.Unlock()

	if !obs.OffRoute {
		return
	}

	event := DeviationEvent{
		SessionID:       s.id,
		TravelerID:      s.travelerID,
		Position:        pos,
		DistanceMeters:  obs.DistanceMeters,
		ToleranceMeters: s.monitor.ToleranceMeters(),
		Streak:          obs.Streak,
		Confirmed:       obs.Confirmed,
		OccurredAt:      time.Now(),
	}

	s.logger.Warn().
		Float64("distance_m", obs.DistanceMeters).
		Float64("tolerance_m", event.ToleranceMeters).
		Int("streak", obs.Streak).
		Bool("confirmed", obs.Confirmed).
		Msg("off-route position sample")

	if s.observe != nil {
		s.observe(event)
	}

	if obs.Confirmed {
		s.reroute(pos)
	}
}

// reroute recomputes routes from the traveler's current position to the
// original destination and adopts the new recommendation. A re-route
// that fails, or that resolves after the session stopped, leaves the
// active route untouched.
func (s *Session) reroute(pos Position) {
	if s.reranker == nil {
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, rerouteTimeout)
	defer cancel()

	set, err := s.reranker.Rank(ctx, pos.Coordinate.String(), s.destination)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("position", pos.Coordinate.String()).
			Msg("deviation re-route failed, keeping current route")
		return
	}
	if s.ctx.Err() != nil {
		return
	}

	recommended := set.Recommended()
	if recommended == nil {
		return
	}

	s.monitor.SetPath(recommended.Route.Path)

	s.mu.Lock()
	s.route = *recommended
	s.rerouteCount++
	s.offRouteStreak = 0
	s.mu.Unlock()

	s.logger.Info().
		Str("route_id", recommended.Route.ID).
		Int("safety_score", recommended.Score.Value).
		Str("from", pos.Coordinate.String()).
		Msg("adopted re-routed recommendation after deviation")
}
