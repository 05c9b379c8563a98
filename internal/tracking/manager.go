package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DNA-Coded/RakshaMarg/internal/safety"
)

// ManagerConfig holds configuration for the session manager.
type ManagerConfig struct {
	// Reranker recomputes routes after confirmed deviations.
	Reranker Reranker

	// ToleranceMeters and DeviationStreak apply to every session.
	// Zero values fall back to the package defaults.
	ToleranceMeters float64
	DeviationStreak int

	// SampleInterval is the polling cadence for sessions with a
	// position source.
	SampleInterval time.Duration

	// OnDeviation observes deviation events across all sessions.
	OnDeviation func(DeviationEvent)

	// Logger for manager operations.
	Logger zerolog.Logger
}

// Manager owns at most one active session per traveler. Each session is
// an independently owned handle; the manager only maps travelers to
// sessions and applies the one-session policy.
type Manager struct {
	cfg ManagerConfig

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a new session manager.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// StartRequest describes one session start.
type StartRequest struct {
	TravelerID  string
	Route       safety.RankedRoute
	Destination string
	Source      PositionSource
}

// Start creates and starts a session for the traveler. Returns
// ErrAlreadyActive while a prior session is still running; the caller
// must stop it first.
func (m *Manager) Start(_ context.Context, req StartRequest) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[req.TravelerID]; ok {
		if existing.Snapshot().Status == StatusActive {
			return nil, ErrAlreadyActive
		}
		delete(m.sessions, req.TravelerID)
	}

	session := NewSession(SessionConfig{
		TravelerID:      req.TravelerID,
		Route:           req.Route,
		Destination:     req.Destination,
		ToleranceMeters: m.cfg.ToleranceMeters,
		DeviationStreak: m.cfg.DeviationStreak,
		Source:          req.Source,
		SampleInterval:  m.cfg.SampleInterval,
		Reranker:        m.cfg.Reranker,
		OnDeviation:     m.cfg.OnDeviation,
		Logger:          m.cfg.Logger,
	})
	if err := session.Start(); err != nil {
		return nil, err
	}

	m.sessions[req.TravelerID] = session
	return session, nil
}

// RecordPosition pushes a sample into the traveler's active session.
func (m *Manager) RecordPosition(travelerID string, pos Position) error {
	session, ok := m.lookup(travelerID)
	if !ok {
		return ErrSessionNotFound
	}
	return session.ReportPosition(pos)
}

// Stop stops the traveler's session. Stopping a traveler with no active
// session is a no-op.
func (m *Manager) Stop(travelerID string) {
	m.mu.Lock()
	session, ok := m.sessions[travelerID]
	if ok {
		delete(m.sessions, travelerID)
	}
	m.mu.Unlock()

	if ok {
		session.Stop()
	}
}

// Get returns the traveler's session, stopped or active, if one exists.
func (m *Manager) Get(travelerID string) (*Session, bool) {
	return m.lookup(travelerID)
}

// Snapshot returns the traveler's session state.
func (m *Manager) Snapshot(travelerID string) (Snapshot, error) {
	session, ok := m.lookup(travelerID)
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// ActiveCount returns how many sessions the manager currently holds.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StopAll stops every session. Used during shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}

func (m *Manager) lookup(travelerID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[travelerID]
	return session, ok
}
