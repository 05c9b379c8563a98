package tracking

import (
	"github.com/DNA-Coded/RakshaMarg/pkg/geo"
)

const (
	// DefaultToleranceMeters is how far a sample may sit from the route
	// path before it counts as off-route. Sized for urban GPS jitter.
	DefaultToleranceMeters = 50.0

	// DefaultDeviationStreak is how many consecutive off-route samples
	// confirm a genuine deviation rather than a noisy reading.
	DefaultDeviationStreak = 3
)

// Observation is the monitor's verdict on one sample.
type Observation struct {
	DistanceMeters float64
	OffRoute       bool
	Streak         int
	// Confirmed is true on exactly the sample that completes the streak.
	// The streak resets afterwards, so a continuing deviation confirms
	// again only after another full streak.
	Confirmed bool
}

// DeviationMonitor tracks consecutive off-route samples against the
// active route path. Not safe for concurrent use; each session owns one
// and drives it from its own goroutine.
type DeviationMonitor struct {
	path      []geo.Coordinate
	tolerance float64
	threshold int
	streak    int
}

// NewDeviationMonitor creates a monitor for the given path. Zero or
// negative tolerance/threshold fall back to the defaults.
func NewDeviationMonitor(path []geo.Coordinate, tolerance float64, threshold int) *DeviationMonitor {
	if tolerance <= 0 {
		tolerance = DefaultToleranceMeters
	}
	if threshold <= 0 {
		threshold = DefaultDeviationStreak
	}
	return &DeviationMonitor{
		path:      path,
		tolerance: tolerance,
		threshold: threshold,
	}
}

// Observe classifies one sample. An in-tolerance sample resets the
// streak; an over-tolerance sample extends it.
func (m *DeviationMonitor) Observe(pos geo.Coordinate) Observation {
	distance := geo.DistanceToPath(pos, m.path)
	if distance <= m.tolerance {
		m.streak = 0
		return Observation{DistanceMeters: distance}
	}

	m.streak++
	obs := Observation{
		DistanceMeters: distance,
		OffRoute:       true,
		Streak:         m.streak,
	}
	if m.streak >= m.threshold {
		obs.Confirmed = true
		m.streak = 0
	}
	return obs
}

// SetPath replaces the reference path and clears the streak. Called
// after a successful re-route.
func (m *DeviationMonitor) SetPath(path []geo.Coordinate) {
	m.path = path
	m.streak = 0
}

// Streak returns the current consecutive off-route count.
func (m *DeviationMonitor) Streak() int { return m.streak }

// ToleranceMeters returns the configured tolerance.
func (m *DeviationMonitor) ToleranceMeters() float64 { return m.tolerance }
