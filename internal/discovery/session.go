package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/xonecas/zoea-discovery/internal/galaxy"
)

// Session is the long-lived game state shared between the host and the
// discovery cycle. The host owns it and passes it to the worker by reference.
//
// Fleets and Slots are written only by the in-flight cycle. Celestials and the
// sleeping flag may be updated by other components, so they sit behind mu.
type Session struct {
	Server galaxy.ServerData
	Fleets []galaxy.FleetMission
	Slots  galaxy.SlotUsage

	mu         sync.RWMutex
	celestials []galaxy.Celestial
	sleeping   bool
}

// NewSession creates a session for the given universe.
func NewSession(server galaxy.ServerData) *Session {
	return &Session{Server: server}
}

// Celestials returns a copy of the owned celestials.
func (s *Session) Celestials() []galaxy.Celestial {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]galaxy.Celestial, len(s.celestials))
	copy(out, s.celestials)
	return out
}

// SetCelestials replaces the owned celestials.
func (s *Session) SetCelestials(c []galaxy.Celestial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.celestials = append([]galaxy.Celestial(nil), c...)
}

// Sleeping reports whether the agent is paused.
func (s *Session) Sleeping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sleeping
}

// SetSleeping pauses or resumes the agent.
func (s *Session) SetSleeping(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeping = v
}

// FleetSource refreshes the active fleet list.
type FleetSource interface {
	UpdateFleets(ctx context.Context) ([]galaxy.FleetMission, error)
}

// SlotSource refreshes fleet slots and reports the game clock.
type SlotSource interface {
	UpdateSlots(ctx context.Context) (galaxy.SlotUsage, error)
	ServerTime(ctx context.Context) (time.Time, error)
}

// ResourceSource re-reads the resources of a celestial.
type ResourceSource interface {
	UpdateResources(ctx context.Context, c galaxy.Celestial) (galaxy.Celestial, error)
}

// CelestialChecker refreshes the owned celestials after a cycle.
type CelestialChecker interface {
	CheckCelestials(ctx context.Context) error
}

// Game bundles the game-side collaborators a cycle needs.
type Game interface {
	FleetSource
	SlotSource
	ResourceSource
	Sender
	CelestialChecker
}

// Calculator resolves origins and measures distances.
type Calculator interface {
	ParseOrigins(expr string, celestials []galaxy.Celestial) []galaxy.Celestial
	Distance(a, b galaxy.Coordinate) float64
}

// Host receives the reschedule decision made at the end of every cycle.
type Host interface {
	ChangePeriod(interval time.Duration)
	EndExecution()
}

// Recorder persists cycle summaries.
type Recorder interface {
	RecordCycle(rec CycleRecord) (string, error)
}

// CycleRecord is the persisted summary of one cycle.
type CycleRecord struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Reason     Reason
	Origin     string
	Candidates int
	Dispatched int
	Failures   int
	Skips      int
	Stopped    bool
	Delayed    bool
	Interval   time.Duration
	Error      string
}
