// Package discovery implements the recurring discovery activity: each cycle
// picks a funded origin, walks the nearest unexplored positions of its galaxy
// and sends discovery fleets to them until a limit is hit.
package discovery

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/zoea-discovery/internal/constants"
	"github.com/xonecas/zoea-discovery/internal/core"
	"github.com/xonecas/zoea-discovery/internal/galaxy"
)

// Reason explains why a cycle ended.
type Reason string

const (
	ReasonSleeping              Reason = "sleeping"
	ReasonNoOrigins             Reason = "no_origins"
	ReasonOriginUnavailable     Reason = "origin_unavailable"
	ReasonInsufficientResources Reason = "insufficient_resources"
	ReasonMaxFailures           Reason = "max_failures"
	ReasonGalaxyExhausted       Reason = "galaxy_exhausted"
	ReasonNoSlots               Reason = "no_slots"
	ReasonQueueDrained          Reason = "queue_drained"
	ReasonLimitReached          Reason = "limit_reached"
	ReasonError                 Reason = "error"
)

// Outcome is what a cycle did and what it decided about the next one.
type Outcome struct {
	CycleID    string
	Reason     Reason
	Origin     galaxy.Celestial
	HasOrigin  bool
	Candidates int
	Dispatched int
	Failures   int
	Skips      int
	Stopped    bool
	Delayed    bool
	Interval   time.Duration
	NextRun    time.Time
	Err        error
}

// cycleState lives for one cycle only.
type cycleState struct {
	failures   int
	skips      int
	dispatched int
	stop       bool
	delay      bool
}

// Worker runs discovery cycles. It implements core.Activity.
type Worker struct {
	mu       sync.RWMutex
	settings Settings

	session   *Session
	game      Game
	calc      Calculator
	blacklist BlacklistStore
	host      Host
	bus       *core.EventBus
	recorder  Recorder

	rng *rand.Rand
	now func() time.Time
	log zerolog.Logger
}

// NewWorker creates a worker. A Host must be set before cycles run for the
// reschedule decision to reach anyone.
func NewWorker(settings Settings, session *Session, game Game, calc Calculator, blacklist BlacklistStore) *Worker {
	return &Worker{
		settings:  settings,
		session:   session,
		game:      game,
		calc:      calc,
		blacklist: blacklist,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
		log:       log.With().Str("worker", constants.ActivityName).Logger(),
	}
}

// SetHost sets who receives reschedule decisions.
func (w *Worker) SetHost(h Host) {
	w.host = h
}

// SetBus sets the event bus cycles report to.
func (w *Worker) SetBus(b *core.EventBus) {
	w.bus = b
}

// SetRecorder sets where cycle summaries are persisted.
func (w *Worker) SetRecorder(r Recorder) {
	w.recorder = r
}

// SetClock replaces the wall clock, for tests.
func (w *Worker) SetClock(now func() time.Time) {
	w.now = now
}

// SetRand replaces the random source, for tests.
func (w *Worker) SetRand(rng *rand.Rand) {
	w.rng = rng
}

// Settings returns the current settings.
func (w *Worker) Settings() Settings {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.settings
}

// UpdateSettings replaces the settings. The change applies from the next cycle.
func (w *Worker) UpdateSettings(s Settings) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.settings = s
}

// Name returns the activity name.
func (w *Worker) Name() string {
	return constants.ActivityName
}

// Enabled reports whether discovery is switched on.
func (w *Worker) Enabled() bool {
	return w.Settings().Active
}

// Run executes one cycle for the host runner.
func (w *Worker) Run(ctx context.Context) {
	w.RunCycle(ctx)
}

// RunCycle executes one full cycle. It never returns an error and never
// panics: failures are logged and the reschedule decision is always made.
func (w *Worker) RunCycle(ctx context.Context) (out Outcome) {
	settings := w.Settings()
	st := &cycleState{}
	started := w.now()
	w.emit(core.EventCycleStarted, nil)

	defer func() {
		if r := recover(); r != nil {
			out.Reason = ReasonError
			out.Err = fmt.Errorf("panic: %v", r)
			w.log.Error().Interface("panic", r).Msg("AutoDiscovery exception")
		}
		out.Dispatched = st.dispatched
		out.Failures = st.failures
		out.Skips = st.skips
		out.Stopped = st.stop
		out.Delayed = st.delay

		w.finalize(ctx, settings, &out)
		w.record(started, &out)
	}()

	reason, err := w.cycle(ctx, settings, st, &out)
	out.Reason = reason
	if err != nil {
		out.Reason = ReasonError
		out.Err = err
		w.log.Error().Err(err).Msg("AutoDiscovery exception")
	}
	return out
}

func (w *Worker) cycle(ctx context.Context, s Settings, st *cycleState, out *Outcome) (Reason, error) {
	if w.session.Sleeping() {
		st.stop = true
		return ReasonSleeping, nil
	}

	w.log.Info().Msg("Starting AutoDiscovery")
	if err := w.refreshFleetsAndSlots(ctx); err != nil {
		return ReasonError, err
	}

	origins := w.calc.ParseOrigins(s.OriginExpression, w.session.Celestials())
	if len(origins) == 0 {
		st.stop = true
		w.log.Warn().Str("origin_expression", s.OriginExpression).Msg("No valid AutoDiscovery origins")
		return ReasonNoOrigins, nil
	}

	origin, ok := SelectOrigin(origins, OriginReference, w.calc.Distance)
	if !ok {
		w.log.Warn().Int("candidates", len(origins)).Msg("No valid origin found")
		return ReasonOriginUnavailable, nil
	}
	out.Origin = origin
	out.HasOrigin = true

	queue := BuildDestinations(origin.Coordinate, s.SystemCount, w.rng, w.calc.Distance)
	out.Candidates = queue.Len()
	total := s.TotalDestinations()

	for queue.Len() > 0 {
		if w.limitReached(s) {
			return ReasonLimitReached, nil
		}

		dest, _ := queue.Next()
		now := w.now()

		active, err := w.blacklist.IsActive(dest, now)
		if err != nil {
			return ReasonError, fmt.Errorf("check blacklist: %w", err)
		}
		if active {
			st.skips++
			if st.skips >= total {
				w.log.Info().Int("skips", st.skips).Msg("Galaxy depleted: stopping")
				st.stop = true
				return ReasonGalaxyExhausted, nil
			}
			continue
		}
		if _, err := w.blacklist.EvictIfExpired(dest, now); err != nil {
			return ReasonError, fmt.Errorf("evict blacklist entry: %w", err)
		}

		origin, err = w.game.UpdateResources(ctx, origin)
		if err != nil {
			return ReasonError, fmt.Errorf("update resources: %w", err)
		}
		out.Origin = origin
		if !origin.Resources.IsEnoughFor(MinResources) {
			w.log.Warn().Stringer("origin", origin).Stringer("resources", origin.Resources).
				Msg("Failed to send discovery fleet: not enough resources")
			return ReasonInsufficientResources, nil
		}

		if err := w.attempt(ctx, st, origin, dest); err != nil {
			return ReasonError, err
		}

		if st.failures >= s.MaxFailuresBeforeStop {
			w.log.Warn().Int("failures", st.failures).Msg("Max failures reached")
			return ReasonMaxFailures, nil
		}

		if err := w.refreshFleetsAndSlots(ctx); err != nil {
			return ReasonError, err
		}
		if w.session.Slots.Free <= constants.MinFreeSlotsToContinue {
			w.log.Info().Int("free_slots", w.session.Slots.Free).Msg("No slots left, delaying")
			st.delay = true
			return ReasonNoSlots, nil
		}
	}

	return ReasonQueueDrained, nil
}

// attempt sends one fleet and puts the destination on cooldown either way.
func (w *Worker) attempt(ctx context.Context, st *cycleState, origin galaxy.Celestial, dest galaxy.Coordinate) error {
	data := core.MissionData{Origin: origin.String(), Destination: dest.String()}

	if !Dispatch(ctx, w.game, origin, dest, w.log) {
		st.failures++
		w.log.Warn().Stringer("destination", dest).Stringer("origin", origin).Msg("Failed to send discovery fleet")
		w.emit(core.EventMissionFailed, data)
		if err := w.blacklist.Insert(dest, w.now().Add(constants.FailureCooldown)); err != nil {
			return fmt.Errorf("blacklist %s: %w", dest, err)
		}
		return nil
	}

	st.dispatched++
	w.log.Info().Stringer("destination", dest).Stringer("origin", origin).Msg("Sent discovery fleet")
	w.emit(core.EventMissionSent, data)
	if err := w.blacklist.Insert(dest, w.now().Add(constants.SuccessCooldown)); err != nil {
		return fmt.Errorf("blacklist %s: %w", dest, err)
	}
	return nil
}

func (w *Worker) limitReached(s Settings) bool {
	active := galaxy.CountMissions(w.session.Fleets, galaxy.MissionDiscovery)
	return active >= s.MaxConcurrentMissions || w.session.Slots.Free <= s.ReservedFreeSlots
}

func (w *Worker) refreshFleetsAndSlots(ctx context.Context) error {
	fleets, err := w.game.UpdateFleets(ctx)
	if err != nil {
		return fmt.Errorf("update fleets: %w", err)
	}
	w.session.Fleets = fleets

	slots, err := w.game.UpdateSlots(ctx)
	if err != nil {
		return fmt.Errorf("update slots: %w", err)
	}
	w.session.Slots = slots
	return nil
}

// finalize makes the reschedule decision and refreshes celestials. It runs on
// every exit path of a cycle.
func (w *Worker) finalize(ctx context.Context, s Settings, out *Outcome) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().Interface("panic", r).Msg("AutoDiscovery finalize exception")
		}
		if err := w.game.CheckCelestials(ctx); err != nil {
			w.log.Warn().Err(err).Msg("Failed to refresh celestials")
		}
	}()

	if out.Stopped {
		w.log.Info().Str("reason", string(out.Reason)).Msg("Stopping feature")
		if w.host != nil {
			w.host.EndExecution()
		}
		return
	}

	var soonest time.Duration
	if out.Delayed {
		w.log.Info().Msg("Delaying")
		if fleets, err := w.game.UpdateFleets(ctx); err != nil {
			w.log.Warn().Err(err).Msg("Failed to refresh fleets for delay")
		} else {
			w.session.Fleets = fleets
		}
		soonest = galaxy.SoonestReturn(w.session.Fleets)
	}

	out.Interval = NextInterval(w.rng, s.CheckIntervalMin, s.CheckIntervalMax, out.Delayed, soonest)

	base := w.now()
	if t, err := w.game.ServerTime(ctx); err != nil {
		w.log.Debug().Err(err).Msg("Server time unavailable, using local clock")
	} else {
		base = t
	}
	out.NextRun = base.Add(out.Interval)

	if w.host != nil {
		w.host.ChangePeriod(out.Interval)
	}
	w.log.Info().Time("next_run", out.NextRun).Dur("interval", out.Interval).Msg("Next AutoDiscovery check")
}

func (w *Worker) record(started time.Time, out *Outcome) {
	if w.recorder != nil {
		rec := CycleRecord{
			StartedAt:  started,
			FinishedAt: w.now(),
			Reason:     out.Reason,
			Candidates: out.Candidates,
			Dispatched: out.Dispatched,
			Failures:   out.Failures,
			Skips:      out.Skips,
			Stopped:    out.Stopped,
			Delayed:    out.Delayed,
			Interval:   out.Interval,
		}
		if out.HasOrigin {
			rec.Origin = out.Origin.Coordinate.String()
		}
		if out.Err != nil {
			rec.Error = out.Err.Error()
		}
		id, err := w.recorder.RecordCycle(rec)
		if err != nil {
			w.log.Warn().Err(err).Msg("Failed to record cycle")
		}
		out.CycleID = id
	}

	data := core.CycleData{
		CycleID:    out.CycleID,
		Reason:     string(out.Reason),
		Dispatched: out.Dispatched,
		Failures:   out.Failures,
		Skips:      out.Skips,
		Stopped:    out.Stopped,
		Delayed:    out.Delayed,
		Interval:   out.Interval,
		NextRun:    out.NextRun,
	}
	if out.HasOrigin {
		data.Origin = out.Origin.String()
	}
	if out.Err != nil {
		data.Err = out.Err.Error()
	}
	w.emit(core.EventCycleFinished, data)
}

func (w *Worker) emit(t core.EventType, data interface{}) {
	if w.bus == nil {
		return
	}
	w.bus.Publish(core.Event{
		Type:      t,
		Activity:  constants.ActivityName,
		Data:      data,
		Timestamp: time.Now(),
	})
}
