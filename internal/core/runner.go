package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// stopEventTimeout bounds how long EndExecution waits for slow subscribers.
const stopEventTimeout = 100 * time.Millisecond

// Activity is a recurring unit of work driven by a Runner.
type Activity interface {
	// Name identifies the activity in logs and events.
	Name() string

	// Enabled reports whether the activity should run at all.
	Enabled() bool

	// Run executes one cycle. The activity reschedules itself through the
	// Runner's ChangePeriod and EndExecution during the call.
	Run(ctx context.Context)
}

// Runner invokes an Activity on a timer. At most one cycle runs at a time.
type Runner struct {
	mu sync.RWMutex
	wg sync.WaitGroup

	activity      Activity
	bus           *EventBus
	defaultPeriod time.Duration

	state   RunnerState
	nextRun time.Time
	ended   bool
	cancel  context.CancelFunc
	wake    chan struct{}
	flight  singleflight.Group
	now     func() time.Time
}

// NewRunner creates a runner. defaultPeriod is used when a cycle does not
// reschedule itself and while the activity is disabled.
func NewRunner(a Activity, bus *EventBus, defaultPeriod time.Duration) *Runner {
	if defaultPeriod <= 0 {
		defaultPeriod = time.Minute
	}
	return &Runner{
		activity:      a,
		bus:           bus,
		defaultPeriod: defaultPeriod,
		state:         RunnerStateIdle,
		wake:          make(chan struct{}, 1),
		now:           time.Now,
	}
}

// State returns the runner's current state.
func (r *Runner) State() RunnerState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// NextRun returns when the next cycle is planned. Zero when stopped.
func (r *Runner) NextRun() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.ended {
		return time.Time{}
	}
	return r.nextRun
}

// Ended reports whether the activity deactivated itself.
func (r *Runner) Ended() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ended
}

// Start begins the timer loop. The first cycle runs after initialDelay.
func (r *Runner) Start(ctx context.Context, initialDelay time.Duration) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return fmt.Errorf("runner already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.nextRun = r.now().Add(initialDelay)
	r.mu.Unlock()

	r.setState(RunnerStateWaiting)

	r.wg.Add(1)
	go r.loop(ctx)
	return nil
}

// Stop cancels the loop and waits for an in-flight cycle to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
	r.setState(RunnerStateIdle)
}

// ChangePeriod schedules the next cycle interval from now.
func (r *Runner) ChangePeriod(interval time.Duration) {
	r.mu.Lock()
	r.nextRun = r.now().Add(interval)
	next := r.nextRun
	r.mu.Unlock()

	r.publish(EventCycleRescheduled, RescheduleData{Interval: interval, NextRun: next})
	r.poke()
}

// EndExecution deactivates the activity until Reactivate is called.
func (r *Runner) EndExecution() {
	r.mu.Lock()
	r.ended = true
	r.mu.Unlock()

	log.Info().Str("activity", r.activity.Name()).Msg("Activity deactivated")
	if r.bus != nil {
		r.bus.PublishBlocking(Event{
			Type:      EventActivityStopped,
			Activity:  r.activity.Name(),
			Timestamp: time.Now(),
		}, stopEventTimeout)
	}
	r.setState(RunnerStateStopped)
	r.poke()
}

// Reactivate resumes a deactivated activity after delay.
func (r *Runner) Reactivate(delay time.Duration) {
	r.mu.Lock()
	wasEnded := r.ended
	r.ended = false
	r.nextRun = r.now().Add(delay)
	r.mu.Unlock()

	if wasEnded {
		log.Info().Str("activity", r.activity.Name()).Dur("delay", delay).Msg("Activity reactivated")
		r.publish(EventActivityResumed, nil)
		r.setState(RunnerStateWaiting)
	}
	r.poke()
}

// Trigger asks for a cycle as soon as possible.
func (r *Runner) Trigger() {
	r.mu.Lock()
	r.nextRun = r.now()
	r.mu.Unlock()
	r.poke()
}

// RunOnce runs a single cycle unless the activity is disabled or deactivated.
// Concurrent callers share the in-flight cycle instead of starting another.
// It reports whether a cycle ran.
func (r *Runner) RunOnce(ctx context.Context) bool {
	name := r.activity.Name()

	if r.Ended() {
		return false
	}
	if !r.activity.Enabled() {
		log.Debug().Str("activity", name).Msg("Activity disabled, skipping cycle")
		r.mu.Lock()
		r.nextRun = r.now().Add(r.defaultPeriod)
		r.mu.Unlock()
		return false
	}

	v, _, _ := r.flight.Do(name, func() (interface{}, error) {
		r.mu.Lock()
		r.nextRun = r.now().Add(r.defaultPeriod)
		r.mu.Unlock()

		r.setState(RunnerStateRunning)
		defer func() {
			if !r.Ended() {
				r.setState(RunnerStateWaiting)
			}
		}()

		r.activity.Run(ctx)
		return true, nil
	})
	ran, _ := v.(bool)
	return ran
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()

	for {
		r.mu.RLock()
		ended := r.ended
		wait := r.nextRun.Sub(r.now())
		r.mu.RUnlock()

		var fire <-chan time.Time
		var timer *time.Timer
		if !ended {
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-r.wake:
			if timer != nil {
				timer.Stop()
			}
		case <-fire:
			r.RunOnce(ctx)
		}
	}
}

func (r *Runner) poke() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runner) setState(state RunnerState) {
	r.mu.Lock()
	old := r.state
	r.state = state
	r.mu.Unlock()

	if old != state {
		r.publish(EventRunnerState, StateChangeData{OldState: old, NewState: state})
	}
}

func (r *Runner) publish(t EventType, data interface{}) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(Event{
		Type:      t,
		Activity:  r.activity.Name(),
		Data:      data,
		Timestamp: time.Now(),
	})
}
