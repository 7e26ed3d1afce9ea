package discovery

import (
	"context"
	"math/rand"
	"time"

	"github.com/xonecas/zoea-discovery/internal/galaxy"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeGame struct {
	fleets    []galaxy.FleetMission
	slots     galaxy.SlotUsage
	resources *galaxy.Resources

	// send decides the outcome for a destination; nil means success.
	send func(dest galaxy.Coordinate) (bool, error)
	// afterSend lets a test change game state once a fleet left.
	afterSend func(g *fakeGame, dest galaxy.Coordinate, ok bool)

	fleetErr    error
	fleetCalls  int
	slotCalls   int
	sent        []galaxy.Coordinate
	attempted   []galaxy.Coordinate
	checkCalls  int
	serverTime  time.Time
	serverErr   error
	resourceErr error
}

func (g *fakeGame) UpdateFleets(ctx context.Context) ([]galaxy.FleetMission, error) {
	g.fleetCalls++
	if g.fleetErr != nil {
		return nil, g.fleetErr
	}
	return append([]galaxy.FleetMission(nil), g.fleets...), nil
}

func (g *fakeGame) UpdateSlots(ctx context.Context) (galaxy.SlotUsage, error) {
	g.slotCalls++
	return g.slots, nil
}

func (g *fakeGame) ServerTime(ctx context.Context) (time.Time, error) {
	if g.serverErr != nil {
		return time.Time{}, g.serverErr
	}
	if g.serverTime.IsZero() {
		return testNow, nil
	}
	return g.serverTime, nil
}

func (g *fakeGame) UpdateResources(ctx context.Context, c galaxy.Celestial) (galaxy.Celestial, error) {
	if g.resourceErr != nil {
		return c, g.resourceErr
	}
	if g.resources != nil {
		c.Resources = *g.resources
	}
	return c, nil
}

func (g *fakeGame) SendDiscovery(ctx context.Context, origin galaxy.Celestial, dest galaxy.Coordinate) (bool, error) {
	g.attempted = append(g.attempted, dest)
	ok, err := true, error(nil)
	if g.send != nil {
		ok, err = g.send(dest)
	}
	if ok && err == nil {
		g.sent = append(g.sent, dest)
	}
	if g.afterSend != nil {
		g.afterSend(g, dest, ok && err == nil)
	}
	return ok, err
}

func (g *fakeGame) CheckCelestials(ctx context.Context) error {
	g.checkCalls++
	return nil
}

type fakeHost struct {
	intervals []time.Duration
	ended     int
}

func (h *fakeHost) ChangePeriod(d time.Duration) { h.intervals = append(h.intervals, d) }
func (h *fakeHost) EndExecution()                { h.ended++ }

type fakeRecorder struct {
	records []CycleRecord
}

func (r *fakeRecorder) RecordCycle(rec CycleRecord) (string, error) {
	r.records = append(r.records, rec)
	return "cycle-1", nil
}

func testSettings() Settings {
	return Settings{
		Active:                true,
		MaxConcurrentMissions: 100,
		MaxFailuresBeforeStop: 3,
		CheckIntervalMin:      10 * time.Minute,
		CheckIntervalMax:      20 * time.Minute,
		OriginExpression:      "planets",
		ReservedFreeSlots:     0,
		SystemCount:           5,
	}
}

func thresholdOrigin() galaxy.Celestial {
	return galaxy.Celestial{
		ID:         1,
		Name:       "Homeworld",
		Type:       galaxy.CelestialPlanet,
		Coordinate: galaxy.Coordinate{Galaxy: 1, System: 3, Position: 8},
		Resources:  MinResources,
	}
}

type testEnv struct {
	worker    *Worker
	game      *fakeGame
	host      *fakeHost
	blacklist *MemoryBlacklist
	session   *Session
	calc      *galaxy.Calculator
	recorder  *fakeRecorder
}

func newTestEnv(settings Settings, celestials ...galaxy.Celestial) *testEnv {
	server := galaxy.ServerData{Galaxies: 9, Systems: settings.SystemCount}
	session := NewSession(server)
	if len(celestials) == 0 {
		celestials = []galaxy.Celestial{thresholdOrigin()}
	}
	session.SetCelestials(celestials)

	game := &fakeGame{slots: galaxy.SlotUsage{Total: 20, Used: 0, Free: 20}}
	calc := galaxy.NewCalculator(server)
	bl := NewMemoryBlacklist()
	host := &fakeHost{}
	rec := &fakeRecorder{}

	w := NewWorker(settings, session, game, calc, bl)
	w.SetHost(host)
	w.SetRecorder(rec)
	w.SetClock(func() time.Time { return testNow })
	w.SetRand(rand.New(rand.NewSource(42)))

	return &testEnv{
		worker:    w,
		game:      game,
		host:      host,
		blacklist: bl,
		session:   session,
		calc:      calc,
		recorder:  rec,
	}
}
