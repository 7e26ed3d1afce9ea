package integration

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/xonecas/zoea-discovery/internal/config"
	"github.com/xonecas/zoea-discovery/internal/core"
	"github.com/xonecas/zoea-discovery/internal/discovery"
	"github.com/xonecas/zoea-discovery/internal/galaxy"
	"github.com/xonecas/zoea-discovery/internal/mcp"
	"github.com/xonecas/zoea-discovery/internal/store"
)

type harness struct {
	store   *store.Store
	session *discovery.Session
	bus     *core.EventBus
	worker  *discovery.Worker
	runner  *core.Runner
}

// newHarness wires the full agent against the simulated game.
func newHarness(t *testing.T, s *store.Store, seed int64) *harness {
	t.Helper()
	ctx := context.Background()

	cfg := config.DefaultConfig()
	stub := mcp.NewStubClient()
	if _, err := stub.Initialize(ctx, nil); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	session := discovery.NewSession(galaxy.ServerData{Galaxies: cfg.Server.Galaxies, Systems: cfg.Server.Systems})
	bridge := mcp.NewBridge(stub, session, 1000, 100)

	data, err := bridge.ServerData(ctx)
	if err != nil {
		t.Fatalf("ServerData() error: %v", err)
	}
	session.Server = data
	if err := bridge.CheckCelestials(ctx); err != nil {
		t.Fatalf("CheckCelestials() error: %v", err)
	}

	bus := core.NewEventBus(100)
	worker := discovery.NewWorker(discovery.SettingsFromConfig(cfg), session, bridge, galaxy.NewCalculator(data), s.Blacklist())
	worker.SetRand(rand.New(rand.NewSource(seed)))
	worker.SetBus(bus)
	worker.SetRecorder(s)

	runner := core.NewRunner(worker, bus, time.Hour)
	worker.SetHost(runner)

	return &harness{store: s, session: session, bus: bus, worker: worker, runner: runner}
}

func TestDiscoveryFlow(t *testing.T) {
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer s.Close()

	h := newHarness(t, s, 7)
	defer h.bus.Close()
	events := h.bus.Subscribe()

	before := time.Now()
	if !h.runner.RunOnce(context.Background()) {
		t.Fatal("expected cycle to run")
	}

	cycles, err := s.RecentCycles(1)
	if err != nil {
		t.Fatalf("RecentCycles() error: %v", err)
	}
	if len(cycles) != 1 {
		t.Fatalf("expected 1 recorded cycle, got %d", len(cycles))
	}
	c := cycles[0]

	// The homeworld's own position is the nearest target and is refused.
	if c.Reason != discovery.ReasonLimitReached {
		t.Errorf("expected reason %s, got %s", discovery.ReasonLimitReached, c.Reason)
	}
	if c.Origin != "[1:42:8]" {
		t.Errorf("expected origin [1:42:8], got %s", c.Origin)
	}
	if c.Dispatched != 4 || c.Failures != 1 {
		t.Errorf("expected 4 sent and 1 failure, got %d and %d", c.Dispatched, c.Failures)
	}

	entries, err := s.Blacklist().Entries()
	if err != nil {
		t.Fatalf("Entries() error: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 blacklist entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Coordinate.Galaxy != 1 || e.Coordinate.System != 42 {
			t.Errorf("expected nearest targets in [1:42], got %s", e.Coordinate)
		}
		want := 7 * 24 * time.Hour
		if e.Coordinate.Position == 8 {
			want = 24 * time.Hour
		}
		if d := e.Expiry.Sub(before); d < want || d > want+time.Minute {
			t.Errorf("%s: expected cooldown %v, got %v", e.Coordinate, want, d)
		}
	}

	next := h.runner.NextRun().Sub(before)
	if next < 10*time.Minute || next > 21*time.Minute {
		t.Errorf("expected next run in [10m, 20m], got %v", next)
	}

	counts := map[core.EventType]int{}
	for len(events) > 0 {
		counts[(<-events).Type]++
	}
	if counts[core.EventMissionSent] != 4 || counts[core.EventMissionFailed] != 1 {
		t.Errorf("unexpected mission events: %v", counts)
	}
	if counts[core.EventCycleFinished] != 1 || counts[core.EventCycleRescheduled] != 1 {
		t.Errorf("unexpected cycle events: %v", counts)
	}

	// All four discovery fleets are still out.
	if !h.runner.RunOnce(context.Background()) {
		t.Fatal("expected second cycle to run")
	}
	cycles, _ = s.RecentCycles(1)
	if cycles[0].Dispatched != 0 || cycles[0].Reason != discovery.ReasonLimitReached {
		t.Errorf("expected an empty limit-reached cycle, got %+v", cycles[0].CycleRecord)
	}
}

func TestBlacklistSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discovery.db")

	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	h := newHarness(t, s, 1)
	first := h.worker.RunCycle(context.Background())
	h.bus.Close()
	if first.Dispatched != 4 {
		t.Fatalf("expected 4 dispatched, got %d", first.Dispatched)
	}
	firstEntries, _ := s.Blacklist().Entries()
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	s, err = store.Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s.Close()

	// A fresh game has no fleets out, so the next four targets go out.
	h = newHarness(t, s, 2)
	defer h.bus.Close()
	second := h.worker.RunCycle(context.Background())

	if second.Skips != len(firstEntries) {
		t.Errorf("expected %d skips, got %d", len(firstEntries), second.Skips)
	}
	if second.Dispatched != 4 || second.Failures != 0 {
		t.Errorf("expected 4 sent without failures, got %d sent %d failed", second.Dispatched, second.Failures)
	}

	entries, err := s.Blacklist().Entries()
	if err != nil {
		t.Fatalf("Entries() error: %v", err)
	}
	if len(entries) != len(firstEntries)+4 {
		t.Errorf("expected %d entries, got %d", len(firstEntries)+4, len(entries))
	}

	cycles, _ := s.RecentCycles(10)
	if len(cycles) != 2 {
		t.Errorf("expected 2 cycles in history, got %d", len(cycles))
	}
}

func TestSleepingStopsActivity(t *testing.T) {
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	defer s.Close()

	h := newHarness(t, s, 3)
	defer h.bus.Close()

	h.runner.RunOnce(context.Background())
	if h.runner.Ended() {
		t.Fatal("runner should still be active")
	}

	// Sleeping deactivates the activity until it is reactivated.
	h.session.SetSleeping(true)
	h.runner.RunOnce(context.Background())
	if !h.runner.Ended() {
		t.Fatal("expected runner to end while sleeping")
	}
	if h.runner.RunOnce(context.Background()) {
		t.Error("ended runner must not run")
	}

	h.session.SetSleeping(false)
	h.runner.Reactivate(0)
	if !h.runner.RunOnce(context.Background()) {
		t.Error("expected reactivated runner to run")
	}
}
