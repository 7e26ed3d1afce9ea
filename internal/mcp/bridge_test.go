package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xonecas/zoea-discovery/internal/discovery"
	"github.com/xonecas/zoea-discovery/internal/galaxy"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func setupStubBridge(t *testing.T) (*Bridge, *StubClient, *discovery.Session, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	stub := newStubClient(clock.Now)
	session := discovery.NewSession(stub.server)
	return NewBridge(stub, session, 1000, 100), stub, session, clock
}

func TestBridgeCheckCelestials(t *testing.T) {
	bridge, _, session, _ := setupStubBridge(t)

	if err := bridge.CheckCelestials(context.Background()); err != nil {
		t.Fatalf("CheckCelestials() error: %v", err)
	}
	got := session.Celestials()
	if len(got) != 3 {
		t.Fatalf("expected 3 celestials, got %d", len(got))
	}
	if got[0].Name != "Homeworld" || got[1].Type != galaxy.CelestialMoon {
		t.Errorf("unexpected celestials: %+v", got)
	}
}

func TestBridgeSendDiscovery(t *testing.T) {
	bridge, _, session, _ := setupStubBridge(t)
	ctx := context.Background()

	if err := bridge.CheckCelestials(ctx); err != nil {
		t.Fatalf("CheckCelestials() error: %v", err)
	}
	home := session.Celestials()[0]
	dest := galaxy.Coordinate{Galaxy: 1, System: 43, Position: 8}

	ok, err := bridge.SendDiscovery(ctx, home, dest)
	if err != nil {
		t.Fatalf("SendDiscovery() error: %v", err)
	}
	if !ok {
		t.Fatal("expected discovery to be accepted")
	}

	fleets, err := bridge.UpdateFleets(ctx)
	if err != nil {
		t.Fatalf("UpdateFleets() error: %v", err)
	}
	if len(fleets) != 1 {
		t.Fatalf("expected 1 fleet, got %d", len(fleets))
	}
	if fleets[0].Mission != galaxy.MissionDiscovery || fleets[0].Destination != dest {
		t.Errorf("unexpected fleet: %+v", fleets[0])
	}
	if fleets[0].BackIn == nil || *fleets[0].BackIn != stubFlightSeconds {
		t.Errorf("expected back_in %d, got %v", stubFlightSeconds, fleets[0].BackIn)
	}

	slots, err := bridge.UpdateSlots(ctx)
	if err != nil {
		t.Fatalf("UpdateSlots() error: %v", err)
	}
	if slots.Used != 1 || slots.Free != stubSlots-1 {
		t.Errorf("unexpected slots: %+v", slots)
	}

	updated, err := bridge.UpdateResources(ctx, home)
	if err != nil {
		t.Fatalf("UpdateResources() error: %v", err)
	}
	if updated.Resources.Metal != home.Resources.Metal-5000 {
		t.Errorf("expected metal %d, got %d", home.Resources.Metal-5000, updated.Resources.Metal)
	}
}

func TestBridgeSendDiscoveryRefused(t *testing.T) {
	bridge, _, session, _ := setupStubBridge(t)
	ctx := context.Background()
	bridge.CheckCelestials(ctx)
	cels := session.Celestials()

	tests := []struct {
		name   string
		origin galaxy.Celestial
		dest   galaxy.Coordinate
	}{
		{"occupied", cels[0], cels[2].Coordinate},
		{"poor moon", cels[1], galaxy.Coordinate{Galaxy: 1, System: 1, Position: 1}},
		{"out of range", cels[0], galaxy.Coordinate{Galaxy: 1, System: 500, Position: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := bridge.SendDiscovery(ctx, tt.origin, tt.dest)
			if err != nil {
				t.Fatalf("SendDiscovery() error: %v", err)
			}
			if ok {
				t.Error("expected refusal")
			}
		})
	}
}

func TestStubFleetsReturn(t *testing.T) {
	bridge, _, session, clock := setupStubBridge(t)
	ctx := context.Background()
	bridge.CheckCelestials(ctx)
	home := session.Celestials()[0]

	for p := 1; p <= stubSlots; p++ {
		ok, err := bridge.SendDiscovery(ctx, home, galaxy.Coordinate{Galaxy: 1, System: 50, Position: p})
		if err != nil || !ok {
			t.Fatalf("SendDiscovery(%d) = %v, %v", p, ok, err)
		}
	}
	ok, _ := bridge.SendDiscovery(ctx, home, galaxy.Coordinate{Galaxy: 1, System: 51, Position: 1})
	if ok {
		t.Fatal("expected refusal with all slots used")
	}

	clock.Advance(30 * time.Minute)
	fleets, _ := bridge.UpdateFleets(ctx)
	if got := galaxy.SoonestReturn(fleets); got != 30*time.Minute {
		t.Errorf("expected soonest return 30m, got %v", got)
	}

	clock.Advance(31 * time.Minute)
	slots, err := bridge.UpdateSlots(ctx)
	if err != nil {
		t.Fatalf("UpdateSlots() error: %v", err)
	}
	if slots.Free != stubSlots {
		t.Errorf("expected all slots free, got %+v", slots)
	}

	// An hour of production on the home planet.
	updated, _ := bridge.UpdateResources(ctx, home)
	want := home.Resources.Metal - int64(stubSlots)*5000 + int64(stubProductionPH*61/60)
	if updated.Resources.Metal != want {
		t.Errorf("expected metal %d, got %d", want, updated.Resources.Metal)
	}
}

func TestBridgeServerTimeAndData(t *testing.T) {
	bridge, _, _, clock := setupStubBridge(t)
	ctx := context.Background()

	ts, err := bridge.ServerTime(ctx)
	if err != nil {
		t.Fatalf("ServerTime() error: %v", err)
	}
	if !ts.Equal(clock.Now()) {
		t.Errorf("expected %v, got %v", clock.Now(), ts)
	}

	data, err := bridge.ServerData(ctx)
	if err != nil {
		t.Fatalf("ServerData() error: %v", err)
	}
	if data.Systems != 499 || !data.DonutSystem {
		t.Errorf("unexpected server data: %+v", data)
	}
}

func TestBridgeToolError(t *testing.T) {
	bridge, _, _, _ := setupStubBridge(t)

	_, err := bridge.UpdateResources(context.Background(), galaxy.Celestial{ID: 99})
	if !errors.Is(err, ErrToolFailed) {
		t.Fatalf("expected ErrToolFailed, got %v", err)
	}
}

func TestBridgeRateLimitCancelled(t *testing.T) {
	stub := NewStubClient()
	bridge := NewBridge(stub, discovery.NewSession(stub.server), 0.001, 1)

	ctx := context.Background()
	if _, err := bridge.UpdateSlots(ctx); err != nil {
		t.Fatalf("first UpdateSlots() error: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := bridge.UpdateSlots(ctx); err == nil {
		t.Fatal("expected rate limiter to give up on cancelled context")
	}
}

func TestBridgeOverHTTP(t *testing.T) {
	stub := NewStubClient()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		json.NewDecoder(r.Body).Decode(&req)

		var params CallToolParams
		json.Unmarshal(req.Params, &params)
		var args map[string]interface{}
		if len(params.Arguments) > 0 {
			json.Unmarshal(params.Arguments, &args)
		}

		result, err := stub.CallTool(r.Context(), params.Name, args)
		if err != nil {
			json.NewEncoder(w).Encode(NewErrorResponse(req.ID, ErrorCodeInternalError, err.Error()))
			return
		}
		resp, _ := NewResponse(req.ID, result)
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	session := discovery.NewSession(stub.server)
	bridge := NewBridge(NewClient(server.URL), session, 1000, 100)
	ctx := context.Background()

	if err := bridge.CheckCelestials(ctx); err != nil {
		t.Fatalf("CheckCelestials() error: %v", err)
	}
	home := session.Celestials()[0]
	ok, err := bridge.SendDiscovery(ctx, home, galaxy.Coordinate{Galaxy: 1, System: 7, Position: 3})
	if err != nil {
		t.Fatalf("SendDiscovery() error: %v", err)
	}
	if !ok {
		t.Error("expected discovery to be accepted")
	}
}
