package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/xonecas/zoea-discovery/internal/constants"
	"github.com/xonecas/zoea-discovery/internal/galaxy"
)

// Offline game tuning.
const (
	stubSlots         = 6
	stubFlightSeconds = 3600
	stubProductionPH  = 20000 // metal per hour, crystal and deuterium scale down
)

// StubClient is an offline MCP client that simulates a small account.
// Discovery fleets occupy a slot for an hour of wall-clock time and owned
// celestials produce resources while the process runs.
type StubClient struct {
	mu         sync.Mutex
	now        func() time.Time
	server     galaxy.ServerData
	celestials []galaxy.Celestial
	fleets     []stubFleet
	lastTick   time.Time
	nextFleet  int64
}

type stubFleet struct {
	mission galaxy.FleetMission
	home    time.Time
}

// NewStubClient creates a stub with two planets and a moon in galaxy 1.
func NewStubClient() *StubClient {
	return newStubClient(time.Now)
}

func newStubClient(now func() time.Time) *StubClient {
	start := now()
	return &StubClient{
		now:      now,
		server:   galaxy.ServerData{Galaxies: 9, Systems: 499, DonutGalaxy: true, DonutSystem: true},
		lastTick: start,
		celestials: []galaxy.Celestial{
			{ID: 1, Name: "Homeworld", Type: galaxy.CelestialPlanet, Coordinate: galaxy.Coordinate{Galaxy: 1, System: 42, Position: 8},
				Resources: galaxy.Resources{Metal: 60000, Crystal: 20000, Deuterium: 8000}},
			{ID: 2, Name: "Moon", Type: galaxy.CelestialMoon, Coordinate: galaxy.Coordinate{Galaxy: 1, System: 42, Position: 8},
				Resources: galaxy.Resources{Metal: 1000, Crystal: 500, Deuterium: 100}},
			{ID: 3, Name: "Colony", Type: galaxy.CelestialPlanet, Coordinate: galaxy.Coordinate{Galaxy: 1, System: 310, Position: 4},
				Resources: galaxy.Resources{Metal: 12000, Crystal: 3000, Deuterium: 1000}},
		},
		nextFleet: 1,
	}
}

// Initialize simulates the MCP handshake.
func (c *StubClient) Initialize(ctx context.Context, clientInfo map[string]interface{}) (*Response, error) {
	return &Response{
		JSONRPC: "2.0",
		ID:      1,
		Result: json.RawMessage(`{
			"protocolVersion": "2024-11-05",
			"capabilities": {},
			"serverInfo": {
				"name": "discovery-stub",
				"version": "1.0.0"
			}
		}`),
	}, nil
}

// ListTools returns the game tools the stub answers.
func (c *StubClient) ListTools(ctx context.Context) ([]Tool, error) {
	empty := json.RawMessage(`{"type": "object", "properties": {}}`)
	return []Tool{
		{Name: ToolGetFleets, Description: "List active fleets (stub)", InputSchema: empty},
		{Name: ToolGetSlots, Description: "Fleet slot usage (stub)", InputSchema: empty},
		{Name: ToolGetServerTime, Description: "Game clock (stub)", InputSchema: empty},
		{Name: ToolGetServerData, Description: "Universe shape (stub)", InputSchema: empty},
		{Name: ToolGetCelestials, Description: "Owned planets and moons (stub)", InputSchema: empty},
		{
			Name:        ToolGetResources,
			Description: "Resources of one celestial (stub)",
			InputSchema: json.RawMessage(`{"type": "object", "properties": {"celestial_id": {"type": "integer"}}}`),
		},
		{
			Name:        ToolSendDiscovery,
			Description: "Send a discovery fleet (stub)",
			InputSchema: json.RawMessage(`{"type": "object", "properties": {"origin_id": {"type": "integer"}, "galaxy": {"type": "integer"}, "system": {"type": "integer"}, "position": {"type": "integer"}}}`),
		},
	}, nil
}

// CallTool executes a simulated tool call.
func (c *StubClient) CallTool(ctx context.Context, name string, arguments interface{}) (*ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick()

	var payload interface{}
	switch name {
	case ToolGetFleets:
		payload = fleetsResult{Fleets: c.fleetMissions()}
	case ToolGetSlots:
		used := len(c.fleets)
		payload = galaxy.SlotUsage{Total: stubSlots, Used: used, Free: stubSlots - used}
	case ToolGetServerTime:
		payload = serverTimeResult{ServerTime: c.now().UTC()}
	case ToolGetServerData:
		payload = c.server
	case ToolGetCelestials:
		payload = celestialsResult{Celestials: append([]galaxy.Celestial(nil), c.celestials...)}
	case ToolGetResources:
		var args resourcesArgs
		if err := decodeArgs(arguments, &args); err != nil {
			return TextResult(err.Error(), true), nil
		}
		cel := c.celestial(args.CelestialID)
		if cel == nil {
			return TextResult(fmt.Sprintf("unknown celestial %d", args.CelestialID), true), nil
		}
		payload = cel.Resources
	case ToolSendDiscovery:
		var args sendDiscoveryArgs
		if err := decodeArgs(arguments, &args); err != nil {
			return TextResult(err.Error(), true), nil
		}
		payload = c.sendDiscovery(args)
	default:
		return TextResult(fmt.Sprintf("tool %s not implemented in stub", name), true), nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", name, err)
	}
	return TextResult(string(data), false), nil
}

func (c *StubClient) sendDiscovery(args sendDiscoveryArgs) sendDiscoveryResult {
	origin := c.celestial(args.OriginID)
	if origin == nil {
		return sendDiscoveryResult{Message: "unknown origin"}
	}
	dest := galaxy.Coordinate{Galaxy: args.Galaxy, System: args.System, Position: args.Position}
	if !dest.Valid() || dest.Galaxy > c.server.Galaxies || dest.System > c.server.Systems || dest.Position > galaxy.PositionsPerSystem {
		return sendDiscoveryResult{Message: "invalid destination"}
	}
	for _, owned := range c.celestials {
		if owned.Coordinate == dest {
			return sendDiscoveryResult{Message: "destination is occupied"}
		}
	}
	if len(c.fleets) >= stubSlots {
		return sendDiscoveryResult{Message: "no free fleet slots"}
	}
	cost := galaxy.Resources{
		Metal:     constants.DiscoveryCostMetal,
		Crystal:   constants.DiscoveryCostCrystal,
		Deuterium: constants.DiscoveryCostDeuterium,
	}
	if !origin.Resources.IsEnoughFor(cost) {
		return sendDiscoveryResult{Message: "not enough resources"}
	}

	origin.Resources.Metal -= cost.Metal
	origin.Resources.Crystal -= cost.Crystal
	origin.Resources.Deuterium -= cost.Deuterium

	c.fleets = append(c.fleets, stubFleet{
		mission: galaxy.FleetMission{
			ID:          c.nextFleet,
			Mission:     galaxy.MissionDiscovery,
			Origin:      origin.Coordinate,
			Destination: dest,
		},
		home: c.now().Add(stubFlightSeconds * time.Second),
	})
	c.nextFleet++
	return sendDiscoveryResult{Success: true}
}

// tick lands returned fleets and adds production since the last call.
func (c *StubClient) tick() {
	now := c.now()
	kept := c.fleets[:0]
	for _, f := range c.fleets {
		if now.Before(f.home) {
			kept = append(kept, f)
		}
	}
	c.fleets = kept

	elapsed := now.Sub(c.lastTick)
	if elapsed <= 0 {
		return
	}
	c.lastTick = now
	metal := int64(elapsed.Hours() * stubProductionPH)
	for i := range c.celestials {
		if c.celestials[i].Type != galaxy.CelestialPlanet {
			continue
		}
		c.celestials[i].Resources.Metal += metal
		c.celestials[i].Resources.Crystal += metal / 2
		c.celestials[i].Resources.Deuterium += metal / 4
	}
}

func (c *StubClient) fleetMissions() []galaxy.FleetMission {
	now := c.now()
	out := make([]galaxy.FleetMission, 0, len(c.fleets))
	for _, f := range c.fleets {
		m := f.mission
		backIn := int64(f.home.Sub(now).Seconds())
		m.BackIn = &backIn
		out = append(out, m)
	}
	return out
}

func (c *StubClient) celestial(id int64) *galaxy.Celestial {
	for i := range c.celestials {
		if c.celestials[i].ID == id {
			return &c.celestials[i]
		}
	}
	return nil
}

func decodeArgs(arguments interface{}, out interface{}) error {
	data, err := json.Marshal(arguments)
	if err != nil {
		return fmt.Errorf("marshal arguments: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

var _ Caller = (*StubClient)(nil)
var _ Caller = (*Client)(nil)
