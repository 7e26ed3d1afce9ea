package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xonecas/zoea-discovery/internal/constants"
	"github.com/xonecas/zoea-discovery/internal/discovery"
	"github.com/xonecas/zoea-discovery/internal/galaxy"
	"golang.org/x/time/rate"
)

// ErrToolFailed is returned when the game answers a tool call with an error result.
var ErrToolFailed = errors.New("game tool failed")

// Game tool names.
const (
	ToolGetFleets     = "get_fleets"
	ToolGetSlots      = "get_slots"
	ToolGetServerTime = "get_server_time"
	ToolGetServerData = "get_server_data"
	ToolGetResources  = "get_resources"
	ToolGetCelestials = "get_celestials"
	ToolSendDiscovery = "send_discovery"
)

// Bridge adapts the game's MCP tools to the collaborators of a discovery cycle.
// Every tool call waits on a shared rate limiter and carries its own timeout.
type Bridge struct {
	caller  Caller
	session *discovery.Session
	limiter *rate.Limiter
	timeout time.Duration
}

// NewBridge creates a bridge. rateLimit is in calls per second.
func NewBridge(caller Caller, session *discovery.Session, rateLimit float64, rateBurst int) *Bridge {
	if rateBurst < 1 {
		rateBurst = 1
	}
	return &Bridge{
		caller:  caller,
		session: session,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateBurst),
		timeout: constants.GameRequestTimeout,
	}
}

type fleetsResult struct {
	Fleets []galaxy.FleetMission `json:"fleets"`
}

type celestialsResult struct {
	Celestials []galaxy.Celestial `json:"celestials"`
}

type serverTimeResult struct {
	ServerTime time.Time `json:"server_time"`
}

type resourcesArgs struct {
	CelestialID int64 `json:"celestial_id"`
}

type sendDiscoveryArgs struct {
	OriginID int64 `json:"origin_id"`
	Galaxy   int   `json:"galaxy"`
	System   int   `json:"system"`
	Position int   `json:"position"`
}

type sendDiscoveryResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// UpdateFleets reads the active fleets.
func (b *Bridge) UpdateFleets(ctx context.Context) ([]galaxy.FleetMission, error) {
	var res fleetsResult
	if err := b.call(ctx, ToolGetFleets, nil, &res); err != nil {
		return nil, err
	}
	return res.Fleets, nil
}

// UpdateSlots reads fleet slot usage.
func (b *Bridge) UpdateSlots(ctx context.Context) (galaxy.SlotUsage, error) {
	var slots galaxy.SlotUsage
	if err := b.call(ctx, ToolGetSlots, nil, &slots); err != nil {
		return galaxy.SlotUsage{}, err
	}
	return slots, nil
}

// ServerTime reads the game clock.
func (b *Bridge) ServerTime(ctx context.Context) (time.Time, error) {
	var res serverTimeResult
	if err := b.call(ctx, ToolGetServerTime, nil, &res); err != nil {
		return time.Time{}, err
	}
	return res.ServerTime, nil
}

// ServerData reads the universe shape.
func (b *Bridge) ServerData(ctx context.Context) (galaxy.ServerData, error) {
	var data galaxy.ServerData
	if err := b.call(ctx, ToolGetServerData, nil, &data); err != nil {
		return galaxy.ServerData{}, err
	}
	return data, nil
}

// UpdateResources re-reads the resources of c and returns the updated celestial.
func (b *Bridge) UpdateResources(ctx context.Context, c galaxy.Celestial) (galaxy.Celestial, error) {
	var res galaxy.Resources
	if err := b.call(ctx, ToolGetResources, resourcesArgs{CelestialID: c.ID}, &res); err != nil {
		return c, err
	}
	c.Resources = res
	return c, nil
}

// SendDiscovery sends one discovery fleet. A refusal by the game is reported
// as false with a nil error.
func (b *Bridge) SendDiscovery(ctx context.Context, origin galaxy.Celestial, dest galaxy.Coordinate) (bool, error) {
	args := sendDiscoveryArgs{
		OriginID: origin.ID,
		Galaxy:   dest.Galaxy,
		System:   dest.System,
		Position: dest.Position,
	}
	var res sendDiscoveryResult
	if err := b.call(ctx, ToolSendDiscovery, args, &res); err != nil {
		return false, err
	}
	if !res.Success {
		log.Debug().Str("origin", origin.Coordinate.String()).Str("dest", dest.String()).Str("message", res.Message).Msg("Discovery refused")
	}
	return res.Success, nil
}

// CheckCelestials refreshes the owned celestials held by the session.
func (b *Bridge) CheckCelestials(ctx context.Context) error {
	var res celestialsResult
	if err := b.call(ctx, ToolGetCelestials, nil, &res); err != nil {
		return err
	}
	b.session.SetCelestials(res.Celestials)
	log.Debug().Int("count", len(res.Celestials)).Msg("Celestials refreshed")
	return nil
}

func (b *Bridge) call(ctx context.Context, tool string, args interface{}, out interface{}) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", tool, err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	result, err := b.caller.CallTool(ctx, tool, args)
	if err != nil {
		return fmt.Errorf("call %s: %w", tool, err)
	}
	if result.IsError {
		return fmt.Errorf("%w: %s: %s", ErrToolFailed, tool, result.Text())
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(result.Text()), out); err != nil {
		return fmt.Errorf("decode %s: %w", tool, err)
	}
	return nil
}

var _ discovery.Game = (*Bridge)(nil)
