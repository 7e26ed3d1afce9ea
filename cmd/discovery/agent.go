package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/zoea-discovery/internal/config"
	"github.com/xonecas/zoea-discovery/internal/constants"
	"github.com/xonecas/zoea-discovery/internal/core"
	"github.com/xonecas/zoea-discovery/internal/discovery"
	"github.com/xonecas/zoea-discovery/internal/galaxy"
	"github.com/xonecas/zoea-discovery/internal/mcp"
	"github.com/xonecas/zoea-discovery/internal/store"
)

// agent is the assembled discovery activity and everything it talks to.
type agent struct {
	cfg     *config.Config
	store   *store.Store
	bus     *core.EventBus
	caller  mcp.Caller
	session *discovery.Session
	bridge  *mcp.Bridge
	worker  *discovery.Worker
	runner  *core.Runner
}

func openStore(opts *globalOptions) (*store.Store, error) {
	if opts.dbPath != "" {
		return store.Open(opts.dbPath)
	}
	return store.New()
}

func newCaller(opts *globalOptions, cfg *config.Config) mcp.Caller {
	if opts.offline {
		log.Info().Msg("Offline mode: using simulated game")
		return mcp.NewStubClient()
	}
	return mcp.NewClient(cfg.Game.Endpoint)
}

// connect performs the MCP handshake and logs the tools the game offers.
func connect(ctx context.Context, caller mcp.Caller, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.GameRequestTimeout)
	defer cancel()

	if _, err := caller.Initialize(ctx, map[string]interface{}{"name": "zoea-discovery", "version": Version}); err != nil {
		return fmt.Errorf("initialize game connection %s: %w", endpoint, err)
	}

	tools, err := caller.ListTools(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list game tools")
		return nil
	}
	log.Info().Int("tools", len(tools)).Msg("Game tools available")
	for _, t := range tools {
		log.Debug().Str("tool", t.Name).Str("description", t.Description).Msg("Available tool")
	}
	return nil
}

func newAgent(ctx context.Context, opts *globalOptions) (*agent, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log.Debug().Interface("config", cfg).Msg("Configuration loaded")

	s, err := openStore(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	caller := newCaller(opts, cfg)
	if err := connect(ctx, caller, cfg.Game.Endpoint); err != nil {
		s.Close()
		return nil, err
	}

	session := discovery.NewSession(galaxy.ServerData{
		Galaxies:    cfg.Server.Galaxies,
		Systems:     cfg.Server.Systems,
		DonutGalaxy: cfg.Server.DonutGalaxy,
		DonutSystem: cfg.Server.DonutSystem,
	})
	bridge := mcp.NewBridge(caller, session, cfg.Game.RateLimit, cfg.Game.RateBurst)

	// The game's own universe shape wins over the configured one.
	if data, err := bridge.ServerData(ctx); err != nil {
		log.Warn().Err(err).Msg("Server data unavailable, using configured universe")
	} else if data.Galaxies > 0 && data.Systems > 0 {
		session.Server = data
		log.Info().Int("galaxies", data.Galaxies).Int("systems", data.Systems).Msg("Universe loaded from game")
	}

	if err := bridge.CheckCelestials(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to load celestials")
	}

	bus := core.NewEventBus(constants.MinEventBusBufferSize)

	a := &agent{
		cfg:     cfg,
		store:   s,
		bus:     bus,
		caller:  caller,
		session: session,
		bridge:  bridge,
	}

	a.worker = discovery.NewWorker(a.settingsFrom(cfg), session, bridge, galaxy.NewCalculator(session.Server), s.Blacklist())
	a.worker.SetBus(bus)
	a.worker.SetRecorder(s)

	a.runner = core.NewRunner(a.worker, bus, cfg.Discovery.IntervalMin())
	a.worker.SetHost(a.runner)

	if err := s.PruneCycles(constants.CycleHistoryRetention); err != nil {
		log.Warn().Err(err).Msg("Failed to prune cycle history")
	}

	return a, nil
}

// settingsFrom maps a config onto worker settings, keeping the system count
// the game reported.
func (a *agent) settingsFrom(cfg *config.Config) discovery.Settings {
	s := discovery.SettingsFromConfig(cfg)
	if a.session.Server.Systems > 0 {
		s.SystemCount = a.session.Server.Systems
	}
	return s
}

// applyConfig hands a reloaded config to the worker. Turning the activity on
// again reactivates a runner that deactivated itself.
func (a *agent) applyConfig(cfg *config.Config) {
	before := a.worker.Settings()
	after := a.settingsFrom(cfg)
	a.worker.UpdateSettings(after)
	a.cfg = cfg

	log.Info().
		Bool("active", after.Active).
		Str("origins", after.OriginExpression).
		Dur("interval_min", after.CheckIntervalMin).
		Dur("interval_max", after.CheckIntervalMax).
		Msg("Discovery settings updated")

	a.bus.Publish(core.Event{
		Type:      core.EventConfigReloaded,
		Activity:  constants.ActivityName,
		Timestamp: time.Now(),
	})

	if after.Active && (!before.Active || a.runner.Ended()) {
		a.runner.Reactivate(constants.MinJitter)
	}
}

func (a *agent) Close() {
	a.bus.Close()
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close store")
	}
}
