package discovery

import (
	"time"

	"github.com/xonecas/zoea-discovery/internal/config"
	"github.com/xonecas/zoea-discovery/internal/galaxy"
)

// Settings are the tunables read by every cycle.
type Settings struct {
	Active                bool
	MaxConcurrentMissions int
	MaxFailuresBeforeStop int
	CheckIntervalMin      time.Duration
	CheckIntervalMax      time.Duration
	OriginExpression      string
	ReservedFreeSlots     int
	SystemCount           int
}

// SettingsFromConfig extracts the discovery settings from a loaded config.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Active:                cfg.Discovery.Active,
		MaxConcurrentMissions: cfg.Discovery.MaxConcurrentMissions,
		MaxFailuresBeforeStop: cfg.Discovery.MaxFailuresBeforeStop,
		CheckIntervalMin:      cfg.Discovery.IntervalMin(),
		CheckIntervalMax:      cfg.Discovery.IntervalMax(),
		OriginExpression:      cfg.Discovery.OriginExpression,
		ReservedFreeSlots:     cfg.Discovery.ReservedFreeSlots,
		SystemCount:           cfg.Server.Systems,
	}
}

// TotalDestinations is the number of positions in one galaxy.
func (s Settings) TotalDestinations() int {
	return s.SystemCount * galaxy.PositionsPerSystem
}
