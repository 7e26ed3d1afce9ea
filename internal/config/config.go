// Package config handles configuration loading from TOML or YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid config")

// Config is the root configuration structure.
type Config struct {
	Discovery DiscoveryConfig `toml:"discovery" yaml:"discovery"`
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Game      GameConfig      `toml:"game" yaml:"game"`
}

// DiscoveryConfig holds the settings of the discovery activity.
// Intervals are in milliseconds.
type DiscoveryConfig struct {
	Active                bool   `toml:"active" yaml:"active"`
	MaxConcurrentMissions int    `toml:"max_concurrent_missions" yaml:"max_concurrent_missions"`
	MaxFailuresBeforeStop int    `toml:"max_failures_before_stop" yaml:"max_failures_before_stop"`
	CheckIntervalMin      int64  `toml:"check_interval_min" yaml:"check_interval_min"`
	CheckIntervalMax      int64  `toml:"check_interval_max" yaml:"check_interval_max"`
	OriginExpression      string `toml:"origin_expression" yaml:"origin_expression"`
	ReservedFreeSlots     int    `toml:"reserved_free_slots" yaml:"reserved_free_slots"`
}

// IntervalMin returns the lower reschedule bound.
func (d DiscoveryConfig) IntervalMin() time.Duration {
	return time.Duration(d.CheckIntervalMin) * time.Millisecond
}

// IntervalMax returns the upper reschedule bound.
func (d DiscoveryConfig) IntervalMax() time.Duration {
	return time.Duration(d.CheckIntervalMax) * time.Millisecond
}

// ServerConfig describes the universe of the game server.
type ServerConfig struct {
	Galaxies    int  `toml:"galaxies" yaml:"galaxies"`
	Systems     int  `toml:"systems" yaml:"systems"`
	DonutGalaxy bool `toml:"donut_galaxy" yaml:"donut_galaxy"`
	DonutSystem bool `toml:"donut_system" yaml:"donut_system"`
}

// GameConfig holds the game bridge settings.
type GameConfig struct {
	Endpoint  string  `toml:"endpoint" yaml:"endpoint"`
	RateLimit float64 `toml:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `toml:"rate_burst" yaml:"rate_burst"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			Active:                true,
			MaxConcurrentMissions: 4,
			MaxFailuresBeforeStop: 3,
			CheckIntervalMin:      10 * 60 * 1000,
			CheckIntervalMax:      20 * 60 * 1000,
			OriginExpression:      "planets",
			ReservedFreeSlots:     1,
		},
		Server: ServerConfig{
			Galaxies: 9,
			Systems:  499,
		},
		Game: GameConfig{
			Endpoint:  "http://localhost:8080/mcp",
			RateLimit: 2.0,
			RateBurst: 3,
		},
	}
}

// Load reads configuration from a file and applies environment variable overrides.
// Files ending in .yaml or .yml are read as YAML, anything else as TOML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Load from file if it exists
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := decodeFile(path, cfg); err != nil {
				return nil, err
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode yaml: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("decode toml: %w", err)
		}
	}
	return nil
}

// Validate checks the values the discovery cycle depends on.
func (c *Config) Validate() error {
	d := c.Discovery
	if d.MaxConcurrentMissions < 0 {
		return fmt.Errorf("%w: max_concurrent_missions must be >= 0", ErrInvalid)
	}
	if d.MaxFailuresBeforeStop < 1 {
		return fmt.Errorf("%w: max_failures_before_stop must be >= 1", ErrInvalid)
	}
	if d.CheckIntervalMin < 0 || d.CheckIntervalMax < 0 {
		return fmt.Errorf("%w: check intervals must be >= 0", ErrInvalid)
	}
	if d.CheckIntervalMin > d.CheckIntervalMax {
		return fmt.Errorf("%w: check_interval_min %d exceeds check_interval_max %d", ErrInvalid, d.CheckIntervalMin, d.CheckIntervalMax)
	}
	if d.ReservedFreeSlots < 0 {
		return fmt.Errorf("%w: reserved_free_slots must be >= 0", ErrInvalid)
	}
	if c.Server.Systems < 1 {
		return fmt.Errorf("%w: server systems must be >= 1", ErrInvalid)
	}
	if c.Server.Galaxies < 1 {
		return fmt.Errorf("%w: server galaxies must be >= 1", ErrInvalid)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ZOEA_DISCOVERY_ACTIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Discovery.Active = b
		}
	}

	if v := os.Getenv("ZOEA_DISCOVERY_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Discovery.MaxConcurrentMissions = n
		}
	}

	if v := os.Getenv("ZOEA_DISCOVERY_MAX_FAILURES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Discovery.MaxFailuresBeforeStop = n
		}
	}

	if v := os.Getenv("ZOEA_DISCOVERY_INTERVAL_MIN"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Discovery.CheckIntervalMin = n
		}
	}

	if v := os.Getenv("ZOEA_DISCOVERY_INTERVAL_MAX"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Discovery.CheckIntervalMax = n
		}
	}

	if v := os.Getenv("ZOEA_DISCOVERY_ORIGIN"); v != "" {
		cfg.Discovery.OriginExpression = v
	}

	if v := os.Getenv("ZOEA_DISCOVERY_RESERVED_SLOTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Discovery.ReservedFreeSlots = n
		}
	}

	if v := os.Getenv("ZOEA_SERVER_SYSTEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Systems = n
		}
	}

	if v := os.Getenv("ZOEA_GAME_ENDPOINT"); v != "" {
		cfg.Game.Endpoint = v
	}

	if v := os.Getenv("ZOEA_GAME_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Game.RateLimit = f
		}
	}

	if v := os.Getenv("ZOEA_GAME_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Game.RateBurst = n
		}
	}
}

// DataDir returns the path to the data directory (~/.zoea-discovery).
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".zoea-discovery"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
