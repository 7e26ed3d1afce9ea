package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xonecas/zoea-discovery/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

type globalOptions struct {
	configPath string
	dbPath     string
	debug      bool
	offline    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "discovery",
		Short:   "Zoea Discovery - automatic discovery fleets",
		Version: Version,
		Long: `Sends discovery fleets from your best-funded planet to the nearest
unexplored positions of its galaxy, on a self-adjusting schedule.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config.toml", "Path to config file (.toml or .yaml)")
	flags.StringVar(&opts.dbPath, "db", "", "Path to the database (default: data dir)")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&opts.offline, "offline", false, "Play against the built-in simulated game")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newOnceCmd(opts),
		newBlacklistCmd(opts),
		newHistoryCmd(opts),
		newProbeCmd(opts),
	)
	return rootCmd
}

// initLogging sends logs to a file in the data dir. With console set, logs
// are mirrored to stderr in human-readable form.
func initLogging(debug, console bool) error {
	// Ensure data directory exists
	dataDir, err := config.EnsureDataDir()
	if err != nil {
		return fmt.Errorf("ensure data dir: %w", err)
	}

	// Open log file (truncate on startup)
	logPath := filepath.Join(dataDir, "discovery.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if console {
		writer := zerolog.MultiLevelWriter(logFile, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
		log.Logger = zerolog.New(writer).With().Timestamp().Logger()
		return nil
	}

	// Log to file only (TUI owns stdout/stderr)
	log.Logger = zerolog.New(logFile).With().Timestamp().Logger()
	return nil
}
