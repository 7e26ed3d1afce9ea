package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xonecas/zoea-discovery/internal/config"
	"github.com/xonecas/zoea-discovery/internal/constants"
	"github.com/xonecas/zoea-discovery/internal/core"
	"github.com/xonecas/zoea-discovery/internal/tui"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the discovery activity until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogging(opts.debug, headless); err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			return run(opts, headless)
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "Run without the dashboard, logging to stderr")
	return cmd
}

func run(opts *globalOptions, headless bool) error {
	log.Info().Str("version", Version).Msg("Starting Zoea Discovery")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newAgent(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	// Subscribe before the first cycle so the dashboard sees it.
	var events <-chan core.Event
	if !headless {
		events = a.bus.Subscribe()
	}

	if err := a.runner.Start(ctx, 0); err != nil {
		return fmt.Errorf("start runner: %w", err)
	}
	defer a.runner.Stop()

	go func() {
		if err := config.Watch(ctx, opts.configPath, a.applyConfig); err != nil {
			log.Warn().Err(err).Msg("Config hot reload disabled")
		}
	}()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if headless {
		<-sigCh
		log.Info().Msg("Received shutdown signal")
		return nil
	}

	model := tui.New(tui.Options{
		Runner:    a.runner,
		Session:   a.session,
		Blacklist: a.store.Blacklist(),
		Settings:  a.worker.Settings,
		Events:    events,
		History:   loadHistory(a),
	})
	program := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		select {
		case <-sigCh:
			log.Info().Msg("Received shutdown signal")
			program.Quit()
		case <-ctx.Done():
		}
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}

	log.Info().Msg("Zoea Discovery shutdown complete")
	return nil
}

func loadHistory(a *agent) []tui.CycleInfo {
	cycles, err := a.store.RecentCycles(constants.RecentCyclesLimit)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load cycle history")
		return nil
	}
	out := make([]tui.CycleInfo, 0, len(cycles))
	for _, c := range cycles {
		out = append(out, tui.CycleInfoFromRecord(c.ID, c.CycleRecord))
	}
	return out
}
