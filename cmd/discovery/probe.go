package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/xonecas/zoea-discovery/internal/config"
	"github.com/xonecas/zoea-discovery/internal/discovery"
	"github.com/xonecas/zoea-discovery/internal/galaxy"
	"github.com/xonecas/zoea-discovery/internal/mcp"
)

func newProbeCmd(opts *globalOptions) *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "probe [tool_call]",
		Short: "Check the game connection, or call a single game tool",
		Long: `Without arguments, connects to the game, lists its tools and prints the
account state the discovery cycle works from.

With an argument, calls one tool and prints the raw result:
  discovery probe 'get_resources(celestial_id=1)'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogging(opts.debug, false); err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if endpoint != "" {
				cfg.Game.Endpoint = endpoint
			}

			ctx := context.Background()
			caller := newCaller(opts, cfg)
			if !opts.offline {
				fmt.Printf("Connecting to %s...\n", cfg.Game.Endpoint)
			}
			if err := connect(ctx, caller, cfg.Game.Endpoint); err != nil {
				return err
			}

			if len(args) == 1 {
				return probeCall(ctx, caller, args[0])
			}
			return probeAccount(ctx, caller, cfg)
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Game MCP endpoint (overrides config)")
	return cmd
}

func probeCall(ctx context.Context, caller mcp.Caller, input string) error {
	name, args, err := parseToolCall(input)
	if err != nil {
		return err
	}

	result, err := caller.CallTool(ctx, name, args)
	if err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}
	if result.IsError {
		color.New(color.FgRed, color.Bold).Println("[ERROR]")
	}
	fmt.Println(result.Text())
	return nil
}

func probeAccount(ctx context.Context, caller mcp.Caller, cfg *config.Config) error {
	titleColor := color.New(color.FgCyan, color.Bold)

	tools, err := caller.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}
	titleColor.Printf("\nGame tools (%d)\n", len(tools))
	toolTable := tablewriter.NewTable(os.Stdout, tablewriter.WithHeader([]string{"Tool", "Description"}))
	for _, t := range tools {
		toolTable.Append([]string{t.Name, t.Description})
	}
	toolTable.Render()

	session := discovery.NewSession(galaxy.ServerData{Galaxies: cfg.Server.Galaxies, Systems: cfg.Server.Systems})
	bridge := mcp.NewBridge(caller, session, cfg.Game.RateLimit, cfg.Game.RateBurst)

	if err := bridge.CheckCelestials(ctx); err != nil {
		return err
	}
	titleColor.Println("\nCelestials")
	celTable := tablewriter.NewTable(os.Stdout, tablewriter.WithHeader([]string{"ID", "Name", "Type", "Coordinate", "Resources", "Can send"}))
	for _, c := range session.Celestials() {
		celTable.Append([]string{
			fmt.Sprintf("%d", c.ID),
			c.Name,
			string(c.Type),
			c.Coordinate.String(),
			c.Resources.String(),
			fmt.Sprintf("%t", c.Resources.IsEnoughFor(discovery.MinResources)),
		})
	}
	celTable.Render()

	origins := galaxy.ParseOrigins(cfg.Discovery.OriginExpression, session.Celestials())
	names := make([]string, 0, len(origins))
	for _, o := range origins {
		names = append(names, o.String())
	}
	fmt.Printf("Origins for %q: %s\n", cfg.Discovery.OriginExpression, strings.Join(names, ", "))

	slots, err := bridge.UpdateSlots(ctx)
	if err != nil {
		return err
	}
	fleets, err := bridge.UpdateFleets(ctx)
	if err != nil {
		return err
	}
	titleColor.Println("\nFleets")
	fmt.Printf("Slots: %d/%d used, %d free\n", slots.Used, slots.Total, slots.Free)
	fmt.Printf("Discovery missions: %d (limit %d)\n",
		galaxy.CountMissions(fleets, galaxy.MissionDiscovery), cfg.Discovery.MaxConcurrentMissions)
	if soonest := galaxy.SoonestReturn(fleets); soonest > 0 {
		fmt.Printf("Soonest return: %s\n", soonest)
	}
	return nil
}
