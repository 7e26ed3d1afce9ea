package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/xonecas/zoea-discovery/internal/discovery"
)

func newOnceCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single discovery cycle and print what it did",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogging(opts.debug, false); err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := newAgent(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.worker.Enabled() {
				color.New(color.FgYellow).Println("Discovery is disabled in the configuration.")
				return nil
			}

			out := a.worker.RunCycle(ctx)
			printOutcome(out)
			return nil
		},
	}
}

func printOutcome(out discovery.Outcome) {
	titleColor := color.New(color.FgCyan, color.Bold)
	titleColor.Println("\n⬡ Discovery cycle")

	origin := "-"
	if out.HasOrigin {
		origin = out.Origin.String()
	}
	next := "-"
	switch {
	case out.Stopped:
		next = "deactivated"
	case out.Interval > 0:
		next = fmt.Sprintf("%s (%s)", out.Interval, out.NextRun.Local().Format("15:04:05"))
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Field", "Value"}),
	)
	table.Append([]string{"Reason", string(out.Reason)})
	table.Append([]string{"Origin", origin})
	table.Append([]string{"Candidates", fmt.Sprintf("%d", out.Candidates)})
	table.Append([]string{"Dispatched", fmt.Sprintf("%d", out.Dispatched)})
	table.Append([]string{"Failures", fmt.Sprintf("%d", out.Failures)})
	table.Append([]string{"Skips", fmt.Sprintf("%d", out.Skips)})
	table.Append([]string{"Delayed", fmt.Sprintf("%t", out.Delayed)})
	table.Append([]string{"Next", next})
	if out.Err != nil {
		table.Append([]string{"Error", out.Err.Error()})
	}
	table.Render()

	if out.Dispatched > 0 {
		color.New(color.FgGreen, color.Bold).Printf("\n✓ %d discovery fleet(s) sent\n", out.Dispatched)
	}
}
