package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/xonecas/zoea-discovery/internal/constants"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent discovery cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(opts)
			if err != nil {
				return err
			}
			defer s.Close()

			cycles, err := s.RecentCycles(limit)
			if err != nil {
				return err
			}
			if len(cycles) == 0 {
				color.New(color.FgYellow).Println("No cycles recorded yet.")
				return nil
			}

			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"Started", "Reason", "Origin", "Sent", "Failed", "Skipped", "Next", "Error"}),
			)
			for _, c := range cycles {
				next := c.Interval.String()
				if c.Stopped {
					next = "stopped"
				} else if c.Delayed {
					next += " (delayed)"
				}
				table.Append([]string{
					c.StartedAt.Local().Format("2006-01-02 15:04:05"),
					string(c.Reason),
					c.Origin,
					fmt.Sprintf("%d", c.Dispatched),
					fmt.Sprintf("%d", c.Failures),
					fmt.Sprintf("%d", c.Skips),
					next,
					c.Error,
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", constants.RecentCyclesLimit, "Number of cycles to show")
	return cmd
}
