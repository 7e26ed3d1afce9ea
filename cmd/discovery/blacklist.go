package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newBlacklistCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Inspect or reset coordinates on cooldown",
	}

	var all bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List blacklisted coordinates",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(opts)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.Blacklist().Entries()
			if err != nil {
				return err
			}

			now := time.Now()
			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"Coordinate", "Expires", "Remaining"}),
			)
			shown := 0
			for _, e := range entries {
				remaining := e.Expiry.Sub(now)
				if remaining <= 0 && !all {
					continue
				}
				left := "expired"
				if remaining > 0 {
					left = remaining.Round(time.Minute).String()
				}
				table.Append([]string{
					e.Coordinate.String(),
					e.Expiry.Local().Format("2006-01-02 15:04"),
					left,
				})
				shown++
			}
			table.Render()
			fmt.Printf("%d of %d entries\n", shown, len(entries))
			return nil
		},
	}
	listCmd.Flags().BoolVar(&all, "all", false, "Include expired entries")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every blacklist entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Blacklist().Clear(); err != nil {
				return err
			}
			color.New(color.FgGreen).Println("Blacklist cleared.")
			return nil
		},
	}

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove expired blacklist entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(opts)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.Blacklist().PurgeExpired(time.Now())
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Printf("Removed %d expired entries.\n", n)
			return nil
		},
	}

	cmd.AddCommand(listCmd, clearCmd, purgeCmd)
	return cmd
}
