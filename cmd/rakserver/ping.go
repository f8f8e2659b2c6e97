package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cooldogedev/rakserver/transport"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func pingCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping <addr>",
		Short: "Query the status of a RakNet server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			start := time.Now()
			ad, err := transport.NewRakNet().Status(ctx, args[0])
			if err != nil {
				return fmt.Errorf("ping %s: %w", args[0], err)
			}
			latency := time.Since(start)

			pterm.Success.Printfln("%s answered in %s", args[0], latency.Round(time.Millisecond))
			return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
				{"Field", "Value"},
				{"Edition", ad.Edition},
				{"Name", ad.ServerName},
				{"Sub name", ad.SubName},
				{"Version", fmt.Sprintf("%s (%d)", ad.GameVersion, ad.ProtocolVersion)},
				{"Players", fmt.Sprintf("%d/%d", ad.PlayerCount, ad.MaxPlayers)},
				{"Game mode", ad.GameMode},
				{"Server GUID", strconv.FormatInt(ad.ServerGUID, 10)},
			}).Render()
		},
	}

	cmd.Flags().DurationVarP(&timeout, "timeout", "t", time.Second*5, "Time to wait for a pong")

	return cmd
}
