package main

import (
	"fmt"
	"runtime"

	"github.com/cooldogedev/rakserver/packet"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(version)
				return
			}

			fmt.Printf("  Version:          %s\n", version)
			fmt.Printf("  Commit:           %s\n", commit)
			fmt.Printf("  Built:            %s\n", date)
			fmt.Printf("  RakNet protocol:  %d\n", packet.ProtocolVersion)
			fmt.Printf("  Minecraft:        %s (%d)\n", protocol.CurrentVersion, protocol.CurrentProtocol)
			fmt.Printf("  Go version:       %s\n", runtime.Version())
			fmt.Printf("  OS/Arch:          %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}
