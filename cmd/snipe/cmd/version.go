package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release version, overridden at build time with
// -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the snipe version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("snipe", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
