// Package cli contains the ringbridge command-line interface.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/ringbridge/ringbridge/internal/cli.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		"  ____  _             ____       _     _\n" +
		" |  _ \\(_)_ __   __ _| __ ) _ __(_) __| | __ _  ___\n" +
		" | |_) | | '_ \\ / _` |  _ \\| '__| |/ _` |/ _` |/ _ \\\n" +
		" |  _ <| | | | | (_| | |_) | |  | | (_| | (_| |  __/\n" +
		" |_| \\_\\_|_| |_|\\__, |____/|_|  |_|\\__,_|\\__, |\\___|\n" +
		"                |___/                    |___/\n"
)

var rootCmd = &cobra.Command{
	Use:   "ringbridge",
	Short: "RingBridge - RingCentral Glip bot adapter",
	Long:  color.CyanString(logo) + "\nA webhook gateway that bridges RingCentral Glip messages into a bot framework.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
