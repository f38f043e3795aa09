// Package cmd provides the command-line interface of fairarb.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fairarb",
	Short: "fairarb simulates a first-come first-served bus arbiter.",
	Long: `fairarb simulates a first-come first-served bus arbiter driven ` +
		`by scripted clients. Scenarios are YAML files listing the ` +
		`clients, the signals they drive, and when they request.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
}
