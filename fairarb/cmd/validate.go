package cmd

import (
	"fmt"

	"github.com/sarchlab/fairarb/arbitration/workload"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario.yaml>...",
	Short: "Check scenario files without running them.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			s, err := workload.LoadScenario(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"%s: scenario %s, %d clients, %d steps at %.0f MHz\n",
				path, s.Name, len(s.Clients), s.Steps, s.FreqMHz)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
