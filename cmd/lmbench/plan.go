// cmd/lmbench/plan.go
package lmbench

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/lmbench/internal/bench"
)

var planQuick bool

// planCmd implements 'plan', a dry run of the experiment matrix.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview the experiment matrix without sending requests",
	Long:  `The 'plan' command prints the configured experiment matrix, one example prompt per size and the number of requests and files a run would produce. The server is not contacted.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		m := cfg.Matrix
		if planQuick {
			m = m.Quick()
		}
		bench.Plan(cmd.OutOrStdout(), m)
		return nil
	},
}

func init() {
	planCmd.Flags().BoolVar(&planQuick, "quick", false, "preview the reduced test matrix")
	rootCmd.AddCommand(planCmd)
}
