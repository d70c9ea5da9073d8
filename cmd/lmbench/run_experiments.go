// cmd/lmbench/run_experiments.go
package lmbench

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mwiater/lmbench/internal/bench"
	"github.com/mwiater/lmbench/internal/lmstudio"
)

var (
	experimentFlags runFlags
	quickRun        bool
)

// runExperimentsCmd implements 'run experiments'.
var runExperimentsCmd = &cobra.Command{
	Use:   "experiments",
	Short: "Run the model x topic x size x repetition matrix",
	Long: `The 'experiments' subcommand loads each configured model in turn and sends every
topic at every size the configured number of times. One result file is written
per model. --quick runs a reduced matrix (first model, two topics, first size,
two repetitions) and marks the files as TEST.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		matrix := cfg.Matrix
		opts := experimentFlags.options(cmd, cfg.Settings)
		opts.LoadModels = true
		if quickRun {
			matrix = matrix.Quick()
			opts.Test = true
			if !cmd.Flags().Changed("delay") {
				opts.Delay = bench.QuickDelay
			}
		}
		if err := matrix.Validate(); err != nil {
			return err
		}

		return runBenchmark(cmd, cfg, &experimentFlags, opts.OutputDir, "Experiments",
			func(ctx context.Context, r *bench.Runner, _ *lmstudio.Client) ([]bench.Output, error) {
				return r.RunExperiments(ctx, matrix, opts)
			})
	},
}

func init() {
	experimentFlags.register(runExperimentsCmd)
	runExperimentsCmd.Flags().BoolVar(&quickRun, "quick", false, "run a reduced test matrix")
	runCmd.AddCommand(runExperimentsCmd)
}
