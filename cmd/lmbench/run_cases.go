// cmd/lmbench/run_cases.go
package lmbench

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mwiater/lmbench/internal/bench"
	"github.com/mwiater/lmbench/internal/lmstudio"
)

var (
	caseFlags runFlags
	caseModel string
)

// runCasesCmd implements 'run cases'.
var runCasesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Send each configured test case once",
	Long: `The 'cases' subcommand sends every entry of test_cases once, in order, to the
model LM Studio reports first (or --model), and writes a single result file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		if len(cfg.Cases) == 0 {
			return bench.ErrNoCases
		}
		opts := caseFlags.options(cmd, cfg.Settings)

		return runBenchmark(cmd, cfg, &caseFlags, opts.OutputDir, "Test cases",
			func(ctx context.Context, r *bench.Runner, c *lmstudio.Client) ([]bench.Output, error) {
				opts.Model = caseModel
				if opts.Model == "" {
					opts.Model = c.DetectModel(ctx, cfg.Settings.StatusTimeout)
				}
				out, err := r.RunCases(ctx, cfg.Cases, opts)
				if err != nil {
					return nil, err
				}
				return []bench.Output{out}, nil
			})
	},
}

func init() {
	caseFlags.register(runCasesCmd)
	runCasesCmd.Flags().StringVar(&caseModel, "model", "", "model to send the cases to (default: the model LM Studio reports first)")
	runCmd.AddCommand(runCasesCmd)
}
