// cmd/lmbench/analyze_summary.go
package lmbench

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/lmbench/internal/analysis"
)

// analyzeSummaryCmd implements 'analyze summary'.
var analyzeSummaryCmd = &cobra.Command{
	Use:   "summary <run.json>...",
	Short: "Summarise one or more result files",
	Long:  `The 'summary' subcommand prints request totals, failures, timeouts and averages, followed by latency percentiles and tokens per second for each model.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecords(cmd, args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		analysis.RenderSummary(out, analysis.Summarize(records))
		if len(records) > 0 {
			analysis.RenderModels(out, analysis.ByModel(records))
		}
		return nil
	},
}

func init() {
	analyzeCmd.AddCommand(analyzeSummaryCmd)
}
