// cmd/lmbench/analyze_correlate.go
package lmbench

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwiater/lmbench/internal/results"
	"github.com/mwiater/lmbench/internal/telemetry"
)

var (
	telemetryPath string
	correlateRun  string
	timelinePath  string
)

// analyzeCorrelateCmd implements 'analyze correlate'.
var analyzeCorrelateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Align power telemetry with the requests of a run",
	Long: `The 'correlate' subcommand reads a hardware-monitor CSV export, keeps the rows
inside the run's request window and matches every request to the nearest row by
send time. The CSV format is taken from the telemetry section of the
configuration. --timeline writes the windowed rows with the active request to a
CSV file ready for plotting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if telemetryPath == "" || correlateRun == "" {
			return errors.New("both --telemetry and --run are required")
		}
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}

		series, err := telemetry.ReadFile(telemetryPath, cfg.Telemetry)
		if err != nil {
			return err
		}
		run, err := results.Load(correlateRun)
		if err != nil {
			return err
		}

		c := telemetry.Correlate(series, run.Results)
		telemetry.Render(cmd.OutOrStdout(), series, c)

		if timelinePath == "" {
			return nil
		}
		f, err := os.Create(timelinePath)
		if err != nil {
			return fmt.Errorf("create timeline: %w", err)
		}
		if err := telemetry.WriteTimeline(f, c, run.Results); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("write timeline: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Timeline written to: %s\n", timelinePath)
		return nil
	},
}

func init() {
	analyzeCorrelateCmd.Flags().StringVar(&telemetryPath, "telemetry", "", "telemetry CSV export")
	analyzeCorrelateCmd.Flags().StringVar(&correlateRun, "run", "", "result file to correlate")
	analyzeCorrelateCmd.Flags().StringVar(&timelinePath, "timeline", "", "write the windowed telemetry to this CSV file")
	analyzeCmd.AddCommand(analyzeCorrelateCmd)
}
