// cmd/lmbench/analyze.go
package lmbench

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/mwiater/lmbench/internal/results"
)

// analyzeCmd represents the 'analyze' command group.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Group commands for analysing result files",
	Long:  `The 'analyze' command groups subcommands that summarise result files, aggregate token counts and correlate requests with power telemetry.`,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

// loadRecords reads records from run files and directories of run files.
// Files in a directory that fail to parse are reported on stderr and skipped.
func loadRecords(cmd *cobra.Command, paths []string) ([]results.Record, error) {
	var records []results.Record
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("results path: %w", err)
		}
		if !info.IsDir() {
			run, err := results.Load(p)
			if err != nil {
				return nil, err
			}
			records = append(records, run.Results...)
			continue
		}

		runs, failed, err := results.LoadDir(p)
		if err != nil {
			return nil, err
		}
		for _, fe := range failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping %v\n", fe)
		}
		names := make([]string, 0, len(runs))
		for name := range runs {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			records = append(records, runs[name].Results...)
		}
	}
	return records, nil
}
