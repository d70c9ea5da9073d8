// cmd/lmbench/archive.go
package lmbench

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mwiater/lmbench/internal/archive"
	"github.com/mwiater/lmbench/internal/results"
)

const defaultArchive = "benchmark_results/archive.db"

var archivePath string

// archiveCmd represents the 'archive' command group.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Group commands for the SQLite results archive",
	Long:  `The 'archive' command groups subcommands that collect result files into an SQLite database so that many runs can be analysed together.`,
}

// archiveImportCmd implements 'archive import'.
var archiveImportCmd = &cobra.Command{
	Use:   "import <run.json>...",
	Short: "Import result files into the archive",
	Long:  `The 'import' subcommand stores each result file in the archive. Importing a file again replaces its earlier records.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := archive.Open(archivePath)
		if err != nil {
			return err
		}
		defer store.Close()

		for _, p := range args {
			run, err := results.Load(p)
			if err != nil {
				return err
			}
			source, err := filepath.Abs(p)
			if err != nil {
				source = p
			}
			n, err := store.ImportRun(cmd.Context(), source, run)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records from %s\n", n, p)
		}
		return nil
	},
}

// archiveListCmd implements 'archive list'.
var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the runs stored in the archive",
	Long:  `The 'list' subcommand prints every imported result file with its generation time and request count.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := archive.Open(archivePath)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Runs(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "Archive is empty.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(out, "%s  %s  %d requests\n", r.GeneratedAt.Format(results.TimestampLayout), r.Source, r.TotalRequests)
		}
		return nil
	},
}

func init() {
	archiveCmd.PersistentFlags().StringVar(&archivePath, "db", defaultArchive, "SQLite archive path")
	archiveCmd.AddCommand(archiveImportCmd, archiveListCmd)
	rootCmd.AddCommand(archiveCmd)
}
