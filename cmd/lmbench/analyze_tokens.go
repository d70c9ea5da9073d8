// cmd/lmbench/analyze_tokens.go
package lmbench

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/lmbench/internal/analysis"
	"github.com/mwiater/lmbench/internal/archive"
	"github.com/mwiater/lmbench/internal/results"
)

var (
	tokensBy      string
	tokensArchive string
	tokensModel   string
)

// analyzeTokensCmd implements 'analyze tokens'.
var analyzeTokensCmd = &cobra.Command{
	Use:   "tokens [paths...]",
	Short: "Average total_tokens per size category",
	Long: `The 'tokens' subcommand aggregates total_tokens of successful requests by size
category (or word count) across run files. Paths may be files or directories and
default to settings.output_directory. With --archive the records are read from
an SQLite archive instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		by, err := analysis.ParseGroupBy(tokensBy)
		if err != nil {
			return err
		}

		var records []results.Record
		if tokensArchive != "" {
			store, err := archive.Open(tokensArchive)
			if err != nil {
				return err
			}
			defer store.Close()
			if records, err = store.Records(cmd.Context(), archive.Filter{Model: tokensModel}); err != nil {
				return err
			}
		} else {
			paths := args
			if len(paths) == 0 {
				cfg, err := loadConfig(true)
				if err != nil {
					return err
				}
				paths = []string{cfg.Settings.OutputDirectory}
			}
			if records, err = loadRecords(cmd, paths); err != nil {
				return err
			}
			records = filterModel(records, tokensModel)
		}

		overall, ok := analysis.Overall(records)
		analysis.RenderTokenStats(cmd.OutOrStdout(), by, analysis.TokenStats(records, by), overall, ok)
		return nil
	},
}

func filterModel(records []results.Record, model string) []results.Record {
	if model == "" {
		return records
	}
	var out []results.Record
	for _, r := range records {
		if r.Model == model {
			out = append(out, r)
		}
	}
	return out
}

func init() {
	analyzeTokensCmd.Flags().StringVar(&tokensBy, "by", string(analysis.BySizeCategory), "grouping key: size_category or size_words")
	analyzeTokensCmd.Flags().StringVar(&tokensArchive, "archive", "", "read records from this SQLite archive")
	analyzeTokensCmd.Flags().StringVar(&tokensModel, "model", "", "only count records of this model")
	analyzeCmd.AddCommand(analyzeTokensCmd)
}
