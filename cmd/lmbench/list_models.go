// cmd/lmbench/list_models.go
package lmbench

import (
	"github.com/spf13/cobra"

	"github.com/mwiater/lmbench/internal/lmstudio"
)

// listModelsCmd implements 'list models', which prints the models served by
// LM Studio and marks the one assumed to be resident.
var listModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models served by LM Studio",
	Long:  `The 'models' subcommand lists every model reported by the LM Studio server. The first entry is taken to be the loaded model.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(true)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		m := newManager(cfg, logger)

		ctx := cmd.Context()
		if !m.CheckServer(ctx) {
			return errServerUnreachable
		}
		lmstudio.RenderModels(cmd.OutOrStdout(), m.ListModels(ctx))
		return nil
	},
}

func init() {
	listCmd.AddCommand(listModelsCmd)
}
