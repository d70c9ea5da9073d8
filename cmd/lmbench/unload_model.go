// cmd/lmbench/unload_model.go
package lmbench

import (
	"errors"

	"github.com/spf13/cobra"
)

// unloadModelCmd represents the 'unload model' subcommand.
var unloadModelCmd = &cobra.Command{
	Use:   "model",
	Short: "Unload the current model",
	Long:  `The 'model' subcommand would unload the resident model. The LM Studio API exposes no unload endpoint, so this always fails; unload from the LM Studio interface instead.`,
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
		if !m.UnloadModel(ctx) {
			return errors.New("unloading is not supported by the LM Studio API; use the LM Studio interface")
		}
		return nil
	},
}

func init() {
	unloadCmd.AddCommand(unloadModelCmd)
}
