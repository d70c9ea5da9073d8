// cmd/lmbench/load_model.go
package lmbench

import (
	"fmt"

	"github.com/spf13/cobra"
)

// loadModelCmd implements 'load model <id>'.
var loadModelCmd = &cobra.Command{
	Use:   "model <id>",
	Short: "Load a model by sending it a one-token request",
	Long:  `The 'model' subcommand asks LM Studio to load the given model by sending it a one-token completion, then checks that the model is reported first.`,
	Args:  cobra.ExactArgs(1),
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
		fmt.Fprintf(cmd.OutOrStdout(), "Loading model: %s\n", args[0])
		if !m.LoadModel(ctx, args[0]) {
			return fmt.Errorf("model %s did not load", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Model loaded: "+args[0]))
		return nil
	},
}

func init() {
	loadCmd.AddCommand(loadModelCmd)
}
