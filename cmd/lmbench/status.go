// cmd/lmbench/status.go
package lmbench

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// statusCmd implements 'status', which checks the server and reports the
// resident model.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the LM Studio server and show the loaded model",
	Long:  `The 'status' command checks that the LM Studio server answers and prints the model it currently reports first, which is taken to be the loaded one.`,
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
		out := cmd.OutOrStdout()
		if !m.CheckServer(ctx) {
			return fmt.Errorf("%w at %s", errServerUnreachable, cfg.Settings.LMStudioURL)
		}
		fmt.Fprintln(out, okStyle.Render("LM Studio is reachable at "+cfg.Settings.LMStudioURL))
		if id, ok := m.LoadedModel(ctx); ok {
			fmt.Fprintf(out, "Loaded model: %s\n", id)
		} else {
			fmt.Fprintln(out, warnStyle.Render("No model loaded."))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
