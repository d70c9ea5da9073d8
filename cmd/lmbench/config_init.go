// cmd/lmbench/config_init.go
package lmbench

import (
	"fmt"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/lmbench/internal/config"
)

// configCmd represents the 'config' command group.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Group commands for the configuration file",
	Long:  `The 'config' command groups subcommands that create or inspect the lmbench configuration.`,
}

// configInitCmd implements 'config init [path]'.
var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented default configuration",
	Long:  `The 'init' subcommand writes a starter configuration with every setting, a sample experiment matrix, test cases and the telemetry format. An existing file is never overwritten.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.SearchNames[0]
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to: %s\n", path)
		return nil
	},
}

// configShowCmd implements 'config show'.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration",
	Long:  `The 'show' subcommand prints the files that were read and the configuration after merging the experiments file and environment overrides.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		pp.Fprintln(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
