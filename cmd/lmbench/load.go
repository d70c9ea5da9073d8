// cmd/lmbench/load.go
package lmbench

import (
	"github.com/spf13/cobra"
)

// loadCmd represents the 'load' command group for loading resources.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Group commands for loading resources",
	Long:  `The 'load' command groups subcommands that load resources on the LM Studio server.`,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
