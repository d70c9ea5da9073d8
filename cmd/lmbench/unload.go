// cmd/lmbench/unload.go
package lmbench

import (
	"github.com/spf13/cobra"
)

// unloadCmd represents the 'unload' command group for unloading resources.
var unloadCmd = &cobra.Command{
	Use:   "unload",
	Short: "Group commands for unloading resources",
	Long:  `The 'unload' command groups subcommands that unload resources from the LM Studio server.`,
}

func init() {
	rootCmd.AddCommand(unloadCmd)
}
