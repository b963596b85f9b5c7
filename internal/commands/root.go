package commands

import (
	"github.com/spf13/cobra"

	"github.com/pennywise-dev/pennywise/internal/buildinfo"
	"github.com/pennywise-dev/pennywise/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "pennywise",
		Short:   "Categorise bank statements and send them to a spreadsheet",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.FileName, "path to the config file")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newRunCommand(&configPath))
	rootCmd.AddCommand(newParseCommand())
	rootCmd.AddCommand(newCategoriesCommand(&configPath))

	return rootCmd
}
