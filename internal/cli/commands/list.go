package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/forksync/internal/cli/ui"
	"github.com/aki/forksync/internal/core/config"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured repositories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := config.Load(configPath())
			if err != nil {
				return err
			}

			if ui.GlobalFormatter.IsStructured() {
				return ui.GlobalFormatter.Output(registry.Descriptors())
			}
			ui.PrintRepositoryList(registry.Descriptors())
			return nil
		},
	}
}
