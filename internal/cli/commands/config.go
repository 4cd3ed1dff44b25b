package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/forksync/internal/cli/ui"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the forksync configuration",
		Long: `Inspect the configuration file listing repositories and their upstream URLs.

The file has one section per repository:

  [Repository Title]
  url = git@example.com:upstream/repo.git`,
		Example: `  # Print the resolved configuration path
  forksync config path

  # Validate configuration
  forksync config validate`,
	}

	cmd.AddCommand(configValidateCmd(), configPathCmd())
	return cmd
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the resolved configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ui.GlobalFormatter.IsStructured() {
				return ui.GlobalFormatter.Output(map[string]string{"path": configPath()})
			}
			ui.OutputLine("%s", configPath())
			return nil
		},
	}
}
