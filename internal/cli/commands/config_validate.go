package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/forksync/internal/cli/ui"
	"github.com/aki/forksync/internal/core/config"
)

type validationResult struct {
	Path         string   `json:"path" yaml:"path"`
	Valid        bool     `json:"valid" yaml:"valid"`
	Repositories []string `json:"repositories,omitempty" yaml:"repositories,omitempty"`
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validate the configuration file to ensure it conforms to the expected format.

This command checks that every section sets a single non-empty url, that
titles are unique and that each url is a usable git endpoint.`,
		Example: `  # Validate the configuration in the base directory
  forksync config validate

  # Validate a specific file and list its repositories
  forksync -c ./repos.ini config validate --verbose`,
		Args: cobra.NoArgs,
		RunE: validateConfig,
	}

	cmd.Flags().BoolP("verbose", "v", false, "List the repositories found")
	return cmd
}

func validateConfig(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	path := configPath()

	registry, err := config.Load(path)
	if err != nil {
		if !ui.GlobalFormatter.IsStructured() {
			ui.Error("Configuration validation failed")
		}
		return err
	}

	if ui.GlobalFormatter.IsStructured() {
		return ui.GlobalFormatter.Output(validationResult{Path: path, Valid: true, Repositories: registry.Titles()})
	}

	ui.Success("Configuration is valid (%d repositories)", registry.Len())
	if verbose {
		for _, d := range registry.Descriptors() {
			ui.OutputLine("  %s: %s", d.Title, ui.DimStyle.Render(d.UpstreamURL))
		}
	}
	return nil
}
