package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/forksync/internal/cli/ui"
	"github.com/aki/forksync/internal/core/forks"
	"github.com/aki/forksync/internal/core/git"
	"github.com/aki/forksync/internal/core/logger"
)

func newClonesCmd() *cobra.Command {
	var remote string

	cmd := &cobra.Command{
		Use:   "clones",
		Short: "List the clones under the base directory",
		Long: `List every git clone directly under the base directory with its checked out
branch and its origin and upstream remotes. When the clones share an upstream
the matching configured repository is shown above the table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer(cmd)
			if err != nil {
				return err
			}
			clones, err := c.Clones()
			if err != nil {
				return err
			}
			infos := c.Engine(forks.WithRemote(remote)).Inspect(clones)

			if ui.GlobalFormatter.IsStructured() {
				return ui.GlobalFormatter.Output(infos)
			}

			// The heading is best effort; a missing config must not hide the clones
			if registry, err := c.Registry(); err == nil {
				if d, err := c.ResolveRepository(cmd.Context(), registry, "", remote, clones); err == nil {
					ui.OutputLine("%s %s %s", ui.RepositoryIcon, ui.BoldStyle.Render(d.Title), ui.DimStyle.Render(d.UpstreamURL))
					ui.OutputLine("")
				} else {
					logger.FromContext(cmd.Context()).Debug("upstream not detected", "error", err)
				}
			}
			ui.PrintCloneList(infos)
			return nil
		},
	}

	cmd.Flags().StringVar(&remote, "remote", git.DefaultRemoteName, "Name of the upstream remote")
	return cmd
}
