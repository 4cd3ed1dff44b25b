package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/aki/forksync/internal/cli/ui"
	"github.com/aki/forksync/internal/core/report"
)

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show the result of the last sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer(cmd)
			if err != nil {
				return err
			}

			r, err := c.Reports.Load(cmd.Context())
			if err != nil {
				if errors.Is(err, report.ErrNoReport) && !ui.GlobalFormatter.IsStructured() {
					ui.Info("No sync recorded in %s yet", c.Root)
					return nil
				}
				return err
			}

			if ui.GlobalFormatter.IsStructured() {
				return ui.GlobalFormatter.Output(r)
			}
			ui.PrintReport(r)
			return nil
		},
	}
}
