package commands

import (
	"github.com/spf13/cobra"

	"github.com/aki/forksync/internal/app"
	"github.com/aki/forksync/internal/core/config"
	"github.com/aki/forksync/internal/core/logger"
)

// configPath resolves --config against --basedir
func configPath() string {
	return config.ResolvePath(flagConfig, flagBasedir)
}

// newContainer creates the app container for the base directory
func newContainer(cmd *cobra.Command) (*app.Container, error) {
	return app.NewContainer(flagBasedir, configPath(), logger.FromContext(cmd.Context()))
}
