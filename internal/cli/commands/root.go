package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/aki/forksync/internal/cli/ui"
	"github.com/aki/forksync/internal/core/config"
	"github.com/aki/forksync/internal/core/logger"
)

// Exit codes returned by ExitCode
const (
	ExitOK             = 0
	ExitError          = 1
	ExitNeedsAttention = 2
	ExitConfigError    = 3
)

// ErrNeedsAttention is returned by sync when some clones diverged or failed.
// The results have already been printed when it is returned.
var ErrNeedsAttention = errors.New("some clones need attention")

// Global flags shared by every command
var (
	flagConfig  string
	flagBasedir string
	flagFormat  string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forksync",
		Short: "Fast-forward local forks to their upstream default branch",
		Long: `forksync keeps a directory of forked clones in step with a shared upstream.

Each configured repository names its upstream clone URL. For every clone under
the base directory, sync fetches the upstream default branch and fast-forwards
the local branch when it is strictly behind. Diverged clones and clones with
local changes in the way are reported and left untouched. Nothing is pushed.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupGlobals,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", config.DefaultFile, "Configuration file; relative names resolve against the base directory unless they start with '.'")
	pf.StringVarP(&flagBasedir, "basedir", "b", ".", "Directory containing the clones")
	pf.StringVar(&flagFormat, "format", string(ui.FormatPretty), "Output format (pretty, json, yaml)")
	RegisterLoggerFlags(cmd)

	cmd.AddCommand(
		newListCmd(),
		newClonesCmd(),
		newSyncCmd(),
		newReportCmd(),
		newConfigCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)

	return cmd
}

func setupGlobals(cmd *cobra.Command, args []string) error {
	format, err := ui.ParseFormat(flagFormat)
	if err != nil {
		return err
	}
	if err := ui.SetGlobalFormatter(format); err != nil {
		return err
	}

	log, err := CreateLogger()
	if err != nil {
		return err
	}
	cmd.SetContext(logger.WithContext(cmd.Context(), log))
	return nil
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background(), nil)
}

// ExecuteContext runs the root command with args; nil means os.Args
func ExecuteContext(ctx context.Context, args []string) error {
	cmd := newRootCmd()
	if args != nil {
		cmd.SetArgs(args)
	}
	cmd.SetOut(ui.Stdout)
	cmd.SetErr(ui.Stderr)
	return cmd.ExecuteContext(ctx)
}

// ExitCode maps an error from Execute to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrNeedsAttention):
		return ExitNeedsAttention
	case config.IsConfigError(err):
		return ExitConfigError
	default:
		return ExitError
	}
}
