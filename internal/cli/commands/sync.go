package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aki/forksync/internal/app"
	"github.com/aki/forksync/internal/cli/ui"
	"github.com/aki/forksync/internal/core/forks"
	"github.com/aki/forksync/internal/core/git"
	"github.com/aki/forksync/internal/core/logger"
	"github.com/aki/forksync/internal/core/terminal"
)

type syncFlags struct {
	jobs        int
	dryRun      bool
	remote      string
	noReport    bool
	only        []string
	lockTimeout time.Duration
}

func newSyncCmd() *cobra.Command {
	flags := &syncFlags{}

	cmd := &cobra.Command{
		Use:   "sync [title]",
		Short: "Fast-forward every clone to the upstream default branch",
		Long: `Fetch the upstream default branch into every clone under the base directory
and fast-forward the local branch of the same name when it is strictly behind.

Without a title the repository is found from the clones' upstream remote and
looked up in the configuration by URL. Clones that diverged, have local changes
in the way or could not be fetched are reported; the command then exits with
status 2. Configuration errors exit with status 3 before any clone is touched.`,
		Example: `  # Sync the clones of a configured repository
  forksync sync "Repo1"

  # Detect the repository and only report what would change
  forksync sync --dry-run

  # Sync two clones, four at a time
  forksync sync "Repo1" --only forkA,forkB --jobs 4`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, args, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 1, "Number of clones synced concurrently")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "Fetch and compare only; never move a branch")
	cmd.Flags().StringVar(&flags.remote, "remote", git.DefaultRemoteName, "Remote name created for the upstream")
	cmd.Flags().BoolVar(&flags.noReport, "no-report", false, "Do not store the run report")
	cmd.Flags().StringSliceVar(&flags.only, "only", nil, "Only sync the named clones (comma-separated)")
	cmd.Flags().DurationVar(&flags.lockTimeout, "lock-timeout", forks.DefaultLockTimeout, "How long to wait for a clone lock")

	return cmd
}

func runSync(cmd *cobra.Command, args []string, flags *syncFlags) error {
	if flags.jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newContainer(cmd)
	if err != nil {
		return err
	}

	req := app.SyncRequest{
		Only:        flags.only,
		Remote:      flags.remote,
		DryRun:      flags.dryRun,
		Jobs:        flags.jobs,
		LockTimeout: flags.lockTimeout,
		NoReport:    flags.noReport,
	}
	if len(args) > 0 {
		req.Title = args[0]
	}

	progress := newProgress(logger.FromContext(ctx))
	req.Observer = progress.observe

	run, err := c.Sync(ctx, req)
	progress.clear()
	if err != nil {
		return err
	}

	if ui.GlobalFormatter.IsStructured() {
		if err := ui.GlobalFormatter.Output(run.Report); err != nil {
			return err
		}
	} else {
		mode := ""
		if flags.dryRun {
			mode = ui.DimStyle.Render(" (dry run)")
		}
		ui.OutputLine("%s %s %s%s", ui.RepositoryIcon, ui.BoldStyle.Render(run.Descriptor.Title), ui.DimStyle.Render(run.Descriptor.UpstreamURL), mode)
		ui.OutputLine("")
		ui.PrintResults(run.Results)
		if ctx.Err() != nil {
			ui.Warning("Interrupted; remaining clones were not synced")
		}
	}

	if run.Report.Summary.NeedsAttention() > 0 {
		return ErrNeedsAttention
	}
	return nil
}

// progress shows the current stage of each clone on an interactive stderr
// and logs it otherwise
type progress struct {
	log         logger.Logger
	interactive bool
	width       int
}

func newProgress(log logger.Logger) *progress {
	interactive := !ui.GlobalFormatter.IsStructured() && terminal.IsTerminal(ui.Stderr)
	return &progress{
		log:         log,
		interactive: interactive,
		width:       terminal.Width(ui.Stderr),
	}
}

// observe is called by the engine with its observer lock held
func (p *progress) observe(ev forks.Event) {
	line := fmt.Sprintf("%s %s: %s", ui.ForkIcon, ev.Clone.Name, ev.Stage)
	if ev.Result != nil {
		line = fmt.Sprintf("%s %s: %s", ui.ForkIcon, ev.Clone.Name, ev.Result.Outcome)
	}

	if !p.interactive {
		p.log.Debug("progress", "clone", ev.Clone.Name, "stage", ev.Stage)
		return
	}
	fmt.Fprintf(ui.Stderr, "\r\033[K%s", terminal.Truncate(line, p.width-1))
}

func (p *progress) clear() {
	if p.interactive {
		fmt.Fprint(ui.Stderr, "\r\033[K")
	}
}
