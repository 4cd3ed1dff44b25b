// Package app wires configuration, clone discovery, the sync engine and the
// report store together for the CLI and MCP front ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aki/forksync/internal/core/config"
	"github.com/aki/forksync/internal/core/forks"
	"github.com/aki/forksync/internal/core/git"
	"github.com/aki/forksync/internal/core/logger"
	"github.com/aki/forksync/internal/core/report"
)

// UnknownRepo is the title used when the detected upstream is not configured
const UnknownRepo = "Unknown Repo"

var (
	// ErrNoRepositories is returned when the configuration lists nothing to sync
	ErrNoRepositories = errors.New("no repositories configured")

	// ErrUnknownRepository is returned for a title that is not configured
	ErrUnknownRepository = errors.New("unknown repository")

	// ErrUnknownClone is returned when a selected clone name was not discovered
	ErrUnknownClone = errors.New("unknown clone")
)

// Container holds the shared dependencies of one root directory
type Container struct {
	// Root is the absolute directory holding the clones
	Root string

	ConfigManager *config.Manager
	Opener        git.Opener
	Reports       *report.Store
	Logger        logger.Logger
}

// NewContainer creates a container for the clones under root. The
// configuration is read lazily so commands that do not need it still work
// without a config file.
func NewContainer(root, configPath string, log logger.Logger) (*Container, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid base directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("invalid base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", forks.ErrNotDirectory, abs)
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Container{
		Root:          abs,
		ConfigManager: config.NewManager(configPath),
		Opener:        git.NewOpener(),
		Reports:       report.NewStore(abs),
		Logger:        log,
	}, nil
}

// Registry loads the configuration
func (c *Container) Registry() (*config.Registry, error) {
	return c.ConfigManager.Load()
}

// Clones discovers the clones under the root
func (c *Container) Clones() ([]forks.CloneHandle, error) {
	seq, err := forks.DiscoverClones(c.Root)
	if err != nil {
		return nil, err
	}
	return forks.CollectClones(seq), nil
}

// Engine creates a sync engine logging through the container's logger
func (c *Container) Engine(opts ...forks.Option) *forks.Engine {
	all := append([]forks.Option{forks.WithLogger(c.Logger)}, opts...)
	return forks.NewEngine(c.Opener, all...)
}

// ResolveRepository picks the descriptor to sync. A title is looked up in
// the registry; without one the clones' upstream remote decides, and an
// upstream missing from the registry is synced as UnknownRepo.
func (c *Container) ResolveRepository(ctx context.Context, registry *config.Registry, title, remote string, clones []forks.CloneHandle) (config.Descriptor, error) {
	if title != "" {
		d, ok := registry.Get(title)
		if !ok {
			return config.Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownRepository, title)
		}
		return d, nil
	}

	url, err := c.Engine(forks.WithRemote(remote)).DetectUpstream(ctx, clones)
	if err != nil {
		return config.Descriptor{}, err
	}
	if d, ok := registry.LookupURL(url); ok {
		return d, nil
	}

	c.Logger.Warn("upstream is not in the configuration", "url", url)
	return config.Descriptor{Title: UnknownRepo, UpstreamURL: url}, nil
}

// SyncRequest describes one sync run
type SyncRequest struct {
	// Title of the repository; empty means detect it from the clones
	Title string
	// Only restricts the run to the named clones
	Only        []string
	Remote      string
	DryRun      bool
	Jobs        int
	LockTimeout time.Duration
	NoReport    bool
	Observer    forks.Observer
}

// Run is the outcome of Sync
type Run struct {
	Descriptor config.Descriptor
	Results    []forks.Result
	Report     *report.Report
}

// Sync resolves the repository, syncs the selected clones and stores the
// report. Configuration and selection problems are returned before any
// clone is touched; per-clone failures are only in the results.
func (c *Container) Sync(ctx context.Context, req SyncRequest) (*Run, error) {
	registry, err := c.Registry()
	if err != nil {
		return nil, err
	}
	if registry.Len() == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRepositories, registry.Path())
	}

	clones, err := c.Clones()
	if err != nil {
		return nil, err
	}

	remote := req.Remote
	if remote == "" {
		remote = git.DefaultRemoteName
	}

	// Detection only looks at the clones this run will touch.
	if len(req.Only) > 0 {
		selected, unknown := forks.Select(clones, req.Only)
		if len(unknown) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownClone, strings.Join(unknown, ", "))
		}
		clones = selected
	}

	descriptor, err := c.ResolveRepository(ctx, registry, req.Title, remote, clones)
	if err != nil {
		return nil, err
	}
	clones = forks.Bind(&descriptor, clones)

	opts := []forks.Option{
		forks.WithRemote(remote),
		forks.WithDryRun(req.DryRun),
		forks.WithJobs(req.Jobs),
	}
	if req.LockTimeout > 0 {
		opts = append(opts, forks.WithLockTimeout(req.LockTimeout))
	}
	if req.Observer != nil {
		opts = append(opts, forks.WithObserver(req.Observer))
	}

	started := time.Now()
	results := c.Engine(opts...).SyncRepository(ctx, &descriptor, clones)
	rep := report.New(&descriptor, c.Root, results, started, time.Now())
	rep.DryRun = req.DryRun

	if !req.NoReport {
		// An interrupted run is still worth recording
		if err := c.Reports.Save(context.WithoutCancel(ctx), rep); err != nil {
			c.Logger.Warn("failed to save report", "path", c.Reports.Path(), "error", err)
		}
	}

	return &Run{Descriptor: descriptor, Results: results, Report: rep}, nil
}
