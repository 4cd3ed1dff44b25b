package forks

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aki/forksync/internal/core/config"
	"github.com/aki/forksync/internal/core/git"
	"github.com/aki/forksync/internal/core/logger"
	"github.com/aki/forksync/internal/filemanager"
)

// ErrNoUpstream is returned by DetectUpstream when no clone has an upstream remote
var ErrNoUpstream = errors.New("no upstream remote found in any clone")

// ErrAmbiguousUpstream is returned by DetectUpstream when clones disagree
var ErrAmbiguousUpstream = errors.New("found more than one upstream")

// Engine syncs clones against an upstream repository
type Engine struct {
	opener      git.Opener
	remote      string
	dryRun      bool
	jobs        int
	lockTimeout time.Duration
	lockDir     string
	logger      logger.Logger
	observer    Observer

	observerMu sync.Mutex
}

// NewEngine creates an engine that opens clones through opener
func NewEngine(opener git.Opener, opts ...Option) *Engine {
	e := &Engine{
		opener:      opener,
		remote:      git.DefaultRemoteName,
		jobs:        1,
		lockTimeout: DefaultLockTimeout,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SyncRepository syncs every clone against descriptor's upstream and returns
// one result per clone in input order. A failing clone never stops the others;
// after cancellation the remaining clones are reported as Cancelled.
func (e *Engine) SyncRepository(ctx context.Context, descriptor *config.Descriptor, clones []CloneHandle) []Result {
	results := make([]Result, len(clones))
	log := e.logger.With("repository", descriptor.Title)
	log.Info("sync started", "upstream", descriptor.UpstreamURL, "clones", len(clones), "jobs", e.jobs, "dryRun", e.dryRun)

	workers := min(e.jobs, len(clones))
	if workers <= 1 {
		for i, clone := range clones {
			results[i] = e.syncClone(ctx, log, i, descriptor, clone)
		}
	} else {
		indices := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indices {
					results[i] = e.syncClone(ctx, log, i, descriptor, clones[i])
				}
			}()
		}
		for i := range clones {
			indices <- i
		}
		close(indices)
		wg.Wait()
	}

	summary := Summarize(results)
	log.Info("sync finished",
		"upToDate", summary.UpToDate,
		"fastForwarded", summary.FastForwarded,
		"behind", summary.Behind,
		"diverged", summary.Diverged,
		"failed", summary.Failed)

	return results
}

func (e *Engine) syncClone(ctx context.Context, log logger.Logger, index int, descriptor *config.Descriptor, clone CloneHandle) (res Result) {
	if clone.Descriptor == nil {
		clone.Descriptor = descriptor
	}
	res = Result{Clone: clone}
	log = log.With("clone", clone.Name)

	e.notify(Event{Index: index, Clone: clone, Stage: StageStarting})
	defer func() {
		e.logResult(log, res)
		e.notify(Event{Index: index, Clone: clone, Stage: StageDone, Result: &res})
	}()

	if err := ctx.Err(); err != nil {
		return failed(res, err)
	}

	unlock, err := filemanager.Lock(ctx, e.lockPath(clone), e.lockTimeout)
	if err != nil {
		return failed(res, fmt.Errorf("failed to lock clone: %w", err))
	}
	defer unlock()

	repo, err := e.opener.Open(clone.Path)
	if err != nil {
		return failed(res, err)
	}

	remote, err := repo.EnsureRemote(e.remote, descriptor.UpstreamURL)
	if err != nil {
		return failed(res, err)
	}
	res.Remote = remote

	e.notify(Event{Index: index, Clone: clone, Stage: StageFetching})
	log.Debug("fetching upstream", "remote", remote)
	branch, upstreamTip, err := repo.FetchDefaultBranch(ctx, remote)
	if err != nil {
		return failed(res, err)
	}
	res.Branch = branch
	res.Upstream = upstreamTip

	e.notify(Event{Index: index, Clone: clone, Stage: StageComparing})
	local, err := repo.LocalTip(branch)
	if err != nil {
		return failed(res, err)
	}
	res.Before = local
	res.After = local
	log.Debug("comparing", "branch", branch, "local", local.Short(), "upstream", upstreamTip.Short())

	if local == upstreamTip {
		res.Outcome = OutcomeUpToDate
		return res
	}

	behind, err := repo.IsAncestor(local, upstreamTip)
	if err != nil {
		return failed(res, err)
	}
	if !behind {
		ahead, err := repo.IsAncestor(upstreamTip, local)
		if err != nil {
			return failed(res, err)
		}
		res.Outcome = OutcomeDiverged
		res.LocalAhead = ahead
		return res
	}

	if e.dryRun {
		res.Outcome = OutcomeBehind
		return res
	}

	// No fast-forward starts after cancellation
	if err := ctx.Err(); err != nil {
		return failed(res, err)
	}

	e.notify(Event{Index: index, Clone: clone, Stage: StageFastForwarding})
	if err := repo.FastForward(ctx, branch, upstreamTip); err != nil {
		return failed(res, err)
	}
	res.After = upstreamTip
	res.Outcome = OutcomeFastForwarded
	return res
}

// DetectUpstream returns the URL the clones' upstream remote points at.
// Clones without that remote are ignored; disagreeing clones are an error.
func (e *Engine) DetectUpstream(ctx context.Context, clones []CloneHandle) (string, error) {
	var upstream, from string
	for _, clone := range clones {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		repo, err := e.opener.Open(clone.Path)
		if err != nil {
			e.logger.Warn("skipping clone during upstream detection", "clone", clone.Name, "error", err)
			continue
		}
		remotes, err := repo.Remotes()
		if err != nil {
			return "", fmt.Errorf("failed to read remotes of %s: %w", clone.Name, err)
		}

		url, ok := remotes[e.remote]
		if !ok || url == "" {
			continue
		}
		if upstream == "" {
			upstream, from = url, clone.Name
			continue
		}
		if strings.TrimRight(url, "/") != strings.TrimRight(upstream, "/") {
			return "", fmt.Errorf("%w: %s (%s) and %s (%s)", ErrAmbiguousUpstream, upstream, from, url, clone.Name)
		}
	}

	if upstream == "" {
		return "", fmt.Errorf("%w: looked for remote %q", ErrNoUpstream, e.remote)
	}
	return upstream, nil
}

func (e *Engine) lockPath(clone CloneHandle) string {
	dir := e.lockDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(clone.Path), StateDir, "locks")
	}
	return filepath.Join(dir, clone.Name+".lock")
}

func (e *Engine) notify(ev Event) {
	if e.observer == nil {
		return
	}
	e.observerMu.Lock()
	defer e.observerMu.Unlock()
	e.observer(ev)
}

func (e *Engine) logResult(log logger.Logger, res Result) {
	switch res.Outcome {
	case OutcomeFailed:
		log.Warn("clone failed", "reason", res.Reason, "error", res.Err)
	case OutcomeDiverged:
		log.Warn("clone diverged", "branch", res.Branch, "localAhead", res.LocalAhead)
	default:
		log.Info("clone synced", "outcome", res.Outcome, "branch", res.Branch, "before", res.Before.Short(), "after", res.After.Short())
	}
}

func failed(res Result, err error) Result {
	res.Outcome = OutcomeFailed
	res.Reason = classify(err)
	res.Err = err
	return res
}
