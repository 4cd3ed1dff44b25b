package forks

import (
	"time"

	"github.com/aki/forksync/internal/core/logger"
)

// DefaultLockTimeout bounds how long a sync waits for another process
// holding the same clone
const DefaultLockTimeout = 10 * time.Second

// Stage marks progress through one clone's sync
type Stage string

const (
	StageStarting       Stage = "starting"
	StageFetching       Stage = "fetching"
	StageComparing      Stage = "comparing"
	StageFastForwarding Stage = "fast-forwarding"
	StageDone           Stage = "done"
)

// Event reports a stage change for the clone at Index in the input slice.
// Result is only set for StageDone.
type Event struct {
	Index  int
	Clone  CloneHandle
	Stage  Stage
	Result *Result
}

// Observer receives progress events. Calls are serialized by the engine.
type Observer func(Event)

// Option configures an Engine
type Option func(*Engine)

// WithRemote sets the remote name created for the upstream when no existing
// remote already points at it
func WithRemote(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.remote = name
		}
	}
}

// WithDryRun reports Behind instead of fast-forwarding
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

// WithJobs sets how many clones are synced concurrently
func WithJobs(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.jobs = n
		}
	}
}

// WithLockTimeout sets how long to wait for a clone lock
func WithLockTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.lockTimeout = d
		}
	}
}

// WithLockDir overrides where clone lock files are kept. By default each
// clone is locked under <parent>/.forksync/locks.
func WithLockDir(dir string) Option {
	return func(e *Engine) {
		e.lockDir = dir
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// WithObserver registers a progress callback
func WithObserver(obs Observer) Option {
	return func(e *Engine) {
		e.observer = obs
	}
}
