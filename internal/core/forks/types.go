package forks

import (
	"context"
	"errors"
	"fmt"

	"github.com/aki/forksync/internal/core/config"
	"github.com/aki/forksync/internal/core/git"
)

// Outcome is the result category of syncing one clone
type Outcome string

const (
	// OutcomeUpToDate means the local branch already equals the upstream tip
	OutcomeUpToDate Outcome = "UpToDate"
	// OutcomeFastForwarded means the local branch was moved to the upstream tip
	OutcomeFastForwarded Outcome = "FastForwarded"
	// OutcomeBehind means a fast-forward is possible but dry-run skipped it
	OutcomeBehind Outcome = "Behind"
	// OutcomeDiverged means the local branch has commits upstream does not
	OutcomeDiverged Outcome = "Diverged"
	// OutcomeFailed means the clone could not be synced; see Result.Reason
	OutcomeFailed Outcome = "Failed"
)

// NeedsAttention reports whether a human has to look at the clone
func (o Outcome) NeedsAttention() bool {
	return o == OutcomeDiverged || o == OutcomeFailed
}

// FailureReason classifies a Failed outcome
type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonNetwork          FailureReason = "NetworkError"
	ReasonWorkingTreeDirty FailureReason = "WorkingTreeDirty"
	ReasonRemoteConflict   FailureReason = "RemoteConflict"
	ReasonBranchMissing    FailureReason = "BranchMissing"
	ReasonCancelled        FailureReason = "Cancelled"
	ReasonGitError         FailureReason = "GitError"
)

// CloneHandle is a local working copy found under a root directory
type CloneHandle struct {
	Path string
	// Name is the directory base name
	Name       string
	Descriptor *config.Descriptor
}

// Result is the outcome of syncing one clone
type Result struct {
	Clone   CloneHandle
	Outcome Outcome
	Reason  FailureReason
	Err     error

	// Remote is the remote name the upstream was fetched through
	Remote string
	// Branch is the upstream default branch and the local branch synced
	Branch   string
	Before   git.Hash
	After    git.Hash
	Upstream git.Hash
	// LocalAhead is set for Diverged results where upstream is an ancestor
	// of the local branch, i.e. the clone only has extra commits
	LocalAhead bool
}

// Detail is a one-line human explanation of the result
func (r Result) Detail() string {
	switch r.Outcome {
	case OutcomeUpToDate:
		return fmt.Sprintf("%s at %s", r.Branch, r.After.Short())
	case OutcomeFastForwarded:
		return fmt.Sprintf("%s %s..%s", r.Branch, r.Before.Short(), r.After.Short())
	case OutcomeBehind:
		return fmt.Sprintf("%s can fast-forward %s..%s", r.Branch, r.Before.Short(), r.Upstream.Short())
	case OutcomeDiverged:
		if r.LocalAhead {
			return fmt.Sprintf("%s is ahead of %s/%s", r.Branch, r.Remote, r.Branch)
		}
		return fmt.Sprintf("%s and %s/%s have diverged", r.Branch, r.Remote, r.Branch)
	case OutcomeFailed:
		if r.Err != nil {
			return fmt.Sprintf("%s: %v", r.Reason, r.Err)
		}
		return string(r.Reason)
	default:
		return ""
	}
}

// Summary counts results per outcome
type Summary struct {
	Total         int `json:"total" yaml:"total"`
	UpToDate      int `json:"upToDate" yaml:"upToDate"`
	FastForwarded int `json:"fastForwarded" yaml:"fastForwarded"`
	Behind        int `json:"behind,omitempty" yaml:"behind,omitempty"`
	Diverged      int `json:"diverged" yaml:"diverged"`
	Failed        int `json:"failed" yaml:"failed"`
}

// Summarize counts results per outcome
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		s.Add(r.Outcome)
	}
	return s
}

// Add counts one outcome without touching Total
func (s *Summary) Add(o Outcome) {
	switch o {
	case OutcomeUpToDate:
		s.UpToDate++
	case OutcomeFastForwarded:
		s.FastForwarded++
	case OutcomeBehind:
		s.Behind++
	case OutcomeDiverged:
		s.Diverged++
	case OutcomeFailed:
		s.Failed++
	}
}

// NeedsAttention returns how many clones diverged or failed
func (s Summary) NeedsAttention() int {
	return s.Diverged + s.Failed
}

// AllUpToDate reports whether every clone now matches upstream
func (s Summary) AllUpToDate() bool {
	return s.UpToDate+s.FastForwarded == s.Total
}

// classify maps an error from the git layer to a FailureReason
func classify(err error) FailureReason {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCancelled
	case errors.Is(err, git.ErrNetwork):
		return ReasonNetwork
	case errors.Is(err, git.ErrWorkingTreeDirty):
		return ReasonWorkingTreeDirty
	case errors.Is(err, git.ErrRemoteConflict):
		return ReasonRemoteConflict
	case errors.Is(err, git.ErrBranchMissing):
		return ReasonBranchMissing
	default:
		return ReasonGitError
	}
}
