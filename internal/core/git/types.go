// Package git is the version-control boundary of forksync.
//
// The sync engine only needs a handful of operations on a clone: make sure a
// remote points at the upstream, fetch the upstream default branch, read a
// local branch tip, test ancestry and fast-forward a branch. Repository
// captures exactly that so the engine can run against a fake in tests. The
// go-git backed implementation is returned by NewOpener.
package git

import (
	"context"
)

// DefaultRemoteName is the remote created for the upstream when no existing
// remote already points at it.
const DefaultRemoteName = "upstream"

// Hash is a full hex commit id
type Hash string

// String implements fmt.Stringer
func (h Hash) String() string {
	return string(h)
}

// Short returns the abbreviated commit id
func (h Hash) Short() string {
	if len(h) > 12 {
		return string(h[:12])
	}
	return string(h)
}

// IsZero reports whether the hash is empty
func (h Hash) IsZero() bool {
	return h == ""
}

// Opener opens local clones
type Opener interface {
	Open(path string) (Repository, error)
}

// Repository is the set of operations the sync engine performs on one clone.
// Implementations are not safe for concurrent use.
type Repository interface {
	// EnsureRemote returns the name of a remote whose URL is url. When none
	// exists, a remote called name is created. ErrRemoteConflict is returned
	// if name is already taken by a remote with a different URL.
	EnsureRemote(name, url string) (string, error)

	// FetchDefaultBranch fetches the default branch of remote into
	// refs/remotes/<remote>/<branch> and returns the branch name and its tip.
	// Only the tracking reference is written; the worktree is untouched.
	FetchDefaultBranch(ctx context.Context, remote string) (string, Hash, error)

	// LocalTip returns the tip of a local branch or ErrBranchMissing
	LocalTip(branch string) (Hash, error)

	// IsAncestor reports whether ancestor is reachable from descendant.
	// A commit is its own ancestor.
	IsAncestor(ancestor, descendant Hash) (bool, error)

	// FastForward moves branch to target. When the branch is checked out
	// the worktree is updated too; ErrWorkingTreeDirty is returned, without
	// changing anything, if local changes would be overwritten.
	FastForward(ctx context.Context, branch string, target Hash) error

	// CurrentBranch returns the checked out branch, or "HEAD" when detached
	CurrentBranch() (string, error)

	// Remotes returns remote names mapped to their first URL
	Remotes() (map[string]string, error)
}

// RepositoryInfo summarises a clone for display
type RepositoryInfo struct {
	Path          string            `json:"path" yaml:"path"`
	CurrentBranch string            `json:"currentBranch" yaml:"currentBranch"`
	Remotes       map[string]string `json:"remotes,omitempty" yaml:"remotes,omitempty"`
}

// Describe collects display information for the clone at path
func Describe(opener Opener, path string) (*RepositoryInfo, error) {
	repo, err := opener.Open(path)
	if err != nil {
		return nil, err
	}

	info := &RepositoryInfo{Path: path}

	branch, err := repo.CurrentBranch()
	if err != nil {
		return nil, WrapError(err, "failed to read current branch")
	}
	info.CurrentBranch = branch

	remotes, err := repo.Remotes()
	if err != nil {
		return nil, WrapError(err, "failed to read remotes")
	}
	info.Remotes = remotes

	return info, nil
}
