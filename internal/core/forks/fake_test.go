package forks

import (
	"context"
	"fmt"
	"sync"

	"github.com/aki/forksync/internal/core/git"
)

// history is a commit graph keyed by commit with each commit's parent
type history map[git.Hash]git.Hash

func (h history) isAncestor(ancestor, descendant git.Hash) bool {
	for c := descendant; c != ""; c = h[c] {
		if c == ancestor {
			return true
		}
	}
	return false
}

// chain adds commits on top of base and returns the tip
func (h history) chain(base git.Hash, names ...string) git.Hash {
	tip := base
	for _, n := range names {
		c := git.Hash(n)
		h[c] = tip
		tip = c
	}
	return tip
}

type fakeRepo struct {
	mu sync.Mutex

	graph    history
	remotes  map[string]string
	branch   string
	upstream git.Hash
	local    map[string]git.Hash

	fetchErr error
	ffErr    error
	fetches  int
	ffCalls  int
}

func newFakeRepo(graph history, local, upstream git.Hash) *fakeRepo {
	return &fakeRepo{
		graph:    graph,
		remotes:  map[string]string{"origin": "git@host:me/fork.git"},
		branch:   "main",
		upstream: upstream,
		local:    map[string]git.Hash{"main": local},
	}
}

func (r *fakeRepo) EnsureRemote(name, url string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for n, u := range r.remotes {
		if u == url {
			return n, nil
		}
	}
	if existing, ok := r.remotes[name]; ok {
		return "", fmt.Errorf("remote %q is %s: %w", name, existing, git.ErrRemoteConflict)
	}
	r.remotes[name] = url
	return name, nil
}

func (r *fakeRepo) FetchDefaultBranch(ctx context.Context, remote string) (string, git.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fetches++
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	if r.fetchErr != nil {
		return "", "", r.fetchErr
	}
	return r.branch, r.upstream, nil
}

func (r *fakeRepo) LocalTip(branch string) (git.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.local[branch]
	if !ok {
		return "", fmt.Errorf("local branch %q: %w", branch, git.ErrBranchMissing)
	}
	return h, nil
}

func (r *fakeRepo) IsAncestor(ancestor, descendant git.Hash) (bool, error) {
	return r.graph.isAncestor(ancestor, descendant), nil
}

func (r *fakeRepo) FastForward(ctx context.Context, branch string, target git.Hash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ffCalls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ffErr != nil {
		return r.ffErr
	}
	r.local[branch] = target
	return nil
}

func (r *fakeRepo) CurrentBranch() (string, error) {
	return r.branch, nil
}

func (r *fakeRepo) Remotes() (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]string, len(r.remotes))
	for k, v := range r.remotes {
		out[k] = v
	}
	return out, nil
}

func (r *fakeRepo) tip() git.Hash {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.local[r.branch]
}

// fakeOpener serves fake repositories by clone path
type fakeOpener map[string]*fakeRepo

func (o fakeOpener) Open(path string) (git.Repository, error) {
	repo, ok := o[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, git.ErrNotRepository)
	}
	return repo, nil
}
