// Package helpers builds on-disk git repositories for tests.
package helpers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// DefaultBranch is the branch test repositories start on
const DefaultBranch = "main"

// TestRepo is a non-bare repository with a worktree
type TestRepo struct {
	t    *testing.T
	Path string
	Repo *gogit.Repository
}

// CreateTestRepo initialises a repository at dir on DefaultBranch with one
// commit containing README.md
func CreateTestRepo(t *testing.T, dir string) *TestRepo {
	t.Helper()

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err, "failed to init repository")

	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(DefaultBranch))
	require.NoError(t, repo.Storer.SetReference(head), "failed to point HEAD at %s", DefaultBranch)

	r := &TestRepo{t: t, Path: dir, Repo: repo}
	r.Commit("README.md", "# Test Repository\n", "Initial commit")
	return r
}

// CloneTestRepo clones source into dir and repoints origin at forkURL so the
// clone looks like a fork whose upstream is source
func CloneTestRepo(t *testing.T, source, dir, forkURL string) *TestRepo {
	t.Helper()

	repo, err := gogit.PlainClone(dir, false, &gogit.CloneOptions{URL: source})
	require.NoError(t, err, "failed to clone %s", source)

	require.NoError(t, repo.DeleteRemote(gogit.DefaultRemoteName))
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: gogit.DefaultRemoteName,
		URLs: []string{forkURL},
	})
	require.NoError(t, err)

	return &TestRepo{t: t, Path: dir, Repo: repo}
}

// WriteFile writes content to a path relative to the worktree without staging it
func (r *TestRepo) WriteFile(name, content string) {
	r.t.Helper()

	path := filepath.Join(r.Path, name)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
}

// ReadFile returns the worktree content of name
func (r *TestRepo) ReadFile(name string) string {
	r.t.Helper()

	data, err := os.ReadFile(filepath.Join(r.Path, name))
	require.NoError(r.t, err)
	return string(data)
}

// Commit writes, stages and commits one file, returning the new commit id
func (r *TestRepo) Commit(name, content, message string) string {
	r.t.Helper()

	r.WriteFile(name, content)

	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	_, err = wt.Add(name)
	require.NoError(r.t, err)

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(r.t, err)
	return hash.String()
}

// Delete removes one file and commits the removal, returning the new commit id
func (r *TestRepo) Delete(name, message string) string {
	r.t.Helper()

	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	_, err = wt.Remove(name)
	require.NoError(r.t, err)

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(r.t, err)
	return hash.String()
}

// Clean reports whether the worktree has no tracked changes
func (r *TestRepo) Clean() bool {
	r.t.Helper()

	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	status, err := wt.Status()
	require.NoError(r.t, err)
	for _, st := range status {
		if st.Staging == gogit.Untracked && st.Worktree == gogit.Untracked {
			continue
		}
		if st.Staging != gogit.Unmodified || st.Worktree != gogit.Unmodified {
			return false
		}
	}
	return true
}

// Head returns the commit id of a local branch
func (r *TestRepo) Head(branch string) string {
	r.t.Helper()

	ref, err := r.Repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	require.NoError(r.t, err)
	return ref.Hash().String()
}

// Checkout switches the worktree to branch, creating it at the current HEAD
// when create is set
func (r *TestRepo) Checkout(branch string, create bool) {
	r.t.Helper()

	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	require.NoError(r.t, wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: create,
	}))
}

// Remotes returns remote names mapped to their first URL
func (r *TestRepo) Remotes() map[string]string {
	r.t.Helper()

	remotes, err := r.Repo.Remotes()
	require.NoError(r.t, err)

	out := make(map[string]string, len(remotes))
	for _, remote := range remotes {
		out[remote.Config().Name] = remote.Config().URLs[0]
	}
	return out
}
