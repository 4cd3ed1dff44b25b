package git

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Operations implements Repository on top of go-git
type Operations struct {
	repoPath string
	repo     *gogit.Repository
}

type goGitOpener struct{}

// NewOpener returns an Opener backed by go-git
func NewOpener() Opener {
	return goGitOpener{}
}

// Open opens the working copy at path. The path itself must hold the git
// metadata; parent directories are not searched.
func (goGitOpener) Open(path string) (Repository, error) {
	return NewOperations(path)
}

// NewOperations opens the repository at repoPath
func NewOperations(repoPath string) (*Operations, error) {
	repo, err := gogit.PlainOpenWithOptions(repoPath, &gogit.PlainOpenOptions{
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, WrapErrorf(ErrNotRepository, "failed to open %s", repoPath)
		}
		return nil, WrapErrorf(err, "failed to open repository at %s", repoPath)
	}
	return &Operations{repoPath: repoPath, repo: repo}, nil
}

// IsGitRepository checks if the path is a git repository
func IsGitRepository(path string) bool {
	_, err := gogit.PlainOpen(path)
	return err == nil
}

// EnsureRemote implements Repository
func (o *Operations) EnsureRemote(name, url string) (string, error) {
	remotes, err := o.repo.Remotes()
	if err != nil {
		return "", WrapError(err, "failed to list remotes")
	}

	want := normalizeURL(url)
	var matches []string
	for _, remote := range remotes {
		cfg := remote.Config()
		for _, u := range cfg.URLs {
			if normalizeURL(u) == want {
				matches = append(matches, cfg.Name)
				break
			}
		}
	}
	if len(matches) > 0 {
		sort.Strings(matches)
		for _, m := range matches {
			if m == name {
				return name, nil
			}
		}
		return matches[0], nil
	}

	existing, err := o.repo.Remote(name)
	switch {
	case err == nil:
		return "", WrapErrorf(ErrRemoteConflict, "remote %q is %s, not %s", name, firstURL(existing.Config().URLs), url)
	case errors.Is(err, gogit.ErrRemoteNotFound):
	default:
		return "", WrapErrorf(err, "failed to read remote %q", name)
	}

	_, err = o.repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		return "", WrapErrorf(err, "failed to create remote %q", name)
	}
	return name, nil
}

// FetchDefaultBranch implements Repository
func (o *Operations) FetchDefaultBranch(ctx context.Context, remoteName string) (string, Hash, error) {
	remote, err := o.repo.Remote(remoteName)
	if err != nil {
		return "", "", WrapErrorf(err, "failed to read remote %q", remoteName)
	}

	refs, err := remote.ListContext(ctx, &gogit.ListOptions{})
	if err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return "", "", WrapErrorf(ErrBranchMissing, "remote %q has no branches", remoteName)
		}
		return "", "", networkError(ctx, err, "failed to list upstream references")
	}

	branch, err := defaultBranch(refs)
	if err != nil {
		return "", "", WrapErrorf(err, "remote %q", remoteName)
	}

	tracking := plumbing.NewRemoteReferenceName(remoteName, branch)
	refSpec := gitconfig.RefSpec(fmt.Sprintf("+%s:%s", plumbing.NewBranchReferenceName(branch), tracking))

	err = o.repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Tags:       gogit.NoTags,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return "", "", networkError(ctx, err, "failed to fetch upstream")
	}

	ref, err := o.repo.Reference(tracking, true)
	if err != nil {
		return "", "", WrapErrorf(err, "failed to read %s", tracking)
	}

	return branch, Hash(ref.Hash().String()), nil
}

// LocalTip implements Repository
func (o *Operations) LocalTip(branch string) (Hash, error) {
	ref, err := o.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", WrapErrorf(ErrBranchMissing, "local branch %q", branch)
		}
		return "", WrapErrorf(err, "failed to read branch %q", branch)
	}
	return Hash(ref.Hash().String()), nil
}

// IsAncestor implements Repository
func (o *Operations) IsAncestor(ancestor, descendant Hash) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}

	a, err := o.repo.CommitObject(plumbing.NewHash(string(ancestor)))
	if err != nil {
		return false, WrapErrorf(err, "failed to load commit %s", ancestor.Short())
	}
	d, err := o.repo.CommitObject(plumbing.NewHash(string(descendant)))
	if err != nil {
		return false, WrapErrorf(err, "failed to load commit %s", descendant.Short())
	}

	ok, err := a.IsAncestor(d)
	if err != nil {
		return false, WrapError(err, "failed to walk history")
	}
	return ok, nil
}

// FastForward implements Repository
func (o *Operations) FastForward(ctx context.Context, branch string, target Hash) error {
	branchRef := plumbing.NewBranchReferenceName(branch)
	current, err := o.repo.Reference(branchRef, true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return WrapErrorf(ErrBranchMissing, "local branch %q", branch)
		}
		return WrapErrorf(err, "failed to read branch %q", branch)
	}

	to := plumbing.NewHash(string(target))
	if current.Hash() == to {
		return nil
	}

	ok, err := o.IsAncestor(Hash(current.Hash().String()), target)
	if err != nil {
		return err
	}
	if !ok {
		return WrapErrorf(ErrNotFastForward, "%s is not an ancestor of %s", Hash(current.Hash().String()).Short(), target.Short())
	}

	checkedOut, err := o.isCheckedOut(branchRef)
	if err != nil {
		return err
	}

	var (
		wt      *gogit.Worktree
		changes object.Changes
	)
	if checkedOut {
		wt, err = o.repo.Worktree()
		switch {
		case errors.Is(err, gogit.ErrIsBareRepository):
			checkedOut = false
		case err != nil:
			return WrapError(err, "failed to open worktree")
		default:
			if changes, err = o.treeChanges(ctx, current.Hash(), to); err != nil {
				return err
			}
			if err := checkClean(wt, changes); err != nil {
				return err
			}
		}
	}

	// Last point where cancellation leaves the clone untouched.
	if err := ctx.Err(); err != nil {
		return err
	}

	next := plumbing.NewHashReference(branchRef, to)
	if err := o.repo.Storer.CheckAndSetReference(next, current); err != nil {
		return WrapErrorf(err, "failed to update branch %q", branch)
	}
	if !checkedOut {
		return nil
	}

	if err := o.applyChanges(wt, changes); err != nil {
		// Restore the old tip; anything already written then shows as local changes.
		if rerr := o.repo.Storer.CheckAndSetReference(current, next); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return WrapError(err, "failed to update worktree")
	}
	return nil
}

func (o *Operations) isCheckedOut(branchRef plumbing.ReferenceName) (bool, error) {
	head, err := o.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return false, WrapError(err, "failed to get HEAD")
	}
	return head.Type() == plumbing.SymbolicReference && head.Target() == branchRef, nil
}

func (o *Operations) treeChanges(ctx context.Context, from, to plumbing.Hash) (object.Changes, error) {
	fromCommit, err := o.repo.CommitObject(from)
	if err != nil {
		return nil, WrapErrorf(err, "failed to load commit %s", from)
	}
	toCommit, err := o.repo.CommitObject(to)
	if err != nil {
		return nil, WrapErrorf(err, "failed to load commit %s", to)
	}

	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, WrapError(err, "failed to load tree")
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, WrapError(err, "failed to load tree")
	}

	changes, err := fromTree.DiffContext(ctx, toTree)
	if err != nil {
		return nil, WrapError(err, "failed to diff trees")
	}
	return changes, nil
}

// CurrentBranch implements Repository
func (o *Operations) CurrentBranch() (string, error) {
	head, err := o.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", WrapError(err, "failed to get HEAD")
	}
	if head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
		return head.Target().Short(), nil
	}
	return plumbing.HEAD.String(), nil
}

// Remotes implements Repository
func (o *Operations) Remotes() (map[string]string, error) {
	remotes, err := o.repo.Remotes()
	if err != nil {
		return nil, WrapError(err, "failed to list remotes")
	}

	out := make(map[string]string, len(remotes))
	for _, remote := range remotes {
		cfg := remote.Config()
		out[cfg.Name] = firstURL(cfg.URLs)
	}
	return out, nil
}

// defaultBranch picks the upstream default branch from advertised references.
// HEAD's symbolic target wins; otherwise a branch at HEAD's commit, then main,
// then master, then the only branch.
func defaultBranch(refs []*plumbing.Reference) (string, error) {
	heads := make(map[string]plumbing.Hash)
	var head *plumbing.Reference

	for _, ref := range refs {
		switch {
		case ref.Name() == plumbing.HEAD:
			head = ref
		case ref.Name().IsBranch():
			heads[ref.Name().Short()] = ref.Hash()
		}
	}

	if head != nil {
		if head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
			if _, ok := heads[head.Target().Short()]; ok {
				return head.Target().Short(), nil
			}
		}
		if head.Type() == plumbing.HashReference {
			var candidates []string
			for name, hash := range heads {
				if hash == head.Hash() {
					candidates = append(candidates, name)
				}
			}
			if branch := preferredBranch(candidates); branch != "" {
				return branch, nil
			}
		}
	}

	names := make([]string, 0, len(heads))
	for name := range heads {
		names = append(names, name)
	}
	for _, name := range []string{"main", "master"} {
		if _, ok := heads[name]; ok {
			return name, nil
		}
	}
	if len(names) == 1 {
		return names[0], nil
	}

	return "", WrapError(ErrBranchMissing, "cannot determine default branch")
}

func preferredBranch(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	for _, name := range []string{"main", "master"} {
		for _, c := range candidates {
			if c == name {
				return c
			}
		}
	}
	sort.Strings(candidates)
	return candidates[0]
}

func networkError(ctx context.Context, err error, msg string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return WrapError(ctxErr, msg)
	}
	return WrapError(joinError(ErrNetwork, err), msg)
}

func firstURL(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}

func normalizeURL(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}
