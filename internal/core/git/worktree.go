package git

import (
	"errors"
	"io"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// checkClean refuses tracked modifications anywhere, and any file on disk
// (untracked or ignored) at a path the update would create.
func checkClean(wt *gogit.Worktree, changes object.Changes) error {
	status, err := wt.Status()
	if err != nil {
		return WrapError(err, "failed to read worktree status")
	}

	paths := make([]string, 0, len(status))
	for p := range status {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		st := status[p]
		if st.Staging == gogit.Untracked && st.Worktree == gogit.Untracked {
			continue
		}
		if st.Staging != gogit.Unmodified || st.Worktree != gogit.Unmodified {
			return WrapErrorf(ErrWorkingTreeDirty, "%s has local changes", p)
		}
	}

	removed := make(map[string]bool)
	for _, change := range changes {
		if change.To.Name == "" {
			removed[change.From.Name] = true
		}
	}

	for _, change := range changes {
		if change.From.Name != "" || change.To.Name == "" {
			continue
		}
		if blocker := blockingPath(wt.Filesystem, change.To.Name, removed); blocker != "" {
			return WrapErrorf(ErrWorkingTreeDirty, "untracked %s would be overwritten", blocker)
		}
	}
	return nil
}

// blockingPath returns a file that stops name from being created: the path
// itself, a file where a parent directory must go, or anything left in a
// directory at name once removed paths are gone.
func blockingPath(fs billy.Filesystem, name string, removed map[string]bool) string {
	for dir := path.Dir(name); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if info, err := fs.Lstat(dir); err == nil && !info.IsDir() && !removed[dir] {
			return dir
		}
	}

	info, err := fs.Lstat(name)
	if err != nil {
		return ""
	}
	if !info.IsDir() {
		return name
	}
	return remainingFile(fs, name, removed)
}

func remainingFile(fs billy.Filesystem, dir string, removed map[string]bool) string {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return dir
	}
	for _, entry := range entries {
		p := path.Join(dir, entry.Name())
		if entry.IsDir() {
			if left := remainingFile(fs, p, removed); left != "" {
				return left
			}
			continue
		}
		if !removed[p] {
			return p
		}
	}
	return ""
}

// applyChanges writes the changed paths into the worktree and index. Files
// outside changes are never touched, so untracked and ignored files survive.
func (o *Operations) applyChanges(wt *gogit.Worktree, changes object.Changes) error {
	idx, err := o.repo.Storer.Index()
	if err != nil {
		return WrapError(err, "failed to read index")
	}
	fs := wt.Filesystem

	// Removals first so a file can turn into a directory and back.
	for _, change := range changes {
		if change.To.Name != "" {
			continue
		}
		name := change.From.Name
		if err := fs.Remove(name); err != nil && !os.IsNotExist(err) {
			return WrapErrorf(err, "failed to remove %s", name)
		}
		if _, err := idx.Remove(name); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
			return WrapErrorf(err, "failed to unstage %s", name)
		}
		removeEmptyParents(fs, name)
	}

	for _, change := range changes {
		if change.To.Name == "" {
			continue
		}
		name, entry := change.To.Name, change.To.TreeEntry
		if err := o.writeEntry(fs, name, entry); err != nil {
			return err
		}

		e, err := idx.Entry(name)
		if errors.Is(err, index.ErrEntryNotFound) {
			e = idx.Add(name)
		} else if err != nil {
			return WrapErrorf(err, "failed to stage %s", name)
		}
		e.Hash = entry.Hash
		e.Mode = entry.Mode
		if info, err := fs.Lstat(name); err == nil {
			e.Size = uint32(info.Size())
			e.CreatedAt = info.ModTime()
			e.ModifiedAt = info.ModTime()
		}
	}

	// The cached tree no longer matches the entries.
	idx.Cache = nil
	if err := o.repo.Storer.SetIndex(idx); err != nil {
		return WrapError(err, "failed to write index")
	}
	return nil
}

func (o *Operations) writeEntry(fs billy.Filesystem, name string, entry object.TreeEntry) error {
	if entry.Mode == filemode.Submodule {
		return fs.MkdirAll(name, 0o755)
	}
	if err := fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return WrapErrorf(err, "failed to create directory for %s", name)
	}

	blob, err := o.repo.BlobObject(entry.Hash)
	if err != nil {
		return WrapErrorf(err, "failed to load %s", name)
	}
	r, err := blob.Reader()
	if err != nil {
		return WrapErrorf(err, "failed to read %s", name)
	}
	defer r.Close()

	if entry.Mode == filemode.Symlink {
		target, err := io.ReadAll(r)
		if err != nil {
			return WrapErrorf(err, "failed to read %s", name)
		}
		if err := fs.Remove(name); err != nil && !os.IsNotExist(err) {
			return WrapErrorf(err, "failed to replace %s", name)
		}
		return fs.Symlink(string(target), name)
	}

	perm := os.FileMode(0o644)
	if entry.Mode == filemode.Executable {
		perm = 0o755
	}
	// A symlink being replaced by a file must not be followed.
	if info, err := fs.Lstat(name); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := fs.Remove(name); err != nil {
			return WrapErrorf(err, "failed to replace %s", name)
		}
	}

	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return WrapErrorf(err, "failed to write %s", name)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return WrapErrorf(err, "failed to write %s", name)
	}
	if err := f.Close(); err != nil {
		return WrapErrorf(err, "failed to write %s", name)
	}
	if ch, ok := fs.(billy.Change); ok {
		if err := ch.Chmod(name, perm); err != nil {
			return WrapErrorf(err, "failed to set mode of %s", name)
		}
	}
	return nil
}

func removeEmptyParents(fs billy.Filesystem, name string) {
	for dir := path.Dir(name); dir != "." && dir != "/"; dir = path.Dir(dir) {
		entries, err := fs.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := fs.Remove(dir); err != nil {
			return
		}
	}
}
