// Package forks finds local fork clones and brings their default branch up
// to date with a shared upstream.
//
// Syncing never pushes and never rewrites local history: a clone is only
// fast-forwarded, and anything else is reported for a human to resolve.
package forks

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aki/forksync/internal/core/config"
)

// StateDir is the directory under a clone root holding forksync's own files.
// It is hidden, so discovery never mistakes it for a clone.
const StateDir = ".forksync"

// ErrNotDirectory is returned when a clone root is not a directory
var ErrNotDirectory = errors.New("not a directory")

// DiscoverClones returns the immediate subdirectories of root that are git
// working copies, in name order. Hidden and non-git directories are skipped.
//
// The sequence re-reads root on every iteration, so ranging over it twice
// reflects changes made in between.
func DiscoverClones(root string) (iter.Seq[CloneHandle], error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read clone root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("clone root %s: %w", root, ErrNotDirectory)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("failed to list clone root: %w", err)
	}

	return func(yield func(CloneHandle) bool) {
		// os.ReadDir returns entries sorted by filename
		entries, err := os.ReadDir(root)
		if err != nil {
			return
		}

		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}

			path := filepath.Join(root, name)
			if !isDir(path) || !hasGitMarker(path) {
				continue
			}

			if !yield(CloneHandle{Path: path, Name: name}) {
				return
			}
		}
	}, nil
}

// CollectClones materializes a discovery sequence
func CollectClones(seq iter.Seq[CloneHandle]) []CloneHandle {
	return slices.Collect(seq)
}

// Bind returns copies of clones pointing back at descriptor
func Bind(descriptor *config.Descriptor, clones []CloneHandle) []CloneHandle {
	bound := make([]CloneHandle, len(clones))
	for i, c := range clones {
		c.Descriptor = descriptor
		bound[i] = c
	}
	return bound
}

// Select keeps the clones whose names are listed, preserving discovery
// order. Unknown names are returned so callers can report them.
func Select(clones []CloneHandle, names []string) ([]CloneHandle, []string) {
	if len(names) == 0 {
		return clones, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var selected []CloneHandle
	for _, c := range clones {
		if wanted[c.Name] {
			selected = append(selected, c)
			delete(wanted, c.Name)
		}
	}

	var unknown []string
	for _, n := range names {
		if wanted[n] {
			unknown = append(unknown, n)
			delete(wanted, n)
		}
	}
	return selected, unknown
}

func isDir(path string) bool {
	// Stat follows symlinks so linked clones are found too
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// hasGitMarker accepts a .git directory or a gitdir file (worktrees, submodules)
func hasGitMarker(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
