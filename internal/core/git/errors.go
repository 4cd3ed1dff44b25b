package git

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Repository implementations. Callers classify
// failures with errors.Is.

// ErrNotRepository is returned when a path is not a git working copy
var ErrNotRepository = errors.New("not a git repository")

// ErrNetwork is returned when the upstream could not be reached or read
var ErrNetwork = errors.New("network error")

// ErrRemoteConflict is returned when the remote name reserved for the
// upstream already points somewhere else
var ErrRemoteConflict = errors.New("remote points at a different url")

// ErrBranchMissing is returned when a branch does not exist locally or upstream
var ErrBranchMissing = errors.New("branch does not exist")

// ErrWorkingTreeDirty is returned when a fast-forward would overwrite
// uncommitted local changes
var ErrWorkingTreeDirty = errors.New("working tree has uncommitted changes")

// ErrNotFastForward is returned when the target is not a descendant of the branch tip
var ErrNotFastForward = errors.New("not a fast-forward")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted context
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// joinError attaches a sentinel to an underlying cause so both match errors.Is
func joinError(sentinel, cause error) error {
	return fmt.Errorf("%w: %w", sentinel, cause)
}
