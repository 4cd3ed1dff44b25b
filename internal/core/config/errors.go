package config

import (
	"errors"
	"fmt"
)

// ErrMissingURL is returned when a repository section has no url key
var ErrMissingURL = errors.New("missing url")

// ErrDuplicateTitle is returned when two sections share a title
var ErrDuplicateTitle = errors.New("duplicate repository title")

// ErrDuplicateKey is returned when a section sets url more than once
var ErrDuplicateKey = errors.New("duplicate key")

// ErrReservedTitle is returned when the DEFAULT section sets url
var ErrReservedTitle = errors.New("DEFAULT is not a repository title")

// ErrInvalidURL is returned when a url cannot be parsed as a git endpoint
var ErrInvalidURL = errors.New("invalid upstream url")

// ConfigError is returned for any configuration problem. It is fatal:
// nothing should be synchronized when loading fails.
type ConfigError struct {
	Path    string
	Section string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("config %s: section [%s]: %v", e.Path, e.Section, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is or wraps a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
