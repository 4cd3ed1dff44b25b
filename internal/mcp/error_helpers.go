package mcp

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestions represents an error with tool suggestions
type ErrorWithSuggestions struct {
	Message     string
	Suggestions []string
}

// Error returns the error message with suggestions
func (e *ErrorWithSuggestions) Error() string {
	if len(e.Suggestions) == 0 {
		return e.Message
	}

	var sb strings.Builder
	sb.WriteString(e.Message)
	sb.WriteString("\n\nDid you mean to use one of these tools instead?\n")
	for _, suggestion := range e.Suggestions {
		sb.WriteString("  - ")
		sb.WriteString(suggestion)
		sb.WriteString("\n")
	}
	return sb.String()
}

// NewErrorWithSuggestions creates a new error with tool suggestions
func NewErrorWithSuggestions(message string, suggestions ...string) error {
	return &ErrorWithSuggestions{
		Message:     message,
		Suggestions: suggestions,
	}
}

// RepositoryNotFoundError is returned for a title missing from the configuration
func RepositoryNotFoundError(title string) error {
	return NewErrorWithSuggestions(
		fmt.Sprintf("repository not found: %s", title),
		"list_repositories - List configured repository titles",
		"sync_repository without title - Detect the repository from the clones",
	)
}

// CloneNotFoundError is returned when a requested clone was not discovered
func CloneNotFoundError(cause error) error {
	return NewErrorWithSuggestions(
		cause.Error(),
		"discover_clones - List the clones under the base directory",
	)
}

// NoReportError is returned before the first sync of a base directory
func NoReportError() error {
	return NewErrorWithSuggestions(
		"no sync has been recorded yet",
		"sync_repository - Sync the clones and record a report",
	)
}

// InvalidParameterError returns an error for a malformed parameter
func InvalidParameterError(param string, expected string) error {
	return fmt.Errorf("invalid parameter %q: expected %s", param, expected)
}
