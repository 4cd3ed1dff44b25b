package mcp

import "strings"

// ToolDescription provides enhanced descriptions for AI agents
type ToolDescription struct {
	Description string
	WhenToUse   []string
	Examples    []string
	NextTools   []string
}

var toolDescriptions = map[string]ToolDescription{
	"list_repositories": {
		Description: "List the repositories in the forksync configuration with their upstream URLs",
		WhenToUse: []string{
			"Before syncing, to find the title of a repository",
			"When asked which upstreams are tracked",
		},
		Examples: []string{
			`list_repositories()`,
		},
		NextTools: []string{
			"discover_clones - See which local clones exist",
			"sync_repository - Sync the clones of one repository",
		},
	},

	"discover_clones": {
		Description: "List the git clones under the base directory with their checked out branch, origin and upstream remotes",
		WhenToUse: []string{
			"To check which forks are present before a sync",
			"To find the clone names accepted by sync_repository's only parameter",
		},
		Examples: []string{
			`discover_clones()`,
		},
		NextTools: []string{
			"sync_repository - Bring the clones up to date",
		},
	},

	"sync_repository": {
		Description: "Fetch the upstream default branch into every clone and fast-forward clones that are behind. Diverged clones and clones with local changes are reported, never modified. Nothing is pushed",
		WhenToUse: []string{
			"When asked to update forks from upstream",
			"With dry_run to find out which clones are behind or diverged",
		},
		Examples: []string{
			`sync_repository(title: "Repo1")`,
			`sync_repository(dry_run: true)`,
			`sync_repository(title: "Repo1", only: "forkA,forkB", jobs: 4)`,
		},
		NextTools: []string{
			"last_report - Review the stored result later",
		},
	},

	"last_report": {
		Description: "Show the stored report of the most recent sync in the base directory",
		WhenToUse: []string{
			"To review which clones need attention after a sync",
		},
		Examples: []string{
			`last_report()`,
		},
		NextTools: []string{
			"sync_repository - Run the sync again",
		},
	},
}

// GetEnhancedDescription returns the description with usage hints
func GetEnhancedDescription(toolName string) string {
	desc, ok := toolDescriptions[toolName]
	if !ok {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(desc.Description)
	sb.WriteString("\n\nWHEN TO USE THIS TOOL:\n")
	for _, when := range desc.WhenToUse {
		sb.WriteString("- " + when + "\n")
	}
	if len(desc.Examples) > 0 {
		sb.WriteString("\nEXAMPLES:\n")
		for _, example := range desc.Examples {
			sb.WriteString(example + "\n")
		}
	}
	return sb.String()
}

// GetNextToolSuggestions returns the tools usually called after toolName
func GetNextToolSuggestions(toolName string) []map[string]string {
	desc, ok := toolDescriptions[toolName]
	if !ok {
		return nil
	}
	suggestions := make([]map[string]string, 0, len(desc.NextTools))
	for _, next := range desc.NextTools {
		suggestions = append(suggestions, map[string]string{"tool": next})
	}
	return suggestions
}
