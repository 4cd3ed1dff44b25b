package main

import (
	"errors"
	"os"

	"github.com/aki/forksync/internal/cli/commands"
	"github.com/aki/forksync/internal/cli/ui"
)

func main() {
	err := commands.Execute()
	// The summary already explains which clones need attention
	if err != nil && !errors.Is(err, commands.ErrNeedsAttention) {
		_ = ui.GlobalFormatter.OutputError(err)
	}
	os.Exit(commands.ExitCode(err))
}
