package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/aki/forksync/internal/app"
	"github.com/aki/forksync/internal/core/config"
	"github.com/aki/forksync/internal/tests/helpers"
)

// setupTestServer creates a server over two forks of a fresh upstream that
// has one commit the forks lack
func setupTestServer(t *testing.T) (*Server, *helpers.TestRepo) {
	t.Helper()

	tmp := t.TempDir()
	root := filepath.Join(tmp, "forks")
	upstream := helpers.CreateTestRepo(t, filepath.Join(tmp, "upstream"))
	for _, name := range []string{"forkA", "forkB"} {
		helpers.CloneTestRepo(t, upstream.Path, filepath.Join(root, name), fmt.Sprintf("git@host:%s/repo1.git", name))
	}
	upstream.Commit("new.txt", "new\n", "New upstream work")

	configPath := filepath.Join(tmp, config.DefaultFile)
	content := fmt.Sprintf("[Repo1]\nurl = %s\n", upstream.Path)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	container, err := app.NewContainer(root, configPath, nil)
	require.NoError(t, err)

	server, err := NewServer(container, "test", TransportStdio, nil)
	require.NoError(t, err)
	return server, upstream
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// decodeResult unmarshals the result field of an enhanced tool result
func decodeResult(t *testing.T, result *mcp.CallToolResult, v interface{}) ToolResultMetadata {
	t.Helper()

	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var envelope struct {
		Result   json.RawMessage    `json:"result"`
		Metadata ToolResultMetadata `json:"_metadata"`
	}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Result, v))
	return envelope.Metadata
}
