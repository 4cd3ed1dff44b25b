package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aki/forksync/internal/app"
	"github.com/aki/forksync/internal/core/report"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_repositories",
		mcp.WithDescription(GetEnhancedDescription("list_repositories")),
	), s.handleListRepositories)

	s.mcpServer.AddTool(mcp.NewTool("discover_clones",
		mcp.WithDescription(GetEnhancedDescription("discover_clones")),
	), s.handleDiscoverClones)

	s.mcpServer.AddTool(mcp.NewTool("sync_repository",
		mcp.WithDescription(GetEnhancedDescription("sync_repository")),
		mcp.WithString("title",
			mcp.Description("Repository title from the configuration; detected from the clones when omitted"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Fetch and compare only; never move a branch"),
		),
		mcp.WithNumber("jobs",
			mcp.Description("Number of clones synced concurrently (default 1)"),
		),
		mcp.WithString("only",
			mcp.Description("Comma-separated clone names to restrict the run to"),
		),
	), s.handleSyncRepository)

	s.mcpServer.AddTool(mcp.NewTool("last_report",
		mcp.WithDescription(GetEnhancedDescription("last_report")),
	), s.handleLastReport)
}

type repositoryList struct {
	Config       string       `json:"config"`
	Repositories []repository `json:"repositories"`
}

type repository struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func (s *Server) handleListRepositories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	registry, err := s.container.Registry()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	out := repositoryList{Config: registry.Path(), Repositories: []repository{}}
	for _, d := range registry.Descriptors() {
		out.Repositories = append(out.Repositories, repository{Title: d.Title, URL: d.UpstreamURL})
	}
	return createEnhancedResult("list_repositories", out, nil)
}

func (s *Server) handleDiscoverClones(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clones, err := s.container.Clones()
	if err != nil {
		return nil, fmt.Errorf("failed to discover clones: %w", err)
	}

	return createEnhancedResult("discover_clones", map[string]interface{}{
		"root":   s.container.Root,
		"clones": s.container.Engine().Inspect(clones),
	}, nil)
}

func (s *Server) handleSyncRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req := app.SyncRequest{}
	if title, ok := args["title"].(string); ok {
		req.Title = strings.TrimSpace(title)
	}
	if dryRun, ok := args["dry_run"].(bool); ok {
		req.DryRun = dryRun
	}
	if jobs, ok := args["jobs"].(float64); ok {
		if jobs < 1 || jobs != float64(int(jobs)) {
			return nil, InvalidParameterError("jobs", "a positive integer")
		}
		req.Jobs = int(jobs)
	}
	if only, ok := args["only"].(string); ok {
		req.Only = splitNames(only)
	}

	run, err := s.container.Sync(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUnknownRepository):
			return nil, RepositoryNotFoundError(req.Title)
		case errors.Is(err, app.ErrUnknownClone):
			return nil, CloneNotFoundError(err)
		}
		return nil, fmt.Errorf("sync failed: %w", err)
	}

	metadata := &ToolResultMetadata{InferredParameters: map[string]string{}}
	if req.Title == "" {
		metadata.InferredParameters["title"] = run.Descriptor.Title
	}
	return createEnhancedResult("sync_repository", run.Report, metadata)
}

func (s *Server) handleLastReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := s.container.Reports.Load(ctx)
	if err != nil {
		if errors.Is(err, report.ErrNoReport) {
			return nil, NoReportError()
		}
		return nil, err
	}
	return createEnhancedResult("last_report", r, nil)
}

func splitNames(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}
