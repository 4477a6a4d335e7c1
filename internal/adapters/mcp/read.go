package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"assetdb/internal/application/resolver"
	"assetdb/internal/domain"
	"assetdb/internal/ports"
)

// RegisterReadTools adds all read-only asset database tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, res *resolver.Resolver, index ports.CacheIndex) {
	s.AddTool(resolveIDTool(), resolveIDHandler(res))
	s.AddTool(resolvePathTool(), resolvePathHandler(res))
	s.AddTool(searchTool(), searchHandler(res))
	s.AddTool(dependenciesTool(), dependenciesHandler(index))
	s.AddTool(usagesTool(), usagesHandler(index))
}

// --- resolve_id ---

func resolveIDTool() mcp.Tool {
	return mcp.NewTool("resolve_id",
		mcp.WithDescription("Resolve an asset ID to its managed file record (path, timestamps, deletion state)."),
		mcp.WithString("id",
			mcp.Description("Asset ID, hex (0x...) or decimal"),
			mcp.Required(),
		),
	)
}

func resolveIDHandler(res *resolver.Resolver) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := domain.ParseTUID(req.GetString("id", ""))
		if err != nil {
			return toolError(err)
		}

		file, err := res.GetFileByID(id, true)
		if err != nil {
			return toolError(err)
		}
		if file == nil {
			return mcp.NewToolResultText("No such asset."), nil
		}
		return mcp.NewToolResultText(formatFile(file)), nil
	}
}

// --- resolve_path ---

func resolvePathTool() mcp.Tool {
	return mcp.NewTool("resolve_path",
		mcp.WithDescription("Resolve a root-relative path to its asset ID."),
		mcp.WithString("path",
			mcp.Description("Root-relative path (e.g. props/crate.entity.json)"),
			mcp.Required(),
		),
	)
}

func resolvePathHandler(res *resolver.Resolver) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p := req.GetString("path", "")
		if p == "" {
			return toolError(fmt.Errorf("path is required"))
		}

		file, err := res.GetFileByPath(p, false)
		if err != nil {
			return toolError(err)
		}
		if file == nil {
			return mcp.NewToolResultText("No such asset."), nil
		}
		return mcp.NewToolResultText(formatFile(file)), nil
	}
}

// --- search ---

func searchTool() mcp.Tool {
	return mcp.NewTool("search",
		mcp.WithDescription("Search managed files whose path contains the query."),
		mcp.WithString("query",
			mcp.Description("Path substring"),
			mcp.Required(),
		),
	)
}

func searchHandler(res *resolver.Resolver) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return toolError(fmt.Errorf("query is required"))
		}

		files, err := res.SearchFiles(query)
		if err != nil {
			return toolError(err)
		}
		if len(files) == 0 {
			return mcp.NewToolResultText("No results found."), nil
		}

		var sb strings.Builder
		for _, f := range files {
			fmt.Fprintf(&sb, "%s  %s\n", f.ID.Hex(), f.Path)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- dependencies ---

func dependenciesTool() mcp.Tool {
	return mcp.NewTool("dependencies",
		mcp.WithDescription("List the asset IDs a given asset depends on."),
		mcp.WithString("id",
			mcp.Description("Asset ID, hex (0x...) or decimal"),
			mcp.Required(),
		),
	)
}

func dependenciesHandler(index ports.CacheIndex) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := domain.ParseTUID(req.GetString("id", ""))
		if err != nil {
			return toolError(err)
		}

		deps, err := index.SelectDependencies(id)
		if err != nil {
			return toolError(err)
		}
		return formatEdges(index, deps)
	}
}

// --- usages ---

func usagesTool() mcp.Tool {
	return mcp.NewTool("usages",
		mcp.WithDescription("List the asset IDs that depend on a given asset (reverse edges)."),
		mcp.WithString("id",
			mcp.Description("Asset ID, hex (0x...) or decimal"),
			mcp.Required(),
		),
	)
}

func usagesHandler(index ports.CacheIndex) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := domain.ParseTUID(req.GetString("id", ""))
		if err != nil {
			return toolError(err)
		}

		usages, err := index.SelectUsages(id)
		if err != nil {
			return toolError(err)
		}
		return formatEdges(index, usages)
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatFile(f *domain.ManagedFile) string {
	state := "live"
	if f.WasDeleted {
		state = "deleted"
	}
	return fmt.Sprintf("%s  %s  (%s, by %s)", f.ID.Hex(), f.Path, state, f.Username)
}

func formatEdges(index ports.CacheIndex, ids []domain.TUID) (*mcp.CallToolResult, error) {
	if len(ids) == 0 {
		return mcp.NewToolResultText("No edges."), nil
	}

	var sb strings.Builder
	for _, id := range ids {
		file, err := index.SelectFileByID(id, true)
		if err != nil {
			return toolError(err)
		}
		if file == nil {
			fmt.Fprintf(&sb, "%s  (unresolved)\n", id.Hex())
			continue
		}
		fmt.Fprintf(&sb, "%s  %s\n", id.Hex(), file.Path)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
