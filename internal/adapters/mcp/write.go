package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"assetdb/internal/application/resolver"
	"assetdb/internal/domain"
)

// RegisterWriteTools adds the mutating asset database tools to the MCP
// server. Every mutation replicates through the event log like any other
// client's would.
func RegisterWriteTools(s *server.MCPServer, res *resolver.Resolver) {
	s.AddTool(addTool(), addHandler(res))
	s.AddTool(moveTool(), moveHandler(res))
	s.AddTool(deleteTool(), deleteHandler(res))
	s.AddTool(reconcileTool(), reconcileHandler(res))
}

// --- add ---

func addTool() mcp.Tool {
	return mcp.NewTool("add",
		mcp.WithDescription("Register a file under a new asset ID. Returns the assigned ID."),
		mcp.WithString("path",
			mcp.Description("Root-relative path to register"),
			mcp.Required(),
		),
	)
}

func addHandler(res *resolver.Resolver) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p := req.GetString("path", "")
		if p == "" {
			return toolError(fmt.Errorf("path is required"))
		}

		id, err := res.AddEntry(p, domain.TUIDNull, true)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(id.Hex()), nil
	}
}

// --- move ---

func moveTool() mcp.Tool {
	return mcp.NewTool("move",
		mcp.WithDescription("Rebind an asset ID to a new path."),
		mcp.WithString("id",
			mcp.Description("Asset ID, hex (0x...) or decimal"),
			mcp.Required(),
		),
		mcp.WithString("new_path",
			mcp.Description("New root-relative path"),
			mcp.Required(),
		),
	)
}

func moveHandler(res *resolver.Resolver) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := domain.ParseTUID(req.GetString("id", ""))
		if err != nil {
			return toolError(err)
		}
		newPath := req.GetString("new_path", "")
		if newPath == "" {
			return toolError(fmt.Errorf("new_path is required"))
		}

		file, err := res.GetFileByID(id, false)
		if err != nil {
			return toolError(err)
		}
		if file == nil {
			return toolError(fmt.Errorf("no such asset: %s", id.Hex()))
		}

		if _, err := res.UpdateEntry(file, newPath, true); err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(formatFile(file)), nil
	}
}

// --- delete ---

func deleteTool() mcp.Tool {
	return mcp.NewTool("delete",
		mcp.WithDescription("Soft-delete an asset binding. The ID is never reused."),
		mcp.WithString("id",
			mcp.Description("Asset ID, hex (0x...) or decimal"),
			mcp.Required(),
		),
	)
}

func deleteHandler(res *resolver.Resolver) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := domain.ParseTUID(req.GetString("id", ""))
		if err != nil {
			return toolError(err)
		}

		file, err := res.GetFileByID(id, false)
		if err != nil {
			return toolError(err)
		}
		if file == nil {
			return toolError(fmt.Errorf("no such asset: %s", id.Hex()))
		}

		if err := res.DeleteEntry(file, true); err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("deleted %s", file.Path)), nil
	}
}

// --- reconcile ---

func reconcileTool() mcp.Tool {
	return mcp.NewTool("reconcile",
		mcp.WithDescription("Fold unapplied events from all clients into the local cache."),
	)
}

func reconcileHandler(res *resolver.Resolver) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := res.Update()
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"seen %d, applied %d, skipped %d, conflicts %d in %s",
			stats.EventsSeen, stats.Applied, stats.Skipped, stats.Conflicts, stats.Duration)), nil
	}
}
