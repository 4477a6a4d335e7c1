package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"assetdb/internal/adapters/eventlog"
	mcpadapter "assetdb/internal/adapters/mcp"
	"assetdb/internal/adapters/rcs"
	"assetdb/internal/adapters/sqlite"
	"assetdb/internal/application/resolver"
	"assetdb/internal/config"
)

func main() {
	rootFlag := flag.String("root", config.Root(), "path to the managed assets root")
	flag.Parse()

	// Stdout carries the protocol, so logs must stay on stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	index := sqlite.NewIndex()
	if err := index.Open(*rootFlag); err != nil {
		log.Fatalf("assetdb-mcp: %v", err)
	}
	defer index.Close()

	eventLog := eventlog.New(config.EventsDir(index.Root()), config.Author(), rcs.NewLocal(), logger)
	res := resolver.New(index, eventLog, logger)

	if _, err := res.Update(); err != nil {
		log.Fatalf("assetdb-mcp: %v", err)
	}

	mcpServer := server.NewMCPServer(
		"assetdb-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, res, index)
	mcpadapter.RegisterWriteTools(mcpServer, res)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("assetdb-mcp: %v", err)
	}
}
