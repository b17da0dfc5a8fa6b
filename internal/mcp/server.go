package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/mindprint/internal/syncer"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"mindprint_distill": {
		def:     distillToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDistill },
	},
	"mindprint_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
}

var distillToolDef = mcp.NewTool("mindprint_distill",
	mcp.WithDescription("Distill the workspace's memory files into a privacy-safe cognition profile, write cognition.md into the workspace, and publish it to the persona store."),
	mcp.WithString("workspace",
		mcp.Required(),
		mcp.Description("Absolute path to the workspace containing MEMORY.md and/or HISTORY.md."),
	),
)

var listToolDef = mcp.NewTool("mindprint_list",
	mcp.WithDescription("List existing cognition documents under a directory, with model version and bullet counts."),
	mcp.WithString("workspace",
		mcp.Required(),
		mcp.Description("Absolute path of the directory to inspect."),
	),
)

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates a new MCP server with MindPrint tools registered.
func NewServer(sync *syncer.Syncer, userID, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"mindprint",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(sync, userID)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(sync *syncer.Syncer, userID, version string) error {
	return server.ServeStdio(NewServer(sync, userID, version))
}
