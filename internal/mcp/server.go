// Package mcp serves braindump operations as MCP tools over stdio.
package mcp

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"outline_parse": {
		def:     parseToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleParse },
	},
	"outline_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
	"record_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"record_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
}

// AllToolNames returns the registered tool names in sorted order.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewServer creates an MCP server with every braindump tool registered.
func NewServer(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"braindump",
		version,
		server.WithToolCapabilities(true),
	)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run starts the MCP server using stdio transport.
func Run(h *Handlers, version string) error {
	return server.ServeStdio(NewServer(h, version))
}
