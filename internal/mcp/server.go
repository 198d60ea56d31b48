// Package mcp exposes the review operations as MCP tools over stdio so
// agent clients can read rows, inspect tokenized tags and submit decisions
// programmatically. Every tool takes an explicit annotator argument; there
// is no ambient session.
package mcp

import (
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"cueview/internal/config"
	"cueview/internal/dataset"
	"cueview/internal/store"
)

// Server wraps the MCP server with the shared dataset and store handles.
type Server struct {
	src   *dataset.Source
	store *store.Store
	cfg   *config.Config
	mcp   *server.MCPServer
}

// toolEntry pairs a tool definition with its handler. Tools listed in the
// config's disabled_tools are skipped at registration.
type toolEntry struct {
	def     func() mcp.Tool
	handler func(*Server) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"review_rows": {
		def:     rowsToolDef,
		handler: func(s *Server) server.ToolHandlerFunc { return s.handleRows },
	},
	"review_fetch": {
		def:     fetchToolDef,
		handler: func(s *Server) server.ToolHandlerFunc { return s.handleFetch },
	},
	"review_save": {
		def:     saveToolDef,
		handler: func(s *Server) server.ToolHandlerFunc { return s.handleSave },
	},
	"review_record": {
		def:     recordToolDef,
		handler: func(s *Server) server.ToolHandlerFunc { return s.handleRecord },
	},
}

// NewServer creates an MCP server with all enabled tools registered.
func NewServer(src *dataset.Source, st *store.Store, cfg *config.Config, version string) *Server {
	s := &Server{
		src:   src,
		store: st,
		cfg:   cfg,
	}

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	m := server.NewMCPServer("cueview", version, server.WithToolCapabilities(false))
	for name, entry := range toolRegistry {
		if disabled[name] {
			log.Printf("tool %s disabled by config", name)
			continue
		}
		m.AddTool(entry.def(), entry.handler(s))
	}
	s.mcp = m
	return s
}

// Run serves MCP over stdio until the client disconnects.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcp)
}
