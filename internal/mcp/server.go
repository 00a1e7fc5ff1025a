package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kmorand/attache/internal/config"
	"github.com/kmorand/attache/internal/db"
	"github.com/kmorand/attache/internal/dossier"
	"github.com/kmorand/attache/internal/graph"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"dossier_generate": {
		def:     dossierGenerateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDossierGenerate },
	},
	"dossier_status": {
		def:     dossierStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDossierStatus },
	},
	"notes_get": {
		def:     notesGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNotesGet },
	},
	"notes_set": {
		def:     notesSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNotesSet },
	},
	"graph_fetch": {
		def:     graphFetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGraphFetch },
	},
	"graph_episode": {
		def:     graphEpisodeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGraphEpisode },
	},
	"graph_conversation": {
		def:     graphConversationToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGraphConversation },
	},
	"graph_clear": {
		def:     graphClearToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGraphClear },
	},
	"graph_health": {
		def:     graphHealthToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGraphHealth },
	},
	"layout_save": {
		def:     layoutSaveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLayoutSave },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with Attaché tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(synth *dossier.Synthesizer, cache *graph.Cache, notes *db.NotesStore, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"attache",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(synth, cache, notes)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport. The health poller runs
// for the life of the server.
func Run(synth *dossier.Synthesizer, cache *graph.Cache, notes *db.NotesStore, cfg *config.Config, version string) error {
	s := NewServer(synth, cache, notes, cfg, version)
	cache.StartHealthPolling(pollInterval(cfg))
	defer cache.StopHealthPolling()
	return server.ServeStdio(s)
}

func pollInterval(cfg *config.Config) time.Duration {
	if cfg != nil && cfg.HealthPollSeconds > 0 {
		return time.Duration(cfg.HealthPollSeconds) * time.Second
	}
	return graph.DefaultHealthInterval
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
