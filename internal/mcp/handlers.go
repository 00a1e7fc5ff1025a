package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kmorand/attache/internal/db"
	"github.com/kmorand/attache/internal/dossier"
	"github.com/kmorand/attache/internal/errors"
	"github.com/kmorand/attache/internal/graph"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	synth *dossier.Synthesizer
	cache *graph.Cache
	notes *db.NotesStore
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(synth *dossier.Synthesizer, cache *graph.Cache, notes *db.NotesStore) *Handlers {
	return &Handlers{synth: synth, cache: cache, notes: notes}
}

// Request types for each tool

// DossierGenerateRequest represents the arguments for dossier_generate.
type DossierGenerateRequest struct {
	ForceRefresh bool `json:"force_refresh,omitempty"`
}

// NotesSetRequest represents the arguments for notes_set.
type NotesSetRequest struct {
	Content string `json:"content"`
}

// GraphFetchRequest represents the arguments for graph_fetch.
type GraphFetchRequest struct {
	ForceRefresh bool `json:"force_refresh,omitempty"`
}

// GraphEpisodeRequest represents the arguments for graph_episode.
type GraphEpisodeRequest struct {
	Content     string `json:"content"`
	Source      string `json:"source,omitempty"`
	EpisodeType string `json:"episode_type,omitempty"`
}

// GraphConversationRequest represents the arguments for graph_conversation.
type GraphConversationRequest struct {
	Messages  []graph.Message `json:"messages"`
	SessionID string          `json:"session_id,omitempty"`
}

// GraphClearRequest represents the arguments for graph_clear.
type GraphClearRequest struct {
	Confirm bool `json:"confirm"`
}

// LayoutSaveRequest represents the arguments for layout_save.
type LayoutSaveRequest struct {
	Nodes []graph.Node `json:"nodes"`
}

// Handler implementations

// HandleDossierGenerate handles the dossier_generate tool call.
func (h *Handlers) HandleDossierGenerate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DossierGenerateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	d := h.synth.Generate(ctx, input.ForceRefresh)
	return successResult(d)
}

// HandleDossierStatus handles the dossier_status tool call.
// It reads from the cache when fresh, so status checks stay cheap.
func (h *Handlers) HandleDossierStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := h.synth.Generate(ctx, false)
	return successResult(map[string]any{
		"system_status":    d.SystemStatus,
		"pieces_connected": d.PiecesConnected,
		"linear_connected": d.LinearConnected,
		"notion_connected": d.NotionConnected,
		"generated_at":     d.GeneratedAt,
		"source_errors":    d.SourceErrors,
	})
}

// HandleNotesGet handles the notes_get tool call.
func (h *Handlers) HandleNotesGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := h.notes.Get()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]string{"content": content})
}

// HandleNotesSet handles the notes_set tool call.
func (h *Handlers) HandleNotesSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NotesSetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.notes.Set(input.Content); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]bool{"saved": true})
}

// HandleGraphFetch handles the graph_fetch tool call.
func (h *Handlers) HandleGraphFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GraphFetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	data := h.cache.Fetch(ctx, input.ForceRefresh)
	return successResult(data)
}

// HandleGraphEpisode handles the graph_episode tool call.
func (h *Handlers) HandleGraphEpisode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GraphEpisodeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Content == "" {
		return errorResult(errors.NewInvalidRequest("content is required")), nil
	}

	result := h.cache.AddEpisode(ctx, input.Content, input.Source, input.EpisodeType)
	if !result.Success {
		return errorResult(errors.NewGraphWriteFailed("episode", stringError(result.Error))), nil
	}
	return successResult(result)
}

// HandleGraphConversation handles the graph_conversation tool call.
func (h *Handlers) HandleGraphConversation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GraphConversationRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if len(input.Messages) == 0 {
		return errorResult(errors.NewInvalidRequest("messages must not be empty")), nil
	}

	result := h.cache.AddConversation(ctx, input.Messages, input.SessionID)
	if !result.Success {
		return errorResult(errors.NewGraphWriteFailed("conversation", stringError(result.Error))), nil
	}
	return successResult(result)
}

// HandleGraphClear handles the graph_clear tool call.
func (h *Handlers) HandleGraphClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GraphClearRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if !input.Confirm {
		return errorResult(errors.NewInvalidRequest("graph_clear requires confirm=true")), nil
	}

	result := h.cache.Clear(ctx)
	if !result.Success {
		return errorResult(errors.NewGraphWriteFailed("clear", stringError(result.Error))), nil
	}
	return successResult(result)
}

// HandleGraphHealth handles the graph_health tool call.
func (h *Handlers) HandleGraphHealth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.cache.CheckHealth(ctx))
}

// HandleLayoutSave handles the layout_save tool call.
func (h *Handlers) HandleLayoutSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LayoutSaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if len(input.Nodes) == 0 {
		return errorResult(errors.NewInvalidRequest("nodes must not be empty")), nil
	}

	if err := h.cache.SaveLayout(input.Nodes); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]int{"saved": len(input.Nodes)})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if aErr, ok := err.(*errors.AttacheError); ok {
		errorObj := map[string]any{
			"code":    aErr.Code,
			"message": aErr.Message,
			"status":  aErr.Status,
		}
		if aErr.Code != errors.ErrInternal && aErr.Details != nil {
			errorObj["details"] = aErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

// stringError wraps a result-level error string for the error constructors.
type stringError string

func (e stringError) Error() string { return string(e) }
