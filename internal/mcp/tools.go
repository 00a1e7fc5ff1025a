package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions. One tool per dossier/graph operation the conversational
// agent is allowed to reach.

var dossierGenerateToolDef = mcp.NewTool("dossier_generate",
	mcp.WithDescription("Generate the intelligence dossier: current projects, decisions, workstream timeline, and the raw context string for grounding. Served from a 15-minute cache unless force_refresh is set; user notes are always fresh."),
	mcp.WithBoolean("force_refresh",
		mcp.Description("Bypass the dossier cache and run a full synthesis pass")),
)

var dossierStatusToolDef = mcp.NewTool("dossier_status",
	mcp.WithDescription("Report per-source connectivity for the dossier (Pieces activity log, Linear tracker, Notion workspace) without returning the full dossier."),
)

var notesGetToolDef = mcp.NewTool("notes_get",
	mcp.WithDescription("Read the user's free-text dossier notes."),
)

var notesSetToolDef = mcp.NewTool("notes_set",
	mcp.WithDescription("Replace the user's free-text dossier notes. The next dossier read reflects them immediately, cached or not."),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("The full notes text (replaces the previous value)")),
)

var graphFetchToolDef = mcp.NewTool("graph_fetch",
	mcp.WithDescription("Fetch the knowledge-graph snapshot (nodes, relationship links, persisted layout coordinates). Served from a short-lived cache unless force_refresh is set."),
	mcp.WithBoolean("force_refresh",
		mcp.Description("Bypass the graph cache and fetch from the graph service")),
)

var graphEpisodeToolDef = mcp.NewTool("graph_episode",
	mcp.WithDescription("Ingest one episode (a message, a note) into the temporal knowledge graph for entity and relationship extraction."),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("Episode content to ingest")),
	mcp.WithString("source",
		mcp.Description("Source label for the episode (default: attache)")),
	mcp.WithString("episode_type",
		mcp.Description("Episode type: message, text, or json (default: message)")),
)

var graphConversationToolDef = mcp.NewTool("graph_conversation",
	mcp.WithDescription("Ingest a full conversation into the temporal knowledge graph."),
	mcp.WithArray("messages",
		mcp.Required(),
		mcp.Description("Conversation turns, each {role, content}"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"role":    map[string]any{"type": "string"},
				"content": map[string]any{"type": "string"},
			},
		})),
	mcp.WithString("session_id",
		mcp.Description("Conversation session id (generated when omitted)")),
)

var graphClearToolDef = mcp.NewTool("graph_clear",
	mcp.WithDescription("Destroy the entire knowledge graph and the locally persisted layout. Irreversible; requires confirm=true."),
	mcp.WithBoolean("confirm",
		mcp.Required(),
		mcp.Description("Must be true to proceed")),
)

var graphHealthToolDef = mcp.NewTool("graph_health",
	mcp.WithDescription("Check the graph service's health and initialization state."),
)

var layoutSaveToolDef = mcp.NewTool("layout_save",
	mcp.WithDescription("Persist node layout coordinates so graph positions survive refreshes. Non-finite values are dropped per-field."),
	mcp.WithArray("nodes",
		mcp.Required(),
		mcp.Description("Nodes with id and any of x, y, fx, fy"),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{"type": "string"},
				"x":  map[string]any{"type": "number"},
				"y":  map[string]any{"type": "number"},
				"fx": map[string]any{"type": "number"},
				"fy": map[string]any{"type": "number"},
			},
			"required": []string{"id"},
		})),
)
