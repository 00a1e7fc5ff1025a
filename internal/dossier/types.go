package dossier

import "github.com/kmorand/attache/internal/sources"

// WorkstreamSummary is one day's activity narrative. Immutable after
// creation; a refresh supersedes it rather than mutating it.
type WorkstreamSummary struct {
	// ID is a ULID assigned at parse time.
	ID string `json:"id"`

	// CreatedAt is the Unix timestamp when this entry was parsed.
	CreatedAt int64 `json:"created_at"`

	// DayLabel is the human-readable day ("today", "yesterday", "Monday (Dec 15)").
	DayLabel string `json:"day_label"`

	// TimeRange is the raw time-range string from the activity log.
	TimeRange string `json:"time_range"`

	// Content is the markdown-like free text for the day.
	Content string `json:"content"`
}

// ActiveProject is a heuristically detected project/workstream.
// Identity is the exact extracted name string; there is no fuzzy merge
// across synthesis passes.
type ActiveProject struct {
	// Name is the dedup key (non-empty, case-sensitive).
	Name string `json:"name"`

	// LastAccessed is the day label of the most recent mention.
	LastAccessed string `json:"last_accessed"`

	// Source is the originating app label.
	Source string `json:"source"`

	// ActivityCount accumulates across extraction passes and cross-source
	// mention boosts. Monotonically non-decreasing within one pass.
	ActivityCount int `json:"activity_count"`
}

// IntelligenceDossier is the synthesis output: the cached snapshot of all
// business-context sources used to ground the conversational agent.
type IntelligenceDossier struct {
	GeneratedAt int64 `json:"generated_at"`

	// SystemStatus is one short token per source, joined with " | ":
	// "Pieces ✓ (3 days)" on success, "Linear ✗" on absence.
	SystemStatus string `json:"system_status"`

	ActiveProjects  []ActiveProject     `json:"active_projects"`
	RecentDecisions []string            `json:"recent_decisions"`
	Timeline        []WorkstreamSummary `json:"timeline"`

	LinearIssues   []sources.LinearIssueData   `json:"linear_issues"`
	LinearProjects []sources.LinearProjectData `json:"linear_projects,omitempty"`
	NotionPages    []sources.NotionPage        `json:"notion_pages"`

	PiecesConnected bool `json:"pieces_connected"`
	LinearConnected bool `json:"linear_connected"`
	NotionConnected bool `json:"notion_connected"`

	// UserNotes always reflects the most recent write; it is refreshed from
	// the notes store even when the rest of the dossier is served from cache.
	UserNotes string `json:"user_notes"`

	SourceErrors []sources.SourceError `json:"source_errors,omitempty"`

	// RawContext is the flattened rendering consumed by the conversational
	// agent. It is fully derivable from the fields above and never an
	// independent source of truth.
	RawContext string `json:"raw_context"`
}

// MaxDecisions caps aggregated decision entries per synthesis pass.
const MaxDecisions = 15
