package graph

// Node is one entity in the local view of the temporal graph.
// Layout coordinates are the only locally-authoritative fields; everything
// else mirrors the external service.
type Node struct {
	// ID is the entity name (stable across refreshes).
	ID string `json:"id"`

	// UUID is the upstream entity uuid, when the service reports one.
	UUID string `json:"uuid,omitempty"`

	// Group is the entity category tag (e.g. "Entity", "Person").
	Group string `json:"group"`

	// Summary is optional free text describing the entity.
	Summary string `json:"summary,omitempty"`

	// X/Y are the last settled layout position, if persisted.
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	// FX/FY are pinned coordinates; a pinned node is excluded from the
	// physics layout.
	FX *float64 `json:"fx,omitempty"`
	FY *float64 `json:"fy,omitempty"`
}

// Link is one relationship edge between two nodes.
// Endpoints reference Node.ID values; validity is enforced by the consumer
// at render time, not by the cache.
type Link struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Value     string `json:"value"`
	CreatedAt string `json:"created_at,omitempty"`
	ValidAt   string `json:"valid_at,omitempty"`
}

// GraphData is the local snapshot of the temporal graph.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// NodeLayout holds persisted 2-D coordinates for one node.
// Fields are pointers because partial persistence is allowed: a node may
// have x/y but no pinned fx/fy.
type NodeLayout struct {
	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
	FX *float64 `json:"fx,omitempty"`
	FY *float64 `json:"fy,omitempty"`
}

// LayoutStore persists layout coordinates keyed by node id. It is never
// cleared except by Clear (driven by a graph clear) or an explicit reset.
type LayoutStore interface {
	All() (map[string]NodeLayout, error)
	Upsert(nodeID string, layout NodeLayout) error
	Clear() error
}

// Message is one turn of a conversation submitted for ingestion.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// EpisodeResult is the structured outcome of an episode ingestion.
// Callers must branch on Success; a false result means the cache was left
// untouched.
type EpisodeResult struct {
	Success       bool   `json:"success"`
	EntitiesAdded int    `json:"entities_added"`
	EdgesAdded    int    `json:"edges_added"`
	Error         string `json:"error,omitempty"`
}

// WriteResult is the structured outcome of a conversation or clear write.
type WriteResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// HealthStatus is the last known state of the graph service.
type HealthStatus struct {
	Status      string `json:"status"`
	Initialized bool   `json:"initialized"`
}
