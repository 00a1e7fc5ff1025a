package sources

// Source name constants as they appear in combined-fetch error records.
const (
	SourcePieces = "pieces"
	SourceLinear = "linear"
	SourceNotion = "notion"
)

// ActivitySummary is one day-bucketed free-text summary from the activity log.
type ActivitySummary struct {
	// Date is the raw time-range string for the day (e.g. "2025-01-15").
	Date string `json:"date"`

	// DayLabel is the human-readable label ("today", "yesterday", "Monday (Dec 15)").
	DayLabel string `json:"dayLabel"`

	// DayIndex orders the days, 0 = today.
	DayIndex int `json:"dayIndex"`

	// Summary is markdown-like free text, possibly containing the four named
	// sections (Core Tasks & Projects, Key Discussions & Decisions,
	// Documents & Code Reviewed, Next Steps).
	Summary string `json:"summary"`

	// FetchedAt is when the upstream produced this summary (RFC 3339).
	FetchedAt string `json:"fetchedAt"`
}

// Activity is one flat activity item; present when the upstream has no
// day-bucketed summaries.
type Activity struct {
	Name     string `json:"name"`
	Summary  string `json:"summary,omitempty"`
	Date     string `json:"date,omitempty"`
	DayLabel string `json:"dayLabel,omitempty"`
}

// ActivityResponse is the activity-log source contract.
type ActivityResponse struct {
	Total      int               `json:"total"`
	Summaries  []ActivitySummary `json:"summaries,omitempty"`
	Activities []Activity        `json:"activities"`
	Message    string            `json:"message,omitempty"`
	Cached     bool              `json:"cached,omitempty"`
	LastFetch  string            `json:"lastFetch,omitempty"`
}

// LinearIssueData is a pass-through normalized tracker issue. Issues may be
// nested under a project or orphaned (Project empty).
type LinearIssueData struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier,omitempty"`
	Title      string `json:"title"`
	State      string `json:"state,omitempty"`

	// Priority is 0-4; see PriorityLabel for the fixed label table.
	Priority int `json:"priority"`

	Project   string `json:"project,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// LinearProjectData is a pass-through normalized tracker project.
type LinearProjectData struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	State  string            `json:"state,omitempty"`
	Issues []LinearIssueData `json:"issues,omitempty"`
}

// LinearResponse is the task-tracker source contract.
type LinearResponse struct {
	Total    int                 `json:"total"`
	Issues   []LinearIssueData   `json:"issues"`
	Projects []LinearProjectData `json:"projects,omitempty"`
}

// NotionPage is a pass-through normalized workspace page, optionally with
// body text.
type NotionPage struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	Content    string `json:"content,omitempty"`
	LastEdited string `json:"lastEdited,omitempty"`
}

// NotionResponse is the document-workspace source contract.
type NotionResponse struct {
	Total            int          `json:"total"`
	Pages            []NotionPage `json:"pages"`
	PagesWithContent int          `json:"pagesWithContent,omitempty"`
	ContentFetched   bool         `json:"contentFetched,omitempty"`
}

// SourceError records one upstream source failure from a combined fetch.
type SourceError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// CombinedResponse is the aggregate contract: all three sources plus
// per-source errors in one call. A nil source field means that source did
// not respond.
type CombinedResponse struct {
	Activity *ActivityResponse `json:"activity,omitempty"`
	Linear   *LinearResponse   `json:"linear,omitempty"`
	Notion   *NotionResponse   `json:"notion,omitempty"`
	Errors   []SourceError     `json:"errors,omitempty"`
}

// priorityLabels is the fixed Linear priority label table.
var priorityLabels = map[int]string{
	0: "None",
	1: "Urgent",
	2: "High",
	3: "Medium",
	4: "Low",
}

// PriorityLabel returns the label for a Linear priority value.
// Out-of-range values map to "None".
func PriorityLabel(priority int) string {
	if label, ok := priorityLabels[priority]; ok {
		return label
	}
	return "None"
}

// AllIssues flattens top-level and project-nested issues into one list.
// Nested issues inherit the project name when they don't carry one.
func (r *LinearResponse) AllIssues() []LinearIssueData {
	if r == nil {
		return nil
	}
	issues := make([]LinearIssueData, 0, len(r.Issues))
	issues = append(issues, r.Issues...)
	for _, p := range r.Projects {
		for _, issue := range p.Issues {
			if issue.Project == "" {
				issue.Project = p.Name
			}
			issues = append(issues, issue)
		}
	}
	return issues
}
