package dossier

import (
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kmorand/attache/internal/sources"
)

// ContextFetcher issues the single aggregate fetch for one synthesis pass.
type ContextFetcher interface {
	FetchCombined(ctx context.Context) (*sources.CombinedResponse, error)
}

// NotesReader returns the latest user-authored notes. Notes are never
// cached with the dossier; they must always reflect the most recent write.
type NotesReader interface {
	Get() (string, error)
}

// DefaultTTL is the dossier cache lifetime.
const DefaultTTL = 15 * time.Minute

// Synthesizer orchestrates synthesis passes and owns the dossier cache
// cell. Construct one at process start and pass it by reference to all
// call sites; the cache has no other lifecycle.
type Synthesizer struct {
	fetcher ContextFetcher
	notes   NotesReader
	ttl     time.Duration

	mu       sync.Mutex
	cached   *IntelligenceDossier
	cachedAt time.Time
}

// NewSynthesizer creates a Synthesizer. A zero ttl uses DefaultTTL.
func NewSynthesizer(fetcher ContextFetcher, notes NotesReader, ttl time.Duration) *Synthesizer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Synthesizer{fetcher: fetcher, notes: notes, ttl: ttl}
}

// Generate runs one synthesis pass, or serves the cached dossier when it is
// younger than the TTL and forceRefresh is false. It always returns a
// well-formed dossier: adapter failures degrade to empty collections and a
// status explaining what is missing, never an error.
//
// Callers never receive the cache cell itself. A cache hit returns a copy
// with freshly read notes, so one caller marshaling a dossier cannot race
// the next caller's hit and caller mutations cannot reach the cache.
//
// Concurrent callers that both miss the cache will both run the full
// fetch-and-parse pipeline; the second write wins. That redundancy is
// accepted rather than coalesced.
func (s *Synthesizer) Generate(ctx context.Context, forceRefresh bool) *IntelligenceDossier {
	notes := s.currentNotes()

	if !forceRefresh {
		s.mu.Lock()
		if s.cached != nil && time.Since(s.cachedAt) < s.ttl {
			d := *s.cached
			s.mu.Unlock()
			d.UserNotes = notes
			return &d
		}
		s.mu.Unlock()
	}

	d, ok := s.synthesize(ctx, notes)
	if ok {
		s.mu.Lock()
		s.cached = d
		s.cachedAt = time.Now()
		s.mu.Unlock()
	}

	return d
}

// currentNotes reads the notes store, degrading to "" on failure.
func (s *Synthesizer) currentNotes() string {
	if s.notes == nil {
		return ""
	}
	notes, err := s.notes.Get()
	if err != nil {
		return ""
	}
	return notes
}

// synthesize executes one full fetch-and-parse pipeline. The second return
// reports whether the result is worth caching: a failed combined fetch is
// not, so the next call retries immediately instead of serving the empty
// dossier for a full TTL after the proxy recovers.
func (s *Synthesizer) synthesize(ctx context.Context, notes string) (*IntelligenceDossier, bool) {
	d := &IntelligenceDossier{
		GeneratedAt:     time.Now().Unix(),
		ActiveProjects:  []ActiveProject{},
		RecentDecisions: []string{},
		Timeline:        []WorkstreamSummary{},
		LinearIssues:    []sources.LinearIssueData{},
		NotionPages:     []sources.NotionPage{},
		UserNotes:       notes,
	}

	resp, err := s.fetcher.FetchCombined(ctx)
	if err != nil {
		// Total network failure: the all-sources-down dossier still has
		// every field populated, just empty.
		d.SourceErrors = []sources.SourceError{{Source: "combined", Error: err.Error()}}
		d.SystemStatus = buildStatus(d) + " — all sources unavailable"
		d.RawContext = RenderRawContext(d)
		return d, false
	}

	failed := make(map[string]bool, len(resp.Errors))
	for _, se := range resp.Errors {
		failed[se.Source] = true
	}
	d.SourceErrors = resp.Errors

	s.parseActivity(d, resp.Activity, failed[sources.SourcePieces])
	s.parseLinear(d, resp.Linear, failed[sources.SourceLinear])
	s.parseNotion(d, resp.Notion, failed[sources.SourceNotion])

	s.applyActivityBoost(d)

	d.SystemStatus = buildStatus(d)
	d.RawContext = RenderRawContext(d)
	return d, true
}

// parseActivity builds the timeline and runs text extraction over every day
// of the activity-log response, newest first. Decisions and projects
// accumulate across all days of the pass, not just the latest.
func (s *Synthesizer) parseActivity(d *IntelligenceDossier, resp *sources.ActivityResponse, failed bool) {
	if failed || resp == nil {
		return
	}

	projects := make(map[string]*ActiveProject)
	decisionSeen := make(map[string]bool)

	summaries := make([]sources.ActivitySummary, len(resp.Summaries))
	copy(summaries, resp.Summaries)
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].DayIndex < summaries[j].DayIndex
	})

	now := time.Now().Unix()
	for _, day := range summaries {
		createdAt := now
		if t, err := time.Parse(time.RFC3339, day.FetchedAt); err == nil {
			createdAt = t.Unix()
		}
		d.Timeline = append(d.Timeline, WorkstreamSummary{
			ID:        newSummaryID(),
			CreatedAt: createdAt,
			DayLabel:  day.DayLabel,
			TimeRange: day.Date,
			Content:   day.Summary,
		})

		for _, decision := range ExtractDecisions(day.Summary, MaxDecisions-len(d.RecentDecisions)) {
			if decisionSeen[decision] {
				continue
			}
			decisionSeen[decision] = true
			d.RecentDecisions = append(d.RecentDecisions, decision)
		}

		ExtractProjects(projects, day.Summary, day.DayLabel)
	}

	// Flat activity items (no day buckets) still contribute projects.
	for _, activity := range resp.Activities {
		label := activity.DayLabel
		if label == "" {
			label = "recent"
		}
		ExtractProjects(projects, activity.Name+"\n"+activity.Summary, label)
	}

	d.ActiveProjects = sortProjects(projects)
	d.PiecesConnected = len(d.Timeline) > 0 || len(resp.Activities) > 0
}

// parseLinear flattens tracker issues into the dossier.
func (s *Synthesizer) parseLinear(d *IntelligenceDossier, resp *sources.LinearResponse, failed bool) {
	if failed || resp == nil {
		return
	}
	issues := resp.AllIssues()
	if len(issues) == 0 {
		return
	}
	d.LinearIssues = issues
	d.LinearProjects = resp.Projects
	d.LinearConnected = true
}

// parseNotion copies workspace pages into the dossier.
func (s *Synthesizer) parseNotion(d *IntelligenceDossier, resp *sources.NotionResponse, failed bool) {
	if failed || resp == nil || len(resp.Pages) == 0 {
		return
	}
	d.NotionPages = resp.Pages
	d.NotionConnected = true
}

// applyActivityBoost raises each known project's count for cross-source
// mentions: +2 per tracker issue whose title or project field contains the
// project name, +1 per document whose title or content contains it. The
// match is case-insensitive substring; project identity stays exact-string.
func (s *Synthesizer) applyActivityBoost(d *IntelligenceDossier) {
	if len(d.ActiveProjects) == 0 {
		return
	}

	for i := range d.ActiveProjects {
		p := &d.ActiveProjects[i]
		needle := strings.ToLower(p.Name)

		for _, issue := range d.LinearIssues {
			if strings.Contains(strings.ToLower(issue.Title), needle) ||
				strings.Contains(strings.ToLower(issue.Project), needle) {
				p.ActivityCount += 2
			}
		}

		for _, page := range d.NotionPages {
			if strings.Contains(strings.ToLower(page.Title), needle) ||
				strings.Contains(strings.ToLower(page.Content), needle) {
				p.ActivityCount++
			}
		}
	}

	// Re-rank after boosting: the ordering feeds the UI heat map.
	sort.SliceStable(d.ActiveProjects, func(i, j int) bool {
		if d.ActiveProjects[i].ActivityCount != d.ActiveProjects[j].ActivityCount {
			return d.ActiveProjects[i].ActivityCount > d.ActiveProjects[j].ActivityCount
		}
		return d.ActiveProjects[i].Name < d.ActiveProjects[j].Name
	})
}

// sortProjects flattens the project map into a deterministic slice,
// highest count first, ties by name.
func sortProjects(projects map[string]*ActiveProject) []ActiveProject {
	out := make([]ActiveProject, 0, len(projects))
	for _, p := range projects {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActivityCount != out[j].ActivityCount {
			return out[i].ActivityCount > out[j].ActivityCount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// newSummaryID generates a ULID for a timeline entry.
func newSummaryID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return fmt.Sprintf("ws-%d", time.Now().UnixNano())
	}
	return id.String()
}
