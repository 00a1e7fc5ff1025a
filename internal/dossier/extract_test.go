package dossier

import (
	"strings"
	"testing"
)

func TestExtractDecisionsPreferredSection(t *testing.T) {
	text := strings.Join([]string{
		"## Core Tasks & Projects",
		"- Reviewed the ingestion pipeline backlog",
		"",
		"## Key Discussions & Decisions",
		"- Decided to ship v2 this week",
		"- Agreed on the new retry policy",
		"",
		"## Next Steps",
		"- Write the migration runbook",
	}, "\n")

	got := ExtractDecisions(text, MaxDecisions)
	if len(got) != 2 {
		t.Fatalf("expected 2 decisions, got %d: %v", len(got), got)
	}
	if got[0] != "Decided to ship v2 this week" {
		t.Errorf("first decision = %q", got[0])
	}
	if got[1] != "Agreed on the new retry policy" {
		t.Errorf("second decision = %q", got[1])
	}
}

func TestExtractDecisionsHeaderVariants(t *testing.T) {
	for _, header := range []string{
		"## Key Discussions & Decisions",
		"## key discussions and decisions",
		"**Decisions**",
		"### Important Decisions:",
		"## Key Discussions &amp; Decisions",
	} {
		text := header + "\n- Decided to adopt the new schema\n"
		got := ExtractDecisions(text, MaxDecisions)
		if len(got) != 1 {
			t.Errorf("header %q: expected 1 decision, got %v", header, got)
		}
	}
}

func TestExtractDecisionsFallbackCap(t *testing.T) {
	lines := []string{"## Core Tasks & Projects"}
	for _, n := range []string{"one", "two", "three", "four", "five", "six", "seven"} {
		lines = append(lines, "- Worked through milestone "+n)
	}
	got := ExtractDecisions(strings.Join(lines, "\n"), MaxDecisions)
	if len(got) != 5 {
		t.Fatalf("fallback section should cap at 5 bullets, got %d", len(got))
	}
}

func TestExtractDecisionsShortFragmentsDropped(t *testing.T) {
	text := strings.Join([]string{
		"## Decisions",
		"- Ship it",
		"- exactly10c",
		"- exactly 11c",
		"- A decision long enough to keep",
	}, "\n")

	got := ExtractDecisions(text, MaxDecisions)
	if len(got) != 2 {
		t.Fatalf("expected 2 decisions, got %v", got)
	}
	if got[0] != "exactly 11c" {
		t.Errorf("11-char entry should survive, got %q", got[0])
	}
}

func TestExtractDecisionsDedupAndBudget(t *testing.T) {
	text := strings.Join([]string{
		"## Decisions",
		"- Decided to freeze the API",
		"- Decided to freeze the API",
		"- Decided to drop the old queue",
		"- Decided to hire two engineers",
	}, "\n")

	got := ExtractDecisions(text, 2)
	if len(got) != 2 {
		t.Fatalf("budget 2 should yield 2 decisions, got %v", got)
	}
	if got[0] != "Decided to freeze the API" || got[1] != "Decided to drop the old queue" {
		t.Errorf("unexpected decisions: %v", got)
	}
}

func TestExtractDecisionsStopsAtNextSection(t *testing.T) {
	text := strings.Join([]string{
		"## Decisions",
		"- Decided to rewrite the parser",
		"## Documents & Code Reviewed",
		"- Reviewed the deploy scripts in detail",
	}, "\n")

	got := ExtractDecisions(text, MaxDecisions)
	if len(got) != 1 {
		t.Fatalf("expected section to end at next header, got %v", got)
	}
}

func TestExtractDecisionsZeroBudget(t *testing.T) {
	if got := ExtractDecisions("## Decisions\n- Decided something important", 0); got != nil {
		t.Fatalf("zero budget should yield nil, got %v", got)
	}
}

func TestExtractProjectsExplicitPhrase(t *testing.T) {
	projects := make(map[string]*ActiveProject)
	ExtractProjects(projects, "Spent the morning working on Donjon, then lunch.", "today")

	p, ok := projects["Donjon"]
	if !ok {
		t.Fatalf("expected Donjon, got %v", keys(projects))
	}
	if p.ActivityCount != 1 || p.Source != "Pieces" || p.LastAccessed != "today" {
		t.Errorf("unexpected project record: %+v", p)
	}
}

func TestExtractProjectsBoldHyphen(t *testing.T) {
	projects := make(map[string]*ActiveProject)
	ExtractProjects(projects, "Progress on **voice-agent** continues.", "today")
	if _, ok := projects["voice-agent"]; !ok {
		t.Fatalf("expected voice-agent, got %v", keys(projects))
	}
}

func TestExtractProjectsRepoReference(t *testing.T) {
	projects := make(map[string]*ActiveProject)
	ExtractProjects(projects, "Cleaned up the Attache repo and the codebase Donjon.", "today")
	if _, ok := projects["Attache"]; !ok {
		t.Errorf("expected Attache from name-first form, got %v", keys(projects))
	}
	if _, ok := projects["Donjon"]; !ok {
		t.Errorf("expected Donjon from keyword-first form, got %v", keys(projects))
	}
}

func TestExtractProjectsKnownTools(t *testing.T) {
	projects := make(map[string]*ActiveProject)
	ExtractProjects(projects, "synced graphiti with neo4j this afternoon", "today")
	if _, ok := projects["Graphiti"]; !ok {
		t.Errorf("expected canonical Graphiti, got %v", keys(projects))
	}
	if _, ok := projects["Neo4j"]; !ok {
		t.Errorf("expected canonical Neo4j, got %v", keys(projects))
	}
}

func TestExtractProjectsOneCountPerSummary(t *testing.T) {
	projects := make(map[string]*ActiveProject)
	// Two rule families match the same name within one summary.
	ExtractProjects(projects, "Working on Donjon-Alpha today; the **Donjon-Alpha** milestone is close.", "today")

	p, ok := projects["Donjon-Alpha"]
	if !ok {
		t.Fatalf("expected Donjon-Alpha, got %v", keys(projects))
	}
	if p.ActivityCount != 1 {
		t.Errorf("one summary should contribute one count, got %d", p.ActivityCount)
	}
}

func TestExtractProjectsIncrementsAcrossSummaries(t *testing.T) {
	projects := make(map[string]*ActiveProject)
	ExtractProjects(projects, "Working on Donjon again.", "today")
	ExtractProjects(projects, "More Donjon repo cleanup.", "yesterday")

	if got := projects["Donjon"].ActivityCount; got != 2 {
		t.Errorf("expected count 2 across summaries, got %d", got)
	}
	if projects["Donjon"].LastAccessed != "today" {
		t.Errorf("first sighting's day label should stick, got %q", projects["Donjon"].LastAccessed)
	}
}

func TestExtractProjectsLengthGuards(t *testing.T) {
	projects := make(map[string]*ActiveProject)
	long := strings.Repeat("x", 20) + "-" + strings.Repeat("y", 20)
	ExtractProjects(projects, "**a-b** and **"+long+"**", "today")
	if _, ok := projects[long]; ok {
		t.Errorf("names over 30 chars should be dropped, got %v", keys(projects))
	}
	if _, ok := projects["a-b"]; !ok {
		t.Errorf("3-char name sits on the lower bound and should be kept")
	}
}

func keys(projects map[string]*ActiveProject) []string {
	out := make([]string, 0, len(projects))
	for name := range projects {
		out = append(out, name)
	}
	return out
}
