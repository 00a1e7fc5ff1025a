package dossier

import (
	"regexp"
	"strings"
)

// Extraction never errors: text that matches no rule yields empty results.
// Rules are evaluated in priority order and the first match wins, so the
// chains below act as a small explicit grammar rather than a pile of
// ad-hoc regex calls.

// sectionRule matches one section-header variant. MaxBullets limits how many
// bullets the section may contribute (0 = no per-section limit).
type sectionRule struct {
	header     *regexp.Regexp
	maxBullets int
}

// decisionRules are tried in order against normalized header lines. The
// final rule is the "Core Tasks & Projects" fallback used when no decision
// section matches.
var decisionRules = []sectionRule{
	{header: regexp.MustCompile(`(?i)^key discussions (?:&(?:amp;)?|and) decisions$`)},
	{header: regexp.MustCompile(`(?i)^decisions$`)},
	{header: regexp.MustCompile(`(?i)^important decisions$`)},
	{header: regexp.MustCompile(`(?i)^core tasks (?:&(?:amp;)?|and) projects$`), maxBullets: 5},
}

// sectionHeaderLine matches lines that delimit sections: markdown headers
// or bold-only lines, with an optional trailing colon.
var sectionHeaderLine = regexp.MustCompile(`^(?:#{1,6}\s+.+|\*\*[^*\n]+\*\*:?)\s*$`)

// bulletLine matches "- ", "* ", or "• " bullets. The marker must be
// followed by whitespace so bold markers ("**x**") are not mistaken for
// bullets.
var bulletLine = regexp.MustCompile(`^[-*•]\s+(.*)$`)

// minDecisionLen discards bullet fragments of 10 chars or fewer as noise.
const minDecisionLen = 11

// ExtractDecisions pulls decision/discussion strings out of one summary's
// text. budget is the caller's remaining allowance toward the global
// per-pass cap; at most budget entries are returned. Exact-string
// duplicates are dropped and first-seen order is preserved.
func ExtractDecisions(text string, budget int) []string {
	if budget <= 0 || text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")

	for _, rule := range decisionRules {
		bullets := sectionBullets(lines, rule, budget)
		if len(bullets) > 0 {
			return bullets
		}
	}

	return nil
}

// sectionBullets finds the rule's section and harvests its bullet lines.
func sectionBullets(lines []string, rule sectionRule, budget int) []string {
	start := -1
	for i, line := range lines {
		if !sectionHeaderLine.MatchString(strings.TrimSpace(line)) {
			continue
		}
		if rule.header.MatchString(normalizeHeader(line)) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	limit := budget
	if rule.maxBullets > 0 && rule.maxBullets < limit {
		limit = rule.maxBullets
	}

	var bullets []string
	seen := make(map[string]bool)
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		if sectionHeaderLine.MatchString(trimmed) {
			break // next section
		}
		m := bulletLine.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		entry := strings.TrimSpace(stripBold(m[1]))
		if len(entry) < minDecisionLen || seen[entry] {
			continue
		}
		seen[entry] = true
		bullets = append(bullets, entry)
		if len(bullets) >= limit {
			break
		}
	}

	return bullets
}

// normalizeHeader strips markdown header hashes, bold markers, and a
// trailing colon so rule patterns match the bare section name.
func normalizeHeader(line string) string {
	h := strings.TrimSpace(line)
	h = strings.TrimLeft(h, "#")
	h = strings.TrimSpace(h)
	h = stripBold(h)
	h = strings.TrimSuffix(h, ":")
	return strings.TrimSpace(h)
}

// stripBold removes surrounding ** markers.
func stripBold(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "**") && strings.HasSuffix(s, "**") && len(s) > 4 {
		return strings.TrimSpace(s[2 : len(s)-2])
	}
	return s
}

// Project rules, in fixed priority order.

// explicitPhrasePattern captures a capitalized token of 3-30 chars after an
// explicit workstream phrase ("working on X", "project: X", ...).
var explicitPhrasePattern = regexp.MustCompile(
	`(?:(?i:working on|project:|developing|implementing|building))\s+([A-Z][A-Za-z0-9_-]{2,29})\b`)

// boldHyphenPattern captures bold markdown tokens containing a hyphen,
// the convention used for workstream names in activity summaries.
var boldHyphenPattern = regexp.MustCompile(`\*\*([^*\n]+-[^*\n]+)\*\*`)

// repoRefPatterns capture repository/codebase references in either order
// ("the attache repo", "codebase Donjon").
var repoRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:\b(?:repo(?:sitory)?|codebase)\s+)([A-Z][A-Za-z0-9_-]{2,29})\b`),
	regexp.MustCompile(`\b([A-Z][A-Za-z0-9_-]{2,29})\s+(?i:repo(?:sitory)?|codebase)\b`),
}

// knownTools is a curated allow-list of tool/product names counted as
// projects when present verbatim (case-insensitive) in the text.
var knownTools = []string{
	"Pieces",
	"Linear",
	"Notion",
	"Graphiti",
	"Neo4j",
	"LiveKit",
	"Alfie",
}

// ExtractProjects applies the four project rule families to one summary's
// text and folds the deduplicated candidates into projects: a new name
// seeds an ActiveProject with count 1, an existing name increments by 1.
// Empty candidate names are never inserted.
func ExtractProjects(projects map[string]*ActiveProject, text, dayLabel string) {
	if text == "" || projects == nil {
		return
	}

	// One candidate set per summary: each rule family may re-detect the
	// same name, but a summary contributes at most one count per project.
	var candidates []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || len(name) < 3 || len(name) > 30 || seen[name] {
			return
		}
		seen[name] = true
		candidates = append(candidates, name)
	}

	// (1) explicit phrases
	for _, m := range explicitPhrasePattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	// (2) bold tokens containing a hyphen
	for _, m := range boldHyphenPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	// (3) repository/codebase references
	for _, p := range repoRefPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			add(m[1])
		}
	}

	// (4) known tool names present verbatim
	lower := strings.ToLower(text)
	for _, tool := range knownTools {
		if strings.Contains(lower, strings.ToLower(tool)) {
			add(tool)
		}
	}

	for _, name := range candidates {
		if name == "" {
			continue
		}
		if p, ok := projects[name]; ok {
			p.ActivityCount++
			continue
		}
		projects[name] = &ActiveProject{
			Name:          name,
			LastAccessed:  dayLabel,
			Source:        "Pieces",
			ActivityCount: 1,
		}
	}
}
