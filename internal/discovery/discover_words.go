package discovery

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fastmcp-me/mcp-funnel/internal/catalog"
	"github.com/fastmcp-me/mcp-funnel/internal/util"
)

// maxMatchDescriptionRunes bounds how much of a tool's description
// discover_tools_by_words echoes back per match, so one verbose downstream
// tool can't dominate the report.
const maxMatchDescriptionRunes = 160

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// scoredEntry pairs a catalog entry with its discover_tools_by_words score.
type scoredEntry struct {
	entry *catalog.ToolEntry
	score int
}

// DiscoverByWords implements discover_tools_by_words (spec.md §4.5):
// tokenize words, score every searchable entry, and either report matches
// or enable them in DynamicallyEnabled.
func DiscoverByWords(ctx *catalog.InvocationContext, words string, enable bool) string {
	tokens := tokenize(words)
	if len(tokens) == 0 {
		return "no tools found"
	}

	scored := scoreEntries(ctx.Catalog.SearchableEntries(), tokens)
	if len(scored) == 0 {
		return "no tools found"
	}

	if !enable {
		return formatMatches(scored)
	}

	names := make([]catalog.QualifiedName, len(scored))
	for i, s := range scored {
		names[i] = s.entry.Qualified
	}
	ctx.Catalog.EnableDynamic(names...)
	if ctx.NotifyListChanged != nil {
		ctx.NotifyListChanged()
	}

	var b strings.Builder
	b.WriteString("Enabled tools: ")
	for i, s := range scored {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(s.entry.Qualified))
	}
	b.WriteString(". Use bridge_tool_request to invoke them.")
	return b.String()
}

// tokenize splits words on whitespace and hyphens, lowercases each piece,
// and discards empties (spec.md §4.5 step 1).
func tokenize(words string) []string {
	fields := strings.FieldsFunc(words, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '-'
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// scoreEntries scores every entry against tokens and returns those with
// score > 0, sorted by score descending then QualifiedName ascending
// (spec.md §4.5 steps 2-3).
func scoreEntries(entries []*catalog.ToolEntry, tokens []string) []scoredEntry {
	var out []scoredEntry
	for _, e := range entries {
		score := 0
		for _, tok := range tokens {
			score += descriptionScore(e.Tool.Description, tok)
			score += nameScore(string(e.Qualified), tok)
			score += nameScore(e.ServerName, tok)
		}
		if score > 0 {
			out = append(out, scoredEntry{entry: e, score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].entry.Qualified < out[j].entry.Qualified
	})
	return out
}

// descriptionScore: +2 for a whole-word match, +1 for a substring match.
func descriptionScore(description, token string) int {
	lowered := strings.ToLower(description)
	if hasWholeWord(lowered, token) {
		return 2
	}
	if strings.Contains(lowered, token) {
		return 1
	}
	return 0
}

// nameScore splits name on non-alphanumerics; +2 if token equals a
// resulting piece, else +1 if token is a substring of the full lowercased
// name (spec.md §4.5's tool-name and server-name scoring rules).
func nameScore(name, token string) int {
	if name == "" {
		return 0
	}
	lowered := strings.ToLower(name)
	for _, piece := range nonAlphanumeric.Split(lowered, -1) {
		if piece == token {
			return 2
		}
	}
	if strings.Contains(lowered, token) {
		return 1
	}
	return 0
}

// hasWholeWord reports whether token appears in s bounded by non-letter,
// non-digit characters (or string boundaries) on both sides.
func hasWholeWord(s, token string) bool {
	if token == "" {
		return false
	}
	idx := 0
	for {
		pos := strings.Index(s[idx:], token)
		if pos == -1 {
			return false
		}
		start := idx + pos
		end := start + len(token)
		beforeOK := start == 0 || !isWordChar(rune(s[start-1]))
		afterOK := end == len(s) || !isWordChar(rune(s[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// formatMatches renders the non-enabling report form of discover_tools_by_words.
func formatMatches(scored []scoredEntry) string {
	var b strings.Builder
	b.WriteString("Matches:\n")
	for _, s := range scored {
		desc := util.TruncateRunes(s.entry.Tool.Description, maxMatchDescriptionRunes)
		fmt.Fprintf(&b, "- %s (score %d): %s\n", s.entry.Qualified, s.score, desc)
	}
	return b.String()
}
