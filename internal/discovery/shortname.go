package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fastmcp-me/mcp-funnel/internal/catalog"
	"github.com/fastmcp-me/mcp-funnel/internal/funnelerrors"
)

// ResolveShortName maps an unprefixed tool name to its unique QualifiedName,
// per spec.md §4.6. input is treated as a short name only if it contains no
// "__"; in that case exactly one QualifiedName in cat must end with
// "__<input>", otherwise resolution fails as ambiguous (more than one
// candidate, listing up to five) or not-found (listing up to three
// substring suggestions).
//
// If input already contains "__", it is returned unchanged — callers should
// only fall back to ResolveShortName after an exact QualifiedName lookup
// misses.
func ResolveShortName(cat *catalog.Catalog, input string) (catalog.QualifiedName, error) {
	if strings.Contains(input, "__") {
		return catalog.QualifiedName(input), nil
	}

	suffix := "__" + input
	var candidates []catalog.QualifiedName
	for _, e := range cat.All() {
		if strings.HasSuffix(string(e.Qualified), suffix) {
			candidates = append(candidates, e.Qualified)
		}
	}

	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return "", fmt.Errorf("%w: no tool ending in %q; did you mean: %s",
			funnelerrors.ErrToolNotFound, suffix, strings.Join(substringSuggestions(cat, input, 3), ", "))
	default:
		sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
		if len(candidates) > 5 {
			candidates = candidates[:5]
		}
		return "", fmt.Errorf("%w: %q is ambiguous among: %s",
			funnelerrors.ErrAmbiguousShortName, input, joinNames(candidates))
	}
}

// substringSuggestions returns up to limit QualifiedNames (as strings)
// containing input as a case-insensitive substring, sorted for determinism.
func substringSuggestions(cat *catalog.Catalog, input string, limit int) []string {
	lowered := strings.ToLower(input)
	var matches []string
	for _, e := range cat.All() {
		if strings.Contains(strings.ToLower(string(e.Qualified)), lowered) {
			matches = append(matches, string(e.Qualified))
		}
	}
	sort.Strings(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func joinNames(names []catalog.QualifiedName) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
