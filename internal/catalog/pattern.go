// Package catalog holds the funnel's tool-catalog state: the mapping table
// from QualifiedName to how a tool is dispatched, the derived description
// and definition caches, the dynamic-enablement set, and the filter engine
// that decides what a host sees in tools/list.
package catalog


// MatchPattern reports whether s matches glob pattern p, where '*' stands
// for any sequence of characters including the empty sequence and every
// other character is literal. Matching is anchored to the whole string:
// "a*b" matches "ab", "acb", "a___b", but not "ab " — trailing characters
// after a literal suffix never match (spec.md §4.3).
func MatchPattern(p, s string) bool {
	return matchPattern(p, s)
}

// matchPattern is a classic two-index glob matcher: walk both strings,
// and on a literal mismatch backtrack to the most recent '*' if one was
// seen, advancing it one character further into s each time.
func matchPattern(p, s string) bool {
	pi, si := 0, 0
	starIdx, matchIdx := -1, -1

	for si < len(s) {
		switch {
		case pi < len(p) && p[pi] == '*':
			starIdx = pi
			matchIdx = si
			pi++
		case pi < len(p) && p[pi] == s[si]:
			pi++
			si++
		case starIdx != -1:
			pi = starIdx + 1
			matchIdx++
			si = matchIdx
		default:
			return false
		}
	}

	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}

// MatchAny reports whether s matches any pattern in patterns.
func MatchAny(patterns []string, s string) bool {
	for _, p := range patterns {
		if MatchPattern(p, s) {
			return true
		}
	}
	return false
}
