package catalog

import "testing"

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"a*b", "ab", true},
		{"a*b", "acb", true},
		{"a*b", "a___b", true},
		{"a*b", "ab ", false},
		{"a*b", " ab", false},
		{"*", "anything", true},
		{"*", "", true},
		{"exact", "exact", true},
		{"exact", "exactish", false},
		{"git__*", "git__status", true},
		{"git__*", "github__status", false},
		{"*__status", "git__status", true},
		{"*__status", "git__status_extra", false},
		{"a**b", "ab", true},
		{"a**b", "axxxb", true},
		{"", "", true},
		{"", "x", false},
		{"*a*", "banana", true},
		{"*a*", "xyz", false},
	}

	for _, tt := range tests {
		got := MatchPattern(tt.pattern, tt.input)
		if got != tt.want {
			t.Errorf("MatchPattern(%q, %q) = %v, want %v", tt.pattern, tt.input, got, tt.want)
		}
	}
}

func TestMatchAny(t *testing.T) {
	patterns := []string{"git__*", "fs_*"}
	if !MatchAny(patterns, "git__status") {
		t.Error("expected match on git__status")
	}
	if !MatchAny(patterns, "fs_read") {
		t.Error("expected match on fs_read")
	}
	if MatchAny(patterns, "other__tool") {
		t.Error("expected no match on other__tool")
	}
	if MatchAny(nil, "anything") {
		t.Error("expected no match against empty pattern list")
	}
}
