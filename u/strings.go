package u

import (
	"sort"
	"strings"
)

// IsBlank returns true if s is empty or contains only whitespace
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// SortStrings sorts ss in place. If caseSensitive is false, strings are
// compared case-insensitively ("apple" sorts next to "Apple")
func SortStrings(ss []string, caseSensitive bool) {
	if caseSensitive {
		sort.Strings(ss)
		return
	}
	sort.Slice(ss, func(i, j int) bool {
		si := strings.ToLower(ss[i])
		sj := strings.ToLower(ss[j])
		if si == sj {
			// stable tie-break so that the order is deterministic
			return ss[i] < ss[j]
		}
		return si < sj
	})
}

// TrimExt removes extension from s
func TrimExt(s string) string {
	idx := strings.LastIndex(s, ".")
	if idx == -1 {
		return s
	}
	return s[:idx]
}

// TrimPrefix is like strings.TrimPrefix but also returns a bool
// indicating that the string was trimmed
func TrimPrefix(s string, prefix string) (string, bool) {
	s2 := strings.TrimPrefix(s, prefix)
	return s2, len(s) != len(s2)
}
