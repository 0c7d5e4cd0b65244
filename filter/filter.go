// Package filter provides predicates for filtering directory listings,
// meant to be used with the result of os.ReadDir.
package filter

import (
	"io/fs"
	"strings"
)

// Filter decides whether a directory entry is accepted
type Filter func(de fs.DirEntry) bool

// ByExtension returns a Filter accepting regular files whose name ends
// with ext. A leading dot is added if missing ("tmp" and ".tmp" are
// equivalent). A blank ext accepts nothing.
func ByExtension(ext string) Filter {
	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return func(de fs.DirEntry) bool {
		if ext == "" || de == nil || de.IsDir() {
			return false
		}
		return strings.HasSuffix(de.Name(), ext)
	}
}

// ByContains returns a Filter accepting entries whose name contains
// matchText. A blank matchText accepts nothing.
func ByContains(matchText string, caseSensitive bool) Filter {
	if strings.TrimSpace(matchText) == "" {
		return func(fs.DirEntry) bool { return false }
	}
	if caseSensitive {
		return func(de fs.DirEntry) bool {
			return de != nil && strings.Contains(de.Name(), matchText)
		}
	}
	lower := strings.ToLower(matchText)
	return func(de fs.DirEntry) bool {
		return de != nil && strings.Contains(strings.ToLower(de.Name()), lower)
	}
}

// Directories returns a Filter accepting directories only
func Directories() Filter {
	return func(de fs.DirEntry) bool {
		return de != nil && de.IsDir()
	}
}

// Apply returns the entries accepted by f, preserving order
func Apply(entries []fs.DirEntry, f Filter) []fs.DirEntry {
	var res []fs.DirEntry
	for _, de := range entries {
		if f(de) {
			res = append(res, de)
		}
	}
	return res
}
