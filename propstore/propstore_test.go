package propstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
)

func newTestStore(t *testing.T) *Store {
	s, err := New(t.TempDir(), "test.properties")
	assert.NoError(t, err)
	return s
}

func TestNewDefaults(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultFileName), s.Path())
	// backing file is created eagerly
	_, err = os.Stat(s.Path())
	assert.NoError(t, err)
}

func TestNewCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	s, err := New(dir, "app.properties")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "app.properties"), s.Path())
}

func TestNewBadDir(t *testing.T) {
	// a file where the directory should be
	dir := t.TempDir()
	path := filepath.Join(dir, "notadir")
	err := os.WriteFile(path, []byte("x"), 0644)
	assert.NoError(t, err)
	_, err = New(path, "app.properties")
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "t.properties")
	assert.NoError(t, err)

	pairs := map[string]string{
		"simple":     "value",
		"with space": "a value with spaces",
		"empty":      "",
		"equals":     "a=b=c",
		"unicode":    "żółw",
		"multiline":  "line one\nline two",
		"tab":        "a\tb",
	}
	for k, v := range pairs {
		err = s.Set(k, v)
		assert.NoError(t, err)
	}
	// same store sees what was written
	for k, v := range pairs {
		got, ok := s.Lookup(k)
		assert.True(t, ok, "key %q missing", k)
		assert.Equal(t, v, got, "key %q", k)
	}

	// a freshly loaded store pointed at the same file sees the same
	s2, err := New(dir, "t.properties")
	assert.NoError(t, err)
	for k, v := range pairs {
		got, ok := s2.Lookup(k)
		assert.True(t, ok, "key %q missing after reload", k)
		assert.Equal(t, v, got, "key %q after reload", k)
	}
	assert.Equal(t, len(pairs), len(s2.Keys()))
}

func TestTypedGetters(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Set("int", "42"))
	assert.NoError(t, s.Set("int64", "9223372036854775807"))
	assert.NoError(t, s.Set("float", "3.5"))
	assert.NoError(t, s.Set("padded", " 7 "))
	assert.NoError(t, s.Set("junk", "not a number"))

	assert.Equal(t, 42, s.GetInt("int"))
	assert.Equal(t, int64(9223372036854775807), s.GetInt64("int64"))
	assert.Equal(t, float32(3.5), s.GetFloat32("float"))
	assert.Equal(t, 3.5, s.GetFloat64("float"))
	assert.Equal(t, 7, s.GetInt("padded"))

	// missing key and unparseable value both fall back to zero
	assert.Equal(t, 0, s.GetInt("missingKey"))
	assert.Equal(t, int64(0), s.GetInt64("missingKey"))
	assert.Equal(t, float32(0), s.GetFloat32("missingKey"))
	assert.Equal(t, float64(0), s.GetFloat64("missingKey"))
	assert.Equal(t, 0, s.GetInt("junk"))
	assert.Equal(t, float64(0), s.GetFloat64("junk"))

	// the two cases are distinguishable via Lookup
	_, ok := s.Lookup("junk")
	assert.True(t, ok)
	_, ok = s.Lookup("missingKey")
	assert.False(t, ok)
}

func TestGetBool(t *testing.T) {
	s := newTestStore(t)
	truthy := []string{"true", "TRUE", "Yes", "y", "1", " true "}
	for i, v := range truthy {
		key := "t" + string(rune('0'+i))
		assert.NoError(t, s.Set(key, v))
		assert.True(t, s.GetBool(key), "value %q", v)
	}
	falsy := []string{"0", "no", "", "false", "yep", "2"}
	for i, v := range falsy {
		key := "f" + string(rune('0'+i))
		assert.NoError(t, s.Set(key, v))
		assert.False(t, s.GetBool(key), "value %q", v)
	}
	assert.False(t, s.GetBool("missingKey"))
}

func TestSetEmptyKey(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Set("existing", "value"))
	before, err := os.ReadFile(s.Path())
	assert.NoError(t, err)

	err = s.Set("", "x")
	assert.Equal(t, ErrEmptyKey, err)

	// neither memory nor disk changed
	assert.Equal(t, 1, len(s.Keys()))
	after, err := os.ReadFile(s.Path())
	assert.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestEmptyKeyLookup(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.Lookup("")
	assert.False(t, ok)
	assert.Equal(t, "", s.Get(""))
}

func TestTypedSetters(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.SetInt("i", -3))
	assert.NoError(t, s.SetInt64("i64", 1<<40))
	assert.NoError(t, s.SetFloat32("f32", 0.25))
	assert.NoError(t, s.SetFloat64("f64", 2.5))
	assert.NoError(t, s.SetBool("b", true))

	assert.Equal(t, "-3", s.Get("i"))
	assert.Equal(t, int64(1<<40), s.GetInt64("i64"))
	assert.Equal(t, float32(0.25), s.GetFloat32("f32"))
	assert.Equal(t, 2.5, s.GetFloat64("f64"))
	assert.Equal(t, "true", s.Get("b"))
	assert.True(t, s.GetBool("b"))
}

func TestOnDiskFormat(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "t.properties")
	assert.NoError(t, err)
	err = s.SetInt("count", 42)
	assert.NoError(t, err)
	assert.Equal(t, 42, s.GetInt("count"))

	d, err := os.ReadFile(filepath.Join(dir, "t.properties"))
	assert.NoError(t, err)
	lines := strings.Split(string(d), "\n")
	// a comment header followed by plain key=value lines
	assert.True(t, strings.HasPrefix(lines[0], "# Saved by"), "first line: %q", lines[0])
	found := false
	for _, l := range lines {
		if l == "count=42" {
			found = true
		}
	}
	assert.True(t, found, "no count=42 line in:\n%s", d)
}

func TestOverwriteValue(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Set("k", "v1"))
	assert.NoError(t, s.Set("k", "v2"))
	assert.Equal(t, "v2", s.Get("k"))
	assert.Equal(t, 1, len(s.Keys()))
}

func TestLoadHandEditedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edited.properties")
	content := "# a comment\n! another comment\nname=gopher\nnum = 7\ncont=first \\\n    second\n"
	err := os.WriteFile(path, []byte(content), 0644)
	assert.NoError(t, err)

	s, err := New(dir, "edited.properties")
	assert.NoError(t, err)
	assert.Equal(t, "gopher", s.Get("name"))
	assert.Equal(t, 7, s.GetInt("num"))
	assert.Equal(t, "first second", s.Get("cont"))
}
