package atomicfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func assertFileExists(t *testing.T, path string) {
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("file '%s' doesn't exist, os.Stat() failed with '%s'", path, err)
	}
	if !st.Mode().IsRegular() {
		t.Fatalf("path '%s' exists but is not a file (mode: %d)", path, int(st.Mode()))
	}
}

func assertFileNotExists(t *testing.T, path string) {
	_, err := os.Stat(path)
	if err == nil {
		t.Fatalf("file '%s' exists, expected to not exist", path)
	}
}

func assertNoError(t *testing.T, err error) {
	if err != nil {
		t.Fatalf("error: %s", err)
	}
}

func assertError(t *testing.T, err error) {
	if err == nil {
		t.Fatal("expected to get an error")
	}
}

func countFiles(t *testing.T, dir string) int {
	entries, err := os.ReadDir(dir)
	assertNoError(t, err)
	return len(entries)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.txt")

	f, err := New(dst)
	assertNoError(t, err)
	_, err = f.Write([]byte("foo"))
	assertNoError(t, err)
	// not visible at destination until Close()
	assertFileNotExists(t, dst)
	_, err = f.WriteString("bar")
	assertNoError(t, err)
	err = f.Close()
	assertNoError(t, err)
	// Close() twice is a no-op
	err = f.Close()
	assertNoError(t, err)

	d, err := os.ReadFile(dst)
	assertNoError(t, err)
	if string(d) != "foobar" {
		t.Fatalf("got '%s', want 'foobar'", d)
	}
	// no leftover temp files
	if n := countFiles(t, dir); n != 1 {
		t.Fatalf("expected 1 file in dir, got %d", n)
	}
}

func TestOverwrite(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.txt")
	err := os.WriteFile(dst, []byte("old"), 0644)
	assertNoError(t, err)

	err = WriteFile(dst, []byte("new"))
	assertNoError(t, err)
	d, err := os.ReadFile(dst)
	assertNoError(t, err)
	if string(d) != "new" {
		t.Fatalf("got '%s', want 'new'", d)
	}
}

func TestCancel(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.txt")

	f, err := New(dst)
	assertNoError(t, err)
	_, err = f.Write([]byte("data"))
	assertNoError(t, err)
	f.Cancel()
	assertFileNotExists(t, dst)
	if n := countFiles(t, dir); n != 0 {
		t.Fatalf("expected 0 files in dir, got %d", n)
	}
	// writes after Cancel() fail with ErrCancelled
	_, err = f.Write([]byte("more"))
	assertError(t, err)
	if err != ErrCancelled {
		t.Fatalf("got error '%s', want ErrCancelled", err)
	}
	// Cancel() keeps old destination content intact
	err = os.WriteFile(dst, []byte("old"), 0644)
	assertNoError(t, err)
	f, err = New(dst)
	assertNoError(t, err)
	_, err = f.WriteString("new")
	assertNoError(t, err)
	f.Cancel()
	d, err := os.ReadFile(dst)
	assertNoError(t, err)
	if string(d) != "old" {
		t.Fatalf("got '%s', want 'old'", d)
	}
}

func TestBadPath(t *testing.T) {
	_, err := New("")
	assertError(t, err)
	dir := t.TempDir()
	// trailing separator means no file name
	_, err = New(dir + string(filepath.Separator))
	assertError(t, err)
	// directory that doesn't exist
	_, err = New(filepath.Join(dir, "no-such-dir", "out.txt"))
	assertError(t, err)
}

func TestLargeWrite(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "big.txt")
	data := []byte(strings.Repeat("0123456789", 10*1024))
	err := WriteFile(dst, data)
	assertNoError(t, err)
	assertFileExists(t, dst)
	st, err := os.Stat(dst)
	assertNoError(t, err)
	if st.Size() != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), st.Size())
	}
}
