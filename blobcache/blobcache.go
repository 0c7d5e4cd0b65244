// Package blobcache is a disk based cache for gob-serializable values.
//
// Each cached value lives in its own file inside a cache directory,
// named exactly after its key, so keys must be legal file names. The
// cache is transient: call Close() when done to remove the directory
// and everything in it.
//
// A Cache is not thread-safe. Two goroutines hitting the same key can
// race (e.g. one deleting what the other is reading); entries are
// written via a temporary file and atomic rename, so a reader never
// observes a partially written entry, but any stronger guarantee is up
// to the caller.
package blobcache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeremybrooks/common/atomicfile"
	"github.com/jeremybrooks/common/log"
	"github.com/jeremybrooks/common/u"
)

var (
	// ErrEmptyKey is returned when a key is empty
	ErrEmptyKey = errors.New("key cannot be empty")
	// ErrNilValue is returned by Put when the value is nil
	ErrNilValue = errors.New("cannot cache a nil value")
	// ErrClosed is returned by operations on a closed cache
	ErrClosed = errors.New("cache is closed")
)

// Cache is a disk based key => blob cache rooted at a single directory
type Cache struct {
	// Compression applies to subsequent Put calls. Safe to change at
	// any time: each entry records how it was written.
	Compression Compression

	dir    string
	closed bool
}

// New creates a Cache in a fresh, time-derived directory under the
// system temp directory
func New() (*Cache, error) {
	name := fmt.Sprintf("blobcache-%d", time.Now().UnixNano())
	return NewWithName(name)
}

// NewWithName creates a Cache in a directory named name under the
// system temp directory
func NewWithName(name string) (*Cache, error) {
	if name == "" {
		return nil, errors.New("cache directory name cannot be empty")
	}
	return NewInDir(filepath.Join(os.TempDir(), name))
}

// NewInDir creates a Cache that uses dir verbatim. The directory is
// created if missing (including parents). It's an error if dir exists
// and is not a directory.
func NewInDir(dir string) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if u.PathExists(dir) {
		isDir, err := u.PathIsDir(dir)
		if err != nil {
			return nil, err
		}
		if !isDir {
			return nil, fmt.Errorf("'%s' is not a directory", dir)
		}
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory '%s': %w", dir, err)
		}
	}
	log.Verbosef("blobcache: using cache directory '%s'\n", dir)
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key)
}

// Put caches v under key, silently overwriting any previous entry for
// the same key. The entry is written via a temporary file and atomic
// rename so a concurrent Get never sees it half-written.
func (c *Cache) Put(key string, v any) error {
	if c.closed {
		return ErrClosed
	}
	if key == "" {
		return ErrEmptyKey
	}
	if v == nil {
		return ErrNilValue
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("encoding value for key '%s': %w", key, err)
	}
	payload, err := compress(buf.Bytes(), c.Compression)
	if err != nil {
		return err
	}
	d := marshalRecord(payload, c.Compression.codec(), time.Now().UnixMilli())
	path := c.entryPath(key)
	if err = atomicfile.WriteFile(path, d); err != nil {
		return fmt.Errorf("writing cache entry '%s': %w", key, err)
	}
	log.Verbosef("blobcache: cached '%s' as '%s'\n", key, path)
	return nil
}

// Get retrieves the entry for key into v, which must be a pointer to a
// value of the type that was Put. Returns false and a nil error when
// there is no entry for key. A corrupt or undecodable entry is an
// error, not a miss.
func (c *Cache) Get(key string, v any) (bool, error) {
	if c.closed {
		return false, ErrClosed
	}
	if key == "" {
		return false, ErrEmptyKey
	}

	d, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	payload, codec, err := unmarshalRecord(d)
	if err != nil {
		return false, fmt.Errorf("reading cache entry '%s': %w", key, err)
	}
	payload, err = decompress(payload, codec)
	if err != nil {
		return false, fmt.Errorf("reading cache entry '%s': %w", key, err)
	}
	if err = gob.NewDecoder(bytes.NewReader(payload)).Decode(v); err != nil {
		return false, fmt.Errorf("decoding cache entry '%s': %w", key, err)
	}
	return true, nil
}

// Delete removes the entry for key. A missing entry or an empty key is
// a no-op; a failed removal is returned as an error.
func (c *Cache) Delete(key string) error {
	if c.closed {
		return ErrClosed
	}
	if key == "" {
		return nil
	}
	path := c.entryPath(key)
	if !u.PathExists(path) {
		return nil
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	log.Verbosef("blobcache: deleted '%s'\n", path)
	return nil
}

// Clear removes every file directly inside the cache directory
// (sub-directories are left alone). Returns how many removals failed
// along with the combined error.
func (c *Cache) Clear() (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}
	failures := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err = os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			failures++
			errs = append(errs, err)
		}
	}
	return failures, errors.Join(errs...)
}

// Close removes the cache directory and all entries in it. This is the
// explicit teardown: call it (e.g. via defer) when the cache is no
// longer needed. Operations after Close fail with ErrClosed.
func (c *Cache) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return os.RemoveAll(c.dir)
}
