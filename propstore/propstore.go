// Package propstore persists application settings in a properties file.
//
// The on-disk format is the conventional flat "key=value" properties
// format ('#'/'!' comments, backslash escapes and line continuations) so
// files can be read and edited by any standard properties reader.
//
// The whole file is rewritten on every successful Set. A Store is not
// safe for concurrent use; callers that share one across goroutines
// must serialize access themselves.
package propstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/magiconair/properties"

	"github.com/jeremybrooks/common/atomicfile"
	"github.com/jeremybrooks/common/u"
)

// DefaultFileName is used when New is called with an empty file name
const DefaultFileName = "default.properties"

// ErrEmptyKey is returned by Set when the key is empty
var ErrEmptyKey = errors.New("key cannot be empty")

// Store is an in-memory key => value mapping backed by a properties
// file. Mutations are written back to disk immediately.
type Store struct {
	path  string
	props *properties.Properties
}

// New creates a Store backed by filename inside dir.
//
// If dir is empty the user's home directory is used. If filename is
// empty it defaults to DefaultFileName. The directory is created if
// missing (including parents) and so is an empty backing file. Existing
// key/value pairs are loaded into memory.
func New(dir string, filename string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		dir = home
	}
	if filename == "" {
		filename = DefaultFileName
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating directory '%s': %w", dir, err)
	}

	path := filepath.Join(dir, filename)
	if !u.FileExists(path) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("creating properties file '%s': %w", path, err)
		}
		if err = f.Close(); err != nil {
			return nil, err
		}
	}

	// expansion of ${key} references is a java.util.Properties
	// incompatibility, values must round-trip verbatim
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := l.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading properties file '%s': %w", path, err)
	}
	// write plain "key=value" lines, not "key = value"
	props.WriteSeparator = "="

	return &Store{
		path:  path,
		props: props,
	}, nil
}

// Path returns the path of the backing file
func (s *Store) Path() string {
	return s.path
}

// Keys returns all keys present in the store
func (s *Store) Keys() []string {
	return s.props.Keys()
}

// Lookup returns the value for key and whether the key is present.
// An empty key is never present.
func (s *Store) Lookup(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	return s.props.Get(key)
}

// Get returns the value for key, "" if the key is missing. Use Lookup
// to distinguish a missing key from an empty value.
func (s *Store) Get(key string) string {
	v, _ := s.Lookup(key)
	return v
}

// GetInt returns the value for key parsed as an int, 0 if the key is
// missing or the value doesn't parse
func (s *Store) GetInt(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s.Get(key)))
	if err != nil {
		return 0
	}
	return n
}

// GetInt64 returns the value for key parsed as an int64, 0 if the key
// is missing or the value doesn't parse
func (s *Store) GetInt64(key string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s.Get(key)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// GetFloat32 returns the value for key parsed as a float32, 0 if the
// key is missing or the value doesn't parse
func (s *Store) GetFloat32(key string) float32 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s.Get(key)), 32)
	if err != nil {
		return 0
	}
	return float32(f)
}

// GetFloat64 returns the value for key parsed as a float64, 0 if the
// key is missing or the value doesn't parse
func (s *Store) GetFloat64(key string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s.Get(key)), 64)
	if err != nil {
		return 0
	}
	return f
}

// GetBool returns true if the value for key is "true", "yes", "y" or
// "1" (case-insensitive, surrounding whitespace ignored). Everything
// else, including a missing key, is false.
func (s *Store) GetBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(s.Get(key))) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}

// Set updates the value for key in memory and rewrites the backing
// file. An empty key fails with ErrEmptyKey without changing state.
//
// If the write fails the in-memory value is already updated (memory is
// ahead of disk) and the error says so; a failed save is never
// reported as success.
func (s *Store) Set(key string, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, _, err := s.props.Set(key, value); err != nil {
		return err
	}
	if err := s.save(); err != nil {
		return fmt.Errorf("saving '%s': %w", s.path, err)
	}
	return nil
}

// SetInt is equivalent to Set(key, strconv.Itoa(value))
func (s *Store) SetInt(key string, value int) error {
	return s.Set(key, strconv.Itoa(value))
}

// SetInt64 is equivalent to Set with the base-10 string form of value
func (s *Store) SetInt64(key string, value int64) error {
	return s.Set(key, strconv.FormatInt(value, 10))
}

// SetFloat32 is equivalent to Set with the shortest string form of value
func (s *Store) SetFloat32(key string, value float32) error {
	return s.Set(key, strconv.FormatFloat(float64(value), 'g', -1, 32))
}

// SetFloat64 is equivalent to Set with the shortest string form of value
func (s *Store) SetFloat64(key string, value float64) error {
	return s.Set(key, strconv.FormatFloat(value, 'g', -1, 64))
}

// SetBool is equivalent to Set(key, "true") or Set(key, "false")
func (s *Store) SetBool(key string, value bool) error {
	return s.Set(key, strconv.FormatBool(value))
}

func (s *Store) save() error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Saved by %s\n", "github.com/jeremybrooks/common/propstore")
	if _, err := s.props.Write(&buf, properties.UTF8); err != nil {
		return err
	}
	return atomicfile.WriteFile(s.path, buf.Bytes())
}
