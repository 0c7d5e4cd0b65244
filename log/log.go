// Package log is a small logging helper: formatted logging to stdout
// plus optional daily log files, and structured events serialized in
// toon format. All functions are safe to call before Init; they just
// skip the file output.
package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/toon-format/toon-go"
)

var (
	log       *WriteDaily
	errorsLog *WriteDaily
	eventsLog *WriteDaily

	// if true, Verbosef() will log messages
	Verbose bool
)

// WriteDaily appends to a file named after the current date inside
// Dir, starting a new file when the date changes
type WriteDaily struct {
	Dir         string
	currentDate int // YYYYMMDD format
	file        *os.File
	mu          sync.Mutex
}

func NewWriteDaily(dir string) *WriteDaily {
	return &WriteDaily{
		Dir: dir,
	}
}

// dayFromTime converts a time.Time to YYYYMMDD integer format
func dayFromTime(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Writer returns an io.Writer for today's log file
// it creates a new file if needed
func (w *WriteDaily) Writer() (io.Writer, error) {
	if w == nil {
		return nil, fmt.Errorf("w is nil")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now().UTC()
	today := dayFromTime(now)

	if w.file != nil && w.currentDate != today {
		if err := w.close(); err != nil {
			return nil, err
		}
	}

	if w.file == nil {
		dateStr := now.Format("2006-01-02")
		filename := filepath.Join(w.Dir, dateStr+".txt")
		if err := os.MkdirAll(w.Dir, 0755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		w.file = f
		w.currentDate = today
	}
	return w.file, nil
}

// Write writes data to the daily log file
// it's safe to call on nil receiver
func (w *WriteDaily) Write(d []byte) error {
	if w == nil {
		return nil
	}
	wr, err := w.Writer()
	if err != nil {
		return err
	}
	_, err = wr.Write(d)
	return err
}

// WriteString writes a string to the daily log file
// it's safe to call on nil receiver
func (w *WriteDaily) WriteString(s string) error {
	return w.Write([]byte(s))
}

func (w *WriteDaily) close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.currentDate = 0
	return err
}

// Close closes the daily log file
// it's safe to call on nil receiver
func (w *WriteDaily) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.close()
}

type Config struct {
	// directory where log files are stored
	// regular, error and event logs each get their own subdirectory
	Dir string
}

// Init enables logging to files under config.Dir
func Init(config *Config) {
	dir := config.Dir
	log = NewWriteDaily(filepath.Join(dir, "log"))
	errorsLog = NewWriteDaily(filepath.Join(dir, "errors"))
	// no file is created until the first event is logged
	eventsLog = NewWriteDaily(filepath.Join(dir, "events"))
}

func closeWriteDaily(wd **WriteDaily) {
	if *wd == nil {
		return
	}
	(*wd).Close()
	*wd = nil
}

// Close closes all log files
func Close() {
	closeWriteDaily(&log)
	closeWriteDaily(&errorsLog)
	closeWriteDaily(&eventsLog)
}

func Logf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	fmt.Print(s)
	log.WriteString(s)
}

// Verbosef is like Logf but only logs when Verbose is true
func Verbosef(format string, args ...any) {
	if !Verbose {
		return
	}
	Logf(format, args...)
}

func GetCallstackFrames(skip int) []string {
	var callers [32]uintptr
	n := runtime.Callers(skip+1, callers[:])
	frames := runtime.CallersFrames(callers[:n])
	var cs []string
	for {
		frame, more := frames.Next()
		if !more {
			break
		}
		s := frame.File + ":" + strconv.Itoa(frame.Line)
		cs = append(cs, s)
	}
	return cs
}

func GetCallstack(skip int) string {
	frames := GetCallstackFrames(skip + 1)
	return strings.Join(frames, "\n")
}

// Errorf logs an error message along with the callstack
func Errorf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	cs := GetCallstack(1)
	msg := fmt.Sprintf("%s\n%s\n", s, cs)
	fmt.Print(msg)
	log.WriteString(msg)
	errorsLog.WriteString(msg)
}

// IfErrf logs err if it's not nil and returns true
// IfErrf(err) => logs err.Error()
// IfErrf(err, "context: %v", v) => logs message formatted
func IfErrf(err error, a ...any) bool {
	if err == nil {
		return false
	}
	if len(a) == 0 {
		Errorf(err.Error())
		return true
	}
	s, ok := a[0].(string)
	if !ok {
		// shouldn't happen but just in case
		s = fmt.Sprintf("%s", a[0])
	}
	if len(a) > 1 {
		s = fmt.Sprintf(s, a[1:]...)
	}
	Errorf(s)
	return true
}

// marshalEventLine frames an event so that events can be read back
// unambiguously even when the payload has newlines:
// "<payload len> <unix ms> <name>\n<payload>\n"
func marshalEventLine(name string, t time.Time, d []byte) []byte {
	hdr := fmt.Sprintf("%d %d %s\n", len(d), t.UnixMilli(), name)
	res := make([]byte, 0, len(hdr)+len(d)+1)
	res = append(res, hdr...)
	res = append(res, d...)
	return append(res, '\n')
}

// Event logs a named event with key/value pairs, serialized in toon
// format
func Event(name string, vals ...any) {
	n := len(vals)
	if n%2 != 0 {
		panic("Event: odd number of vals")
	}
	var d []byte
	if n > 0 {
		m := map[string]any{}
		for i := 0; i < n; i += 2 {
			k, ok := vals[i].(string)
			if !ok {
				k = fmt.Sprintf("%v", vals[i])
			}
			m[k] = vals[i+1]
		}
		d, _ = toon.Marshal(m)
	}
	eventsLog.Write(marshalEventLine(name, time.Now().UTC(), d))
}

// EventWithDuration is Event with the duration recorded in microseconds
func EventWithDuration(name string, dur time.Duration, vals ...any) {
	vals = append(vals, "durmicro", dur.Microseconds())
	Event(name, vals...)
}

// EventJSON logs an event given as a JSON object, converted to toon.
// Uses the "name" field as event name, "_js" if not present.
func EventJSON(d []byte) error {
	var m map[string]any
	if err := json.Unmarshal(d, &m); err != nil {
		return err
	}
	name := "_js"
	if v, ok := m["name"]; ok {
		if s, ok := v.(string); ok {
			name = s
		}
	}
	dt, err := toon.Marshal(m)
	if err != nil {
		return err
	}
	eventsLog.Write(marshalEventLine(name, time.Now().UTC(), dt))
	return nil
}
