// Package progress implements the progress file: the set of keys that
// have already been translated, which lets an interrupted run resume
// without sending the same strings again.
//
// The file is a JSON array of flattened keys:
//
//	["greeting", "nested.farewell"]
//
// Every Add rewrites the whole file through a temp file and rename, so a
// crash leaves either the previous or the new list on disk.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/ccrisc/yaml-traslator/fsutil"
)

// DefaultFileName is the default progress file name.
const DefaultFileName = "progress.json"

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Record is the set of completed keys, kept in completion order.
type Record struct {
	mu   sync.Mutex
	path string
	keys []string
	set  map[string]struct{}
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the progress file at path. A missing file yields an empty
// record. An unreadable or malformed file also yields an empty record; the
// returned error describes the problem so the caller can report it, but the
// record is always usable.
func Load(path string) (*Record, error) {
	r := &Record{
		path: path,
		set:  make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return r, fmt.Errorf("reading %s: %w", path, err)
	}

	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return r, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, k := range keys {
		r.addLocked(k)
	}
	return r, nil
}

// New returns an empty record bound to path without reading it.
func New(path string) *Record {
	return &Record{path: path, set: make(map[string]struct{})}
}

// Save writes the full record to disk.
func (r *Record) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked()
}

func (r *Record) saveLocked() error {
	if r.path == "" {
		return fmt.Errorf("progress file path not set")
	}
	keys := r.keys
	if keys == nil {
		keys = []string{}
	}
	data, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("marshaling progress: %w", err)
	}
	return fsutil.WriteFileAtomic(r.path, data, 0644)
}

// Path returns the progress file path.
func (r *Record) Path() string {
	return r.path
}

// Reset forgets all keys and removes the progress file.
func (r *Record) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.keys = nil
	r.set = make(map[string]struct{})
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", r.path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Key operations
// ---------------------------------------------------------------------------

// Has reports whether key was completed in this or a previous run.
func (r *Record) Has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.set[key]
	return ok
}

// Add records key as completed and flushes the record to disk before
// returning. Concurrent callers are serialized so no update is lost.
// If the flush fails the key stays recorded in memory and the next
// successful Add or Save persists it.
func (r *Record) Add(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.addLocked(key) {
		return nil
	}
	return r.saveLocked()
}

func (r *Record) addLocked(key string) bool {
	if _, ok := r.set[key]; ok {
		return false
	}
	r.set[key] = struct{}{}
	r.keys = append(r.keys, key)
	return true
}

// Keys returns the completed keys in completion order.
func (r *Record) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of completed keys.
func (r *Record) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

// Coverage returns how many of the given keys are completed.
func (r *Record) Coverage(keys []string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range keys {
		if _, ok := r.set[k]; ok {
			n++
		}
	}
	return n
}

// Clean drops keys that are not in current, so renamed or removed source
// entries do not accumulate. It does not save.
func (r *Record) Clean(current []string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	valid := make(map[string]bool, len(current))
	for _, k := range current {
		valid[k] = true
	}

	kept := r.keys[:0]
	removed := 0
	for _, k := range r.keys {
		if valid[k] {
			kept = append(kept, k)
			continue
		}
		delete(r.set, k)
		removed++
	}
	r.keys = kept
	return removed
}
