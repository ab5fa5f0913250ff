// Package lockfile implements .yamltr.lock, which remembers an MD5 checksum
// of the source text each key had when it was translated. The progress file
// only says that a key is done; the lock file tells whether its source
// string was edited since, so the key can be sent again.
//
// Checksums are grouped by output file:
//
//	version: 1
//	checksums:
//	  en.yml:
//	    greeting: 5d41402abc4b2a76b9719d911017c592
//
// The lock file lives in the project root next to .yamltr.yaml.
package lockfile

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ccrisc/yaml-traslator/fsutil"
)

// FileName is the lock file name.
const FileName = ".yamltr.lock"

// Version is the lock file format version.
const Version = 1

// LockFile holds the checksums of every output file. It is safe for
// concurrent use.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"`

	mu   sync.Mutex
	path string
}

// Load reads the lock file from dir. A missing file yields an empty lock
// file. An unreadable, malformed or newer-version file also yields an empty
// lock file, together with an error the caller can report.
func Load(dir string) (*LockFile, error) {
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      filepath.Join(dir, FileName),
	}

	data, err := os.ReadFile(lf.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return lf, nil
	case err != nil:
		return lf, fmt.Errorf("reading %s: %w", lf.path, err)
	}

	var onDisk struct {
		Version   int                          `yaml:"version"`
		Checksums map[string]map[string]string `yaml:"checksums"`
	}
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		return lf, fmt.Errorf("parsing %s: %w", lf.path, err)
	}
	if onDisk.Version > Version {
		return lf, fmt.Errorf("%s: unsupported version %d", lf.path, onDisk.Version)
	}
	for name, sums := range onDisk.Checksums {
		if len(sums) > 0 {
			lf.Checksums[name] = sums
		}
	}
	return lf, nil
}

// Save writes the lock file through a temp file and rename.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return errors.New("lock file path not set")
	}
	for name, sums := range lf.Checksums {
		if len(sums) == 0 {
			delete(lf.Checksums, name)
		}
	}
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("encoding lock file: %w", err)
	}
	if err := fsutil.WriteFileAtomic(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// Hash returns the hex MD5 of s.
func Hash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ---------------------------------------------------------------------------
// Per-output view
// ---------------------------------------------------------------------------

// Target is the set of checksums for one output file.
type Target struct {
	lf   *LockFile
	name string
}

// Target returns the view for outputPath, which should be relative to the
// project root so the lock file stays portable.
func (lf *LockFile) Target(outputPath string) *Target {
	return &Target{lf: lf, name: filepath.ToSlash(filepath.Clean(outputPath))}
}

// Name is the key the target is stored under.
func (t *Target) Name() string { return t.name }

func (t *Target) with(fn func(sums map[string]string) map[string]string) {
	t.lf.mu.Lock()
	defer t.lf.mu.Unlock()
	if out := fn(t.lf.Checksums[t.name]); out != nil {
		t.lf.Checksums[t.name] = out
	}
}

// Known reports whether a checksum is stored for key.
func (t *Target) Known(key string) (ok bool) {
	t.with(func(sums map[string]string) map[string]string {
		_, ok = sums[key]
		return nil
	})
	return ok
}

// IsChanged reports whether source differs from the text key was
// translated from. Keys without a checksum are never reported: there is
// nothing to compare against.
func (t *Target) IsChanged(key, source string) (changed bool) {
	t.with(func(sums map[string]string) map[string]string {
		old, ok := sums[key]
		changed = ok && old != Hash(source)
		return nil
	})
	return changed
}

// Update stores the checksum of the source text key was translated from.
func (t *Target) Update(key, source string) {
	t.with(func(sums map[string]string) map[string]string {
		if sums == nil {
			sums = make(map[string]string)
		}
		sums[key] = Hash(source)
		return sums
	})
}

// Forget drops the checksums of keys.
func (t *Target) Forget(keys ...string) {
	t.with(func(sums map[string]string) map[string]string {
		for _, k := range keys {
			delete(sums, k)
		}
		return nil
	})
}

// Clean drops checksums of keys not in current and returns how many
// were dropped.
func (t *Target) Clean(current []string) (removed int) {
	keep := make(map[string]bool, len(current))
	for _, k := range current {
		keep[k] = true
	}
	t.with(func(sums map[string]string) map[string]string {
		for k := range sums {
			if !keep[k] {
				delete(sums, k)
				removed++
			}
		}
		return nil
	})
	return removed
}

// Len returns the number of stored checksums.
func (t *Target) Len() (n int) {
	t.with(func(sums map[string]string) map[string]string {
		n = len(sums)
		return nil
	})
	return n
}

// Remove drops every checksum of the target.
func (t *Target) Remove() {
	t.lf.mu.Lock()
	defer t.lf.mu.Unlock()
	delete(t.lf.Checksums, t.name)
}

// ---------------------------------------------------------------------------
// Summary
// ---------------------------------------------------------------------------

// Targets returns the stored target names, sorted.
func (lf *LockFile) Targets() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	names := make([]string, 0, len(lf.Checksums))
	for name, sums := range lf.Checksums {
		if len(sums) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Summary describes the lock file in one line, e.g.
// "2 outputs, 3 keys (de.yml: 2, en.yml: 1)".
func (lf *LockFile) Summary() string {
	names := lf.Targets()
	if len(names) == 0 {
		return "empty"
	}

	total := 0
	parts := make([]string, len(names))
	for i, name := range names {
		n := lf.Target(name).Len()
		total += n
		parts[i] = fmt.Sprintf("%s: %d", name, n)
	}
	return fmt.Sprintf("%d outputs, %d keys (%s)", len(names), total, strings.Join(parts, ", "))
}
