// Package tree models a localization file as an ordered key-value tree and
// converts it to and from a flat list of dot-joined paths.
//
// A tree is a *Map whose values are either nested *Map values, translatable
// string leaves, or any other leaf (numbers, booleans, null, lists). Only
// string leaves take part in flattening:
//
//	greeting: Hello %name%        -> greeting         = "Hello %name%"
//	nested:
//	  farewell: Bye 'Friend'      -> nested.farewell  = "Bye 'Friend'"
//	  count: 3                    (skipped)
package tree

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins path segments in flattened keys.
const Separator = "."

var (
	// ErrAmbiguousKey is returned by Flatten when a key is empty or
	// contains Separator, which would make the flattened path impossible to
	// split back.
	ErrAmbiguousKey = errors.New("key is empty or contains path separator")
	// ErrPathConflict is returned by Unflatten and Set when a path needs a
	// leaf and a nested mapping at the same position.
	ErrPathConflict = errors.New("path conflicts with existing value")
)

// ---------------------------------------------------------------------------
// Map
// ---------------------------------------------------------------------------

// Map is an insertion-ordered mapping from string keys to values.
type Map struct {
	keys   []string
	values map[string]any
}

// New returns an empty Map.
func New() *Map {
	return &Map{values: make(map[string]any)}
}

// Len returns the number of direct children.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns the direct child keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Value returns the direct child stored under key.
func (m *Map) Value(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Put stores v under key. Existing keys keep their position.
func (m *Map) Put(key string, v any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get resolves a dot-joined path.
func (m *Map) Get(path string) (any, bool) {
	segs := strings.Split(path, Separator)
	cur := m
	for i, seg := range segs {
		v, ok := cur.values[seg]
		if !ok {
			return nil, false
		}
		if i == len(segs)-1 {
			return v, true
		}
		next, ok := v.(*Map)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// GetString resolves a path that must end in a string leaf.
func (m *Map) GetString(path string) (string, bool) {
	v, ok := m.Get(path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores v at a dot-joined path, creating intermediate maps on demand.
// A leaf at the final segment is overwritten; a non-map value on an
// intermediate segment, or a map at the final segment, is a conflict.
func (m *Map) Set(path string, v any) error {
	segs := strings.Split(path, Separator)
	cur := m
	for _, seg := range segs[:len(segs)-1] {
		existing, ok := cur.values[seg]
		if !ok {
			child := New()
			cur.Put(seg, child)
			cur = child
			continue
		}
		child, ok := existing.(*Map)
		if !ok {
			return fmt.Errorf("%s: %w", path, ErrPathConflict)
		}
		cur = child
	}

	last := segs[len(segs)-1]
	if existing, ok := cur.values[last]; ok {
		if _, isMap := existing.(*Map); isMap {
			return fmt.Errorf("%s: %w", path, ErrPathConflict)
		}
	}
	cur.Put(last, v)
	return nil
}

// clone returns a deep copy of the map structure. Leaf values are shared.
func (m *Map) clone() *Map {
	out := New()
	for _, k := range m.keys {
		v := m.values[k]
		if child, ok := v.(*Map); ok {
			v = child.clone()
		}
		out.Put(k, v)
	}
	return out
}

// equal reports whether two maps have the same keys in the same order and
// equal leaves. Non-string, non-map leaves are compared with fmt's %#v.
func equal(a, b *Map) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i, k := range a.keys {
		if b.keys[i] != k {
			return false
		}
		av, bv := a.values[k], b.values[k]
		am, aIsMap := av.(*Map)
		bm, bIsMap := bv.(*Map)
		switch {
		case aIsMap && bIsMap:
			if !equal(am, bm) {
				return false
			}
		case aIsMap != bIsMap:
			return false
		default:
			if fmt.Sprintf("%#v", av) != fmt.Sprintf("%#v", bv) {
				return false
			}
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Flatten / Unflatten
// ---------------------------------------------------------------------------

// Entry is a translatable string leaf addressed by its dot-joined path.
type Entry struct {
	Key   string
	Value string
}

// Flatten walks m depth-first in key order and returns every string leaf.
// Leaves of any other type are skipped.
func Flatten(m *Map) ([]Entry, error) {
	var entries []Entry
	if err := flatten(m, "", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func flatten(m *Map, prefix string, out *[]Entry) error {
	for _, k := range m.keys {
		if k == "" || strings.Contains(k, Separator) {
			return fmt.Errorf("%q under %q: %w", k, prefix, ErrAmbiguousKey)
		}
		path := k
		if prefix != "" {
			path = prefix + Separator + k
		}
		switch v := m.values[k].(type) {
		case *Map:
			if err := flatten(v, path, out); err != nil {
				return err
			}
		case string:
			*out = append(*out, Entry{Key: path, Value: v})
		}
	}
	return nil
}

// Unflatten rebuilds a tree from flat entries. Later entries overwrite
// earlier ones with the same key.
func Unflatten(entries []Entry) (*Map, error) {
	m := New()
	for _, e := range entries {
		if err := m.Set(e.Key, e.Value); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Merge overlays src onto dst. Nested maps present on both sides are merged
// recursively; every other value in src replaces the one in dst.
func Merge(dst, src *Map) {
	for _, k := range src.keys {
		sv := src.values[k]
		if sm, ok := sv.(*Map); ok {
			if dm, ok := dst.values[k].(*Map); ok {
				Merge(dm, sm)
				continue
			}
			dst.Put(k, sm.clone())
			continue
		}
		dst.Put(k, sv)
	}
}
