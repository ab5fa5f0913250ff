package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func TestLoadNonExistent(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	if err != nil {
		t.Fatalf("Load returned error for non-existent file: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}

func TestLoadCorruptIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	r, err := Load(path)
	if err == nil {
		t.Error("expected a parse error to report")
	}
	if r == nil || r.Len() != 0 {
		t.Fatalf("expected usable empty record, got %v", r)
	}
	// The record still works and overwrites the corrupt file.
	if err := r.Add("greeting"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	r2, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !r2.Has("greeting") {
		t.Error("greeting missing after reload")
	}
}

func TestAddFlushesImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	r, _ := Load(path)

	if err := r.Add("greeting"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add("nested.farewell"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// Duplicate adds are ignored.
	if err := r.Add("greeting"); err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != `["greeting","nested.farewell"]` {
		t.Errorf("file = %s", data)
	}
}

func TestConcurrentAddsAreNotLost(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	r, _ := Load(path)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := r.Add(fmt.Sprintf("key.%d", i)); err != nil {
				t.Errorf("Add: %v", err)
			}
		}(i)
	}
	wg.Wait()

	r2, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if r2.Len() != n {
		t.Errorf("persisted %d keys, want %d", r2.Len(), n)
	}
}

func TestSaveEmptyWritesArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := New(path).Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "[]" {
		t.Errorf("file = %s, want []", data)
	}
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	r, _ := Load(path)
	_ = r.Add("a")

	if err := r.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if r.Has("a") {
		t.Error("key survived reset")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("progress file still exists")
	}
	// Resetting twice is fine.
	if err := r.Reset(); err != nil {
		t.Fatalf("second Reset: %v", err)
	}
}

func TestCleanAndCoverage(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), DefaultFileName))
	for _, k := range []string{"a", "b", "c"} {
		_ = r.Add(k)
	}

	if got := r.Coverage([]string{"a", "c", "d"}); got != 2 {
		t.Errorf("Coverage = %d, want 2", got)
	}

	removed := r.Clean([]string{"a", "c"})
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if got := r.Keys(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("Keys = %v", got)
	}
	if r.Has("b") {
		t.Error("b still present")
	}
}
