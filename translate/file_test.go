package translate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ccrisc/yaml-traslator/progress"
)

func writeSource(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "it.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranslateFileWritesOutputAndResumes(t *testing.T) {
	dir := t.TempDir()
	task := FileTask{
		SourcePath: writeSource(t, dir, "it:\n  # saluto\n  greeting: \"Ciao %name%\"\n  count: 3\n  nav:\n    home: Casa\n"),
		OutputPath: filepath.Join(dir, "en.yml"),
		SourceLang: "it",
		TargetLang: "en",
	}
	recPath := filepath.Join(dir, progress.DefaultFileName)
	rec := progress.New(recPath)

	b := &fakeBackend{fn: func(_ int, text string) (string, error) {
		return strings.NewReplacer("Ciao", "Hello", "Casa", "Home").Replace(text), nil
	}}
	res, err := TranslateFile(context.Background(), task, newTestClient(b), Options{Progress: rec})
	if err != nil {
		t.Fatalf("TranslateFile: %v", err)
	}
	if res.Counts.Done != 2 {
		t.Errorf("Counts = %+v", res.Counts)
	}

	want := "en:\n  # saluto\n  greeting: \"Hello %name%\"\n  count: 3\n  nav:\n    home: Home\n"
	got, _ := os.ReadFile(task.OutputPath)
	if string(got) != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}

	// A second run with the saved progress makes no calls and rewrites the
	// same output from the previous file.
	rec2, _ := progress.Load(recPath)
	b2 := &fakeBackend{}
	if _, err := TranslateFile(context.Background(), task, newTestClient(b2), Options{Progress: rec2}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if b2.Calls() != 0 {
		t.Errorf("second run made %d calls", b2.Calls())
	}
	got2, _ := os.ReadFile(task.OutputPath)
	if string(got2) != want {
		t.Errorf("resumed output:\n%s", got2)
	}
}

func TestTranslateFileWritesPartialOutputOnHalt(t *testing.T) {
	dir := t.TempDir()
	task := FileTask{
		SourcePath: writeSource(t, dir, "a: uno\nb: due\nc: tre\n"),
		OutputPath: filepath.Join(dir, "out", "en.yml"),
		SourceLang: "it",
		TargetLang: "en",
	}
	b := &fakeBackend{fn: func(n int, text string) (string, error) {
		if n == 2 {
			return "", errors.New("server error")
		}
		return "one", nil
	}}
	rec := progress.New(filepath.Join(dir, progress.DefaultFileName))

	res, err := TranslateFile(context.Background(), task, newTestClient(b), Options{Workers: 1, Progress: rec})
	if !IsRateLimited(err) {
		t.Fatalf("err = %v, want rate limit", err)
	}
	if res.State != RunHaltedByRateLimit {
		t.Errorf("State = %s", res.State)
	}
	got, readErr := os.ReadFile(task.OutputPath)
	if readErr != nil {
		t.Fatalf("partial output not written: %v", readErr)
	}
	if string(got) != "a: one\nb: due\nc: tre\n" {
		t.Errorf("partial output = %q", got)
	}
	if rec.Len() != 1 || !rec.Has("a") {
		t.Errorf("progress = %v", rec.Keys())
	}
}

func TestTranslateFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	b := &fakeBackend{}
	_, err := TranslateFile(context.Background(), FileTask{
		SourcePath: filepath.Join(dir, "missing.yml"),
		OutputPath: filepath.Join(dir, "en.yml"),
		TargetLang: "en",
	}, newTestClient(b), Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if b.Calls() != 0 {
		t.Error("backend called for missing source")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "en.yml")); !os.IsNotExist(statErr) {
		t.Error("output written for missing source")
	}
}
