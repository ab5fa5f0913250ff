package i18n

import (
	"reflect"
	"testing"
)

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func restorePO(t *testing.T) {
	t.Helper()
	old := po
	t.Cleanup(func() { po = old })
}

func TestDetectLanguages(t *testing.T) {
	t.Run("LANGUAGE list first, then LC_ALL", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "ru_RU.UTF-8:en_US")
		t.Setenv("LC_ALL", "de_DE.UTF-8")

		want := []string{"ru_RU", "en_US", "de_DE"}
		if got := detectLanguages(); !reflect.DeepEqual(got, want) {
			t.Fatalf("detectLanguages() = %v, want %v", got, want)
		}
	})

	t.Run("C and POSIX are skipped", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "C")
		t.Setenv("LC_ALL", "POSIX")
		t.Setenv("LC_MESSAGES", "fr_FR.UTF-8@euro")

		want := []string{"fr_FR"}
		if got := detectLanguages(); !reflect.DeepEqual(got, want) {
			t.Fatalf("detectLanguages() = %v, want %v", got, want)
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LC_ALL", "it_IT.UTF-8")
		t.Setenv("LANG", "it_IT.utf8")

		if got := detectLanguages(); !reflect.DeepEqual(got, []string{"it_IT"}) {
			t.Fatalf("detectLanguages() = %v", got)
		}
	})

	t.Run("empty environment", func(t *testing.T) {
		clearLocaleEnv(t)
		if got := detectLanguages(); len(got) != 0 {
			t.Fatalf("detectLanguages() = %v, want none", got)
		}
	})
}

func TestInitPicksFirstAvailableCatalog(t *testing.T) {
	restorePO(t)
	clearLocaleEnv(t)
	t.Setenv("LANGUAGE", "xx_YY:it_IT")

	if got := Init(""); got != "it" {
		t.Fatalf("Init() = %q, want it", got)
	}
	if got := T("Project"); got != "Progetto" {
		t.Fatalf("T(Project) = %q", got)
	}
}

func TestInitWithoutCatalogPassesThrough(t *testing.T) {
	restorePO(t)
	clearLocaleEnv(t)
	t.Setenv("LANG", "ja_JP.UTF-8")

	if got := Init(""); got != Fallback {
		t.Fatalf("Init() = %q, want %q", got, Fallback)
	}
	if got := T("Project"); got != "Project" {
		t.Fatalf("T passthrough = %q", got)
	}
	if got := N("file", "files", 1); got != "file" {
		t.Fatalf("N singular fallback = %q", got)
	}
	if got := N("file", "files", 2); got != "files" {
		t.Fatalf("N plural fallback = %q", got)
	}
}

func TestItalianCatalog(t *testing.T) {
	restorePO(t)

	if got := Init("it-IT"); got != "it" {
		t.Fatalf("Init(it-IT) = %q", got)
	}
	if got := N("Removed %d stale key", "Removed %d stale keys", 3); got != "Rimosse %d chiavi obsolete" {
		t.Fatalf("N plural = %q", got)
	}
	if got := N("Removed %d stale key", "Removed %d stale keys", 1); got != "Rimossa %d chiave obsoleta" {
		t.Fatalf("N singular = %q", got)
	}
	if got := T("no such message"); got != "no such message" {
		t.Fatalf("untranslated passthrough = %q", got)
	}
}

func TestAvailable(t *testing.T) {
	if got := Available(); !reflect.DeepEqual(got, []string{"it"}) {
		t.Fatalf("Available() = %v", got)
	}
}
