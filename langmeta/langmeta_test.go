package langmeta

import (
	"strings"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "pt_br", want: "pt-BR"},
		{in: " EN-us ", want: "en-US"},
		{in: "ru", want: "ru"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		got := canonicalize(tc.in)
		if got != tc.want {
			t.Fatalf("canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("simple code", func(t *testing.T) {
		got := Resolve("it")
		if got.Code != "it" || got.English != "Italian" || got.Flag != "🇮🇹" {
			t.Fatalf("unexpected result: %#v", got)
		}
		if !strings.HasPrefix(got.Name, "Italiano") {
			t.Fatalf("Name = %q", got.Name)
		}
	})

	t.Run("normalized variant", func(t *testing.T) {
		got := Resolve("pt_br")
		if got.Code != "pt-BR" || got.Flag != "🇧🇷" {
			t.Fatalf("unexpected result: %#v", got)
		}
		if !strings.HasPrefix(strings.ToLower(got.Name), "português") {
			t.Fatalf("Name = %q", got.Name)
		}
	})

	t.Run("explicit region wins", func(t *testing.T) {
		got := Resolve("fr-LU")
		if got.Flag != "🇱🇺" {
			t.Fatalf("Flag = %q", got.Flag)
		}
	})

	t.Run("numeric region has no flag", func(t *testing.T) {
		got := Resolve("es-419")
		if got.Flag != "" {
			t.Fatalf("Flag = %q, want none", got.Flag)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("not a language")
		if got.Name != "not a language" || got.Flag != "" {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})
}

func TestParse(t *testing.T) {
	if _, err := Parse("en_GB"); err != nil {
		t.Errorf("Parse(en_GB): %v", err)
	}
	if _, err := Parse("english!"); err == nil {
		t.Error("expected error for malformed code")
	}
}

func TestLabel(t *testing.T) {
	if got := Label("de"); !strings.Contains(got, "(de)") || !strings.HasPrefix(got, "🇩🇪") {
		t.Errorf("Label(de) = %q", got)
	}
}
