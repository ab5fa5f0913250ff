// Package langmeta resolves language codes to display metadata (native and
// English names, emoji flag) for prompts and CLI output.
package langmeta

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Code is the canonical BCP 47 code, e.g. "pt-BR".
	Code string
	// Name is the language's own name for itself.
	Name string
	// English is the English name, used in LLM prompts.
	English string
	// Flag is the regional-indicator flag, or "" when no region applies.
	Flag string
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Parse validates lang, accepting "_" as a separator, and returns its tag.
func Parse(lang string) (language.Tag, error) {
	return language.Parse(canonicalize(lang))
}

// Resolve returns best-effort language metadata for language codes,
// supporting variants like pt_BR and pt-BR. Unknown codes pass through
// with the code as the name and no flag.
func Resolve(lang string) Meta {
	tag, err := Parse(lang)
	if err != nil || tag == language.Und {
		return Meta{Code: lang, Name: lang, English: lang}
	}

	m := Meta{
		Code:    tag.String(),
		Name:    capitalize(display.Self.Name(tag)),
		English: display.English.Tags().Name(tag),
	}
	if m.Name == "" {
		m.Name = m.Code
	}
	if m.English == "" {
		m.English = m.Code
	}
	if region, conf := tag.Region(); conf != language.No {
		m.Flag = flag(region.String())
	}
	return m
}

// flag converts a two-letter region code to its regional-indicator pair.
// Numeric regions such as 419 have no flag.
func flag(region string) string {
	if len(region) != 2 {
		return ""
	}
	var b strings.Builder
	for _, c := range region {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (c - 'A'))
	}
	return b.String()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Label returns "Name (code)" with the flag prepended when known.
func Label(lang string) string {
	m := Resolve(lang)
	label := m.Name
	if m.Name != m.Code {
		label += " (" + m.Code + ")"
	}
	if m.Flag != "" {
		label = m.Flag + " " + label
	}
	return label
}
