// Package i18n translates yamltr's own user-facing messages.
//
// Catalogs are gettext .po files embedded under
// locales/{lang}/LC_MESSAGES/yamltr.po and read with gotext. Messages
// without a translation, and every message when no catalog matches the
// user's locale, are returned unchanged.
//
//	i18n.Init("") // pick from LANGUAGE, LC_ALL, LC_MESSAGES, LANG
//	logInfo(i18n.T("Wrote %s"), path)
//	logInfo(i18n.N("Removed %d stale key", "Removed %d stale keys", n), n)
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

const (
	localesDir = "locales"
	domain     = "yamltr"

	// Fallback is the language of the message ids themselves.
	Fallback = "en"
)

// po is nil until Init finds a catalog; T and N then pass messages through.
var po *gotext.Locale

// Init selects the catalog for lang, or for the user's locale when lang is
// empty, and returns the language actually in use. Each candidate is tried
// as given (pt_BR) and then by its base language (pt).
func Init(lang string) string {
	candidates := detectLanguages()
	if lang != "" {
		candidates = []string{normalize(lang)}
	}

	po = nil
	for _, c := range candidates {
		if found := match(c); found != "" {
			po = gotext.NewLocaleFSWithPath(found, locales, localesDir)
			po.AddDomain(domain)
			po.SetDomain(domain)
			return found
		}
	}
	return Fallback
}

// Available lists the languages with an embedded catalog, sorted.
func Available() []string {
	entries, err := fs.ReadDir(locales, localesDir)
	if err != nil {
		return nil
	}
	var langs []string
	for _, e := range entries {
		if e.IsDir() && hasCatalog(e.Name()) {
			langs = append(langs, e.Name())
		}
	}
	sort.Strings(langs)
	return langs
}

// T translates a message.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a message with plural forms, chosen by the catalog's
// plural formula for n.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// ---------------------------------------------------------------------------
// Locale detection
// ---------------------------------------------------------------------------

func hasCatalog(lang string) bool {
	_, err := fs.Stat(locales, path.Join(localesDir, lang, "LC_MESSAGES", domain+".po"))
	return err == nil
}

// match returns the catalog name serving lang, or "".
func match(lang string) string {
	if lang == "" {
		return ""
	}
	if hasCatalog(lang) {
		return lang
	}
	if base, _, ok := strings.Cut(lang, "_"); ok && hasCatalog(base) {
		return base
	}
	return ""
}

// normalize strips the encoding and modifier: "it_IT.UTF-8@euro" -> "it_IT".
func normalize(val string) string {
	if i := strings.IndexAny(val, ".@"); i >= 0 {
		val = val[:i]
	}
	return strings.ReplaceAll(strings.TrimSpace(val), "-", "_")
}

// detectLanguages returns the user's preferred languages in GNU gettext
// priority order: every entry of LANGUAGE, then LC_ALL, LC_MESSAGES, LANG.
// "C" and "POSIX" mean no translation and are skipped.
func detectLanguages() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(v string) {
		v = normalize(v)
		if v == "" || v == "C" || v == "POSIX" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}

	for _, v := range strings.Split(os.Getenv("LANGUAGE"), ":") {
		add(v)
	}
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		add(os.Getenv(env))
	}
	return out
}
