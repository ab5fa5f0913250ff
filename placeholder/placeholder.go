// Package placeholder protects interpolation markers in localization strings
// while the text passes through a translation service.
//
// Mask swaps every protected substring for a neutral id (PLACEHOLDER0,
// PLACEHOLDER1, ...). Unmask puts the originals back, tolerating the ways
// machine translators tend to mangle those ids: changed case, an inserted
// space before the number, or the id replaced by a generic word such as
// "something".
package placeholder

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DefaultPatterns are the protected forms, highest priority first:
// %name%, &name and 'Word'.
var DefaultPatterns = []string{
	`%\w+%`,
	`&\w+`,
	`'[A-Za-z]+'`,
}

// DefaultStandIns are words translators have been seen to emit in place of
// an id. The stand-in for the token at discovery index i is
// StandIns[i % len(StandIns)].
var DefaultStandIns = []string{"SOMETHING", "SOMEONE", "PLACEHOLDER"}

// IDPrefix starts every synthetic id.
const IDPrefix = "PLACEHOLDER"

// idPattern matches an id the way translators return it. Ids may be glued
// to neighbouring text, so there are no word boundaries; resolveID decides
// how many of the digits belong to the id.
var idPattern = regexp.MustCompile(`(?i)` + IDPrefix + ` ?(\d+)`)

// Token records one protected substring.
type Token struct {
	// ID is the synthetic id written into the masked text.
	ID string
	// Original is the substring the id stands for.
	Original string
	// Index is the discovery order within the masked text.
	Index int
}

// Masker masks and restores placeholders. The zero value is not usable;
// construct it with New.
type Masker struct {
	patterns []*regexp.Regexp
	standIns []*regexp.Regexp
}

// New compiles a Masker for the given patterns, or DefaultPatterns when
// none are given.
func New(patterns ...string) (*Masker, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	m := &Masker{}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling placeholder pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, re)
	}
	for _, w := range DefaultStandIns {
		m.standIns = append(m.standIns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return m, nil
}

// MustNew is like New but panics on an invalid pattern.
func MustNew(patterns ...string) *Masker {
	m, err := New(patterns...)
	if err != nil {
		panic(err)
	}
	return m
}

type span struct {
	start, end int
	token      int
}

// Mask replaces protected substrings with synthetic ids. Ids are assigned
// by pattern priority, then by order of appearance. Repeated occurrences of
// the same substring share one id, and text already claimed by a higher
// priority pattern is not matched again.
func (m *Masker) Mask(text string) (string, []Token) {
	var tokens []Token
	var spans []span
	byOriginal := make(map[string]int)

	for _, re := range m.patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if overlaps(spans, loc[0], loc[1]) {
				continue
			}
			orig := text[loc[0]:loc[1]]
			idx, ok := byOriginal[orig]
			if !ok {
				idx = len(tokens)
				byOriginal[orig] = idx
				tokens = append(tokens, Token{
					ID:       IDPrefix + strconv.Itoa(idx),
					Original: orig,
					Index:    idx,
				})
			}
			spans = append(spans, span{start: loc[0], end: loc[1], token: idx})
		}
	}

	if len(spans) == 0 {
		return text, nil
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	prev := 0
	for _, s := range spans {
		b.WriteString(text[prev:s.start])
		b.WriteString(tokens[s.token].ID)
		prev = s.end
	}
	b.WriteString(text[prev:])
	return b.String(), tokens
}

func overlaps(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}

// Unmask restores the originals in translated text. Tokens that could not
// be found, neither by id nor by stand-in word, are returned as lost; their
// text is left as the translator produced it.
func (m *Masker) Unmask(text string, tokens []Token) (string, []Token) {
	if len(tokens) == 0 {
		return text, nil
	}

	found := make([]bool, len(tokens))
	for _, loc := range idPattern.FindAllStringSubmatchIndex(text, -1) {
		if n, _, ok := resolveID(text[loc[2]:loc[3]], len(tokens)); ok {
			found[n] = true
		}
	}

	// Stand-in words are only tried for ids the translator dropped.
	for i, tok := range tokens {
		if found[i] || len(m.standIns) == 0 {
			continue
		}
		loc := findStandIn(m.standIns[tok.Index%len(m.standIns)], text)
		if loc == nil {
			continue
		}
		text = text[:loc[0]] + tok.ID + text[loc[1]:]
		found[i] = true
	}

	text = idPattern.ReplaceAllStringFunc(text, func(match string) string {
		digits := idPattern.FindStringSubmatch(match)[1]
		n, rest, ok := resolveID(digits, len(tokens))
		if !ok {
			return match
		}
		return tokens[n].Original + rest
	})

	var lost []Token
	for i, tok := range tokens {
		if !found[i] {
			lost = append(lost, tok)
		}
	}
	return text, lost
}

// resolveID picks the longest leading run of digits that names one of the
// n tokens and returns the digits left over, so "PLACEHOLDER05" resolves to
// token 0 followed by "5" when there is a single token. Ids never carry a
// leading zero, so "01" is token 0 followed by "1".
func resolveID(digits string, n int) (int, string, bool) {
	for end := len(digits); end > 0; end-- {
		if end > 1 && digits[0] == '0' {
			continue
		}
		v, err := strconv.Atoi(digits[:end])
		if err == nil && v < n {
			return v, digits[end:], true
		}
	}
	return 0, "", false
}

// findStandIn returns the first match of re that is not itself the prefix
// of an id such as "PLACEHOLDER 3".
func findStandIn(re *regexp.Regexp, text string) []int {
	for _, loc := range re.FindAllStringIndex(text, -1) {
		rest := strings.TrimPrefix(text[loc[1]:], " ")
		if rest != "" && rest[0] >= '0' && rest[0] <= '9' {
			continue
		}
		return loc
	}
	return nil
}

// CollapseNewlines replaces line breaks a translator introduced with spaces
// when the source text was a single line.
func CollapseNewlines(source, translated string) string {
	if strings.ContainsAny(source, "\r\n") {
		return translated
	}
	translated = strings.ReplaceAll(translated, "\r\n", " ")
	return strings.ReplaceAll(translated, "\n", " ")
}
