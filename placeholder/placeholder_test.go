package placeholder

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Mask
// ---------------------------------------------------------------------------

func TestMask_AssignsIDsByPriorityThenPosition(t *testing.T) {
	m := MustNew()
	masked, tokens := m.Mask("'Hi' &user, you have %count% messages from 'Bob'")

	want := "PLACEHOLDER2 PLACEHOLDER1, you have PLACEHOLDER0 messages from PLACEHOLDER3"
	if masked != want {
		t.Errorf("masked = %q\nwant     %q", masked, want)
	}
	originals := []string{"%count%", "&user", "'Hi'", "'Bob'"}
	if len(tokens) != len(originals) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(originals))
	}
	for i, o := range originals {
		if tokens[i].Original != o || tokens[i].Index != i {
			t.Errorf("tokens[%d] = %+v, want original %q index %d", i, tokens[i], o, i)
		}
	}
}

func TestMask_NoPlaceholders(t *testing.T) {
	m := MustNew()
	masked, tokens := m.Mask("plain text")
	if masked != "plain text" || tokens != nil {
		t.Errorf("Mask = %q, %v", masked, tokens)
	}
}

func TestMask_RepeatedSubstringSharesID(t *testing.T) {
	m := MustNew()
	masked, tokens := m.Mask("%a% and %a% and %b%")
	if masked != "PLACEHOLDER0 and PLACEHOLDER0 and PLACEHOLDER1" {
		t.Errorf("masked = %q", masked)
	}
	if len(tokens) != 2 {
		t.Errorf("got %d tokens, want 2", len(tokens))
	}
}

func TestMask_HigherPriorityClaimsOverlap(t *testing.T) {
	m := MustNew(`%[^%]+%`, `'[A-Za-z]+'`)
	masked, tokens := m.Mask("%'Quoted'%")
	if masked != "PLACEHOLDER0" || len(tokens) != 1 {
		t.Errorf("masked = %q, tokens = %v", masked, tokens)
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	if _, err := New("("); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

// ---------------------------------------------------------------------------
// Unmask
// ---------------------------------------------------------------------------

func TestRoundTripIdentity(t *testing.T) {
	m := MustNew()
	texts := []string{
		"",
		"no markers",
		"Hello %name%",
		"Bye 'Friend'",
		"&a &b &c &d &e &f &g &h &i &j &k &l",
		"%x% %x% 'Y' &z",
		"%a%%b%",
		"glued&name5",
		"Line one\nLine two %n%",
		"%a%1 &b",
		"Hello %name%0 and &team",
	}
	for _, text := range texts {
		masked, tokens := m.Mask(text)
		got, lost := m.Unmask(masked, tokens)
		if got != text {
			t.Errorf("round trip %q -> %q", text, got)
		}
		if len(lost) != 0 {
			t.Errorf("round trip %q lost %v", text, lost)
		}
	}
}

func TestUnmask_CaseAndSpacing(t *testing.T) {
	m := MustNew()
	_, tokens := m.Mask("Hello %name%, 'Friend'")
	got, lost := m.Unmask("Ciao Placeholder 0, placeholder1", tokens)
	if got != "Ciao %name%, 'Friend'" {
		t.Errorf("Unmask = %q", got)
	}
	if len(lost) != 0 {
		t.Errorf("lost = %v", lost)
	}
}

func TestUnmask_DoesNotConfuseTwoDigitIDs(t *testing.T) {
	m := MustNew()
	var parts []string
	for i := 0; i < 11; i++ {
		parts = append(parts, "&v"+string(rune('a'+i)))
	}
	text := strings.Join(parts, " ")
	masked, tokens := m.Mask(text)
	if !strings.Contains(masked, "PLACEHOLDER10") {
		t.Fatalf("masked = %q", masked)
	}
	got, _ := m.Unmask(masked, tokens)
	if got != text {
		t.Errorf("Unmask = %q, want %q", got, text)
	}
}

func TestUnmask_StandInWords(t *testing.T) {
	m := MustNew()
	_, tokens := m.Mask("%user% sent 'Gift' to &friend")
	// The translator replaced every id with its generic stand-in.
	got, lost := m.Unmask("Something ha inviato someone a PLACEHOLDER", tokens)
	if got != "%user% ha inviato &friend a 'Gift'" {
		t.Errorf("Unmask = %q", got)
	}
	if len(lost) != 0 {
		t.Errorf("lost = %v", lost)
	}
}

func TestUnmask_StandInOnlyForMissingIDs(t *testing.T) {
	m := MustNew()
	_, tokens := m.Mask("Do %action% now")
	got, _ := m.Unmask("Fai something PLACEHOLDER0 ora", tokens)
	if got != "Fai something %action% ora" {
		t.Errorf("Unmask = %q", got)
	}
}

func TestUnmask_ReportsLoss(t *testing.T) {
	m := MustNew()
	_, tokens := m.Mask("%a% and %b%")
	got, lost := m.Unmask("solo PLACEHOLDER1", tokens)
	if got != "solo %b%" {
		t.Errorf("Unmask = %q", got)
	}
	if len(lost) != 1 || lost[0].Original != "%a%" {
		t.Errorf("lost = %v, want [%%a%%]", lost)
	}
}

func TestUnmask_IgnoresUnknownIDs(t *testing.T) {
	m := MustNew()
	_, tokens := m.Mask("%a%")
	got, _ := m.Unmask("PLACEHOLDER0 PLACEHOLDER7", tokens)
	if got != "%a% PLACEHOLDER7" {
		t.Errorf("Unmask = %q", got)
	}
}

func TestCollapseNewlines(t *testing.T) {
	if got := CollapseNewlines("one line", "una\nriga"); got != "una riga" {
		t.Errorf("got %q", got)
	}
	if got := CollapseNewlines("two\nlines", "due\nrighe"); got != "due\nrighe" {
		t.Errorf("got %q", got)
	}
}
