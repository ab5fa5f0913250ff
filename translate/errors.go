package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ---------------------------------------------------------------------------
// Error classification
// ---------------------------------------------------------------------------

// Kind classifies a backend failure.
type Kind int

const (
	// KindPermanent failures are not retried; the entry falls back to its
	// source text.
	KindPermanent Kind = iota
	// KindTransient failures (network errors, timeouts) are retried up to
	// the retry limit.
	KindTransient
	// KindRateLimited failures stop the whole run.
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate-limited"
	default:
		return "permanent"
	}
}

var (
	// ErrRateLimited matches, via errors.Is, any error that halted a run
	// because the backend is throttling requests.
	ErrRateLimited = errors.New("rate limited by translation backend")
	// ErrRetriesExhausted is wrapped when every attempt failed transiently.
	ErrRetriesExhausted = errors.New("retries exhausted")
	// errEmptyTranslation is returned when the backend answers with nothing.
	errEmptyTranslation = errors.New("backend returned an empty translation")
)

// Error is a classified backend failure.
type Error struct {
	Kind       Kind
	Backend    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Backend != "" {
		b.WriteString(e.Backend)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrRateLimited) true for rate-limited errors.
func (e *Error) Is(target error) bool {
	return target == ErrRateLimited && e.Kind == KindRateLimited
}

// IsRateLimited reports whether err signals backend throttling.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// kindForStatus maps an HTTP status code to a failure kind. Backends in
// the Google family answer throttling with 429 or a bare 5xx.
func kindForStatus(code int) Kind {
	switch {
	case code == http.StatusTooManyRequests, code >= 500:
		return KindRateLimited
	case code == http.StatusRequestTimeout:
		return KindTransient
	default:
		return KindPermanent
	}
}

// statusError builds a classified error from an HTTP response status.
func statusError(backend string, code int, body string) *Error {
	return &Error{
		Kind:       kindForStatus(code),
		Backend:    backend,
		StatusCode: code,
		Err:        fmt.Errorf("%s", truncate(strings.TrimSpace(body), 300)),
	}
}

// classify turns any backend error into an *Error. Errors that are already
// classified pass through unchanged.
func classify(backend string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "server error") || strings.Contains(msg, "too many requests") {
		return &Error{Kind: KindRateLimited, Backend: backend, Err: err}
	}

	var netErr net.Error
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &netErr),
		errors.As(err, &urlErr):
		return &Error{Kind: KindTransient, Backend: backend, Err: err}
	}

	return &Error{Kind: KindPermanent, Backend: backend, Err: err}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
