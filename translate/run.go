package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/ccrisc/yaml-traslator/placeholder"
	"github.com/ccrisc/yaml-traslator/progress"
	"github.com/ccrisc/yaml-traslator/tree"
)

// DefaultWorkers is the worker pool size when Options.Workers is unset.
const DefaultWorkers = 3

// ---------------------------------------------------------------------------
// States
// ---------------------------------------------------------------------------

// EntryState is the lifecycle state of one flattened entry.
type EntryState int

const (
	StatePending EntryState = iota
	StateInFlight
	StateDone
	StateSkipped
	StateFailed
)

func (s EntryState) String() string {
	switch s {
	case StateInFlight:
		return "in-flight"
	case StateDone:
		return "done"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// RunState is the overall outcome of a run.
type RunState int

const (
	RunRunning RunState = iota
	RunCompleted
	RunHaltedByRateLimit
	RunCanceled
)

func (s RunState) String() string {
	switch s {
	case RunCompleted:
		return "completed"
	case RunHaltedByRateLimit:
		return "halted-by-rate-limit"
	case RunCanceled:
		return "canceled"
	default:
		return "running"
	}
}

// ---------------------------------------------------------------------------
// Options and results
// ---------------------------------------------------------------------------

// Options configures a translation run.
type Options struct {
	// Workers is the number of concurrent workers (default 3).
	Workers int
	// Retranslate ignores the progress record and sends every entry.
	Retranslate bool
	// Masker protects placeholders. Nil means the default patterns.
	Masker *placeholder.Masker
	// Progress records completed keys. Nil means nothing is persisted and
	// every entry is pending.
	Progress *progress.Record
	// Previous is the existing output tree. Entries skipped because they
	// are already recorded take their text from it.
	Previous *tree.Map

	// OnProgress is called after each entry completes.
	OnProgress func(done, total int)
	// OnLog receives informational messages.
	OnLog func(format string, args ...any)
	// OnWarn receives non-fatal problems (lost placeholders, retries).
	OnWarn func(format string, args ...any)
	// OnError receives per-entry failures.
	OnError func(format string, args ...any)
}

func (o Options) effectiveWorkers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return DefaultWorkers
}

func (o Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o Options) warn(format string, args ...any) {
	if o.OnWarn != nil {
		o.OnWarn(format, args...)
	}
}

func (o Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	}
}

// Skip reasons reported in EntryResult.Note.
const (
	NoteEmpty    = "empty"
	NoteRecorded = "already translated"
)

// EntryResult is the outcome for one flattened entry.
type EntryResult struct {
	Key    string
	Source string
	// Text is the value written to the output: the translation, the
	// source on fallback, or the previous output for recorded entries.
	Text  string
	State EntryState
	// Note explains a skip.
	Note string
	// Fallback is set when the backend failed permanently and Text is the
	// untranslated source.
	Fallback bool
	// Reused is set when Text was carried over from the previous output.
	Reused bool
	// Lost lists placeholders that could not be restored.
	Lost []placeholder.Token
	Err  error
}

// Counts summarises entry states.
type Counts struct {
	Total    int
	Done     int
	Fallback int
	Skipped  int
	Failed   int
	Pending  int
}

// Result is the outcome of a run. Entries are in document order.
type Result struct {
	State   RunState
	Entries []EntryResult
	// Translated holds every Done entry plus reused recorded entries,
	// ready to be merged onto the source document.
	Translated *tree.Map
	Counts     Counts
}

// HaltError is returned when the backend rate-limited the run.
// errors.Is(err, ErrRateLimited) is true for it.
type HaltError struct {
	// Done is the number of entries completed before the halt.
	Done  int
	Cause error
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("translation halted after %d entries: %v", e.Done, e.Cause)
}

func (e *HaltError) Unwrap() error {
	return e.Cause
}

func (e *HaltError) Is(target error) bool {
	return target == ErrRateLimited
}

// ---------------------------------------------------------------------------
// Planning
// ---------------------------------------------------------------------------

// Plan flattens src and classifies every entry as Pending or Skipped
// without calling any backend.
func Plan(src *tree.Map, opts Options) ([]EntryResult, error) {
	flat, err := tree.Flatten(src)
	if err != nil {
		return nil, fmt.Errorf("flattening source: %w", err)
	}

	entries := make([]EntryResult, len(flat))
	for i, fe := range flat {
		e := EntryResult{Key: fe.Key, Source: fe.Value, State: StatePending}
		switch {
		case strings.TrimSpace(fe.Value) == "":
			e.State = StateSkipped
			e.Note = NoteEmpty
			e.Text = fe.Value
		case !opts.Retranslate && opts.Progress != nil && opts.Progress.Has(fe.Key):
			e.State = StateSkipped
			e.Note = NoteRecorded
			if opts.Previous != nil {
				if prev, ok := opts.Previous.GetString(fe.Key); ok {
					e.Text = prev
					e.Reused = true
				}
			}
		}
		entries[i] = e
	}
	return entries, nil
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

// Run translates every pending string leaf of src through client.
//
// A pool of workers takes one entry at a time: mask placeholders,
// translate, restore placeholders, record the key in the progress file.
// Permanent backend failures keep the source text and still count as done.
// A rate-limited answer cancels the run: no new entries are started,
// in-flight calls are abandoned and end as Failed, and Run returns a
// *HaltError. The Result is non-nil whenever the source could be
// flattened, including after a halt or cancellation.
func Run(ctx context.Context, src *tree.Map, client Translator, opts Options) (*Result, error) {
	entries, err := Plan(src, opts)
	if err != nil {
		return nil, err
	}

	masker := opts.Masker
	if masker == nil {
		masker = placeholder.MustNew()
	}

	var pending []int
	for i := range entries {
		if entries[i].State == StatePending {
			pending = append(pending, i)
		}
	}
	total := len(pending)
	opts.log("%d entries, %d to translate, %d skipped", len(entries), total, len(entries)-total)

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var done atomic.Int64
	runWorkers(runCtx, pending, opts.effectiveWorkers(), func(ctx context.Context, idx int) {
		e := &entries[idx]
		translateEntry(ctx, cancel, client, masker, e, opts)
		if e.State != StateDone {
			return
		}
		if opts.Progress != nil {
			if err := opts.Progress.Add(e.Key); err != nil {
				opts.logError("%s: saving progress: %v", e.Key, err)
			}
		}
		n := done.Add(1)
		if opts.OnProgress != nil {
			opts.OnProgress(int(n), total)
		}
	})

	res := &Result{Entries: entries}
	cause := context.Cause(runCtx)
	switch {
	case errors.Is(cause, ErrRateLimited):
		res.State = RunHaltedByRateLimit
	case ctx.Err() != nil:
		res.State = RunCanceled
	default:
		res.State = RunCompleted
	}

	res.Counts = countEntries(entries)
	if res.Translated, err = collect(entries); err != nil {
		return nil, err
	}

	opts.log("%s: %d translated (%d fallback), %d skipped, %d failed, %d not started",
		res.State, res.Counts.Done, res.Counts.Fallback, res.Counts.Skipped, res.Counts.Failed, res.Counts.Pending)

	switch res.State {
	case RunHaltedByRateLimit:
		return res, &HaltError{Done: res.Counts.Done, Cause: cause}
	case RunCanceled:
		return res, ctx.Err()
	}
	return res, nil
}

func translateEntry(ctx context.Context, halt context.CancelCauseFunc, client Translator, masker *placeholder.Masker, e *EntryResult, opts Options) {
	e.State = StateInFlight

	masked, tokens := masker.Mask(e.Source)
	out, err := client.Translate(ctx, masked)
	if err != nil {
		switch {
		case IsRateLimited(err):
			halt(err)
			e.State = StateFailed
			e.Err = err
			opts.logError("%s: %v", e.Key, err)
			return
		case ctx.Err() != nil:
			e.State = StateFailed
			e.Err = context.Cause(ctx)
			return
		}
		opts.logError("%s: %v; keeping the original text", e.Key, err)
		e.Text = e.Source
		e.Fallback = true
		e.Err = err
		e.State = StateDone
		return
	}

	text, lost := masker.Unmask(out, tokens)
	text = placeholder.CollapseNewlines(e.Source, text)
	if len(lost) > 0 {
		e.Lost = lost
		originals := make([]string, len(lost))
		for i, t := range lost {
			originals[i] = t.Original
		}
		opts.warn("%s: placeholders lost in translation: %s", e.Key, strings.Join(originals, ", "))
	}
	e.Text = text
	e.State = StateDone
}

func countEntries(entries []EntryResult) Counts {
	c := Counts{Total: len(entries)}
	for _, e := range entries {
		switch e.State {
		case StateDone:
			c.Done++
			if e.Fallback {
				c.Fallback++
			}
		case StateSkipped:
			c.Skipped++
		case StateFailed:
			c.Failed++
		default:
			c.Pending++
		}
	}
	return c
}

// collect builds the tree of values to write: the earlier translations of
// recorded entries, overlaid with the entries translated in this run.
func collect(entries []EntryResult) (*tree.Map, error) {
	var kept, fresh []tree.Entry
	for _, e := range entries {
		switch {
		case e.State == StateDone:
			fresh = append(fresh, tree.Entry{Key: e.Key, Value: e.Text})
		case e.Reused:
			kept = append(kept, tree.Entry{Key: e.Key, Value: e.Text})
		}
	}
	out, err := tree.Unflatten(kept)
	if err != nil {
		return nil, err
	}
	done, err := tree.Unflatten(fresh)
	if err != nil {
		return nil, err
	}
	tree.Merge(out, done)
	return out, nil
}
