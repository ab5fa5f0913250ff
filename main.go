// yamltr translates YAML localization files while keeping placeholders
// intact and resuming interrupted runs.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ccrisc/yaml-traslator/config"
	"github.com/ccrisc/yaml-traslator/i18n"
	"github.com/ccrisc/yaml-traslator/langmeta"
	"github.com/ccrisc/yaml-traslator/lockfile"
	"github.com/ccrisc/yaml-traslator/progress"
	"github.com/ccrisc/yaml-traslator/settings"
	"github.com/ccrisc/yaml-traslator/translate"
	"github.com/ccrisc/yaml-traslator/tree"
	"github.com/ccrisc/yaml-traslator/yamlfile"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes.
const (
	exitError       = 1
	exitRateLimited = 2
)

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
)

// stderr is where every human-facing line goes; stdout is kept for
// machine-readable output (config, dry-run listings).
var stderr io.Writer = os.Stderr

func logInfo(format string, args ...any) {
	fmt.Fprintf(stderr, "%s %s\n", blue("[INFO]"), fmt.Sprintf(format, args...))
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(stderr, "%s %s\n", green("[OK]"), fmt.Sprintf(format, args...))
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(stderr, "%s %s\n", yellow("[WARN]"), fmt.Sprintf(format, args...))
}

func logError(format string, args ...any) {
	fmt.Fprintf(stderr, "%s %s\n", red("[ERROR]"), fmt.Sprintf(format, args...))
}

// logger receives the structured events of a translation run. It is
// replaced in setupLogging once the flags are parsed.
var logger = zerolog.Nop()

func setupLogging() {
	if noColor {
		color.NoColor = true
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: stderr, NoColor: color.NoColor, TimeFormat: time.TimeOnly}
	logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
	verbose    bool
	noColor    bool
	uiLang     string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "yamltr",
		Short: i18n.T("Translate YAML localization files"),
		Long: `yamltr translates a YAML localization file (for example it.yml) into
another language, writing a file with the same structure (for example en.yml).

Placeholders such as %name%, &count or 'Brand' are masked before the text
is sent and restored afterwards. Every translated key is recorded in a
progress file, so an interrupted or rate-limited run resumes where it
stopped.

Commands:
  translate   Translate the source file
  status      Show entry counts and progress coverage
  reset       Delete the progress file
  config      Print the effective settings
  auth        Manage backend API keys

Backends:
  google         Google Translate free endpoint (default, no key)
  google-cloud   Google Cloud Translation v2, API key
  openai         OpenAI-compatible chat API (OpenAI, Groq, Ollama...), API key
  echo           Returns the text unchanged (offline checks)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if uiLang != "" {
				i18n.Init(uiLang)
			}
			setupLogging()
		},
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: .yamltr.yaml/.yml/.toml in the root)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed logging")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().StringVar(&uiLang, "ui-lang", "", "Language of yamltr's own messages (default: from the locale; available: "+strings.Join(i18n.Available(), ", ")+")")

	root.AddCommand(
		newTranslateCmd(),
		newStatusCmd(),
		newResetCmd(),
		newConfigCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	if errors.Is(err, translate.ErrRateLimited) {
		logError(i18n.T("Stopped: the backend is rate limiting requests (%v)"), err)
		logInfo(i18n.T("Progress is saved. Run the same command later to resume."))
		os.Exit(exitRateLimited)
	}
	logError("%v", err)
	os.Exit(exitError)
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("yamltr version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Shared config loading
// ---------------------------------------------------------------------------

// loadConfig layers file, environment and flags, validates the result and
// resolves relative paths against --root.
func loadConfig(flags *config.Flags) (*config.Config, error) {
	cfg, err := config.Load(rootDir, configPath)
	if err != nil {
		return nil, err
	}
	if flags != nil {
		flags.Apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	cfg.InputPath = underRoot(cfg.InputPath)
	cfg.OutputPath = underRoot(cfg.OutputPath)
	cfg.ProgressPath = underRoot(cfg.ProgressPath)
	return cfg, nil
}

func underRoot(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

// loadProgress reads the progress file; a broken file is reported and
// replaced by an empty record.
func loadProgress(path string) *progress.Record {
	rec, err := progress.Load(path)
	if err != nil {
		logWarning(i18n.T("Ignoring progress file: %v"), err)
	}
	return rec
}

func loadSource(cfg *config.Config) (*tree.Map, error) {
	doc, err := yamlfile.ParseFile(cfg.InputPath, cfg.SourceLanguage)
	if err != nil {
		return nil, fmt.Errorf("loading source: %w", err)
	}
	src, err := doc.Tree()
	if err != nil {
		return nil, fmt.Errorf("loading source: %w", err)
	}
	return src, nil
}

// ---------------------------------------------------------------------------
// Source checksums (.yamltr.lock)
// ---------------------------------------------------------------------------

func loadLock() *lockfile.LockFile {
	lock, err := lockfile.Load(rootDir)
	if err != nil {
		logWarning(i18n.T("Ignoring lock file: %v"), err)
	}
	return lock
}

// lockTarget returns the checksums of the configured output file, named
// relative to --root.
func lockTarget(cfg *config.Config, lock *lockfile.LockFile) *lockfile.Target {
	rel, err := filepath.Rel(rootDir, cfg.OutputPath)
	if err != nil {
		rel = cfg.OutputPath
	}
	return lock.Target(rel)
}

// requeueChanged removes from the progress record every key whose source
// text changed since it was translated, so the next run sends it again.
func requeueChanged(src *tree.Map, rec *progress.Record, target *lockfile.Target) (int, error) {
	flat, err := tree.Flatten(src)
	if err != nil {
		return 0, err
	}

	changed := make(map[string]bool)
	for _, e := range flat {
		if rec.Has(e.Key) && target.IsChanged(e.Key, e.Value) {
			changed[e.Key] = true
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}

	var keep, dropped []string
	for _, k := range rec.Keys() {
		if changed[k] {
			dropped = append(dropped, k)
		} else {
			keep = append(keep, k)
		}
	}
	rec.Clean(keep)
	target.Forget(dropped...)
	return len(dropped), rec.Save()
}

// recordChecksums stores the source checksum of every entry translated in
// this run, and of recorded entries that predate the lock file.
func recordChecksums(res *translate.Result, lock *lockfile.LockFile, target *lockfile.Target) {
	keys := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		keys = append(keys, e.Key)
		switch {
		case e.State == translate.StateDone:
			target.Update(e.Key, e.Source)
		case e.Note == translate.NoteRecorded && !target.Known(e.Key):
			target.Update(e.Key, e.Source)
		}
	}
	target.Clean(keys)
	if err := lock.Save(); err != nil {
		logWarning(i18n.T("Could not save %s: %v"), lock.Path(), err)
	}
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateArgs struct {
	apiKey     string
	dryRun     bool
	noProgress bool
	reset      bool
	changed    bool
}

func newTranslateCmd() *cobra.Command {
	var (
		flags *config.Flags
		a     translateArgs
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: i18n.T("Translate the source YAML file"),
		Long: `Translate every string of the source file into the target language.

Keys already listed in the progress file are skipped and keep the text of
the existing output file. If the backend starts rate limiting, the run stops,
the partial output is written and the command exits with code 2; running it
again continues from there.

Examples:
  # it.yml -> en.yml with the free Google endpoint
  yamltr translate

  # German output through an OpenAI-compatible API
  yamltr translate --to de -o de.yml --backend openai --model gpt-4o-mini

  # Show what would be sent, without calling any backend
  yamltr translate --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd.Context(), flags, a)
		},
	}

	flags = config.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "API key (or YAMLTR_API_KEY env var)")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "List what would be translated without calling the backend")
	cmd.Flags().BoolVar(&a.noProgress, "no-progress", false, "Hide the progress bar")
	cmd.Flags().BoolVar(&a.reset, "reset", false, "Delete the progress file before starting")
	cmd.Flags().BoolVar(&a.changed, "changed", false, "Also re-translate keys whose source text changed since they were translated")

	_ = cmd.RegisterFlagCompletionFunc("backend", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		providers := translate.DefaultProviders()
		out := make([]string, 0, len(providers))
		for _, id := range translate.ProviderIDs() {
			out = append(out, fmt.Sprintf("%s\t%s", id, providers[id].Name))
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runTranslate(ctx context.Context, flags *config.Flags, a translateArgs) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	masker, err := cfg.Masker()
	if err != nil {
		return err
	}

	runLog := logger.With().Str("run", uuid.NewString()).Logger()
	runLog.Debug().
		Str("input", cfg.InputPath).
		Str("output", cfg.OutputPath).
		Str("from", cfg.SourceLanguage).
		Str("to", cfg.TargetLanguage).
		Str("backend", cfg.Backend).
		Int("workers", cfg.Workers).
		Msg("starting")

	rec := loadProgress(cfg.ProgressPath)
	lock := loadLock()
	target := lockTarget(cfg, lock)

	opts := translate.Options{
		Workers:     cfg.Workers,
		Retranslate: cfg.Retranslate,
		Masker:      masker,
		Progress:    rec,
		OnLog: func(format string, args ...any) {
			runLog.Debug().Msgf(format, args...)
		},
		OnWarn: func(format string, args ...any) {
			runLog.Warn().Msgf(format, args...)
		},
		OnError: func(format string, args ...any) {
			runLog.Error().Msgf(format, args...)
		},
	}

	// A dry run never touches the progress or lock files.
	if a.dryRun {
		return runDryRun(cfg, opts)
	}

	if a.reset {
		if err := rec.Reset(); err != nil {
			return err
		}
		target.Remove()
		logInfo(i18n.T("Progress file %s removed"), cfg.ProgressPath)
	}
	if a.changed && !cfg.Retranslate {
		src, err := loadSource(cfg)
		if err != nil {
			return err
		}
		n, err := requeueChanged(src, rec, target)
		if err != nil {
			return err
		}
		if n > 0 {
			logInfo(i18n.N("%d changed entry queued again", "%d changed entries queued again", n), n)
		}
	}

	prov := cfg.Provider(settings.ResolveAPIKey(cfg.Backend, a.apiKey, cfg.APIKey))
	if prov.BaseURL == "" {
		prov.BaseURL = settings.GetBaseURL(cfg.Backend)
	}
	backend, err := translate.NewBackend(prov, cfg.SourceLanguage, cfg.TargetLanguage)
	if err != nil {
		if translate.NeedsAPIKey(cfg.Backend) {
			return fmt.Errorf("%w\n\n"+
				"Option 1: store a key:   yamltr auth set %s\n"+
				"Option 2: pass it:       --api-key KEY or export YAMLTR_API_KEY=KEY",
				err, cfg.Backend)
		}
		return err
	}

	clientOpts := cfg.ClientOptions()
	clientOpts.OnWarn = opts.OnWarn
	client := translate.NewClient(backend, clientOpts)

	logInfo(i18n.T("Translating %s (%s) -> %s (%s) with %s"),
		cfg.InputPath, langmeta.Label(cfg.SourceLanguage),
		cfg.OutputPath, langmeta.Label(cfg.TargetLanguage), backend.Name())

	bar := &progressReporter{desc: filepath.Base(cfg.OutputPath)}
	if !a.noProgress && !verbose {
		opts.OnProgress = bar.update
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	res, err := translate.TranslateFile(ctx, cfg.Task(), client, opts)
	bar.finish()
	if res != nil {
		recordChecksums(res, lock, target)
		printSummary(res, time.Since(start))
		runLog.Info().
			Str("state", res.State.String()).
			Int("done", res.Counts.Done).
			Int("fallback", res.Counts.Fallback).
			Int("failed", res.Counts.Failed).
			Msg("finished")
	}

	switch {
	case err == nil:
		logSuccess(i18n.T("Wrote %s"), cfg.OutputPath)
		return nil
	case errors.Is(err, context.Canceled):
		logWarning(i18n.T("Interrupted, partial progress saved"))
		return err
	default:
		return err
	}
}

// progressReporter drives the progress bar from the worker goroutines. The
// bar is created on the first update, when the total is known.
type progressReporter struct {
	desc string

	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	shown int
}

func (p *progressReporter) update(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		p.bar = newProgressBar(total, p.desc)
	}
	// Workers report out of order; the bar only moves forward.
	if done > p.shown {
		p.shown = done
		_ = p.bar.Set(done)
	}
}

func (p *progressReporter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		fmt.Fprintln(stderr)
	}
}

func newProgressBar(total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionEnableColorCodes(!color.NoColor),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", desc)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func printSummary(res *translate.Result, elapsed time.Duration) {
	c := res.Counts
	logInfo(i18n.T("%d translated (%d kept in the source language), %d skipped, %d failed, %d not started in %s"),
		c.Done, c.Fallback, c.Skipped, c.Failed, c.Pending, elapsed.Round(time.Millisecond))

	lost := 0
	for _, e := range res.Entries {
		if len(e.Lost) > 0 {
			lost++
		}
	}
	if lost > 0 {
		logWarning(i18n.N("%d entry lost placeholders, check it by hand",
			"%d entries lost placeholders, check them by hand", lost), lost)
	}
}

// runDryRun lists the pending entries and the masked text each would send.
func runDryRun(cfg *config.Config, opts translate.Options) error {
	src, err := loadSource(cfg)
	if err != nil {
		return err
	}
	entries, err := translate.Plan(src, opts)
	if err != nil {
		return err
	}

	pending := 0
	for _, e := range entries {
		if e.State != translate.StatePending {
			continue
		}
		pending++
		masked, tokens := opts.Masker.Mask(e.Source)
		fmt.Printf("%s: %s\n", e.Key, masked)
		if verbose && len(tokens) > 0 {
			for _, tok := range tokens {
				fmt.Printf("    %s = %s\n", tok.ID, tok.Original)
			}
		}
	}
	logInfo(i18n.N("Dry run: %d entry would be translated, %d in total",
		"Dry run: %d entries would be translated, %d in total", pending), pending, len(entries))
	return nil
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	var flags *config.Flags
	cmd := &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show entry counts and progress coverage"),
		Long: `Show the configured files and languages, how many entries the source
file has, and how many of them the progress file already covers. Does not
modify any files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runStatus(cfg)
		},
	}
	flags = config.RegisterFlags(cmd.Flags())
	return cmd
}

func runStatus(cfg *config.Config) error {
	fmt.Fprintf(stderr, "\n%s\n", cyan(i18n.T("Project")))
	fmt.Fprintln(stderr, strings.Repeat("─", 60))

	absRoot, _ := filepath.Abs(rootDir)
	fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Root:"), absRoot)
	if cfg.File != "" {
		fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Config:"), cfg.File)
	}
	fmt.Fprintf(stderr, "  %-12s %s  %s\n", i18n.T("Source:"), cfg.InputPath, langmeta.Label(cfg.SourceLanguage))
	fmt.Fprintf(stderr, "  %-12s %s  %s\n", i18n.T("Output:"), cfg.OutputPath, langmeta.Label(cfg.TargetLanguage))
	fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Progress:"), cfg.ProgressPath)
	fmt.Fprintf(stderr, "  %-12s %s\n", i18n.T("Backend:"), cfg.Backend)
	fmt.Fprintln(stderr)

	src, err := loadSource(cfg)
	if err != nil {
		return err
	}
	rec := loadProgress(cfg.ProgressPath)
	lock := loadLock()
	target := lockTarget(cfg, lock)
	entries, err := translate.Plan(src, translate.Options{Progress: rec})
	if err != nil {
		return err
	}

	var recorded, changed, empty, pending int
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
		switch {
		case e.Note == translate.NoteRecorded:
			recorded++
			if target.IsChanged(e.Key, e.Source) {
				changed++
			}
		case e.Note == translate.NoteEmpty:
			empty++
		case e.State == translate.StatePending:
			pending++
		}
	}
	total := len(entries)
	percent := 0
	if total > 0 {
		percent = (recorded + empty) * 100 / total
	}

	fmt.Fprintf(stderr, "%s\n", cyan(i18n.T("Translation Statistics")))
	fmt.Fprintln(stderr, strings.Repeat("─", 60))
	fmt.Fprintf(stderr, "\n%-10s %-12s %-10s %-10s %-10s %-8s\n", "Entries", "Translated", "Changed", "Empty", "Pending", "Percent")
	fmt.Fprintln(stderr, strings.Repeat("─", 63))
	changedCell := fmt.Sprintf("%-10d", changed)
	if changed > 0 {
		changedCell = yellow(changedCell)
	}
	pendingCell := fmt.Sprintf("%-10d", pending)
	if pending > 0 {
		pendingCell = yellow(pendingCell)
	}
	fmt.Fprintf(stderr, "%-10d %-12d %s %-10d %s %d%%\n", total, recorded, changedCell, empty, pendingCell, percent)
	fmt.Fprintln(stderr, strings.Repeat("─", 63))
	if verbose {
		fmt.Fprintf(stderr, "%s %s\n", i18n.T("Checksums:"), lock.Summary())
	}

	if stale := rec.Len() - rec.Coverage(keys); stale > 0 {
		logWarning(i18n.N("%d key in the progress file is no longer in the source",
			"%d keys in the progress file are no longer in the source", stale), stale)
	}

	fmt.Fprintln(stderr)
	switch {
	case pending == 0 && changed > 0:
		logInfo(i18n.T("Next: yamltr translate --changed"))
	case pending == 0:
		logSuccess(i18n.T("Everything is translated"))
	case rec.Len() == 0:
		logInfo(i18n.T("Next: yamltr translate"))
	default:
		logInfo(i18n.T("Next: yamltr translate (resumes from the progress file)"))
	}
	return nil
}

// ---------------------------------------------------------------------------
// reset
// ---------------------------------------------------------------------------

func newResetCmd() *cobra.Command {
	var (
		flags *config.Flags
		prune bool
	)
	cmd := &cobra.Command{
		Use:   "reset",
		Short: i18n.T("Delete the progress file"),
		Long: `Delete the progress file so the next run translates every entry again.

With --prune, only keys that no longer exist in the source file are dropped
and the rest of the progress is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			rec := loadProgress(cfg.ProgressPath)
			lock := loadLock()
			if prune {
				return runPrune(cfg, rec, lock)
			}
			if err := rec.Reset(); err != nil {
				return err
			}
			lockTarget(cfg, lock).Remove()
			if err := lock.Save(); err != nil {
				return err
			}
			logSuccess(i18n.T("Progress file %s removed"), cfg.ProgressPath)
			return nil
		},
	}
	flags = config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&prune, "prune", false, "Only drop keys missing from the source file")
	return cmd
}

func runPrune(cfg *config.Config, rec *progress.Record, lock *lockfile.LockFile) error {
	src, err := loadSource(cfg)
	if err != nil {
		return err
	}
	entries, err := translate.Plan(src, translate.Options{})
	if err != nil {
		return err
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}

	if lockTarget(cfg, lock).Clean(keys) > 0 {
		if err := lock.Save(); err != nil {
			return err
		}
	}

	removed := rec.Clean(keys)
	if removed == 0 {
		logInfo(i18n.T("Nothing to prune"))
		return nil
	}
	if err := rec.Save(); err != nil {
		return err
	}
	logSuccess(i18n.N("Removed %d stale key", "Removed %d stale keys", removed), removed)
	return nil
}

// ---------------------------------------------------------------------------
// config
// ---------------------------------------------------------------------------

func newConfigCmd() *cobra.Command {
	var flags *config.Flags
	cmd := &cobra.Command{
		Use:   "config",
		Short: i18n.T("Print the effective settings"),
		Long: `Print the settings after applying the config file, .env, YAMLTR_*
environment variables and flags. The output is valid .yamltr.yaml content;
the API key is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			out, err := cfg.Marshal()
			if err != nil {
				return err
			}
			if cfg.File != "" {
				fmt.Printf("# %s\n", cfg.File)
			}
			_, err = os.Stdout.Write(out)
			return err
		},
	}
	flags = config.RegisterFlags(cmd.Flags())
	return cmd
}

// ---------------------------------------------------------------------------
// auth (set / remove / list)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: i18n.T("Manage backend API keys"),
		Long: `Manage API keys for the backends that need one.

Keys are stored in ` + settings.FilePath() + ` with 0600 permissions.
A key passed with --api-key or YAMLTR_API_KEY takes precedence.

Examples:
  yamltr auth set openai                    Prompt for an OpenAI key
  yamltr auth set openai --base-url https://api.groq.com/openai/v1
  yamltr auth set google-cloud --key KEY    Store a key non-interactively
  yamltr auth remove openai                 Remove one key
  yamltr auth remove                        Remove all keys
  yamltr auth list                          Show stored keys`,
	}

	cmd.AddCommand(
		newAuthSetCmd(),
		newAuthRemoveCmd(),
		newAuthListCmd(),
	)
	return cmd
}

func keyedBackends() []string {
	var ids []string
	for _, id := range translate.ProviderIDs() {
		if translate.NeedsAPIKey(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func completeKeyedBackends(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return keyedBackends(), cobra.ShellCompDirectiveNoFileComp
}

func newAuthSetCmd() *cobra.Command {
	var key, baseURL string
	cmd := &cobra.Command{
		Use:               "set BACKEND",
		Short:             i18n.T("Store an API key for a backend"),
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKeyedBackends,
		RunE: func(cmd *cobra.Command, args []string) error {
			return authSet(args[0], key, baseURL, os.Stdin)
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "API key (prompted for when omitted)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Custom endpoint for OpenAI-compatible APIs")
	return cmd
}

func authSet(backendID, key, baseURL string, in io.Reader) error {
	if !translate.NeedsAPIKey(backendID) {
		return fmt.Errorf("backend %q does not use an API key (keyed backends: %s)",
			backendID, strings.Join(keyedBackends(), ", "))
	}

	existing := settings.GetAPIKey(backendID)
	if key == "" {
		if existing != "" {
			fmt.Fprintf(stderr, "  %s %s\n", i18n.T("Current key:"), yellow(settings.MaskKey(existing)))
			fmt.Fprintf(stderr, "  %s", i18n.T("Enter new key to replace, or press Enter to keep: "))
		} else {
			fmt.Fprintf(stderr, "  %s", i18n.T("Enter API key: "))
		}
		scanner := bufio.NewScanner(in)
		if scanner.Scan() {
			key = strings.TrimSpace(scanner.Text())
		}
	}

	if key == "" {
		if existing == "" {
			return errors.New("no API key provided")
		}
		key = existing
		if baseURL == "" {
			logInfo(i18n.T("Keeping existing key"))
			return nil
		}
	}
	if baseURL == "" {
		baseURL = settings.GetBaseURL(backendID)
	}

	if err := settings.SetAPIKey(backendID, key, baseURL); err != nil {
		return fmt.Errorf("saving API key: %w", err)
	}
	logSuccess(i18n.T("%s API key saved"), backendID)
	return nil
}

func newAuthRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "remove [BACKEND]",
		Aliases:           []string{"rm", "logout"},
		Short:             i18n.T("Remove stored API keys"),
		Long:              `Remove the key of one backend, or every stored key when no backend is given.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeKeyedBackends,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logSuccess(i18n.T("All stored credentials removed"))
				return nil
			}
			found, err := settings.Remove(args[0])
			if err != nil {
				return err
			}
			if !found {
				logWarning(i18n.T("No key stored for %s"), args[0])
				return nil
			}
			logSuccess(i18n.T("%s credentials removed"), args[0])
			return nil
		},
	}
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   i18n.T("Show stored credentials"),
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stderr, "\n%s\n", cyan(i18n.T("Stored Credentials")))
			fmt.Fprintln(stderr, strings.Repeat("─", 60))

			store := settings.Load()
			for _, id := range keyedBackends() {
				info := store[id]
				if info == nil || info.Key == "" {
					fmt.Fprintf(stderr, "  %-14s %s\n", id, red(i18n.T("not configured")))
					continue
				}
				fmt.Fprintf(stderr, "  %-14s %s (key: %s)\n", id, green(i18n.T("configured")), settings.MaskKey(info.Key))
				if info.BaseURL != "" {
					fmt.Fprintf(stderr, "  %14s endpoint: %s\n", "", info.BaseURL)
				}
			}

			fmt.Fprintln(stderr)
			if envKey := os.Getenv(config.EnvPrefix + "API_KEY"); envKey != "" {
				fmt.Fprintf(stderr, "  %sAPI_KEY: %s (overrides stored keys)\n", config.EnvPrefix, green(settings.MaskKey(envKey)))
			} else {
				fmt.Fprintf(stderr, "  %sAPI_KEY: %s\n", config.EnvPrefix, red(i18n.T("not set")))
			}
			fmt.Fprintln(stderr)
		},
	}
}
