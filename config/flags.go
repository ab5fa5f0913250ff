package config

import (
	"github.com/spf13/pflag"
)

// Flags holds command-line overrides. Only flags the user actually set are
// applied, so unset flags never mask file or environment values.
type Flags struct {
	fs *pflag.FlagSet

	source, target                 string
	input, output, progress        string
	workers, retryLimit            int
	retryPause, interval, timeout  float64
	backend, model, baseURL, proxy string
	patterns                       []string
	retranslate                    bool
}

// RegisterFlags defines the override flags on fs. Flag defaults shown in
// help are the built-in defaults.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	d := Default()
	f := &Flags{fs: fs}
	fs.StringVar(&f.source, "from", d.SourceLanguage, "source language code, or auto")
	fs.StringVar(&f.target, "to", d.TargetLanguage, "target language code")
	fs.StringVarP(&f.input, "input", "i", d.InputPath, "source YAML file")
	fs.StringVarP(&f.output, "output", "o", d.OutputPath, "translated YAML file")
	fs.StringVar(&f.progress, "progress", d.ProgressPath, "progress file")
	fs.IntVarP(&f.workers, "workers", "w", d.Workers, "concurrent translation workers")
	fs.IntVar(&f.retryLimit, "retry-limit", d.RetryLimit, "retries after a transient failure")
	fs.Float64Var(&f.retryPause, "retry-pause", d.RetryPauseSeconds, "seconds to wait before a retry")
	fs.Float64Var(&f.interval, "interval", d.RequestIntervalSeconds, "minimum seconds between requests")
	fs.Float64Var(&f.timeout, "timeout", 0, "request timeout in seconds (0 = backend default)")
	fs.StringVarP(&f.backend, "backend", "b", d.Backend, "translation backend")
	fs.StringVar(&f.model, "model", "", "model for LLM backends")
	fs.StringVar(&f.baseURL, "base-url", "", "backend API base URL")
	fs.StringVar(&f.proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	fs.StringArrayVar(&f.patterns, "pattern", nil, "placeholder regexp (repeatable, replaces the defaults)")
	fs.BoolVar(&f.retranslate, "retranslate", false, "ignore the progress file and translate everything")
	return f
}

// Apply copies every flag the user set onto c.
func (f *Flags) Apply(c *Config) {
	set := func(name string) bool { return f.fs.Changed(name) }

	if set("from") {
		c.SourceLanguage = f.source
	}
	if set("to") {
		c.TargetLanguage = f.target
	}
	if set("input") {
		c.InputPath = f.input
	}
	if set("output") {
		c.OutputPath = f.output
	}
	if set("progress") {
		c.ProgressPath = f.progress
	}
	if set("workers") {
		c.Workers = f.workers
	}
	if set("retry-limit") {
		c.RetryLimit = f.retryLimit
	}
	if set("retry-pause") {
		c.RetryPauseSeconds = f.retryPause
	}
	if set("interval") {
		c.RequestIntervalSeconds = f.interval
	}
	if set("timeout") {
		c.TimeoutSeconds = f.timeout
	}
	if set("backend") {
		c.Backend = f.backend
	}
	if set("model") {
		c.Model = f.model
	}
	if set("base-url") {
		c.BaseURL = f.baseURL
	}
	if set("proxy") {
		c.Proxy = f.proxy
	}
	if set("pattern") {
		c.PlaceholderPatterns = f.patterns
	}
	if set("retranslate") {
		c.Retranslate = f.retranslate
	}
}
