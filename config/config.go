// Package config loads yamltr settings.
//
// Settings are layered, later layers winning:
//
//  1. built-in defaults (Default)
//  2. a project config file: .yamltr.yaml, .yamltr.yml or .yamltr.toml
//  3. a .env file and YAMLTR_* environment variables (process env wins
//     over .env)
//  4. command-line flags (see Flags)
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ccrisc/yaml-traslator/langmeta"
	"github.com/ccrisc/yaml-traslator/placeholder"
	"github.com/ccrisc/yaml-traslator/progress"
	"github.com/ccrisc/yaml-traslator/translate"
)

// FileNames are the config file names looked up in the project root, in
// order.
var FileNames = []string{".yamltr.yaml", ".yamltr.yml", ".yamltr.toml"}

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "YAMLTR_"

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

// Config holds every recognised setting.
type Config struct {
	SourceLanguage string `yaml:"source_language,omitempty" toml:"source_language,omitempty"`
	TargetLanguage string `yaml:"target_language,omitempty" toml:"target_language,omitempty"`

	InputPath    string `yaml:"input_path,omitempty" toml:"input_path,omitempty"`
	OutputPath   string `yaml:"output_path,omitempty" toml:"output_path,omitempty"`
	ProgressPath string `yaml:"progress_path,omitempty" toml:"progress_path,omitempty"`

	Workers                int     `yaml:"worker_count,omitempty" toml:"worker_count,omitempty"`
	RetryLimit             int     `yaml:"retry_limit" toml:"retry_limit"`
	RetryPauseSeconds      float64 `yaml:"retry_pause_seconds" toml:"retry_pause_seconds"`
	RequestIntervalSeconds float64 `yaml:"request_interval_seconds" toml:"request_interval_seconds"`

	// Backend is one of translate.ProviderIDs().
	Backend        string  `yaml:"backend,omitempty" toml:"backend,omitempty"`
	Model          string  `yaml:"model,omitempty" toml:"model,omitempty"`
	BaseURL        string  `yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	APIKey         string  `yaml:"api_key,omitempty" toml:"api_key,omitempty"`
	Proxy          string  `yaml:"proxy,omitempty" toml:"proxy,omitempty"`
	TimeoutSeconds float64 `yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"`

	// PlaceholderPatterns replaces the default masking patterns when set.
	PlaceholderPatterns []string `yaml:"placeholder_patterns,omitempty" toml:"placeholder_patterns,omitempty"`
	// Retranslate ignores the progress file.
	Retranslate bool `yaml:"retranslate,omitempty" toml:"retranslate,omitempty"`

	// File is the config file that was loaded, if any.
	File string `yaml:"-" toml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		SourceLanguage:         "it",
		TargetLanguage:         "en",
		InputPath:              "it.yml",
		OutputPath:             "en.yml",
		ProgressPath:           progress.DefaultFileName,
		Workers:                translate.DefaultWorkers,
		RetryLimit:             translate.DefaultRetryLimit,
		RetryPauseSeconds:      translate.DefaultRetryPause.Seconds(),
		RequestIntervalSeconds: translate.DefaultRequestInterval.Seconds(),
		Backend:                translate.ProviderGoogle,
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load builds the configuration for rootDir. configPath selects a config
// file explicitly; when empty the FileNames are tried in rootDir and a
// missing file is not an error. Flags are applied separately.
func Load(rootDir, configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		configPath = FindFile(rootDir)
	}
	if configPath != "" {
		if err := cfg.loadFile(configPath); err != nil {
			return nil, err
		}
	}

	dotenv, err := readDotEnv(filepath.Join(rootDir, ".env"))
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(envLookup(dotenv)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindFile returns the first config file present in rootDir, or "".
func FindFile(rootDir string) string {
	for _, name := range FileNames {
		path := filepath.Join(rootDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty file decodes to io.EOF; keep the defaults.
		if err := dec.Decode(c); err != nil && len(bytes.TrimSpace(data)) > 0 {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	c.File = path
	return nil
}

func readDotEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vars, nil
}

// envLookup checks the process environment first, then .env values.
func envLookup(dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SOURCE_LANGUAGE": &c.SourceLanguage,
		"TARGET_LANGUAGE": &c.TargetLanguage,
		"INPUT_PATH":      &c.InputPath,
		"OUTPUT_PATH":     &c.OutputPath,
		"PROGRESS_PATH":   &c.ProgressPath,
		"BACKEND":         &c.Backend,
		"MODEL":           &c.Model,
		"BASE_URL":        &c.BaseURL,
		"API_KEY":         &c.APIKey,
		"PROXY":           &c.Proxy,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WORKER_COUNT": &c.Workers,
		"RETRY_LIMIT":  &c.RetryLimit,
	}
	for name, dst := range ints {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"RETRY_PAUSE_SECONDS":      &c.RetryPauseSeconds,
		"REQUEST_INTERVAL_SECONDS": &c.RequestIntervalSeconds,
		"TIMEOUT_SECONDS":          &c.TimeoutSeconds,
	}
	for name, dst := range floats {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = f
		}
	}

	if v, ok := lookup(EnvPrefix + "RETRANSLATE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sRETRANSLATE: %w", EnvPrefix, err)
		}
		c.Retranslate = b
	}
	return nil
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate checks the settings and normalises language codes.
func (c *Config) Validate() error {
	var errs []error

	if c.SourceLanguage != "auto" {
		tag, err := langmeta.Parse(c.SourceLanguage)
		if err != nil {
			errs = append(errs, fmt.Errorf("source_language %q: %w", c.SourceLanguage, err))
		} else {
			c.SourceLanguage = tag.String()
		}
	}
	if tag, err := langmeta.Parse(c.TargetLanguage); err != nil {
		errs = append(errs, fmt.Errorf("target_language %q: %w", c.TargetLanguage, err))
	} else {
		c.TargetLanguage = tag.String()
	}
	if c.SourceLanguage == c.TargetLanguage {
		errs = append(errs, fmt.Errorf("source and target language are both %q", c.TargetLanguage))
	}

	if c.InputPath == "" {
		errs = append(errs, errors.New("input_path is empty"))
	}
	if c.OutputPath == "" {
		errs = append(errs, errors.New("output_path is empty"))
	}
	if c.InputPath != "" && filepath.Clean(c.InputPath) == filepath.Clean(c.OutputPath) {
		errs = append(errs, fmt.Errorf("output_path must differ from input_path (%s)", c.InputPath))
	}
	if c.ProgressPath == "" {
		errs = append(errs, errors.New("progress_path is empty"))
	}

	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("worker_count must be at least 1, got %d", c.Workers))
	}
	if c.RetryLimit < 0 {
		errs = append(errs, fmt.Errorf("retry_limit must not be negative, got %d", c.RetryLimit))
	}
	if c.RetryPauseSeconds < 0 || c.RequestIntervalSeconds < 0 || c.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}

	if _, ok := translate.DefaultProviders()[c.Backend]; !ok {
		errs = append(errs, fmt.Errorf("unknown backend %q (available: %s)", c.Backend, strings.Join(translate.ProviderIDs(), ", ")))
	}
	if _, err := placeholder.New(c.PlaceholderPatterns...); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Provider returns the backend configuration. apiKey overrides APIKey when
// non-empty.
func (c *Config) Provider(apiKey string) translate.Provider {
	if apiKey == "" {
		apiKey = c.APIKey
	}
	return translate.Provider{
		ID:      c.Backend,
		BaseURL: c.BaseURL,
		APIKey:  apiKey,
		Model:   c.Model,
		Proxy:   c.Proxy,
		Timeout: seconds(c.TimeoutSeconds),
	}
}

// ClientOptions returns pacing and retry settings.
func (c *Config) ClientOptions() translate.ClientOptions {
	return translate.ClientOptions{
		RequestInterval: seconds(c.RequestIntervalSeconds),
		RetryLimit:      c.RetryLimit,
		RetryPause:      seconds(c.RetryPauseSeconds),
	}
}

// Masker compiles the placeholder patterns.
func (c *Config) Masker() (*placeholder.Masker, error) {
	return placeholder.New(c.PlaceholderPatterns...)
}

// Task returns the file task for the configured paths and languages.
func (c *Config) Task() translate.FileTask {
	return translate.FileTask{
		SourcePath: c.InputPath,
		OutputPath: c.OutputPath,
		SourceLang: c.SourceLanguage,
		TargetLang: c.TargetLanguage,
	}
}

// Marshal renders the settings as YAML, for "yamltr config" style output.
func (c *Config) Marshal() ([]byte, error) {
	out := *c
	if out.APIKey != "" {
		out.APIKey = "********"
	}
	return yaml.Marshal(&out)
}
