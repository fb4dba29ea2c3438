// Package config loads the patclust configuration from defaults, the user
// configuration file, an explicit configuration file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/patclust/internal/clustering"
	apperrors "github.com/Aman-CERP/patclust/internal/errors"
	"github.com/Aman-CERP/patclust/internal/multigrep"
	"github.com/Aman-CERP/patclust/internal/pa"
	"github.com/Aman-CERP/patclust/internal/patterns"
	"github.com/Aman-CERP/patclust/internal/store"
	"github.com/Aman-CERP/patclust/internal/watch"
)

// Config is the complete patclust configuration. Threshold and Patterns sit
// at the top level so that a file holding only
//
//	{"threshold": 0.6, "patterns": ["int", "spaces"]}
//
// is a valid configuration.
type Config struct {
	Version int `yaml:"version" json:"version"`

	// Threshold is the normalized distance below which a line joins a
	// cluster, in [0, 1].
	Threshold float64 `yaml:"threshold" json:"threshold"`

	// Patterns selects the pattern names used to describe lines.
	Patterns []string `yaml:"patterns" json:"patterns"`

	// Regexps defines custom patterns, or overrides built-in ones.
	Regexps map[string]string `yaml:"regexps,omitempty" json:"regexps,omitempty"`

	// PatternFile is an optional pattern file whose definitions are added
	// before Regexps.
	PatternFile string `yaml:"pattern_file,omitempty" json:"pattern_file,omitempty"`

	Clustering ClusteringConfig `yaml:"clustering" json:"clustering"`
	Automaton  AutomatonConfig  `yaml:"automaton" json:"automaton"`
	Watch      WatchConfig      `yaml:"watch" json:"watch"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// ClusteringConfig tunes the clustering run.
type ClusteringConfig struct {
	// NoAsync evaluates representative distances sequentially.
	NoAsync bool `yaml:"no_async" json:"no_async"`
	// Preprocess groups lines with identical automata before clustering.
	Preprocess bool `yaml:"preprocess" json:"preprocess"`
	// Workers bounds parallel distance evaluations. Default: NumCPU.
	Workers int `yaml:"workers" json:"workers"`
	// CacheSize bounds the automaton memo. Default: 4096.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// AutomatonConfig tunes how lines are turned into pattern automata.
type AutomatonConfig struct {
	// Strategy is "largest" (default), "greedy" or "all".
	Strategy string `yaml:"strategy" json:"strategy"`
	// Separators, when set, restricts matches to separator boundaries.
	Separators []string `yaml:"separators,omitempty" json:"separators,omitempty"`
	// Filtered patterns are matched but never produce an arc.
	Filtered []string `yaml:"filtered,omitempty" json:"filtered,omitempty"`
}

// WatchConfig tunes `patclust watch`.
type WatchConfig struct {
	Debounce     string `yaml:"debounce" json:"debounce"`
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`
}

// StorageConfig locates the run history.
type StorageConfig struct {
	// DataDir holds runs.db and the logs. Default: ~/.patclust
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// Save stores every `cluster` run in the history.
	Save bool `yaml:"save" json:"save"`
	// SearchBackend ranks `runs search` results: "sqlite" (default) or "bleve".
	SearchBackend string `yaml:"search_backend" json:"search_backend"`
}

// LoggingConfig configures the file log enabled by --debug.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version:   1,
		Threshold: clustering.DefaultThreshold,
		Patterns:  slices.Clone(patterns.DefaultNames),
		Clustering: ClusteringConfig{
			Workers:   runtime.NumCPU(),
			CacheSize: clustering.DefaultCacheSize,
		},
		Automaton: AutomatonConfig{
			Strategy: string(multigrep.StrategyLargest),
		},
		Watch: WatchConfig{
			Debounce:     "300ms",
			PollInterval: "1s",
		},
		Storage: StorageConfig{
			DataDir:       DefaultDataDir(),
			SearchBackend: string(store.SearchBackendSQLite),
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// DefaultDataDir returns ~/.patclust.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".patclust")
	}
	return filepath.Join(home, ".patclust")
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/patclust/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/patclust/config.yaml
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "patclust", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "patclust", "config.yaml")
	}
	return filepath.Join(home, ".config", "patclust", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	info, err := os.Stat(GetUserConfigPath())
	return err == nil && !info.IsDir()
}

// Load returns the configuration, applied in order of increasing
// precedence:
//  1. Defaults
//  2. User config (~/.config/patclust/config.yaml)
//  3. Environment variables (PATCLUST_*)
//
// The result is not validated: callers apply flags and an explicit
// configuration file before calling Validate.
func Load() (*Config, error) {
	cfg := NewConfig()

	if UserConfigExists() {
		if err := cfg.LoadFile(GetUserConfigPath()); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFile merges a YAML or JSON configuration file into c. Keys absent from
// the file keep their current value; lists are replaced.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.New(apperrors.ErrCodeConfigNotFound,
				fmt.Sprintf("configuration file not found: %s", path), err)
		}
		return apperrors.IOError(fmt.Sprintf("cannot read configuration file %s", path), err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return apperrors.ConfigError(fmt.Sprintf("cannot parse configuration file %s", path), err)
	}
	if c.PatternFile != "" && !filepath.IsAbs(c.PatternFile) {
		c.PatternFile = filepath.Join(filepath.Dir(path), c.PatternFile)
	}
	return nil
}

// ApplyEnv applies PATCLUST_* environment variable overrides. Malformed
// values are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PATCLUST_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.Threshold = t
		}
	}
	if v := os.Getenv("PATCLUST_WORKERS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			c.Clustering.Workers = n
		}
	}
	if v := os.Getenv("PATCLUST_NO_ASYNC"); v != "" {
		c.Clustering.NoAsync = parseBool(v)
	}
	if v := os.Getenv("PATCLUST_PREPROCESS"); v != "" {
		c.Clustering.Preprocess = parseBool(v)
	}
	if v := os.Getenv("PATCLUST_PATTERNS"); v != "" {
		c.Patterns = splitList(v)
	}
	if v := os.Getenv("PATCLUST_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("PATCLUST_SEARCH_BACKEND"); v != "" {
		c.Storage.SearchBackend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("PATCLUST_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return apperrors.New(apperrors.ErrCodeInvalidThreshold,
			fmt.Sprintf("threshold must be between 0 and 1, got %g", c.Threshold), nil)
	}
	if c.Clustering.Workers < 0 {
		return invalid("clustering.workers must be non-negative, got %d", c.Clustering.Workers)
	}
	if c.Clustering.CacheSize < 0 {
		return invalid("clustering.cache_size must be non-negative, got %d", c.Clustering.CacheSize)
	}
	if c.Automaton.Strategy != "" && !slices.Contains(multigrep.Strategies, multigrep.Strategy(c.Automaton.Strategy)) {
		return invalid("automaton.strategy must be one of %v, got %q", multigrep.Strategies, c.Automaton.Strategy)
	}

	known := func(name string) bool {
		if _, ok := c.Regexps[name]; ok {
			return true
		}
		_, ok := patterns.Lookup(name)
		return ok
	}
	if c.PatternFile == "" {
		for _, list := range [][]string{c.Patterns, c.Automaton.Separators, c.Automaton.Filtered} {
			for _, name := range list {
				if !known(name) {
					return apperrors.New(apperrors.ErrCodeUnknownPattern,
						fmt.Sprintf("unknown pattern %q", name), nil).
						WithDetail("pattern", name).
						WithSuggestion("run 'patclust patterns' to list the built-in patterns")
				}
			}
		}
	}

	if _, err := c.Watch.DebounceDuration(); err != nil {
		return invalid("watch.debounce: %v", err)
	}
	if _, err := c.Watch.PollIntervalDuration(); err != nil {
		return invalid("watch.poll_interval: %v", err)
	}

	if c.Storage.SearchBackend != "" && !slices.Contains(store.SearchBackends, store.SearchBackend(c.Storage.SearchBackend)) {
		return invalid("storage.search_backend must be one of %v, got %q", store.SearchBackends, c.Storage.SearchBackend)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return apperrors.New(apperrors.ErrCodeConfigInvalid, fmt.Sprintf(format, args...), nil)
}

// DebounceDuration parses Debounce. Empty means zero.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	return parseDuration(w.Debounce)
}

// PollIntervalDuration parses PollInterval. Empty means zero.
func (w WatchConfig) PollIntervalDuration() (time.Duration, error) {
	return parseDuration(w.PollInterval)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Env compiles the configured pattern environment.
func (c *Config) Env() (*patterns.Env, error) {
	regexps := make(map[string]string)
	if c.PatternFile != "" {
		f, err := patterns.LoadFile(c.PatternFile)
		if err != nil {
			return nil, err
		}
		maps.Copy(regexps, f.Patterns)
	}
	maps.Copy(regexps, c.Regexps)

	names := c.Patterns
	if len(names) == 0 {
		names = patterns.DefaultNames
	}
	return patterns.NewEnv(regexps, names)
}

// ClustererConfig returns the clustering settings.
func (c *Config) ClustererConfig() clustering.Config {
	cfg := clustering.Config{
		Options: clustering.Options{
			Threshold: c.Threshold,
			Async:     !c.Clustering.NoAsync,
			Workers:   c.Clustering.Workers,
		},
		Preprocess: c.Clustering.Preprocess,
		Automaton:  c.AutomatonOptions(),
		CacheSize:  c.Clustering.CacheSize,
	}
	return cfg
}

// AutomatonOptions returns the pattern automaton settings.
func (c *Config) AutomatonOptions() pa.Options {
	opts := pa.Options{
		Strategy: multigrep.Strategy(c.Automaton.Strategy),
		Filtered: c.Automaton.Filtered,
	}
	if len(c.Automaton.Separators) > 0 {
		opts.Delimiters = &multigrep.Delimiters{Separators: c.Automaton.Separators}
	}
	return opts
}

// WatchOptions returns the watcher settings.
func (c *Config) WatchOptions() watch.Options {
	debounce, _ := c.Watch.DebounceDuration()
	poll, _ := c.Watch.PollIntervalDuration()
	return watch.Options{Debounce: debounce, PollInterval: poll}
}

// Encode writes the configuration as "yaml" or "json".
func (c *Config) Encode(w io.Writer, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	case "yaml", "yml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	default:
		return invalid("unknown configuration format %q", format)
	}
}

// WriteYAML writes the configuration to a YAML file, creating its directory.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
