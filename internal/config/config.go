package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"plannercal/internal/classify"
)

// Source kinds. The kind selects the default classification rule set and the
// normalization profile (observance sources get the lookahead horizon and
// place-based addresses).
const (
	KindSchool     = "school"
	KindObservance = "observance"
)

// SourceConfig describes a single calendar feed. Immutable at runtime;
// defined only in the config file.
type SourceConfig struct {
	// Code is the short source tag used as the activity prefix (e.g. "JLS").
	Code string `yaml:"code"`
	// Name is a human-friendly label used in logs and summaries.
	Name string `yaml:"name"`
	// URL is the ICS feed endpoint.
	URL string `yaml:"url"`
	// Address is the default event address (e.g. the school's street address).
	Address string `yaml:"address"`
	// Kind is "school" or "observance".
	Kind string `yaml:"kind"`
	// Output is the per-source table filename, relative to output_dir.
	// Empty derives "<code>_events.csv".
	Output string `yaml:"output,omitempty"`
	// Rules, when present, replaces the built-in classification rule list for
	// this source. Order is significant: first match wins.
	Rules []classify.Rule `yaml:"rules,omitempty"`
}

// OutputFile returns the per-source table filename.
func (s SourceConfig) OutputFile() string {
	if s.Output != "" {
		return s.Output
	}
	return strings.ToLower(s.Code) + "_events.csv"
}

// Config is the top-level application configuration.
type Config struct {
	// OutputDir is where per-source and merged tables are written.
	OutputDir string `yaml:"output_dir"`

	// MergedFile, if non-empty, enables merged-table mode: all sources are
	// deduplicated into this shared table (relative to OutputDir) in addition
	// to their per-source files. The hand-maintained family activity table is
	// separate and is never written by this pipeline.
	MergedFile string `yaml:"merged_file,omitempty"`

	// Timezone is the IANA zone used for "today" in the date filter.
	Timezone string `yaml:"timezone"`

	// HorizonMonths bounds how far ahead observance events are kept.
	HorizonMonths int `yaml:"horizon_months"`

	// FetchTimeoutSeconds bounds each HTTP attempt per source.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`

	// FetchRetries is the number of extra attempts after a transient failure.
	FetchRetries int `yaml:"fetch_retries"`

	// RefreshCron is the cron schedule used in daemon mode (-cron).
	RefreshCron string `yaml:"refresh"`

	// Sources is the list of configured calendar feeds.
	Sources []SourceConfig `yaml:"sources"`
}

// DefaultConfig returns the built-in configuration: the two school feeds and
// the Hebcal observance feed.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:           ".",
		MergedFile:          "all_calendar_events.csv",
		Timezone:            "America/Los_Angeles",
		HorizonMonths:       18,
		FetchTimeoutSeconds: 5,
		FetchRetries:        1,
		RefreshCron:         "0 6 * * *",
		Sources: []SourceConfig{
			{
				Code:    "JLS",
				Name:    "Jane Lathrop Stanford Middle School",
				URL:     "https://jls.pausd.org/fs/calendar-manager/events.ics?calendar_ids[]=7",
				Address: "480 E Meadow Dr, Palo Alto, CA",
				Kind:    KindSchool,
				Output:  "school_events.csv",
			},
			{
				Code:    "Ohlone",
				Name:    "Ohlone Elementary School",
				URL:     "https://ohlone.pausd.org/fs/calendar-manager/events.ics?calendar_ids[]=45",
				Address: "950 Amarillo Ave, Palo Alto, CA 94303",
				Kind:    KindSchool,
				Output:  "school_events.csv",
			},
			{
				Code:    "Jewish",
				Name:    "Jewish Holidays (Hebcal)",
				URL:     "https://download.hebcal.com/v4/CAEQARgBIAEoATABQAGAAQGYAQGgAQH4AQU/hebcal.ics",
				Address: "Home",
				Kind:    KindObservance,
				Output:  "jewish_holidays.csv",
			},
		},
	}
}

// Normalize fills missing/zero values with defaults so partially-filled
// configs still behave.
func (c *Config) Normalize() {
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.Timezone == "" {
		c.Timezone = "America/Los_Angeles"
	}
	if c.HorizonMonths <= 0 {
		c.HorizonMonths = 18
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = 5
	}
	if c.FetchRetries < 0 {
		c.FetchRetries = 0
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 6 * * *"
	}
	if c.Sources == nil {
		c.Sources = []SourceConfig{}
	}
	for i := range c.Sources {
		if c.Sources[i].Kind == "" {
			c.Sources[i].Kind = KindSchool
		}
	}
}

// Validate rejects configs the pipeline cannot run with.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Sources))
	for _, src := range c.Sources {
		if src.Code == "" {
			return errors.New("config: source with empty code")
		}
		if _, dup := seen[src.Code]; dup {
			return fmt.Errorf("config: duplicate source code %q", src.Code)
		}
		seen[src.Code] = struct{}{}
		if src.URL == "" {
			return fmt.Errorf("config: source %s has no url", src.Code)
		}
		switch src.Kind {
		case KindSchool, KindObservance:
		default:
			return fmt.Errorf("config: source %s has unknown kind %q", src.Code, src.Kind)
		}
	}
	return nil
}

// FetchTimeout returns FetchTimeoutSeconds as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600) and
// returned, so a first run needs no arguments.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".plannercal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
