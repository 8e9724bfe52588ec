package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/pengelbrecht/calc/internal/calculator"
)

const (
	DefaultVersion  = 1
	DefaultOverflow = "wrap"

	// Default values for history configuration.
	DefaultHistoryPath  = ".calc/history.db"
	DefaultHistoryLimit = 20

	// Default values for server configuration.
	DefaultServerAddr = "127.0.0.1:8686"

	// Default values for format configuration.
	DefaultLocale = "en"

	// OverflowEnv overrides the configured overflow mode.
	OverflowEnv = "CALC_OVERFLOW"
)

// Config defines project configuration stored in .calc/config.json.
type Config struct {
	Version  int            `json:"version"`
	Overflow *string        `json:"overflow,omitempty"`
	History  *HistoryConfig `json:"history,omitempty"`
	Server   *ServerConfig  `json:"server,omitempty"`
	Format   *FormatConfig  `json:"format,omitempty"`
}

// GetOverflow returns the overflow mode name (default "wrap").
func (c Config) GetOverflow() string {
	if c.Overflow == nil {
		return DefaultOverflow
	}
	return *c.Overflow
}

// Mode returns the parsed overflow mode. Validate guarantees it parses.
func (c Config) Mode() calculator.Mode {
	mode, err := calculator.ParseMode(c.GetOverflow())
	if err != nil {
		return calculator.ModeWrap
	}
	return mode
}

// HistoryConfig holds evaluation history settings.
type HistoryConfig struct {
	// Enabled controls whether evaluations are recorded (default true).
	Enabled *bool `json:"enabled,omitempty"`

	// Path is the SQLite database file (default ".calc/history.db").
	Path *string `json:"path,omitempty"`

	// Limit is how many entries `calc history` shows (default 20).
	Limit *int `json:"limit,omitempty"`
}

// IsEnabled returns whether history is enabled (default true).
func (c *HistoryConfig) IsEnabled() bool {
	if c == nil || c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// GetPath returns the history database path.
func (c *HistoryConfig) GetPath() string {
	if c == nil || c.Path == nil {
		return DefaultHistoryPath
	}
	return *c.Path
}

// GetLimit returns the history listing limit.
func (c *HistoryConfig) GetLimit() int {
	if c == nil || c.Limit == nil {
		return DefaultHistoryLimit
	}
	return *c.Limit
}

// Validate checks that history config values are within sensible ranges.
func (c *HistoryConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.Limit != nil {
		if *c.Limit < 1 {
			return fmt.Errorf("limit must be at least 1, got %d", *c.Limit)
		}
		if *c.Limit > 10000 {
			return fmt.Errorf("limit must be at most 10000, got %d", *c.Limit)
		}
	}
	if c.Path != nil && strings.TrimSpace(*c.Path) == "" {
		return fmt.Errorf("path must not be empty")
	}
	return nil
}

// ServerConfig holds settings for `calc serve`.
type ServerConfig struct {
	Addr *string `json:"addr,omitempty"`
}

// GetAddr returns the listen address.
func (c *ServerConfig) GetAddr() string {
	if c == nil || c.Addr == nil {
		return DefaultServerAddr
	}
	return *c.Addr
}

// FormatConfig holds number rendering settings.
type FormatConfig struct {
	// Grouping inserts locale digit separators (default false).
	Grouping *bool `json:"grouping,omitempty"`

	// Locale is a BCP 47 tag used for grouping (default "en").
	Locale *string `json:"locale,omitempty"`
}

// IsGrouping returns whether digit grouping is on.
func (c *FormatConfig) IsGrouping() bool {
	if c == nil || c.Grouping == nil {
		return false
	}
	return *c.Grouping
}

// GetLocale returns the locale tag.
func (c *FormatConfig) GetLocale() string {
	if c == nil || c.Locale == nil {
		return DefaultLocale
	}
	return *c.Locale
}

// Validate checks that the locale is a well-formed tag.
func (c *FormatConfig) Validate() error {
	if c == nil || c.Locale == nil {
		return nil
	}
	if _, err := language.Parse(*c.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", *c.Locale, err)
	}
	return nil
}

// Default returns the default config.
func Default() Config {
	return Config{
		Version: DefaultVersion,
	}
}

// Load reads config from disk and applies defaults for zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config not found: %w", err)
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return parse(data)
}

// LoadOrDefault reads config from disk, returning defaults if file doesn't exist.
// CALC_OVERFLOW is applied on top of whatever was loaded.
func LoadOrDefault(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnv(&cfg)
			if err := cfg.Validate(); err != nil {
				return Config{}, err
			}
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg, err := parse(data)
	if err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parse(data []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Version == 0 {
		cfg.Version = DefaultVersion
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(OverflowEnv)); v != "" {
		cfg.Overflow = &v
	}
}

// Save writes a config to disk.
func Save(path string, cfg Config) error {
	if cfg.Version == 0 {
		cfg.Version = DefaultVersion
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate ensures config values are within supported ranges.
func (c Config) Validate() error {
	if c.Version != DefaultVersion {
		return fmt.Errorf("unsupported config version: %d", c.Version)
	}
	if _, err := calculator.ParseMode(c.GetOverflow()); err != nil {
		return err
	}
	if err := c.History.Validate(); err != nil {
		return fmt.Errorf("invalid history config: %w", err)
	}
	if err := c.Format.Validate(); err != nil {
		return fmt.Errorf("invalid format config: %w", err)
	}
	return nil
}
