package types

import (
	"errors"
	"time"
)

// Config holds the portal's runtime settings.
type Config struct {
	DataDir    string         `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	ListenAddr string         `json:"listen_addr" yaml:"listen_addr" mapstructure:"listen_addr"`
	LogLevel   string         `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogFormat  string         `json:"log_format" yaml:"log_format" mapstructure:"log_format"`
	Scraping   ScrapingConfig `json:"scraping" yaml:"scraping" mapstructure:"scraping"`
	Intake     IntakeConfig   `json:"intake" yaml:"intake" mapstructure:"intake"`
	Auth       AuthConfig     `json:"auth" yaml:"auth" mapstructure:"auth"`
}

// ScrapingConfig selects the job execution policy.
type ScrapingConfig struct {
	Mode    string        `json:"mode" yaml:"mode" mapstructure:"mode"`
	Async   bool          `json:"async" yaml:"async" mapstructure:"async"`
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// IntakeConfig filters browser-extracted events. Cutoff is a YYYY-MM-DD
// date; events starting before it are dropped.
type IntakeConfig struct {
	Cutoff string `json:"cutoff" yaml:"cutoff" mapstructure:"cutoff"`
}

// AuthConfig lists the accepted logins.
type AuthConfig struct {
	Users []Credential `json:"users" yaml:"users" mapstructure:"users"`
}

// Scraping modes.
const (
	ScrapingManual    = "manual"
	ScrapingAutomated = "automated"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Defaults applied when a setting is absent.
const (
	DefaultListenAddr      = "127.0.0.1:8080"
	DefaultLogLevel        = "info"
	DefaultIntakeCutoff    = "2025-10-01"
	DefaultScrapingTimeout = 30 * time.Second
)

// Config validation errors.
var (
	ErrDataDirEmpty        = errors.New("data directory must not be empty")
	ErrScrapingModeUnknown = errors.New("unknown scraping mode")
	ErrLogFormatUnknown    = errors.New("unknown log format")
	ErrCutoffInvalid       = errors.New("intake cutoff must be a YYYY-MM-DD date")
	ErrTimeoutInvalid      = errors.New("scraping timeout must not be negative")
)

var knownScrapingModes = map[string]bool{
	"":                true,
	ScrapingManual:    true,
	ScrapingAutomated: true,
}

var knownLogFormats = map[string]bool{
	"":            true,
	LogFormatText: true,
	LogFormatJSON: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if !knownScrapingModes[c.Scraping.Mode] {
		return ErrScrapingModeUnknown
	}
	if !knownLogFormats[c.LogFormat] {
		return ErrLogFormatUnknown
	}
	if c.Intake.Cutoff != "" {
		if _, err := time.Parse(DateLayout, c.Intake.Cutoff); err != nil {
			return ErrCutoffInvalid
		}
	}
	if c.Scraping.Timeout < 0 {
		return ErrTimeoutInvalid
	}
	return nil
}

// WithDefaults returns a copy with empty settings replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	if c.Scraping.Mode == "" {
		c.Scraping.Mode = ScrapingManual
	}
	if c.Scraping.Timeout == 0 {
		c.Scraping.Timeout = DefaultScrapingTimeout
	}
	if c.Intake.Cutoff == "" {
		c.Intake.Cutoff = DefaultIntakeCutoff
	}
	return c
}
