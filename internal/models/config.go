package models

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Output formats
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// LogLevels lists the accepted --log_level values, most verbose first
var LogLevels = []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

// ConfigFileName is looked up in the project directory when no --config is given
const ConfigFileName = ".license-audit.toml"

// Config holds configuration for the scanner
type Config struct {
	// Project directory; the package manager runs with this as working directory
	ProjectPath string

	// Package manager invocation, e.g. ["pip"] or ["python3", "-m", "pip"]
	PipCommand []string

	// Output settings
	OutputFormat string // "text", "json", "markdown"
	OutputFile   string // Optional output file path
	LogLevel     string

	// Behavior settings
	FailOnUnknown bool // Exit with code 1 if any license is UNKNOWN
	MaxConcurrent int  // Parallel metadata lookups
	Timeout       time.Duration

	// Metadata cache, off unless requested
	Cache    bool
	CacheDir string // Empty means $XDG_CACHE_HOME/license-audit
	CacheTTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ProjectPath:   ".",
		PipCommand:    []string{"pip"},
		OutputFormat:  FormatText,
		LogLevel:      "INFO",
		FailOnUnknown: false,
		MaxConcurrent: 1,
		Timeout:       0,
		Cache:         false,
		CacheTTL:      24 * time.Hour,
	}
}

// Validate checks the settings that do not depend on the file system
func (c *Config) Validate() error {
	if len(c.PipCommand) == 0 || c.PipCommand[0] == "" {
		return fmt.Errorf("pip command must not be empty")
	}
	switch c.OutputFormat {
	case FormatText, FormatJSON, FormatMarkdown:
	default:
		return fmt.Errorf("invalid output format %q (want text, json or markdown)", c.OutputFormat)
	}
	if !ValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level %q (want one of %s)", c.LogLevel, strings.Join(LogLevels, ", "))
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.MaxConcurrent)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// ValidLogLevel reports whether level is one of LogLevels (case-insensitive)
func ValidLogLevel(level string) bool {
	for _, l := range LogLevels {
		if strings.EqualFold(l, level) {
			return true
		}
	}
	return false
}

// fileConfig mirrors the TOML config file layout
type fileConfig struct {
	Pip           []string `toml:"pip"`
	OutputFormat  string   `toml:"output_format"`
	Output        string   `toml:"output"`
	LogLevel      string   `toml:"log_level"`
	Jobs          int      `toml:"jobs"`
	Timeout       string   `toml:"timeout"`
	Cache         bool     `toml:"cache"`
	CacheDir      string   `toml:"cache_dir"`
	CacheTTL      string   `toml:"cache_ttl"`
	FailOnUnknown bool     `toml:"fail_on_unknown"`
}

// LoadConfigFile applies the keys present in the TOML file at path onto c.
// Keys the file does not set leave c unchanged. The returned slice lists
// keys that were not recognised.
func LoadConfigFile(path string, c *Config) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return applyConfig(string(data), c)
}

func applyConfig(data string, c *Config) ([]string, error) {
	var fc fileConfig
	md, err := toml.Decode(data, &fc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if md.IsDefined("pip") {
		c.PipCommand = fc.Pip
	}
	if md.IsDefined("output_format") {
		c.OutputFormat = fc.OutputFormat
	}
	if md.IsDefined("output") {
		c.OutputFile = fc.Output
	}
	if md.IsDefined("log_level") {
		c.LogLevel = fc.LogLevel
	}
	if md.IsDefined("jobs") {
		c.MaxConcurrent = fc.Jobs
	}
	if md.IsDefined("timeout") {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout: %w", err)
		}
		c.Timeout = d
	}
	if md.IsDefined("cache") {
		c.Cache = fc.Cache
	}
	if md.IsDefined("cache_dir") {
		c.CacheDir = fc.CacheDir
	}
	if md.IsDefined("cache_ttl") {
		d, err := time.ParseDuration(fc.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid cache_ttl: %w", err)
		}
		c.CacheTTL = d
	}
	if md.IsDefined("fail_on_unknown") {
		c.FailOnUnknown = fc.FailOnUnknown
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return unknown, nil
}
