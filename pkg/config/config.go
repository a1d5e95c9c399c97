package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Built-in defaults. The loader falls back to these whenever a value is
// absent or unusable.
const (
	DefaultFileName       = "dyfetch.yaml"
	DefaultOutputRoot     = "./downloads"
	DefaultBarWidth       = 50
	DefaultHistoryPath    = "download_history.txt"
	DefaultTimeoutSeconds = 10
	DefaultMaxRetries     = 3
	DefaultPageSize       = 21
)

// Config holds all configuration options for the downloader
type Config struct {
	// Links is a comma-separated list of shared profile links
	Links string `yaml:"links"`

	// Output settings
	Output OutputConfig `yaml:"output"`

	// History ledger settings
	History HistoryConfig `yaml:"history"`

	// Download settings
	Download DownloadConfig `yaml:"download"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Warnings collects non-fatal loader findings, such as config values of
	// the wrong type that fell back to defaults. Never serialized.
	Warnings []string `yaml:"-"`
}

// OutputConfig holds output directory and progress display configuration
type OutputConfig struct {
	Root     string `yaml:"root"`
	BarWidth int    `yaml:"bar_width"`
}

// HistoryConfig holds the download history ledger configuration
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	MaxRetries     int `yaml:"max_retries"`
	PageSize       int `yaml:"page_size"`
	// EmptyPageLimit bounds how often an empty catalog page is refetched
	// with the same cursor. 0 keeps refetching forever, which mirrors the
	// platform's observed behavior of eventually returning the page.
	EmptyPageLimit int `yaml:"empty_page_limit"`
}

// Timeout returns the per-request network timeout as a duration
func (d DownloadConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	BurstSize         int    `yaml:"burst_size"`
	Strategy          string `yaml:"strategy"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled"`
	OnComplete bool `yaml:"on_complete"`
	OnError    bool `yaml:"on_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Links: "",
		Output: OutputConfig{
			Root:     DefaultOutputRoot,
			BarWidth: DefaultBarWidth,
		},
		History: HistoryConfig{
			Path: DefaultHistoryPath,
		},
		Download: DownloadConfig{
			TimeoutSeconds: DefaultTimeoutSeconds,
			MaxRetries:     DefaultMaxRetries,
			PageSize:       DefaultPageSize,
			EmptyPageLimit: 0,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         5,
			Strategy:          "token_bucket",
		},
		Notifications: NotificationConfig{
			Enabled:    true,
			OnComplete: true,
			OnError:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LinkList splits the configured comma-separated links into an ordered,
// trimmed list. Empty entries are dropped.
func (c *Config) LinkList() []string {
	var links []string
	for _, raw := range strings.Split(c.Links, ",") {
		link := strings.TrimSpace(raw)
		if link != "" {
			links = append(links, link)
		}
	}
	return links
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if links := os.Getenv("DYFETCH_LINKS"); links != "" {
		c.Links = links
	}

	if root := os.Getenv("DYFETCH_OUTPUT_ROOT"); root != "" {
		c.Output.Root = root
	}
	if width := os.Getenv("DYFETCH_BAR_WIDTH"); width != "" {
		var val int
		fmt.Sscanf(width, "%d", &val)
		if val > 0 {
			c.Output.BarWidth = val
		}
	}

	if path := os.Getenv("DYFETCH_HISTORY_PATH"); path != "" {
		c.History.Path = path
	}

	if rpm := os.Getenv("DYFETCH_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if limit := os.Getenv("DYFETCH_EMPTY_PAGE_LIMIT"); limit != "" {
		var val int
		fmt.Sscanf(limit, "%d", &val)
		if val >= 0 {
			c.Download.EmptyPageLimit = val
		}
	}

	if notifEnabled := os.Getenv("DYFETCH_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}

	if logLevel := os.Getenv("DYFETCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("DYFETCH_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file. A malformed file is
// reported to the caller rather than repaired: silently misreading it risks
// writing downloads to the wrong paths. A value of the wrong type is a
// smaller accident; the field keeps its default and the mistake is recorded
// in Warnings for the caller to surface.
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		// The decoder reports mistyped scalars after filling every
		// well-typed field, so the struct is usable; the mismatched
		// fields still hold their previous values.
		var typeErr *yaml.TypeError
		if !errors.As(err, &typeErr) {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		for _, msg := range typeErr.Errors {
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s: %s, using the default", path, msg))
		}
	}

	return nil
}

// FindFile searches for a config file in standard locations and returns the
// first match, or "" when none exists.
func FindFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		DefaultFileName,
		".dyfetch.yaml",
		".dyfetch.yml",
		filepath.Join(home, ".config", "dyfetch", "config.yaml"),
		filepath.Join(home, ".config", "dyfetch", "config.yml"),
		filepath.Join(home, ".dyfetch.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// applyFallbacks replaces absent or unusable values with the built-in
// defaults. The link list is deliberately left alone: an empty link list is
// a validation error, not something to paper over.
func (c *Config) applyFallbacks() {
	if c.Output.Root == "" {
		c.Output.Root = DefaultOutputRoot
	}
	if c.Output.BarWidth <= 0 {
		c.Output.BarWidth = DefaultBarWidth
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}
	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Download.MaxRetries <= 0 {
		c.Download.MaxRetries = DefaultMaxRetries
	}
	if c.Download.PageSize <= 0 {
		c.Download.PageSize = DefaultPageSize
	}
	if c.Download.EmptyPageLimit < 0 {
		c.Download.EmptyPageLimit = 0
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = 60
	}
	if c.RateLimit.BurstSize <= 0 {
		c.RateLimit.BurstSize = 5
	}
	if c.RateLimit.Strategy == "" {
		c.RateLimit.Strategy = "token_bucket"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if len(c.LinkList()) == 0 {
		errs = append(errs, errors.New("no profile links configured"))
	}

	if c.Output.Root == "" {
		errs = append(errs, errors.New("output root is required"))
	}
	if c.Output.BarWidth <= 0 {
		errs = append(errs, errors.New("progress bar width must be positive"))
	}

	if c.History.Path == "" {
		errs = append(errs, errors.New("history path is required"))
	}

	if c.Download.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.MaxRetries <= 0 {
		errs = append(errs, errors.New("max retries must be positive"))
	}
	if c.Download.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Download.EmptyPageLimit < 0 {
		errs = append(errs, errors.New("empty page limit cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	switch strings.ToLower(c.RateLimit.Strategy) {
	case "token_bucket", "sliding_window":
	default:
		errs = append(errs, errors.New("rate limit strategy must be token_bucket or sliding_window"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if links, ok := flags["links"].(string); ok && links != "" {
		c.Links = links
	}
	if root, ok := flags["output"].(string); ok && root != "" {
		c.Output.Root = root
	}
	if width, ok := flags["bar-width"].(int); ok && width > 0 {
		c.Output.BarWidth = width
	}
	if path, ok := flags["history"].(string); ok && path != "" {
		c.History.Path = path
	}
	if limit, ok := flags["empty-page-limit"].(int); ok && limit >= 0 {
		c.Download.EmptyPageLimit = limit
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if enabled, ok := flags["notifications-enabled"].(bool); ok {
		c.Notifications.Enabled = enabled
	}
}

// Resolve assembles the effective configuration from all sources with
// proper precedence, without validating it. Inspection commands use this
// so they work on a configuration the downloader itself would refuse.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Resolve(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".dyfetch.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Absent or unusable optional values fall back to defaults
	config.applyFallbacks()

	return config, nil
}

// Load resolves and validates the configuration. This is what the
// downloader runs on.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	config, err := Resolve(configPath, flags)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
