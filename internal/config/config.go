// Package config handles settings, credentials and the theme preference for grinbergai.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Theme preference values
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	EnableEmoji      bool `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// Theme is "dark" or "light". Empty means follow the terminal background.
	Theme string `json:"theme,omitempty"`
	// PollIntervalMS is the delay between run status checks.
	PollIntervalMS int `json:"poll_interval_ms"`
	// RunTimeoutSeconds bounds how long a single run is polled. Zero disables the deadline.
	RunTimeoutSeconds int `json:"run_timeout_seconds"`
	// Verbose enables debug logging.
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	BaseURL         string         `json:"base_url,omitempty"`
	Proxy           string         `json:"proxy,omitempty"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		PollIntervalMS:    1000,
		RunTimeoutSeconds: 120,
		Verbose:           false,
		CopyToClipboard:   false,
		Markdown:          DefaultMarkdownConfig(),
	}
}

// PollInterval returns the configured poll interval, falling back to one second.
func (c Config) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// RunTimeout returns the polling deadline; zero means unbounded.
func (c Config) RunTimeout() time.Duration {
	if c.RunTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RunTimeoutSeconds) * time.Second
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".grinbergai"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path of the log file used while the TUI owns the terminal
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "grinbergai.log"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ValidTheme reports whether name is a theme preference value.
func ValidTheme(name string) bool {
	return name == ThemeDark || name == ThemeLight
}

// OppositeTheme returns the other preference value.
func OppositeTheme(theme string) string {
	if theme == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ResolveTheme returns the stored preference, or the terminal default when none is stored.
func ResolveTheme(cfg Config, terminalIsDark bool) string {
	if ValidTheme(cfg.Theme) {
		return cfg.Theme
	}
	if terminalIsDark {
		return ThemeDark
	}
	return ThemeLight
}

// SetTheme persists theme as the preference.
func SetTheme(theme string) error {
	if !ValidTheme(theme) {
		return fmt.Errorf("invalid theme %q (valid: %s, %s)", theme, ThemeDark, ThemeLight)
	}

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	cfg.Theme = theme
	return SaveConfig(cfg)
}

// ToggleTheme flips the persisted preference and returns the new value.
// current is the theme in effect when nothing has been persisted yet.
func ToggleTheme(current string) (string, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return current, err
	}

	base := cfg.Theme
	if !ValidTheme(base) {
		base = current
	}
	next := OppositeTheme(base)

	cfg.Theme = next
	if err := SaveConfig(cfg); err != nil {
		return base, err
	}
	return next, nil
}

// SetValue updates a single setting by its JSON key.
func SetValue(cfg Config, key, value string) (Config, error) {
	switch key {
	case "theme":
		if !ValidTheme(value) {
			return cfg, fmt.Errorf("invalid theme %q", value)
		}
		cfg.Theme = value
	case "poll_interval_ms":
		n, err := parsePositive(key, value)
		if err != nil {
			return cfg, err
		}
		cfg.PollIntervalMS = n
	case "run_timeout_seconds":
		n, err := parseNonNegative(key, value)
		if err != nil {
			return cfg, err
		}
		cfg.RunTimeoutSeconds = n
	case "verbose":
		b, err := parseBool(key, value)
		if err != nil {
			return cfg, err
		}
		cfg.Verbose = b
	case "copy_to_clipboard":
		b, err := parseBool(key, value)
		if err != nil {
			return cfg, err
		}
		cfg.CopyToClipboard = b
	case "base_url":
		cfg.BaseURL = value
	case "proxy":
		cfg.Proxy = value
	default:
		return cfg, fmt.Errorf("unknown config key %q", key)
	}
	return cfg, nil
}

// Keys lists the settings accepted by SetValue.
func Keys() []string {
	return []string{
		"theme",
		"poll_interval_ms",
		"run_timeout_seconds",
		"verbose",
		"copy_to_clipboard",
		"base_url",
		"proxy",
	}
}

func parsePositive(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, value)
	}
	return n, nil
}

func parseNonNegative(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be zero or a positive integer, got %q", key, value)
	}
	return n, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", key, value)
	}
	return b, nil
}
