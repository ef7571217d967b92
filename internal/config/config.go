package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultCapacity is the maximum number of stored commands.
	DefaultCapacity = 200

	// DefaultLimit is the number of entries shown by a listing.
	DefaultLimit = 10

	// DefaultShell runs recalled commands as `<shell> -c <cmd>`.
	DefaultShell = "sh"
)

// ClipboardProgram is an external program that accepts text on stdin.
type ClipboardProgram struct {
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

// Config holds application configuration.
type Config struct {
	// Capacity is the maximum number of entries kept; oldest are trimmed first
	Capacity int `json:"capacity"`

	// DefaultLimit is the number of entries printed by a listing
	DefaultLimit int `json:"default_limit"`

	// HistoryFiles is an ordered list of shell history files to read the last command from.
	// Empty means $HISTFILE, ~/.zsh_history, ~/.bash_history.
	HistoryFiles []string `json:"history_files,omitempty"`

	// Shell is the interpreter used by `memo run`.
	Shell string `json:"shell,omitempty"`

	// ClipboardPrograms is an ordered list of clipboard programs to probe.
	// Empty means the platform default list. Unlike other lists this one
	// is replaced, not merged, because order matters.
	ClipboardPrograms []ClipboardProgram `json:"clipboard_programs,omitempty"`

	// ClipboardOSC52 allows the OSC 52 terminal escape as a last clipboard resort.
	ClipboardOSC52 bool `json:"clipboard_osc52,omitempty"`

	// DangerPatterns are extra regular expressions that require confirmation before run.
	// They are added to the built-in rules, never replace them.
	DangerPatterns []string `json:"danger_patterns,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside <base>/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// LogLevel is one of debug, info, warn, error. MEMO_LOG_LEVEL overrides it.
	LogLevel string `json:"log_level,omitempty"`

	// BaseDir is the directory the config was loaded from; it also holds the
	// database and the exports directory. Set by Load, never read from JSON.
	BaseDir string `json:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Capacity:     DefaultCapacity,
		DefaultLimit: DefaultLimit,
		Shell:        DefaultShell,
		LogLevel:     "warn",
	}
}

// StateDir returns the platform state directory: $XDG_STATE_HOME when set,
// otherwise ~/.local/state. A leading "~/" in XDG_STATE_HOME is expanded.
func StateDir() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		base = "~/.local/state"
	}
	return ExpandHome(base)
}

// BaseDir returns the directory holding the memo database, config and exports.
func BaseDir() (string, error) {
	state, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(state, "memo"), nil
}

// ExpandHome replaces a leading "~" or "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of the state dir.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	cfg.BaseDir = baseDir
	return cfg, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.Capacity = overlay.Capacity
	if result.Capacity <= 0 {
		result.Capacity = base.Capacity
	}

	result.DefaultLimit = overlay.DefaultLimit
	if result.DefaultLimit <= 0 {
		result.DefaultLimit = base.DefaultLimit
	}

	result.Shell = strings.TrimSpace(overlay.Shell)
	if result.Shell == "" {
		result.Shell = base.Shell
	}

	result.LogLevel = strings.TrimSpace(overlay.LogLevel)
	if result.LogLevel == "" {
		result.LogLevel = base.LogLevel
	}

	result.BaseDir = overlay.BaseDir
	if result.BaseDir == "" {
		result.BaseDir = base.BaseDir
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths
	result.ClipboardOSC52 = base.ClipboardOSC52 || overlay.ClipboardOSC52

	// Ordered candidate lists: overlay replaces base when set
	result.ClipboardPrograms = base.ClipboardPrograms
	if len(overlay.ClipboardPrograms) > 0 {
		result.ClipboardPrograms = overlay.ClipboardPrograms
	}
	result.HistoryFiles = mergeStringSlice(nil, base.HistoryFiles)
	if len(overlay.HistoryFiles) > 0 {
		result.HistoryFiles = mergeStringSlice(nil, overlay.HistoryFiles)
	}

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DangerPatterns = mergeStringSlice(base.DangerPatterns, overlay.DangerPatterns)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// SlogLevel returns the configured log level, honoring MEMO_LOG_LEVEL.
// Unknown values fall back to warn.
func (c *Config) SlogLevel() slog.Level {
	name := c.LogLevel
	if env := strings.TrimSpace(os.Getenv("MEMO_LOG_LEVEL")); env != "" {
		name = env
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelWarn
	}
	return level
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
