// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
)

// Config holds the user's packexport settings.
type Config struct {
	Separator      *string `toml:"separator"`
	IgnoreFile     *string `toml:"ignore_file"`
	OutputDir      *string `toml:"output_dir"`
	Compression    *string `toml:"compression"`
	Color          *string `toml:"color"`
	CheckFreeSpace *bool   `toml:"check_free_space"`
	CascadeUncover *bool   `toml:"cascade_uncover"`
}

// Default holds the built-in settings. An empty output_dir means the home directory.
var Default = Config{
	Separator:      strPtr("/"),
	IgnoreFile:     strPtr(".packignore"),
	OutputDir:      strPtr(""),
	Compression:    strPtr("deflate"),
	Color:          strPtr("auto"),
	CheckFreeSpace: boolPtr(true),
	CascadeUncover: boolPtr(false),
}

var (
	// ErrInvalidSeparator indicates a separator that is not exactly one character.
	ErrInvalidSeparator = errors.New("separator must be a single character")
	// ErrInvalidCompression indicates an unknown compression method.
	ErrInvalidCompression = errors.New("compression must be \"deflate\" or \"store\"")
	// ErrInvalidColor indicates an unknown color mode.
	ErrInvalidColor = errors.New("color must be \"auto\", \"always\" or \"never\"")
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// SeparatorRune returns the configured separator as a rune.
func (c Config) SeparatorRune() rune {
	r, _ := utf8.DecodeRuneInString(*c.Separator)
	return r
}

// Validate checks value ranges after defaults are applied.
func (c Config) Validate() error {
	if utf8.RuneCountInString(*c.Separator) != 1 {
		return fmt.Errorf("%w: %q", ErrInvalidSeparator, *c.Separator)
	}
	switch *c.Compression {
	case "deflate", "store":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCompression, *c.Compression)
	}
	switch *c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidColor, *c.Color)
	}
	return nil
}

// DefaultPath returns ~/.config/packexport/config.toml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "packexport", "config.toml"), nil
}

// Load finds and loads the configuration. With an empty customPath the
// default location is tried and a missing file is not an error. A custom
// path must exist.
func Load(customPath string) (Config, error) {
	cfg := Default
	isCustomPath := customPath != ""

	var configFile string
	if isCustomPath {
		abs, err := filepath.Abs(customPath)
		if err != nil {
			slog.Error("Could not determine absolute path for custom config file.", "path", customPath, "error", err)
			return Default, fmt.Errorf("invalid custom config path '%s': %w", customPath, err)
		}
		configFile = abs
		slog.Debug("Attempting to load configuration from custom path.", "resolved_absolute_path", configFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			slog.Warn("Could not determine user home directory. Using default settings only.", "error", err)
			return cfg, nil
		}
		configFile = path
		slog.Debug("Attempting to load configuration from default path.", "path", configFile)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if isCustomPath {
				slog.Error("Specified configuration file not found.", "path_read_attempted", configFile)
				return Default, fmt.Errorf("specified configuration file '%s' not found", configFile)
			}
			slog.Debug("No default config file found, using default settings.", "path", configFile)
			return cfg, nil
		}
		slog.Error("Error reading config file.", "path", configFile, "error", err)
		return Default, fmt.Errorf("error reading config file '%s': %w", configFile, err)
	}
	if len(content) == 0 {
		slog.Info("Configuration file is empty, using default settings.", "path", configFile)
		return cfg, nil
	}

	return Decode(string(content), configFile)
}

// Decode parses TOML content on top of the defaults. source only labels log
// lines and errors.
func Decode(content, source string) (Config, error) {
	var loaded Config
	meta, err := toml.Decode(content, &loaded)
	if err != nil {
		slog.Error("Error decoding TOML config file, using default settings.", "path", source, "error", err)
		return Default, fmt.Errorf("error decoding TOML from '%s': %w", source, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		slog.Warn("Unrecognized keys found in config file.", "path", source, "keys", undecoded)
	}

	cfg := loaded.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Default, fmt.Errorf("invalid config '%s': %w", source, err)
	}

	slog.Debug("Configuration loaded successfully.",
		"source", source,
		"separator", *cfg.Separator,
		"ignore_file", *cfg.IgnoreFile,
		"output_dir", *cfg.OutputDir,
		"compression", *cfg.Compression,
		"color", *cfg.Color,
		"check_free_space", *cfg.CheckFreeSpace,
		"cascade_uncover", *cfg.CascadeUncover,
	)
	return cfg, nil
}

// withDefaults fills every key the file left unset.
func (c Config) withDefaults() Config {
	if c.Separator == nil {
		c.Separator = Default.Separator
	}
	if c.IgnoreFile == nil || *c.IgnoreFile == "" {
		c.IgnoreFile = Default.IgnoreFile
	}
	if c.OutputDir == nil {
		c.OutputDir = Default.OutputDir
	}
	if c.Compression == nil {
		c.Compression = Default.Compression
	}
	if c.Color == nil {
		c.Color = Default.Color
	}
	if c.CheckFreeSpace == nil {
		c.CheckFreeSpace = Default.CheckFreeSpace
	}
	if c.CascadeUncover == nil {
		c.CascadeUncover = Default.CascadeUncover
	}
	return c
}
