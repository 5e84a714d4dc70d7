// Package config handles semhl configuration loading and validation.
package config

import (
	"os"
	"path/filepath"
)

// DefaultMaxFileSize is the size gate above which buffers are skipped.
const DefaultMaxFileSize = 102400

// Config is the root configuration structure for semhl.
type Config struct {
	// Filetypes the engine auto-attaches to. Empty means no
	// auto-attach; buffers are only colored on explicit load.
	Filetypes []string `yaml:"filetypes" mapstructure:"filetypes"`

	// MaxFileSize is the byte limit above which a buffer is skipped.
	MaxFileSize int64 `yaml:"max_file_size" mapstructure:"max_file_size"`

	// Color settings.
	Color ColorConfig `yaml:"color" mapstructure:"color"`

	// Cache settings.
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ColorConfig contains color generation settings.
type ColorConfig struct {
	// MinDeltaE is the minimum CIE76 distance from the background.
	MinDeltaE float64 `yaml:"min_delta_e" mapstructure:"min_delta_e"`

	// TargetDeltaE is the distance generation aims for.
	TargetDeltaE float64 `yaml:"target_delta_e" mapstructure:"target_delta_e"`

	// LMin and LMax are absolute lightness bounds in [0,100]. Nil
	// derives the range from the background kind.
	LMin *float64 `yaml:"l_min" mapstructure:"l_min"`
	LMax *float64 `yaml:"l_max" mapstructure:"l_max"`
}

// CacheConfig contains persistence settings.
type CacheConfig struct {
	// Path is the color cache file location (default:
	// <user_cache>/semhl/color_cache.toml).
	Path string `yaml:"path" mapstructure:"path"`

	// Disabled turns off on-disk persistence entirely.
	Disabled bool `yaml:"disabled" mapstructure:"disabled"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Filetypes:   []string{},
		MaxFileSize: DefaultMaxFileSize,
		Color: ColorConfig{
			MinDeltaE:    5,
			TargetDeltaE: 15,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
	}
}

// Validate repairs invalid values in place. Settings the engine can
// clamp are clamped rather than rejected: out-of-range lightness
// bounds are pulled back into [0,100], a non-positive MinDeltaE means
// accept-any, and a non-positive MaxFileSize falls back to the
// default.
func (c *Config) Validate() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.Color.TargetDeltaE <= 0 {
		c.Color.TargetDeltaE = 15
	}
	if c.Color.MinDeltaE < 0 {
		c.Color.MinDeltaE = 0
	}
	clampBound(c.Color.LMin)
	clampBound(c.Color.LMax)
	if c.Color.LMin != nil && c.Color.LMax != nil && *c.Color.LMin > *c.Color.LMax {
		*c.Color.LMin, *c.Color.LMax = *c.Color.LMax, *c.Color.LMin
	}
}

func clampBound(v *float64) {
	if v == nil {
		return
	}
	if *v < 0 {
		*v = 0
	}
	if *v > 100 {
		*v = 100
	}
}

// CachePath returns the configured cache file path, or the default
// under the user cache directory.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return expandTilde(c.Cache.Path), nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "semhl", "color_cache.toml"), nil
}

// TracksFiletype reports whether the engine auto-attaches to ft.
func (c *Config) TracksFiletype(ft string) bool {
	for _, want := range c.Filetypes {
		if want == ft {
			return true
		}
	}
	return false
}
