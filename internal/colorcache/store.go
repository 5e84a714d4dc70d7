// Package colorcache persists the identifier→color map across process
// restarts. The cache is a single TOML file keyed by a settings
// fingerprint; a fingerprint mismatch means the file belongs to a
// different configuration and its contents are ignored.
package colorcache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// File is the persisted cache contents.
type File struct {
	// SettingsHash is the fingerprint of the settings the colors
	// were generated under.
	SettingsHash string `toml:"settings_hash"`

	// Colors maps identifier text to "#RRGGBB".
	Colors map[string]string `toml:"colors"`
}

// Store reads and writes the cache file at one path.
type Store struct {
	path string
	log  zerolog.Logger
}

// DefaultPath returns the cache file location under the user cache
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(dir, "semhl", "color_cache.toml"), nil
}

// NewStore creates a store bound to path.
func NewStore(path string, log zerolog.Logger) *Store {
	return &Store{path: path, log: log}
}

// Path returns the file path the store is bound to.
func (s *Store) Path() string {
	return s.path
}

// Load reads the cache file. An absent, unreadable, or undecodable
// file yields a zero File; cache reads never fail loudly.
func (s *Store) Load() File {
	var out File
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Debug().Err(err).Str("path", s.path).Msg("color cache unreadable")
		}
		return File{}
	}
	if err := toml.Unmarshal(data, &out); err != nil {
		s.log.Debug().Err(err).Str("path", s.path).Msg("color cache undecodable, treating as absent")
		return File{}
	}
	return out
}

// Save writes the cache atomically: a sibling temp file is written
// first, then renamed over the destination. Concurrent processes see
// either the old or the new file, never a torn one.
func (s *Store) Save(f File) error {
	payload, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode color cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// Clear removes the cache file; a missing file is not an error.
func (s *Store) Clear() {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Debug().Err(err).Str("path", s.path).Msg("color cache remove failed")
	}
}
