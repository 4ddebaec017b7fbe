// internal/ignorefile/store.go

// Package ignorefile persists the ignore-prefix set of an instance root.
//
// The file is UTF-8 text with one prefix per line. Reading tolerates a
// missing or unreadable file and blank lines; writing goes through a
// temporary file and a rename while holding an advisory lock, so readers
// never observe a half-written file.
package ignorefile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// DefaultName is the ignore file name inside an instance root.
const DefaultName = ".packignore"

// ErrEmptyPath indicates a Store created without a file path.
var ErrEmptyPath = errors.New("ignore file path is empty")

// Store reads and writes one ignore file.
type Store struct {
	path   string
	logger *slog.Logger
}

// New returns a store for the file at path. A nil logger means slog.Default().
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// ForRoot returns a store for the named ignore file inside root.
// An empty name selects DefaultName.
func ForRoot(root, name string, logger *slog.Logger) *Store {
	if name == "" {
		name = DefaultName
	}
	return New(filepath.Join(root, name), logger)
}

// Path returns the file path.
func (s *Store) Path() string { return s.path }

// Load returns the stored prefixes. A missing or unreadable file yields an
// empty set and is only logged at debug level.
func (s *Store) Load() []string {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("No ignore file found, starting with an empty ignore set.", "path", s.path)
		} else {
			s.logger.Debug("Ignore file unreadable, starting with an empty ignore set.", "path", s.path, "error", err)
		}
		return nil
	}
	prefixes := Parse(data)
	s.logger.Debug("Loaded ignore file.", "path", s.path, "prefixes", len(prefixes))
	return prefixes
}

// Save replaces the file content with prefixes joined by newlines.
func (s *Store) Save(prefixes []string) error {
	if s.path == "" {
		return ErrEmptyPath
	}
	lock := newFileLock(lockPathFor(s.path))
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() {
		if errUnlock := lock.Unlock(); errUnlock != nil {
			s.logger.Warn("Failed to release ignore file lock.", "path", s.path, "error", errUnlock)
		}
	}()

	if err := atomicWrite(s.path, Format(prefixes)); err != nil {
		return fmt.Errorf("save ignore file %s: %w", s.path, err)
	}
	s.logger.Debug("Saved ignore file.", "path", s.path, "prefixes", len(prefixes))
	return nil
}

// Parse splits ignore file content into prefixes, dropping blank lines and
// carriage returns left by CRLF line endings.
func Parse(data []byte) []string {
	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Format joins prefixes with "\n". There is no trailing newline.
func Format(prefixes []string) []byte {
	return []byte(strings.Join(prefixes, "\n"))
}
