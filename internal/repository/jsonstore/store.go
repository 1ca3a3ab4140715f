// Package jsonstore persists the catalog, cooldown ledger, and article store
// as flat JSON documents under a single data directory. Every save is a
// whole-file rewrite through a temp file and rename, so a failed invocation
// never leaves a partially written document behind. Concurrent writers are
// not supported.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	productsFile  = "products.json"
	cooldownsFile = "cooldowns.json"
	articlesFile  = "articles.json"
)

// Store reads and writes the on-disk JSON documents.
type Store struct {
	dir string
	log *slog.Logger
}

// New creates the data directory if needed and returns a store rooted there.
func New(log *slog.Logger, dir string) (*Store, error) {
	const opn = "jsonstore.New"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: failed to create data directory: %w", opn, err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the data directory the store is rooted at.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readJSON decodes the named document into out. A missing file is reported
// via os.ErrNotExist so callers can substitute an empty default.
func (s *Store) readJSON(name string, out any) error {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// writeJSON atomically replaces the named document.
func (s *Store) writeJSON(name string, payload any) error {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err = tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", name, err)
	}
	if err = os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
