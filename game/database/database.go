package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wricardo/sokoban/game/level"
)

var (
	ErrEmptyDatabase = errors.New("level database is empty")
	ErrLevelNotFound = errors.New("level not found")
)

// Database is the ordered, read-only set of levels parsed from a directory
type Database struct {
	dir     string
	levels  []*level.Level
	skipped []error
}

// Option configures Load
type Option func(*options)

type options struct {
	extensions []string
	quiet      bool
}

// WithExtensions only loads files whose extension matches one of exts
// (case-insensitive, leading dot optional). By default every file is loaded.
func WithExtensions(exts ...string) Option {
	return func(o *options) {
		for _, ext := range exts {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			o.extensions = append(o.extensions, strings.ToLower(ext))
		}
	}
}

// WithoutLogging suppresses the per-level parse failure log lines
func WithoutLogging() Option {
	return func(o *options) {
		o.quiet = true
	}
}

// Load parses every level file in dir
func Load(dir string, opts ...Option) (*Database, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	db := &Database{dir: dir}
	for _, entry := range entries {
		if entry.IsDir() || !o.accepts(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read level file %s: %w", entry.Name(), err)
		}

		for lvl, err := range level.Parse(entry.Name(), string(data)) {
			if err != nil {
				if !o.quiet {
					log.Printf("Skipping level: %v", err)
				}
				db.skipped = append(db.skipped, err)
				continue
			}
			db.levels = append(db.levels, lvl)
		}
	}

	return db, nil
}

// New builds a database from already parsed levels
func New(levels ...*level.Level) *Database {
	db := &Database{levels: make([]*level.Level, 0, len(levels))}
	for _, l := range levels {
		db.levels = append(db.levels, l.Clone())
	}
	return db
}

func (o *options) accepts(name string) bool {
	if len(o.extensions) == 0 {
		return true
	}
	return slices.Contains(o.extensions, strings.ToLower(filepath.Ext(name)))
}

// Dir returns the directory the database was loaded from
func (db *Database) Dir() string {
	return db.dir
}

// Len returns the number of levels
func (db *Database) Len() int {
	return len(db.levels)
}

// First returns the first level in load order
func (db *Database) First() (*level.Level, error) {
	if len(db.levels) == 0 {
		return nil, ErrEmptyDatabase
	}
	return db.levels[0].Clone(), nil
}

// At returns the level at the 0-based position i
func (db *Database) At(i int) (*level.Level, error) {
	if len(db.levels) == 0 {
		return nil, ErrEmptyDatabase
	}
	if i < 0 || i >= len(db.levels) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrLevelNotFound, i, len(db.levels))
	}
	return db.levels[i].Clone(), nil
}

// Find returns the first level with the given name
func (db *Database) Find(name string) (*level.Level, error) {
	for _, l := range db.levels {
		if l.Name == name {
			return l.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrLevelNotFound, name)
}

// Levels returns every level in load order
func (db *Database) Levels() []*level.Level {
	out := make([]*level.Level, len(db.levels))
	for i, l := range db.levels {
		out[i] = l.Clone()
	}
	return out
}

// Skipped returns the parse errors of the level blocks that were dropped
func (db *Database) Skipped() []error {
	return slices.Clone(db.skipped)
}
