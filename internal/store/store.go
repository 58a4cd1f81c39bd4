// Package store persists named input templates and a log of calculations in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a template or calculation does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when a template name is already taken.
	ErrDuplicateName = errors.New("template name already exists")
	// ErrNonFiniteResult is returned when a result contains an infinity or NaN.
	ErrNonFiniteResult = errors.New("result is not a finite number")
)

const timeLayout = time.RFC3339

// Store wraps a database handle opened with db.Open and migrated with migrations.Up.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Store backed by database.
func New(database *sql.DB) *Store {
	return &Store{db: database, now: time.Now}
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}
