// Package store persists learned value tables between runs.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tictactoe/learner"
)

var ErrUnknownKind = errors.New("store: unknown kind")

// Store loads and saves a whole value table at once.
type Store interface {
	// Load returns the persisted table. When the backing data is missing it returns an
	// empty table and no error; on other failures it returns an empty table and the error.
	Load(ctx context.Context) (*learner.ValueTable, error)
	// Save replaces the persisted table with table.
	Save(ctx context.Context, table *learner.ValueTable) error
	Close() error
}

type Kind string

const (
	FileKind   Kind = "file"
	BadgerKind Kind = "badger"
)

// Open returns the store of the given kind rooted at path.
func Open(kind Kind, path string) (Store, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case FileKind:
		return NewFile(path), nil
	case BadgerKind:
		return OpenBadger(BadgerOptions{Path: path})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Reset clears all learning progress kept by s.
func Reset(ctx context.Context, s Store) error {
	return s.Save(ctx, learner.NewValueTable())
}
