package badger

import (
	"log/slog"

	"github.com/poiesic/docchat/store"
)

// Store implements store.Store on top of a BadgerDB backend.
type Store struct {
	backend *Backend
	logger  *slog.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore creates a Store over the given backend.
func NewStore(backend *Backend) *Store {
	return &Store{
		backend: backend,
		logger:  slog.Default().With("component", "badger-store"),
	}
}

// Open opens a BadgerDB database at path and returns a Store over it.
func Open(path string) (*Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return NewStore(backend), nil
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
