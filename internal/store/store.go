package store

import "github.com/tourneykit/slotbot/internal/engine"

// Store loads and saves the full state snapshot. Save replaces the whole
// previous snapshot; partial updates are not part of the contract.
type Store interface {
	Load() (*engine.Snapshot, error)
	Save(*engine.Snapshot) error
	Close() error
}
