package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tourneykit/slotbot/internal/engine"
)

// FileStore persists the snapshot as a single JSON file, fully rewritten
// on every save via a temp file and rename so readers never observe a
// partial write.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store, making the parent directory
// if needed.
func NewFileStore(path string) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// fileSnapshot mirrors engine.Snapshot with a pointer gate flag so a
// legacy file that predates the field defaults to open rather than
// locked.
type fileSnapshot struct {
	Teams            map[string]*engine.Team    `json:"teams"`
	Slots            map[engine.SlotID][]string `json:"slots"`
	TableMessages    map[engine.SlotID]string   `json:"table_messages"`
	RegistrationOpen *bool                      `json:"registration_open"`
}

// Load reads the snapshot. A missing file yields an empty snapshot, and
// any missing top-level key is initialized to its empty default so older
// files keep loading as the schema grows.
func (s *FileStore) Load() (*engine.Snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return engine.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var fileSnap fileSnapshot
	if err := json.Unmarshal(raw, &fileSnap); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	snap := &engine.Snapshot{
		Teams:            fileSnap.Teams,
		Slots:            fileSnap.Slots,
		TableMessages:    fileSnap.TableMessages,
		RegistrationOpen: fileSnap.RegistrationOpen == nil || *fileSnap.RegistrationOpen,
	}
	snap.Normalize()
	return snap, nil
}

// Save writes the snapshot to a temp file in the same directory and
// renames it over the previous one.
func (s *FileStore) Save(snap *engine.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".slots-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Close is a no-op; every save opens and closes its own file.
func (s *FileStore) Close() error { return nil }
