package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/clubot/internal/agenda"
)

// ErrStoreCorrupt is returned when a persisted document cannot be decoded
var ErrStoreCorrupt = errors.New("store document is corrupt")

// Backend loads and saves activity histories
type Backend interface {
	// Load returns the activity's store, empty if it was never saved
	Load(ctx context.Context, activity string) (*agenda.Store, error)
	// Save replaces the activity's document with store
	Save(ctx context.Context, activity string, store *agenda.Store) error
	// AppendArchive merges records removed by a retention policy into the
	// activity's archive document
	AppendArchive(ctx context.Context, activity string, archived *agenda.Store) error
}

// Decode parses a store document
func Decode(data []byte) (*agenda.Store, error) {
	store := agenda.NewStore()
	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreCorrupt, err)
	}
	return store, nil
}

// Encode renders a store document
func Encode(store *agenda.Store) ([]byte, error) {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding store: %w", err)
	}
	return data, nil
}

// documentName returns the document name of an activity history or archive
func documentName(activity string, archive bool) string {
	if archive {
		return activity + ".archive.json"
	}
	return activity + ".json"
}

// FileStorage keeps one document per activity in a data directory
type FileStorage struct {
	dataDir string
}

// NewFileStorage creates a FileStorage, creating dataDir if needed
func NewFileStorage(dataDir string) (*FileStorage, error) {
	dataDir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &FileStorage{
		dataDir: dataDir,
	}, nil
}

// ExpandHome expands a leading ~/ to the user's home directory
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Dir returns the data directory
func (s *FileStorage) Dir() string {
	return s.dataDir
}

// Path returns the path of an activity's document
func (s *FileStorage) Path(activity string) string {
	return filepath.Join(s.dataDir, documentName(activity, false))
}

func (s *FileStorage) archivePath(activity string) string {
	return filepath.Join(s.dataDir, documentName(activity, true))
}

// Load implements Backend
func (s *FileStorage) Load(ctx context.Context, activity string) (*agenda.Store, error) {
	return s.load(s.Path(activity))
}

// Save implements Backend
func (s *FileStorage) Save(ctx context.Context, activity string, store *agenda.Store) error {
	return s.save(s.Path(activity), store)
}

// AppendArchive implements Backend
func (s *FileStorage) AppendArchive(ctx context.Context, activity string, archived *agenda.Store) error {
	if archived == nil || archived.Len() == 0 {
		return nil
	}

	path := s.archivePath(activity)
	existing, err := s.load(path)
	if err != nil {
		return fmt.Errorf("loading archive: %w", err)
	}
	existing.Merge(archived)

	return s.save(path, existing)
}

func (s *FileStorage) load(path string) (*agenda.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No history yet
			return agenda.NewStore(), nil
		}
		return nil, fmt.Errorf("reading store: %w", err)
	}

	store, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// save writes the document to a temporary file and renames it into place
// so readers never observe a partial document.
func (s *FileStorage) save(path string, store *agenda.Store) error {
	data, err := Encode(store)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("setting store permissions: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing store: %w", err)
	}
	return nil
}
