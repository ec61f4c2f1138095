// Package logstore owns the durable representation of the usage log: a single
// JSON document holding every recorded day. Loads and saves always cover the
// whole document; there are no partial updates. Days are never pruned, so the
// document grows for the lifetime of the installation.
package logstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/yijiawu/genstudio/internal/model"
)

const fileName = "usage_log.json"

// Store reads and writes the usage log document under a data directory.
type Store struct {
	path string
}

// New returns a store backed by dataDir. The directory is created on the
// first save, not here.
func New(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, fileName)}
}

// Path returns the location of the backing document.
func (s *Store) Path() string {
	return s.path
}

// Dir returns the data directory the document lives in.
func (s *Store) Dir() string {
	return filepath.Dir(s.path)
}

// LoadAll reads the full log. A missing document is a first run and yields an
// empty store. An unparsable document is logged and treated as empty rather
// than crashing; the next save overwrites it.
func (s *Store) LoadAll() (*model.LogStore, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewLogStore(), nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", model.ErrStoreUnavailable, s.path, err)
	}

	store := model.NewLogStore()
	if err := json.Unmarshal(data, store); err != nil {
		log.Printf("logstore: discarding corrupt log %s: %v", s.path, err)
		return model.NewLogStore(), nil
	}
	return store, nil
}

// SaveAll overwrites the full log. The document is written to a temp file and
// renamed into place, so a failed save leaves the prior bytes untouched.
func (s *Store) SaveAll(store *model.LogStore) error {
	data, err := marshal(store)
	if err != nil {
		return fmt.Errorf("%w: encode log: %v", model.ErrStoreUnavailable, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("%w: create data dir: %v", model.ErrStoreUnavailable, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", model.ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", model.ErrStoreUnavailable, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", model.ErrStoreUnavailable, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", model.ErrStoreUnavailable, s.path, err)
	}
	return nil
}

// marshal produces the canonical document bytes: date-sorted days, two-space
// indent, trailing newline. Saving a freshly loaded store is a byte no-op.
func marshal(store *model.LogStore) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(store); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
