// Package state persists per-document sync state between runs so that
// unchanged documents can be skipped. One JSON meta file per document,
// keyed by the sha256 of its id. No eviction policy is included.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Entry records what was last written for a document.
type Entry struct {
	ID        string    `json:"id"`
	UpdatedAt string    `json:"updated_at"`
	Filename  string    `json:"filename"`
	SavedAt   time.Time `json:"saved_at"`
}

// Store keeps entries on disk under Dir. A nil store or empty Dir disables
// state tracking: Load misses and Save is a no-op.
type Store struct {
	Dir string
}

func (s *Store) enabled() bool {
	return s != nil && s.Dir != ""
}

func (s *Store) path(id string) string {
	h := sha256.Sum256([]byte(id))
	return filepath.Join(s.Dir, hex.EncodeToString(h[:])+".json")
}

// Load returns the stored entry for a document id, or nil when absent.
func (s *Store) Load(id string) (*Entry, error) {
	if !s.enabled() || id == "" {
		return nil, nil
	}
	b, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		// Corrupt state files are treated as a miss, not a failure.
		return nil, nil
	}
	return &e, nil
}

// Save records the document's updated_at and filename.
func (s *Store) Save(id, updatedAt, filename string) error {
	if !s.enabled() {
		return nil
	}
	if id == "" {
		return errors.New("state: empty document id")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	e := Entry{ID: id, UpdatedAt: updatedAt, Filename: filename, SavedAt: time.Now().UTC()}
	b, err := json.Marshal(&e)
	if err != nil {
		return err
	}
	tmp := s.path(id) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(id))
}

// Unchanged reports whether the document's updated_at matches the stored
// entry. An empty updatedAt never matches, so such documents always sync.
func (s *Store) Unchanged(id, updatedAt string) bool {
	if !s.enabled() || updatedAt == "" {
		return false
	}
	e, err := s.Load(id)
	if err != nil || e == nil {
		return false
	}
	return e.UpdatedAt == updatedAt
}

// Clear removes every state file under Dir. Missing dirs are fine.
func (s *Store) Clear() error {
	if !s.enabled() {
		return nil
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		if filepath.Ext(ent.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, ent.Name())); err != nil {
			return err
		}
	}
	return nil
}
