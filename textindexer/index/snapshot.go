package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Snapshot is the durable serialized form of the full-text index: the
// ordered list of indexed field names plus the full document collection.
// It is the sole persisted representation of the search index; in-memory
// indexes are always rebuilt from it.
type Snapshot struct {
	Fields    []string   `json:"fields"`
	Documents []Document `json:"documents"`
}

// DefaultFields returns the ordered field-name list every snapshot declares.
func DefaultFields() []string {
	return []string{"title", "content", "description", "links"}
}

// EmptySnapshot returns a structurally valid snapshot with no documents.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Fields:    DefaultFields(),
		Documents: []Document{},
	}
}

// Upsert inserts doc into the snapshot's document collection, replacing any
// existing document with the same ID.
func (s *Snapshot) Upsert(doc Document) {
	for i := range s.Documents {
		if s.Documents[i].ID == doc.ID {
			s.Documents[i] = doc

			return
		}
	}

	s.Documents = append(s.Documents, doc)
}

// WriteFile persists the snapshot as JSON at path, fully overwriting any
// previous snapshot. The write goes through a temporary file followed by a
// rename so readers never observe a partially written snapshot.
func (s *Snapshot) WriteFile(path string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("snapshot: write: %w", err)
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("snapshot: close temp file: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("snapshot: rename: %w", err)
	}

	return nil
}

// LoadSnapshot reads and validates a persisted snapshot. A snapshot whose
// fields or documents lists are absent yields ErrInvalidSnapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %q: %w", path, err)
	}

	// Decode through pointers so absent top-level keys are distinguishable
	// from empty lists.
	var raw struct {
		Fields    *[]string   `json:"fields"`
		Documents *[]Document `json:"documents"`
	}

	if err = json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("snapshot: decode %q: %w", path, ErrInvalidSnapshot)
	}

	if raw.Fields == nil || len(*raw.Fields) == 0 || raw.Documents == nil {
		return nil, fmt.Errorf("snapshot: validate %q: %w", path, ErrInvalidSnapshot)
	}

	return &Snapshot{
		Fields:    *raw.Fields,
		Documents: *raw.Documents,
	}, nil
}

// LoadSnapshotOrEmpty reads a persisted snapshot, substituting an empty
// snapshot when the file is missing, unreadable or fails validation. A
// structurally valid "no results" state is preferred to a hard error on
// the query load path.
func LoadSnapshotOrEmpty(path string) *Snapshot {
	snapshot, err := LoadSnapshot(path)
	if err != nil {
		return EmptySnapshot()
	}

	return snapshot
}

// IsNotExist reports whether a snapshot load failure was caused by a
// missing snapshot file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
