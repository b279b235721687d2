package settings

import (
	"encoding/json"
	"errors"
	"os"

	"grblgo/core"
)

// JSONStore persists a Document as JSON, the hosted stand-in for an
// EEPROM-backed Store.
type JSONStore struct {
	Path string
}

// NewJSONStore returns a Store backed by the file at path. The file
// need not exist yet; Load returns a fresh default Document in that
// case, the same wipe-and-restore a settings-version mismatch gets.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{Path: path}
}

func (s *JSONStore) Load() (*Document, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Version != SettingsVersion {
		// Settings-version mismatch: wipe and restore defaults, as grbl does
		// when EEPROM's version byte doesn't match firmware expectations.
		core.Debugf("settings: version %d != %d, restoring defaults", doc.Version, SettingsVersion)
		return NewDocument(), nil
	}
	return &doc, nil
}

func (s *JSONStore) Save(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o644)
}

// MemStore is an in-memory Store for tests, avoiding filesystem I/O.
type MemStore struct {
	doc *Document
}

func NewMemStore() *MemStore {
	return &MemStore{doc: NewDocument()}
}

func (s *MemStore) Load() (*Document, error) {
	if s.doc == nil {
		return NewDocument(), nil
	}
	clone := *s.doc
	return &clone, nil
}

func (s *MemStore) Save(doc *Document) error {
	clone := *doc
	s.doc = &clone
	return nil
}
