package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"lifeline/internal/domain"
)

const vaultFile = "vault.json"

// VaultRecordStore persists the single encrypted vault record to disk.
type VaultRecordStore struct {
	dir string
	mu  sync.Mutex
}

// NewVaultRecordStore returns a VaultRecordStore rooted at dir.
func NewVaultRecordStore(dir string) *VaultRecordStore {
	return &VaultRecordStore{dir: dir}
}

// SaveRecord overwrites the stored record.
func (s *VaultRecordStore) SaveRecord(rec domain.VaultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(filepath.Join(s.dir, vaultFile), rec, 0o600)
}

// LoadRecord reads the stored record; ok is false when none exists.
func (s *VaultRecordStore) LoadRecord() (domain.VaultRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec domain.VaultRecord
	ok, err := readJSON(filepath.Join(s.dir, vaultFile), &rec)
	if err != nil {
		return domain.VaultRecord{}, false, err
	}
	return rec, ok, nil
}

// DeleteRecord removes the stored record entirely. Deleting a record that
// does not exist is not an error.
func (s *VaultRecordStore) DeleteRecord() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, vaultFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Compile-time assertion that VaultRecordStore implements domain.VaultStore.
var _ domain.VaultStore = (*VaultRecordStore)(nil)
