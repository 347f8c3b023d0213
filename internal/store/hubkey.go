package store

import (
	"path/filepath"
	"sync"

	"lifeline/internal/domain"
)

const hubKeyFile = "hubkeys.json"

// HubKeyFileStore caches our own wrapped hub-key envelopes, keyed by hub id.
// The file holds only envelopes; the hub key itself is never written in
// plaintext.
type HubKeyFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewHubKeyFileStore returns a HubKeyFileStore rooted at dir.
func NewHubKeyFileStore(dir string) *HubKeyFileStore {
	return &HubKeyFileStore{dir: dir}
}

// SaveWrapped records the envelope for hub, replacing any previous one.
func (s *HubKeyFileStore) SaveWrapped(hub domain.HubID, env domain.RecipientEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, hubKeyFile)
	m := make(map[string]domain.RecipientEnvelope)
	if _, err := readJSON(path, &m); err != nil {
		return err
	}
	m[hub.String()] = env
	return writeJSON(path, m, 0o600)
}

// LoadWrapped returns the cached envelope for hub, if any.
func (s *HubKeyFileStore) LoadWrapped(hub domain.HubID) (domain.RecipientEnvelope, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]domain.RecipientEnvelope)
	if _, err := readJSON(filepath.Join(s.dir, hubKeyFile), &m); err != nil {
		return domain.RecipientEnvelope{}, false, err
	}
	env, ok := m[hub.String()]
	return env, ok, nil
}

// DeleteWrapped drops the cached envelope for hub.
func (s *HubKeyFileStore) DeleteWrapped(hub domain.HubID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, hubKeyFile)
	m := make(map[string]domain.RecipientEnvelope)
	ok, err := readJSON(path, &m)
	if err != nil || !ok {
		return err
	}
	delete(m, hub.String())
	return writeJSON(path, m, 0o600)
}

// Compile-time assertion that HubKeyFileStore implements domain.HubKeyStore.
var _ domain.HubKeyStore = (*HubKeyFileStore)(nil)
