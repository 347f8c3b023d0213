package hubkey

import (
	"crypto/rand"
	"errors"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"lifeline/internal/crypto"
	"lifeline/internal/domain"
	"lifeline/internal/envelope"
)

// WrapLabel domain-separates hub-key envelopes from every other use of
// envelope crypto.
const WrapLabel = "lifeline-hubkey-v1"

var (
	// ErrNoKey is returned when an operation needs an active hub key and
	// none is configured.
	ErrNoKey = errors.New("hubkey: no active key")
)

// Manager holds the active hub key for one configured hub.
type Manager struct {
	hub   domain.HubID
	store domain.HubKeyStore

	mu  sync.RWMutex
	key *domain.HubKey
}

// NewManager returns a manager for hub with no active key.
func NewManager(hub domain.HubID, store domain.HubKeyStore) *Manager {
	return &Manager{hub: hub, store: store}
}

// Hub returns the hub this manager serves.
func (m *Manager) Hub() domain.HubID { return m.hub }

// Activate installs key as the active hub key, replacing any previous one.
func (m *Manager) Activate(key domain.HubKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key != nil {
		crypto.Wipe(m.key[:])
	}
	held := key
	m.key = &held
}

// Active reports whether a hub key is currently loaded.
func (m *Manager) Active() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.key != nil
}

// Clear zeroes and drops the active key.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key != nil {
		crypto.Wipe(m.key[:])
		m.key = nil
	}
}

// EncryptContent seals a transport payload under the active key as
// nonce(24) || ciphertext.
func (m *Manager) EncryptContent(plaintext []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.key == nil {
		return nil, ErrNoKey
	}
	aead, err := chacha20poly1305.NewX(m.key[:])
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// DecryptContent opens a transport payload. It reports false when no key is
// active or the ciphertext does not authenticate; such payloads cannot be
// attributed to any topic and are dropped by the caller.
func (m *Manager) DecryptContent(ciphertext []byte) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.key == nil || len(ciphertext) < chacha20poly1305.NonceSizeX {
		return nil, false
	}
	aead, err := chacha20poly1305.NewX(m.key[:])
	if err != nil {
		return nil, false
	}
	plaintext, err := aead.Open(nil,
		ciphertext[:chacha20poly1305.NonceSizeX],
		ciphertext[chacha20poly1305.NonceSizeX:], nil)
	if err != nil {
		return nil, false
	}
	return plaintext, true
}

// Distribute wraps the active key once per member for delivery.
func (m *Manager) Distribute(members []domain.PublicKey) ([]domain.RecipientEnvelope, error) {
	m.mu.RLock()
	if m.key == nil {
		m.mu.RUnlock()
		return nil, ErrNoKey
	}
	key := *m.key
	m.mu.RUnlock()
	defer crypto.Wipe(key[:])

	envs := make([]domain.RecipientEnvelope, 0, len(members))
	for _, member := range members {
		env, err := envelope.Wrap(key[:], member, WrapLabel)
		if err != nil {
			return nil, err
		}
		envs = append(envs, domain.RecipientEnvelope{
			Recipient: member.Slice(),
			Envelope:  env,
		})
	}
	return envs, nil
}

// Rotate generates a fresh hub key, activates it, and returns envelopes for
// the current member set. Readers of the old key must adopt a new envelope
// to keep decrypting.
func (m *Manager) Rotate(members []domain.PublicKey) ([]domain.RecipientEnvelope, error) {
	var key domain.HubKey
	if _, err := rand.Read(key[:]); err != nil {
		return nil, err
	}
	m.Activate(key)
	crypto.Wipe(key[:])
	return m.Distribute(members)
}

// Adopt unwraps a hub-key envelope addressed to us, activates the key, and
// caches the envelope so a restart can re-adopt without re-distribution.
func (m *Manager) Adopt(env domain.RecipientEnvelope, sk domain.SecretKey) error {
	raw, err := envelope.Unwrap(env.Envelope, sk, WrapLabel)
	if err != nil {
		return err
	}
	defer crypto.Wipe(raw)
	if len(raw) != len(domain.HubKey{}) {
		return envelope.ErrUndecryptable
	}

	var key domain.HubKey
	copy(key[:], raw)
	m.Activate(key)
	crypto.Wipe(key[:])

	if m.store != nil {
		return m.store.SaveWrapped(m.hub, env)
	}
	return nil
}

// Restore re-adopts the cached envelope from disk, if one exists.
func (m *Manager) Restore(sk domain.SecretKey) (bool, error) {
	if m.store == nil {
		return false, nil
	}
	env, ok, err := m.store.LoadWrapped(m.hub)
	if err != nil || !ok {
		return false, err
	}
	if err := m.Adopt(env, sk); err != nil {
		return false, err
	}
	return true, nil
}

// Compile-time assertion that Manager implements domain.TransportCipher.
var _ domain.TransportCipher = (*Manager)(nil)
