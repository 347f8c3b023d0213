package domain

// Signer exposes signing capability without ever returning the secret key.
// The boolean from PublicKey reports whether a secret is currently loaded.
type Signer interface {
	PublicKey() (PublicKey, bool)
	SignDigest(digest [32]byte) ([]byte, error)
}

// TransportCipher encrypts and decrypts relay transport payloads with the
// active hub key. Decrypt reports false when no key is configured or the
// ciphertext does not authenticate; callers drop such payloads.
type TransportCipher interface {
	EncryptContent(plaintext []byte) ([]byte, error)
	DecryptContent(ciphertext []byte) ([]byte, bool)
}

// VaultStore persists the single encrypted vault record.
type VaultStore interface {
	SaveRecord(rec VaultRecord) error
	LoadRecord() (VaultRecord, bool, error)
	DeleteRecord() error
}

// HubKeyStore caches our own wrapped hub-key envelopes so a restart can
// re-adopt the hub key without waiting for re-distribution.
type HubKeyStore interface {
	SaveWrapped(hub HubID, env RecipientEnvelope) error
	LoadWrapped(hub HubID) (RecipientEnvelope, bool, error)
	DeleteWrapped(hub HubID) error
}
