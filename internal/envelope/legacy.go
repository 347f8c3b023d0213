package envelope

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"lifeline/internal/crypto"
	"lifeline/internal/domain"
)

// legacyInfoPrefix keys the static derivation for the pre-envelope scheme.
const legacyInfoPrefix = "lifeline-legacy-v0:"

// legacyStaticKey derives the per-identity static key the old scheme used in
// place of per-object ephemeral wrapping. No forward secrecy: the same
// identity and label always yield the same key.
func legacyStaticKey(sk domain.SecretKey, label string) ([]byte, error) {
	r := hkdf.New(sha256.New, sk[:], nil, []byte(legacyInfoPrefix+label))
	key := make([]byte, contentKeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// EncryptObjectLegacy encrypts raw under the identity's static key. It exists
// only so tests and migrations can produce old-scheme payloads.
func EncryptObjectLegacy(raw []byte, sk domain.SecretKey, label string) ([]byte, error) {
	key, err := legacyStaticKey(sk, label)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)
	return seal(key, raw)
}

// DecryptObjectLegacy attempts the backward-compatible static-key scheme.
func DecryptObjectLegacy(ciphertext []byte, sk domain.SecretKey, label string) ([]byte, error) {
	key, err := legacyStaticKey(sk, label)
	if err != nil {
		return nil, ErrUndecryptable
	}
	defer crypto.Wipe(key)

	raw, err := open(key, ciphertext)
	if err != nil {
		return nil, ErrUndecryptable
	}
	return raw, nil
}
