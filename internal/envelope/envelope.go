package envelope

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"

	"lifeline/internal/crypto"
	"lifeline/internal/domain"
)

// NonceSize is the XChaCha20-Poly1305 nonce prefixed to every ciphertext.
const NonceSize = chacha20poly1305.NonceSizeX

// ErrUndecryptable is returned whenever unwrapping or decryption fails,
// regardless of cause.
var ErrUndecryptable = errors.New("envelope: undecryptable")

// Wrap seals key for the recipient under label. Every call uses a fresh
// ephemeral key pair, so envelopes for the same inputs are never
// bit-identical.
func Wrap(key []byte, recipient domain.PublicKey, label string) (domain.KeyEnvelope, error) {
	ephSK, ephPK, err := crypto.GenerateKeypair()
	if err != nil {
		return domain.KeyEnvelope{}, err
	}
	defer crypto.Wipe(ephSK[:])

	shared, err := crypto.SharedX(ephSK, recipient)
	if err != nil {
		return domain.KeyEnvelope{}, err
	}
	wrapKey := deriveWrapKey(label, shared)
	crypto.Wipe(shared[:])
	defer crypto.Wipe(wrapKey)

	sealed, err := seal(wrapKey, key)
	if err != nil {
		return domain.KeyEnvelope{}, err
	}
	return domain.KeyEnvelope{
		WrappedKey:   sealed,
		EphemeralPub: ephPK.Slice(),
	}, nil
}

// Unwrap recovers the key sealed in env using the recipient's secret key and
// the same label it was wrapped under.
func Unwrap(env domain.KeyEnvelope, sk domain.SecretKey, label string) ([]byte, error) {
	ephPub, err := crypto.ParsePublicKey(env.EphemeralPub)
	if err != nil {
		return nil, ErrUndecryptable
	}
	shared, err := crypto.SharedX(sk, ephPub)
	if err != nil {
		return nil, ErrUndecryptable
	}
	wrapKey := deriveWrapKey(label, shared)
	crypto.Wipe(shared[:])
	defer crypto.Wipe(wrapKey)

	key, err := open(wrapKey, env.WrappedKey)
	if err != nil {
		return nil, ErrUndecryptable
	}
	return key, nil
}

// deriveWrapKey binds the wrap key to the label so a key wrapped for one
// purpose can never be silently reused for another.
func deriveWrapKey(label string, sharedX [32]byte) []byte {
	h := sha256.New()
	h.Write([]byte(label))
	h.Write(sharedX[:])
	return h.Sum(nil)
}

// seal returns nonce || ciphertext under an XChaCha20-Poly1305 key.
func seal(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// open reverses seal.
func open(key, sealed []byte) ([]byte, error) {
	if len(sealed) < NonceSize {
		return nil, ErrUndecryptable
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, sealed[:NonceSize], sealed[NonceSize:], nil)
}
