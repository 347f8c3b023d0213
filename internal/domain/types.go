package domain

import (
	"encoding/hex"
	"encoding/json"
)

// HexBytes marshals as a lowercase hex string, matching the wire format used
// for envelopes and vault records.
type HexBytes []byte

// MarshalJSON encodes the bytes as a hex string.
func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

// UnmarshalJSON decodes a hex string into bytes.
func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*h = b
	return nil
}

// KeyEnvelope is a symmetric key asymmetrically wrapped for exactly one
// recipient under a domain-separation label. WrappedKey is
// nonce(24) || ciphertext; EphemeralPub is a 33-byte compressed point.
// Envelopes are immutable; rotation produces a new envelope.
type KeyEnvelope struct {
	WrappedKey   HexBytes `json:"wrappedKey"`
	EphemeralPub HexBytes `json:"ephemeralPubkey"`
}

// RecipientEnvelope tags a KeyEnvelope with the recipient it was wrapped for.
type RecipientEnvelope struct {
	Recipient HexBytes    `json:"recipient"`
	Envelope  KeyEnvelope `json:"envelope"`
}

// EncryptedObject is a JSON payload encrypted under a single-use content key.
// The content key exists only inside the envelopes; Ciphertext is
// nonce(24) || ciphertext under that key.
type EncryptedObject struct {
	Ciphertext         HexBytes            `json:"ciphertext"`
	AuthorEnvelope     KeyEnvelope         `json:"authorEnvelope"`
	RecipientEnvelopes []RecipientEnvelope `json:"recipientEnvelopes,omitempty"`
}

// VaultRecord is the persisted, PIN-encrypted identity record. The plaintext
// secret never touches durable storage. PubkeyFingerprint is a truncated hash
// rather than the raw public key so identity does not leak at rest.
type VaultRecord struct {
	Salt              HexBytes `json:"salt"`
	Iterations        int      `json:"iterations"`
	Nonce             HexBytes `json:"nonce"`
	Ciphertext        HexBytes `json:"ciphertext"`
	PubkeyFingerprint string   `json:"pubkeyFingerprint"`
}

// AuthToken authenticates a REST request. Token is a signature over
// prefix:pubkey:timestamp:method:path, valid for a short window around
// Timestamp.
type AuthToken struct {
	Pubkey    string `json:"pubkey"`
	Timestamp int64  `json:"timestamp"`
	Token     string `json:"token"`
}
