// Package hubkey manages the symmetric group key shared by one hub's
// members. The active key decrypts and encrypts the relay's transport-level
// event payloads, a distinct layer from per-object end-to-end encryption.
// Distribution and rotation wrap the key for each member via envelope
// crypto; the key itself is never persisted or transmitted in plaintext.
package hubkey
