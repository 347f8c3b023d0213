// Package crypto wraps the secp256k1 primitives used across the app:
// identity key pairs, Diffie-Hellman shared secrets, Schnorr signatures over
// 32-byte digests, and public key fingerprints.
package crypto
