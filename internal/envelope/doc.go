// Package envelope implements asymmetric key wrapping and symmetric content
// encryption, both domain-separated by a caller-supplied label.
//
// Wrap derives a one-off wrap key from an ephemeral ECDH exchange with the
// recipient and seals the symmetric key under XChaCha20-Poly1305. Content is
// encrypted under a single-use content key that only ever exists inside the
// returned envelopes; discarding it after wrapping is the forward-secrecy
// boundary.
//
// All failures are fail-closed: a wrong label, wrong secret key, or tampered
// ciphertext yields ErrUndecryptable with no partial output.
package envelope
