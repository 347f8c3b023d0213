package crypto

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"lifeline/internal/domain"
)

// ErrInvalidPublicKey is returned for bytes that are not a valid point.
var ErrInvalidPublicKey = errors.New("crypto: invalid public key")

// GenerateKeypair returns a fresh secp256k1 key pair.
func GenerateKeypair() (domain.SecretKey, domain.PublicKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return domain.SecretKey{}, domain.PublicKey{}, err
	}
	defer priv.Zero()

	var sk domain.SecretKey
	copy(sk[:], priv.Serialize())
	var pk domain.PublicKey
	copy(pk[:], priv.PubKey().SerializeCompressed())
	return sk, pk, nil
}

// PublicKeyOf derives the compressed public point for a secret scalar.
func PublicKeyOf(sk domain.SecretKey) domain.PublicKey {
	priv := secp256k1.PrivKeyFromBytes(sk[:])
	defer priv.Zero()

	var pk domain.PublicKey
	copy(pk[:], priv.PubKey().SerializeCompressed())
	return pk
}

// ParsePublicKey validates b as a curve point and returns its compressed form.
func ParsePublicKey(b []byte) (domain.PublicKey, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return domain.PublicKey{}, ErrInvalidPublicKey
	}
	var pk domain.PublicKey
	copy(pk[:], pub.SerializeCompressed())
	return pk, nil
}

// SharedX computes the X coordinate of the ECDH point between sk and pub.
func SharedX(sk domain.SecretKey, pub domain.PublicKey) ([32]byte, error) {
	var out [32]byte
	p, err := secp256k1.ParsePubKey(pub[:])
	if err != nil {
		return out, ErrInvalidPublicKey
	}
	priv := secp256k1.PrivKeyFromBytes(sk[:])
	defer priv.Zero()

	shared := secp256k1.GenerateSharedSecret(priv, p)
	copy(out[:], shared)
	Wipe(shared)
	return out, nil
}
