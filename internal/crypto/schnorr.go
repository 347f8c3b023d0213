package crypto

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"

	"lifeline/internal/domain"
)

// SignDigest signs a 32-byte digest and returns the 64-byte signature.
func SignDigest(sk domain.SecretKey, digest [32]byte) ([]byte, error) {
	priv := secp256k1.PrivKeyFromBytes(sk[:])
	defer priv.Zero()

	sig, err := schnorr.Sign(priv, digest[:])
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}

// VerifyDigest reports whether sig is a valid signature over digest for the
// 33-byte compressed public key, the form events and auth tokens carry on
// the wire.
func VerifyDigest(compressedPub []byte, digest [32]byte, sig []byte) bool {
	pub, err := schnorr.ParsePubKey(compressedPub)
	if err != nil {
		return false
	}
	s, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	return s.Verify(digest[:], pub)
}
