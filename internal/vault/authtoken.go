package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"lifeline/internal/crypto"
	"lifeline/internal/domain"
)

// AuthTokenPrefix versions the signed request format.
const AuthTokenPrefix = "lifeline-auth-v1"

// DefaultTokenWindow bounds how far a token's timestamp may drift from the
// verifier's clock.
const DefaultTokenWindow = 60 * time.Second

// CreateAuthToken mints a signed token for one REST request. The signature
// covers prefix:pubkey:timestamp:method:path, binding the token to a short
// validity window.
func (v *Vault) CreateAuthToken(now time.Time, method, path string) (domain.AuthToken, error) {
	pub, ok := v.PublicKey()
	if !ok {
		return domain.AuthToken{}, ErrLocked
	}
	pubkey := hex.EncodeToString(pub.Slice())
	ts := now.Unix()

	digest := authTokenDigest(pubkey, ts, method, path)
	sig, err := v.SignDigest(digest)
	if err != nil {
		return domain.AuthToken{}, err
	}
	return domain.AuthToken{
		Pubkey:    pubkey,
		Timestamp: ts,
		Token:     hex.EncodeToString(sig),
	}, nil
}

// VerifyAuthToken checks a token's signature and timestamp window against the
// request it claims to authenticate.
func VerifyAuthToken(tok domain.AuthToken, now time.Time, method, path string, window time.Duration) bool {
	if window <= 0 {
		window = DefaultTokenWindow
	}
	drift := now.Unix() - tok.Timestamp
	if drift < 0 {
		drift = -drift
	}
	if time.Duration(drift)*time.Second > window {
		return false
	}
	pub, err := hex.DecodeString(tok.Pubkey)
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(tok.Token)
	if err != nil {
		return false
	}
	return crypto.VerifyDigest(pub, authTokenDigest(tok.Pubkey, tok.Timestamp, method, path), sig)
}

func authTokenDigest(pubkey string, ts int64, method, path string) [32]byte {
	msg := fmt.Sprintf("%s:%s:%d:%s:%s", AuthTokenPrefix, pubkey, ts, method, path)
	return sha256.Sum256([]byte(msg))
}
