package crypto_test

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"lifeline/internal/crypto"
)

func TestGenerateKeypair_RoundTrip(t *testing.T) {
	sk, pk, err := crypto.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	if crypto.PublicKeyOf(sk) != pk {
		t.Fatal("derived public key does not match generated one")
	}
	if _, err := crypto.ParsePublicKey(pk.Slice()); err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
}

func TestParsePublicKey_Garbage_Fails(t *testing.T) {
	if _, err := crypto.ParsePublicKey(make([]byte, 33)); err == nil {
		t.Fatal("expected error for all-zero point")
	}
	if _, err := crypto.ParsePublicKey(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestSharedX_Symmetric(t *testing.T) {
	aSK, aPK, err := crypto.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	bSK, bPK, err := crypto.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}

	ab, err := crypto.SharedX(aSK, bPK)
	if err != nil {
		t.Fatalf("SharedX a->b: %v", err)
	}
	ba, err := crypto.SharedX(bSK, aPK)
	if err != nil {
		t.Fatalf("SharedX b->a: %v", err)
	}
	if ab != ba {
		t.Fatal("shared secrets differ")
	}
}

func TestSignDigest_VerifyDigest(t *testing.T) {
	sk, pk, err := crypto.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	digest := sha256.Sum256([]byte("hello"))

	sig, err := crypto.SignDigest(sk, digest)
	if err != nil {
		t.Fatalf("SignDigest: %v", err)
	}
	if !crypto.VerifyDigest(pk.Slice(), digest, sig) {
		t.Fatal("signature did not verify")
	}

	digest[0] ^= 0xff
	if crypto.VerifyDigest(pk.Slice(), digest, sig) {
		t.Fatal("signature verified over a different digest")
	}
}

// Every freshly generated key must round-trip sign/verify with its wire-form
// compressed pubkey, whichever y-parity prefix (0x02 or 0x03) it lands on.
func TestVerifyDigest_AllKeyParities(t *testing.T) {
	digest := sha256.Sum256([]byte("parity"))
	seen := map[byte]bool{}
	for i := 0; i < 64; i++ {
		sk, pk, err := crypto.GenerateKeypair()
		if err != nil {
			t.Fatalf("GenerateKeypair: %v", err)
		}
		sig, err := crypto.SignDigest(sk, digest)
		if err != nil {
			t.Fatalf("SignDigest: %v", err)
		}
		if !crypto.VerifyDigest(pk.Slice(), digest, sig) {
			t.Fatalf("key %d (prefix %#x): signature did not verify", i, pk[0])
		}
		seen[pk[0]] = true
	}
	if !seen[0x02] || !seen[0x03] {
		t.Fatalf("64 keys never covered both parity prefixes: %v", seen)
	}
}

func TestWipe_Zeroes(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	crypto.Wipe(buf)
	if !bytes.Equal(buf, make([]byte, 4)) {
		t.Fatalf("buffer not zeroed: %v", buf)
	}
}

func TestFingerprint_StableAndShort(t *testing.T) {
	fp := crypto.Fingerprint([]byte("data"))
	if fp != crypto.Fingerprint([]byte("data")) {
		t.Fatal("fingerprint not deterministic")
	}
	if len(fp) != 16 {
		t.Fatalf("fingerprint length = %d, want 16 hex chars", len(fp))
	}
	if fp == crypto.Fingerprint([]byte("datb")) {
		t.Fatal("distinct inputs collided")
	}
}
