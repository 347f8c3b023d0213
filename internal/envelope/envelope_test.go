package envelope_test

import (
	"bytes"
	"testing"

	"lifeline/internal/crypto"
	"lifeline/internal/domain"
	"lifeline/internal/envelope"
)

const testLabel = "test-label-v1"

func keypair(t *testing.T) (domain.SecretKey, domain.PublicKey) {
	t.Helper()
	sk, pk, err := crypto.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	return sk, pk
}

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	sk, pk := keypair(t)
	key := []byte("0123456789abcdef0123456789abcdef")

	env, err := envelope.Wrap(key, pk, testLabel)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	got, err := envelope.Unwrap(env, sk, testLabel)
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Fatal("unwrapped key differs from original")
	}
}

func TestWrap_NeverBitIdentical(t *testing.T) {
	_, pk := keypair(t)
	key := []byte("0123456789abcdef0123456789abcdef")

	a, err := envelope.Wrap(key, pk, testLabel)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	b, err := envelope.Wrap(key, pk, testLabel)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if bytes.Equal(a.WrappedKey, b.WrappedKey) {
		t.Fatal("two wraps of the same key produced identical ciphertext")
	}
	if bytes.Equal(a.EphemeralPub, b.EphemeralPub) {
		t.Fatal("two wraps reused an ephemeral key")
	}
}

func TestUnwrap_WrongLabel_Fails(t *testing.T) {
	sk, pk := keypair(t)
	env, err := envelope.Wrap([]byte("secret key material here........"), pk, testLabel)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if _, err := envelope.Unwrap(env, sk, "other-label"); err == nil {
		t.Fatal("expected failure for wrong label")
	}
}

func TestUnwrap_WrongRecipient_Fails(t *testing.T) {
	_, pk := keypair(t)
	otherSK, _ := keypair(t)

	env, err := envelope.Wrap([]byte("secret key material here........"), pk, testLabel)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if _, err := envelope.Unwrap(env, otherSK, testLabel); err == nil {
		t.Fatal("expected failure for wrong secret key")
	}
}

func TestUnwrap_Tampered_Fails(t *testing.T) {
	sk, pk := keypair(t)
	env, err := envelope.Wrap([]byte("secret key material here........"), pk, testLabel)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	env.WrappedKey[len(env.WrappedKey)-1] ^= 0x01
	if _, err := envelope.Unwrap(env, sk, testLabel); err == nil {
		t.Fatal("expected failure for tampered ciphertext")
	}
}
