package relay_test

import (
	"testing"
	"time"

	"lifeline/internal/crypto"
	"lifeline/internal/domain"
	"lifeline/internal/relay"
)

// testSigner implements domain.Signer over a raw key pair.
type testSigner struct {
	sk domain.SecretKey
	pk domain.PublicKey
}

func newTestSigner(t *testing.T) *testSigner {
	t.Helper()
	sk, pk, err := crypto.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	return &testSigner{sk: sk, pk: pk}
}

func (s *testSigner) PublicKey() (domain.PublicKey, bool) { return s.pk, true }

func (s *testSigner) SignDigest(digest [32]byte) ([]byte, error) {
	return crypto.SignDigest(s.sk, digest)
}

func TestEventSignVerify(t *testing.T) {
	signer := newTestSigner(t)
	ev := &relay.Event{
		CreatedAt: time.Now().Unix(),
		Kind:      relay.KindCallSignal,
		Tags:      [][]string{{relay.TagHub, "hub-a"}, {relay.TagTopic, "calls"}},
		Content:   "abcdef",
	}
	if err := ev.Sign(signer); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if ev.ID == "" || ev.Sig == "" || ev.PubKey == "" {
		t.Fatalf("Sign left fields empty: %+v", ev)
	}
	if !ev.Verify() {
		t.Fatal("signed event did not verify")
	}
}

func TestEventVerify_RejectsTampering(t *testing.T) {
	signer := newTestSigner(t)
	base := relay.Event{
		CreatedAt: time.Now().Unix(),
		Kind:      relay.KindConversation,
		Tags:      [][]string{{relay.TagHub, "hub-a"}},
		Content:   "00ff",
	}

	tampered := base
	if err := tampered.Sign(signer); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tampered.Content = "ff00"
	if tampered.Verify() {
		t.Fatal("verified after content change")
	}

	wrongSig := base
	if err := wrongSig.Sign(signer); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	wrongSig.Sig = wrongSig.Sig[:len(wrongSig.Sig)-2] + "00"
	if wrongSig.Verify() {
		t.Fatal("verified with altered signature")
	}
}

func TestBuildAuthEvent(t *testing.T) {
	signer := newTestSigner(t)
	now := time.Now().Unix()

	ev, err := relay.BuildAuthEvent("wss://relay.example.org", "challenge-123", now, signer)
	if err != nil {
		t.Fatalf("BuildAuthEvent: %v", err)
	}
	if ev.Kind != relay.KindAuth {
		t.Fatalf("kind = %d, want %d", ev.Kind, relay.KindAuth)
	}
	if ch, _ := ev.Tag(relay.TagChallenge); ch != "challenge-123" {
		t.Fatalf("challenge tag = %q", ch)
	}
	if rl, _ := ev.Tag(relay.TagRelay); rl != "wss://relay.example.org" {
		t.Fatalf("relay tag = %q", rl)
	}
	if !ev.Verify() {
		t.Fatal("auth event did not verify")
	}
}

func TestBuildAuthEvent_NoKey(t *testing.T) {
	_, err := relay.BuildAuthEvent("wss://x", "c", time.Now().Unix(), lockedSigner{})
	if err == nil {
		t.Fatal("expected error with no key available")
	}
}

type lockedSigner struct{}

func (lockedSigner) PublicKey() (domain.PublicKey, bool) { return domain.PublicKey{}, false }
func (lockedSigner) SignDigest([32]byte) ([]byte, error) { return nil, relay.ErrNoSecretKey }
