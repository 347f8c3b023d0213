package relay

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"lifeline/internal/crypto"
	"lifeline/internal/domain"
)

// Event kinds. Application kinds sit in the ephemeral range: relays fan them
// out but do not store them.
const (
	KindAuth         = 22242
	KindHubKeyNotice = 24100
	KindCallSignal   = 24101
	KindConversation = 24102
	KindShift        = 24103
	KindPresence     = 24104
)

// Tag names events carry.
const (
	TagHub       = "h"
	TagTopic     = "t"
	TagRelay     = "relay"
	TagChallenge = "challenge"
)

// ErrNoSecretKey is returned when signing is requested and no secret key is
// available.
var ErrNoSecretKey = errors.New("relay: no secret key available")

// Event is the relay's wire-level event.
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// ComputeID returns the hex SHA-256 of the canonical serialization
// [0, pubkey, created_at, kind, tags, content].
func (e *Event) ComputeID() (string, error) {
	canonical, err := json.Marshal([]any{0, e.PubKey, e.CreatedAt, e.Kind, e.Tags, e.Content})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Sign fills in PubKey, ID, and Sig using the signer's identity.
func (e *Event) Sign(signer domain.Signer) error {
	pub, ok := signer.PublicKey()
	if !ok {
		return ErrNoSecretKey
	}
	e.PubKey = hex.EncodeToString(pub.Slice())
	if e.Tags == nil {
		e.Tags = [][]string{}
	}

	id, err := e.ComputeID()
	if err != nil {
		return err
	}
	e.ID = id

	var digest [32]byte
	raw, err := hex.DecodeString(id)
	if err != nil {
		return err
	}
	copy(digest[:], raw)

	sig, err := signer.SignDigest(digest)
	if err != nil {
		return err
	}
	e.Sig = hex.EncodeToString(sig)
	return nil
}

// Verify recomputes the id and checks the signature against the event's
// compressed pubkey.
func (e *Event) Verify() bool {
	id, err := e.ComputeID()
	if err != nil || id != e.ID {
		return false
	}
	pub, err := hex.DecodeString(e.PubKey)
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(e.Sig)
	if err != nil {
		return false
	}
	raw, err := hex.DecodeString(e.ID)
	if err != nil || len(raw) != 32 {
		return false
	}
	var digest [32]byte
	copy(digest[:], raw)
	return crypto.VerifyDigest(pub, digest, sig)
}

// Tag returns the first value of the first tag with the given name.
func (e *Event) Tag(name string) (string, bool) {
	for _, tag := range e.Tags {
		if len(tag) >= 2 && tag[0] == name {
			return tag[1], true
		}
	}
	return "", false
}

// BuildAuthEvent constructs and signs the one-shot event answering a relay's
// auth challenge. It captures the relay URL and the challenge so the
// signature cannot be replayed elsewhere.
func BuildAuthEvent(relayURL, challenge string, createdAt int64, signer domain.Signer) (*Event, error) {
	ev := &Event{
		CreatedAt: createdAt,
		Kind:      KindAuth,
		Tags: [][]string{
			{TagRelay, relayURL},
			{TagChallenge, challenge},
		},
	}
	if err := ev.Sign(signer); err != nil {
		return nil, err
	}
	return ev, nil
}
