package envelope

import (
	"bytes"
	"crypto/rand"
	"encoding/json"

	"lifeline/internal/crypto"
	"lifeline/internal/domain"
)

const contentKeySize = 32

// EncryptObject serializes payload and encrypts it under a single-use content
// key, wrapping that key once for the author and once per extra recipient.
// The content key is wiped before returning; it survives only inside the
// envelopes.
func EncryptObject(
	payload any,
	author domain.PublicKey,
	extraRecipients []domain.PublicKey,
	label string,
) (domain.EncryptedObject, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.EncryptedObject{}, err
	}

	contentKey := make([]byte, contentKeySize)
	if _, err := rand.Read(contentKey); err != nil {
		return domain.EncryptedObject{}, err
	}
	defer crypto.Wipe(contentKey)

	ciphertext, err := seal(contentKey, raw)
	if err != nil {
		return domain.EncryptedObject{}, err
	}

	authorEnv, err := Wrap(contentKey, author, label)
	if err != nil {
		return domain.EncryptedObject{}, err
	}

	recipients := make([]domain.RecipientEnvelope, 0, len(extraRecipients))
	for _, pub := range extraRecipients {
		env, err := Wrap(contentKey, pub, label)
		if err != nil {
			return domain.EncryptedObject{}, err
		}
		recipients = append(recipients, domain.RecipientEnvelope{
			Recipient: pub.Slice(),
			Envelope:  env,
		})
	}

	return domain.EncryptedObject{
		Ciphertext:         ciphertext,
		AuthorEnvelope:     authorEnv,
		RecipientEnvelopes: recipients,
	}, nil
}

// DecryptObject unwraps env to recover the content key and returns the
// decrypted payload bytes.
func DecryptObject(
	ciphertext []byte,
	env domain.KeyEnvelope,
	sk domain.SecretKey,
	label string,
) ([]byte, error) {
	contentKey, err := Unwrap(env, sk, label)
	if err != nil {
		return nil, ErrUndecryptable
	}
	defer crypto.Wipe(contentKey)

	raw, err := open(contentKey, ciphertext)
	if err != nil {
		return nil, ErrUndecryptable
	}
	return raw, nil
}

// DecryptForRecipient tries every envelope addressed to us in order: the
// author envelope when we are the author, then any recipient envelope tagged
// with our public key, then the legacy static-key scheme last. It returns
// ErrUndecryptable when no path recovers the payload.
func DecryptForRecipient(
	obj domain.EncryptedObject,
	us domain.PublicKey,
	sk domain.SecretKey,
	label string,
) ([]byte, error) {
	if raw, err := DecryptObject(obj.Ciphertext, obj.AuthorEnvelope, sk, label); err == nil {
		return raw, nil
	}
	for _, re := range obj.RecipientEnvelopes {
		if !bytes.Equal(re.Recipient, us.Slice()) {
			continue
		}
		if raw, err := DecryptObject(obj.Ciphertext, re.Envelope, sk, label); err == nil {
			return raw, nil
		}
	}
	// Legacy payloads predate per-object wrapping; attempted last.
	if raw, err := DecryptObjectLegacy(obj.Ciphertext, sk, label); err == nil {
		return raw, nil
	}
	return nil, ErrUndecryptable
}
