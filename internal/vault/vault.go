package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"

	"lifeline/internal/crypto"
	"lifeline/internal/domain"
)

const (
	// DefaultIterations is the PBKDF2-SHA256 cost for new records. Old
	// records decrypt with the count stored alongside them.
	DefaultIterations = 210_000

	// DefaultIdleTimeout locks the vault after this much inactivity.
	DefaultIdleTimeout = 5 * time.Minute

	// DefaultBackgroundGrace is how long a backgrounded app may return to
	// the foreground before the vault locks.
	DefaultBackgroundGrace = 30 * time.Second

	saltSize = 16
)

var (
	// ErrLocked is returned when an operation needs the secret key and the
	// vault is locked.
	ErrLocked = errors.New("vault: locked")

	// ErrNoRecord is returned when no identity has been imported yet.
	ErrNoRecord = errors.New("vault: no stored identity")

	// ErrUnlockFailed is returned for a wrong PIN or a corrupted record,
	// without distinguishing which.
	ErrUnlockFailed = errors.New("vault: unlock failed")
)

// Vault owns the in-memory secret key and its lifecycle timers.
type Vault struct {
	store domain.VaultStore
	clock Clock

	idleTimeout     time.Duration
	backgroundGrace time.Duration

	mu         sync.Mutex
	secret     *domain.SecretKey // nil while locked
	public     domain.PublicKey
	idleTimer  Timer
	graceTimer Timer
	onLock     []func()
}

// Option configures a Vault.
type Option func(*Vault)

// WithClock substitutes the timer clock, for tests.
func WithClock(c Clock) Option { return func(v *Vault) { v.clock = c } }

// WithIdleTimeout overrides the idle auto-lock interval.
func WithIdleTimeout(d time.Duration) Option { return func(v *Vault) { v.idleTimeout = d } }

// WithBackgroundGrace overrides the background grace period.
func WithBackgroundGrace(d time.Duration) Option { return func(v *Vault) { v.backgroundGrace = d } }

// New returns a locked vault over the given record store.
func New(store domain.VaultStore, opts ...Option) *Vault {
	v := &Vault{
		store:           store,
		clock:           SystemClock(),
		idleTimeout:     DefaultIdleTimeout,
		backgroundGrace: DefaultBackgroundGrace,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ImportKey encrypts and persists secret under a PIN-derived key, then
// unlocks with it. Any previous record is overwritten.
func (v *Vault) ImportKey(secret domain.SecretKey, pin string) (domain.PublicKey, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return domain.PublicKey{}, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return domain.PublicKey{}, err
	}

	kek := deriveKEK(pin, salt, DefaultIterations)
	defer crypto.Wipe(kek)

	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return domain.PublicKey{}, err
	}
	ciphertext := aead.Seal(nil, nonce, secret[:], nil)

	pub := crypto.PublicKeyOf(secret)
	rec := domain.VaultRecord{
		Salt:              salt,
		Iterations:        DefaultIterations,
		Nonce:             nonce,
		Ciphertext:        ciphertext,
		PubkeyFingerprint: crypto.Fingerprint(pub.Slice()),
	}
	if err := v.store.SaveRecord(rec); err != nil {
		return domain.PublicKey{}, err
	}

	v.load(secret, pub)
	return pub, nil
}

// Unlock derives the key-encryption key from pin and the stored salt and
// attempts authenticated decryption. On success the secret is loaded into
// memory and the idle timer starts. A wrong PIN and a corrupted record
// return the same error.
func (v *Vault) Unlock(pin string) (domain.PublicKey, error) {
	rec, ok, err := v.store.LoadRecord()
	if err != nil {
		return domain.PublicKey{}, err
	}
	if !ok {
		return domain.PublicKey{}, ErrNoRecord
	}

	kek := deriveKEK(pin, rec.Salt, rec.Iterations)
	defer crypto.Wipe(kek)

	aead, err := chacha20poly1305.NewX(kek)
	if err != nil {
		return domain.PublicKey{}, err
	}
	plaintext, err := aead.Open(nil, rec.Nonce, rec.Ciphertext, nil)
	if err != nil {
		return domain.PublicKey{}, ErrUnlockFailed
	}
	if len(plaintext) != len(domain.SecretKey{}) {
		crypto.Wipe(plaintext)
		return domain.PublicKey{}, ErrUnlockFailed
	}

	var secret domain.SecretKey
	copy(secret[:], plaintext)
	crypto.Wipe(plaintext)

	pub := crypto.PublicKeyOf(secret)
	v.load(secret, pub)
	return pub, nil
}

// Lock zeroes the in-memory secret, cancels timers, and fires lock callbacks.
// Locking an already locked vault is a no-op.
func (v *Vault) Lock() {
	v.mu.Lock()
	wasUnlocked := v.secret != nil
	if wasUnlocked {
		crypto.Wipe(v.secret[:])
		v.secret = nil
		v.public = domain.PublicKey{}
	}
	v.stopTimersLocked()
	callbacks := append([]func(){}, v.onLock...)
	v.mu.Unlock()

	if wasUnlocked {
		for _, fn := range callbacks {
			fn()
		}
	}
}

// Wipe locks, then deletes the persisted record entirely. Irreversible.
func (v *Vault) Wipe() error {
	v.Lock()
	return v.store.DeleteRecord()
}

// ChangePIN re-encrypts the stored secret under a new PIN. The old PIN must
// unlock first.
func (v *Vault) ChangePIN(oldPIN, newPIN string) error {
	if _, err := v.Unlock(oldPIN); err != nil {
		return err
	}
	var secret domain.SecretKey
	if err := v.UseSecret(func(sk domain.SecretKey) error {
		secret = sk
		return nil
	}); err != nil {
		return err
	}
	defer crypto.Wipe(secret[:])
	_, err := v.ImportKey(secret, newPIN)
	return err
}

// PublicKey returns the unlocked identity's public key. Reading it does not
// touch the idle timer.
func (v *Vault) PublicKey() (domain.PublicKey, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.secret == nil {
		return domain.PublicKey{}, false
	}
	return v.public, true
}

// SignDigest signs a 32-byte digest with the vault's secret key.
func (v *Vault) SignDigest(digest [32]byte) ([]byte, error) {
	var sig []byte
	err := v.UseSecret(func(sk domain.SecretKey) error {
		var signErr error
		sig, signErr = crypto.SignDigest(sk, digest)
		return signErr
	})
	return sig, err
}

// SignMessage hashes msg with SHA-256 and signs the digest.
func (v *Vault) SignMessage(msg []byte) ([]byte, error) {
	return v.SignDigest(sha256.Sum256(msg))
}

// UseSecret hands fn a copy of the secret valid only for the duration of the
// call. The copy is wiped afterwards; locking mid-call does not interrupt fn
// but prevents any later use.
func (v *Vault) UseSecret(fn func(secret domain.SecretKey) error) error {
	v.mu.Lock()
	if v.secret == nil {
		v.mu.Unlock()
		return ErrLocked
	}
	localCopy := *v.secret
	v.resetIdleLocked()
	v.mu.Unlock()

	defer crypto.Wipe(localCopy[:])
	return fn(localCopy)
}

// ExportSecret returns the raw secret for backup. The PIN is re-checked even
// while unlocked so a forgotten foreground session cannot leak the key.
func (v *Vault) ExportSecret(pin string) (domain.SecretKey, error) {
	if _, err := v.Unlock(pin); err != nil {
		return domain.SecretKey{}, err
	}
	var out domain.SecretKey
	err := v.UseSecret(func(sk domain.SecretKey) error {
		out = sk
		return nil
	})
	return out, err
}

// OnLock registers fn to run after every transition to the locked state.
func (v *Vault) OnLock(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onLock = append(v.onLock, fn)
}

// EnterBackground starts the grace-period timer. If the app does not return
// to the foreground in time, the vault locks.
func (v *Vault) EnterBackground() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.secret == nil || v.graceTimer != nil {
		return
	}
	v.graceTimer = v.clock.AfterFunc(v.backgroundGrace, v.Lock)
}

// EnterForeground cancels a pending grace-period lock.
func (v *Vault) EnterForeground() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.graceTimer != nil {
		v.graceTimer.Stop()
		v.graceTimer = nil
	}
	v.resetIdleLocked()
}

// load installs the secret and starts the idle timer.
func (v *Vault) load(secret domain.SecretKey, pub domain.PublicKey) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.secret != nil {
		crypto.Wipe(v.secret[:])
	}
	held := secret
	v.secret = &held
	v.public = pub
	v.resetIdleLocked()
}

func (v *Vault) resetIdleLocked() {
	if v.secret == nil {
		return
	}
	if v.idleTimer != nil {
		v.idleTimer.Stop()
	}
	v.idleTimer = v.clock.AfterFunc(v.idleTimeout, v.Lock)
}

func (v *Vault) stopTimersLocked() {
	if v.idleTimer != nil {
		v.idleTimer.Stop()
		v.idleTimer = nil
	}
	if v.graceTimer != nil {
		v.graceTimer.Stop()
		v.graceTimer = nil
	}
}

func deriveKEK(pin string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(pin), salt, iterations, chacha20poly1305.KeySize, sha256.New)
}

// Compile-time assertion that Vault implements domain.Signer.
var _ domain.Signer = (*Vault)(nil)
