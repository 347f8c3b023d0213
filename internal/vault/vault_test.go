package vault_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeline/internal/crypto"
	"lifeline/internal/domain"
	"lifeline/internal/store"
	"lifeline/internal/vault"
)

// fakeClock drives vault timers deterministically.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	deadline time.Time
	fn       func()
	stopped  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) vault.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{deadline: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

// Advance moves time forward and fires due, unstopped timers.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.deadline.After(c.now) {
			t.stopped = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

func newVault(t *testing.T, opts ...vault.Option) *vault.Vault {
	t.Helper()
	return vault.New(store.NewVaultRecordStore(t.TempDir()), opts...)
}

func freshSecret(t *testing.T) domain.SecretKey {
	t.Helper()
	sk, _, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	return sk
}

func TestImportUnlock_RoundTrip(t *testing.T) {
	v := newVault(t)
	secret := freshSecret(t)

	pub, err := v.ImportKey(secret, "1234")
	require.NoError(t, err)

	v.Lock()
	_, ok := v.PublicKey()
	require.False(t, ok, "vault should be locked")

	got, err := v.Unlock("1234")
	require.NoError(t, err)
	assert.Equal(t, pub, got)
}

func TestUnlock_WrongPIN(t *testing.T) {
	v := newVault(t)
	_, err := v.ImportKey(freshSecret(t), "1234")
	require.NoError(t, err)
	v.Lock()

	_, err = v.Unlock("4321")
	assert.ErrorIs(t, err, vault.ErrUnlockFailed)
}

func TestUnlock_NoRecord(t *testing.T) {
	v := newVault(t)
	_, err := v.Unlock("1234")
	assert.ErrorIs(t, err, vault.ErrNoRecord)
}

func TestLock_RevokesSigning(t *testing.T) {
	v := newVault(t)
	_, err := v.ImportKey(freshSecret(t), "1234")
	require.NoError(t, err)

	_, err = v.SignMessage([]byte("while unlocked"))
	require.NoError(t, err)

	v.Lock()
	_, err = v.SignMessage([]byte("while locked"))
	assert.ErrorIs(t, err, vault.ErrLocked)
}

func TestIdleTimeout_Locks(t *testing.T) {
	clock := newFakeClock()
	v := newVault(t, vault.WithClock(clock), vault.WithIdleTimeout(5*time.Minute))

	_, err := v.ImportKey(freshSecret(t), "1234")
	require.NoError(t, err)

	var locked bool
	v.OnLock(func() { locked = true })

	// Activity before the deadline restarts the countdown.
	clock.Advance(4 * time.Minute)
	_, err = v.SignMessage([]byte("keepalive"))
	require.NoError(t, err)

	clock.Advance(4 * time.Minute)
	assert.False(t, locked, "activity should have reset the idle timer")

	clock.Advance(2 * time.Minute)
	assert.True(t, locked, "vault should auto-lock after idle timeout")
	_, ok := v.PublicKey()
	assert.False(t, ok)
}

func TestBackgroundGrace(t *testing.T) {
	clock := newFakeClock()
	v := newVault(t, vault.WithClock(clock), vault.WithBackgroundGrace(30*time.Second))

	_, err := v.ImportKey(freshSecret(t), "1234")
	require.NoError(t, err)

	// Returning within the grace period keeps the vault unlocked.
	v.EnterBackground()
	clock.Advance(10 * time.Second)
	v.EnterForeground()
	clock.Advance(time.Minute)
	_, ok := v.PublicKey()
	assert.True(t, ok, "vault locked despite timely foreground return")

	// Staying backgrounded past the grace period locks.
	v.EnterBackground()
	clock.Advance(time.Minute)
	_, ok = v.PublicKey()
	assert.False(t, ok, "vault still unlocked after grace period expired")
}

func TestWipe_DestroysRecord(t *testing.T) {
	recordStore := store.NewVaultRecordStore(t.TempDir())
	v := vault.New(recordStore)

	_, err := v.ImportKey(freshSecret(t), "1234")
	require.NoError(t, err)
	require.NoError(t, v.Wipe())

	_, ok := v.PublicKey()
	assert.False(t, ok)
	_, err = v.Unlock("1234")
	assert.ErrorIs(t, err, vault.ErrNoRecord)
}

func TestChangePIN(t *testing.T) {
	v := newVault(t)
	secret := freshSecret(t)
	_, err := v.ImportKey(secret, "1234")
	require.NoError(t, err)

	require.NoError(t, v.ChangePIN("1234", "9999"))
	v.Lock()

	_, err = v.Unlock("1234")
	assert.ErrorIs(t, err, vault.ErrUnlockFailed)
	_, err = v.Unlock("9999")
	assert.NoError(t, err)
}

func TestExportSecret_RequiresPIN(t *testing.T) {
	v := newVault(t)
	secret := freshSecret(t)
	_, err := v.ImportKey(secret, "1234")
	require.NoError(t, err)

	_, err = v.ExportSecret("wrong")
	assert.ErrorIs(t, err, vault.ErrUnlockFailed)

	got, err := v.ExportSecret("1234")
	require.NoError(t, err)
	assert.Equal(t, secret, got)
}

func TestUseSecret_ProvidesSecret(t *testing.T) {
	v := newVault(t)
	_, err := v.ImportKey(freshSecret(t), "1234")
	require.NoError(t, err)

	var captured []byte
	err = v.UseSecret(func(sk domain.SecretKey) error {
		captured = sk.Slice()
		return nil
	})
	require.NoError(t, err)
	require.NotEqual(t, make([]byte, 32), captured, "secret should be non-zero inside callback")
}
