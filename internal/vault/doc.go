// Package vault holds the user's secret identity: PIN-encrypted at rest,
// closure-scoped in memory while unlocked.
//
// The raw secret is reachable only through capability methods (SignDigest,
// UseSecret, CreateAuthToken); no accessor returns it except the explicit
// ExportSecret backup path, which re-checks the PIN. Any use of the secret
// resets an idle timer; expiry, or a background grace period elapsing, zeroes
// the in-memory bytes and fires lock callbacks.
//
// The vault is stateless about failed unlock attempts. The caller tracks
// failures and invokes Wipe after its configured maximum.
package vault
