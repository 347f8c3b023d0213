// Package relay implements the client side of the publish/subscribe event
// relay protocol.
//
// A Client owns exactly one logical connection to a relay endpoint. It
// authenticates when challenged, replays registered subscriptions on every
// (re)connect, verifies and deduplicates inbound events, decrypts their
// transport payloads with the active hub key, and dispatches typed
// application events to matching handlers. Unexpected closes trigger
// reconnection with capped exponential backoff; Close is idempotent and
// stops all timers.
//
// Malformed frames, unverifiable signatures, stale or duplicate events, and
// undecryptable payloads are dropped at the point of receipt and never crash
// the connection.
package relay
