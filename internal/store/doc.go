// Package store persists the encrypted vault record and cached hub-key
// envelopes as JSON files under the app's home directory. Writes go through
// a temp file and rename so a crash never leaves a partial record.
package store
