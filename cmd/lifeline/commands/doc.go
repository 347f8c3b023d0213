// Package commands defines the lifeline CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - import        Import a secret key into the PIN-protected vault
//   - fingerprint   Print the identity fingerprint
//   - unlock-check  Verify the PIN opens the vault
//   - token         Mint a signed auth token for an API request
//   - listen        Connect to the relay and print decrypted events
//   - hub rotate    Generate a fresh hub key and print member envelopes
//   - hub adopt     Adopt a hub-key envelope addressed to this identity
//   - export        Print the raw secret key for backup
//   - wipe          Destroy the stored identity
//
// # Implementation
//
// The root command loads configuration (file, environment, flags) and builds
// the dependency graph (stores, vault, hub key manager, relay client) before
// any subcommand runs, so handlers share one app context.
package commands
