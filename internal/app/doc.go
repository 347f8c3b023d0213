// Package app wires application dependencies for the CLI.
//
// It builds the concrete stores, the vault, the hub key manager, and the
// relay client from Config, exposing them via the Wire struct for commands
// to use.
package app
