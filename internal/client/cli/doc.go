// Package cli provides the interactive TaleWeaver command-line client.
//
// It wires configuration, the identity flow controller, and the story backend
// client into a REPL. Before login the commands drive the account lifecycle
// (login, signup, verify, resend, reset); after login the user can generate
// stories.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
