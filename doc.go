// Package connect resolves third-party (OAuth2 style) logins into local
// identity decisions: auto-register a new local account, bind the provider
// identity to the currently authenticated account, or re-authenticate an
// account that is already bound.
//
// The package keeps connection records (the durable mapping between a
// provider user and a local account, plus cached token material) eventually
// consistent with the latest provider data through a reconciler that prefers
// asynchronous updates and falls back to a synchronous update when its worker
// pool cannot accept the task. Reconciliation failures never fail a login.
//
// Persistence, profile fetching, and the OAuth2 handshake itself are modeled
// as collaborator contracts. Bun-backed implementations of the storage
// contracts live in the repository subpackage.
package connect
