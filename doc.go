// Package accounts provides account authentication flows: registration
// with email verification, login, and password recovery.
//
// Registration never writes a row. The pending registration travels as a
// signed activation token (name, email, password hash) and is
// materialized into a persisted Account exactly once by the activation
// flow; the store's uniqueness guarantee on email is what makes replayed
// activation links fail instead of silently succeeding.
//
// Password recovery is dual-gated: the reset token must verify
// cryptographically AND match the reset_token value currently persisted
// on the account. Issuing a new token overwrites the previous one, and a
// successful password change clears the stored value in the same
// statement that swaps the hash, so tokens are single use.
//
// Flows are command handlers that receive a RepositoryManager plus
// collaborators (TokenService, Notifier, ActivitySink) and report
// outcomes as typed responses and rich errors. Nothing in this package
// manages sessions; Login terminates at an Authenticated response.
package accounts
