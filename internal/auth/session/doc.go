// Package session implements the Qureka session-token lifecycle.
//
// It issues paired short-lived access tokens and long-lived refresh tokens
// as signed JWT claim bundles (distinct HS256 secrets and TTLs per kind),
// persists refresh tokens server-side as salted bcrypt hashes, and
// orchestrates login, refresh, and logout over that state.
//
// Invariant: at most one live refresh row per user. Issuing a new refresh
// token replaces any prior row, so a login on a second device invalidates
// the first device's refresh token.
//
// Transport (HTTP, cookies) integration is intentionally out of scope here.
package session
