// ABOUTME: Package documentation for local credential persistence

// Package credentials persists bearer tokens in a local SQLite database
// so a signed-in user survives client restarts. Tokens are stored per
// named profile; InspectToken reads expiry client-side to warn before a
// request would fail with 401. The backend alone verifies signatures.
package credentials
