// Package auth provides the bearer token middleware of the API.
//
// Clients send "Authorization: Bearer <token>". The token is checked against the
// argon2id hashes configured in Auth.APITokenHashes; the plain tokens are never stored.
// Requests without a valid token fail with 401.
//
// Usage:
//
//	api.Use(auth.New(auth.Config{Hashes: cfg.Auth.APITokenHashes}))
//
// Tokens and their hashes are generated with the "token" command.
package auth
