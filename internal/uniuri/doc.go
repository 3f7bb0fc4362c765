// Package uniuri generates cryptographically secure random strings used as instance
// ids on the invalidation bus and as API tokens.
package uniuri
