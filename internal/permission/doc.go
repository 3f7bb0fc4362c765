// Package permission contains the effective-permission engine.
//
// It is deliberately free of any storage or transport concern:
//
//   - Matrix is the legacy {resource: {create, read, update, delete}} view of a role.
//   - Row is a persisted role grant keyed by resource, action and domain.
//   - Override is a user-specific rule with priority and optional time and IP conditions.
//   - ResolvePersistedRow is the Normalizer that reconciles resource spellings
//     ("role", "Roles", "user_groups", "audit.logs") between the catalog, the matrix and rows.
//   - Evaluate is the Resolver: a pure function over an immutable Snapshot.
//
// # Evaluation order
//
// Evaluate applies the first decisive rule:
//
//  1. The highest priority active override for (user, resource, action). Ties go to the
//     newest override. An override whose time window or IP allowlist does not hold
//     is skipped, whether it allows or denies.
//  2. The role's active row for the requested domain, exact domain before "*".
//  3. Default deny.
//
// Malformed historical data never causes an error or a panic. The decision fails
// closed and the problem is reported in Decision.Anomalies for the caller to log.
package permission
