// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository wraps a [shared.DBTX], so the same methods run against the pool or, via WithTx, inside
// a transaction opened with [shared.WithTx].
//
// Key Implementations:
//   - [UserRepository] : identity store with case-insensitive email lookups
//   - [SessionRepository] : issued token records and their revocation flags
//   - [ResetCodeRepository] : one-time password reset codes, at most one pending per user
//   - [LikedSongRepository] : per-user liked tracks, deduplicated by catalog id or title and artist
//
// Timestamps are written in UTC. Expiry is never evaluated in SQL; callers compare stored times in Go.
package repositories
