// Package store provides SQLite-backed durable storage for the pigeon
// event ledger and the local identity record.
//
// Two tables:
//   - events: incident reports keyed by event_id, upserted with full
//     replace on conflict (last writer wins, no merge)
//   - user_profile: a single row pinned to id = 1 by a CHECK constraint, so
//     the at-most-one-identity rule is enforced by the schema
//
// # Live queries
//
// WatchAll, WatchUnresolved and WatchUser deliver the current snapshot and
// then a fresh snapshot after every committed write that touches the
// table. Subscribers register before the first read, so no commit is
// missed. A slow subscriber sees coalesced snapshots: it may skip
// intermediate states but never observes an older state after a newer one.
//
// Writes made through another connection are only seen when the store is
// opened WithChangePolling, which compares PRAGMA data_version on every
// tick.
//
// # Ordering
//
// Event listings are ORDER BY timestamp DESC, event_id ASC. The id
// tie-break keeps results deterministic when timestamps collide.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One open connection: SQLite has a single writer
//
// Search uses the contains_fold SQL function, registered on every
// connection, which applies the same Unicode case folding as the
// in-memory filter.
package store
