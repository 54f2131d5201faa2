// Package store persists the reconstructed search tree in SQLite.
//
// Tables:
//   - frames: one row per search invocation, id assigned on insert
//   - edges:  (parent_id, child_id) rows in discovery order
//   - meta:   key/value facts about the ingest run
//
// A store is written by exactly one ingest process, guarded by a lock file
// next to the database, and read by any number of viewers afterwards.
// Writes are batched into transactions of Options.BatchSize statements.
package store
