// Package store provides SQLite-backed storage for named, encoded chains.
//
// Each saved query row holds:
//   - name: the user-chosen key, unique
//   - class: the resource the chain is scoped to
//   - chain_hash: ir.ChainHash of the document, for deduplication
//   - payload: the canonical JSON encoding produced by the codec
//   - seq: a logical clock bumped on every save
//
// # Deterministic Reads
//
// Every list query orders by seq ASC, id COLLATE BINARY ASC, so repeated
// listings of the same database return identical results.
//
// # Connection Settings
//
// Open passes journal_mode=WAL, synchronous=NORMAL and a 5s busy_timeout
// through the DSN so they hold on every connection, including ones the
// SQL provider opens against the same file. Schema upgrades are keyed on
// PRAGMA user_version.
//
// Row IDs are UUIDv7 strings, which sort by creation time.
package store
