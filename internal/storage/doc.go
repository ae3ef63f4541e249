// Package storage provides the CSV persistence layer for sentinel.
//
// The storage root holds:
//   - vaults.csv: one "name,passwordHash" row per vault
//   - <vaultName>.csv: one "username,secret,timestamp" row per entry
//
// Fields are comma-joined without quoting or escaping. Timestamps are written
// as RFC 3339 with nanoseconds; rows whose timestamp does not parse load with
// the current time instead of being dropped.
//
// The Store never returns I/O failures. They are logged and the call degrades
// to an empty result (loads) or a no-op (saves, deletes). Writes rewrite the
// whole file in place and are not atomic.
package storage
