// Package audit keeps an append-only journal of vault operations in a bbolt
// database next to the CSV files.
//
// The journal records what happened and to which vault, never secrets or
// password hashes. It is an observer: the CSV files remain the only source of
// truth for vault contents, and a journal failure never fails the operation
// being recorded.
package audit
