// Package vault holds the in-memory model of password vaults and the
// registry that owns them.
//
// Every mutating call writes through to the storage layer immediately: a
// Vault rewrites its whole entry file after each add, edit or delete, and the
// Registry rewrites the vault list after create, delete and logout.
//
// Username matching is deliberately per operation. AddEntry and DeleteEntry
// compare usernames exactly; EditEntry, GetEntry and FindEntries match any
// username that contains the query, ignoring case. Vault names are unique
// ignoring case, but Delete, Authenticate and Lookup require the exact name.
package vault
