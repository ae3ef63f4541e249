// Package security confines sentinel's file operations to the storage root.
//
// Vault names become file names, so every name is validated as a single
// local path element before use. File access goes through an os.Root handle
// that cannot follow paths out of the directory.
package security
