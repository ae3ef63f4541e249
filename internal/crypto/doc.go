// Package crypto provides one-way hashing of vault master passwords.
//
// Two schemes are supported:
//   - bcrypt (default): standard "$2a$" modular crypt strings
//   - pbkdf2: PBKDF2-HMAC-SHA256 with a 32-byte random salt, encoded as
//     "pbkdf2-sha256$<iterations>$<salt>$<key>" (base64, no padding)
//
// Verification dispatches on the stored hash format, so a vault hashed under
// one scheme stays verifiable after the configured scheme changes.
//
// Entry secrets are never hashed or encrypted by this package.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
package crypto
