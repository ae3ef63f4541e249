package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// Supported hashing schemes
const (
	SchemeBcrypt = "bcrypt"
	SchemePBKDF2 = "pbkdf2"
)

const (
	SaltSize     = 32     // PBKDF2 salt size in bytes
	KeySize      = 32     // PBKDF2 derived key size
	DefaultIters = 210000 // Default PBKDF2 iterations (OWASP minimum)

	pbkdf2Prefix = "pbkdf2-sha256"
)

var (
	ErrUnknownScheme = errors.New("unknown hash scheme")
	ErrInvalidHash   = errors.New("invalid password hash")
)

var b64 = base64.RawStdEncoding

// Hasher hashes and verifies vault master passwords
type Hasher struct {
	scheme     string
	cost       int
	iterations int
}

// Option configures a Hasher
type Option func(*Hasher)

// WithBcryptCost sets the bcrypt work factor
func WithBcryptCost(cost int) Option {
	return func(h *Hasher) { h.cost = cost }
}

// WithIterations sets the PBKDF2 iteration count
func WithIterations(iterations int) Option {
	return func(h *Hasher) { h.iterations = iterations }
}

// NewHasher creates a Hasher producing hashes under scheme
func NewHasher(scheme string, opts ...Option) (*Hasher, error) {
	h := &Hasher{
		scheme:     scheme,
		cost:       bcrypt.DefaultCost,
		iterations: DefaultIters,
	}
	for _, opt := range opts {
		opt(h)
	}

	switch scheme {
	case SchemeBcrypt:
		if h.cost < bcrypt.MinCost || h.cost > bcrypt.MaxCost {
			return nil, errors.Newf("bcrypt: invalid cost %d", h.cost)
		}
	case SchemePBKDF2:
		if h.iterations < 1 {
			return nil, errors.Newf("pbkdf2: invalid iteration count %d", h.iterations)
		}
	default:
		return nil, errors.Wrapf(ErrUnknownScheme, "%q", scheme)
	}

	return h, nil
}

// Scheme returns the scheme new hashes are produced with
func (h *Hasher) Scheme() string {
	return h.scheme
}

// Hash returns a salted one-way hash of secret. Two calls with the same
// secret produce different strings; both verify.
func (h *Hasher) Hash(secret string) (string, error) {
	if h.scheme == SchemePBKDF2 {
		return hashPBKDF2(secret, h.iterations)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt hash failed")
	}
	return string(hash), nil
}

// Verify reports whether secret hashes to hash. The scheme is taken from the
// hash itself. Malformed hashes never verify.
func (h *Hasher) Verify(secret, hash string) bool {
	if strings.HasPrefix(hash, pbkdf2Prefix+"$") {
		ok, err := verifyPBKDF2(secret, hash)
		return err == nil && ok
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

func hashPBKDF2(secret string, iterations int) (string, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return "", err
	}

	password := []byte(secret)
	defer ClearBytes(password)

	key := pbkdf2.Key(password, salt, iterations, KeySize, sha256.New)
	defer ClearBytes(key)

	return fmt.Sprintf("%s$%d$%s$%s", pbkdf2Prefix, iterations, b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

func verifyPBKDF2(secret, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 {
		return false, ErrInvalidHash
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations < 1 {
		return false, ErrInvalidHash
	}
	salt, err := b64.DecodeString(parts[2])
	if err != nil {
		return false, ErrInvalidHash
	}
	want, err := b64.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false, ErrInvalidHash
	}

	password := []byte(secret)
	defer ClearBytes(password)

	got := pbkdf2.Key(password, salt, iterations, len(want), sha256.New)
	defer ClearBytes(got)

	return ConstantTimeCompare(got, want), nil
}
