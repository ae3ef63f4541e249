// Package passgen generates random password strings for vault entries.
package passgen

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	MinLength = 1
	MaxLength = 50
)

// Alphabet is the full character set used by Generate
const Alphabet = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	"!@#$%^&*()-_=+[{]}|;:',<.>/?`~"

var ErrInvalidLength = errors.New("invalid password length")

type options struct {
	alphabet string
}

// Option adjusts generation
type Option func(*options)

// WithoutCommas drops ',' from the alphabet. A comma inside a secret splits
// its storage row.
func WithoutCommas() Option {
	return func(o *options) {
		o.alphabet = strings.ReplaceAll(o.alphabet, ",", "")
	}
}

// Generate returns a random string of length characters drawn uniformly from
// the alphabet using crypto/rand
func Generate(length int, opts ...Option) (string, error) {
	if length < MinLength || length > MaxLength {
		return "", errors.WithHintf(
			errors.Wrapf(ErrInvalidLength, "%d", length),
			"length must be between %d and %d", MinLength, MaxLength)
	}

	o := options{alphabet: Alphabet}
	for _, opt := range opts {
		opt(&o)
	}

	size := big.NewInt(int64(len(o.alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", errors.Wrap(err, "failed to read random bytes")
		}
		out[i] = o.alphabet[n.Int64()]
	}
	return string(out), nil
}
