package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T, scheme string) *Hasher {
	t.Helper()
	h, err := NewHasher(scheme, WithBcryptCost(bcrypt.MinCost), WithIterations(1000))
	require.NoError(t, err)
	return h
}

func TestHasher_HashAndVerify(t *testing.T) {
	tests := []struct {
		name     string
		scheme   string
		password string
		prefix   string
	}{
		{name: "bcrypt", scheme: SchemeBcrypt, password: "StrongPassword123!", prefix: "$2a$"},
		{name: "bcrypt empty", scheme: SchemeBcrypt, password: "", prefix: "$2a$"},
		{name: "bcrypt unicode", scheme: SchemeBcrypt, password: "测试密码🔒", prefix: "$2a$"},
		{name: "pbkdf2", scheme: SchemePBKDF2, password: "StrongPassword123!", prefix: "pbkdf2-sha256$1000$"},
		{name: "pbkdf2 long", scheme: SchemePBKDF2, password: strings.Repeat("a", 200), prefix: "pbkdf2-sha256$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHasher(t, tt.scheme)

			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(hash, tt.prefix), "unexpected hash format %q", hash)
			assert.NotContains(t, hash, ",", "hash must be storable in a CSV row")

			assert.True(t, h.Verify(tt.password, hash))
			assert.False(t, h.Verify(tt.password+"x", hash))
		})
	}
}

func TestHasher_SaltedOutputsDiffer(t *testing.T) {
	for _, scheme := range []string{SchemeBcrypt, SchemePBKDF2} {
		h := newTestHasher(t, scheme)

		a, err := h.Hash("same")
		require.NoError(t, err)
		b, err := h.Hash("same")
		require.NoError(t, err)

		assert.NotEqual(t, a, b, scheme)
		assert.True(t, h.Verify("same", a), scheme)
		assert.True(t, h.Verify("same", b), scheme)
	}
}

func TestHasher_VerifyAcrossSchemes(t *testing.T) {
	bc := newTestHasher(t, SchemeBcrypt)
	pb := newTestHasher(t, SchemePBKDF2)

	bcHash, err := bc.Hash("pw")
	require.NoError(t, err)
	pbHash, err := pb.Hash("pw")
	require.NoError(t, err)

	assert.True(t, pb.Verify("pw", bcHash))
	assert.True(t, bc.Verify("pw", pbHash))
}

func TestHasher_VerifyMalformed(t *testing.T) {
	h := newTestHasher(t, SchemeBcrypt)

	for _, hash := range []string{
		"",
		"not-a-hash",
		"pbkdf2-sha256$",
		"pbkdf2-sha256$abc$c2FsdA$a2V5",
		"pbkdf2-sha256$1000$!!!$a2V5",
		"pbkdf2-sha256$1000$c2FsdA$",
	} {
		assert.False(t, h.Verify("pw", hash), "hash %q", hash)
	}
}

func TestNewHasher_Invalid(t *testing.T) {
	_, err := NewHasher("md5")
	assert.ErrorIs(t, err, ErrUnknownScheme)

	_, err = NewHasher(SchemeBcrypt, WithBcryptCost(bcrypt.MaxCost+1))
	assert.Error(t, err)

	_, err = NewHasher(SchemePBKDF2, WithIterations(0))
	assert.Error(t, err)
}

func TestClearBytes(t *testing.T) {
	b := []byte("secret")
	ClearBytes(b)
	assert.Equal(t, make([]byte, 6), b)
}
