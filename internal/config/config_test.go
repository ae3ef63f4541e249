package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/sentinel/internal/crypto"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	fs.Bool("desc", false, "unrelated flag")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SENTINEL_ROOT", root)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, crypto.SchemeBcrypt, cfg.HashScheme)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, crypto.DefaultIters, cfg.PBKDF2Iterations)
	assert.True(t, cfg.Audit)
	assert.True(t, cfg.Keyring)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Empty(t, cfg.File)
}

func TestLoad_Precedence(t *testing.T) {
	root := t.TempDir()
	yaml := "hash-scheme: pbkdf2\nbcrypt-cost: 6\nlog-level: info\naudit: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(yaml), 0600))

	t.Setenv("SENTINEL_BCRYPT_COST", "8")
	t.Setenv("SENTINEL_LOG_LEVEL", "error")

	cfg, err := Load(newFlags(t, "--root", root, "--log-level", "debug"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, FileName), cfg.File)
	assert.Equal(t, crypto.SchemePBKDF2, cfg.HashScheme) // file
	assert.Equal(t, 8, cfg.BcryptCost)                    // env over file
	assert.Equal(t, "debug", cfg.LogLevel)                // flag over env
	assert.False(t, cfg.Audit)                            // file over default
	assert.True(t, cfg.Keyring)                           // default
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	root := t.TempDir()
	t.Setenv("SENTINEL_ROOT", root)
	t.Setenv("SENTINEL_KEYRING", "false")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
	assert.False(t, cfg.Keyring)
}

func TestLoad_Invalid(t *testing.T) {
	root := t.TempDir()

	_, err := Load(newFlags(t, "--root", root, "--hash-scheme", "md5", "--bcrypt-cost", "2", "--log-level", "loud"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "hash-scheme")
	assert.Contains(t, err.Error(), "bcrypt-cost")
	assert.Contains(t, err.Error(), "log-level")
}

func TestLoad_BadConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("a: [unterminated\n"), 0600))

	_, err := Load(newFlags(t, "--root", root))
	assert.Error(t, err)
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cfg, err := Load(newFlags(t, "--root", "~/vaults"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "vaults"), cfg.Root)
}

func TestHasherOptions(t *testing.T) {
	cfg := &Config{HashScheme: crypto.SchemePBKDF2, BcryptCost: 4, PBKDF2Iterations: 20000, LogLevel: "warn", Root: "x"}
	require.NoError(t, cfg.Validate())

	h, err := crypto.NewHasher(cfg.HashScheme, cfg.HasherOptions()...)
	require.NoError(t, err)
	hash, err := h.Hash("pw")
	require.NoError(t, err)
	assert.Contains(t, hash, "$20000$")
}
