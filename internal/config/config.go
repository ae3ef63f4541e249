// Package config resolves sentinel settings from flags, SENTINEL_* environment
// variables, an optional <root>/config.yaml and built-in defaults, in that
// order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"

	"github.com/illarion/sentinel/internal/crypto"
)

// Keys
const (
	KeyRoot             = "root"
	KeyHashScheme       = "hash-scheme"
	KeyBcryptCost       = "bcrypt-cost"
	KeyPBKDF2Iterations = "pbkdf2-iterations"
	KeyAudit            = "audit"
	KeyLogLevel         = "log-level"
	KeyKeyring          = "keyring"
)

const (
	EnvPrefix      = "SENTINEL"
	FileName       = "config.yaml"
	DefaultDirName = ".sentinel"

	minIterations = 10000
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds resolved settings
type Config struct {
	Root             string
	HashScheme       string
	BcryptCost       int
	PBKDF2Iterations int
	Audit            bool
	LogLevel         string
	Keyring          bool

	// File is the config file that was read, empty when none was found
	File string
}

// DefaultRoot returns $HOME/.sentinel, or .sentinel in the working
// directory when the home directory is unknown
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return DefaultDirName
	}
	return filepath.Join(home, DefaultDirName)
}

// RegisterFlags adds the configuration flags to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyRoot, DefaultRoot(), "storage directory for vault files")
	fs.String(KeyHashScheme, crypto.SchemeBcrypt, "master password hash scheme (bcrypt|pbkdf2)")
	fs.Int(KeyBcryptCost, bcrypt.DefaultCost, "bcrypt cost factor")
	fs.Int(KeyPBKDF2Iterations, crypto.DefaultIters, "PBKDF2 iteration count")
	fs.Bool(KeyAudit, true, "record operations in the audit journal")
	fs.String(KeyLogLevel, "warn", "log level (debug|info|warn|error)")
	fs.Bool(KeyKeyring, true, "use the OS keyring for vault passwords")
}

// Load resolves the configuration. flags may be nil; only flags that were
// set explicitly override lower layers.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, errors.Wrap(err, "failed to bind flags")
		}
	}

	root, err := expandHome(v.GetString(KeyRoot))
	if err != nil {
		return nil, err
	}

	cfgFile := filepath.Join(root, FileName)
	if _, err := os.Stat(cfgFile); err == nil {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", cfgFile)
		}
	} else {
		cfgFile = ""
	}

	cfg := &Config{
		Root:             root,
		HashScheme:       strings.ToLower(v.GetString(KeyHashScheme)),
		BcryptCost:       v.GetInt(KeyBcryptCost),
		PBKDF2Iterations: v.GetInt(KeyPBKDF2Iterations),
		Audit:            v.GetBool(KeyAudit),
		LogLevel:         v.GetString(KeyLogLevel),
		Keyring:          v.GetBool(KeyKeyring),
		File:             cfgFile,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges, reporting every problem at once
func (c *Config) Validate() error {
	var result error

	switch c.HashScheme {
	case crypto.SchemeBcrypt, crypto.SchemePBKDF2:
	default:
		result = multierror.Append(result, errors.Wrapf(crypto.ErrUnknownScheme, "%s %q", KeyHashScheme, c.HashScheme))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		result = multierror.Append(result, errors.Newf("%s must be between %d and %d, got %d",
			KeyBcryptCost, bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost))
	}
	if c.PBKDF2Iterations < minIterations {
		result = multierror.Append(result, errors.Newf("%s must be at least %d, got %d",
			KeyPBKDF2Iterations, minIterations, c.PBKDF2Iterations))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, errors.Wrapf(err, "%s", KeyLogLevel))
	}
	if c.Root == "" {
		result = multierror.Append(result, errors.Newf("%s must not be empty", KeyRoot))
	}

	if result != nil {
		return errors.Mark(result, ErrInvalidConfig)
	}
	return nil
}

// HasherOptions returns the crypto options matching the configuration
func (c *Config) HasherOptions() []crypto.Option {
	return []crypto.Option{
		crypto.WithBcryptCost(c.BcryptCost),
		crypto.WithIterations(c.PBKDF2Iterations),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyRoot, DefaultRoot())
	v.SetDefault(KeyHashScheme, crypto.SchemeBcrypt)
	v.SetDefault(KeyBcryptCost, bcrypt.DefaultCost)
	v.SetDefault(KeyPBKDF2Iterations, crypto.DefaultIters)
	v.SetDefault(KeyAudit, true)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyKeyring, true)
}

// bindFlags binds every known configuration flag present in fs
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var result error
	for _, key := range []string{KeyRoot, KeyHashScheme, KeyBcryptCost, KeyPBKDF2Iterations, KeyAudit, KeyLogLevel, KeyKeyring} {
		f := fs.Lookup(key)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
