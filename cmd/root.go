package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/illarion/sentinel/internal/audit"
	"github.com/illarion/sentinel/internal/config"
	"github.com/illarion/sentinel/internal/crypto"
	"github.com/illarion/sentinel/internal/logging"
	"github.com/illarion/sentinel/internal/storage"
	"github.com/illarion/sentinel/internal/vault"
)

// app carries the per-invocation state shared by all commands
type app struct {
	stdout       io.Writer
	stderr       io.Writer
	readPassword func(prompt string) ([]byte, error)
	getenv       func(string) string

	cfg      *config.Config
	log      *zap.Logger
	registry *vault.Registry
	journal  *audit.Journal
}

func newApp(stdout, stderr io.Writer) *app {
	a := &app{
		stdout: stdout,
		stderr: stderr,
		getenv: os.Getenv,
		log:    zap.NewNop(),
	}
	a.readPassword = a.readTerminalPassword
	return a
}

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context) int {
	a := newApp(os.Stdout, os.Stderr)
	defer a.close()

	root := newRootCmd(a)
	if err := root.ExecuteContext(ctx); err != nil {
		return HandleError(a.stderr, err)
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "sentinel",
		Short: "Password-protected credential vaults on local disk",
		Long: `sentinel keeps named vaults of username/secret entries under a local
directory. Each vault is protected by its own master password.

The master password is taken from SENTINEL_PASSWORD, then the OS keyring,
then an interactive prompt.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newVaultCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newRmCmd(a),
		newGetCmd(a),
		newFindCmd(a),
		newLsCmd(a),
		newGenerateCmd(a),
		newHistoryCmd(a),
		newCompactCmd(a),
		newKeyringCmd(a),
		newCompletionCmd(a),
	)
	return root
}

// configure resolves configuration and builds the logger
func (a *app) configure(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	log, err := logging.NewWithSink(cfg.LogLevel, zapcore.AddSync(a.stderr))
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.log.Debug("configuration loaded", zap.String("root", cfg.Root), zap.String("file", cfg.File))
	return nil
}

// open loads the registry, wiring the audit journal when enabled
func (a *app) open() (*vault.Registry, error) {
	if a.registry != nil {
		return a.registry, nil
	}
	if err := os.MkdirAll(a.cfg.Root, storage.DirPermSecure); err != nil {
		return nil, errors.Wrapf(err, "failed to create storage directory %s", a.cfg.Root)
	}

	hasher, err := crypto.NewHasher(a.cfg.HashScheme, a.cfg.HasherOptions()...)
	if err != nil {
		return nil, err
	}

	var rec audit.Recorder = audit.Nop{}
	if a.cfg.Audit {
		j, err := a.openJournal()
		if err != nil {
			a.log.Warn("audit journal unavailable", zap.Error(err))
		} else {
			rec = j
		}
	}

	a.registry = vault.NewRegistry(
		storage.New(a.cfg.Root, a.log),
		hasher,
		vault.WithLogger(a.log),
		vault.WithRecorder(rec),
	)
	a.registry.LoadAll()
	return a.registry, nil
}

func (a *app) openJournal() (*audit.Journal, error) {
	if a.journal != nil {
		return a.journal, nil
	}
	if err := os.MkdirAll(a.cfg.Root, storage.DirPermSecure); err != nil {
		return nil, errors.Wrapf(err, "failed to create storage directory %s", a.cfg.Root)
	}
	j, err := audit.Open(filepath.Join(a.cfg.Root, audit.FileName), a.log)
	if err != nil {
		return nil, err
	}
	a.journal = j
	return j, nil
}

func (a *app) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("failed to close audit journal", zap.Error(err))
		}
		a.journal = nil
	}
	_ = a.log.Sync()
}
