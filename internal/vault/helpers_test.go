package vault

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/illarion/sentinel/internal/crypto"
	"github.com/illarion/sentinel/internal/storage"
)

type recordedEvent struct {
	kind, vault, subject string
}

type fakeRecorder struct {
	events []recordedEvent
}

func (f *fakeRecorder) Record(kind, vault, subject string) {
	f.events = append(f.events, recordedEvent{kind, vault, subject})
}

func (f *fakeRecorder) kinds() []string {
	kinds := make([]string, len(f.events))
	for i, ev := range f.events {
		kinds[i] = ev.kind
	}
	return kinds
}

// fixedClock returns a clock that advances one minute per call
func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		now := t
		t = t.Add(time.Minute)
		return now
	}
}

type fixture struct {
	dir   string
	store *storage.Store
	reg   *Registry
	rec   *fakeRecorder
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	dir := filepath.Join(t.TempDir(), "root")

	hasher, err := crypto.NewHasher(crypto.SchemeBcrypt, crypto.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)

	store := storage.New(dir, log)
	rec := &fakeRecorder{}
	reg := NewRegistry(store, hasher,
		WithLogger(log),
		WithRecorder(rec),
		WithClock(fixedClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))),
	)
	reg.LoadAll()

	return &fixture{dir: dir, store: store, reg: reg, rec: rec, logs: logs}
}

// reload builds a fresh registry over the same directory
func (f *fixture) reload(t *testing.T) *Registry {
	t.Helper()
	hasher, err := crypto.NewHasher(crypto.SchemeBcrypt, crypto.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	reg := NewRegistry(storage.New(f.dir, nil), hasher)
	reg.LoadAll()
	return reg
}

func usernames(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Username
	}
	return names
}
