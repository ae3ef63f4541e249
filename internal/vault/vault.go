package vault

import (
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/illarion/sentinel/internal/audit"
	"github.com/illarion/sentinel/internal/storage"
)

// Entry is one username/secret/timestamp record. The secret is stored as
// given.
type Entry = storage.Entry

// Persister is the storage boundary used by vaults and the registry.
// Implementations absorb I/O failures.
type Persister interface {
	LoadVaultList() []storage.VaultRecord
	LoadEntries(vaultName string) []Entry
	SaveVaultList(vaults []storage.VaultRecord, appendMode bool)
	SaveEntries(vault storage.VaultRecord, appendMode bool)
	DeleteVaultFile(vaultName string)
}

// Vault is a named, password-protected collection of entries
type Vault struct {
	name         string
	passwordHash string
	entries      []Entry

	store Persister
	rec   audit.Recorder
	log   *zap.Logger
	now   func() time.Time
}

func newVault(name, passwordHash string, entries []Entry, store Persister, rec audit.Recorder, log *zap.Logger, now func() time.Time) *Vault {
	if entries == nil {
		entries = []Entry{}
	}
	return &Vault{
		name:         name,
		passwordHash: passwordHash,
		entries:      entries,
		store:        store,
		rec:          rec,
		log:          log.With(zap.String("vault", name)),
		now:          now,
	}
}

// Name returns the vault name
func (v *Vault) Name() string { return v.name }

// PasswordHash returns the stored master password hash
func (v *Vault) PasswordHash() string { return v.passwordHash }

// TotalEntries returns the number of entries
func (v *Vault) TotalEntries() int { return len(v.entries) }

// IsEmpty reports whether the vault has no entries
func (v *Vault) IsEmpty() bool { return len(v.entries) == 0 }

// AddEntry appends e unless an entry with exactly the same username exists.
// A zero timestamp is replaced with the current time.
func (v *Vault) AddEntry(e Entry) error {
	if v.indexExact(e.Username) >= 0 {
		v.log.Warn("entry with this username already exists", zap.String("username", e.Username))
		return errors.Wrapf(ErrDuplicateEntry, "username %q in vault %q", e.Username, v.name)
	}

	if e.Timestamp.IsZero() {
		e.Timestamp = v.now()
	}
	v.entries = append(v.entries, e)
	v.persist()
	v.rec.Record(audit.KindEntryAdded, v.name, e.Username)
	v.log.Info("entry added", zap.String("username", e.Username))
	return nil
}

// DeleteEntry removes the first entry whose username equals username exactly
func (v *Vault) DeleteEntry(username string) error {
	i := v.indexExact(username)
	if i < 0 {
		return v.notFound(username)
	}

	v.entries = slices.Delete(v.entries, i, i+1)
	v.persist()
	v.rec.Record(audit.KindEntryDeleted, v.name, username)
	v.log.Info("entry deleted", zap.String("username", username))
	return nil
}

// EditEntry overwrites the username and secret of the first entry whose
// username contains username (ignoring case) and stamps it with the current
// time. It returns the entry as stored after the edit.
func (v *Vault) EditEntry(username string, updated Entry) (Entry, error) {
	i := v.indexContains(username)
	if i < 0 {
		return Entry{}, v.notFound(username)
	}

	e := &v.entries[i]
	previous := e.Username
	e.Username = updated.Username
	e.Secret = updated.Secret
	e.Timestamp = v.now()

	v.persist()
	v.rec.Record(audit.KindEntryEdited, v.name, e.Username)
	v.log.Info("entry updated", zap.String("username", previous), zap.String("new_username", e.Username))
	return *e, nil
}

// GetEntry returns the first entry whose username contains username,
// ignoring case
func (v *Vault) GetEntry(username string) (Entry, error) {
	i := v.indexContains(username)
	if i < 0 {
		return Entry{}, v.notFound(username)
	}
	return v.entries[i], nil
}

// GetAllEntries returns a copy of every entry in current order. An empty
// vault is reported and yields an empty slice.
func (v *Vault) GetAllEntries() []Entry {
	if v.IsEmpty() {
		v.log.Info("no entries")
		return []Entry{}
	}
	return slices.Clone(v.entries)
}

// FindEntries returns every entry whose username contains term, ignoring
// case. The vault's order is not changed.
func (v *Vault) FindEntries(term string) []Entry {
	found := []Entry{}
	for _, e := range v.entries {
		if containsFold(e.Username, term) {
			found = append(found, e)
		}
	}
	if len(found) == 0 {
		v.log.Info("no entries found", zap.String("username", term))
	}
	return found
}

// SortByTimestamp insertion-sorts the live entry collection. The new order
// is not persisted until the next mutating call.
func (v *Vault) SortByTimestamp(order SortOrder) {
	InsertionSort(v.entries, order)
}

// DisplayEntries sorts the live collection like SortByTimestamp and returns
// a copy of it in the new order
func (v *Vault) DisplayEntries(order SortOrder) []Entry {
	if v.IsEmpty() {
		v.log.Info("no entries")
		return []Entry{}
	}
	v.SortByTimestamp(order)
	return slices.Clone(v.entries)
}

// SortedView returns a sorted copy of the entries, leaving the vault as is
func (v *Vault) SortedView(order SortOrder) []Entry {
	view := slices.Clone(v.entries)
	if view == nil {
		view = []Entry{}
	}
	InsertionSort(view, order)
	return view
}

func (v *Vault) record() storage.VaultRecord {
	return storage.VaultRecord{
		Name:         v.name,
		PasswordHash: v.passwordHash,
		Entries:      v.entries,
	}
}

// persist rewrites the whole entry file
func (v *Vault) persist() {
	v.store.SaveEntries(v.record(), false)
}

func (v *Vault) notFound(username string) error {
	v.log.Warn("no entry found with that username", zap.String("username", username))
	return errors.Wrapf(ErrNotFound, "entry %q in vault %q", username, v.name)
}

func (v *Vault) indexExact(username string) int {
	return slices.IndexFunc(v.entries, func(e Entry) bool {
		return e.Username == username
	})
}

func (v *Vault) indexContains(username string) int {
	return slices.IndexFunc(v.entries, func(e Entry) bool {
		return containsFold(e.Username, username)
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
