package vault

import (
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/illarion/sentinel/internal/audit"
	"github.com/illarion/sentinel/internal/security"
	"github.com/illarion/sentinel/internal/storage"
)

// Hasher hashes and verifies vault master passwords
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used for reported conditions
func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithRecorder sets the audit recorder notified of every operation
func WithRecorder(rec audit.Recorder) Option {
	return func(r *Registry) {
		if rec != nil {
			r.rec = rec
		}
	}
}

// WithClock overrides the time source used for entry timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Registry owns every loaded vault and the currently authenticated one
type Registry struct {
	store  Persister
	hasher Hasher
	rec    audit.Recorder
	log    *zap.Logger
	now    func() time.Time

	vaults  []*Vault
	current *Vault
}

// NewRegistry creates an empty registry. Call LoadAll to populate it.
func NewRegistry(store Persister, hasher Hasher, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		hasher: hasher,
		rec:    audit.Nop{},
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Named("vault")
	return r
}

// LoadAll replaces the in-memory state with the vault list and entries from
// storage. The current vault is cleared.
func (r *Registry) LoadAll() {
	r.vaults = nil
	r.current = nil

	for _, rec := range r.store.LoadVaultList() {
		entries := r.store.LoadEntries(rec.Name)
		r.vaults = append(r.vaults, r.newVault(rec.Name, rec.PasswordHash, entries))
	}
	r.log.Debug("vaults loaded", zap.Int("count", len(r.vaults)))
}

// Create adds a new empty vault protected by password. Names that collide
// with an existing vault ignoring case are rejected.
func (r *Registry) Create(name, password string) (*Vault, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	for _, v := range r.vaults {
		if strings.EqualFold(v.name, name) {
			r.log.Warn("a vault with this name already exists", zap.String("vault", name), zap.String("existing", v.name))
			return nil, errors.Wrapf(ErrDuplicateName, "%q collides with %q", name, v.name)
		}
	}

	hash, err := r.hasher.Hash(password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash vault password")
	}

	v := r.newVault(name, hash, nil)
	r.vaults = append(r.vaults, v)
	r.save()
	r.rec.Record(audit.KindVaultCreated, name, "")
	r.log.Info("vault created", zap.String("vault", name))
	return v, nil
}

// Delete removes the vault whose name equals name exactly, along with its
// entry file
func (r *Registry) Delete(name string) error {
	i := r.index(name)
	if i < 0 {
		return r.vaultNotFound(name)
	}

	v := r.vaults[i]
	r.vaults = slices.Delete(r.vaults, i, i+1)
	if r.current == v {
		r.current = nil
	}
	r.store.DeleteVaultFile(v.name)
	r.save()
	r.rec.Record(audit.KindVaultDeleted, name, "")
	r.log.Info("vault removed", zap.String("vault", name))
	return nil
}

// Authenticate verifies password against the vault named exactly name and
// makes it the current vault. On failure the current vault is unchanged.
func (r *Registry) Authenticate(name, password string) (*Vault, error) {
	v := r.Lookup(name)
	if v == nil {
		return nil, r.vaultNotFound(name)
	}

	if !r.hasher.Verify(password, v.passwordHash) {
		r.log.Warn("invalid vault password provided", zap.String("vault", name))
		r.rec.Record(audit.KindAuthFailure, name, "")
		return nil, errors.Wrapf(ErrAuthentication, "vault %q", name)
	}

	r.current = v
	r.rec.Record(audit.KindAuthSuccess, name, "")
	r.log.Info("logged into vault", zap.String("vault", name))
	return v, nil
}

// Logout flushes every vault to storage and clears the current vault
func (r *Registry) Logout() {
	r.save()
	r.current = nil
}

// Current returns the authenticated vault, or nil
func (r *Registry) Current() *Vault {
	return r.current
}

// Vaults returns the vaults in load order
func (r *Registry) Vaults() []*Vault {
	return slices.Clone(r.vaults)
}

// IsEmpty reports whether no vaults exist
func (r *Registry) IsEmpty() bool {
	return len(r.vaults) == 0
}

// Lookup returns the vault whose name equals name exactly, or nil
func (r *Registry) Lookup(name string) *Vault {
	if i := r.index(name); i >= 0 {
		return r.vaults[i]
	}
	return nil
}

// ValidateName rejects names that cannot round-trip through the registry
// file or would not map to a plain file in the storage root
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.Wrap(ErrInvalidName, "name is empty")
	}
	if strings.ContainsAny(name, ",\r\n") {
		return errors.Wrapf(ErrInvalidName, "%q contains a comma or line break", name)
	}
	file := storage.EntryFileName(name)
	if err := security.ValidateFileName(file); err != nil {
		return errors.Mark(errors.Wrapf(err, "%q", name), ErrInvalidName)
	}
	if strings.EqualFold(file, storage.RegistryFile) {
		return errors.Wrapf(ErrInvalidName, "%q is reserved for the vault list", name)
	}
	return nil
}

func (r *Registry) newVault(name, hash string, entries []Entry) *Vault {
	return newVault(name, hash, entries, r.store, r.rec, r.log, r.now)
}

func (r *Registry) save() {
	records := make([]storage.VaultRecord, len(r.vaults))
	for i, v := range r.vaults {
		records[i] = v.record()
	}
	r.store.SaveVaultList(records, false)
}

func (r *Registry) index(name string) int {
	return slices.IndexFunc(r.vaults, func(v *Vault) bool {
		return v.name == name
	})
}

func (r *Registry) vaultNotFound(name string) error {
	r.log.Warn("vault does not exist", zap.String("vault", name))
	return errors.Wrapf(ErrNotFound, "vault %q", name)
}
