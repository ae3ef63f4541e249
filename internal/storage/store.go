package storage

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/illarion/sentinel/internal/security"
)

const (
	RegistryFile   = "vaults.csv"
	EntryFileExt   = ".csv"
	DirPermSecure  = 0700 // Directory: owner rwx only
	FilePermSecure = 0600 // File: owner rw only
)

// ErrStorage marks an absorbed I/O failure in log records
var ErrStorage = errors.New("storage failure")

// Store reads and writes the registry and entry files under a root directory
type Store struct {
	dir string
	log *zap.Logger
	now func() time.Time
}

// New creates a Store rooted at dir. The directory is created on first use.
func New(dir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		dir: dir,
		log: log.Named("storage"),
		now: time.Now,
	}
}

// Dir returns the storage root directory
func (s *Store) Dir() string {
	return s.dir
}

// EntryFileName returns the file name holding a vault's entries
func EntryFileName(vaultName string) string {
	return vaultName + EntryFileExt
}

// LoadVaultList reads the registry file. Rows with fewer than two fields are
// skipped. A missing file is created empty. Returned records carry no entries.
func (s *Store) LoadVaultList() []VaultRecord {
	lines, ok := s.readLines(RegistryFile)
	if !ok {
		return []VaultRecord{}
	}

	vaults := make([]VaultRecord, 0, len(lines))
	for i, line := range lines {
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			s.skipRow(RegistryFile, i, len(fields))
			continue
		}
		vaults = append(vaults, VaultRecord{
			Name:         fields[0],
			PasswordHash: fields[1],
		})
	}
	return vaults
}

// LoadEntries reads a vault's entry file. Rows with fewer than three fields
// are skipped. A missing file is created empty.
func (s *Store) LoadEntries(vaultName string) []Entry {
	name := EntryFileName(vaultName)
	lines, ok := s.readLines(name)
	if !ok {
		return []Entry{}
	}

	entries := make([]Entry, 0, len(lines))
	for i, line := range lines {
		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			s.skipRow(name, i, len(fields))
			continue
		}
		entries = append(entries, Entry{
			Username:  fields[0],
			Secret:    fields[1],
			Timestamp: ParseTimestamp(fields[2], s.now),
		})
	}
	return entries
}

// SaveVaultList writes one registry row per vault, then writes every vault's
// entry file. With appendMode the registry rows are appended instead of
// replacing the file; entry files are always rewritten.
func (s *Store) SaveVaultList(vaults []VaultRecord, appendMode bool) {
	var buf bytes.Buffer
	for _, v := range vaults {
		buf.WriteString(formatVault(v))
		buf.WriteByte('\n')
	}

	if !s.writeFile(RegistryFile, buf.Bytes(), appendMode) {
		return
	}

	for _, v := range vaults {
		s.SaveEntries(v, false)
	}
}

// SaveEntries writes one row per entry to the vault's entry file, replacing
// it unless appendMode is set
func (s *Store) SaveEntries(vault VaultRecord, appendMode bool) {
	var buf bytes.Buffer
	for _, e := range vault.Entries {
		buf.WriteString(formatEntry(e))
		buf.WriteByte('\n')
	}
	s.writeFile(EntryFileName(vault.Name), buf.Bytes(), appendMode)
}

// DeleteVaultFile removes a vault's entry file. A missing file is reported
// and otherwise ignored.
func (s *Store) DeleteVaultFile(vaultName string) {
	name := EntryFileName(vaultName)

	root, err := s.openRoot()
	if err != nil {
		s.report("delete", name, err)
		return
	}
	defer root.Close()

	if err := root.Remove(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Warn("vault file does not exist", zap.String("path", s.path(name)))
			return
		}
		s.report("delete", name, err)
	}
}

// ensureRoot creates the storage directory if it does not exist yet
func (s *Store) ensureRoot() error {
	if err := os.MkdirAll(s.dir, DirPermSecure); err != nil {
		return errors.Wrapf(err, "failed to create storage directory %s", s.dir)
	}
	return nil
}

func (s *Store) openRoot() (*security.Root, error) {
	if err := s.ensureRoot(); err != nil {
		return nil, err
	}
	return security.Open(s.dir)
}

// readLines returns the non-empty lines of a file under the root. A missing
// file is created empty. ok is false when the file could not be read.
func (s *Store) readLines(name string) ([]string, bool) {
	root, err := s.openRoot()
	if err != nil {
		s.report("load", name, err)
		return nil, false
	}
	defer root.Close()

	data, err := root.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		if err := root.WriteFile(name, nil, FilePermSecure, false); err != nil {
			s.report("create", name, err)
		}
		return nil, true
	}
	if err != nil {
		s.report("load", name, err)
		return nil, false
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		s.report("load", name, err)
		return nil, false
	}
	return lines, true
}

func (s *Store) writeFile(name string, data []byte, appendMode bool) bool {
	root, err := s.openRoot()
	if err != nil {
		s.report("save", name, err)
		return false
	}
	defer root.Close()

	if err := root.WriteFile(name, data, FilePermSecure, appendMode); err != nil {
		s.report("save", name, err)
		return false
	}
	return true
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) report(op, name string, err error) {
	s.log.Error("storage operation failed",
		zap.String("op", op),
		zap.String("path", s.path(name)),
		zap.Error(errors.Mark(err, ErrStorage)),
	)
}

func (s *Store) skipRow(name string, line, fields int) {
	s.log.Debug("skipping malformed row",
		zap.String("path", s.path(name)),
		zap.Int("line", line+1),
		zap.Int("fields", fields),
	)
}
