package security

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrPathEscapes  = errors.New("path escapes storage root")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
	ErrNestedPath   = errors.New("nested paths are not allowed")
)

// Root confines file operations to a single storage directory using
// Go 1.24's os.Root API. Only flat file names directly under the root are
// accepted.
type Root struct {
	root *os.Root
	path string
}

// Open opens the directory at dir as a confinement root. The directory must
// already exist.
func Open(dir string) (*Root, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get absolute path")
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open storage root")
	}

	return &Root{
		root: root,
		path: absPath,
	}, nil
}

// Close releases the root handle.
func (r *Root) Close() error {
	if r.root != nil {
		return r.root.Close()
	}
	return nil
}

// Path returns the absolute path of the root directory.
func (r *Root) Path() string {
	return r.path
}

// ValidateFileName validates a user-derived file name. It rejects:
// - Empty names
// - Absolute paths
// - Names containing a path separator
// - Names that are not local (using filepath.IsLocal), e.g. "..", "NUL" on Windows
func ValidateFileName(name string) error {
	if name == "" {
		return ErrEmptyPath
	}
	if filepath.IsAbs(name) {
		return errors.Wrapf(ErrAbsolutePath, "%s", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return errors.Wrapf(ErrNestedPath, "%s", name)
	}
	if !filepath.IsLocal(name) {
		return errors.Wrapf(ErrPathEscapes, "%s", name)
	}
	return nil
}

// ReadFile reads a file directly under the root.
func (r *Root) ReadFile(name string) ([]byte, error) {
	if err := ValidateFileName(name); err != nil {
		return nil, errors.Wrap(err, "invalid path")
	}
	f, err := r.root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// WriteFile writes data to a file directly under the root, truncating it
// unless appendMode is set. The write is not atomic.
func (r *Root) WriteFile(name string, data []byte, perm os.FileMode, appendMode bool) error {
	if err := ValidateFileName(name); err != nil {
		return errors.Wrap(err, "invalid path")
	}

	flag := os.O_WRONLY | os.O_CREATE
	if appendMode {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}

	f, err := r.root.OpenFile(name, flag, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Remove deletes a file directly under the root.
func (r *Root) Remove(name string) error {
	if err := ValidateFileName(name); err != nil {
		return errors.Wrap(err, "invalid path")
	}
	return r.root.Remove(name)
}

// Stat stats a file directly under the root.
func (r *Root) Stat(name string) (os.FileInfo, error) {
	if err := ValidateFileName(name); err != nil {
		return nil, errors.Wrap(err, "invalid path")
	}
	return r.root.Stat(name)
}
