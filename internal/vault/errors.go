package vault

import "github.com/cockroachdb/errors"

var (
	ErrDuplicateName  = errors.New("vault already exists")
	ErrDuplicateEntry = errors.New("entry already exists")
	ErrNotFound       = errors.New("not found")
	ErrAuthentication = errors.New("invalid vault password")
	ErrInvalidName    = errors.New("invalid vault name")
)
