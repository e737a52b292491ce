package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation targets an event id that does
// not exist in the ledger.
var ErrNotFound = errors.New("not found")

// StorageError wraps a failure of the underlying database: I/O, locking,
// corruption, or a closed store. It is never retried here; retry policy
// belongs to the caller.
type StorageError struct {
	// Op names the store operation that failed, e.g. "upsert event".
	Op string

	// Err is the driver error.
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err wraps a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
