package store

import (
	"errors"
	"strings"
)

var (
	// ErrNotOpen is returned when an operation requires an opened database.
	ErrNotOpen = errors.New("store: database not opened")

	// ErrAlreadyOpen is returned by Open on a store that is already open.
	ErrAlreadyOpen = errors.New("store: database already opened")

	// ErrOpenFailed is returned when the physical open call fails.
	ErrOpenFailed = errors.New("store: cannot open database")

	// ErrThreadingUnsupported is returned when the engine was not built
	// with serialized threading.
	ErrThreadingUnsupported = errors.New("store: sqlite built without serialized threading")

	// ErrBusy is returned when a write could not start before the busy
	// timeout elapsed.
	ErrBusy = errors.New("store: database busy")

	// ErrPrepareFailed is returned when a statement cannot be compiled.
	ErrPrepareFailed = errors.New("store: cannot prepare statement")

	// ErrWriteFailed is returned when a config write did not complete.
	ErrWriteFailed = errors.New("store: cannot change value")

	// ErrInvalidArgument is returned on empty keys and malformed input.
	ErrInvalidArgument = errors.New("store: invalid argument")

	// ErrSchemaCreate is returned when a fresh store ends up without its
	// required baseline tables. This one is fatal during Open.
	ErrSchemaCreate = errors.New("store: cannot create baseline schema")
)

// IsBusy reports whether err stems from the engine's busy timeout, either
// as the ErrBusy sentinel or as the driver's SQLITE_BUSY diagnostic.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBusy) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
