package core

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Store operations. Failures are wrapped with
// context, so compare with errors.Is.
var (
	// ErrIO is returned when the backing file cannot be opened, read or
	// written, including reads that come back short.
	ErrIO = errors.New("contact store: i/o failure")

	// ErrFormat is returned when stored bytes cannot be decoded into a
	// contact, or a contact cannot be encoded.
	ErrFormat = errors.New("contact store: malformed record")

	// ErrDuplicateKey is returned when an insert or a key-changing update
	// would leave two live records with the same email.
	ErrDuplicateKey = errors.New("contact store: email already in use")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("contact store: closed")
)

var errNilContact = fmt.Errorf("%w: nil contact", ErrFormat)
