package storage

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
)

var (
	// ErrNotFound means no backend holds the requested record.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidCID is returned for undefined ids and ids whose multihash
	// cannot be read.
	ErrInvalidCID = errors.New("storage: invalid cid")
	// ErrCIDMismatch means record bytes do not hash to the id they were
	// stored or requested under.
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	// ErrImmutable means a different record already occupies an id.
	ErrImmutable = errors.New("storage: immutable object mismatch")
	// ErrNoBackends is returned by a ReplicatingCAS with nothing to write to.
	ErrNoBackends = errors.New("storage: no backends configured")
)

// NotFound wraps ErrNotFound with the id that was requested.
func NotFound(id cid.Cid) error { return fmt.Errorf("%w: %s", ErrNotFound, id) }

// mismatch wraps ErrCIDMismatch with the id the bytes failed to match.
func mismatch(id cid.Cid) error { return fmt.Errorf("%w: %s", ErrCIDMismatch, id) }

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
