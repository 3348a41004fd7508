// Package storage holds encoded records by content id.
//
// A content id is a CIDv1 with the raw codec over the multihash of the
// exact record bytes. Stores compute ids on Put and verify them on Get, so a
// record read back is always the record that was written.
package storage

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/kpack/cidutil"
)

// DefaultHash is the multihash algorithm stores use unless configured.
const DefaultHash = multihash.SHA2_256

// CAS is a content-addressed byte store.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - Ids MUST be derived from the bytes written; callers supply canonical bytes.
// - Get MUST return ErrNotFound when the id is absent.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// Key derives the content id of data under the hash algorithm code.
func Key(code uint64, data []byte) (cid.Cid, error) {
	mh, err := cidutil.Sum(code, data)
	if err != nil {
		return cid.Undef, err
	}
	return cidutil.CID(cid.Raw, mh)
}

// Verify checks data against id using the algorithm id names.
func Verify(id cid.Cid, data []byte) error {
	if !id.Defined() {
		return ErrInvalidCID
	}
	mh, err := cidutil.FromCID(id)
	if err != nil {
		return ErrInvalidCID
	}
	ok, err := cidutil.Verify(mh, data)
	if err != nil {
		return err
	}
	if !ok {
		return mismatch(id)
	}
	return nil
}
