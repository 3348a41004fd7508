package protocol

import (
	"xdao.co/kpack/cidutil"
	"xdao.co/kpack/pack"
)

// ComputeBlockID hashes the header encoding followed by the captured
// active data bytes.
func ComputeBlockID(code uint64, h BlockHeader, active OpaqueActiveBlockData) (pack.Multihash, error) {
	var w pack.Writer
	h.EncodePack(&w)
	active.EncodePack(&w)
	return cidutil.Sum(code, w.Bytes())
}

// Seal sets b.ID using the given hash algorithm.
func (b *Block) Seal(code uint64) error {
	id, err := ComputeBlockID(code, b.Header, b.ActiveData)
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// VerifyID recomputes the id with the algorithm named in b.ID.
func (b Block) VerifyID() (bool, error) {
	want, err := ComputeBlockID(b.ID.ID, b.Header, b.ActiveData)
	if err != nil {
		return false, err
	}
	return want.Equal(b.ID), nil
}

// ComputeTransactionID hashes the captured active data bytes.
func ComputeTransactionID(code uint64, active OpaqueActiveTransactionData) (pack.Multihash, error) {
	return cidutil.Sum(code, active.Bytes())
}

func (t *Transaction) Seal(code uint64) error {
	id, err := ComputeTransactionID(code, t.ActiveData)
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

func (t Transaction) VerifyID() (bool, error) {
	want, err := ComputeTransactionID(t.ID.ID, t.ActiveData)
	if err != nil {
		return false, err
	}
	return want.Equal(t.ID), nil
}
