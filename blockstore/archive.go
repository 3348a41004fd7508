package blockstore

import (
	"fmt"
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/kpack/pack"
	"xdao.co/kpack/protocol"
	"xdao.co/kpack/storage"
)

// indexShards must be a power of two.
const indexShards = 16

// Archive keeps block and transaction records in a storage.CAS and
// remembers which content id holds the record for a given block or
// transaction id.
//
// The index lives in memory only. Records written by another Archive are
// still readable by content id, and can be re-indexed with Index.
type Archive struct {
	cas    storage.CAS
	blocks index
	txs    index
}

// NewArchive returns an Archive writing to c.
func NewArchive(c storage.CAS) *Archive {
	a := &Archive{cas: c}
	a.blocks.init()
	a.txs.init()
	return a
}

// PutBlock stores b (and its receipt, if any) as a BlockRecord.
func (a *Archive) PutBlock(b protocol.Block, receipt *protocol.BlockReceipt) (cid.Cid, error) {
	rec := BlockRecord{
		BlockID:     b.ID,
		BlockHeight: b.Header.Height,
		Block:       pack.NewOpaque(b),
	}
	if !b.Header.Previous.IsZero() {
		rec.PreviousBlockIDs = []pack.Multihash{b.Header.Previous}
	}
	if receipt != nil {
		box := pack.NewOpaque(*receipt)
		rec.Receipt = &box
	}
	return a.PutBlockRecord(rec)
}

// PutBlockRecord stores rec and indexes it under rec.BlockID.
func (a *Archive) PutBlockRecord(rec BlockRecord) (cid.Cid, error) {
	id, err := storage.PutValue(a.cas, rec)
	if err != nil {
		return cid.Undef, err
	}
	a.blocks.put(rec.BlockID, id)
	return id, nil
}

// BlockRecord reads the record stored under id.
func (a *Archive) BlockRecord(id cid.Cid) (BlockRecord, error) {
	var rec BlockRecord
	if err := storage.GetValue(a.cas, id, &rec); err != nil {
		return BlockRecord{}, err
	}
	return rec, nil
}

// LookupBlock returns the item for blockID, or storage.ErrNotFound.
func (a *Archive) LookupBlock(blockID pack.Multihash) (BlockItem, error) {
	id, ok := a.blocks.get(blockID)
	if !ok {
		return BlockItem{}, storage.ErrNotFound
	}
	rec, err := a.BlockRecord(id)
	if err != nil {
		return BlockItem{}, err
	}
	return rec.Item(), nil
}

// PutTransaction stores tx as a TransactionRecord indexed under tx.ID.
func (a *Archive) PutTransaction(tx protocol.Transaction) (cid.Cid, error) {
	id, err := storage.PutValue(a.cas, TransactionRecord{Transaction: pack.NewOpaque(tx)})
	if err != nil {
		return cid.Undef, err
	}
	a.txs.put(tx.ID, id)
	return id, nil
}

// TransactionRecord reads the record stored under id.
func (a *Archive) TransactionRecord(id cid.Cid) (TransactionRecord, error) {
	var rec TransactionRecord
	if err := storage.GetValue(a.cas, id, &rec); err != nil {
		return TransactionRecord{}, err
	}
	return rec, nil
}

// LookupTransaction returns the item for txID, or storage.ErrNotFound.
func (a *Archive) LookupTransaction(txID pack.Multihash) (TransactionItem, error) {
	id, ok := a.txs.get(txID)
	if !ok {
		return TransactionItem{}, storage.ErrNotFound
	}
	rec, err := a.TransactionRecord(id)
	if err != nil {
		return TransactionItem{}, err
	}
	return TransactionItem{Transaction: rec.Transaction}, nil
}

// Index reads the block record stored under id and adds it to the block
// index. The embedded block is materialized and its id must match the
// record's BlockID.
func (a *Archive) Index(id cid.Cid) error {
	rec, err := a.BlockRecord(id)
	if err != nil {
		return err
	}
	b, err := rec.Block.Materialize()
	if err != nil {
		return fmt.Errorf("blockstore: record %s: %w", id, err)
	}
	if !b.ID.Equal(rec.BlockID) {
		return fmt.Errorf("blockstore: record %s: block id %s does not match record id %s", id, b.ID, rec.BlockID)
	}
	a.blocks.put(rec.BlockID, id)
	return nil
}

// Len returns the number of indexed blocks and transactions.
func (a *Archive) Len() (blocks, txs int) {
	return a.blocks.len(), a.txs.len()
}

type index struct {
	shards [indexShards]indexShard
}

type indexShard struct {
	mu sync.RWMutex
	m  map[string]cid.Cid
}

func (ix *index) init() {
	for i := range ix.shards {
		ix.shards[i].m = make(map[string]cid.Cid)
	}
}

func (ix *index) shard(k pack.Multihash) *indexShard {
	return &ix.shards[k.Hash64()&(indexShards-1)]
}

func (ix *index) put(k pack.Multihash, id cid.Cid) {
	s := ix.shard(k)
	s.mu.Lock()
	s.m[k.Key()] = id
	s.mu.Unlock()
}

func (ix *index) get(k pack.Multihash) (cid.Cid, bool) {
	s := ix.shard(k)
	s.mu.RLock()
	id, ok := s.m[k.Key()]
	s.mu.RUnlock()
	return id, ok
}

func (ix *index) len() int {
	n := 0
	for i := range ix.shards {
		s := &ix.shards[i]
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}
