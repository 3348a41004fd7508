// Package blockstore defines the records a block store persists and a small
// content-addressed archive for them.
//
// Records are plain composites: payloads stay in opaque boxes so the store
// can move them without decoding.
package blockstore

import (
	"xdao.co/kpack/pack"
	"xdao.co/kpack/protocol"
)

type (
	OpaqueBlock        = pack.Opaque[protocol.Block, *protocol.Block]
	OpaqueBlockReceipt = pack.Opaque[protocol.BlockReceipt, *protocol.BlockReceipt]
	OpaqueTransaction  = pack.Opaque[protocol.Transaction, *protocol.Transaction]
)

// BlockItem is what the store hands back for a block query. Receipt is nil
// when the block has not been applied.
type BlockItem struct {
	BlockID     pack.Multihash
	BlockHeight pack.BlockHeight
	Block       OpaqueBlock
	Receipt     *OpaqueBlockReceipt
}

func (b BlockItem) EncodePack(w *pack.Writer) {
	b.BlockID.EncodePack(w)
	b.BlockHeight.EncodePack(w)
	b.Block.EncodePack(w)
	pack.EncodeOptional(w, b.Receipt)
}

func (b *BlockItem) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := b.BlockID.DecodePack(r, d); err != nil {
		return err
	}
	if err := b.BlockHeight.DecodePack(r, d); err != nil {
		return err
	}
	if err := b.Block.DecodePack(r, d); err != nil {
		return err
	}
	receipt, err := pack.DecodeOptional[OpaqueBlockReceipt](r, d)
	if err != nil {
		return err
	}
	b.Receipt = receipt
	return nil
}

func (b BlockItem) EncodeJSON() any {
	return map[string]any{
		"block_id":     b.BlockID.EncodeJSON(),
		"block_height": b.BlockHeight.EncodeJSON(),
		"block":        b.Block.EncodeJSON(),
		"receipt":      pack.EncodeOptionalJSON(b.Receipt),
	}
}

func (b *BlockItem) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "block_id", &b.BlockID, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "block_height", &b.BlockHeight, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "block", &b.Block, d); err != nil {
		return err
	}
	receipt, err := pack.DecodeOptionalJSON[OpaqueBlockReceipt](obj["receipt"], d)
	if err != nil {
		return err
	}
	b.Receipt = receipt
	return nil
}

// BlockRecord is the stored form of a block, keyed by BlockID.
type BlockRecord struct {
	BlockID          pack.Multihash
	BlockHeight      pack.BlockHeight
	PreviousBlockIDs []pack.Multihash
	Block            OpaqueBlock
	Receipt          *OpaqueBlockReceipt
}

func (b BlockRecord) EncodePack(w *pack.Writer) {
	b.BlockID.EncodePack(w)
	b.BlockHeight.EncodePack(w)
	pack.EncodeSequence(w, b.PreviousBlockIDs)
	b.Block.EncodePack(w)
	pack.EncodeOptional(w, b.Receipt)
}

func (b *BlockRecord) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := b.BlockID.DecodePack(r, d); err != nil {
		return err
	}
	if err := b.BlockHeight.DecodePack(r, d); err != nil {
		return err
	}
	prev, err := pack.DecodeSequence[pack.Multihash](r, d)
	if err != nil {
		return err
	}
	b.PreviousBlockIDs = prev
	if err := b.Block.DecodePack(r, d); err != nil {
		return err
	}
	receipt, err := pack.DecodeOptional[OpaqueBlockReceipt](r, d)
	if err != nil {
		return err
	}
	b.Receipt = receipt
	return nil
}

func (b BlockRecord) EncodeJSON() any {
	return map[string]any{
		"block_id":           b.BlockID.EncodeJSON(),
		"block_height":       b.BlockHeight.EncodeJSON(),
		"previous_block_ids": pack.EncodeSequenceJSON(b.PreviousBlockIDs),
		"block":              b.Block.EncodeJSON(),
		"receipt":            pack.EncodeOptionalJSON(b.Receipt),
	}
}

func (b *BlockRecord) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "block_id", &b.BlockID, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "block_height", &b.BlockHeight, d); err != nil {
		return err
	}
	prev, err := pack.DecodeSequenceJSON[pack.Multihash](obj["previous_block_ids"], d)
	if err != nil {
		return err
	}
	b.PreviousBlockIDs = prev
	if err := pack.DecodeField(obj, "block", &b.Block, d); err != nil {
		return err
	}
	receipt, err := pack.DecodeOptionalJSON[OpaqueBlockReceipt](obj["receipt"], d)
	if err != nil {
		return err
	}
	b.Receipt = receipt
	return nil
}

// Item returns the query form of the record.
func (b BlockRecord) Item() BlockItem {
	return BlockItem{
		BlockID:     b.BlockID,
		BlockHeight: b.BlockHeight,
		Block:       b.Block,
		Receipt:     b.Receipt,
	}
}

// TransactionItem is what the store hands back for a transaction query.
type TransactionItem struct {
	Transaction OpaqueTransaction
}

func (t TransactionItem) EncodePack(w *pack.Writer) { t.Transaction.EncodePack(w) }

func (t *TransactionItem) DecodePack(r *pack.Reader, d pack.Depth) error {
	return t.Transaction.DecodePack(r, d)
}

func (t TransactionItem) EncodeJSON() any {
	return map[string]any{"transaction": t.Transaction.EncodeJSON()}
}

func (t *TransactionItem) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	return pack.DecodeField(obj, "transaction", &t.Transaction, d)
}

// TransactionRecord is the stored form of a transaction.
type TransactionRecord struct {
	Transaction OpaqueTransaction
}

func (t TransactionRecord) EncodePack(w *pack.Writer) { t.Transaction.EncodePack(w) }

func (t *TransactionRecord) DecodePack(r *pack.Reader, d pack.Depth) error {
	return t.Transaction.DecodePack(r, d)
}

func (t TransactionRecord) EncodeJSON() any {
	return map[string]any{"transaction": t.Transaction.EncodeJSON()}
}

func (t *TransactionRecord) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	return pack.DecodeField(obj, "transaction", &t.Transaction, d)
}
