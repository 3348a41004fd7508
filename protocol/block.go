package protocol

import (
	"xdao.co/kpack/pack"
)

// BlockHeader links a block to its parent and places it in the chain.
type BlockHeader struct {
	Previous  pack.Multihash
	Height    pack.BlockHeight
	Timestamp pack.Timestamp
}

func (h BlockHeader) EncodePack(w *pack.Writer) {
	h.Previous.EncodePack(w)
	h.Height.EncodePack(w)
	h.Timestamp.EncodePack(w)
}

func (h *BlockHeader) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := h.Previous.DecodePack(r, d); err != nil {
		return err
	}
	if err := h.Height.DecodePack(r, d); err != nil {
		return err
	}
	return h.Timestamp.DecodePack(r, d)
}

func (h BlockHeader) EncodeJSON() any {
	return map[string]any{
		"previous":  h.Previous.EncodeJSON(),
		"height":    h.Height.EncodeJSON(),
		"timestamp": h.Timestamp.EncodeJSON(),
	}
}

func (h *BlockHeader) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "previous", &h.Previous, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "height", &h.Height, d); err != nil {
		return err
	}
	return pack.DecodeField(obj, "timestamp", &h.Timestamp, d)
}

// ActiveBlockData is the signed part of a block.
type ActiveBlockData struct {
	TransactionMerkleRoot pack.Multihash
	PassiveDataMerkleRoot pack.Multihash
	Signer                pack.VariableBlob
}

func (a ActiveBlockData) EncodePack(w *pack.Writer) {
	a.TransactionMerkleRoot.EncodePack(w)
	a.PassiveDataMerkleRoot.EncodePack(w)
	a.Signer.EncodePack(w)
}

func (a *ActiveBlockData) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := a.TransactionMerkleRoot.DecodePack(r, d); err != nil {
		return err
	}
	if err := a.PassiveDataMerkleRoot.DecodePack(r, d); err != nil {
		return err
	}
	return a.Signer.DecodePack(r, d)
}

func (a ActiveBlockData) EncodeJSON() any {
	return map[string]any{
		"transaction_merkle_root":  a.TransactionMerkleRoot.EncodeJSON(),
		"passive_data_merkle_root": a.PassiveDataMerkleRoot.EncodeJSON(),
		"signer":                   a.Signer.EncodeJSON(),
	}
}

func (a *ActiveBlockData) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "transaction_merkle_root", &a.TransactionMerkleRoot, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "passive_data_merkle_root", &a.PassiveDataMerkleRoot, d); err != nil {
		return err
	}
	return pack.DecodeField(obj, "signer", &a.Signer, d)
}

// PassiveBlockData is the unsigned part of a block. It is reserved and
// currently empty.
type PassiveBlockData struct{}

func (PassiveBlockData) EncodePack(*pack.Writer) {}

func (*PassiveBlockData) DecodePack(*pack.Reader, pack.Depth) error { return nil }

func (PassiveBlockData) EncodeJSON() any { return map[string]any{} }

func (*PassiveBlockData) DecodeJSON(node any, _ pack.Depth) error {
	_, err := pack.JSONObject(node)
	return err
}

type (
	OpaqueActiveBlockData  = pack.Opaque[ActiveBlockData, *ActiveBlockData]
	OpaquePassiveBlockData = pack.Opaque[PassiveBlockData, *PassiveBlockData]
)

// Block is a header, its signed and unsigned data boxes and the
// transactions it carries. ID covers the header and the captured active
// data bytes; see ComputeBlockID.
type Block struct {
	ID            pack.Multihash
	Header        BlockHeader
	ActiveData    OpaqueActiveBlockData
	PassiveData   OpaquePassiveBlockData
	SignatureData pack.VariableBlob
	Transactions  []Transaction
}

func (b Block) EncodePack(w *pack.Writer) {
	b.ID.EncodePack(w)
	b.Header.EncodePack(w)
	b.ActiveData.EncodePack(w)
	b.PassiveData.EncodePack(w)
	b.SignatureData.EncodePack(w)
	pack.EncodeSequence(w, b.Transactions)
}

func (b *Block) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := b.ID.DecodePack(r, d); err != nil {
		return err
	}
	if err := b.Header.DecodePack(r, d); err != nil {
		return err
	}
	if err := b.ActiveData.DecodePack(r, d); err != nil {
		return err
	}
	if err := b.PassiveData.DecodePack(r, d); err != nil {
		return err
	}
	if err := b.SignatureData.DecodePack(r, d); err != nil {
		return err
	}
	txs, err := pack.DecodeSequence[Transaction](r, d)
	if err != nil {
		return err
	}
	b.Transactions = txs
	return nil
}

func (b Block) EncodeJSON() any {
	return map[string]any{
		"id":             b.ID.EncodeJSON(),
		"header":         b.Header.EncodeJSON(),
		"active_data":    b.ActiveData.EncodeJSON(),
		"passive_data":   b.PassiveData.EncodeJSON(),
		"signature_data": b.SignatureData.EncodeJSON(),
		"transactions":   pack.EncodeSequenceJSON(b.Transactions),
	}
}

func (b *Block) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "id", &b.ID, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "header", &b.Header, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "active_data", &b.ActiveData, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "passive_data", &b.PassiveData, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "signature_data", &b.SignatureData, d); err != nil {
		return err
	}
	txs, err := pack.DecodeSequenceJSON[Transaction](obj["transactions"], d)
	if err != nil {
		return err
	}
	b.Transactions = txs
	return nil
}

// BlockReceipt records the resources a block consumed when applied.
type BlockReceipt struct {
	ID                   pack.Multihash
	Height               pack.BlockHeight
	DiskStorageUsed      pack.Uint64
	NetworkBandwidthUsed pack.Uint64
	ComputeBandwidthUsed pack.Uint64
}

func (r BlockReceipt) EncodePack(w *pack.Writer) {
	r.ID.EncodePack(w)
	r.Height.EncodePack(w)
	r.DiskStorageUsed.EncodePack(w)
	r.NetworkBandwidthUsed.EncodePack(w)
	r.ComputeBandwidthUsed.EncodePack(w)
}

func (r *BlockReceipt) DecodePack(rd *pack.Reader, d pack.Depth) error {
	if err := r.ID.DecodePack(rd, d); err != nil {
		return err
	}
	if err := r.Height.DecodePack(rd, d); err != nil {
		return err
	}
	if err := r.DiskStorageUsed.DecodePack(rd, d); err != nil {
		return err
	}
	if err := r.NetworkBandwidthUsed.DecodePack(rd, d); err != nil {
		return err
	}
	return r.ComputeBandwidthUsed.DecodePack(rd, d)
}

func (r BlockReceipt) EncodeJSON() any {
	return map[string]any{
		"id":                     r.ID.EncodeJSON(),
		"height":                 r.Height.EncodeJSON(),
		"disk_storage_used":      r.DiskStorageUsed.EncodeJSON(),
		"network_bandwidth_used": r.NetworkBandwidthUsed.EncodeJSON(),
		"compute_bandwidth_used": r.ComputeBandwidthUsed.EncodeJSON(),
	}
}

func (r *BlockReceipt) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "id", &r.ID, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "height", &r.Height, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "disk_storage_used", &r.DiskStorageUsed, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "network_bandwidth_used", &r.NetworkBandwidthUsed, d); err != nil {
		return err
	}
	return pack.DecodeField(obj, "compute_bandwidth_used", &r.ComputeBandwidthUsed, d)
}
