package protocol

import (
	"xdao.co/kpack/pack"
)

// ActiveTransactionData is the signed part of a transaction.
type ActiveTransactionData struct {
	ResourceLimit pack.Uint128
	Nonce         pack.Uint64
	Operations    []Operation
}

func (a ActiveTransactionData) EncodePack(w *pack.Writer) {
	a.ResourceLimit.EncodePack(w)
	a.Nonce.EncodePack(w)
	pack.EncodeSequence(w, a.Operations)
}

func (a *ActiveTransactionData) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := a.ResourceLimit.DecodePack(r, d); err != nil {
		return err
	}
	if err := a.Nonce.DecodePack(r, d); err != nil {
		return err
	}
	ops, err := pack.DecodeSequence[Operation](r, d)
	if err != nil {
		return err
	}
	a.Operations = ops
	return nil
}

func (a ActiveTransactionData) EncodeJSON() any {
	return map[string]any{
		"resource_limit": a.ResourceLimit.EncodeJSON(),
		"nonce":          a.Nonce.EncodeJSON(),
		"operations":     pack.EncodeSequenceJSON(a.Operations),
	}
}

func (a *ActiveTransactionData) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "resource_limit", &a.ResourceLimit, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "nonce", &a.Nonce, d); err != nil {
		return err
	}
	ops, err := pack.DecodeSequenceJSON[Operation](obj["operations"], d)
	if err != nil {
		return err
	}
	a.Operations = ops
	return nil
}

// PassiveTransactionData is reserved and currently empty.
type PassiveTransactionData struct{}

func (PassiveTransactionData) EncodePack(*pack.Writer) {}

func (*PassiveTransactionData) DecodePack(*pack.Reader, pack.Depth) error { return nil }

func (PassiveTransactionData) EncodeJSON() any { return map[string]any{} }

func (*PassiveTransactionData) DecodeJSON(node any, _ pack.Depth) error {
	_, err := pack.JSONObject(node)
	return err
}

type (
	OpaqueActiveTransactionData  = pack.Opaque[ActiveTransactionData, *ActiveTransactionData]
	OpaquePassiveTransactionData = pack.Opaque[PassiveTransactionData, *PassiveTransactionData]
)

type Transaction struct {
	ID            pack.Multihash
	ActiveData    OpaqueActiveTransactionData
	PassiveData   OpaquePassiveTransactionData
	SignatureData pack.VariableBlob
}

func (t Transaction) EncodePack(w *pack.Writer) {
	t.ID.EncodePack(w)
	t.ActiveData.EncodePack(w)
	t.PassiveData.EncodePack(w)
	t.SignatureData.EncodePack(w)
}

func (t *Transaction) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := t.ID.DecodePack(r, d); err != nil {
		return err
	}
	if err := t.ActiveData.DecodePack(r, d); err != nil {
		return err
	}
	if err := t.PassiveData.DecodePack(r, d); err != nil {
		return err
	}
	return t.SignatureData.DecodePack(r, d)
}

func (t Transaction) EncodeJSON() any {
	return map[string]any{
		"id":             t.ID.EncodeJSON(),
		"active_data":    t.ActiveData.EncodeJSON(),
		"passive_data":   t.PassiveData.EncodeJSON(),
		"signature_data": t.SignatureData.EncodeJSON(),
	}
}

func (t *Transaction) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "id", &t.ID, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "active_data", &t.ActiveData, d); err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "passive_data", &t.PassiveData, d); err != nil {
		return err
	}
	return pack.DecodeField(obj, "signature_data", &t.SignatureData, d)
}
