package pack

import "sync/atomic"

// Opaque carries a T that is decoded only on request.
//
// A box is Raw (captured bytes only) or Resolved (bytes plus the decoded
// value). In both states it re-emits exactly the bytes it was built from;
// T's own encoder is only used by NewOpaque. On the wire it is T's encoding
// with nothing added.
//
// Copies of a box share state. The zero Opaque holds the zero T.
type Opaque[T any, PT Ptr[T]] struct {
	c *opaqueCell[T]
}

type opaqueCell[T any] struct {
	raw   []byte
	depth Depth
	value atomic.Pointer[T]
}

// NewOpaque boxes v in the Resolved state, capturing T's encoding of it.
func NewOpaque[T any, PT Ptr[T]](v T) Opaque[T, PT] {
	c := &opaqueCell[T]{raw: Marshal(PT(&v))}
	c.value.Store(&v)
	return Opaque[T, PT]{c: c}
}

// OpaqueFromBytes boxes raw in the Raw state. Nothing is validated until
// Materialize. raw is copied.
func OpaqueFromBytes[T any, PT Ptr[T]](raw []byte) Opaque[T, PT] {
	return Opaque[T, PT]{c: &opaqueCell[T]{raw: append([]byte{}, raw...)}}
}

func (o Opaque[T, PT]) cell() *opaqueCell[T] {
	if o.c != nil {
		return o.c
	}
	var zero T
	return NewOpaque[T, PT](zero).c
}

// Bytes returns the serialized form. Callers must not modify it.
func (o Opaque[T, PT]) Bytes() []byte { return o.cell().raw }

// IsResolved reports whether the value has been decoded.
func (o Opaque[T, PT]) IsResolved() bool {
	return o.c == nil || o.c.value.Load() != nil
}

// Materialize decodes the captured bytes once and returns the value. The
// decode starts at the depth where the box was captured and must consume
// every byte. Concurrent callers may both decode; one result is published
// and both receive it.
//
// The returned value is shared. Changing it does not change Bytes; build a
// new box with NewOpaque instead.
func (o Opaque[T, PT]) Materialize() (*T, error) {
	c := o.cell()
	if v := c.value.Load(); v != nil {
		return v, nil
	}
	r := NewReader(c.raw)
	v := new(T)
	if err := PT(v).DecodePack(r, c.depth); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, newError(KindTrailingBytes, "PACK-IN-002", "%d trailing bytes after opaque value at offset %d", r.Len(), r.Offset())
	}
	if !c.value.CompareAndSwap(nil, v) {
		return c.value.Load(), nil
	}
	return v, nil
}

// MustMaterialize is Materialize for boxes built with NewOpaque, where the
// bytes are known to decode. It panics on error.
func (o Opaque[T, PT]) MustMaterialize() *T {
	v, err := o.Materialize()
	if err != nil {
		panic(err)
	}
	return v
}

func (o Opaque[T, PT]) EncodePack(w *Writer) { w.Append(o.cell().raw) }

// DecodePack captures the extent of one T. The span is validated by running
// T's decoder over it; the decoded value is discarded and the box stays Raw.
func (o *Opaque[T, PT]) DecodePack(r *Reader, d Depth) error {
	start := r.Offset()
	var scratch T
	if err := PT(&scratch).DecodePack(r, d); err != nil {
		return err
	}
	o.c = &opaqueCell[T]{raw: r.span(start), depth: d}
	return nil
}

// opaqueKey names the single member of the object a Raw box renders as.
// Wrapping keeps raw bytes distinct from a T whose own tree is a string.
const opaqueKey = "opaque"

// EncodeJSON renders a Resolved box as T's tree and a Raw box as
// {"opaque": "<multibase text of its bytes>"}.
func (o Opaque[T, PT]) EncodeJSON() any {
	c := o.cell()
	if v := c.value.Load(); v != nil {
		return PT(v).EncodeJSON()
	}
	return map[string]any{opaqueKey: encodeBlobText(c.raw)}
}

// rawOpaqueText reports the blob text of a {"opaque": "..."} object.
func rawOpaqueText(node any) (string, bool) {
	m, ok := node.(map[string]any)
	if !ok || len(m) != 1 {
		return "", false
	}
	s, ok := m[opaqueKey].(string)
	return s, ok
}

// DecodeJSON reads a {"opaque": "..."} object as Raw bytes captured at d
// and anything else as a T.
func (o *Opaque[T, PT]) DecodeJSON(node any, d Depth) error {
	if text, ok := rawOpaqueText(node); ok {
		raw, err := decodeBlobText(text)
		if err != nil {
			return err
		}
		o.c = &opaqueCell[T]{raw: raw, depth: d}
		return nil
	}
	v := new(T)
	if err := PT(v).DecodeJSON(node, d); err != nil {
		return err
	}
	c := &opaqueCell[T]{raw: Marshal(PT(v)), depth: d}
	c.value.Store(v)
	o.c = c
	return nil
}
