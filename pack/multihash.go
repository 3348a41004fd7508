package pack

import (
	"bytes"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// Multihash pairs a hash algorithm identifier with a digest.
//
// Wire form: varint(ID) ++ varint(len(Digest)) ++ Digest.
// Values are ordered by ID, then digest length, then digest bytes.
type Multihash struct {
	ID     uint64
	Digest []byte
}

func (m Multihash) EncodePack(w *Writer) {
	w.AppendUvarint(m.ID)
	w.AppendUvarint(uint64(len(m.Digest)))
	w.Append(m.Digest)
}

func (m *Multihash) DecodePack(r *Reader, _ Depth) error {
	id, err := r.ReadUvarint(64)
	if err != nil {
		return err
	}
	digest, err := readBlob(r)
	if err != nil {
		return err
	}
	m.ID = id
	m.Digest = digest
	return nil
}

func (m Multihash) EncodeJSON() any {
	return map[string]any{
		"hash":   jsonUint(m.ID),
		"digest": encodeBlobText(m.Digest),
	}
}

func (m *Multihash) DecodeJSON(node any, _ Depth) error {
	obj, err := JSONObject(node)
	if err != nil {
		return err
	}
	id, err := decodeJSONUint(obj["hash"], 64)
	if err != nil {
		return within("hash", err)
	}
	digest, err := decodeBlobText(obj["digest"])
	if err != nil {
		return within("digest", err)
	}
	m.ID = id
	m.Digest = digest
	return nil
}

// Compare returns -1, 0 or +1.
func (m Multihash) Compare(o Multihash) int {
	switch {
	case m.ID < o.ID:
		return -1
	case m.ID > o.ID:
		return 1
	case len(m.Digest) < len(o.Digest):
		return -1
	case len(m.Digest) > len(o.Digest):
		return 1
	}
	return bytes.Compare(m.Digest, o.Digest)
}

func (m Multihash) Equal(o Multihash) bool { return m.Compare(o) == 0 }

func (m Multihash) Less(o Multihash) bool { return m.Compare(o) < 0 }

// IsZero reports whether m is the zero multihash (ID 0, empty digest).
func (m Multihash) IsZero() bool { return m.ID == 0 && len(m.Digest) == 0 }

// Hash64 is a bucketing hash over the wire form, for sharded maps and sets.
// It plays no part in ordering.
func (m Multihash) Hash64() uint64 {
	return xxhash.Sum64(Marshal(m))
}

// Key returns the wire form as a string, usable as a Go map key.
func (m Multihash) Key() string { return string(Marshal(m)) }

// String is the hex of the wire form.
func (m Multihash) String() string { return hex.EncodeToString(Marshal(m)) }

// MultihashVector is a run of digests sharing one algorithm and size.
//
// Wire form: varint(ID) ++ varint(size) ++ varint(count) ++ digests.
type MultihashVector struct {
	ID      uint64
	Digests [][]byte
}

func (v MultihashVector) digestSize() (int, error) {
	if len(v.Digests) == 0 {
		return 0, nil
	}
	size := len(v.Digests[0])
	for i, d := range v.Digests[1:] {
		if len(d) != size {
			return 0, newError(KindDigestLengthMismatch, "PACK-MH-001", "digest %d has %d bytes, want %d", i+1, len(d), size)
		}
	}
	return size, nil
}

// EncodePack panics with a *Error of kind Precondition if digests differ in size.
func (v MultihashVector) EncodePack(w *Writer) {
	size, err := v.digestSize()
	if err != nil {
		panic(&Error{Kind: KindPrecondition, RuleID: "PACK-PRE-002", Message: err.Error(), Cause: err})
	}
	w.AppendUvarint(v.ID)
	w.AppendUvarint(uint64(size))
	w.AppendUvarint(uint64(len(v.Digests)))
	for _, d := range v.Digests {
		w.Append(d)
	}
}

func (v *MultihashVector) DecodePack(r *Reader, d Depth) error {
	if _, err := d.Enter(); err != nil {
		return err
	}
	id, err := r.ReadUvarint(64)
	if err != nil {
		return err
	}
	size, err := r.ReadLength()
	if err != nil {
		return err
	}
	start := r.Offset()
	count, err := r.ReadLength()
	if err != nil {
		return err
	}
	if size > 0 && count > r.Len()/size {
		return newError(KindTruncatedInput, "PACK-IN-003", "%d digests of %d bytes at offset %d exceed remaining %d bytes", count, size, start, r.Len())
	}
	var digests [][]byte
	if count > 0 {
		digests = make([][]byte, count)
	}
	for i := range digests {
		b, err := r.Next(size)
		if err != nil {
			return err
		}
		digests[i] = append([]byte(nil), b...)
	}
	v.ID = id
	v.Digests = digests
	return nil
}

// Multihash returns the i'th digest as a standalone Multihash.
func (v MultihashVector) Multihash(i int) Multihash {
	return Multihash{ID: v.ID, Digest: v.Digests[i]}
}

func (v MultihashVector) EncodeJSON() any {
	digests := make([]any, len(v.Digests))
	for i, d := range v.Digests {
		digests[i] = encodeBlobText(d)
	}
	return map[string]any{
		"hash":    jsonUint(v.ID),
		"digests": digests,
	}
}

func (v *MultihashVector) DecodeJSON(node any, d Depth) error {
	if _, err := d.Enter(); err != nil {
		return err
	}
	obj, err := JSONObject(node)
	if err != nil {
		return err
	}
	id, err := decodeJSONUint(obj["hash"], 64)
	if err != nil {
		return within("hash", err)
	}
	list, ok := obj["digests"].([]any)
	if !ok {
		return within("digests", jsonTypeError("array", obj["digests"]))
	}
	out := MultihashVector{ID: id}
	for _, n := range list {
		b, err := decodeBlobText(n)
		if err != nil {
			return within("digests", err)
		}
		out.Digests = append(out.Digests, b)
	}
	if _, err := out.digestSize(); err != nil {
		return err
	}
	*v = out
	return nil
}
