package pack

import (
	"unicode/utf8"

	"github.com/multiformats/go-multibase"
)

// VariableBlob is varint(len) ++ bytes. In JSON it is a multibase string,
// base58btc on output.
type VariableBlob []byte

func (v VariableBlob) EncodePack(w *Writer) {
	w.AppendUvarint(uint64(len(v)))
	w.Append(v)
}

func (v *VariableBlob) DecodePack(r *Reader, _ Depth) error {
	b, err := readBlob(r)
	if err != nil {
		return err
	}
	*v = b
	return nil
}

func (v VariableBlob) EncodeJSON() any { return encodeBlobText(v) }

func (v *VariableBlob) DecodeJSON(node any, _ Depth) error {
	b, err := decodeBlobText(node)
	if err != nil {
		return err
	}
	*v = b
	return nil
}

func readBlob(r *Reader) ([]byte, error) {
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b, err := r.Next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func encodeBlobText(b []byte) string {
	s, err := multibase.Encode(multibase.Base58BTC, b)
	if err != nil {
		// Base58BTC is always supported.
		panic(err)
	}
	return s
}

func decodeBlobText(node any) ([]byte, error) {
	s, ok := node.(string)
	if !ok {
		return nil, jsonTypeError("multibase string", node)
	}
	if len(s) == 1 {
		// A bare prefix is the empty blob; base58 decoders reject "".
		if _, known := multibase.EncodingToStr[multibase.Encoding(s[0])]; known {
			return nil, nil
		}
	}
	_, b, err := multibase.Decode(s)
	if err != nil {
		return nil, wrapError(KindMalformedJSON, "PACK-JSON-003", "invalid multibase blob", err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	return b, nil
}

// String is varint(len) ++ UTF-8 bytes.
type String string

func (v String) EncodePack(w *Writer) {
	w.AppendUvarint(uint64(len(v)))
	w.buf = append(w.buf, v...)
}

func (v *String) DecodePack(r *Reader, _ Depth) error {
	start := r.Offset()
	n, err := r.ReadLength()
	if err != nil {
		return err
	}
	b, err := r.Next(n)
	if err != nil {
		return err
	}
	if !utf8.Valid(b) {
		return newError(KindInvalidString, "PACK-STR-001", "string at offset %d is not valid UTF-8", start)
	}
	*v = String(b)
	return nil
}

func (v String) EncodeJSON() any { return string(v) }

func (v *String) DecodeJSON(node any, _ Depth) error {
	s, ok := node.(string)
	if !ok {
		return jsonTypeError("string", node)
	}
	if !utf8.ValidString(s) {
		return newError(KindInvalidString, "PACK-STR-001", "string is not valid UTF-8")
	}
	*v = String(s)
	return nil
}

// FixedBlob20 is exactly 20 bytes with no length prefix.
type FixedBlob20 [20]byte

func (v FixedBlob20) EncodePack(w *Writer) { w.Append(v[:]) }

func (v *FixedBlob20) DecodePack(r *Reader, _ Depth) error { return decodeFixed(r, v[:]) }

func (v FixedBlob20) EncodeJSON() any { return encodeBlobText(v[:]) }

func (v *FixedBlob20) DecodeJSON(node any, _ Depth) error {
	return decodeFixedBlobText(node, v[:])
}

// FixedBlob32 is exactly 32 bytes with no length prefix.
type FixedBlob32 [32]byte

func (v FixedBlob32) EncodePack(w *Writer) { w.Append(v[:]) }

func (v *FixedBlob32) DecodePack(r *Reader, _ Depth) error { return decodeFixed(r, v[:]) }

func (v FixedBlob32) EncodeJSON() any { return encodeBlobText(v[:]) }

func (v *FixedBlob32) DecodeJSON(node any, _ Depth) error {
	return decodeFixedBlobText(node, v[:])
}

func decodeFixedBlobText(node any, dst []byte) error {
	b, err := decodeBlobText(node)
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return newError(KindMalformedJSON, "PACK-JSON-004", "fixed blob holds %d bytes, want %d", len(b), len(dst))
	}
	copy(dst, b)
	return nil
}
