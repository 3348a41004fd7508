package pack

import (
	"encoding/json"
	"math/bits"
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"
)

// AppendUvarint appends v as LEB128 groups, least significant first.
func AppendUvarint(b []byte, v uint64) []byte {
	return protowire.AppendVarint(b, v)
}

// UvarintSize is the encoded length of v.
func UvarintSize(v uint64) int {
	return protowire.SizeVarint(v)
}

// AppendVarint appends the zig-zag mapping of v as an unsigned varint.
// Narrower signed widths share this mapping: a sign-extended value maps to
// the same unsigned number as it would at its own width.
func AppendVarint(b []byte, v int64) []byte {
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

// ConsumeUvarint decodes an unsigned varint from the front of b that must
// fit in bits (8, 16, 32 or 64). It returns the value and the bytes consumed.
func ConsumeUvarint(b []byte, bits int) (uint64, int, error) {
	v, n, kind := consumeUvarint(b, bits)
	if kind != "" {
		r := Reader{buf: b}
		return 0, 0, r.varintError(kind, bits)
	}
	return v, n, nil
}

// ConsumeVarint is the zig-zag signed counterpart of ConsumeUvarint.
func ConsumeVarint(b []byte, bits int) (int64, int, error) {
	v, n, kind := consumeVarint(b, bits)
	if kind != "" {
		r := Reader{buf: b}
		return 0, 0, r.varintError(kind, bits)
	}
	return v, n, nil
}

// maxGroups is the most 7-bit groups a value of the given width can need.
func maxGroups(width int) int {
	return (width + 6) / 7
}

func consumeUvarint(b []byte, width int) (uint64, int, Kind) {
	limit := maxGroups(width)
	end := -1
	for i := 0; i < len(b) && i < limit; i++ {
		if b[i] < 0x80 {
			end = i + 1
			break
		}
	}
	if end < 0 {
		return 0, 0, KindMalformedVarint
	}
	v, n := protowire.ConsumeVarint(b[:end])
	if n < 0 {
		// Only a tenth group carrying more than the top bit of a uint64.
		return 0, 0, KindOutOfRange
	}
	if width < 64 && bits.Len64(v) > width {
		return 0, 0, KindOutOfRange
	}
	return v, n, ""
}

func consumeVarint(b []byte, width int) (int64, int, Kind) {
	u, n, kind := consumeUvarint(b, width)
	if kind != "" {
		return 0, 0, kind
	}
	return protowire.DecodeZigZag(u), n, ""
}

// UnsignedInt is an unsigned 64-bit integer carried as a varint.
type UnsignedInt uint64

func (v UnsignedInt) EncodePack(w *Writer) { w.AppendUvarint(uint64(v)) }

func (v *UnsignedInt) DecodePack(r *Reader, _ Depth) error {
	u, err := r.ReadUvarint(64)
	if err != nil {
		return err
	}
	*v = UnsignedInt(u)
	return nil
}

func (v UnsignedInt) EncodeJSON() any { return jsonUint(uint64(v)) }

func (v *UnsignedInt) DecodeJSON(node any, _ Depth) error {
	u, err := decodeJSONUint(node, 64)
	if err != nil {
		return err
	}
	*v = UnsignedInt(u)
	return nil
}

// SignedInt is a signed 64-bit integer carried as a zig-zag varint.
type SignedInt int64

func (v SignedInt) EncodePack(w *Writer) { w.AppendVarint(int64(v)) }

func (v *SignedInt) DecodePack(r *Reader, _ Depth) error {
	s, err := r.ReadVarint(64)
	if err != nil {
		return err
	}
	*v = SignedInt(s)
	return nil
}

func (v SignedInt) EncodeJSON() any { return jsonInt(int64(v)) }

func (v *SignedInt) DecodeJSON(node any, _ Depth) error {
	s, err := decodeJSONInt(node, 64)
	if err != nil {
		return err
	}
	*v = SignedInt(s)
	return nil
}

// jsonUint renders v as a number when a double holds it exactly, else as a
// decimal string.
func jsonUint(v uint64) any {
	if v <= maxSafeInteger {
		return json.Number(strconv.FormatUint(v, 10))
	}
	return strconv.FormatUint(v, 10)
}

func jsonInt(v int64) any {
	if v <= maxSafeInteger && v >= -maxSafeInteger {
		return json.Number(strconv.FormatInt(v, 10))
	}
	return strconv.FormatInt(v, 10)
}
