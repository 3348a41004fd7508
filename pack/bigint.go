package pack

import (
	"math/big"
)

// Multi-word integers are stored as their exact big-endian wire bytes.
// Signed types hold two's complement; only conversion to and from big.Int
// does any arithmetic.

type (
	Int128  [16]byte
	Uint128 [16]byte
	Int160  [20]byte
	Uint160 [20]byte
	Int256  [32]byte
	Uint256 [32]byte
)

// fillBig writes x into dst as a fixed-width integer, failing with
// OutOfRange when x does not fit.
func fillBig(dst []byte, x *big.Int, signed bool) error {
	width := len(dst) * 8
	if x == nil {
		x = new(big.Int)
	}
	if !fitsBig(x, width, signed) {
		kind := "unsigned"
		if signed {
			kind = "signed"
		}
		return newError(KindOutOfRange, "PACK-RANGE-001", "%s does not fit in %s %d bits", x.String(), kind, width)
	}
	if x.Sign() >= 0 {
		x.FillBytes(dst)
		return nil
	}
	t := new(big.Int).Lsh(big.NewInt(1), uint(width))
	t.Add(t, x)
	t.FillBytes(dst)
	return nil
}

func fitsBig(x *big.Int, width int, signed bool) bool {
	if !signed {
		return x.Sign() >= 0 && x.BitLen() <= width
	}
	if x.Sign() >= 0 {
		return x.BitLen() <= width-1
	}
	// -2^(w-1) <= x  <=>  bitlen(-x-1) <= w-1
	m := new(big.Int).Neg(x)
	m.Sub(m, big.NewInt(1))
	return m.BitLen() <= width-1
}

func readBig(src []byte, signed bool) *big.Int {
	x := new(big.Int).SetBytes(src)
	if signed && len(src) > 0 && src[0]&0x80 != 0 {
		t := new(big.Int).Lsh(big.NewInt(1), uint(len(src)*8))
		x.Sub(x, t)
	}
	return x
}

func decodeFixed(r *Reader, dst []byte) error {
	b, err := r.Next(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

func decodeJSONFixed(node any, dst []byte, signed bool) error {
	x, err := decodeJSONBig(node)
	if err != nil {
		return err
	}
	return fillBig(dst, x, signed)
}

func Int128FromBig(x *big.Int) (Int128, error) {
	var v Int128
	err := fillBig(v[:], x, true)
	return v, err
}

func (v Int128) Big() *big.Int { return readBig(v[:], true) }
func (v Int128) String() string { return v.Big().String() }
func (v Int128) EncodePack(w *Writer) { w.Append(v[:]) }
func (v *Int128) DecodePack(r *Reader, _ Depth) error { return decodeFixed(r, v[:]) }
func (v Int128) EncodeJSON() any { return jsonBig(v.Big()) }
func (v *Int128) DecodeJSON(node any, _ Depth) error {
	return decodeJSONFixed(node, v[:], true)
}

func Uint128FromBig(x *big.Int) (Uint128, error) {
	var v Uint128
	err := fillBig(v[:], x, false)
	return v, err
}

// Uint128FromUint64 widens u. It cannot fail.
func Uint128FromUint64(u uint64) Uint128 {
	v, _ := Uint128FromBig(new(big.Int).SetUint64(u))
	return v
}

func (v Uint128) Big() *big.Int { return readBig(v[:], false) }
func (v Uint128) String() string { return v.Big().String() }
func (v Uint128) EncodePack(w *Writer) { w.Append(v[:]) }
func (v *Uint128) DecodePack(r *Reader, _ Depth) error { return decodeFixed(r, v[:]) }
func (v Uint128) EncodeJSON() any { return jsonBig(v.Big()) }
func (v *Uint128) DecodeJSON(node any, _ Depth) error {
	return decodeJSONFixed(node, v[:], false)
}

func Int160FromBig(x *big.Int) (Int160, error) {
	var v Int160
	err := fillBig(v[:], x, true)
	return v, err
}

func (v Int160) Big() *big.Int { return readBig(v[:], true) }
func (v Int160) String() string { return v.Big().String() }
func (v Int160) EncodePack(w *Writer) { w.Append(v[:]) }
func (v *Int160) DecodePack(r *Reader, _ Depth) error { return decodeFixed(r, v[:]) }
func (v Int160) EncodeJSON() any { return jsonBig(v.Big()) }
func (v *Int160) DecodeJSON(node any, _ Depth) error {
	return decodeJSONFixed(node, v[:], true)
}

func Uint160FromBig(x *big.Int) (Uint160, error) {
	var v Uint160
	err := fillBig(v[:], x, false)
	return v, err
}

func (v Uint160) Big() *big.Int { return readBig(v[:], false) }
func (v Uint160) String() string { return v.Big().String() }
func (v Uint160) EncodePack(w *Writer) { w.Append(v[:]) }
func (v *Uint160) DecodePack(r *Reader, _ Depth) error { return decodeFixed(r, v[:]) }
func (v Uint160) EncodeJSON() any { return jsonBig(v.Big()) }
func (v *Uint160) DecodeJSON(node any, _ Depth) error {
	return decodeJSONFixed(node, v[:], false)
}

func Int256FromBig(x *big.Int) (Int256, error) {
	var v Int256
	err := fillBig(v[:], x, true)
	return v, err
}

func (v Int256) Big() *big.Int { return readBig(v[:], true) }
func (v Int256) String() string { return v.Big().String() }
func (v Int256) EncodePack(w *Writer) { w.Append(v[:]) }
func (v *Int256) DecodePack(r *Reader, _ Depth) error { return decodeFixed(r, v[:]) }
func (v Int256) EncodeJSON() any { return jsonBig(v.Big()) }
func (v *Int256) DecodeJSON(node any, _ Depth) error {
	return decodeJSONFixed(node, v[:], true)
}

func Uint256FromBig(x *big.Int) (Uint256, error) {
	var v Uint256
	err := fillBig(v[:], x, false)
	return v, err
}

func (v Uint256) Big() *big.Int { return readBig(v[:], false) }
func (v Uint256) String() string { return v.Big().String() }
func (v Uint256) EncodePack(w *Writer) { w.Append(v[:]) }
func (v *Uint256) DecodePack(r *Reader, _ Depth) error { return decodeFixed(r, v[:]) }
func (v Uint256) EncodeJSON() any { return jsonBig(v.Big()) }
func (v *Uint256) DecodeJSON(node any, _ Depth) error {
	return decodeJSONFixed(node, v[:], false)
}
