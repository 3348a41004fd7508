package pack

import (
	"encoding/binary"
)

// Bool is one byte, 0 or 1.
type Bool bool

func (v Bool) EncodePack(w *Writer) {
	if v {
		w.AppendByte(1)
		return
	}
	w.AppendByte(0)
}

func (v *Bool) DecodePack(r *Reader, _ Depth) error {
	off := r.Offset()
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	switch b {
	case 0:
		*v = false
	case 1:
		*v = true
	default:
		return newError(KindInvalidDiscriminant, "PACK-DISC-003", "boolean byte %d at offset %d", b, off)
	}
	return nil
}

func (v Bool) EncodeJSON() any { return bool(v) }

func (v *Bool) DecodeJSON(node any, _ Depth) error {
	b, ok := node.(bool)
	if !ok {
		return jsonTypeError("boolean", node)
	}
	*v = Bool(b)
	return nil
}

type Int8 int8

func (v Int8) EncodePack(w *Writer) { w.AppendByte(byte(v)) }

func (v *Int8) DecodePack(r *Reader, _ Depth) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	*v = Int8(int8(b))
	return nil
}

func (v Int8) EncodeJSON() any { return jsonInt(int64(v)) }

func (v *Int8) DecodeJSON(node any, _ Depth) error {
	s, err := decodeJSONInt(node, 8)
	if err != nil {
		return err
	}
	*v = Int8(s)
	return nil
}

type Uint8 uint8

func (v Uint8) EncodePack(w *Writer) { w.AppendByte(byte(v)) }

func (v *Uint8) DecodePack(r *Reader, _ Depth) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	*v = Uint8(b)
	return nil
}

func (v Uint8) EncodeJSON() any { return jsonUint(uint64(v)) }

func (v *Uint8) DecodeJSON(node any, _ Depth) error {
	u, err := decodeJSONUint(node, 8)
	if err != nil {
		return err
	}
	*v = Uint8(u)
	return nil
}

type Int16 int16

func (v Int16) EncodePack(w *Writer) { w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v)) }

func (v *Int16) DecodePack(r *Reader, _ Depth) error {
	b, err := r.Next(2)
	if err != nil {
		return err
	}
	*v = Int16(binary.BigEndian.Uint16(b))
	return nil
}

func (v Int16) EncodeJSON() any { return jsonInt(int64(v)) }

func (v *Int16) DecodeJSON(node any, _ Depth) error {
	s, err := decodeJSONInt(node, 16)
	if err != nil {
		return err
	}
	*v = Int16(s)
	return nil
}

type Uint16 uint16

func (v Uint16) EncodePack(w *Writer) { w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v)) }

func (v *Uint16) DecodePack(r *Reader, _ Depth) error {
	b, err := r.Next(2)
	if err != nil {
		return err
	}
	*v = Uint16(binary.BigEndian.Uint16(b))
	return nil
}

func (v Uint16) EncodeJSON() any { return jsonUint(uint64(v)) }

func (v *Uint16) DecodeJSON(node any, _ Depth) error {
	u, err := decodeJSONUint(node, 16)
	if err != nil {
		return err
	}
	*v = Uint16(u)
	return nil
}

type Int32 int32

func (v Int32) EncodePack(w *Writer) { w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v)) }

func (v *Int32) DecodePack(r *Reader, _ Depth) error {
	b, err := r.Next(4)
	if err != nil {
		return err
	}
	*v = Int32(binary.BigEndian.Uint32(b))
	return nil
}

func (v Int32) EncodeJSON() any { return jsonInt(int64(v)) }

func (v *Int32) DecodeJSON(node any, _ Depth) error {
	s, err := decodeJSONInt(node, 32)
	if err != nil {
		return err
	}
	*v = Int32(s)
	return nil
}

type Uint32 uint32

func (v Uint32) EncodePack(w *Writer) { w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v)) }

func (v *Uint32) DecodePack(r *Reader, _ Depth) error {
	b, err := r.Next(4)
	if err != nil {
		return err
	}
	*v = Uint32(binary.BigEndian.Uint32(b))
	return nil
}

func (v Uint32) EncodeJSON() any { return jsonUint(uint64(v)) }

func (v *Uint32) DecodeJSON(node any, _ Depth) error {
	u, err := decodeJSONUint(node, 32)
	if err != nil {
		return err
	}
	*v = Uint32(u)
	return nil
}

type Int64 int64

func (v Int64) EncodePack(w *Writer) { w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v)) }

func (v *Int64) DecodePack(r *Reader, _ Depth) error {
	b, err := r.Next(8)
	if err != nil {
		return err
	}
	*v = Int64(binary.BigEndian.Uint64(b))
	return nil
}

func (v Int64) EncodeJSON() any { return jsonInt(int64(v)) }

func (v *Int64) DecodeJSON(node any, _ Depth) error {
	s, err := decodeJSONInt(node, 64)
	if err != nil {
		return err
	}
	*v = Int64(s)
	return nil
}

type Uint64 uint64

func (v Uint64) EncodePack(w *Writer) { w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v)) }

func (v *Uint64) DecodePack(r *Reader, _ Depth) error {
	b, err := r.Next(8)
	if err != nil {
		return err
	}
	*v = Uint64(binary.BigEndian.Uint64(b))
	return nil
}

func (v Uint64) EncodeJSON() any { return jsonUint(uint64(v)) }

func (v *Uint64) DecodeJSON(node any, _ Depth) error {
	u, err := decodeJSONUint(node, 64)
	if err != nil {
		return err
	}
	*v = Uint64(u)
	return nil
}

// Timestamp is milliseconds since the Unix epoch. It encodes as Uint64.
type Timestamp uint64

func (v Timestamp) EncodePack(w *Writer) { Uint64(v).EncodePack(w) }

func (v *Timestamp) DecodePack(r *Reader, d Depth) error { return (*Uint64)(v).DecodePack(r, d) }

func (v Timestamp) EncodeJSON() any { return Uint64(v).EncodeJSON() }

func (v *Timestamp) DecodeJSON(node any, d Depth) error { return (*Uint64)(v).DecodeJSON(node, d) }

// BlockHeight encodes as Uint64.
type BlockHeight uint64

func (v BlockHeight) EncodePack(w *Writer) { Uint64(v).EncodePack(w) }

func (v *BlockHeight) DecodePack(r *Reader, d Depth) error { return (*Uint64)(v).DecodePack(r, d) }

func (v BlockHeight) EncodeJSON() any { return Uint64(v).EncodeJSON() }

func (v *BlockHeight) DecodeJSON(node any, d Depth) error { return (*Uint64)(v).DecodeJSON(node, d) }
