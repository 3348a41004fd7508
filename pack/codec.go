package pack

// Encoder appends the canonical binary form of a value to w.
type Encoder interface {
	EncodePack(w *Writer)
}

// Decoder reads a value from r. d is the nesting depth of the enclosing call.
type Decoder interface {
	DecodePack(r *Reader, d Depth) error
}

// Codec is the binary capability.
type Codec interface {
	Encoder
	Decoder
}

// JSONEncoder builds the JSON mirror tree of a value.
//
// Trees are made of map[string]any, []any, string, bool, json.Number and nil.
type JSONEncoder interface {
	EncodeJSON() any
}

// JSONDecoder reads a value from a JSON mirror tree.
type JSONDecoder interface {
	DecodeJSON(node any, d Depth) error
}

// JSONCodec is the mirror capability.
type JSONCodec interface {
	JSONEncoder
	JSONDecoder
}

// Value is implemented (through its pointer) by every type this package can
// carry inside composites.
type Value interface {
	Codec
	JSONCodec
}

// Ptr constrains a pointer type *T implementing Value. Composite helpers are
// generic over T and recover the codec through PT.
type Ptr[T any] interface {
	*T
	Value
}

// Marshal returns the canonical binary encoding of v.
func Marshal(v Encoder) []byte {
	var w Writer
	v.EncodePack(&w)
	return w.Bytes()
}

// Unmarshal decodes one value from the front of data and returns the number
// of bytes consumed. Trailing bytes are left for the caller.
func Unmarshal(data []byte, v Decoder) (int, error) {
	r := NewReader(data)
	if err := v.DecodePack(r, 0); err != nil {
		return 0, err
	}
	return r.Offset(), nil
}

// UnmarshalExact decodes data as exactly one value.
func UnmarshalExact(data []byte, v Decoder) error {
	r := NewReader(data)
	if err := v.DecodePack(r, 0); err != nil {
		return err
	}
	if r.Len() != 0 {
		return newError(KindTrailingBytes, "PACK-IN-002", "%d trailing bytes after value at offset %d", r.Len(), r.Offset())
	}
	return nil
}
