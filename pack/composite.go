package pack

import "strconv"

// maxPrealloc caps the element capacity reserved from an untrusted count.
// Longer sequences grow by append as elements actually decode.
const maxPrealloc = 1024

// EncodeSequence writes varint(len(s)) followed by each element.
func EncodeSequence[T any, PT Ptr[T]](w *Writer, s []T) {
	w.AppendUvarint(uint64(len(s)))
	for i := range s {
		PT(&s[i]).EncodePack(w)
	}
}

// DecodeSequence reads a length-prefixed sequence. The depth check and the
// bound against remaining input both run before any allocation.
func DecodeSequence[T any, PT Ptr[T]](r *Reader, d Depth) ([]T, error) {
	d, err := d.Enter()
	if err != nil {
		return nil, err
	}
	n, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]T, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		var v T
		if err := PT(&v).DecodePack(r, d); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// EncodeArray writes each element of a fixed-length array with no prefix.
func EncodeArray[T any, PT Ptr[T]](w *Writer, a []T) {
	for i := range a {
		PT(&a[i]).EncodePack(w)
	}
}

// DecodeArray fills dst, which fixes the element count.
func DecodeArray[T any, PT Ptr[T]](r *Reader, d Depth, dst []T) error {
	d, err := d.Enter()
	if err != nil {
		return err
	}
	for i := range dst {
		if err := PT(&dst[i]).DecodePack(r, d); err != nil {
			return err
		}
	}
	return nil
}

// EncodeOptional writes 0 for nil, else 1 followed by *v.
func EncodeOptional[T any, PT Ptr[T]](w *Writer, v *T) {
	if v == nil {
		w.AppendByte(0)
		return
	}
	w.AppendByte(1)
	PT(v).EncodePack(w)
}

// DecodeOptional returns nil when absent. A presence byte other than 0 or 1
// is InvalidDiscriminant.
func DecodeOptional[T any, PT Ptr[T]](r *Reader, d Depth) (*T, error) {
	d, err := d.Enter()
	if err != nil {
		return nil, err
	}
	off := r.Offset()
	flag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch flag {
	case 0:
		return nil, nil
	case 1:
		v := new(T)
		if err := PT(v).DecodePack(r, d); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, newError(KindInvalidDiscriminant, "PACK-DISC-001", "optional presence byte %d at offset %d", flag, off)
	}
}

// EncodeSequenceJSON mirrors EncodeSequence as a JSON array.
func EncodeSequenceJSON[T any, PT Ptr[T]](s []T) any {
	out := make([]any, len(s))
	for i := range s {
		out[i] = PT(&s[i]).EncodeJSON()
	}
	return out
}

func DecodeSequenceJSON[T any, PT Ptr[T]](node any, d Depth) ([]T, error) {
	d, err := d.Enter()
	if err != nil {
		return nil, err
	}
	list, ok := node.([]any)
	if !ok {
		return nil, jsonTypeError("array", node)
	}
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]T, len(list))
	for i, n := range list {
		if err := PT(&out[i]).DecodeJSON(n, d); err != nil {
			return nil, within("["+strconv.Itoa(i)+"]", err)
		}
	}
	return out, nil
}

// EncodeArrayJSON mirrors EncodeArray; fixed arrays are JSON arrays too.
func EncodeArrayJSON[T any, PT Ptr[T]](a []T) any {
	return EncodeSequenceJSON[T, PT](a)
}

func DecodeArrayJSON[T any, PT Ptr[T]](node any, d Depth, dst []T) error {
	d, err := d.Enter()
	if err != nil {
		return err
	}
	list, ok := node.([]any)
	if !ok {
		return jsonTypeError("array", node)
	}
	if len(list) != len(dst) {
		return newError(KindMalformedJSON, "PACK-JSON-005", "array has %d elements, want %d", len(list), len(dst))
	}
	for i, n := range list {
		if err := PT(&dst[i]).DecodeJSON(n, d); err != nil {
			return within("["+strconv.Itoa(i)+"]", err)
		}
	}
	return nil
}

// EncodeOptionalJSON renders an absent value as null.
func EncodeOptionalJSON[T any, PT Ptr[T]](v *T) any {
	if v == nil {
		return nil
	}
	return PT(v).EncodeJSON()
}

func DecodeOptionalJSON[T any, PT Ptr[T]](node any, d Depth) (*T, error) {
	d, err := d.Enter()
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	v := new(T)
	if err := PT(v).DecodeJSON(node, d); err != nil {
		return nil, err
	}
	return v, nil
}
