package pack

// Writer accumulates an encoding. The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity preallocated.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Bytes returns the bytes written so far. The slice aliases the Writer.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) AppendByte(b byte) { w.buf = append(w.buf, b) }

func (w *Writer) Append(p []byte) { w.buf = append(w.buf, p...) }

func (w *Writer) AppendUvarint(v uint64) { w.buf = AppendUvarint(w.buf, v) }

func (w *Writer) AppendVarint(v int64) { w.buf = AppendVarint(w.buf, v) }

// Reader walks an input buffer. Every failure names the offset at which it
// was detected and leaves the position where the failing read started.
type Reader struct {
	buf []byte
	off int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Len is the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.off }

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

func (r *Reader) ReadByte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, r.truncated(1)
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// Next consumes n bytes and returns them. The result aliases the input;
// callers that retain it must copy.
func (r *Reader) Next(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, r.truncated(n)
	}
	b := r.buf[r.off : r.off+n : r.off+n]
	r.off += n
	return b, nil
}

// ReadUvarint reads an unsigned varint that must fit in bits.
func (r *Reader) ReadUvarint(bits int) (uint64, error) {
	v, n, kind := consumeUvarint(r.buf[r.off:], bits)
	if kind != "" {
		return 0, r.varintError(kind, bits)
	}
	r.off += n
	return v, nil
}

// ReadVarint reads a zig-zag signed varint that must fit in bits.
func (r *Reader) ReadVarint(bits int) (int64, error) {
	v, n, kind := consumeVarint(r.buf[r.off:], bits)
	if kind != "" {
		return 0, r.varintError(kind, bits)
	}
	r.off += n
	return v, nil
}

// ReadLength reads a varint count or byte length and rejects values larger
// than the remaining input, before anything is allocated for them.
func (r *Reader) ReadLength() (int, error) {
	start := r.off
	v, err := r.ReadUvarint(64)
	if err != nil {
		return 0, err
	}
	if v > uint64(r.Len()) {
		r.off = start
		return 0, newError(KindTruncatedInput, "PACK-IN-003", "declared length %d at offset %d exceeds remaining %d bytes", v, start, r.Len())
	}
	return int(v), nil
}

// span returns a copy of the bytes consumed since start.
func (r *Reader) span(start int) []byte {
	out := make([]byte, r.off-start)
	copy(out, r.buf[start:r.off])
	return out
}

func (r *Reader) truncated(n int) error {
	return newError(KindTruncatedInput, "PACK-IN-001", "truncated input at offset %d: need %d bytes, have %d", r.off, n, r.Len())
}

func (r *Reader) varintError(kind Kind, bits int) error {
	if kind == KindOutOfRange {
		return newError(kind, "PACK-VAR-002", "varint at offset %d exceeds %d bits", r.off, bits)
	}
	return newError(kind, "PACK-VAR-001", "varint at offset %d has no terminator within %d groups", r.off, maxGroups(bits))
}
