package pack

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

// chain is an optional-of-optional-of-... that nests one level per byte.
type chain struct {
	inner *chain
}

func (c chain) EncodePack(w *Writer) { EncodeOptional[chain](w, c.inner) }

func (c *chain) DecodePack(r *Reader, d Depth) error {
	v, err := DecodeOptional[chain](r, d)
	if err != nil {
		return err
	}
	c.inner = v
	return nil
}

func (c chain) EncodeJSON() any {
	if c.inner == nil {
		return nil
	}
	return []any{EncodeOptionalJSON[chain](c.inner)}
}

func (c *chain) DecodeJSON(node any, d Depth) error {
	if node == nil {
		c.inner = nil
		return nil
	}
	list, ok := node.([]any)
	if !ok || len(list) != 1 {
		return jsonTypeError("one-element array", node)
	}
	v, err := DecodeOptionalJSON[chain](list[0], d)
	if err != nil {
		return err
	}
	c.inner = v
	return nil
}

func chainBytes(present int) []byte {
	return append(bytes.Repeat([]byte{0x01}, present), 0x00)
}

type shape interface {
	Value
	isShape()
}

type empty struct{}

func (empty) EncodePack(*Writer) {}

func (*empty) DecodePack(*Reader, Depth) error { return nil }

func (empty) EncodeJSON() any { return map[string]any{} }

func (*empty) DecodeJSON(node any, _ Depth) error {
	_, err := JSONObject(node)
	return err
}

func (*empty) isShape() {}

type circle struct {
	R Uint32
}

func (c circle) EncodePack(w *Writer) { c.R.EncodePack(w) }

func (c *circle) DecodePack(r *Reader, d Depth) error { return c.R.DecodePack(r, d) }

func (c circle) EncodeJSON() any { return map[string]any{"r": c.R.EncodeJSON()} }

func (c *circle) DecodeJSON(node any, d Depth) error {
	obj, err := JSONObject(node)
	if err != nil {
		return err
	}
	return DecodeField(obj, "r", &c.R, d)
}

func (*circle) isShape() {}

type group struct {
	Inner shape
}

func (g group) EncodePack(w *Writer) { shapes.Encode(w, g.Inner) }

func (g *group) DecodePack(r *Reader, d Depth) error {
	v, err := shapes.Decode(r, d)
	if err != nil {
		return err
	}
	g.Inner = v
	return nil
}

func (g group) EncodeJSON() any { return shapes.EncodeJSON(g.Inner) }

func (g *group) DecodeJSON(node any, d Depth) error {
	v, err := shapes.DecodeJSON(node, d)
	if err != nil {
		return err
	}
	g.Inner = v
	return nil
}

func (*group) isShape() {}

var shapes *Union[shape]

func init() {
	shapes = NewUnion[shape]("shape",
		Member[shape, empty]("empty"),
		Member[shape, circle]("circle"),
		Member[shape, group]("group"),
	)
}

func groupBytes(levels int) []byte {
	return append(bytes.Repeat([]byte{0x02}, levels), 0x00)
}

func TestSequence_RoundTrip(t *testing.T) {
	in := []Uint32{1, 0xFFFFFFFF, 7}
	var w Writer
	EncodeSequence(&w, in)
	want := []byte{0x03, 0, 0, 0, 1, 0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 7}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("got % x want % x", w.Bytes(), want)
	}
	r := NewReader(w.Bytes())
	out, err := DecodeSequence[Uint32](r, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(out, in) || r.Len() != 0 {
		t.Fatalf("got %v, %d left", out, r.Len())
	}
}

func TestSequence_HostileCount(t *testing.T) {
	// 2^32-1 elements declared, none present.
	r := NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F})
	_, err := DecodeSequence[Multihash](r, 0)
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindTruncatedInput {
		t.Fatalf("got %v want TruncatedInput", err)
	}
	if r.Offset() != 0 {
		t.Fatalf("reader advanced to %d", r.Offset())
	}
}

func TestSequence_ElementTruncated(t *testing.T) {
	r := NewReader([]byte{0x02, 0, 0, 0, 1, 0, 0})
	if _, err := DecodeSequence[Uint32](r, 0); !IsKind(err, KindTruncatedInput) {
		t.Fatalf("got %v want TruncatedInput", err)
	}
}

func TestArray_NoPrefix(t *testing.T) {
	in := []Uint16{0x0102, 0x0304}
	var w Writer
	EncodeArray(&w, in)
	if !bytes.Equal(w.Bytes(), []byte{1, 2, 3, 4}) {
		t.Fatalf("got % x", w.Bytes())
	}
	out := make([]Uint16, 2)
	if err := DecodeArray(NewReader(w.Bytes()), 0, out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("got %v", out)
	}
	short := make([]Uint16, 3)
	if err := DecodeArray(NewReader(w.Bytes()), 0, short); !IsKind(err, KindTruncatedInput) {
		t.Fatalf("short input: got %v", err)
	}
}

func TestOptional(t *testing.T) {
	var w Writer
	EncodeOptional[Uint16](&w, nil)
	if !bytes.Equal(w.Bytes(), []byte{0x00}) {
		t.Fatalf("absent: got % x", w.Bytes())
	}
	v := Uint16(9)
	w = Writer{}
	EncodeOptional(&w, &v)
	if !bytes.Equal(w.Bytes(), []byte{0x01, 0x00, 0x09}) {
		t.Fatalf("present: got % x", w.Bytes())
	}
	got, err := DecodeOptional[Uint16](NewReader(w.Bytes()), 0)
	if err != nil || got == nil || *got != 9 {
		t.Fatalf("decode present: got %v err=%v", got, err)
	}
	got, err = DecodeOptional[Uint16](NewReader([]byte{0x00}), 0)
	if err != nil || got != nil {
		t.Fatalf("decode absent: got %v err=%v", got, err)
	}
}

func TestOptional_InvalidPresence(t *testing.T) {
	_, err := DecodeOptional[Uint16](NewReader([]byte{0x02, 0x00, 0x09}), 0)
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if e.Kind != KindInvalidDiscriminant || e.RuleID != "PACK-DISC-001" {
		t.Fatalf("got %s/%s", e.Kind, e.RuleID)
	}
}

func TestDepth_OptionalChain(t *testing.T) {
	var ok chain
	if err := UnmarshalExact(chainBytes(MaxDepth-1), &ok); err != nil {
		t.Fatalf("depth %d: %v", MaxDepth, err)
	}
	var tooDeep chain
	err := UnmarshalExact(chainBytes(MaxDepth), &tooDeep)
	if !IsKind(err, KindMaxDepthExceeded) {
		t.Fatalf("depth %d: got %v want MaxDepthExceeded", MaxDepth+1, err)
	}
}

func TestDepth_HugeChainStopsEarly(t *testing.T) {
	var c chain
	if err := UnmarshalExact(chainBytes(1_000_000), &c); !IsKind(err, KindMaxDepthExceeded) {
		t.Fatalf("got %v want MaxDepthExceeded", err)
	}
}

func TestDepth_VariantChain(t *testing.T) {
	var ok group
	if err := UnmarshalExact(groupBytes(MaxDepth-1), &ok); err != nil {
		t.Fatalf("depth %d: %v", MaxDepth, err)
	}
	var tooDeep group
	if err := UnmarshalExact(groupBytes(MaxDepth), &tooDeep); !IsKind(err, KindMaxDepthExceeded) {
		t.Fatalf("depth %d: got %v", MaxDepth+1, err)
	}
}

func TestDepth_JSONChain(t *testing.T) {
	var node any
	for i := 0; i < MaxDepth; i++ {
		node = []any{node}
	}
	var c chain
	if err := c.DecodeJSON(node, 0); err != nil {
		t.Fatalf("depth %d: %v", MaxDepth, err)
	}
	node = []any{node}
	if err := c.DecodeJSON(node, 0); !IsKind(err, KindMaxDepthExceeded) {
		t.Fatalf("depth %d: got %v", MaxDepth+1, err)
	}
}

func TestVariant_RoundTrip(t *testing.T) {
	g := group{Inner: &circle{R: 5}}
	b := Marshal(g)
	if !bytes.Equal(b, []byte{0x01, 0, 0, 0, 5}) {
		t.Fatalf("got % x", b)
	}
	var back group
	if err := UnmarshalExact(b, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	c, ok := back.Inner.(*circle)
	if !ok || c.R != 5 {
		t.Fatalf("got %#v", back.Inner)
	}
	if shapes.Index(back.Inner) != 1 || shapes.MemberName(1) != "circle" {
		t.Fatalf("index/name mismatch")
	}
}

func TestVariant_IndexOutOfRange(t *testing.T) {
	var g group
	_, err := Unmarshal([]byte{0x03}, &g)
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindInvalidDiscriminant {
		t.Fatalf("got %v want InvalidDiscriminant", err)
	}
	_, err = Unmarshal([]byte{0x80, 0x80, 0x01}, &g)
	if !IsKind(err, KindInvalidDiscriminant) {
		t.Fatalf("large index: got %v", err)
	}
}

func TestVariant_EncodeNonMemberPanics(t *testing.T) {
	defer func() {
		r := recover()
		e, ok := r.(*Error)
		if !ok || e.Kind != KindPrecondition {
			t.Fatalf("expected Precondition panic, got %v", r)
		}
	}()
	Marshal(group{})
}

func TestVariant_JSON(t *testing.T) {
	g := group{Inner: &group{Inner: &circle{R: 7}}}
	text, err := MarshalJSON(g)
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	want := `{"type":"group","value":{"type":"circle","value":{"r":7}}}`
	if string(text) != want {
		t.Fatalf("got %s want %s", text, want)
	}
	var back group
	if err := UnmarshalJSON(text, &back); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !bytes.Equal(Marshal(back), Marshal(g)) {
		t.Fatalf("JSON round trip changed value")
	}

	var byIndex group
	if err := UnmarshalJSON([]byte(`{"type":1,"value":{"r":3}}`), &byIndex); err != nil {
		t.Fatalf("numeric type: %v", err)
	}
	if c, ok := byIndex.Inner.(*circle); !ok || c.R != 3 {
		t.Fatalf("numeric type: got %#v", byIndex.Inner)
	}
	if err := UnmarshalJSON([]byte(`{"type":"square","value":{}}`), &byIndex); !IsKind(err, KindInvalidDiscriminant) {
		t.Fatalf("unknown member: got %v", err)
	}
}
