package pack

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
)

type boxedUint = Opaque[UnsignedInt, *UnsignedInt]

func TestOpaque_ReemitsCapturedBytes(t *testing.T) {
	// 1 encoded with a redundant continuation group. The canonical
	// encoder would write a single 0x01.
	raw := []byte{0x81, 0x00}
	var box boxedUint
	n, err := Unmarshal(raw, &box)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != 2 {
		t.Fatalf("consumed %d want 2", n)
	}
	if box.IsResolved() {
		t.Fatalf("box resolved before Materialize")
	}
	v, err := box.Materialize()
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if *v != 1 {
		t.Fatalf("value %d want 1", *v)
	}
	if !box.IsResolved() {
		t.Fatalf("box not resolved after Materialize")
	}
	if bytes.Equal(Marshal(*v), raw) {
		t.Fatalf("test premise broken: canonical encoding equals captured bytes")
	}
	if got := Marshal(box); !bytes.Equal(got, raw) {
		t.Fatalf("re-encode: got % x want % x", got, raw)
	}
}

func TestOpaque_InsideSequence(t *testing.T) {
	raw := []byte{0x02, 0x81, 0x00, 0x05}
	r := NewReader(raw)
	boxes, err := DecodeSequence[boxedUint](r, 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(boxes) != 2 || r.Len() != 0 {
		t.Fatalf("got %d boxes, %d left", len(boxes), r.Len())
	}
	if !bytes.Equal(boxes[0].Bytes(), []byte{0x81, 0x00}) || !bytes.Equal(boxes[1].Bytes(), []byte{0x05}) {
		t.Fatalf("captured spans % x / % x", boxes[0].Bytes(), boxes[1].Bytes())
	}
	if _, err := boxes[1].Materialize(); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	var w Writer
	EncodeSequence(&w, boxes)
	if !bytes.Equal(w.Bytes(), raw) {
		t.Fatalf("re-encode: got % x want % x", w.Bytes(), raw)
	}
}

func TestOpaque_MalformedContentFailsEnclosingDecode(t *testing.T) {
	var box boxedUint
	if _, err := Unmarshal([]byte{0x80}, &box); !IsKind(err, KindMalformedVarint) {
		t.Fatalf("got %v want MalformedVarint", err)
	}
}

func TestOpaque_FromBytes(t *testing.T) {
	box := OpaqueFromBytes[UnsignedInt]([]byte{0x01, 0x02})
	if _, err := box.Materialize(); !IsKind(err, KindTrailingBytes) {
		t.Fatalf("got %v want TrailingBytes", err)
	}

	deep := OpaqueFromBytes[chain](chainBytes(MaxDepth))
	if _, err := deep.Materialize(); !IsKind(err, KindMaxDepthExceeded) {
		t.Fatalf("got %v want MaxDepthExceeded", err)
	}
}

func TestOpaque_NewOpaque(t *testing.T) {
	box := NewOpaque(UnsignedInt(300))
	if !box.IsResolved() {
		t.Fatalf("NewOpaque box should be resolved")
	}
	if !bytes.Equal(box.Bytes(), []byte{0xAC, 0x02}) {
		t.Fatalf("bytes % x", box.Bytes())
	}
	if *box.MustMaterialize() != 300 {
		t.Fatalf("value %d", *box.MustMaterialize())
	}

	var zero Opaque[Uint16, *Uint16]
	if !bytes.Equal(Marshal(zero), []byte{0, 0}) {
		t.Fatalf("zero box encodes as % x", Marshal(zero))
	}
}

func TestOpaque_ConcurrentMaterialize(t *testing.T) {
	box := OpaqueFromBytes[UnsignedInt]([]byte{0xAC, 0x02})
	const workers = 16
	results := make([]*UnsignedInt, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := box.Materialize()
			if err != nil {
				t.Errorf("Materialize: %v", err)
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()
	for i, v := range results {
		if v != results[0] {
			t.Fatalf("worker %d got a different published value", i)
		}
	}
	if *results[0] != 300 {
		t.Fatalf("value %d", *results[0])
	}
}

func TestOpaque_JSON(t *testing.T) {
	raw := []byte{0x81, 0x00}
	box := OpaqueFromBytes[UnsignedInt](raw)
	node := box.EncodeJSON()
	m, ok := node.(map[string]any)
	if !ok || len(m) != 1 || m["opaque"] != encodeBlobText(raw) {
		t.Fatalf("raw box should render as {\"opaque\": text}, got %#v", node)
	}
	var back boxedUint
	if err := back.DecodeJSON(node, 0); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if back.IsResolved() || !bytes.Equal(back.Bytes(), raw) {
		t.Fatalf("raw JSON round trip: resolved=%v bytes=% x", back.IsResolved(), back.Bytes())
	}

	text, err := MarshalJSON(NewOpaque(UnsignedInt(5)))
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(text) != "5" {
		t.Fatalf("resolved box: got %s", text)
	}
	var resolved boxedUint
	if err := UnmarshalJSON(text, &resolved); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !resolved.IsResolved() || !bytes.Equal(resolved.Bytes(), []byte{0x05}) {
		t.Fatalf("resolved JSON round trip: % x", resolved.Bytes())
	}
}

// checkOpaqueJSON round trips v through JSON in both box states and
// requires the binary encoding to come back unchanged.
func checkOpaqueJSON[T any, PT Ptr[T]](t *testing.T, v T) {
	t.Helper()
	want := Marshal(PT(&v))
	boxes := map[string]Opaque[T, PT]{
		"resolved": NewOpaque[T, PT](v),
		"raw":      OpaqueFromBytes[T, PT](want),
	}
	for state, box := range boxes {
		text, err := MarshalJSON(box)
		if err != nil {
			t.Fatalf("%s: MarshalJSON: %v", state, err)
		}
		var back Opaque[T, PT]
		if err := UnmarshalJSON(text, &back); err != nil {
			t.Fatalf("%s: UnmarshalJSON(%s): %v", state, text, err)
		}
		if back.IsResolved() != box.IsResolved() {
			t.Fatalf("%s: state changed through %s", state, text)
		}
		if got := Marshal(back); !bytes.Equal(got, want) {
			t.Fatalf("%s: %s decoded to % x want % x", state, text, got, want)
		}
		if _, err := back.Materialize(); err != nil {
			t.Fatalf("%s: Materialize: %v", state, err)
		}
	}
}

func TestOpaque_JSONRoundTripStringShapedValues(t *testing.T) {
	t.Run("blob", func(t *testing.T) { checkOpaqueJSON(t, VariableBlob{1, 2, 3}) })
	t.Run("empty blob", func(t *testing.T) { checkOpaqueJSON(t, VariableBlob{}) })
	t.Run("string", func(t *testing.T) { checkOpaqueJSON(t, String("hello")) })
	// Valid base58btc multibase text, so it must not be read as raw bytes.
	t.Run("string like blob text", func(t *testing.T) { checkOpaqueJSON(t, String("z2")) })
	t.Run("uint64 past 2^53", func(t *testing.T) { checkOpaqueJSON(t, Uint64(1<<60)) })
	t.Run("uint128", func(t *testing.T) {
		checkOpaqueJSON(t, Uint128FromUint64(^uint64(0)))
	})
	t.Run("int256", func(t *testing.T) {
		var v Int256
		for i := range v {
			v[i] = 0xff
		}
		checkOpaqueJSON(t, v)
	})
}

func TestOpaque_DecodeJSONObjectShapes(t *testing.T) {
	// Only a single "opaque" string member marks raw bytes.
	var box Opaque[String, *String]
	if err := box.DecodeJSON(map[string]any{"opaque": "z2", "extra": "x"}, 0); err == nil {
		t.Fatalf("two-member object decoded as a String")
	}
	if err := box.DecodeJSON(map[string]any{"opaque": json.Number("1")}, 0); err == nil {
		t.Fatalf("non-string opaque member decoded as a String")
	}
	if err := box.DecodeJSON(map[string]any{"opaque": "z0OIl"}, 0); !IsKind(err, KindMalformedJSON) {
		t.Fatalf("bad blob text: got %v", err)
	}
}

func TestOpaque_MaterializeHonorsCapturedDepth(t *testing.T) {
	for _, k := range []int{1, 5, MaxDepth - 2} {
		var ok, deep Opaque[chain, *chain]
		// From depth k, MaxDepth-k-1 present levels plus the terminator fit.
		if err := ok.DecodeJSON(map[string]any{"opaque": encodeBlobText(chainBytes(MaxDepth - k - 1))}, Depth(k)); err != nil {
			t.Fatalf("k=%d: DecodeJSON: %v", k, err)
		}
		if _, err := ok.Materialize(); err != nil {
			t.Fatalf("k=%d: Materialize within limit: %v", k, err)
		}
		if err := deep.DecodeJSON(map[string]any{"opaque": encodeBlobText(chainBytes(MaxDepth - k))}, Depth(k)); err != nil {
			t.Fatalf("k=%d: DecodeJSON: %v", k, err)
		}
		if _, err := deep.Materialize(); !IsKind(err, KindMaxDepthExceeded) {
			t.Fatalf("k=%d: got %v want MaxDepthExceeded", k, err)
		}
		// The same bytes captured at depth 0 are within the limit.
		if _, err := OpaqueFromBytes[chain](chainBytes(MaxDepth - k)).Materialize(); err != nil {
			t.Fatalf("k=%d: Materialize at depth 0: %v", k, err)
		}
	}
}

func TestOpaque_SequenceElementsKeepTheirDepth(t *testing.T) {
	// Elements of a sequence are captured one level down.
	node := []any{map[string]any{"opaque": encodeBlobText(chainBytes(MaxDepth - 1))}}
	boxes, err := DecodeSequenceJSON[Opaque[chain, *chain]](node, 0)
	if err != nil {
		t.Fatalf("DecodeSequenceJSON: %v", err)
	}
	if _, err := boxes[0].Materialize(); !IsKind(err, KindMaxDepthExceeded) {
		t.Fatalf("got %v want MaxDepthExceeded", err)
	}

	// The binary path runs the same check during its validating scan.
	var w Writer
	w.Append([]byte{0x01})
	w.Append(chainBytes(MaxDepth - 1))
	if _, err := DecodeSequence[Opaque[chain, *chain]](NewReader(w.Bytes()), 0); !IsKind(err, KindMaxDepthExceeded) {
		t.Fatalf("binary: got %v want MaxDepthExceeded", err)
	}
	w = Writer{}
	w.Append([]byte{0x01})
	w.Append(chainBytes(MaxDepth - 2))
	boxes, err = DecodeSequence[Opaque[chain, *chain]](NewReader(w.Bytes()), 0)
	if err != nil {
		t.Fatalf("binary within limit: %v", err)
	}
	if _, err := boxes[0].Materialize(); err != nil {
		t.Fatalf("binary Materialize within limit: %v", err)
	}
}
