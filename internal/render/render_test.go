package render

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"xdao.co/kpack/pack"
)

func TestCBOR_Deterministic(t *testing.T) {
	tree := map[string]any{
		"b": []any{true, nil, "x"},
		"a": json.Number("1"),
	}
	got, err := CBOR(tree)
	if err != nil {
		t.Fatalf("CBOR: %v", err)
	}
	want := "a2616101616283f5f66178"
	if hex.EncodeToString(got) != want {
		t.Fatalf("CBOR: got %x want %s", got, want)
	}
	for i := 0; i < 20; i++ {
		again, err := CBOR(tree)
		if err != nil {
			t.Fatalf("CBOR: %v", err)
		}
		if !bytes.Equal(again, got) {
			t.Fatalf("CBOR output not deterministic")
		}
	}
}

func TestCBOR_Numbers(t *testing.T) {
	cases := []struct {
		in   json.Number
		want string
	}{
		{"0", "00"},
		{"-1", "20"},
		{"500", "1901f4"},
		{"18446744073709551615", "1bffffffffffffffff"},
		{"18446744073709551616", "c249010000000000000000"},
	}
	for _, tc := range cases {
		got, err := CBOR(tc.in)
		if err != nil {
			t.Fatalf("CBOR(%s): %v", tc.in, err)
		}
		if hex.EncodeToString(got) != tc.want {
			t.Fatalf("CBOR(%s): got %x want %s", tc.in, got, tc.want)
		}
		back, err := FromCBOR(got)
		if err != nil {
			t.Fatalf("FromCBOR(%s): %v", tc.in, err)
		}
		if back != tc.in {
			t.Fatalf("FromCBOR(%s): got %v", tc.in, back)
		}
	}

	if _, err := CBOR(json.Number("1.5")); err == nil {
		t.Fatalf("expected error for fractional number")
	}
}

func TestDiag(t *testing.T) {
	got, err := Diag(map[string]any{"a": json.Number("1"), "b": []any{true, nil, "x"}})
	if err != nil {
		t.Fatalf("Diag: %v", err)
	}
	if got != `{"a": 1, "b": [true, null, "x"]}` {
		t.Fatalf("Diag: got %s", got)
	}
}

func TestFromCBOR_DecodesIntoPackTypes(t *testing.T) {
	big128, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	limit, err := pack.Uint128FromBig(big128)
	if err != nil {
		t.Fatalf("Uint128FromBig: %v", err)
	}
	seq := []pack.Uint128{limit, pack.Uint128FromUint64(7)}
	tree := pack.EncodeSequenceJSON(seq)

	b, err := CBOR(tree)
	if err != nil {
		t.Fatalf("CBOR: %v", err)
	}
	node, err := FromCBOR(b)
	if err != nil {
		t.Fatalf("FromCBOR: %v", err)
	}
	back, err := pack.DecodeSequenceJSON[pack.Uint128](node, 0)
	if err != nil {
		t.Fatalf("DecodeSequenceJSON: %v", err)
	}
	if len(back) != 2 || back[0] != limit || back[1] != seq[1] {
		t.Fatalf("round trip: got %v", back)
	}
}

func TestFromCBOR_Rejects(t *testing.T) {
	if _, err := FromCBOR([]byte{0x01, 0x02}); err == nil {
		t.Fatalf("expected error for trailing item")
	}
	if _, err := FromCBOR([]byte{0x44, 0x01}); err == nil {
		t.Fatalf("expected error for truncated byte string")
	}
	if _, err := FromCBOR([]byte{0x41, 0x01}); err == nil {
		t.Fatalf("expected error for byte string node")
	}
}

func TestWrite(t *testing.T) {
	tree := map[string]any{"height": json.Number("12")}
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, tree); err != nil {
		t.Fatalf("Write json: %v", err)
	}
	if !strings.Contains(buf.String(), `"height": 12`) {
		t.Fatalf("json output: %q", buf.String())
	}

	buf.Reset()
	if err := Write(&buf, FormatCBOR, tree); err != nil {
		t.Fatalf("Write cbor: %v", err)
	}
	if hex.EncodeToString(buf.Bytes()) != "a1666865696768740c" {
		t.Fatalf("cbor output: %x", buf.Bytes())
	}

	if _, err := ParseFormat("yaml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
