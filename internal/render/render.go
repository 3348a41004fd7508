// Package render prints mirror trees as JSON, deterministic CBOR or CBOR
// diagnostic notation, and reads CBOR back into a mirror tree.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"reflect"
	"strconv"

	"github.com/fxamacker/cbor/v2"

	"xdao.co/kpack/pack"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("render: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("render: CBOR decoder initialization failed: " + err.Error())
	}
}

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
	FormatDiag Format = "diag"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatCBOR, FormatDiag:
		return f, nil
	}
	return "", fmt.Errorf("render: unknown format %q (want json, cbor or diag)", s)
}

// Write renders tree to w in the given format. JSON and diagnostic output
// end with a newline; CBOR is written raw.
func Write(w io.Writer, f Format, tree any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	case FormatCBOR:
		b, err := CBOR(tree)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	case FormatDiag:
		s, err := Diag(tree)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s)
		return err
	}
	return fmt.Errorf("render: unknown format %q", f)
}

// CBOR encodes tree with Core Deterministic Encoding. Numbers become CBOR
// integers (bignums past 64 bits).
func CBOR(tree any) ([]byte, error) {
	norm, err := toCBOR(tree)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(norm)
}

// Diag returns the RFC 8949 diagnostic notation of tree's CBOR form.
func Diag(tree any) (string, error) {
	b, err := CBOR(tree)
	if err != nil {
		return "", err
	}
	return cbor.Diagnose(b)
}

// FromCBOR decodes exactly one CBOR item into a mirror tree that the pack
// JSON decoders accept.
func FromCBOR(data []byte) (any, error) {
	var v any
	rest, err := decMode.UnmarshalFirst(data, &v)
	if err != nil {
		return nil, fmt.Errorf("render: decode CBOR: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("render: %d bytes after CBOR item", len(rest))
	}
	return fromCBOR(v)
}

func toCBOR(node any) (any, error) {
	switch n := node.(type) {
	case json.Number:
		return pack.ParseJSONNumber(n)
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			c, err := toCBOR(v)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			c, err := toCBOR(v)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case nil, bool, string:
		return n, nil
	}
	return nil, fmt.Errorf("render: unsupported mirror node %T", node)
}

func fromCBOR(node any) (any, error) {
	switch n := node.(type) {
	case uint64:
		return json.Number(strconv.FormatUint(n, 10)), nil
	case int64:
		return json.Number(strconv.FormatInt(n, 10)), nil
	case big.Int:
		return json.Number(n.String()), nil
	case *big.Int:
		return json.Number(n.String()), nil
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			c, err := fromCBOR(v)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			c, err := fromCBOR(v)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case nil, bool, string, float64:
		return n, nil
	}
	return nil, fmt.Errorf("render: unsupported CBOR value %T", node)
}
