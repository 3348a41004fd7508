package pack

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"math/big"
	"strconv"
)

// maxSafeInteger is the largest integer a double represents exactly.
// Integers beyond it are written as decimal strings.
const maxSafeInteger = 1<<53 - 1

// MarshalJSON renders the mirror tree of v as JSON text. Object keys are
// sorted, so output is deterministic.
func MarshalJSON(v JSONEncoder) ([]byte, error) {
	return json.Marshal(v.EncodeJSON())
}

// UnmarshalJSON parses exactly one JSON document into v.
func UnmarshalJSON(data []byte, v JSONDecoder) error {
	node, err := ParseJSON(data)
	if err != nil {
		return err
	}
	return v.DecodeJSON(node, 0)
}

// ParseJSON parses one JSON document into a mirror tree, keeping numbers as
// json.Number so wide integers survive.
func ParseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var node any
	if err := dec.Decode(&node); err != nil {
		return nil, wrapError(KindMalformedJSON, "PACK-JSON-001", "invalid JSON", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, newError(KindMalformedJSON, "PACK-JSON-001", "trailing data after JSON document")
	}
	return node, nil
}

// JSONObject asserts that node is a JSON object.
func JSONObject(node any) (map[string]any, error) {
	obj, ok := node.(map[string]any)
	if !ok {
		return nil, jsonTypeError("object", node)
	}
	return obj, nil
}

// DecodeField decodes obj[key] into dst. A missing key decodes as null,
// which only optional values accept.
func DecodeField(obj map[string]any, key string, dst JSONDecoder, d Depth) error {
	if err := dst.DecodeJSON(obj[key], d); err != nil {
		return within(key, err)
	}
	return nil
}

func jsonTypeError(want string, node any) error {
	got := "null"
	switch node.(type) {
	case nil:
	case bool:
		got = "boolean"
	case json.Number, float64:
		got = "number"
	case string:
		got = "string"
	case []any:
		got = "array"
	case map[string]any:
		got = "object"
	default:
		got = "unsupported node"
	}
	return newError(KindMalformedJSON, "PACK-JSON-002", "want %s, got %s", want, got)
}

// decodeJSONBig accepts a JSON number or a decimal string.
func decodeJSONBig(node any) (*big.Int, error) {
	var text string
	switch n := node.(type) {
	case json.Number:
		text = string(n)
	case string:
		text = n
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > maxSafeInteger {
			return nil, newError(KindOutOfRange, "PACK-RANGE-002", "number %v is not an exact integer", n)
		}
		return big.NewInt(int64(n)), nil
	default:
		return nil, jsonTypeError("integer", node)
	}
	x, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, newError(KindMalformedJSON, "PACK-JSON-006", "%q is not a decimal integer", text)
	}
	return x, nil
}

func decodeJSONUint(node any, width int) (uint64, error) {
	x, err := decodeJSONBig(node)
	if err != nil {
		return 0, err
	}
	if !fitsBig(x, width, false) {
		return 0, newError(KindOutOfRange, "PACK-RANGE-001", "%s does not fit in unsigned %d bits", x.String(), width)
	}
	return x.Uint64(), nil
}

func decodeJSONInt(node any, width int) (int64, error) {
	x, err := decodeJSONBig(node)
	if err != nil {
		return 0, err
	}
	if !fitsBig(x, width, true) {
		return 0, newError(KindOutOfRange, "PACK-RANGE-001", "%s does not fit in signed %d bits", x.String(), width)
	}
	return x.Int64(), nil
}

func jsonBig(x *big.Int) any {
	if x.IsInt64() {
		return jsonInt(x.Int64())
	}
	if x.IsUint64() {
		return jsonUint(x.Uint64())
	}
	return x.String()
}

// ParseJSONNumber converts a mirror-tree number to int64, uint64 or *big.Int,
// whichever is narrowest.
func ParseJSONNumber(n json.Number) (any, error) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i, nil
	}
	if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return u, nil
	}
	x, ok := new(big.Int).SetString(string(n), 10)
	if !ok {
		return nil, newError(KindMalformedJSON, "PACK-JSON-006", "%q is not a decimal integer", string(n))
	}
	return x, nil
}
