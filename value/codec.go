package value

import (
	"encoding/json"
	"fmt"
	"math"
)

// Err is the sentinel-comparable codec failure. It is defined here rather
// than imported from the root kvs package to avoid a cycle; callers that
// need kvs.ErrInvalidValueType re-wrap it at the call site (the root
// package does this).
var Err = fmt.Errorf("invalid value type")

// codecError reports a codec failure with context, wrapping Err so
// errors.Is(err, value.Err) holds.
func codecError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{Err}, args...)...)
}

// Encode produces the {"t": <tag>, "v": <payload>} tree for v, as
// map[string]any / []any so it composes directly with encoding/json.
// Containers recurse: an arr's payload is a []any of encoded objects, an
// obj's payload is a map[string]any of encoded objects keyed by field
// name.
func Encode(v Value) (any, error) {
	var payload any
	switch v.tag {
	case TagNull:
		payload = nil
	case TagI32:
		n, _ := v.AsInt32()
		payload = n
	case TagU32:
		n, _ := v.AsUint32()
		payload = n
	case TagI64:
		n, _ := v.AsInt64()
		payload = n
	case TagU64:
		n, _ := v.AsUint64()
		payload = n
	case TagF64:
		n, _ := v.AsFloat64()
		payload = n
	case TagBool:
		b, _ := v.AsBool()
		payload = b
	case TagString:
		payload = v.str
	case TagArray:
		arr := make([]any, len(v.arr))
		for i, e := range v.arr {
			encoded, err := Encode(e)
			if err != nil {
				return nil, err
			}
			arr[i] = encoded
		}
		payload = arr
	case TagObject:
		obj := make(map[string]any, len(v.obj))
		for k, e := range v.obj {
			encoded, err := Encode(e)
			if err != nil {
				return nil, err
			}
			obj[k] = encoded
		}
		payload = obj
	default:
		return nil, codecError("unrecognized tag %v", v.tag)
	}
	return map[string]any{"t": v.tag.String(), "v": payload}, nil
}

// Decode is the inverse of Encode. It fails iff: root is not an object,
// "t" is missing or not a string, "v" is missing, "t" is unknown, "v"
// cannot be interpreted under "t", or any nested decode fails. Decode is
// pure: it performs no I/O and only inspects the tree it is given.
//
// Numeric payloads may be a native Go numeric type (as produced by
// Encode) or a json.Number/float64 (as produced by encoding/json
// unmarshaling into `any`); Decode accepts both so a round trip through
// JSON preserves integer width and magnitude.
func Decode(tree any) (Value, error) {
	obj, ok := tree.(map[string]any)
	if !ok {
		return Value{}, codecError("root is not an object")
	}
	rawTag, ok := obj["t"]
	if !ok {
		return Value{}, codecError("missing \"t\"")
	}
	tagStr, ok := rawTag.(string)
	if !ok {
		return Value{}, codecError("\"t\" is not a string")
	}
	tag, ok := tagFromString(tagStr)
	if !ok {
		return Value{}, codecError("unknown tag %q", tagStr)
	}
	payload, hasPayload := obj["v"]
	if !hasPayload {
		return Value{}, codecError("missing \"v\"")
	}

	switch tag {
	case TagNull:
		return Null(), nil
	case TagBool:
		b, ok := payload.(bool)
		if !ok {
			return Value{}, codecError("\"v\" is not a bool")
		}
		return Bool(b), nil
	case TagString:
		s, ok := payload.(string)
		if !ok {
			return Value{}, codecError("\"v\" is not a string")
		}
		return String(s), nil
	case TagI32:
		n, err := decodeInt(payload, math.MinInt32, math.MaxInt32)
		if err != nil {
			return Value{}, err
		}
		return Int32(int32(n)), nil
	case TagI64:
		n, err := decodeInt(payload, math.MinInt64, math.MaxInt64)
		if err != nil {
			return Value{}, err
		}
		return Int64(n), nil
	case TagU32:
		n, err := decodeUint(payload, math.MaxUint32)
		if err != nil {
			return Value{}, err
		}
		return Uint32(uint32(n)), nil
	case TagU64:
		n, err := decodeUint(payload, math.MaxUint64)
		if err != nil {
			return Value{}, err
		}
		return Uint64(n), nil
	case TagF64:
		f, err := decodeFloat(payload)
		if err != nil {
			return Value{}, err
		}
		return Float64(f), nil
	case TagArray:
		rawArr, ok := payload.([]any)
		if !ok {
			return Value{}, codecError("\"v\" is not an array")
		}
		arr := make([]Value, len(rawArr))
		for i, elem := range rawArr {
			decoded, err := Decode(elem)
			if err != nil {
				return Value{}, err
			}
			arr[i] = decoded
		}
		return Value{tag: TagArray, arr: arr}, nil
	case TagObject:
		rawObj, ok := payload.(map[string]any)
		if !ok {
			return Value{}, codecError("\"v\" is not an object")
		}
		obj := make(map[string]Value, len(rawObj))
		for k, elem := range rawObj {
			decoded, err := Decode(elem)
			if err != nil {
				return Value{}, err
			}
			obj[k] = decoded
		}
		return Value{tag: TagObject, obj: obj}, nil
	default:
		return Value{}, codecError("unknown tag %q", tagStr)
	}
}

func decodeInt(payload any, lo, hi int64) (int64, error) {
	n, err := decodeIntUnbounded(payload)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, codecError("\"v\" %d is out of range [%d, %d]", n, lo, hi)
	}
	return n, nil
}

func decodeIntUnbounded(payload any) (int64, error) {
	switch p := payload.(type) {
	case json.Number:
		n, err := p.Int64()
		if err != nil {
			return 0, codecError("\"v\" is not an integer: %v", err)
		}
		return n, nil
	case float64:
		if math.Trunc(p) != p {
			return 0, codecError("\"v\" is not an integer")
		}
		return int64(p), nil
	case int32:
		return int64(p), nil
	case int64:
		return p, nil
	default:
		return 0, codecError("\"v\" is not a number")
	}
}

func decodeUint(payload any, max uint64) (uint64, error) {
	n, err := decodeUintUnbounded(payload)
	if err != nil {
		return 0, err
	}
	if n > max {
		return 0, codecError("\"v\" %d is out of range [0, %d]", n, max)
	}
	return n, nil
}

func decodeUintUnbounded(payload any) (uint64, error) {
	switch p := payload.(type) {
	case json.Number:
		if n, err := p.Int64(); err == nil && n >= 0 {
			return uint64(n), nil
		}
		var n uint64
		if _, err := fmt.Sscanf(p.String(), "%d", &n); err != nil {
			return 0, codecError("\"v\" is not an unsigned integer: %v", err)
		}
		return n, nil
	case float64:
		if p < 0 || math.Trunc(p) != p {
			return 0, codecError("\"v\" is not an unsigned integer")
		}
		return uint64(p), nil
	case uint32:
		return uint64(p), nil
	case uint64:
		return p, nil
	default:
		return 0, codecError("\"v\" is not a number")
	}
}

func decodeFloat(payload any) (float64, error) {
	switch p := payload.(type) {
	case json.Number:
		f, err := p.Float64()
		if err != nil {
			return 0, codecError("\"v\" is not a float: %v", err)
		}
		return f, nil
	case float64:
		return p, nil
	default:
		return 0, codecError("\"v\" is not a number")
	}
}

// EncodeMap encodes a whole key->Value document into the shape the
// persistence layer serializes: a plain map[string]any whose values are
// the {"t","v"} trees from Encode, keyed by the caller's user keys
// directly (not wrapped again).
func EncodeMap(m map[string]Value) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		encoded, err := Encode(v)
		if err != nil {
			return nil, err
		}
		out[k] = encoded
	}
	return out, nil
}

// DecodeMap is the inverse of EncodeMap.
func DecodeMap(tree map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(tree))
	for k, raw := range tree {
		decoded, err := Decode(raw)
		if err != nil {
			return nil, err
		}
		out[k] = decoded
	}
	return out, nil
}
