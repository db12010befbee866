// Package value implements the tagged value model consumed by the store:
// a small sum type over signed/unsigned integers of explicit width,
// float64, bool, string, null, and ordered/keyed containers of itself,
// with deep-copy and structural-equality semantics.
package value

import "fmt"

// Tag identifies which payload a Value carries.
type Tag uint8

const (
	TagNull Tag = iota
	TagI32
	TagU32
	TagI64
	TagU64
	TagF64
	TagBool
	TagString
	TagArray
	TagObject
)

// String returns the short wire-format name for the tag, e.g. "i32".
func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagI32:
		return "i32"
	case TagU32:
		return "u32"
	case TagI64:
		return "i64"
	case TagU64:
		return "u64"
	case TagF64:
		return "f64"
	case TagBool:
		return "bool"
	case TagString:
		return "str"
	case TagArray:
		return "arr"
	case TagObject:
		return "obj"
	default:
		return "unknown"
	}
}

// tagFromString is the inverse of Tag.String, used by the codec.
func tagFromString(s string) (Tag, bool) {
	switch s {
	case "null":
		return TagNull, true
	case "i32":
		return TagI32, true
	case "u32":
		return TagU32, true
	case "i64":
		return TagI64, true
	case "u64":
		return TagU64, true
	case "f64":
		return TagF64, true
	case "bool":
		return TagBool, true
	case "str":
		return TagString, true
	case "arr":
		return TagArray, true
	case "obj":
		return TagObject, true
	default:
		return 0, false
	}
}

// Value is a tagged, dynamically-typed value. The zero Value is a null.
// Value owns its payload exclusively; use Clone to obtain an independent
// deep copy before handing a Value to a caller who may mutate its
// containers.
type Value struct {
	tag Tag
	num uint64 // raw bits for i32/u32/i64/u64/bool
	f64 float64
	str string
	arr []Value
	obj map[string]Value
}

// Tag reports the value's tag.
func (v Value) Tag() Tag { return v.tag }

// IsNull reports whether v holds the null tag.
func (v Value) IsNull() bool { return v.tag == TagNull }

// Null returns the null value.
func Null() Value { return Value{tag: TagNull} }

// Int32 constructs an i32 value.
func Int32(n int32) Value { return Value{tag: TagI32, num: uint64(uint32(n))} }

// Uint32 constructs a u32 value.
func Uint32(n uint32) Value { return Value{tag: TagU32, num: uint64(n)} }

// Int64 constructs an i64 value.
func Int64(n int64) Value { return Value{tag: TagI64, num: uint64(n)} }

// Uint64 constructs a u64 value.
func Uint64(n uint64) Value { return Value{tag: TagU64, num: n} }

// Float64 constructs an f64 value.
func Float64(n float64) Value { return Value{tag: TagF64, f64: n} }

// Bool constructs a bool value.
func Bool(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{tag: TagBool, num: n}
}

// String constructs a str value.
func String(s string) Value { return Value{tag: TagString, str: s} }

// Array constructs an arr value from the given elements, in order.
// The elements are cloned into the new Value's own storage.
func Array(elems ...Value) Value {
	arr := make([]Value, len(elems))
	for i, e := range elems {
		arr[i] = e.Clone()
	}
	return Value{tag: TagArray, arr: arr}
}

// Object constructs an obj value from the given map. The map is cloned
// into the new Value's own storage.
func Object(fields map[string]Value) Value {
	obj := make(map[string]Value, len(fields))
	for k, v := range fields {
		obj[k] = v.Clone()
	}
	return Value{tag: TagObject, obj: obj}
}

// AsInt32 returns the i32 payload and true iff v's tag is TagI32.
func (v Value) AsInt32() (int32, bool) {
	if v.tag != TagI32 {
		return 0, false
	}
	return int32(uint32(v.num)), true
}

// AsUint32 returns the u32 payload and true iff v's tag is TagU32.
func (v Value) AsUint32() (uint32, bool) {
	if v.tag != TagU32 {
		return 0, false
	}
	return uint32(v.num), true
}

// AsInt64 returns the i64 payload and true iff v's tag is TagI64.
func (v Value) AsInt64() (int64, bool) {
	if v.tag != TagI64 {
		return 0, false
	}
	return int64(v.num), true
}

// AsUint64 returns the u64 payload and true iff v's tag is TagU64.
func (v Value) AsUint64() (uint64, bool) {
	if v.tag != TagU64 {
		return 0, false
	}
	return v.num, true
}

// AsFloat64 returns the f64 payload and true iff v's tag is TagF64.
func (v Value) AsFloat64() (float64, bool) {
	if v.tag != TagF64 {
		return 0, false
	}
	return v.f64, true
}

// AsBool returns the bool payload and true iff v's tag is TagBool.
func (v Value) AsBool() (bool, bool) {
	if v.tag != TagBool {
		return false, false
	}
	return v.num != 0, true
}

// AsString returns the str payload and true iff v's tag is TagString.
func (v Value) AsString() (string, bool) {
	if v.tag != TagString {
		return "", false
	}
	return v.str, true
}

// AsArray returns the arr payload and true iff v's tag is TagArray. The
// returned slice is v's own storage; callers must not mutate it in place.
func (v Value) AsArray() ([]Value, bool) {
	if v.tag != TagArray {
		return nil, false
	}
	return v.arr, true
}

// AsObject returns the obj payload and true iff v's tag is TagObject. The
// returned map is v's own storage; callers must not mutate it in place.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.tag != TagObject {
		return nil, false
	}
	return v.obj, true
}

// Clone returns a deep copy of v: nested arrays and objects are
// recursively duplicated so that mutating the clone's containers never
// affects v's.
func (v Value) Clone() Value {
	switch v.tag {
	case TagArray:
		arr := make([]Value, len(v.arr))
		for i, e := range v.arr {
			arr[i] = e.Clone()
		}
		return Value{tag: TagArray, arr: arr}
	case TagObject:
		obj := make(map[string]Value, len(v.obj))
		for k, e := range v.obj {
			obj[k] = e.Clone()
		}
		return Value{tag: TagObject, obj: obj}
	default:
		return v
	}
}

// Equal reports whether v and other are structurally equal, including
// integer width: an i32 1 is not equal to a u32 1.
func (v Value) Equal(other Value) bool {
	if v.tag != other.tag {
		return false
	}
	switch v.tag {
	case TagNull:
		return true
	case TagI32, TagU32, TagI64, TagU64, TagBool:
		return v.num == other.num
	case TagF64:
		return v.f64 == other.f64
	case TagString:
		return v.str == other.str
	case TagArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case TagObject:
		if len(v.obj) != len(other.obj) {
			return false
		}
		for k, e := range v.obj {
			oe, ok := other.obj[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer for diagnostic logging, mirroring the
// original implementation's Display behavior.
func (v Value) String() string {
	switch v.tag {
	case TagNull:
		return "null"
	case TagI32:
		n, _ := v.AsInt32()
		return fmt.Sprintf("%d", n)
	case TagU32:
		n, _ := v.AsUint32()
		return fmt.Sprintf("%d", n)
	case TagI64:
		n, _ := v.AsInt64()
		return fmt.Sprintf("%d", n)
	case TagU64:
		n, _ := v.AsUint64()
		return fmt.Sprintf("%d", n)
	case TagF64:
		n, _ := v.AsFloat64()
		return fmt.Sprintf("%g", n)
	case TagBool:
		b, _ := v.AsBool()
		return fmt.Sprintf("%t", b)
	case TagString:
		return v.str
	case TagArray:
		return fmt.Sprintf("arr[%d]", len(v.arr))
	case TagObject:
		return fmt.Sprintf("obj[%d]", len(v.obj))
	default:
		return "?"
	}
}
