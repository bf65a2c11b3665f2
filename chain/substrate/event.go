package substrate

import (
	"encoding/hex"
	"math/big"
	"reflect"
	"strings"
)

// Event is a runtime event with its fields decoded by name.
type Event struct {
	Section string
	Method  string
	Fields  map[string]any
	// ExtrinsicIndex is the index of the emitting extrinsic in its block, nil for events emitted
	// during initialization or finalization.
	ExtrinsicIndex *uint32
}

// Is reports whether the event is section.method. Section is compared case-insensitively so that
// "proxy" matches the runtime's "Proxy".
func (e Event) Is(section, method string) bool {
	return strings.EqualFold(e.Section, section) && strings.EqualFold(e.Method, method)
}

func (e Event) String() string {
	return e.Section + "." + e.Method
}

// Field returns the named field.
func (e Event) Field(name string) (any, bool) {
	v, ok := e.Fields[name]

	return v, ok
}

// BytesField returns a byte-like field. Fixed arrays, byte slices, slices of small integers (the
// decoder's view of [u8; N]) and 0x-prefixed hex strings are accepted.
func (e Event) BytesField(name string) ([]byte, bool) {
	v, ok := e.Fields[name]
	if !ok {
		return nil, false
	}

	return toBytes(v)
}

// UintField returns an unsigned integer field.
func (e Event) UintField(name string) (*big.Int, bool) {
	v, ok := e.Fields[name]
	if !ok {
		return nil, false
	}

	return toBig(v)
}

func toBytes(v any) ([]byte, bool) {
	switch v := v.(type) {
	case []byte:
		return v, true
	case string:
		b, err := hex.DecodeString(strings.TrimPrefix(v, "0x"))
		if err != nil {
			return nil, false
		}

		return b, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array, reflect.Slice:
		out := make([]byte, rv.Len())
		for i := range rv.Len() {
			n, ok := toBig(rv.Index(i).Interface())
			if !ok || !n.IsUint64() || n.Uint64() > 0xff {
				return nil, false
			}
			out[i] = byte(n.Uint64())
		}

		return out, true
	case reflect.Map:
		// single field composites such as H256(...) decode as a one entry map
		if rv.Len() == 1 {
			return toBytes(rv.MapIndex(rv.MapKeys()[0]).Interface())
		}
	}

	return nil, false
}

func toBig(v any) (*big.Int, bool) {
	switch v := v.(type) {
	case *big.Int:
		return new(big.Int).Set(v), v.Sign() >= 0
	case big.Int:
		return new(big.Int).Set(&v), v.Sign() >= 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < 0 {
			return nil, false
		}

		return big.NewInt(rv.Int()), true
	case reflect.Struct:
		// types.U128 and friends embed *big.Int
		if rv.NumField() == 1 {
			return toBig(rv.Field(0).Interface())
		}
	case reflect.Ptr:
		if !rv.IsNil() {
			return toBig(rv.Elem().Interface())
		}
	}

	return nil, false
}
