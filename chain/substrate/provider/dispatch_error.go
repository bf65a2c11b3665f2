package provider

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
)

// decodeDispatchError turns a System.ExtrinsicFailed event into a DispatchError. Module errors
// are resolved to pallet and error names through the runtime metadata; anything else is reported
// by its variant name.
func decodeDispatchError(meta *types.Metadata, ev substrate.Event) *substrate.DispatchError {
	value, ok := ev.Field("dispatch_error")
	if !ok {
		for name, v := range ev.Fields {
			if strings.Contains(strings.ToLower(name), "dispatch") || name == "0" {
				value, ok = v, true
				break
			}
		}
	}
	if !ok {
		return &substrate.DispatchError{Reason: "unknown"}
	}

	if pallet, errIdx, found := findModuleError(value); found {
		if section, method, docs, known := lookupModuleError(meta, pallet, errIdx); known {
			return &substrate.DispatchError{Section: section, Method: method, Docs: docs}
		}

		return &substrate.DispatchError{Reason: fmt.Sprintf("Module{index: %d, error: %d}", pallet, errIdx)}
	}

	return &substrate.DispatchError{Reason: variantName(value)}
}

// fieldsOf views a decoded composite as a name -> value map.
func fieldsOf(v any) (map[string]any, bool) {
	switch v := v.(type) {
	case registry.DecodedFields:
		m := make(map[string]any, len(v))
		for _, f := range v {
			if f != nil {
				m[f.Name] = f.Value
			}
		}

		return m, true
	case *registry.DecodedField:
		if v == nil {
			return nil, false
		}

		return map[string]any{v.Name: v.Value}, true
	case map[string]any:
		return v, true
	}

	return nil, false
}

func lookupCI(m map[string]any, name string) (any, bool) {
	for k, v := range m {
		// decoded names may carry a type path prefix, e.g. "sp_runtime.ModuleError.index"
		if strings.EqualFold(k, name) || strings.HasSuffix(strings.ToLower(k), "."+name) {
			return v, true
		}
	}

	return nil, false
}

// findModuleError searches v for a composite holding both "index" and "error".
func findModuleError(v any) (pallet, errIdx uint8, found bool) {
	if m, ok := fieldsOf(v); ok {
		idx, hasIdx := lookupCI(m, "index")
		errVal, hasErr := lookupCI(m, "error")
		if hasIdx && hasErr {
			p, okP := smallUint(idx)
			e, okE := firstByte(errVal)
			if okP && okE {
				return p, e, true
			}
		}
		for _, inner := range m {
			if p, e, ok := findModuleError(inner); ok {
				return p, e, true
			}
		}

		return 0, 0, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := range rv.Len() {
			if p, e, ok := findModuleError(rv.Index(i).Interface()); ok {
				return p, e, true
			}
		}
	}

	return 0, 0, false
}

func smallUint(v any) (uint8, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() <= 0xff {
			return uint8(rv.Uint()), true
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() >= 0 && rv.Int() <= 0xff {
			return uint8(rv.Int()), true
		}
	}

	return 0, false
}

// firstByte reads the error index: a plain u8 in older runtimes, the first byte of [u8; 4] in
// newer ones.
func firstByte(v any) (uint8, bool) {
	if b, ok := smallUint(v); ok {
		return b, true
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Len() > 0 {
		return smallUint(rv.Index(0).Interface())
	}

	return 0, false
}

// variantName extracts the name of a unit-like decoded variant such as BadOrigin.
func variantName(v any) string {
	if m, ok := fieldsOf(v); ok && len(m) == 1 {
		for k := range m {
			return k
		}
	}
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", v)
}

// lookupModuleError resolves (pallet index, error index) to names and docs using metadata V14.
func lookupModuleError(meta *types.Metadata, pallet, errIdx uint8) (section, method, docs string, ok bool) {
	if meta == nil || meta.Version != 14 {
		return "", "", "", false
	}

	for _, p := range meta.AsMetadataV14.Pallets {
		if uint8(p.Index) != pallet || !p.HasErrors {
			continue
		}
		errType := (*big.Int)(&p.Errors.Type.UCompact).Int64()
		for _, t := range meta.AsMetadataV14.Lookup.Types {
			if (*big.Int)(&t.ID.UCompact).Int64() != errType || !t.Type.Def.IsVariant {
				continue
			}
			for _, variant := range t.Type.Def.Variant.Variants {
				if uint8(variant.Index) == errIdx {
					lines := make([]string, len(variant.Docs))
					for i, d := range variant.Docs {
						lines[i] = strings.TrimSpace(string(d))
					}

					return string(p.Name), string(variant.Name), strings.Join(lines, " "), true
				}
			}
		}
	}

	return "", "", "", false
}
