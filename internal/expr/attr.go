package expr

import (
	"fmt"
	"reflect"
	"strings"
)

// Attributer lets a value control attribute lookups. Generated rows and
// in-progress factories implement it; the factory side may produce a field
// on demand, which is why lookups can fail with more than a missing name.
type Attributer interface {
	Attr(name string) (any, error)
}

// Lister exposes an underlying slice, letting list-like domain values (such
// as stored row collections) take part in filters and iteration.
type Lister interface {
	List() []any
}

// Attr resolves a single attribute on v: Attributer first, then string-keyed
// maps, then exported struct fields (case-insensitive).
func Attr(v any, name string) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, fmt.Errorf("'nil' has no attribute '%s'", name)
	case Attributer:
		return x.Attr(name)
	case map[string]any:
		if val, ok := x[name]; ok {
			return val, nil
		}
		return nil, fmt.Errorf("'map' object has no attribute '%s'", name)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("'nil' has no attribute '%s'", name)
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		f := rv.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
		if f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	}
	return nil, fmt.Errorf("'%T' object has no attribute '%s'", v, name)
}

// AsList adapts v to a slice of elements: []any and Lister values directly,
// strings as their characters, and any other slice or array via reflection.
func AsList(v any) ([]any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case []any:
		return x, true
	case Lister:
		return x.List(), true
	case string:
		out := make([]any, 0, len(x))
		for _, r := range x {
			out = append(out, string(r))
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

// Stringify renders a value for template output. Nil renders empty.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	}
	return fmt.Sprint(v)
}

// Truthy reports whether v counts as true in a template condition: nil,
// false, zero numbers, empty strings and empty sequences do not.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if isIntKind(v) {
		return asInt64(v) != 0
	}
	if f, ok := asFloat(v); ok {
		return f != 0
	}
	if l, ok := AsList(v); ok {
		return len(l) > 0
	}
	return true
}

func isIntKind(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func asInt64(v any) int64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	default:
		return rv.Int()
	}
}

func asFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}
