package blueprint

import (
	"fmt"
	"time"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

// Dict is a mapping that remembers the order its keys were first set in.
// Blueprint files rely on declaration order, most notably for fields that
// reference earlier siblings through 'this', so plain Go maps are not enough.
type Dict struct {
	keys []string
	m    map[string]any
}

// NewDict returns an empty ordered mapping.
func NewDict() *Dict {
	return &Dict{m: make(map[string]any)}
}

// Set stores a value under key, appending the key on first use.
func (d *Dict) Set(key string, value any) *Dict {
	if _, ok := d.m[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.m[key] = value
	return d
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (any, bool) {
	v, ok := d.m[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	return d.keys
}

// Len returns the number of keys.
func (d *Dict) Len() int {
	return len(d.keys)
}

// Map returns a plain map copy of the dict. Order is lost, so this is only
// for callers that do not care about it, such as generator parameters.
func (d *Dict) Map() map[string]any {
	m := make(map[string]any, len(d.m))
	for k, v := range d.m {
		m[k] = v
	}
	return m
}

// dictString reads a key as a string, rendering scalar values loosely and
// treating a missing or null key as empty.
func dictString(d *Dict, key string) string {
	v, ok := d.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// plainValue converts a declaration value into the plain shape generator
// params expect, turning nested dicts into maps.
func plainValue(v any) any {
	switch x := v.(type) {
	case *Dict:
		m := make(map[string]any, x.Len())
		for _, k := range x.Keys() {
			val, _ := x.Get(k)
			m[k] = plainValue(val)
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plainValue(e)
		}
		return out
	}
	return v
}

// deepCopyParams clones a param map so a child item's overrides never leak
// into the declaration it inherited from.
func deepCopyParams(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return deepCopyParams(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = deepCopyValue(e)
		}
		return out
	}
	return v
}

// TypeName reports a value's type the way blueprint error messages spell
// them, so that messages stay stable across input sources.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int, int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case []any:
		return "list"
	case *Dict, map[string]any:
		return "dict"
	case time.Time:
		return "datetime"
	case expr.Expression:
		return "expression"
	default:
		return "object"
	}
}

// toInt64 normalizes the integer types YAML and callers hand us.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
