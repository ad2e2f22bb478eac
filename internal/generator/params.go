package generator

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/tomfevang/go-populate-my-db/internal/errs"
	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

// params hands a constructor its options one at a time and rejects
// whatever is left over, so typos in blueprints fail loudly.
type params struct {
	item  string
	field string
	name  string
	m     map[string]any
}

func newParams(cfg *Config) *params {
	m := make(map[string]any, len(cfg.Params))
	for k, v := range cfg.Params {
		m[k] = v
	}
	return &params{item: cfg.Item, field: cfg.Field, name: cfg.Generator, m: m}
}

// take removes and returns the raw value of key.
func (p *params) take(key string) (any, bool) {
	v, ok := p.m[key]
	if ok {
		delete(p.m, key)
	}
	return v, ok
}

func (p *params) takeBool(key string, def bool) (bool, error) {
	raw, ok := p.take(key)
	if !ok || raw == nil {
		return def, nil
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		return def, p.errorf("%s must be a boolean (got: %v)", key, raw)
	}
	return v, nil
}

func (p *params) takeInt(key string, def int64) (int64, error) {
	raw, ok := p.take(key)
	if !ok || raw == nil {
		return def, nil
	}
	v, err := cast.ToInt64E(raw)
	if err != nil {
		return def, p.errorf("%s must be an integer (got: %v)", key, raw)
	}
	return v, nil
}

func (p *params) takeFloat(key string, def float64) (float64, error) {
	raw, ok := p.take(key)
	if !ok || raw == nil {
		return def, nil
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return def, p.errorf("%s must be a number (got: %v)", key, raw)
	}
	return v, nil
}

func (p *params) takeString(key string, def string) (string, error) {
	raw, ok := p.take(key)
	if !ok || raw == nil {
		return def, nil
	}
	v, err := cast.ToStringE(raw)
	if err != nil {
		return def, p.errorf("%s must be a string (got: %v)", key, raw)
	}
	return v, nil
}

// takeExpr parses the value of key as an expression. The result is either
// an expr.Expression or a plain literal; ok reports whether the key was
// present at all.
func (p *params) takeExpr(key string) (any, bool, error) {
	raw, ok := p.take(key)
	if !ok {
		return nil, false, nil
	}
	parsed, err := expr.Parse(raw)
	if err != nil {
		return nil, true, p.errorf("%v", err)
	}
	return parsed, true, nil
}

// finish rejects any option the constructor did not consume.
func (p *params) finish() error {
	if len(p.m) == 0 {
		return nil
	}
	extra := make([]string, 0, len(p.m))
	for k := range p.m {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return p.errorf("Got extra param(s) for generator '%s': %s", p.name, strings.Join(extra, ", "))
}

func (p *params) errorf(format string, args ...any) error {
	prefix := []any{p.item, p.field}
	return errs.Validationf("Item '%s', field '%s': "+format, append(prefix, args...)...)
}

func toFloat(v any) (float64, error) { return cast.ToFloat64E(v) }
func toString(v any) (string, error) { return cast.ToStringE(v) }
func toInt(v any) (int64, error)     { return cast.ToInt64E(v) }

func marshalJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
