// Package generator implements the field value producers a blueprint can
// declare. Every generator yields an endless stream of values through Next;
// the options shared by all of them (shadow, nullable, unique) are handled
// by the embedded base so concrete generators only produce raw values.
package generator

import (
	"context"
	"math/rand/v2"

	"github.com/tomfevang/go-populate-my-db/internal/backend"
	"github.com/tomfevang/go-populate-my-db/internal/bloom"
	"github.com/tomfevang/go-populate-my-db/internal/errs"
	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

// maxUniqueTries bounds how many candidates a unique generator draws for a
// single row before giving up.
const maxUniqueTries = 10000

// Runtime gives generators access to engine services during generation. It
// may be nil when no database is involved.
type Runtime interface {
	Backend() backend.Backend
}

// Config carries everything a constructor needs: the declaring item and
// field for error messages, the generator name as written in the blueprint,
// the engine runtime and the raw params.
type Config struct {
	Item      string
	Field     string
	Generator string
	Runtime   Runtime
	Params    map[string]any
}

// Generator produces field values. Next never exhausts; vars is the live
// variable environment of the generation run.
type Generator interface {
	Next(ctx context.Context, vars expr.Vars) (any, error)

	// Shadow reports whether the field stays out of database writes.
	Shadow() bool
	// Unique reports whether values are deduplicated; UniqueWith names the
	// sibling fields that complete the uniqueness key.
	Unique() bool
	UniqueWith() []string
	// SetSeen swaps in a shared dedup filter, so generators targeting the
	// same column agree on what has been produced.
	SetSeen(f *bloom.Filter)
}

// base carries the common options and wraps the concrete producer with the
// nullable and unique behaviors.
type base struct {
	item  string
	field string
	name  string
	rt    Runtime

	shadow     bool
	nullable   any // nil when disabled, else float64 or expr.Expression
	unique     bool
	uniqueWith []string
	seen       *bloom.Filter

	generate func(ctx context.Context, vars expr.Vars) (any, error)
}

// init parses the common options out of cfg and returns the params helper
// so the concrete constructor can consume its own.
func (b *base) init(cfg *Config) (*params, error) {
	b.item = cfg.Item
	b.field = cfg.Field
	b.name = cfg.Generator
	b.rt = cfg.Runtime

	p := newParams(cfg)

	shadow, err := p.takeBool("shadow", false)
	if err != nil {
		return nil, err
	}
	b.shadow = shadow

	if err := b.parseNullable(p); err != nil {
		return nil, err
	}
	if err := b.parseUnique(p); err != nil {
		return nil, err
	}
	if b.unique {
		b.seen = bloom.New(bloom.DefaultCapacity, bloom.DefaultErrorRate)
	}
	return p, nil
}

func (b *base) parseNullable(p *params) error {
	raw, ok := p.take("nullable")
	if !ok {
		return nil
	}
	if v, isBool := raw.(bool); isBool {
		if v {
			b.nullable = 0.5
		}
		return nil
	}
	parsed, err := expr.Parse(raw)
	if err != nil {
		return b.validationf("%v", err)
	}
	if e, isExpr := parsed.(expr.Expression); isExpr {
		b.nullable = e
		return nil
	}
	frac, err := toFloat(parsed)
	if err != nil || frac < 0 || frac > 1 {
		return b.validationf("nullable must be a boolean, a number between 0 and 1, or an expression (got: %v)", raw)
	}
	if frac > 0 {
		b.nullable = frac
	}
	return nil
}

func (b *base) parseUnique(p *params) error {
	raw, ok := p.take("unique")
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case bool:
		b.unique = v
	case string:
		b.unique = true
		b.uniqueWith = []string{v}
	case []any:
		b.unique = true
		for _, f := range v {
			name, err := toString(f)
			if err != nil {
				return b.validationf("unique must be a boolean, a field name, or a list of field names")
			}
			b.uniqueWith = append(b.uniqueWith, name)
		}
	default:
		return b.validationf("unique must be a boolean, a field name, or a list of field names")
	}
	return nil
}

func (b *base) Shadow() bool            { return b.shadow }
func (b *base) Unique() bool            { return b.unique }
func (b *base) UniqueWith() []string    { return b.uniqueWith }
func (b *base) SetSeen(f *bloom.Filter) { b.seen = f }
func (b *base) nullableEnabled() bool   { return b.nullable != nil }

// Next applies the nullable and unique wrapping around the raw producer. A
// null short-circuits before the producer runs, so wrapped generators keep
// their internal state untouched on null rows.
func (b *base) Next(ctx context.Context, vars expr.Vars) (any, error) {
	if b.nullable != nil {
		frac, err := b.nullFraction(vars)
		if err != nil {
			return nil, err
		}
		if rand.Float64() < frac {
			return nil, nil
		}
	}

	if !b.unique {
		return b.generate(ctx, vars)
	}

	for range maxUniqueTries {
		v, err := b.generate(ctx, vars)
		if err != nil {
			return nil, err
		}
		key, err := b.uniqueKey(v, vars)
		if err != nil {
			return nil, err
		}
		if b.seen.Contains(key) {
			continue
		}
		b.seen.Add(key, false)
		return v, nil
	}
	return nil, b.generationf("could not generate a new unique value in %d tries", maxUniqueTries)
}

func (b *base) nullFraction(vars expr.Vars) (float64, error) {
	switch v := b.nullable.(type) {
	case float64:
		return v, nil
	case expr.Expression:
		raw, err := v.Evaluate(vars)
		if err != nil {
			return 0, err
		}
		frac, err := toFloat(raw)
		if err != nil {
			return 0, b.generationf("nullable expression did not yield a number (got: %v)", raw)
		}
		return frac, nil
	}
	return 0, nil
}

// uniqueKey derives the dedup key for v: the value itself, or its id when
// it is a record carrying one, combined with the row's current values for
// every unique_with sibling field.
func (b *base) uniqueKey(v any, vars expr.Vars) (string, error) {
	parts := make([]any, 0, 1+len(b.uniqueWith))
	parts = append(parts, recordKey(v))

	if len(b.uniqueWith) > 0 {
		this, ok := vars["this"]
		if !ok {
			return "", b.generationf("unique_with requires a row under generation")
		}
		for _, field := range b.uniqueWith {
			sibling, err := expr.Attr(this, field)
			if err != nil {
				return "", b.generationf("unique_with field: %v", err)
			}
			parts = append(parts, recordKey(sibling))
		}
	}
	return keyString(parts...), nil
}

func (b *base) validationf(format string, args ...any) error {
	prefix := []any{b.item, b.field}
	return errs.Validationf("Item '%s', field '%s': "+format, append(prefix, args...)...)
}

func (b *base) generationf(format string, args ...any) error {
	prefix := []any{b.item, b.field}
	return errs.Generationf("Item '%s', field '%s': "+format, append(prefix, args...)...)
}

// jsonValue encodes v for a JSON column through the backend adapter when
// one is connected, and as plain JSON text otherwise.
func (b *base) jsonValue(v any) (any, error) {
	if b.rt != nil {
		if be := b.rt.Backend(); be != nil {
			return be.JSONValue(v)
		}
	}
	return marshalJSON(v)
}
