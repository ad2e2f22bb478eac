package generator

import (
	"context"
	"math/rand/v2"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

func init() {
	register("Choices", "Pick a random element from a list, or from the list held by a variable.", newChoices)
}

// Choices draws uniformly from a list. A static list is fixed at
// construction; a variable reference is re-evaluated on every call, so the
// pool may grow or shrink during generation.
type Choices struct {
	base
	choices any // []any of parsed elements, or expr.Expression
}

func newChoices(cfg *Config) (Generator, error) {
	g := &Choices{}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	raw, ok := p.take("choices")
	if !ok || raw == nil {
		return nil, p.errorf("choices must be a list or an expression (got: %v)", raw)
	}
	switch v := raw.(type) {
	case string:
		parsed, err := expr.Parse(v)
		if err != nil {
			return nil, p.errorf("%v", err)
		}
		if e, isExpr := parsed.(expr.Expression); isExpr {
			g.choices = e
			break
		}
		items, ok := expr.AsList(parsed)
		if !ok || len(items) == 0 {
			return nil, p.errorf("choices cannot be empty")
		}
		g.choices = items
	case []any:
		if len(v) == 0 {
			return nil, p.errorf("choices cannot be empty")
		}
		items := make([]any, len(v))
		for i, c := range v {
			parsed, err := expr.Parse(c)
			if err != nil {
				return nil, p.errorf("%v", err)
			}
			items[i] = parsed
		}
		g.choices = items
	default:
		return nil, p.errorf("choices must be a list or an expression (got: %v)", raw)
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

func (g *Choices) next(ctx context.Context, vars expr.Vars) (any, error) {
	if e, isExpr := g.choices.(expr.Expression); isExpr {
		v, err := e.Evaluate(vars)
		if err != nil {
			return nil, err
		}
		items, ok := expr.AsList(v)
		if !ok {
			return nil, g.generationf("choices did not yield a list (got: %v)", v)
		}
		if len(items) == 0 {
			if g.nullableEnabled() {
				return nil, nil
			}
			return nil, g.generationf("cannot choose from an empty list")
		}
		return items[rand.IntN(len(items))], nil
	}

	items := g.choices.([]any)
	return expr.Eval(items[rand.IntN(len(items))], vars)
}
