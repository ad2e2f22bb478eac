package generator

import (
	"context"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

func init() {
	register("Value", "Yield a fixed value, or the result of an expression, for every row.", newValue)
}

// Value repeats a literal, re-evaluating it first when it is an expression.
type Value struct {
	base
	value  any
	toJSON bool
}

func newValue(cfg *Config) (Generator, error) {
	g := &Value{}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if g.value, _, err = p.takeExpr("value"); err != nil {
		return nil, err
	}
	if g.toJSON, err = p.takeBool("to_json", false); err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

func (g *Value) next(ctx context.Context, vars expr.Vars) (any, error) {
	v, err := expr.Eval(g.value, vars)
	if err != nil {
		return nil, err
	}
	if g.toJSON {
		return g.jsonValue(v)
	}
	return v, nil
}
