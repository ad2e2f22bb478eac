package generator

import (
	"context"
	"math/rand/v2"
	"strconv"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

func init() {
	register("Integer", "Yield a uniform random integer between min and max (inclusive).", newInteger)
	register("Boolean", "Yield true with the configured probability (ratio, default 0.5).", newBoolean)
}

const defaultIntegerMax = 1<<32 - 1

// Integer draws uniformly from [min, max]. Both bounds may be expressions,
// re-evaluated on every call.
type Integer struct {
	base
	min      any // int64 or expr.Expression
	max      any
	toString bool
}

func newInteger(cfg *Config) (Generator, error) {
	g := &Integer{min: int64(0), max: int64(defaultIntegerMax)}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if g.min, err = p.takeBound("min", g.min); err != nil {
		return nil, err
	}
	if g.max, err = p.takeBound("max", g.max); err != nil {
		return nil, err
	}
	if g.toString, err = p.takeBool("to_string", false); err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

// takeBound accepts either a static integer or an expression for later
// evaluation.
func (p *params) takeBound(key string, def any) (any, error) {
	raw, ok, err := p.takeExpr(key)
	if err != nil {
		return def, err
	}
	if !ok || raw == nil {
		return def, nil
	}
	if _, isExpr := raw.(expr.Expression); isExpr {
		return raw, nil
	}
	n, err := toInt(raw)
	if err != nil {
		return def, p.errorf("%s must be an integer or an expression (got: %v)", key, raw)
	}
	return n, nil
}

func (g *Integer) bound(v any, name string, vars expr.Vars) (int64, error) {
	e, isExpr := v.(expr.Expression)
	if !isExpr {
		return v.(int64), nil
	}
	raw, err := e.Evaluate(vars)
	if err != nil {
		return 0, err
	}
	n, err := toInt(raw)
	if err != nil {
		return 0, g.generationf("%s did not yield an integer (got: %v)", name, raw)
	}
	return n, nil
}

func (g *Integer) next(ctx context.Context, vars expr.Vars) (any, error) {
	min, err := g.bound(g.min, "min", vars)
	if err != nil {
		return nil, err
	}
	max, err := g.bound(g.max, "max", vars)
	if err != nil {
		return nil, err
	}
	if min > max {
		return nil, g.generationf("min (%d) is greater than max (%d)", min, max)
	}
	n := min + rand.Int64N(max-min+1)
	if g.toString {
		return strconv.FormatInt(n, 10), nil
	}
	return n, nil
}

// Boolean yields true with probability ratio.
type Boolean struct {
	base
	ratio float64
}

func newBoolean(cfg *Config) (Generator, error) {
	g := &Boolean{}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if g.ratio, err = p.takeFloat("ratio", 0.5); err != nil {
		return nil, err
	}
	if g.ratio < 0 || g.ratio > 1 {
		return nil, p.errorf("ratio must be a number between 0 and 1 (got: %v)", g.ratio)
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

func (g *Boolean) next(ctx context.Context, vars expr.Vars) (any, error) {
	return rand.Float64() < g.ratio, nil
}
