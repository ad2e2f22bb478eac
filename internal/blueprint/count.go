package blueprint

import (
	"math/rand/v2"

	"github.com/tomfevang/go-populate-my-db/internal/errs"
	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

// countKeys are the keys a count declaration accepts.
var countKeys = []string{"number", "by", "min", "max"}

// Count decides how many rows of an item to generate on each invocation.
// A fixed number wins over the min/max range; either form may hold an
// expression that is re-evaluated against the blueprint variables every
// time, so a child's count can depend on its parent row. By names the
// parent item the count applies per row of.
type Count struct {
	item   string
	Number any // nil, int64 or expr.Expression
	By     string
	Min    any // nil (meaning 0), int64 or expr.Expression
	Max    any
}

// Value resolves the count against vars. Expressions must yield a
// non-negative integer.
func (c *Count) Value(vars expr.Vars) (int, error) {
	if c.Number != nil {
		return c.resolve(c.Number, "number", vars)
	}

	lo, err := c.resolve(c.Min, "min", vars)
	if err != nil {
		return 0, err
	}
	hi, err := c.resolve(c.Max, "max", vars)
	if err != nil {
		return 0, err
	}
	if hi < lo {
		return 0, errs.Generationf("Item '%s' count: Min is greater than max.", c.item)
	}
	return lo + rand.IntN(hi-lo+1), nil
}

func (c *Count) resolve(v any, key string, vars expr.Vars) (int, error) {
	if v == nil {
		return 0, nil
	}
	raw, err := expr.Eval(v, vars)
	if err != nil {
		return 0, err
	}
	n, ok := toInt64(raw)
	if !ok {
		return 0, errs.Generationf(
			"Item '%s' count: %s did not yield an integer (got: '%v').", c.item, key, raw)
	}
	if n < 0 {
		return 0, errs.Generationf("Item '%s' count: %s must be positive.", c.item, key)
	}
	return int(n), nil
}

// staticallyZero reports whether the count can never produce rows, which
// must be knowable without evaluating expressions: a literal zero number,
// or a min/max range pinned to zero. Items whose parent is statically zero
// adopt the parent's identity for fan-out, since the parent itself will
// never reach the buffer.
func (c *Count) staticallyZero() bool {
	switch n := c.Number.(type) {
	case int64:
		return n == 0
	case nil:
		return staticZero(c.Min) && staticZero(c.Max)
	default:
		return false
	}
}

func staticZero(v any) bool {
	if v == nil {
		return true
	}
	n, ok := v.(int64)
	return ok && n == 0
}

// static returns the bound as an integer when it is not an expression.
func static(v any) (int64, bool) {
	if v == nil {
		return 0, true
	}
	n, ok := v.(int64)
	return n, ok
}

// Total estimates the rows a count yields per invocation: the literal
// number, or the middle of a literal range. Expression-driven counts have
// no closed form.
func (c *Count) Total() (int64, bool) {
	if c.Number != nil {
		n, ok := c.Number.(int64)
		return n, ok
	}
	lo, ok := static(c.Min)
	if !ok {
		return 0, false
	}
	hi, ok := static(c.Max)
	if !ok {
		return 0, false
	}
	return (lo + hi) / 2, true
}
