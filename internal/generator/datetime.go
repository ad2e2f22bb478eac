package generator

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

func init() {
	register("DateTime", "Yield a random timestamp within the configured window.", newDateTime)
	register("Date", "Yield a random calendar date within the configured window.", newDate)
	register("Time", "Yield a random time of day within the configured window.", newTime)
}

// Default window bounds when no explicit after/before is given.
var (
	defaultWindowStart = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	defaultWindowEnd   = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"2006",
}

// coerceTime interprets v leniently as a point in time: timestamps pass
// through, integers are years, strings may be anything from a full
// timestamp down to a bare year (mapped to Jan 1).
func coerceTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case int:
		return time.Date(x, 1, 1, 0, 0, 0, 0, time.UTC), true
	case int64:
		return time.Date(int(x), 1, 1, 0, 0, 0, 0, time.UTC), true
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// timeWindow resolves the [start, end] generation window from the past,
// future, after and before params. An unset start falls back to 1900 (or
// now when past is off); an unset end falls back to now (or 2100 when
// future is on). Bounds may be expressions, re-resolved on every call.
type timeWindow struct {
	past   bool
	future bool
	after  any // nil, time.Time or expr.Expression
	before any
}

func (w *timeWindow) parse(p *params) error {
	var err error
	if w.past, err = p.takeBool("past", true); err != nil {
		return err
	}
	if w.future, err = p.takeBool("future", false); err != nil {
		return err
	}
	if w.after, err = w.parseBound(p, "after"); err != nil {
		return err
	}
	if w.before, err = w.parseBound(p, "before"); err != nil {
		return err
	}
	return nil
}

func (w *timeWindow) parseBound(p *params, key string) (any, error) {
	raw, ok, err := p.takeExpr(key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == nil {
		return nil, nil
	}
	if e, isExpr := raw.(expr.Expression); isExpr {
		return e, nil
	}
	t, ok := coerceTime(raw)
	if !ok {
		return nil, p.errorf("cannot interpret '%v' as a date", raw)
	}
	return t, nil
}

func (w *timeWindow) bound(b *base, v any, vars expr.Vars) (time.Time, error) {
	if e, isExpr := v.(expr.Expression); isExpr {
		raw, err := e.Evaluate(vars)
		if err != nil {
			return time.Time{}, err
		}
		t, ok := coerceTime(raw)
		if !ok {
			return time.Time{}, b.generationf("cannot interpret '%v' as a date", raw)
		}
		return t, nil
	}
	return v.(time.Time), nil
}

func (w *timeWindow) resolve(b *base, vars expr.Vars) (start, end time.Time, err error) {
	if w.after != nil {
		if start, err = w.bound(b, w.after, vars); err != nil {
			return
		}
	} else if w.past {
		start = defaultWindowStart
	} else {
		start = time.Now().UTC().Truncate(time.Second)
	}

	if w.before != nil {
		if end, err = w.bound(b, w.before, vars); err != nil {
			return
		}
	} else if w.future {
		end = defaultWindowEnd
	} else {
		end = time.Now().UTC().Truncate(time.Second)
	}

	if end.Before(start) {
		err = b.generationf("the time window is empty (start %s is after end %s)",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return
}

// randomSecond draws a whole second uniformly from [start, end].
func randomSecond(start, end time.Time) time.Time {
	delta := end.Unix() - start.Unix()
	if delta <= 0 {
		return start
	}
	return time.Unix(start.Unix()+rand.Int64N(delta+1), 0).UTC()
}

// DateTime yields timestamps at second resolution.
type DateTime struct {
	base
	window timeWindow
}

func newDateTime(cfg *Config) (Generator, error) {
	g := &DateTime{}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if err := g.window.parse(p); err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

func (g *DateTime) next(ctx context.Context, vars expr.Vars) (any, error) {
	start, end, err := g.window.resolve(&g.base, vars)
	if err != nil {
		return nil, err
	}
	return randomSecond(start, end), nil
}

// Date yields whole days as midnight timestamps.
type Date struct {
	base
	window timeWindow
}

func newDate(cfg *Config) (Generator, error) {
	g := &Date{}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if err := g.window.parse(p); err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (g *Date) next(ctx context.Context, vars expr.Vars) (any, error) {
	start, end, err := g.window.resolve(&g.base, vars)
	if err != nil {
		return nil, err
	}
	first := truncateDay(start)
	days := int64(truncateDay(end).Sub(first).Hours() / 24)
	if days <= 0 {
		return first, nil
	}
	return first.AddDate(0, 0, int(rand.Int64N(days+1))), nil
}

// Time yields a clock time formatted HH:MM:SS.
type Time struct {
	base
	window timeWindow
}

func newTime(cfg *Config) (Generator, error) {
	g := &Time{}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if err := g.window.parse(p); err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

func (g *Time) next(ctx context.Context, vars expr.Vars) (any, error) {
	start, end, err := g.window.resolve(&g.base, vars)
	if err != nil {
		return nil, err
	}
	return randomSecond(start, end).Format("15:04:05"), nil
}
