package generator

import (
	"context"
	"math/rand/v2"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

func init() {
	register("Select", "Yield values sampled from an existing database table.", newSelect)
}

const selectPageSize = 1000

// Select samples primary keys (or another column) from an existing table.
// Pages of up to 1000 rows are fetched at random, shuffled, and served one
// value per call; the page is refetched when exhausted or when the
// evaluated where clause changes.
type Select struct {
	base
	table string
	pk    string
	where any // nil or parsed expression

	page      []any
	pos       int
	lastWhere string
	fetched   bool
}

func newSelect(cfg *Config) (Generator, error) {
	g := &Select{}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if g.table, err = p.takeString("table", ""); err != nil {
		return nil, err
	}
	if g.table == "" {
		return nil, p.errorf("Select requires a table")
	}
	if g.pk, err = p.takeString("pk", "id"); err != nil {
		return nil, err
	}
	if g.where, _, err = p.takeExpr("where"); err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

func (g *Select) next(ctx context.Context, vars expr.Vars) (any, error) {
	where := ""
	if g.where != nil {
		v, err := expr.Eval(g.where, vars)
		if err != nil {
			return nil, err
		}
		where = expr.Stringify(v)
	}

	if !g.fetched || where != g.lastWhere || g.pos >= len(g.page) {
		if err := g.fetch(ctx, where); err != nil {
			return nil, err
		}
	}
	if len(g.page) == 0 {
		return nil, g.generationf("nothing to select in table '%s'", g.table)
	}
	v := g.page[g.pos]
	g.pos++
	return v, nil
}

func (g *Select) fetch(ctx context.Context, where string) error {
	if g.rt == nil || g.rt.Backend() == nil {
		return g.generationf("Select requires a database connection")
	}
	rows, err := g.rt.Backend().SelectRandom(ctx, g.table, []string{g.pk}, where, selectPageSize)
	if err != nil {
		return err
	}
	page := make([]any, len(rows))
	for i, row := range rows {
		page[i] = row[0]
	}
	rand.Shuffle(len(page), func(i, j int) {
		page[i], page[j] = page[j], page[i]
	})
	g.page = page
	g.pos = 0
	g.lastWhere = where
	g.fetched = true
	return nil
}
