package generator

import (
	"context"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

func init() {
	register("Store", "Yield a fresh list for related rows to append into.", newStore)
}

// Store backs the fields created by this.X.Y storage bindings: every row
// gets its own empty list, filled later while its children generate. The
// field is always shadow.
type Store struct {
	base
}

func newStore(cfg *Config) (Generator, error) {
	g := &Store{}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.shadow = true
	g.generate = g.next
	return g, nil
}

func (g *Store) next(ctx context.Context, vars expr.Vars) (any, error) {
	return expr.NewList(), nil
}
