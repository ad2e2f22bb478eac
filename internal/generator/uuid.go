package generator

import (
	"context"

	"github.com/google/uuid"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

func init() {
	register("UUID", "Yield a random version 4 UUID.", newUUID)
}

// UUID yields random v4 UUIDs, natively or as strings.
type UUID struct {
	base
	toString bool
}

func newUUID(cfg *Config) (Generator, error) {
	g := &UUID{}
	p, err := g.init(cfg)
	if err != nil {
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

func (g *UUID) next(ctx context.Context, vars expr.Vars) (any, error) {
	id := uuid.New()
	if g.toString {
		return id.String(), nil
	}
	return id, nil
}
