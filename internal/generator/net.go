package generator

import (
	"context"
	"math/rand/v2"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

func init() {
	register("IP", "Yield a random IP address, v4 or v6 depending on the toggles.", newIP)
	register("URL", "Yield a random URL.", newURL)
}

// IP yields addresses from the enabled families, mixing them when both
// are on.
type IP struct {
	base
	ipv4  bool
	ipv6  bool
	faker *gofakeit.Faker
}

func newIP(cfg *Config) (Generator, error) {
	g := &IP{faker: gofakeit.New(0)}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if g.ipv4, err = p.takeBool("ipv4", true); err != nil {
		return nil, err
	}
	if g.ipv6, err = p.takeBool("ipv6", true); err != nil {
		return nil, err
	}
	if !g.ipv4 && !g.ipv6 {
		return nil, p.errorf("ipv4 and ipv6 cannot both be false")
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

func (g *IP) next(ctx context.Context, vars expr.Vars) (any, error) {
	v4 := g.ipv4
	if g.ipv4 && g.ipv6 {
		v4 = rand.IntN(2) == 0
	}
	if v4 {
		return g.faker.IPv4Address(), nil
	}
	return g.faker.IPv6Address(), nil
}

// URL yields URLs.
type URL struct {
	base
	faker *gofakeit.Faker
}

func newURL(cfg *Config) (Generator, error) {
	g := &URL{faker: gofakeit.New(0)}
	p, err := g.init(cfg)
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	g.generate = g.next
	return g, nil
}

func (g *URL) next(ctx context.Context, vars expr.Vars) (any, error) {
	return g.faker.URL(), nil
}
