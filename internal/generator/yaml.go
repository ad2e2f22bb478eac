package generator

import (
	"context"

	"gopkg.in/yaml.v3"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

func init() {
	register("Yaml", "Parse a YAML document, usually held in a variable, into its value.", newYaml)
}

// Yaml evaluates its value and parses the result as a YAML document.
type Yaml struct {
	base
	value  any
	toJSON bool
}

func newYaml(cfg *Config) (Generator, error) {
	g := &Yaml{}
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

func (g *Yaml) next(ctx context.Context, vars expr.Vars) (any, error) {
	v, err := expr.Eval(g.value, vars)
	if err != nil {
		return nil, err
	}
	doc, err := toString(v)
	if err != nil {
		return nil, g.generationf("Invalid YAML: %v", err)
	}
	var out any
	if err := yaml.Unmarshal([]byte(doc), &out); err != nil {
		return nil, g.generationf("Invalid YAML: %v", err)
	}
	if g.toJSON {
		return g.jsonValue(out)
	}
	return out, nil
}
