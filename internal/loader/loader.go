// Package loader reads blueprint files and applies them to a blueprint.
// Each file is parsed on its own and applied in order, so a later file can
// override variables and re-declare items from an earlier one.
package loader

import (
	"errors"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tomfevang/go-populate-my-db/internal/backend"
	"github.com/tomfevang/go-populate-my-db/internal/blueprint"
	"github.com/tomfevang/go-populate-my-db/internal/errs"
)

// blueprintKeys are the keys a blueprint file accepts at the top level.
var blueprintKeys = []string{"vars", "items", "fixtures"}

// fixtureKeys are the keys a fixture declaration accepts.
var fixtureKeys = []string{"name", "item", "fields"}

// Load parses the given YAML files and applies them, in order, to a fresh
// blueprint backed by be. A nil backend is fine for validation-only runs.
// Validation errors carry the name of the file they came from.
func Load(be backend.Backend, filenames ...string) (*blueprint.Blueprint, error) {
	bp := blueprint.New(be)
	for _, filename := range filenames {
		content, err := parseFile(filename)
		if err != nil {
			return nil, err
		}
		if err := apply(bp, content); err != nil {
			var v *errs.ValidationError
			if errors.As(err, &v) && v.File == "" {
				v.File = filename
			}
			return nil, err
		}
	}
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	return bp, nil
}

func parseFile(filename string) (any, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &errs.ParseError{File: filename, Err: err}
	}
	v, err := fromNode(&node)
	if err != nil {
		return nil, &errs.ParseError{File: filename, Err: err}
	}
	return v, nil
}

// fromNode converts a parsed YAML node into declaration values. Mappings
// become ordered dicts, since declaration order is meaningful for fields,
// store_in and items.
func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case 0:
		// empty document
		return nil, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		d := blueprint.NewDict()
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, err
			}
			v, err := fromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			d.Set(key, v)
		}
		return d, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// apply loads one file's content into the blueprint. An empty document
// loads nothing.
func apply(bp *blueprint.Blueprint, content any) error {
	if content == nil {
		return nil
	}
	if l, ok := content.([]any); ok && len(l) == 0 {
		return nil
	}
	d, ok := content.(*blueprint.Dict)
	if !ok {
		return errs.Validationf("A blueprint must be a dict. Got a '%s'.", blueprint.TypeName(content))
	}

	var unknown []string
	for _, key := range d.Keys() {
		if !slices.Contains(blueprintKeys, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return errs.Validationf("Unknown key(s) in blueprint: '%s'.", strings.Join(unknown, ", "))
	}

	if err := loadVars(bp, d); err != nil {
		return err
	}
	if err := loadItems(bp, d); err != nil {
		return err
	}
	return loadFixtures(bp, d)
}

func loadVars(bp *blueprint.Blueprint, content *blueprint.Dict) error {
	raw, ok := content.Get("vars")
	if !ok || raw == nil {
		return nil
	}
	vars, ok := raw.(*blueprint.Dict)
	if !ok {
		return errs.Validationf("Vars must be a dict, not a %s.", blueprint.TypeName(raw))
	}
	for _, name := range vars.Keys() {
		v, _ := vars.Get(name)
		bp.AddVar(name, v)
	}
	return nil
}

func loadItems(bp *blueprint.Blueprint, content *blueprint.Dict) error {
	raw, ok := content.Get("items")
	if !ok || raw == nil {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return errs.Validationf("Items must be in a list, not a %s.", blueprint.TypeName(raw))
	}
	for _, desc := range items {
		if err := bp.AddItem(desc); err != nil {
			return err
		}
	}
	return nil
}

func loadFixtures(bp *blueprint.Blueprint, content *blueprint.Dict) error {
	raw, ok := content.Get("fixtures")
	if !ok || raw == nil {
		return nil
	}
	fixtures, ok := raw.([]any)
	if !ok {
		return errs.Validationf("Fixtures must be in a list, not a %s.", blueprint.TypeName(raw))
	}
	for _, entry := range fixtures {
		d, ok := entry.(*blueprint.Dict)
		if !ok {
			return errs.Validationf("A fixture must be a dict, not a '%s'.", blueprint.TypeName(entry))
		}

		var unknown []string
		for _, key := range d.Keys() {
			if !slices.Contains(fixtureKeys, key) {
				unknown = append(unknown, key)
			}
		}
		name := str(d, "name")
		if len(unknown) > 0 {
			return errs.Validationf("Unknown key(s) '%s' in fixture '%s'. Possible keys are '%s'.",
				strings.Join(unknown, ", "), name, strings.Join(fixtureKeys, ", "))
		}
		item := str(d, "item")
		if name == "" || item == "" {
			return errs.Validationf("A fixture requires a 'name' and an 'item'.")
		}
		fields, _ := d.Get("fields")
		if err := bp.AddFixture(item, name, fields); err != nil {
			return err
		}
	}
	return nil
}

func str(d *blueprint.Dict, key string) string {
	v, _ := d.Get(key)
	s, _ := v.(string)
	return s
}
