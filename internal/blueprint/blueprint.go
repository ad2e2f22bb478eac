// Package blueprint implements the generation engine. A blueprint holds
// ordered item declarations, shared variables and fixtures; generating it
// streams batches of rows through a buffer into the backend, hands the
// returned ids back to the rows, and fans out dependent items per parent
// row as each batch lands.
package blueprint

import (
	"context"
	"slices"
	"strings"

	"github.com/tomfevang/go-populate-my-db/internal/backend"
	"github.com/tomfevang/go-populate-my-db/internal/bloom"
	"github.com/tomfevang/go-populate-my-db/internal/errs"
	"github.com/tomfevang/go-populate-my-db/internal/expr"
)

// Blueprint is the full declaration of a generation run.
type Blueprint struct {
	items []*Item
	index map[string]*Item

	// Vars is the live variable environment expressions evaluate against.
	// The engine threads transient bindings ('this', parent rows) through
	// it during generation.
	Vars expr.Vars

	be       backend.Backend
	fixtures []*Fixture
	seen     map[string]map[string]*bloom.Filter
	written  map[string]int64
}

// New returns an empty blueprint writing to be. A nil backend is fine for
// validation; generation requires one.
func New(be backend.Backend) *Blueprint {
	return &Blueprint{
		index:   make(map[string]*Item),
		Vars:    make(expr.Vars),
		be:      be,
		seen:    make(map[string]map[string]*bloom.Filter),
		written: make(map[string]int64),
	}
}

// Backend returns the backend generators may query during generation.
func (bp *Blueprint) Backend() backend.Backend { return bp.be }

// Items returns the items in declaration order.
func (bp *Blueprint) Items() []*Item { return bp.items }

// Item returns the named item.
func (bp *Blueprint) Item(name string) (*Item, bool) {
	it, ok := bp.index[name]
	return it, ok
}

// Fixtures returns the declared fixtures in declaration order.
func (bp *Blueprint) Fixtures() []*Fixture { return bp.fixtures }

// Written reports how many rows of each item have been written so far.
func (bp *Blueprint) Written() map[string]int64 {
	out := make(map[string]int64, len(bp.written))
	for name, n := range bp.written {
		out[name] = n
	}
	return out
}

// AddVar binds a blueprint variable. Nested declaration dicts flatten to
// plain maps, so expressions can walk into them.
func (bp *Blueprint) AddVar(name string, value any) {
	bp.Vars[name] = plainValue(value)
}

// AddItem declares an item from its blueprint description, validating the
// declaration and wiring inheritance. Redeclaring an existing name
// overrides it in place, the way blueprint files loaded on top of each
// other refine items.
func (bp *Blueprint) AddItem(desc any) error {
	d, ok := desc.(*Dict)
	if !ok {
		return errs.Validationf("A blueprint item must be a dict, not a '%s'", TypeName(desc))
	}

	var extra []string
	for _, key := range d.Keys() {
		if !slices.Contains(itemKeys, key) {
			extra = append(extra, key)
		}
	}
	if len(extra) > 0 {
		return errs.Validationf("Unknown key(s) '%s'. Possible keys are '%s'.",
			strings.Join(extra, ", "), strings.Join(itemKeys, ", "))
	}

	name := dictString(d, "name")
	parentName := dictString(d, "parent")

	if name != "" {
		if _, exists := bp.index[name]; exists {
			// this item already exists, so this declaration overrides it
			if _, hasParent := d.Get("parent"); hasParent && parentName != name {
				return errs.Validationf(
					"Re-defining item '%s' while setting '%s' as parent is ambiguous.",
					name, parentName)
			}
			parentName = name
		}
	}

	var parent *Item
	if parentName != "" {
		p, ok := bp.index[parentName]
		if !ok {
			return errs.Validationf("Parent '%s' does not exist.", parentName)
		}
		parent = p
		if name == "" {
			name = parent.Name
		}
	}

	var storeIn *Dict
	if raw, ok := d.Get("store_in"); ok && storeInPresent(raw) {
		si, ok := raw.(*Dict)
		if !ok {
			return errs.Validationf("'store_in' must be a dict, not a '%s'", TypeName(raw))
		}
		storeIn = si
	}

	it, err := newItem(bp, name, dictString(d, "table"), parent, storeIn)
	if err != nil {
		return err
	}

	if raw, ok := d.Get("fields"); ok {
		fields, ok := raw.(*Dict)
		if !ok {
			return errs.Validationf("Fields must be a dict, not a '%s'", TypeName(raw))
		}
		for _, fname := range fields.Keys() {
			attrs, _ := fields.Get(fname)
			if ad, isDict := attrs.(*Dict); isDict {
				genName := ""
				params := make(map[string]any, ad.Len())
				for _, k := range ad.Keys() {
					v, _ := ad.Get(k)
					if k == "generator" {
						genName = dictString(ad, k)
						continue
					}
					params[k] = plainValue(v)
				}
				if err := it.AddField(fname, genName, params); err != nil {
					return err
				}
			} else {
				err := it.AddField(fname, "Value", map[string]any{"value": plainValue(attrs)})
				if err != nil {
					return err
				}
			}
		}
	}

	if raw, ok := d.Get("count"); ok && raw != nil {
		switch c := raw.(type) {
		case int, int64:
			n, _ := toInt64(raw)
			if err := it.AddCount(n, nil, nil, nil); err != nil {
				return err
			}
		case *Dict:
			var extra []string
			for _, key := range c.Keys() {
				if !slices.Contains(countKeys, key) {
					extra = append(extra, key)
				}
			}
			if len(extra) > 0 {
				return errs.Validationf(
					"Unknown key(s) '%s' in count of item '%s'. Possible keys are '%s'.",
					strings.Join(extra, ", "), name, strings.Join(countKeys, ", "))
			}
			number, _ := c.Get("number")
			by, _ := c.Get("by")
			min, _ := c.Get("min")
			max, _ := c.Get("max")
			if err := it.AddCount(number, by, min, max); err != nil {
				return err
			}
		default:
			return errs.Validationf("The count of item '%s' must be an integer or a dict.", name)
		}
	}

	if old, exists := bp.index[name]; exists {
		for i, e := range bp.items {
			if e == old {
				bp.items[i] = it
				break
			}
		}
	} else {
		bp.items = append(bp.items, it)
	}
	bp.index[name] = it
	return nil
}

// storeInPresent mirrors how a store_in declaration counts as given: null,
// false, zero, an empty string or an empty collection all mean absent.
func storeInPresent(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case *Dict:
		return v.Len() > 0
	}
	return expr.Truthy(raw)
}

// AddFixture declares a named singleton row of an item; fields holds the
// preset field values.
func (bp *Blueprint) AddFixture(itemName, name string, fields any) error {
	d, ok := fields.(*Dict)
	if !ok {
		return errs.Validationf("Fixture '%s' must be a dict, not a %s", name, TypeName(fields))
	}
	for _, fx := range bp.fixtures {
		if fx.name == name {
			return errs.Validationf("Fixture '%s' already exists.", name)
		}
	}
	if _, ok := bp.index[itemName]; !ok {
		return errs.Validationf("Fixture '%s': The item '%s' does not exist.", name, itemName)
	}

	fx := &Fixture{bp: bp, item: itemName, name: name}
	for _, fname := range d.Keys() {
		raw, _ := d.Get(fname)
		parsed, err := expr.Parse(plainValue(raw))
		if err != nil {
			return err
		}
		fx.fields = append(fx.fields, fixtureField{name: fname, value: parsed})
	}
	bp.fixtures = append(bp.fixtures, fx)
	return nil
}

// seenFor returns the table's shared filter registry, keyed by the column
// set a unique generator deduplicates over.
func (bp *Blueprint) seenFor(table string) map[string]*bloom.Filter {
	m, ok := bp.seen[table]
	if !ok {
		m = make(map[string]*bloom.Filter)
		bp.seen[table] = m
	}
	return m
}

// Validate checks cross-item references once every declaration has been
// applied. A count 'by' must name a declared item (or an inherited identity
// of one); a typo there would otherwise just produce zero rows.
func (bp *Blueprint) Validate() error {
	known := make(map[string]bool, len(bp.items))
	for _, it := range bp.items {
		known[it.Name] = true
		for _, name := range it.ancestors {
			known[name] = true
		}
	}
	for _, it := range bp.items {
		if by := it.Count.By; by != "" && !known[by] {
			return errs.Validationf("Item '%s' counts by unknown item '%s'.", it.Name, by)
		}
	}
	return nil
}

// Preprocess seeds uniqueness filters from the current database content.
func (bp *Blueprint) Preprocess(ctx context.Context) error {
	for _, it := range bp.items {
		if err := it.Preprocess(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Generate runs the blueprint: top-level items in declaration order (rows
// of by-items are produced as their parent batches land), then fixtures,
// each phase followed by a full drain of the buffer.
func (bp *Blueprint) Generate(ctx context.Context) error {
	if bp.be == nil {
		return errs.Backendf(nil, "generation requires a database backend")
	}
	if err := bp.Preprocess(ctx); err != nil {
		return err
	}

	buf := NewBuffer(bp, defaultBufferSize)

	for _, it := range bp.items {
		if it.Count.By != "" {
			continue
		}
		count, err := it.Count.Value(bp.Vars)
		if err != nil {
			return err
		}
		if err := it.Generate(ctx, buf, count, nil); err != nil {
			return err
		}
	}
	if err := buf.Flush(ctx); err != nil {
		return err
	}

	for _, fx := range bp.fixtures {
		if err := fx.Generate(ctx, buf); err != nil {
			return err
		}
	}
	return buf.Flush(ctx)
}
