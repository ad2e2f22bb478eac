package blueprint

import (
	"context"

	"github.com/tomfevang/go-populate-my-db/internal/errs"
)

// Factory builds rows for one generation loop. Field values are produced
// lazily on first access and cached until Clear, so a field referencing a
// sibling through 'this' gets the same value the row ends up carrying,
// whichever of the two is pulled first.
type Factory struct {
	ctx    context.Context
	item   *Item
	parent *Row
	byName string
	cache  map[string]any
}

func newFactory(ctx context.Context, item *Item, parent *Row) *Factory {
	return &Factory{
		ctx:    ctx,
		item:   item,
		parent: parent,
		byName: item.Count.By,
		cache:  make(map[string]any),
	}
}

// Set presets a field value, the way fixtures pin fields before
// generating the rest.
func (f *Factory) Set(name string, value any) {
	f.cache[name] = value
}

// Attr returns the named field's value for the row under construction,
// generating and caching it on first access. The parent row answers to
// the count's by name.
func (f *Factory) Attr(name string) (any, error) {
	if v, ok := f.cache[name]; ok {
		return v, nil
	}
	if f.parent != nil && name == f.byName {
		return f.parent, nil
	}
	if idx, ok := f.item.fieldIdx[name]; ok {
		v, err := f.item.fields[idx].Gen.Next(f.ctx, f.item.bp.Vars)
		if err != nil {
			return nil, err
		}
		f.cache[name] = v
		return v, nil
	}
	return nil, errs.Generationf("'%s' object has no attribute '%s'", f.item.Name, name)
}

// Generate pulls every field through Attr and assembles the row.
func (f *Factory) Generate() (*Row, error) {
	shape := f.item.shape()
	values := make([]any, len(shape.fields))
	for i, name := range shape.fields {
		v, err := f.Attr(name)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return &Row{shape: shape, values: values}, nil
}

// Clear drops the cached values, keeping only the parent binding.
func (f *Factory) Clear() {
	clear(f.cache)
}
