package blueprint

import (
	"github.com/tomfevang/go-populate-my-db/internal/errs"
)

// rowShape is the positional layout shared by every row of an item: the
// field names in declaration order, plus a trailing slot for the parent row
// when the item counts by a parent. Built once per item, on first use.
type rowShape struct {
	item   string
	fields []string
	index  map[string]int
}

func newRowShape(item string, fields []string) *rowShape {
	index := make(map[string]int, len(fields))
	for i, name := range fields {
		index[name] = i
	}
	return &rowShape{item: item, fields: fields, index: index}
}

// Row is one generated record. Rows travel by reference between the write
// buffer, storage lists and blueprint variables, so patching the id after
// the database write is visible everywhere the row already went.
type Row struct {
	shape  *rowShape
	values []any
}

// Attr resolves a field (or the parent slot) by name, letting expressions
// reach into rows with $var.field paths.
func (r *Row) Attr(name string) (any, error) {
	i, ok := r.shape.index[name]
	if !ok {
		return nil, errs.Generationf("'%s' object has no attribute '%s'", r.shape.item, name)
	}
	return r.values[i], nil
}

// Get returns the named value without the error ceremony of Attr.
func (r *Row) Get(name string) (any, bool) {
	i, ok := r.shape.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Set overwrites the named value in place.
func (r *Row) Set(name string, value any) bool {
	i, ok := r.shape.index[name]
	if !ok {
		return false
	}
	r.values[i] = value
	return true
}

// ItemName returns the name of the item this row belongs to.
func (r *Row) ItemName() string { return r.shape.item }

// Fields returns the row's field names in declaration order.
func (r *Row) Fields() []string { return r.shape.fields }
