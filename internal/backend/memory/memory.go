// Package memory implements an in-process backend for dry runs, previews
// and engine tests. Writes capture rows and hand out sequential ids per
// table; selects of pre-existing data come back empty, while sampling sees
// the rows written during the run.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/tomfevang/go-populate-my-db/internal/backend"
	"github.com/tomfevang/go-populate-my-db/internal/errs"
)

// Table captures everything written to one table during a run.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
	IDs     []int64
}

// Backend collects written rows in memory. It is not safe for concurrent
// use; every preview or dry run gets its own instance.
type Backend struct {
	tables map[string]*Table
	order  []string
	nextID map[string]int64
}

var _ backend.Backend = (*Backend)(nil)

// New returns an empty in-memory backend.
func New() *Backend {
	return &Backend{
		tables: make(map[string]*Table),
		nextID: make(map[string]int64),
	}
}

// Tables returns the captured tables in first-write order.
func (b *Backend) Tables() []*Table {
	out := make([]*Table, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.tables[name])
	}
	return out
}

// Table returns the captured table by name.
func (b *Backend) Table(name string) (*Table, bool) {
	t, ok := b.tables[name]
	return t, ok
}

func (b *Backend) table(name string, columns []string) *Table {
	t, ok := b.tables[name]
	if !ok {
		t = &Table{Name: name, Columns: columns}
		b.tables[name] = t
		b.order = append(b.order, name)
	}
	return t
}

// Transaction runs fn directly; there is nothing to roll back in memory.
func (b *Backend) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Write appends rows and returns their sequential ids.
func (b *Backend) Write(ctx context.Context, table string, columns []string, rows [][]any) ([]any, error) {
	t := b.table(table, columns)
	ids := make([]any, len(rows))
	for i, row := range rows {
		b.nextID[table]++
		id := b.nextID[table]
		t.Rows = append(t.Rows, row)
		t.IDs = append(t.IDs, id)
		ids[i] = id
	}
	return ids, nil
}

// Upsert replaces the first captured row matching the conflict columns,
// appending a new one when nothing matches.
func (b *Backend) Upsert(ctx context.Context, table string, columns []string, conflict []string, row []any) (any, error) {
	t := b.table(table, columns)

	pos := make([]int, 0, len(conflict))
	for _, col := range conflict {
		p, err := t.column(col)
		if err != nil {
			return nil, err
		}
		pos = append(pos, p)
	}

	if len(pos) > 0 {
		for i, existing := range t.Rows {
			match := true
			for _, p := range pos {
				if fmt.Sprint(existing[p]) != fmt.Sprint(row[p]) {
					match = false
					break
				}
			}
			if match {
				t.Rows[i] = row
				return t.IDs[i], nil
			}
		}
	}

	b.nextID[table]++
	id := b.nextID[table]
	t.Rows = append(t.Rows, row)
	t.IDs = append(t.IDs, id)
	return id, nil
}

// Select streams nothing: the in-memory database starts every run empty,
// and preprocessing runs before any write.
func (b *Backend) Select(ctx context.Context, table string, columns []string) (backend.Rows, error) {
	return emptyRows{}, nil
}

// SelectRandom samples up to max of the rows written so far, ignoring the
// where clause (there is no SQL engine to evaluate it).
func (b *Backend) SelectRandom(ctx context.Context, table string, columns []string, where string, max int) ([][]any, error) {
	t, ok := b.tables[table]
	if !ok {
		return nil, nil
	}

	get := make([]func(i int) any, 0, len(columns))
	for _, col := range columns {
		if col == "id" {
			get = append(get, func(i int) any { return t.IDs[i] })
			continue
		}
		p, err := t.column(col)
		if err != nil {
			return nil, err
		}
		get = append(get, func(i int) any { return t.Rows[i][p] })
	}

	idx := rand.Perm(len(t.Rows))
	if max > 0 && len(idx) > max {
		idx = idx[:max]
	}
	out := make([][]any, 0, len(idx))
	for _, i := range idx {
		projected := make([]any, len(get))
		for j, g := range get {
			projected[j] = g(i)
		}
		out = append(out, projected)
	}
	return out, nil
}

// Count returns how many rows have been written to table.
func (b *Backend) Count(ctx context.Context, table string, where string) (int64, error) {
	t, ok := b.tables[table]
	if !ok {
		return 0, nil
	}
	return int64(len(t.Rows)), nil
}

// PrimaryKey reports the id column every in-memory table keys on.
func (b *Backend) PrimaryKey(ctx context.Context, table string) (string, error) {
	return "id", nil
}

// JSONValue encodes v as a JSON string.
func (b *Backend) JSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errs.Backendf(err, "cannot encode value as JSON")
	}
	return string(data), nil
}

// Close is a no-op.
func (b *Backend) Close(ctx context.Context) error { return nil }

func (t *Table) column(name string) (int, error) {
	for i, col := range t.Columns {
		if col == name {
			return i, nil
		}
	}
	return 0, errs.Backendf(nil, "table '%s' has no column '%s'", t.Name, name)
}

type emptyRows struct{}

func (emptyRows) Next() bool             { return false }
func (emptyRows) Values() ([]any, error) { return nil, nil }
func (emptyRows) Err() error             { return nil }
func (emptyRows) Close()                 {}
