// Package backend defines the storage port driven by the generation
// engine. Implementations live in subpackages; the engine only sees
// tables, column names and positional values.
package backend

import "context"

// Backend is the storage port. All generation writes happen inside a
// single Transaction; the remaining operations are issued by the engine
// and by generators that sample existing data.
type Backend interface {
	// Transaction runs fn inside one transaction, committing on a nil
	// return and rolling back otherwise.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Write inserts rows into table and returns the assigned primary
	// keys in row order.
	Write(ctx context.Context, table string, columns []string, rows [][]any) ([]any, error)

	// Upsert inserts a single row, updating it instead when the conflict
	// columns collide with an existing one, and returns its primary key.
	Upsert(ctx context.Context, table string, columns []string, conflict []string, row []any) (any, error)

	// Select streams every row of the given columns.
	Select(ctx context.Context, table string, columns []string) (Rows, error)

	// SelectRandom samples up to max rows matching the optional where
	// clause.
	SelectRandom(ctx context.Context, table string, columns []string, where string, max int) ([][]any, error)

	// Count returns the number of rows matching the optional where
	// clause. Results are cached per (table, where).
	Count(ctx context.Context, table string, where string) (int64, error)

	// PrimaryKey returns the primary key column of table (cached).
	PrimaryKey(ctx context.Context, table string) (string, error)

	// JSONValue adapts v into a parameter-safe JSON value.
	JSONValue(v any) (any, error)

	// Close releases the connection. Idempotent.
	Close(ctx context.Context) error
}

// Rows is a streaming row iterator in the style of database result sets:
// call Next until it returns false, read each row with Values, then check
// Err. Close releases the underlying cursor and may be called early.
type Rows interface {
	Next() bool
	Values() ([]any, error)
	Err() error
	Close()
}
