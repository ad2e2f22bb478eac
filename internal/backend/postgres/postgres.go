// Package postgres implements the storage backend against PostgreSQL,
// speaking pgx. One connection serves a whole generation run, and the run's
// writes happen inside a single transaction.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tomfevang/go-populate-my-db/internal/backend"
	"github.com/tomfevang/go-populate-my-db/internal/errs"
	"github.com/tomfevang/go-populate-my-db/internal/logger"
)

// Options hold the connection parameters. Empty fields are left to pgx,
// which falls back to the usual PG* environment variables and defaults.
type Options struct {
	Host     string
	Port     int
	DB       string
	User     string
	Password string
}

func (o Options) connString() string {
	var parts []string
	add := func(key, value string) {
		if value == "" {
			return
		}
		value = strings.ReplaceAll(value, `\`, `\\`)
		value = strings.ReplaceAll(value, `'`, `\'`)
		parts = append(parts, fmt.Sprintf("%s='%s'", key, value))
	}
	add("host", o.Host)
	if o.Port != 0 {
		add("port", strconv.Itoa(o.Port))
	}
	add("dbname", o.DB)
	add("user", o.User)
	add("password", o.Password)
	return strings.Join(parts, " ")
}

// Backend is a PostgreSQL connection implementing the storage port.
type Backend struct {
	conn *pgx.Conn
	tx   pgx.Tx

	pks    map[string]string
	counts map[string]int64
}

var _ backend.Backend = (*Backend)(nil)

// Connect opens a connection with the given options.
func Connect(ctx context.Context, opts Options) (*Backend, error) {
	conn, err := pgx.Connect(ctx, opts.connString())
	if err != nil {
		return nil, errs.Backendf(err, "Error connecting to Postgresql DB")
	}

	// hstore is an extension type, so its OID is per-database; absence of
	// the extension is fine
	for _, name := range []string{"hstore", "_hstore"} {
		if typ, err := conn.LoadType(ctx, name); err == nil {
			conn.TypeMap().RegisterType(typ)
		}
	}

	logger.Get().Debug("connected", "host", opts.Host, "db", opts.DB)
	return &Backend{
		conn:   conn,
		pks:    make(map[string]string),
		counts: make(map[string]int64),
	}, nil
}

// querier is satisfied by both the bare connection and an open transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (b *Backend) q() querier {
	if b.tx != nil {
		return b.tx
	}
	return b.conn
}

// Transaction runs fn inside one transaction. Operations issued from fn go
// through the transaction; a nested call reuses the open one.
func (b *Backend) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if b.tx != nil {
		return fn(ctx)
	}
	tx, err := b.conn.Begin(ctx)
	if err != nil {
		return errs.Backendf(err, "Error starting transaction")
	}
	b.tx = tx
	defer func() { b.tx = nil }()

	if err := fn(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errs.Backendf(err, "Error committing transaction")
	}
	return nil
}

// Write inserts rows in one multi-row statement and returns the assigned
// primary keys in row order.
func (b *Backend) Write(ctx context.Context, table string, columns []string, rows [][]any) ([]any, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	pk, err := b.PrimaryKey(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return b.writeDefaults(ctx, table, pk, len(rows))
	}

	var sb strings.Builder
	args := make([]any, 0, len(rows)*len(columns))
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", quoteIdent(table), quoteList(columns))
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				sb.WriteByte(',')
			}
			args = append(args, v)
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(len(args)))
		}
		sb.WriteByte(')')
	}
	fmt.Fprintf(&sb, " RETURNING %s", quoteIdent(pk))

	res, err := b.q().Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, errs.Backendf(err, "Error during the generation of '%s'", table)
	}
	defer res.Close()

	ids := make([]any, 0, len(rows))
	for res.Next() {
		var id any
		if err := res.Scan(&id); err != nil {
			return nil, errs.Backendf(err, "Error during the generation of '%s'", table)
		}
		ids = append(ids, id)
	}
	if err := res.Err(); err != nil {
		return nil, errs.Backendf(err, "Error during the generation of '%s'", table)
	}
	logger.Get().Debug("wrote batch", "table", table, "rows", len(rows))
	return ids, nil
}

// writeDefaults covers items with no database columns at all, which still
// need their rows and ids.
func (b *Backend) writeDefaults(ctx context.Context, table, pk string, n int) ([]any, error) {
	sql := fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", quoteIdent(table), quoteIdent(pk))
	ids := make([]any, 0, n)
	for range n {
		var id any
		if err := b.q().QueryRow(ctx, sql).Scan(&id); err != nil {
			return nil, errs.Backendf(err, "Error during the generation of '%s'", table)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Upsert inserts one row, falling back to an update when the conflict
// columns collide, and returns the row's primary key either way.
func (b *Backend) Upsert(ctx context.Context, table string, columns []string, conflict []string, row []any) (any, error) {
	pk, err := b.PrimaryKey(ctx, table)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES (", quoteIdent(table), quoteList(columns))
	for i := range row {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('$')
		sb.WriteString(strconv.Itoa(i + 1))
	}
	sb.WriteByte(')')

	if len(conflict) > 0 {
		// the update must assign something, or RETURNING yields no row on
		// a conflict
		updates := make([]string, 0, len(columns))
		for _, c := range columns {
			if !slices.Contains(conflict, c) {
				updates = append(updates, assignExcluded(c))
			}
		}
		if len(updates) == 0 {
			updates = append(updates, assignExcluded(conflict[0]))
		}
		fmt.Fprintf(&sb, " ON CONFLICT (%s) DO UPDATE SET %s", quoteList(conflict), strings.Join(updates, ", "))
	}
	fmt.Fprintf(&sb, " RETURNING %s", quoteIdent(pk))

	var id any
	if err := b.q().QueryRow(ctx, sb.String(), row...).Scan(&id); err != nil {
		return nil, errs.Backendf(err, "Error upserting into '%s'", table)
	}
	return id, nil
}

// Select streams every row of the given columns. pgx reads rows off the
// wire incrementally, so large tables stay within bounded memory.
func (b *Backend) Select(ctx context.Context, table string, columns []string) (backend.Rows, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s", quoteList(columns), quoteIdent(table))
	rows, err := b.q().Query(ctx, sql)
	if err != nil {
		return nil, errs.Backendf(err, "Error selecting from '%s'", table)
	}
	return &pgxRows{rows: rows}, nil
}

// SelectRandom samples up to max rows matching the optional where clause,
// trading exactness for a single cheap scan.
func (b *Backend) SelectRandom(ctx context.Context, table string, columns []string, where string, max int) ([][]any, error) {
	count, err := b.Count(ctx, table, where)
	if err != nil {
		return nil, err
	}
	if count == 0 || max <= 0 {
		return nil, nil
	}
	frac := float64(max) / float64(count)
	if frac > 1 {
		frac = 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s WHERE random() < %s",
		quoteList(columns), quoteIdent(table), strconv.FormatFloat(frac, 'f', -1, 64))
	if where != "" {
		fmt.Fprintf(&sb, " AND (%s)", where)
	}
	fmt.Fprintf(&sb, " LIMIT %d", max)

	rows, err := b.q().Query(ctx, sb.String())
	if err != nil {
		return nil, errs.Backendf(err, "Error sampling '%s'", table)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, errs.Backendf(err, "Error sampling '%s'", table)
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Backendf(err, "Error sampling '%s'", table)
	}
	return out, nil
}

// Count returns the number of rows matching the optional where clause. The
// result is cached, since sampling asks repeatedly for the same table.
func (b *Backend) Count(ctx context.Context, table string, where string) (int64, error) {
	key := table + "\x00" + where
	if n, ok := b.counts[key]; ok {
		return n, nil
	}

	sql := "SELECT count(*) FROM " + quoteIdent(table)
	if where != "" {
		sql += " WHERE " + where
	}
	var n int64
	if err := b.q().QueryRow(ctx, sql).Scan(&n); err != nil {
		return 0, errs.Backendf(err, "Error counting rows of '%s'", table)
	}
	b.counts[key] = n
	return n, nil
}

// PrimaryKey returns the primary key column of table. The blueprint's 'id'
// field is a logical name; the actual column comes from the catalog.
func (b *Backend) PrimaryKey(ctx context.Context, table string) (string, error) {
	if pk, ok := b.pks[table]; ok {
		return pk, nil
	}

	const sql = `
		SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		WHERE i.indrelid = $1::regclass AND i.indisprimary
		ORDER BY a.attnum
		LIMIT 1`
	var pk string
	if err := b.q().QueryRow(ctx, sql, table).Scan(&pk); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errs.Backendf(nil, "Table '%s' has no primary key", table)
		}
		return "", errs.Backendf(err, "Error finding the primary key of '%s'", table)
	}
	b.pks[table] = pk
	return pk, nil
}

// JSONValue encodes v as JSON text, which binds to json and jsonb columns.
func (b *Backend) JSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errs.Backendf(err, "Error encoding a JSON value")
	}
	return string(data), nil
}

// Close releases the connection. Idempotent.
func (b *Backend) Close(ctx context.Context) error {
	if b.conn == nil {
		return nil
	}
	conn := b.conn
	b.conn = nil
	return conn.Close(ctx)
}

type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Values() ([]any, error) { return r.rows.Values() }
func (r *pgxRows) Err() error             { return r.rows.Err() }
func (r *pgxRows) Close()                 { r.rows.Close() }

// quoteIdent quotes an identifier, keeping schema qualifications intact.
func quoteIdent(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func quoteList(columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

func assignExcluded(column string) string {
	q := quoteIdent(column)
	return fmt.Sprintf("%s = EXCLUDED.%s", q, q)
}
