package blueprint

import (
	"context"
	"slices"

	"github.com/tomfevang/go-populate-my-db/internal/expr"
	"github.com/tomfevang/go-populate-my-db/internal/logger"
)

// Fixture is a named singleton row: its declared fields are preset, the
// item's remaining fields are generated, and the row is upserted so
// repeated runs converge on one database row instead of stacking copies.
// The finalized row is bound as a blueprint variable under the fixture's
// name, so items can reference it.
type Fixture struct {
	bp     *Blueprint
	item   string
	name   string
	fields []fixtureField
}

type fixtureField struct {
	name  string
	value any
}

// Name returns the fixture's variable name.
func (fx *Fixture) Name() string { return fx.name }

// Item returns the name of the item the fixture instantiates.
func (fx *Fixture) Item() string { return fx.item }

// Generate builds, upserts and publishes the fixture row, then runs the
// normal post-write cascade so stores and dependent items see it.
func (fx *Fixture) Generate(ctx context.Context, buf *Buffer) error {
	logger.Get().Info("generating fixture", "fixture", fx.name, "item", fx.item)

	it := fx.bp.index[fx.item]

	factory := newFactory(ctx, it, nil)
	for _, f := range fx.fields {
		v, err := expr.Eval(f.value, fx.bp.Vars)
		if err != nil {
			return err
		}
		factory.Set(f.name, v)
	}

	fx.bp.Vars["this"] = factory
	row, err := factory.Generate()
	delete(fx.bp.Vars, "this")
	if err != nil {
		return err
	}

	// upsert on the preset fields that are actual columns, so a rerun
	// finds the existing row instead of inserting a twin
	dbFields := it.DBFields()
	var conflict []string
	for _, f := range fx.fields {
		if slices.Contains(dbFields, f.name) {
			conflict = append(conflict, f.name)
		}
	}

	id, err := fx.bp.be.Upsert(ctx, it.Table, dbFields, conflict, it.dbValues(row))
	if err != nil {
		return err
	}
	row.Set("id", id)
	fx.bp.Vars[fx.name] = row

	return it.BatchWritten(ctx, buf, []*Row{row}, []any{id})
}
