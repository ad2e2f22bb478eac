package blueprint

import (
	"context"
	"strings"

	"github.com/tomfevang/go-populate-my-db/internal/bloom"
	"github.com/tomfevang/go-populate-my-db/internal/errs"
	"github.com/tomfevang/go-populate-my-db/internal/expr"
	"github.com/tomfevang/go-populate-my-db/internal/generator"
	"github.com/tomfevang/go-populate-my-db/internal/logger"
)

// itemKeys are the keys an item declaration accepts.
var itemKeys = []string{"name", "parent", "table", "count", "fields", "store_in"}

// Field is one declared field: the generator producing its values plus the
// declaration it was built from, kept so a child item can merge overrides
// into an inherited field.
type Field struct {
	Name      string
	Generator string
	Params    map[string]any
	Gen       generator.Generator
}

// storeBinding appends an expression's value to a global storage variable.
type storeBinding struct {
	name  string
	value any
}

// itemBinding appends an expression's value to a store list held by a
// related row: target resolves a this.<item>.<field> path to the list.
type itemBinding struct {
	target expr.Expression
	value  any
}

// Item is one row family of a blueprint: a table, ordered fields, a count
// and optional storage bindings.
type Item struct {
	bp    *Blueprint
	Name  string
	Table string
	Count *Count

	fields   []*Field
	fieldIdx map[string]int

	storeIn     *Dict
	storeGlobal []storeBinding
	storeItem   []itemBinding

	ancestors []string

	shapeCache *rowShape
	dbCache    []string
	dbPos      []int
}

// newItem builds an item, inheriting table, storage bindings, fields and
// count from the parent when one is given. The id field always comes
// first, as a shadow placeholder the database write fills in.
func newItem(bp *Blueprint, name, table string, parent *Item, storeIn *Dict) (*Item, error) {
	if parent != nil {
		if table == "" {
			table = parent.Table
		}
		if storeIn == nil {
			storeIn = parent.storeIn
		}
	}

	if name == "" {
		return nil, errs.Validationf("Items without a parent must have a name.")
	}
	if table == "" {
		return nil, errs.Validationf("Item '%s' does not have a table.", name)
	}

	it := &Item{
		bp:       bp,
		Name:     name,
		Table:    table,
		Count:    &Count{item: name, Number: int64(0)},
		fieldIdx: make(map[string]int),
		storeIn:  storeIn,
	}
	if err := it.parseStoreIn(storeIn); err != nil {
		return nil, err
	}

	if err := it.AddField("id", "Value", map[string]any{"value": nil, "shadow": true}); err != nil {
		return nil, err
	}

	if parent != nil {
		for _, f := range parent.fields {
			if err := it.AddField(f.Name, f.Generator, deepCopyParams(f.Params)); err != nil {
				return nil, err
			}
		}
		it.Count = parent.Count.withItem(name)

		it.ancestors = append(it.ancestors, parent.ancestors...)
		if parent.Count.staticallyZero() {
			// the parent itself will never reach the buffer, so rows of
			// this item answer for the parent's identity when children
			// counting by it fan out
			it.ancestors = append(it.ancestors, parent.Name)
		}
	}
	return it, nil
}

func (c *Count) withItem(item string) *Count {
	d := *c
	d.item = item
	return &d
}

// parseStoreIn splits storage bindings into global ones (plain variable
// names) and item-scoped ones (this.<item>.<field> paths). Global storage
// variables are pre-created as empty lists; item-scoped targets gain a
// Store field holding a per-row list.
func (it *Item) parseStoreIn(storeIn *Dict) error {
	if storeIn == nil {
		return nil
	}
	for _, name := range storeIn.Keys() {
		raw, _ := storeIn.Get(name)
		value, err := expr.Parse(raw)
		if err != nil {
			return err
		}

		if !strings.HasPrefix(name, "this.") {
			it.storeGlobal = append(it.storeGlobal, storeBinding{name: name, value: value})
			if _, ok := it.bp.Vars[name]; !ok {
				it.bp.Vars[name] = expr.NewList()
			}
			continue
		}

		path := strings.Split(name, ".")
		if len(path) < 3 {
			return errs.Validationf(
				"Error in 'store_in' section in item '%s': '%s' must be of the form 'this.<item>.<field>'.",
				it.Name, name)
		}
		targetName := path[len(path)-2]
		storeName := path[len(path)-1]
		target, ok := it.bp.index[targetName]
		if !ok {
			return errs.Validationf(
				"Error in 'store_in' section in item '%s': The item '%s' does not exist.",
				it.Name, targetName)
		}
		if err := target.AddField(storeName, "Store", nil); err != nil {
			return err
		}
		it.storeItem = append(it.storeItem, itemBinding{target: expr.NewValue(name), value: value})
	}
	return nil
}

// AddField declares a field. An empty generator name merges the params
// into an inherited field of the same name, keeping its generator.
func (it *Item) AddField(name, genName string, params map[string]any) error {
	if params == nil {
		params = map[string]any{}
	}

	if genName == "" {
		idx, ok := it.fieldIdx[name]
		if !ok {
			return errs.Validationf(
				"Field '%s' in item '%s' must either be a value, or a dict with a 'generator' key.",
				name, it.Name)
		}
		inherited := it.fields[idx]
		merged := deepCopyParams(inherited.Params)
		for k, v := range params {
			merged[k] = v
		}
		genName = inherited.Generator
		params = merged
	}

	gen, err := generator.New(&generator.Config{
		Item:      it.Name,
		Field:     name,
		Generator: genName,
		Runtime:   it.bp,
		Params:    params,
	})
	if err != nil {
		return err
	}

	f := &Field{Name: name, Generator: genName, Params: params, Gen: gen}
	if idx, ok := it.fieldIdx[name]; ok {
		it.fields[idx] = f
	} else {
		it.fieldIdx[name] = len(it.fields)
		it.fields = append(it.fields, f)
	}
	it.invalidate()
	return nil
}

// AddCount sets the item's count, merging with the inherited one: by is
// kept unless overridden, a zero or missing number lets the inherited
// number through, and min/max fall back to the inherited range only when
// no number survives the merge.
func (it *Item) AddCount(number, by, min, max any) error {
	var err error
	if number, err = expr.Parse(number); err != nil {
		return err
	}
	if min, err = expr.Parse(min); err != nil {
		return err
	}
	if max, err = expr.Parse(max); err != nil {
		return err
	}

	vals := []struct {
		key string
		v   any
	}{{"number", number}, {"min", min}, {"max", max}}
	for i, kv := range vals {
		if kv.v == nil {
			continue
		}
		if n, ok := toInt64(kv.v); ok {
			if n < 0 {
				return errs.Validationf("Item '%s' count: %s must be positive.", it.Name, kv.key)
			}
			vals[i].v = n
		} else if _, isExpr := kv.v.(expr.Expression); !isExpr {
			return errs.Validationf(
				"Item '%s' count: %s must be an integer or a variable (got: '%s').",
				it.Name, kv.key, TypeName(kv.v))
		}
	}
	number, min, max = vals[0].v, vals[1].v, vals[2].v

	byStr := ""
	if by != nil {
		s, ok := by.(string)
		if !ok {
			return errs.Validationf("Item '%s' count: by must be an item name.", it.Name)
		}
		byStr = s
	}

	cur := it.Count
	if byStr == "" {
		byStr = cur.By
	}
	if min == nil && max == nil {
		if number == nil || number == int64(0) {
			number = cur.Number
		}
	}
	if number == nil {
		if min == nil {
			min = cur.Min
		}
		if max == nil {
			max = cur.Max
		}
	}

	if (min != nil || max != nil) && number != nil {
		return errs.Validationf("Item '%s' count: Cannot set 'number' and 'min/max'.", it.Name)
	}

	if min == nil {
		min = int64(0)
	}
	if max == nil {
		max = int64(0)
	}
	if lo, ok := min.(int64); ok {
		if hi, ok := max.(int64); ok && lo > hi {
			return errs.Validationf("Item '%s' count: Min is greater than max.", it.Name)
		}
	}

	it.Count = &Count{item: it.Name, Number: number, By: byStr, Min: min, Max: max}
	it.invalidate()
	return nil
}

func (it *Item) invalidate() {
	it.shapeCache = nil
	it.dbCache = nil
	it.dbPos = nil
}

// shape returns the row layout, built on first use: every field in
// declaration order, then the parent slot when counting by a parent.
func (it *Item) shape() *rowShape {
	if it.shapeCache == nil {
		fields := make([]string, 0, len(it.fields)+1)
		for _, f := range it.fields {
			fields = append(fields, f.Name)
		}
		if by := it.Count.By; by != "" {
			fields = append(fields, by)
		}
		it.shapeCache = newRowShape(it.Name, fields)
	}
	return it.shapeCache
}

// DBFields returns the non-shadow field names, the columns actually
// written to the table.
func (it *Item) DBFields() []string {
	it.ensureDB()
	return it.dbCache
}

// Fields returns the item's fields in declaration order.
func (it *Item) Fields() []*Field { return it.fields }

func (it *Item) ensureDB() {
	if it.dbPos != nil {
		return
	}
	shape := it.shape()
	it.dbCache = make([]string, 0, len(it.fields))
	it.dbPos = make([]int, 0, len(it.fields))
	for _, f := range it.fields {
		if f.Gen.Shadow() {
			continue
		}
		it.dbCache = append(it.dbCache, f.Name)
		it.dbPos = append(it.dbPos, shape.index[f.Name])
	}
}

// dbValues extracts the database column values from a row.
func (it *Item) dbValues(row *Row) []any {
	it.ensureDB()
	out := make([]any, len(it.dbPos))
	for i, p := range it.dbPos {
		out[i] = row.values[p]
	}
	return out
}

// Preprocess seeds the unique filters with values already in the table, so
// runs against a non-empty database keep their uniqueness guarantees.
// Items writing the same table share filters, and each distinct column set
// is selected only once.
func (it *Item) Preprocess(ctx context.Context) error {
	seenFields := it.bp.seenFor(it.Table)

	type fill struct {
		filter *bloom.Filter
		start  int
		width  int
	}
	var dbFields []string
	var toFill []fill
	for _, f := range it.fields {
		if f.Gen.Shadow() || !f.Gen.Unique() {
			continue
		}
		cols := append([]string{f.Name}, f.Gen.UniqueWith()...)
		key := strings.Join(cols, "\x1f")
		filter, ok := seenFields[key]
		if !ok {
			filter = bloom.New(bloom.DefaultCapacity, bloom.DefaultErrorRate)
			seenFields[key] = filter
			toFill = append(toFill, fill{filter: filter, start: len(dbFields), width: len(cols)})
			dbFields = append(dbFields, cols...)
		}
		f.Gen.SetSeen(filter)
	}

	if len(dbFields) == 0 || it.bp.be == nil {
		return nil
	}

	rows, err := it.bp.be.Select(ctx, it.Table, dbFields)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return err
		}
		for _, fl := range toFill {
			fl.filter.Add(generator.Key(values[fl.start:fl.start+fl.width]...), false)
		}
	}
	return rows.Err()
}

// Generate produces count rows through a fresh factory, storing each row's
// declared values and handing it to the buffer. The factory is exposed as
// 'this' while a row is being built, so fields can reference siblings.
func (it *Item) Generate(ctx context.Context, buf *Buffer, count int, parent *Row) error {
	factory := newFactory(ctx, it, parent)

	for range count {
		it.bp.Vars["this"] = factory
		row, err := factory.Generate()
		delete(it.bp.Vars, "this")
		if err != nil {
			return err
		}

		if err := it.storeValue(row); err != nil {
			return err
		}
		if err := buf.Add(ctx, it, row); err != nil {
			return err
		}
		factory.Clear()
	}
	return nil
}

// storeValue appends the row's stored values. These are provisional: the
// id is still null, so BatchWritten patches the tails once ids exist.
func (it *Item) storeValue(row *Row) error {
	if len(it.storeGlobal) == 0 && len(it.storeItem) == 0 {
		return nil
	}
	it.bp.Vars["this"] = row
	defer delete(it.bp.Vars, "this")

	for _, b := range it.storeGlobal {
		store, err := it.globalStore(b.name)
		if err != nil {
			return err
		}
		v, err := expr.Eval(b.value, it.bp.Vars)
		if err != nil {
			return err
		}
		store.Append(v)
	}
	for _, b := range it.storeItem {
		store, err := it.itemStore(b.target)
		if err != nil {
			return err
		}
		v, err := expr.Eval(b.value, it.bp.Vars)
		if err != nil {
			return err
		}
		store.Append(v)
	}
	return nil
}

func (it *Item) globalStore(name string) (*expr.List, error) {
	store, ok := it.bp.Vars[name].(*expr.List)
	if !ok {
		return nil, errs.Generationf("Item '%s': storage variable '%s' is not a list.", it.Name, name)
	}
	return store, nil
}

func (it *Item) itemStore(target expr.Expression) (*expr.List, error) {
	v, err := target.Evaluate(it.bp.Vars)
	if err != nil {
		return nil, err
	}
	store, ok := v.(*expr.List)
	if !ok {
		return nil, errs.Generationf("Item '%s': '%s' does not resolve to a store field.", it.Name, target)
	}
	return store, nil
}

// BatchWritten finalizes a written batch: the returned ids replace the
// placeholder id fields, storage lists get their tails recomputed against
// the finalized rows, and dependent items fan out per row.
func (it *Item) BatchWritten(ctx context.Context, buf *Buffer, rows []*Row, ids []any) error {
	logger.Get().Info("rows written", "item", it.Name, "table", it.Table, "count", len(rows))
	it.bp.written[it.Name] += int64(len(rows))

	if len(ids) != len(rows) {
		return errs.Backendf(nil, "backend returned %d ids for %d rows of '%s'",
			len(ids), len(rows), it.Name)
	}
	for i, row := range rows {
		row.Set("id", ids[i])
	}

	if err := it.storeFinalValues(rows); err != nil {
		return err
	}
	return it.generateDependencies(ctx, buf, rows)
}

// storeFinalValues recomputes the stored values against the finalized rows
// and overwrites each storage list's tail with them. Item-scoped stores
// are grouped per list instance first, since a batch usually spans several
// parent rows.
func (it *Item) storeFinalValues(rows []*Row) error {
	if len(it.storeGlobal) == 0 && len(it.storeItem) == 0 {
		return nil
	}
	defer delete(it.bp.Vars, "this")

	for _, b := range it.storeGlobal {
		store, err := it.globalStore(b.name)
		if err != nil {
			return err
		}
		values := make([]any, len(rows))
		for i, row := range rows {
			it.bp.Vars["this"] = row
			v, err := expr.Eval(b.value, it.bp.Vars)
			if err != nil {
				return err
			}
			values[i] = v
		}
		store.ReplaceTail(values)
	}

	for _, b := range it.storeItem {
		type group struct {
			store  *expr.List
			values []any
		}
		var groups []*group
		byStore := make(map[*expr.List]*group)
		for _, row := range rows {
			it.bp.Vars["this"] = row
			store, err := it.itemStore(b.target)
			if err != nil {
				return err
			}
			v, err := expr.Eval(b.value, it.bp.Vars)
			if err != nil {
				return err
			}
			g, ok := byStore[store]
			if !ok {
				g = &group{store: store}
				byStore[store] = g
				groups = append(groups, g)
			}
			g.values = append(g.values, v)
		}
		for _, g := range groups {
			g.store.ReplaceTail(g.values)
		}
	}
	return nil
}

// generateDependencies fans out items counting by this item or by any
// identity it inherited. Each child sees its parent row both as a count
// variable and as the factory's parent binding; the child's queue is
// written once the whole batch has fanned out, keeping children grouped
// right after their parents.
func (it *Item) generateDependencies(ctx context.Context, buf *Buffer, rows []*Row) error {
	names := make(map[string]bool, len(it.ancestors)+1)
	for _, name := range it.ancestors {
		names[name] = true
	}
	names[it.Name] = true

	for _, child := range it.bp.items {
		by := child.Count.By
		if by == "" || !names[by] {
			continue
		}
		for _, row := range rows {
			it.bp.Vars[by] = row
			count, err := child.Count.Value(it.bp.Vars)
			if err == nil && count > 0 {
				err = child.Generate(ctx, buf, count, row)
			}
			delete(it.bp.Vars, by)
			if err != nil {
				return err
			}
		}
		if err := buf.WriteItem(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

// Total estimates how many rows this item will produce in a run: its own
// count times the parent's total when counting by a parent. Expression
// counts have no closed form.
func (it *Item) Total() (int64, bool) {
	return it.total(make(map[string]bool))
}

func (it *Item) total(visiting map[string]bool) (int64, bool) {
	if visiting[it.Name] {
		return 0, false
	}
	visiting[it.Name] = true

	per, ok := it.Count.Total()
	if !ok {
		return 0, false
	}
	by := it.Count.By
	if by == "" {
		return per, true
	}
	parent, ok := it.bp.index[by]
	if !ok {
		return 0, false
	}
	parentTotal, ok := parent.total(visiting)
	if !ok {
		return 0, false
	}
	return per * parentTotal, true
}
