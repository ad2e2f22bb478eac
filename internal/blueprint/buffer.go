package blueprint

import (
	"context"
)

// defaultBufferSize is how many rows of one item accumulate before a write.
const defaultBufferSize = 1000

// Buffer batches generated rows per item and writes a batch as soon as it
// is full. Writes cascade: a written batch may generate dependent rows
// into other queues, so Flush keeps sweeping until everything has drained.
type Buffer struct {
	bp     *Blueprint
	size   int
	queues map[string][]*Row
}

// NewBuffer returns a buffer batching up to size rows per item; a size of
// zero or less falls back to the default.
func NewBuffer(bp *Blueprint, size int) *Buffer {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Buffer{
		bp:     bp,
		size:   size,
		queues: make(map[string][]*Row, len(bp.items)),
	}
}

// Add enqueues a row, writing the item's batch once it reaches capacity.
func (b *Buffer) Add(ctx context.Context, item *Item, row *Row) error {
	q := append(b.queues[item.Name], row)
	b.queues[item.Name] = q
	if len(q) >= b.size {
		return b.WriteItem(ctx, item)
	}
	return nil
}

// WriteItem writes the item's pending rows, if any, and runs the
// post-write cascade through the item.
func (b *Buffer) WriteItem(ctx context.Context, item *Item) error {
	rows := b.queues[item.Name]
	if len(rows) == 0 {
		return nil
	}
	// detach before writing: the cascade may enqueue rows for this same
	// item, and those must not vanish with the written batch
	b.queues[item.Name] = nil

	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = item.dbValues(row)
	}
	ids, err := b.bp.be.Write(ctx, item.Table, item.DBFields(), values)
	if err != nil {
		return err
	}
	return item.BatchWritten(ctx, b, rows, ids)
}

// Flush drains every queue, sweeping in item declaration order until the
// cascades settle.
func (b *Buffer) Flush(ctx context.Context) error {
	for {
		pending := false
		for _, item := range b.bp.items {
			if len(b.queues[item.Name]) == 0 {
				continue
			}
			pending = true
			if err := b.WriteItem(ctx, item); err != nil {
				return err
			}
		}
		if !pending {
			return nil
		}
	}
}
