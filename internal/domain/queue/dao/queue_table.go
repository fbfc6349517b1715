package dao

import (
	"context"
	"fmt"

	"github.com/vadim/socialops/internal/domain/queue/entity"
	"github.com/vadim/socialops/internal/storage/table"
)

// QueueTable implements QueueRepository on top of a row table
type QueueTable struct {
	tab table.Table
}

// NewQueueTable opens (or creates) the queue tab
func NewQueueTable(ctx context.Context, store table.Store, name string) (*QueueTable, error) {
	tab, err := store.Open(ctx, name, entity.Header)
	if err != nil {
		return nil, fmt.Errorf("opening queue tab: %w", err)
	}
	return &QueueTable{tab: tab}, nil
}

func (r *QueueTable) List(ctx context.Context) ([]entity.QueueItem, error) {
	rows, err := r.tab.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading queue: %w", err)
	}

	items := make([]entity.QueueItem, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		item := entity.FromRow(row)
		item.Row = i + table.FirstDataRow
		items = append(items, item)
	}
	return items, nil
}

func (r *QueueTable) Get(ctx context.Context, row int) (*entity.QueueItem, error) {
	if row < table.FirstDataRow {
		return nil, entity.ErrInvalidRow
	}

	cells, err := r.tab.Row(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("reading queue row %d: %w", row, err)
	}
	if cells == nil {
		return nil, nil
	}

	item := entity.FromRow(cells)
	item.Row = row
	return &item, nil
}

func (r *QueueTable) Append(ctx context.Context, item *entity.QueueItem) (int, error) {
	row, err := r.tab.Append(ctx, item.ToRow())
	if err != nil {
		return 0, fmt.Errorf("appending queue item: %w", err)
	}
	return row, nil
}

func (r *QueueTable) Update(ctx context.Context, row int, fields map[string]string) error {
	if row < table.FirstDataRow {
		return entity.ErrInvalidRow
	}

	header, err := r.tab.Header(ctx)
	if err != nil {
		return fmt.Errorf("reading queue header: %w", err)
	}
	idx := table.ColumnIndex(header)

	cells := make(map[int]string, len(fields))
	for name, v := range fields {
		if col, ok := idx[name]; ok {
			cells[col] = v
		}
	}

	if err := r.tab.UpdateCells(ctx, row, cells); err != nil {
		return fmt.Errorf("updating queue row %d: %w", row, err)
	}
	return nil
}
