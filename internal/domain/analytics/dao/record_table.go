package dao

import (
	"context"
	"fmt"

	"github.com/vadim/socialops/internal/domain/analytics/entity"
	"github.com/vadim/socialops/internal/storage/table"
)

// RecordTable implements RecordRepository on top of a row table
type RecordTable struct {
	tab table.Table
}

// NewRecordTable opens (or creates) the analytics tab
func NewRecordTable(ctx context.Context, store table.Store, name string) (*RecordTable, error) {
	tab, err := store.Open(ctx, name, entity.Header)
	if err != nil {
		return nil, fmt.Errorf("opening analytics tab: %w", err)
	}
	return &RecordTable{tab: tab}, nil
}

func (r *RecordTable) List(ctx context.Context) ([]entity.Record, error) {
	rows, err := r.tab.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading analytics: %w", err)
	}

	records := make([]entity.Record, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		rec := entity.FromRow(row)
		rec.Row = i + table.FirstDataRow
		records = append(records, rec)
	}
	return records, nil
}

func (r *RecordTable) Upsert(ctx context.Context, rec *entity.Record) (bool, error) {
	records, err := r.List(ctx)
	if err != nil {
		return false, err
	}

	for _, existing := range records {
		if existing.Key() != rec.Key() {
			continue
		}
		if err := r.tab.UpdateCells(ctx, existing.Row, rec.MetricCells()); err != nil {
			return false, fmt.Errorf("updating analytics row %d: %w", existing.Row, err)
		}
		rec.Row = existing.Row
		return false, nil
	}

	row, err := r.tab.Append(ctx, rec.ToRow())
	if err != nil {
		return false, fmt.Errorf("appending analytics record: %w", err)
	}
	rec.Row = row
	return true, nil
}
