package dao

import (
	"context"

	"github.com/vadim/socialops/internal/domain/analytics/entity"
)

// RecordRepository defines access to the analytics tab
type RecordRepository interface {
	// List returns every record in row order
	List(ctx context.Context) ([]entity.Record, error)

	// Upsert updates the counters of the record with the same (platform, post_id)
	// in place, or appends one row. It reports whether a row was appended.
	Upsert(ctx context.Context, rec *entity.Record) (bool, error)
}
