package dao

import (
	"context"

	"github.com/vadim/socialops/internal/domain/queue/entity"
)

// QueueRepository defines access to the content queue tab
type QueueRepository interface {
	// List returns every queue item in row order, each carrying its row number
	List(ctx context.Context) ([]entity.QueueItem, error)

	// Get returns the item at row, or nil when the row is empty
	Get(ctx context.Context, row int) (*entity.QueueItem, error)

	// Append adds an item at the end and returns its row number
	Append(ctx context.Context, item *entity.QueueItem) (int, error)

	// Update overwrites cells of row by column name; unknown names are ignored
	Update(ctx context.Context, row int, fields map[string]string) error
}
