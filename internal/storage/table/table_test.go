package table_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/socialops/internal/database"
	"github.com/vadim/socialops/internal/storage/table"
)

func stores(t *testing.T) map[string]table.Store {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewSQLite(ctx, filepath.Join(t.TempDir(), "socialops.db"))
	require.NoError(t, err)
	lite, err := table.NewSQLite(ctx, db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lite.Close() })

	return map[string]table.Store{
		"memory": table.NewMemory(),
		"sqlite": lite,
	}
}

func TestTableContract(t *testing.T) {
	header := []string{"id", "name", "status"}

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			tab, err := store.Open(ctx, "Queue", header)
			require.NoError(t, err)

			got, err := tab.Header(ctx)
			require.NoError(t, err)
			assert.Equal(t, header, got)

			rows, err := tab.Rows(ctx)
			require.NoError(t, err)
			assert.Empty(t, rows)

			n, err := tab.Append(ctx, []string{"1", "first", "Draft"})
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			n, err = tab.Append(ctx, []string{"2", "second"})
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			require.NoError(t, tab.UpdateCells(ctx, 3, map[int]string{2: "Approved", 4: "extra"}))

			row, err := tab.Row(ctx, 3)
			require.NoError(t, err)
			assert.Equal(t, []string{"2", "second", "Approved", "", "extra"}, row)

			row, err = tab.Row(ctx, 99)
			require.NoError(t, err)
			assert.Nil(t, row)

			_, err = tab.Row(ctx, 1)
			assert.ErrorIs(t, err, table.ErrInvalidRow)

			rows, err = tab.Rows(ctx)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, "first", rows[0][1])

			// reopening keeps existing rows and header
			again, err := store.Open(ctx, "Queue", header)
			require.NoError(t, err)
			rows, err = again.Rows(ctx)
			require.NoError(t, err)
			assert.Len(t, rows, 2)

			// tabs are independent
			other, err := store.Open(ctx, "Analytics", []string{"post_id"})
			require.NoError(t, err)
			n, err = other.Append(ctx, []string{"at://x"})
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		})
	}
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", table.ColumnLetter(0))
	assert.Equal(t, "N", table.ColumnLetter(13))
	assert.Equal(t, "Z", table.ColumnLetter(25))
	assert.Equal(t, "AA", table.ColumnLetter(26))
	assert.Equal(t, "AZ", table.ColumnLetter(51))
	assert.Equal(t, "BA", table.ColumnLetter(52))
}

func TestRanges(t *testing.T) {
	assert.Equal(t, "'Queue'!J5", table.CellRange("Queue", 9, 5))
	assert.Equal(t, "'Queue'!5:5", table.RowRange("Queue", 5))
	assert.Equal(t, "'Bob''s tab'", table.QuoteTab("Bob's tab"))
}

func TestUpdatedRow(t *testing.T) {
	n, err := table.UpdatedRow("'Queue'!A5:N5")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = table.UpdatedRow("Analytics!A120:I120")
	require.NoError(t, err)
	assert.Equal(t, 120, n)

	_, err = table.UpdatedRow("garbage")
	assert.Error(t, err)
}

func TestColumnIndex(t *testing.T) {
	idx := table.ColumnIndex([]string{"a", "b", "a"})
	assert.Equal(t, 0, idx["a"])
	assert.Equal(t, 1, idx["b"])
}
