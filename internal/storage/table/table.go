// Package table stores spreadsheet-like tabs: ordered rows of string cells
// addressed by 1-based row number, with the header in row 1.
package table

import (
	"context"
	"errors"
)

// FirstDataRow is the row number of the first row after the header
const FirstDataRow = 2

var ErrInvalidRow = errors.New("row number must be 2 or greater")

// Table is a single tab
type Table interface {
	// Header returns row 1
	Header(ctx context.Context) ([]string, error)

	// Rows returns every row after the header; element i is row i+FirstDataRow
	Rows(ctx context.Context) ([][]string, error)

	// Row returns one row, or nil when the row is empty or past the end
	Row(ctx context.Context, n int) ([]string, error)

	// Append adds a row at the end and returns its row number
	Append(ctx context.Context, cells []string) (int, error)

	// UpdateCells overwrites cells of row n keyed by 0-based column index
	UpdateCells(ctx context.Context, n int, cells map[int]string) error
}

// Store opens tabs by name, creating a missing tab with the given header
type Store interface {
	Open(ctx context.Context, name string, header []string) (Table, error)
	Close() error
}

// ColumnIndex maps header names to 0-based column indexes
func ColumnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return idx
}

// Pad extends cells with empty strings up to n columns
func Pad(cells []string, n int) []string {
	for len(cells) < n {
		cells = append(cells, "")
	}
	return cells
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func clone(cells []string) []string {
	out := make([]string, len(cells))
	copy(out, cells)
	return out
}

func checkRow(n int) error {
	if n < FirstDataRow {
		return ErrInvalidRow
	}
	return nil
}
