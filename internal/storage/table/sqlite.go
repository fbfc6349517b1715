package table

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS sheet_rows (
		tab     TEXT    NOT NULL,
		row_num INTEGER NOT NULL,
		cells   TEXT    NOT NULL,
		PRIMARY KEY (tab, row_num)
	)
`

// SQLite keeps every tab in one sheet_rows table with cells encoded as a JSON array
type SQLite struct {
	db *sql.DB
}

// NewSQLite creates the store and its schema
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("creating sheet_rows: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Open(ctx context.Context, name string, header []string) (Table, error) {
	encoded, err := encodeCells(header)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO sheet_rows (tab, row_num, cells) VALUES (?, 1, ?)",
		name, encoded,
	)
	if err != nil {
		return nil, fmt.Errorf("writing header of %s: %w", name, err)
	}
	return &sqliteTable{db: s.db, name: name}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type sqliteTable struct {
	db   *sql.DB
	name string
}

func (t *sqliteTable) scanOne(ctx context.Context, q queryer, n int) ([]string, error) {
	var raw string
	err := q.QueryRowContext(ctx, "SELECT cells FROM sheet_rows WHERE tab = ? AND row_num = ?", t.name, n).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning row %d: %w", n, err)
	}
	return decodeCells(raw)
}

func (t *sqliteTable) Header(ctx context.Context) ([]string, error) {
	return t.scanOne(ctx, t.db, 1)
}

func (t *sqliteTable) Rows(ctx context.Context) ([][]string, error) {
	rows, err := t.db.QueryContext(ctx,
		"SELECT row_num, cells FROM sheet_rows WHERE tab = ? AND row_num >= ? ORDER BY row_num",
		t.name, FirstDataRow,
	)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var n int
		var raw string
		if err := rows.Scan(&n, &raw); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		cells, err := decodeCells(raw)
		if err != nil {
			return nil, err
		}
		for len(out) < n-FirstDataRow {
			out = append(out, nil)
		}
		out = append(out, cells)
	}

	return out, rows.Err()
}

func (t *sqliteTable) Row(ctx context.Context, n int) ([]string, error) {
	if err := checkRow(n); err != nil {
		return nil, err
	}

	cells, err := t.scanOne(ctx, t.db, n)
	if err != nil || isBlank(cells) {
		return nil, err
	}
	return cells, nil
}

func (t *sqliteTable) Append(ctx context.Context, cells []string) (int, error) {
	encoded, err := encodeCells(cells)
	if err != nil {
		return 0, err
	}

	var n int
	err = t.db.QueryRowContext(ctx, `
		INSERT INTO sheet_rows (tab, row_num, cells)
		SELECT ?, COALESCE(MAX(row_num), 1) + 1, ?
		FROM sheet_rows
		WHERE tab = ?
		RETURNING row_num
	`, t.name, encoded, t.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("appending to %s: %w", t.name, err)
	}
	return n, nil
}

func (t *sqliteTable) UpdateCells(ctx context.Context, n int, cells map[int]string) error {
	if err := checkRow(n); err != nil {
		return err
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := t.scanOne(ctx, tx, n)
	if err != nil {
		return err
	}
	for col, v := range cells {
		current = Pad(current, col+1)
		current[col] = v
	}

	encoded, err := encodeCells(current)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sheet_rows (tab, row_num, cells) VALUES (?, ?, ?)
		ON CONFLICT (tab, row_num) DO UPDATE SET cells = excluded.cells
	`, t.name, n, encoded)
	if err != nil {
		return fmt.Errorf("updating row %d of %s: %w", n, t.name, err)
	}

	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func encodeCells(cells []string) (string, error) {
	if cells == nil {
		cells = []string{}
	}
	b, err := json.Marshal(cells)
	if err != nil {
		return "", fmt.Errorf("encoding cells: %w", err)
	}
	return string(b), nil
}

func decodeCells(raw string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, fmt.Errorf("decoding cells: %w", err)
	}
	return cells, nil
}
