package table

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS sheet_rows (
		tab     TEXT    NOT NULL,
		row_num INTEGER NOT NULL,
		cells   TEXT[]  NOT NULL,
		PRIMARY KEY (tab, row_num)
	)
`

// Postgres keeps every tab in one sheet_rows table
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates the store and its schema
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("creating sheet_rows: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Open(ctx context.Context, name string, header []string) (Table, error) {
	query := `
		INSERT INTO sheet_rows (tab, row_num, cells)
		VALUES ($1, 1, $2)
		ON CONFLICT (tab, row_num) DO NOTHING
	`
	if _, err := p.pool.Exec(ctx, query, name, header); err != nil {
		return nil, fmt.Errorf("writing header of %s: %w", name, err)
	}
	return &postgresTable{pool: p.pool, name: name}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

type postgresTable struct {
	pool *pgxpool.Pool
	name string
}

func (t *postgresTable) Header(ctx context.Context) ([]string, error) {
	var cells []string
	err := t.pool.QueryRow(ctx, "SELECT cells FROM sheet_rows WHERE tab = $1 AND row_num = 1", t.name).Scan(&cells)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning header: %w", err)
	}
	return cells, nil
}

func (t *postgresTable) Rows(ctx context.Context) ([][]string, error) {
	query := `
		SELECT row_num, cells
		FROM sheet_rows
		WHERE tab = $1 AND row_num >= $2
		ORDER BY row_num
	`

	rows, err := t.pool.Query(ctx, query, t.name, FirstDataRow)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var n int
		var cells []string
		if err := rows.Scan(&n, &cells); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		// keep positions aligned with row numbers
		for len(out) < n-FirstDataRow {
			out = append(out, nil)
		}
		out = append(out, cells)
	}

	return out, rows.Err()
}

func (t *postgresTable) Row(ctx context.Context, n int) ([]string, error) {
	if err := checkRow(n); err != nil {
		return nil, err
	}

	var cells []string
	err := t.pool.QueryRow(ctx, "SELECT cells FROM sheet_rows WHERE tab = $1 AND row_num = $2", t.name, n).Scan(&cells)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning row %d: %w", n, err)
	}
	if isBlank(cells) {
		return nil, nil
	}
	return cells, nil
}

func (t *postgresTable) Append(ctx context.Context, cells []string) (int, error) {
	var n int
	err := pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", t.name); err != nil {
			return fmt.Errorf("locking tab: %w", err)
		}

		query := `
			INSERT INTO sheet_rows (tab, row_num, cells)
			SELECT $1, COALESCE(MAX(row_num), 1) + 1, $2
			FROM sheet_rows
			WHERE tab = $1
			RETURNING row_num
		`
		return tx.QueryRow(ctx, query, t.name, cells).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("appending to %s: %w", t.name, err)
	}
	return n, nil
}

func (t *postgresTable) UpdateCells(ctx context.Context, n int, cells map[int]string) error {
	if err := checkRow(n); err != nil {
		return err
	}

	err := pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		var current []string
		err := tx.QueryRow(ctx,
			"SELECT cells FROM sheet_rows WHERE tab = $1 AND row_num = $2 FOR UPDATE",
			t.name, n,
		).Scan(&current)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("scanning row: %w", err)
		}

		for col, v := range cells {
			current = Pad(current, col+1)
			current[col] = v
		}

		query := `
			INSERT INTO sheet_rows (tab, row_num, cells)
			VALUES ($1, $2, $3)
			ON CONFLICT (tab, row_num) DO UPDATE SET cells = EXCLUDED.cells
		`
		_, err = tx.Exec(ctx, query, t.name, n, current)
		return err
	})
	if err != nil {
		return fmt.Errorf("updating row %d of %s: %w", n, t.name, err)
	}
	return nil
}
