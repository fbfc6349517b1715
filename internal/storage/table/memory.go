package table

import (
	"context"
	"sync"
)

// Memory keeps tabs in process memory
type Memory struct {
	mu   sync.Mutex
	tabs map[string]*memoryTable
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{tabs: make(map[string]*memoryTable)}
}

func (m *Memory) Open(_ context.Context, name string, header []string) (Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tabs[name]
	if !ok {
		t = &memoryTable{}
		m.tabs[name] = t
	}
	t.mu.Lock()
	if len(t.rows) == 0 {
		t.rows = append(t.rows, clone(header))
	}
	t.mu.Unlock()

	return t, nil
}

func (m *Memory) Close() error { return nil }

type memoryTable struct {
	mu   sync.Mutex
	rows [][]string
}

func (t *memoryTable) Header(_ context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return clone(t.rows[0]), nil
}

func (t *memoryTable) Rows(_ context.Context) ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([][]string, 0, len(t.rows)-1)
	for _, r := range t.rows[1:] {
		out = append(out, clone(r))
	}
	return out, nil
}

func (t *memoryTable) Row(_ context.Context, n int) ([]string, error) {
	if err := checkRow(n); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if n > len(t.rows) || isBlank(t.rows[n-1]) {
		return nil, nil
	}
	return clone(t.rows[n-1]), nil
}

func (t *memoryTable) Append(_ context.Context, cells []string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = append(t.rows, clone(cells))
	return len(t.rows), nil
}

func (t *memoryTable) UpdateCells(_ context.Context, n int, cells map[int]string) error {
	if err := checkRow(n); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for len(t.rows) < n {
		t.rows = append(t.rows, nil)
	}
	row := t.rows[n-1]
	for col, v := range cells {
		row = Pad(row, col+1)
		row[col] = v
	}
	t.rows[n-1] = row
	return nil
}
