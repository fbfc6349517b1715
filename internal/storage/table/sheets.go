package table

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	newTabRows    = 1000
	newTabMinCols = 20
)

// Sheets stores tabs as worksheets of one Google spreadsheet
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string

	mu    sync.Mutex
	ready map[string]bool
}

// NewSheets connects with a service account credentials file, or application default credentials when path is empty
func NewSheets(ctx context.Context, spreadsheetID, credentialsPath string, opts ...option.ClientOption) (*Sheets, error) {
	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &Sheets{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		ready:         make(map[string]bool),
	}, nil
}

// Open returns the worksheet named name, adding it with the header when missing
func (s *Sheets) Open(ctx context.Context, name string, header []string) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &sheetsTable{svc: s.svc, spreadsheetID: s.spreadsheetID, name: name}
	if s.ready[name] {
		return t, nil
	}

	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting spreadsheet: %w", err)
	}

	exists := false
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			exists = true
			break
		}
	}

	if !exists {
		cols := len(header)
		if cols < newTabMinCols {
			cols = newTabMinCols
		}
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: name,
						GridProperties: &sheets.GridProperties{
							RowCount:    newTabRows,
							ColumnCount: int64(cols),
						},
					},
				},
			}},
		}
		if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return nil, fmt.Errorf("adding worksheet %s: %w", name, err)
		}
	}

	current, err := t.Header(ctx)
	if err != nil {
		return nil, err
	}
	if isBlank(current) {
		if _, err := t.Append(ctx, header); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	s.ready[name] = true
	return t, nil
}

func (s *Sheets) Close() error { return nil }

type sheetsTable struct {
	svc           *sheets.Service
	spreadsheetID string
	name          string
}

func (t *sheetsTable) get(ctx context.Context, rng string) ([][]string, error) {
	resp, err := t.svc.Spreadsheets.Values.Get(t.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rng, err)
	}
	return toStrings(resp.Values), nil
}

func (t *sheetsTable) Header(ctx context.Context) ([]string, error) {
	rows, err := t.get(ctx, RowRange(t.name, 1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (t *sheetsTable) Rows(ctx context.Context) ([][]string, error) {
	rows, err := t.get(ctx, QuoteTab(t.name))
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func (t *sheetsTable) Row(ctx context.Context, n int) ([]string, error) {
	if err := checkRow(n); err != nil {
		return nil, err
	}

	rows, err := t.get(ctx, RowRange(t.name, n))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || isBlank(rows[0]) {
		return nil, nil
	}
	return rows[0], nil
}

func (t *sheetsTable) Append(ctx context.Context, cells []string) (int, error) {
	vr := &sheets.ValueRange{Values: [][]interface{}{toInterfaces(cells)}}

	resp, err := t.svc.Spreadsheets.Values.Append(t.spreadsheetID, QuoteTab(t.name)+"!A1", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("appending to %s: %w", t.name, err)
	}
	if resp.Updates == nil {
		return 0, fmt.Errorf("appending to %s: no update range returned", t.name)
	}

	return UpdatedRow(resp.Updates.UpdatedRange)
}

func (t *sheetsTable) UpdateCells(ctx context.Context, n int, cells map[int]string) error {
	if err := checkRow(n); err != nil {
		return err
	}
	if len(cells) == 0 {
		return nil
	}

	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: "RAW"}
	for col, v := range cells {
		req.Data = append(req.Data, &sheets.ValueRange{
			Range:  CellRange(t.name, col, n),
			Values: [][]interface{}{{v}},
		})
	}

	if _, err := t.svc.Spreadsheets.Values.BatchUpdate(t.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("updating row %d of %s: %w", n, t.name, err)
	}
	return nil
}

// QuoteTab quotes a worksheet title for use in A1 notation
func QuoteTab(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// ColumnLetter converts a 0-based column index to its A1 letters: 0 → A, 26 → AA
func ColumnLetter(col int) string {
	var b []byte
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

// CellRange addresses one cell, e.g. 'Queue'!J5
func CellRange(tab string, col, row int) string {
	return fmt.Sprintf("%s!%s%d", QuoteTab(tab), ColumnLetter(col), row)
}

// RowRange addresses a whole row, e.g. 'Queue'!5:5
func RowRange(tab string, row int) string {
	return fmt.Sprintf("%s!%d:%d", QuoteTab(tab), row, row)
}

var updatedRangeRe = regexp.MustCompile(`![A-Z]+(\d+)`)

// UpdatedRow extracts the first row number of an updated range such as 'Queue'!A5:N5
func UpdatedRow(rng string) (int, error) {
	m := updatedRangeRe.FindStringSubmatch(rng)
	if m == nil {
		return 0, fmt.Errorf("parsing updated range %q", rng)
	}
	return strconv.Atoi(m[1])
}

func toStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		out[i] = cells
	}
	return out
}

func toInterfaces(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
