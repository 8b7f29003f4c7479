package sheetstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Fake is an in-memory Client used by tests. It models the store's
// USER_ENTERED semantics closely enough for the record access layer:
// strings beginning with "=" are kept as formulas, appends are atomic and
// land after the last non-empty row, and row deletion shifts later rows up.
type Fake struct {
	mu     sync.Mutex
	order  []string
	sheets map[string][][]any
	ids    map[string]int64
	nextID int64

	// Optional fault injection, keyed by sheet title.
	AppendErr map[string]error
	UpdateErr map[string]error
}

// NewFake returns an empty fake spreadsheet.
func NewFake() *Fake {
	return &Fake{
		sheets: make(map[string][][]any),
		ids:    make(map[string]int64),
	}
}

// Seed replaces the contents of a sheet, creating it if needed.
func (f *Fake) Seed(title string, rows [][]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensure(title)
	cp := make([][]any, len(rows))
	for i, r := range rows {
		cp[i] = append([]any(nil), r...)
	}
	f.sheets[title] = cp
}

// Rows returns a copy of a sheet's raw rows for assertions.
func (f *Fake) Rows(title string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.sheets[title]
	cp := make([][]any, len(rows))
	for i, r := range rows {
		cp[i] = append([]any(nil), r...)
	}
	return cp
}

func (f *Fake) ensure(title string) {
	if _, ok := f.sheets[title]; !ok {
		f.sheets[title] = nil
		f.order = append(f.order, title)
		f.ids[title] = f.nextID
		f.nextID++
	}
}

func (f *Fake) Grid(_ context.Context, sheetName string) ([][]Cell, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.sheets[sheetName]
	if !ok {
		return nil, fmt.Errorf("%q: %w", sheetName, ErrSheetNotFound)
	}
	grid := make([][]Cell, len(rows))
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, v := range row {
			cells[j] = toCell(v)
		}
		grid[i] = cells
	}
	return grid, nil
}

func toCell(v any) Cell {
	switch t := v.(type) {
	case nil:
		return Cell{}
	case string:
		if t == "" {
			return Cell{}
		}
		if strings.HasPrefix(t, "=") {
			return Cell{Formula: &t}
		}
		return Cell{String: &t}
	case float64:
		return Cell{Number: &t}
	case int:
		n := float64(t)
		return Cell{Number: &n}
	case int64:
		n := float64(t)
		return Cell{Number: &n}
	case bool:
		return Cell{Bool: &t}
	default:
		s := fmt.Sprint(t)
		return Cell{String: &s}
	}
}

func (f *Fake) Values(_ context.Context, rng string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	title, startRow, startCol, endRow, endCol, err := parseA1(rng)
	if err != nil {
		return nil, err
	}
	rows, ok := f.sheets[title]
	if !ok {
		return nil, fmt.Errorf("%q: %w", title, ErrSheetNotFound)
	}

	var out [][]string
	for i := startRow; i < len(rows) && (endRow < 0 || i <= endRow); i++ {
		row := rows[i]
		var vals []string
		for j := startCol; j < len(row) && (endCol < 0 || j <= endCol); j++ {
			vals = append(vals, valueString(row[j]))
		}
		out = append(out, vals)
	}
	// Trailing fully-empty rows are not reported by the store.
	for len(out) > 0 && rowEmpty(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out, nil
}

func rowEmpty(vals []string) bool {
	for _, v := range vals {
		if v != "" {
			return false
		}
	}
	return true
}

func valueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func (f *Fake) Update(_ context.Context, rng string, values [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	title, startRow, startCol, _, _, err := parseA1(rng)
	if err != nil {
		return err
	}
	if err, ok := f.UpdateErr[title]; ok && err != nil {
		return err
	}
	if _, ok := f.sheets[title]; !ok {
		return fmt.Errorf("%q: %w", title, ErrSheetNotFound)
	}
	f.writeAt(title, startRow, startCol, values)
	return nil
}

func (f *Fake) Append(_ context.Context, rng string, values [][]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	title, _, startCol, _, _, err := parseA1(rng)
	if err != nil {
		return err
	}
	if err, ok := f.AppendErr[title]; ok && err != nil {
		return err
	}
	rows, ok := f.sheets[title]
	if !ok {
		return fmt.Errorf("%q: %w", title, ErrSheetNotFound)
	}
	next := 0
	for i, row := range rows {
		for _, v := range row {
			if valueString(v) != "" {
				next = i + 1
				break
			}
		}
	}
	f.writeAt(title, next, startCol, values)
	return nil
}

func (f *Fake) writeAt(title string, row, col int, values [][]any) {
	rows := f.sheets[title]
	for i, vals := range values {
		r := row + i
		for len(rows) <= r {
			rows = append(rows, nil)
		}
		for j, v := range vals {
			c := col + j
			for len(rows[r]) <= c {
				rows[r] = append(rows[r], nil)
			}
			rows[r][c] = v
		}
	}
	f.sheets[title] = rows
}

func (f *Fake) BatchUpdate(ctx context.Context, updates []ValueUpdate) error {
	for _, u := range updates {
		if err := f.Update(ctx, u.Range, u.Values); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fake) SheetTitles(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...), nil
}

func (f *Fake) SheetID(_ context.Context, title string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.ids[title]
	if !ok {
		return 0, fmt.Errorf("%q: %w", title, ErrSheetNotFound)
	}
	return id, nil
}

func (f *Fake) AddSheet(_ context.Context, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensure(title)
	return nil
}

func (f *Fake) DeleteRows(_ context.Context, sheetID int64, start, end int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for title, id := range f.ids {
		if id != sheetID {
			continue
		}
		rows := f.sheets[title]
		if start < 0 || start >= int64(len(rows)) {
			return fmt.Errorf("delete rows %d..%d out of range", start, end)
		}
		if end > int64(len(rows)) {
			end = int64(len(rows))
		}
		f.sheets[title] = append(rows[:start], rows[end:]...)
		return nil
	}
	return fmt.Errorf("sheet id %d: %w", sheetID, ErrSheetNotFound)
}

// parseA1 splits "Title!A4:O10" into its parts. Row/column bounds are
// 0-indexed; -1 means unbounded. Sheet titles are not quoted, matching how
// the service composes ranges.
func parseA1(rng string) (title string, startRow, startCol, endRow, endCol int, err error) {
	idx := strings.LastIndex(rng, "!")
	if idx < 0 {
		return "", 0, 0, 0, 0, fmt.Errorf("range %q missing sheet title", rng)
	}
	title = rng[:idx]
	ref := rng[idx+1:]

	parts := strings.SplitN(ref, ":", 2)
	startCol, startRow, err = parseCellRef(parts[0])
	if err != nil {
		return "", 0, 0, 0, 0, fmt.Errorf("range %q: %w", rng, err)
	}
	if len(parts) == 2 {
		endCol, endRow, err = parseCellRef(parts[1])
		if err != nil {
			return "", 0, 0, 0, 0, fmt.Errorf("range %q: %w", rng, err)
		}
	} else {
		// Single cell: bounds collapse to that cell.
		endRow, endCol = startRow, startCol
	}
	if startRow < 0 {
		startRow = 0
	}
	return title, startRow, startCol, endRow, endCol, nil
}

func parseCellRef(ref string) (col, row int, err error) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		i++
	}
	if i == 0 {
		return 0, 0, fmt.Errorf("cell ref %q missing column", ref)
	}
	col = 0
	for _, ch := range ref[:i] {
		col = col*26 + int(ch-'A'+1)
	}
	col--
	row = -1
	if i < len(ref) {
		n, err := strconv.Atoi(ref[i:])
		if err != nil {
			return 0, 0, fmt.Errorf("cell ref %q: %w", ref, err)
		}
		row = n - 1
	}
	return col, row, nil
}
