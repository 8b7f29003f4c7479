// Package sheetstore wraps the Google Sheets v4 API behind a narrow client
// interface so the record access layer can be exercised against an in-memory
// fake. The spreadsheet is treated as a remote tabular store with
// range-addressed reads and writes; this package adds no caching and no
// locking on top of what the API itself provides.
package sheetstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// ErrSheetNotFound is returned when a named sheet does not exist in the
// spreadsheet.
var ErrSheetNotFound = errors.New("sheet not found")

// Cell is the typed representation of a single grid cell as the store keeps
// it. At most one field is set; a zero Cell is an empty cell.
type Cell struct {
	String  *string
	Number  *float64
	Bool    *bool
	Formula *string
}

// ValueUpdate addresses a single range write inside a batch.
type ValueUpdate struct {
	Range  string
	Values [][]any
}

// Client is the surface the record access layer needs from the tabular
// store. Range strings use A1 notation with the sheet title prefix, e.g.
// "BÁN HÀNG_5_2025!A4:O4".
type Client interface {
	// Grid reads the full typed grid of a sheet (userEnteredValue view).
	Grid(ctx context.Context, sheetName string) ([][]Cell, error)
	// Values reads a range as display strings.
	Values(ctx context.Context, rng string) ([][]string, error)
	// Update writes rows starting at the top-left of rng (USER_ENTERED).
	Update(ctx context.Context, rng string, values [][]any) error
	// Append appends rows after the last data row of the table addressed by
	// rng. The store performs this atomically, so concurrent appends land on
	// distinct rows.
	Append(ctx context.Context, rng string, values [][]any) error
	// BatchUpdate applies several range writes in one call.
	BatchUpdate(ctx context.Context, updates []ValueUpdate) error
	// SheetTitles lists the titles of all sheets in the spreadsheet.
	SheetTitles(ctx context.Context) ([]string, error)
	// SheetID resolves a sheet title to its internal id.
	// Returns ErrSheetNotFound when the title does not exist.
	SheetID(ctx context.Context, title string) (int64, error)
	// AddSheet creates a new empty sheet with the given title.
	AddSheet(ctx context.Context, title string) error
	// DeleteRows removes rows [start, end) (0-indexed) from the sheet,
	// shifting subsequent rows up.
	DeleteRows(ctx context.Context, sheetID int64, start, end int64) error
}

// googleClient is the production Client backed by the Sheets v4 API.
type googleClient struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewGoogleClient builds a Client authenticated as a service account.
func NewGoogleClient(ctx context.Context, clientEmail, privateKey, spreadsheetID string) (Client, error) {
	creds, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"client_email": clientEmail,
		"private_key":  privateKey,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal service account credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(creds),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &googleClient{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (c *googleClient) Grid(ctx context.Context, sheetName string) ([][]Cell, error) {
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Ranges(sheetName+"!A:Z").
		IncludeGridData(true).
		Fields("sheets.data.rowData.values.userEnteredValue").
		Context(ctx).Do()
	if err != nil {
		if isBadRange(err) {
			return nil, fmt.Errorf("%q: %w", sheetName, ErrSheetNotFound)
		}
		return nil, fmt.Errorf("read grid %s: %w", sheetName, err)
	}
	if len(resp.Sheets) == 0 || len(resp.Sheets[0].Data) == 0 {
		return nil, nil
	}

	rowData := resp.Sheets[0].Data[0].RowData
	grid := make([][]Cell, len(rowData))
	for i, row := range rowData {
		cells := make([]Cell, len(row.Values))
		for j, cd := range row.Values {
			if cd == nil || cd.UserEnteredValue == nil {
				continue
			}
			v := cd.UserEnteredValue
			switch {
			case v.StringValue != nil:
				cells[j].String = v.StringValue
			case v.NumberValue != nil:
				cells[j].Number = v.NumberValue
			case v.BoolValue != nil:
				cells[j].Bool = v.BoolValue
			case v.FormulaValue != nil:
				cells[j].Formula = v.FormulaValue
			}
		}
		grid[i] = cells
	}
	return grid, nil
}

func (c *googleClient) Values(ctx context.Context, rng string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		if isBadRange(err) {
			return nil, fmt.Errorf("%q: %w", rng, ErrSheetNotFound)
		}
		return nil, fmt.Errorf("read values %s: %w", rng, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out := make([]string, len(row))
		for j, v := range row {
			out[j] = fmt.Sprint(v)
		}
		rows[i] = out
	}
	return rows, nil
}

// isBadRange reports whether err is the API's response to a range whose
// sheet title does not exist ("Unable to parse range").
func isBadRange(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 400
}

func (c *googleClient) Update(ctx context.Context, rng string, values [][]any) error {
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *googleClient) Append(ctx context.Context, rng string, values [][]any) error {
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", rng, err)
	}
	return nil
}

func (c *googleClient) BatchUpdate(ctx context.Context, updates []ValueUpdate) error {
	data := make([]*sheets.ValueRange, len(updates))
	for i, u := range updates {
		data[i] = &sheets.ValueRange{Range: u.Range, Values: u.Values}
	}
	_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update: %w", err)
	}
	return nil
}

func (c *googleClient) SheetTitles(ctx context.Context) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list sheet titles: %w", err)
	}
	titles := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

func (c *googleClient) SheetID(ctx context.Context, title string) (int64, error) {
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("resolve sheet id: %w", err)
	}
	for _, s := range resp.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", title, ErrSheetNotFound)
}

func (c *googleClient) AddSheet(ctx context.Context, title string) error {
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	return nil
}

func (c *googleClient) DeleteRows(ctx context.Context, sheetID int64, start, end int64) error {
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: start,
					EndIndex:   end,
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete rows %d..%d: %w", start, end, err)
	}
	return nil
}
