package sheet

import (
	"context"
	"errors"

	domain "ays/internal/domain/sheet"
)

// Store is the spreadsheet tab the application reads and appends to.
// Rows are addressed by position; the first row is the header.
type Store interface {
	// ColumnValues returns column col (1-based), header included.
	ColumnValues(ctx context.Context, col int) ([]string, error)
	// AllValues returns every row, header first.
	AllValues(ctx context.Context) ([][]string, error)
	// AllRecords returns the data rows keyed by header name.
	AllRecords(ctx context.Context) (domain.Table, error)
	// AppendRow atomically adds row after the last non-empty row.
	AppendRow(ctx context.Context, row []string) error
}

// ErrRowTooWide is returned when a row has more cells than the tab has columns.
var ErrRowTooWide = errors.New("row has more cells than the sheet has columns")
