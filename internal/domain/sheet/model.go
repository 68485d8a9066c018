package sheet

import (
	"errors"
	"time"
)

// DateLayout is the calendar-date format written to the Date column.
const DateLayout = "2006-01-02"

// Column names, in sheet order.
const (
	ColumnName  = "Name"
	ColumnEmail = "Email"
	ColumnDate  = "Date"
	ColumnPhone = "Phone"
)

// 1-based column positions.
const (
	ColName  = 1
	ColEmail = 2
	ColDate  = 3
	ColPhone = 4
)

// Columns is the header row of the attendance tab.
var Columns = []string{ColumnName, ColumnEmail, ColumnDate, ColumnPhone}

// ErrColumnOutOfRange is returned for column positions outside 1..len(Columns).
var ErrColumnOutOfRange = errors.New("column index out of range")

// Record is one data row keyed by header name.
type Record map[string]string

// Table is a header row plus the records under it, in store order.
type Table struct {
	Columns []string
	Records []Record
}

// IsEmpty reports whether the table holds no data rows.
func (t Table) IsEmpty() bool {
	return len(t.Records) == 0
}

// Rows returns the records as positional rows following t.Columns.
// POST: len(result) == len(t.Records), each row has len(t.Columns) cells
func (t Table) Rows() [][]string {
	rows := make([][]string, 0, len(t.Records))
	for _, rec := range t.Records {
		rows = append(rows, rec.Values(t.Columns))
	}
	return rows
}

// Values returns the record's cells in the given column order; missing keys are empty.
func (r Record) Values(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = r[c]
	}
	return out
}

// TableFromValues turns raw sheet values (header row first) into a Table.
// Short rows are padded with empty cells; fully blank rows are skipped.
// PRE: values may be empty
// POST: Columns is the first row, Records holds every non-blank row after it
func TableFromValues(values [][]string) Table {
	if len(values) == 0 {
		return Table{Columns: append([]string(nil), Columns...)}
	}
	header := values[0]
	t := Table{Columns: append([]string(nil), header...)}
	for _, row := range values[1:] {
		if isBlank(row) {
			continue
		}
		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		t.Records = append(t.Records, rec)
	}
	return t
}

// FormatDate renders a calendar date for the Date column.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// ParseDate parses a Date column value.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Today returns now truncated to its calendar date.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
