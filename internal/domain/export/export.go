package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"ays/internal/domain/sheet"
)

// Download metadata for the full report.
const (
	FileNameCSV     = "full_attendance_report.csv"
	FileNameXLSX    = "full_attendance_report.xlsx"
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	xlsxSheetName   = "Attendance"
)

// Domain errors
var (
	ErrMissingHeader = errors.New("export has no header row")
)

// Writer serializes a table in one download format.
type Writer func(w io.Writer, t sheet.Table) error

// WriteCSV serializes the table as UTF-8 CSV: header row, then one row per record.
// PRE: t.Columns is the store header
// POST: Output parses back to the same records with ParseCSV
func WriteCSV(w io.Writer, t sheet.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.Rows() {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV reads a table written by WriteCSV.
// PRE: r holds CSV with a header row
// POST: Returns records keyed by header name, in file order
func ParseCSV(r io.Reader) (sheet.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return sheet.Table{}, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return sheet.Table{}, ErrMissingHeader
	}
	header := rows[0]
	t := sheet.Table{Columns: header}
	for _, row := range rows[1:] {
		rec := make(sheet.Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

// WriteXLSX serializes the table as a single-sheet workbook.
// PRE: t.Columns is the store header
// POST: Sheet "Attendance" holds the header in row 1 and one record per row below
func WriteXLSX(w io.Writer, t sheet.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	rows := append([][]string{t.Columns}, t.Rows()...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(xlsxSheetName, cell, &values); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// ReadXLSX reads a workbook written by WriteXLSX.
func ReadXLSX(r io.Reader) (sheet.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return sheet.Table{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(xlsxSheetName)
	if err != nil {
		return sheet.Table{}, fmt.Errorf("read xlsx: %w", err)
	}
	if len(rows) == 0 {
		return sheet.Table{}, ErrMissingHeader
	}
	return sheet.TableFromValues(rows), nil
}
