package projections

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"ays/internal/domain/sheet"
)

// DefaultRecentLimit is how many raw records the report lists.
const DefaultRecentLimit = 10

// RecordReader defines the store interface needed by the report.
type RecordReader interface {
	AllRecords(ctx context.Context) (sheet.Table, error)
}

// GetAttendanceReportQuery carries query parameters.
type GetAttendanceReportQuery struct {
	RecentLimit int // 0 uses DefaultRecentLimit
}

// SummaryRow is one participant's aggregate.
type SummaryRow struct {
	Email       string
	Name        string
	DaysPresent int
}

// GetAttendanceReportResult carries the query result.
type GetAttendanceReportResult struct {
	Empty          bool
	Columns        []string
	Summary        []SummaryRow
	Recent         []sheet.Record
	TotalRecords   int
	MaxDaysPresent int
}

// GetAttendanceReportDeps holds dependencies for GetAttendanceReport.
type GetAttendanceReportDeps struct {
	Sheet RecordReader
}

// QueryGetAttendanceReport aggregates every record in the sheet.
// PRE: none
// POST: Empty is true iff the sheet has no data rows; otherwise Summary is ordered by email
// and Recent holds at most RecentLimit records, newest date first
func QueryGetAttendanceReport(ctx context.Context, query GetAttendanceReportQuery, deps GetAttendanceReportDeps) (GetAttendanceReportResult, error) {
	tbl, err := deps.Sheet.AllRecords(ctx)
	if err != nil {
		return GetAttendanceReportResult{}, fmt.Errorf("load attendance records: %w", err)
	}
	if tbl.IsEmpty() {
		return GetAttendanceReportResult{Empty: true, Columns: tbl.Columns}, nil
	}

	limit := query.RecentLimit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	summary := Summarize(tbl.Records)
	result := GetAttendanceReportResult{
		Columns:      tbl.Columns,
		Summary:      summary,
		Recent:       RecentRecords(tbl.Records, limit),
		TotalRecords: len(tbl.Records),
	}
	for _, row := range summary {
		result.MaxDaysPresent = max(result.MaxDaysPresent, row.DaysPresent)
	}
	return result, nil
}

// Summarize groups records by trimmed email.
// Name is taken from the first record with that email in store order; DaysPresent counts
// the distinct non-empty dates.
// POST: one row per distinct email, ordered by email ascending
func Summarize(records []sheet.Record) []SummaryRow {
	type agg struct {
		name  string
		dates map[string]struct{}
	}
	byEmail := make(map[string]*agg)
	for _, rec := range records {
		email := strings.TrimSpace(rec[sheet.ColumnEmail])
		a, ok := byEmail[email]
		if !ok {
			a = &agg{name: rec[sheet.ColumnName], dates: make(map[string]struct{})}
			byEmail[email] = a
		}
		if d := strings.TrimSpace(rec[sheet.ColumnDate]); d != "" {
			a.dates[d] = struct{}{}
		}
	}

	rows := make([]SummaryRow, 0, len(byEmail))
	for email, a := range byEmail {
		rows = append(rows, SummaryRow{Email: email, Name: a.name, DaysPresent: len(a.dates)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Email < rows[j].Email })
	return rows
}

// RecentRecords returns the n records with the latest dates.
// Dates in DateLayout order lexically; records with equal dates keep store order.
func RecentRecords(records []sheet.Record, n int) []sheet.Record {
	sorted := slices.Clone(records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i][sheet.ColumnDate] > sorted[j][sheet.ColumnDate]
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
