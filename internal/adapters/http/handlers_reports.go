package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"ays/internal/application/projections"
	"ays/internal/domain/export"
)

// handleReports renders the attendance report (GET /reports).
// PRE: session is logged in
// POST: read-only; an empty sheet renders the "no records" state without charts
func handleReports(w http.ResponseWriter, r *http.Request) {
	if !requirePage(w, r, projections.PathReports) {
		return
	}
	report, err := projections.QueryGetAttendanceReport(r.Context(), projections.GetAttendanceReportQuery{},
		projections.GetAttendanceReportDeps{Sheet: app.Sheet})
	if err != nil {
		storeError(w, r, err)
		return
	}

	data := map[string]any{
		"Title":  "Reports",
		"Report": report,
	}
	if report.Empty {
		data["EmptyMessage"] = msgNoRecords
	} else {
		data["BarChart"] = BarChart(report.Summary)
		data["PieChart"] = PieChart(report.Summary)
	}
	renderTemplate(w, r, "reports.html", data)
}

// handleExportCSV downloads every raw record as CSV (GET /reports/export.csv).
// PRE: session is logged in
// POST: header row is the sheet's column names in sheet order, one row per record
func handleExportCSV(w http.ResponseWriter, r *http.Request) {
	serveExport(w, r, export.FileNameCSV, export.ContentTypeCSV, export.WriteCSV)
}

// handleExportXLSX downloads every raw record as an Excel workbook (GET /reports/export.xlsx).
func handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	serveExport(w, r, export.FileNameXLSX, export.ContentTypeXLSX, export.WriteXLSX)
}

func serveExport(w http.ResponseWriter, r *http.Request, fileName, contentType string, write export.Writer) {
	if !requirePage(w, r, projections.PathReports) {
		return
	}
	tbl, err := app.Sheet.AllRecords(r.Context())
	if err != nil {
		storeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := write(&buf, tbl); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

// handleAdminPerf returns request and store timings as JSON (GET /admin/perf).
// The window query parameter selects the last N minutes (default 60).
// PRE: session is logged in
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if !requirePage(w, r, projections.PathReports) {
		return
	}
	if app.Collector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	window := 60
	if v := r.URL.Query().Get("window"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 24*60 {
			window = n
		}
	}
	snap := app.Collector.Snapshot(timeNow().Add(-time.Duration(window)*time.Minute), 10)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		internalError(w, err)
	}
}
