package web

import (
	"io/fs"
	"net/http"
)

// registerRoutes maps every page and download to its handler.
func registerRoutes(mux *http.ServeMux) {
	static, _ := fs.Sub(assets, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	mux.HandleFunc("GET /{$}", handleHome)
	mux.HandleFunc("POST /logout", handleLogout)

	mux.HandleFunc("GET /register", handleRegister)
	mux.HandleFunc("POST /register", handleRegister)
	mux.HandleFunc("GET /attendance", handleAttendance)
	mux.HandleFunc("POST /attendance", handleAttendance)

	mux.HandleFunc("GET /reports", handleReports)
	mux.HandleFunc("GET /reports/export.csv", handleExportCSV)
	mux.HandleFunc("GET /reports/export.xlsx", handleExportXLSX)

	mux.HandleFunc("GET /admin/perf", handleAdminPerf)
}
