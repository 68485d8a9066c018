package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"ays/internal/adapters/http/middleware"
	"ays/internal/application/projections"
	"ays/internal/domain/session"
)

//go:embed templates/*.html static/*
var assets embed.FS

// timeNow is a variable for testability.
var timeNow = time.Now

// Messages shown to users.
const (
	msgStoreUnavailable = "The attendance sheet is unavailable right now."
	msgNameAndEmail     = "Please enter both name and email."
	msgSelectEmail      = "Please select an email."
	msgUnknownEmail     = "That email is not registered. Please register first."
	msgInvalidDate      = "Please enter a valid date."
	msgAttendanceOK     = "Attendance recorded successfully!"
	msgNoRecords        = "No attendance records found."
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// renderMarkdown converts Markdown to HTML, falling back to escaped text.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// storeError logs a spreadsheet failure and renders the friendly unavailable page.
func storeError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("store_error", "path", r.URL.Path, "error", err.Error())
	renderTemplateStatus(w, r, http.StatusServiceUnavailable, "error.html", map[string]any{
		"Title":   "Unavailable",
		"Message": msgStoreUnavailable,
	})
}

// currentSession returns the request's session. Sessions middleware always provides one;
// a bare session is used when a handler runs without it.
func currentSession(r *http.Request) *session.Session {
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		return sess
	}
	s := session.New("ephemeral", timeNow())
	return &s
}

// navigationFor builds the sidebar for the request's session.
func navigationFor(r *http.Request) projections.Navigation {
	sess := currentSession(r)
	return projections.QueryGetNavigation(projections.GetNavigationQuery{
		LoggedIn:    sess.LoggedIn(),
		DisplayName: sess.User.DisplayName(""),
		CurrentPath: r.URL.Path,
	})
}

// requirePage redirects to / when path is not exposed in the session's state.
// POST: returns true if the handler may continue
func requirePage(w http.ResponseWriter, r *http.Request, path string) bool {
	if navigationFor(r).Exposes(path) {
		return true
	}
	http.Redirect(w, r, projections.PathHome, http.StatusSeeOther)
	return false
}

// renderTemplate renders a page inside the layout with status 200.
func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

// renderTemplateStatus renders a page inside the layout. The session's flash is consumed here.
// The page is rendered to a buffer first so a template error never leaves a half-written body.
func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	sess := currentSession(r)
	nav := navigationFor(r)
	flash := sess.TakeFlash()
	notice := ""
	if app != nil {
		notice = app.Notice
	}

	funcMap := template.FuncMap{
		"nav":            func() projections.Navigation { return nav },
		"flash":          func() session.Flash { return flash },
		"isLoggedIn":     func() bool { return nav.LoggedIn },
		"csrfToken":      func() string { return csrf.Token(r) },
		"notice":         func() string { return notice },
		"renderMarkdown": renderMarkdown,
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(assets,
		"templates/layout.html",
		"templates/"+templateName,
	)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
