package web

import (
	"net/http"

	"ays/internal/application/orchestrators"
	"ays/internal/application/projections"
)

// handleHome serves / : the login page, the logout page, and the identity provider's callback.
// PRE: none
// POST: a callback (code or error parameter) is completed and redirected to / before anything
// is rendered; otherwise logged-in users see the logout page and others a fresh login link
func handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := currentSession(r)
	q := r.URL.Query()

	if q.Has("code") || q.Has("error") {
		// The outcome is flashed on the session and logged by the orchestrator.
		_ = orchestrators.ExecuteCompleteLogin(ctx, orchestrators.CompleteLoginInput{
			Session:          sess,
			Code:             q.Get("code"),
			State:            q.Get("state"),
			Error:            q.Get("error"),
			ErrorDescription: q.Get("error_description"),
		}, orchestrators.CompleteLoginDeps{Provider: app.Identity})
		http.Redirect(w, r, projections.PathHome, http.StatusSeeOther)
		return
	}

	if sess.LoggedIn() {
		renderTemplate(w, r, "account.html", map[string]any{
			"Title": "Log out",
			"Name":  sess.User.DisplayName("Admin"),
		})
		return
	}

	authURL, err := orchestrators.ExecuteBeginLogin(ctx, orchestrators.BeginLoginInput{Session: sess},
		orchestrators.BeginLoginDeps{Provider: app.Identity})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, "login.html", map[string]any{
		"Title":   "Log in",
		"AuthURL": authURL,
	})
}

// handleLogout clears the login and sends the browser back to a clean /.
// POST: session is back to its fresh-load values
func handleLogout(w http.ResponseWriter, r *http.Request) {
	orchestrators.ExecuteLogout(r.Context(), currentSession(r))
	http.Redirect(w, r, projections.PathHome, http.StatusSeeOther)
}
