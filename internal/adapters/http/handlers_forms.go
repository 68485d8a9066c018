package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ays/internal/application/orchestrators"
	"ays/internal/application/projections"
	"ays/internal/domain/sheet"
)

// formDate parses the date field, defaulting to today when it is empty.
func formDate(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.PostFormValue("date"))
	if raw == "" {
		return sheet.FormatDate(sheet.Today(timeNow())), nil
	}
	d, err := sheet.ParseDate(raw)
	if err != nil {
		return raw, err
	}
	return sheet.FormatDate(d), nil
}

// handleRegister serves the self-registration form (GET|POST /register).
// PRE: session is logged out
// POST: a valid submission appends one participant row and re-renders a cleared form
func handleRegister(w http.ResponseWriter, r *http.Request) {
	if !requirePage(w, r, projections.PathRegister) {
		return
	}
	today := sheet.FormatDate(sheet.Today(timeNow()))
	form := map[string]string{"Name": "", "Email": "", "Phone": "", "Date": today}

	if r.Method == http.MethodGet {
		renderTemplate(w, r, "registration.html", map[string]any{"Title": "Registration", "Form": form})
		return
	}

	form["Name"] = r.PostFormValue("name")
	form["Email"] = r.PostFormValue("email")
	form["Phone"] = r.PostFormValue("phone")
	date, dateErr := formDate(r)
	form["Date"] = date
	if dateErr != nil {
		renderTemplateStatus(w, r, http.StatusUnprocessableEntity, "registration.html", map[string]any{
			"Title": "Registration", "Form": form, "Error": msgInvalidDate,
		})
		return
	}
	parsed, _ := sheet.ParseDate(date)

	p, err := orchestrators.ExecuteRegisterParticipant(r.Context(), orchestrators.RegisterParticipantInput{
		Name:  form["Name"],
		Email: form["Email"],
		Phone: form["Phone"],
		Date:  parsed,
	}, orchestrators.RegisterParticipantDeps{Sheet: app.Sheet, Mailer: app.Mailer})
	switch {
	case errors.Is(err, orchestrators.ErrNameAndEmailRequired):
		renderTemplateStatus(w, r, http.StatusUnprocessableEntity, "registration.html", map[string]any{
			"Title": "Registration", "Form": form, "Error": msgNameAndEmail,
		})
		return
	case err != nil:
		storeError(w, r, err)
		return
	}

	renderTemplate(w, r, "registration.html", map[string]any{
		"Title":   "Registration",
		"Form":    map[string]string{"Name": "", "Email": "", "Phone": "", "Date": today},
		"Success": "Registration was successful " + p.Name,
	})
}

// handleAttendance serves the attendance form (GET|POST /attendance).
// PRE: session is logged out
// POST: a valid submission appends one attendance row for a registered email
func handleAttendance(w http.ResponseWriter, r *http.Request) {
	if !requirePage(w, r, projections.PathAttendance) {
		return
	}
	ctx := r.Context()
	emails, err := projections.QueryListParticipantEmails(ctx, projections.ListParticipantEmailsDeps{Sheet: app.Sheet})
	if err != nil {
		storeError(w, r, err)
		return
	}
	data := map[string]any{
		"Title":    "User Attendance",
		"Emails":   emails,
		"Selected": "",
		"Date":     sheet.FormatDate(sheet.Today(timeNow())),
	}

	if r.Method == http.MethodGet {
		renderTemplate(w, r, "attendance.html", data)
		return
	}

	selected := r.PostFormValue("email")
	data["Selected"] = selected
	date, dateErr := formDate(r)
	data["Date"] = date
	if dateErr != nil {
		data["Error"] = msgInvalidDate
		renderTemplateStatus(w, r, http.StatusUnprocessableEntity, "attendance.html", data)
		return
	}
	parsed, _ := sheet.ParseDate(date)

	_, err = orchestrators.ExecuteRecordAttendance(ctx, orchestrators.RecordAttendanceInput{
		Email: selected,
		Date:  parsed,
	}, orchestrators.RecordAttendanceDeps{Sheet: app.Sheet, DuplicatePolicy: app.DuplicatePolicy})

	var msg string
	switch {
	case errors.Is(err, orchestrators.ErrEmailRequired):
		msg = msgSelectEmail
	case errors.Is(err, orchestrators.ErrUnknownParticipant):
		msg = msgUnknownEmail
	case errors.Is(err, orchestrators.ErrDuplicateAttendance):
		msg = fmt.Sprintf("Attendance for %s on %s is already recorded.", strings.TrimSpace(selected), date)
	case err != nil:
		storeError(w, r, err)
		return
	}
	if msg != "" {
		data["Error"] = msg
		renderTemplateStatus(w, r, http.StatusUnprocessableEntity, "attendance.html", data)
		return
	}

	data["Success"] = msgAttendanceOK
	renderTemplate(w, r, "attendance.html", data)
}
