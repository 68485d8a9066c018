package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"ays/internal/domain/attendance"
	"ays/internal/domain/participant"
	"ays/internal/domain/sheet"
)

var (
	// ErrEmailRequired is returned when no email was selected.
	ErrEmailRequired = errors.New("an email must be selected")
	// ErrUnknownParticipant is returned for an email that was never registered.
	ErrUnknownParticipant = errors.New("email is not a registered participant")
	// ErrDuplicateAttendance is returned under the reject policy for a repeated (email, date).
	ErrDuplicateAttendance = errors.New("attendance already recorded")
)

// AttendanceSheet defines the store interface needed by RecordAttendance.
type AttendanceSheet interface {
	ColumnValues(ctx context.Context, col int) ([]string, error)
	AllValues(ctx context.Context) ([][]string, error)
	AppendRow(ctx context.Context, row []string) error
}

// RecordAttendanceInput carries input for the orchestrator.
type RecordAttendanceInput struct {
	Email string `validate:"notblank"`
	Date  time.Time
}

// RecordAttendanceDeps holds dependencies for RecordAttendance.
type RecordAttendanceDeps struct {
	Sheet           AttendanceSheet
	DuplicatePolicy string // attendance.DuplicateAllow (default) or DuplicateReject
}

// ExecuteRecordAttendance appends an attendance row for a registered participant.
// PRE: none
// POST: on success exactly one row ["", email, date, ""] is appended
// INVARIANT: the email is one of the participant emails currently in the sheet
func ExecuteRecordAttendance(ctx context.Context, input RecordAttendanceInput, deps RecordAttendanceDeps) (attendance.Attendance, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := validate.Struct(input); err != nil {
		return attendance.Attendance{}, ErrEmailRequired
	}

	a := attendance.Attendance{Email: input.Email, Date: input.Date}
	if err := a.Validate(); err != nil {
		return attendance.Attendance{}, err
	}

	column, err := deps.Sheet.ColumnValues(ctx, sheet.ColEmail)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("load participant emails: %w", err)
	}
	if !slices.Contains(participant.KnownEmails(column), a.Email) {
		slog.Info("attendance_event", "event", "unknown_participant", "email", a.Email)
		return attendance.Attendance{}, ErrUnknownParticipant
	}

	if deps.DuplicatePolicy == attendance.DuplicateReject {
		values, err := deps.Sheet.AllValues(ctx)
		if err != nil {
			return attendance.Attendance{}, fmt.Errorf("load attendance rows: %w", err)
		}
		if a.AlreadyRecorded(values) {
			slog.Info("attendance_event", "event", "duplicate_rejected", "email", a.Email, "date", a.DateString())
			return attendance.Attendance{}, ErrDuplicateAttendance
		}
	}

	if err := deps.Sheet.AppendRow(ctx, a.Row()); err != nil {
		return attendance.Attendance{}, fmt.Errorf("record attendance: %w", err)
	}
	slog.Info("attendance_event", "event", "attendance_recorded", "email", a.Email, "date", a.DateString())
	return a, nil
}
