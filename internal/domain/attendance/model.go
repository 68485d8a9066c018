package attendance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ays/internal/domain/sheet"
)

// Duplicate handling for the same (Email, Date).
const (
	DuplicateAllow  = "allow"
	DuplicateReject = "reject"
)

// Domain errors
var (
	ErrEmailRequired = errors.New("attendance must name a participant email")
	ErrDateRequired  = errors.New("attendance date must be set")
	ErrUnknownPolicy = errors.New("duplicate policy must be 'allow' or 'reject'")
)

// Attendance marks a participant present on a calendar date.
type Attendance struct {
	Email string
	Date  time.Time
}

// Validate checks if the Attendance has valid data.
// PRE: Attendance struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Email must not be blank, Date must be set
func (a *Attendance) Validate() error {
	if strings.TrimSpace(a.Email) == "" {
		return ErrEmailRequired
	}
	if a.Date.IsZero() {
		return ErrDateRequired
	}
	return nil
}

// Row returns the attendance as a sheet row. Only Email and Date are filled.
func (a *Attendance) Row() []string {
	return []string{"", a.Email, sheet.FormatDate(a.Date), ""}
}

// DateString returns the Date column value.
func (a *Attendance) DateString() string {
	return sheet.FormatDate(a.Date)
}

// AlreadyRecorded reports whether any data row in values has the same Email and Date.
// Cells are compared with surrounding whitespace removed.
// PRE: values holds raw rows with the header first
// POST: Returns true on the first match
func (a *Attendance) AlreadyRecorded(values [][]string) bool {
	if len(values) <= 1 {
		return false
	}
	date := a.DateString()
	for _, row := range values[1:] {
		if len(row) < sheet.ColDate {
			continue
		}
		if strings.TrimSpace(row[sheet.ColEmail-1]) == a.Email && strings.TrimSpace(row[sheet.ColDate-1]) == date {
			return true
		}
	}
	return false
}

// ParsePolicy normalises a duplicate policy setting. Empty means allow.
func ParsePolicy(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", DuplicateAllow:
		return DuplicateAllow, nil
	case DuplicateReject:
		return DuplicateReject, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}
