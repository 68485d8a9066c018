package participant

import (
	"errors"
	"strings"
	"time"

	"ays/internal/domain/sheet"
)

// Domain errors
var (
	ErrNameRequired  = errors.New("participant name cannot be empty")
	ErrEmailRequired = errors.New("participant email cannot be empty")
	ErrDateRequired  = errors.New("registration date must be set")
)

// Participant is a registered attendee. Email identifies the participant,
// but uniqueness is not enforced by the store.
type Participant struct {
	Name             string
	Email            string
	PhoneNumber      string
	RegistrationDate time.Time
}

// Validate checks if the Participant has valid data.
// PRE: Participant struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Name and Email are non-blank; phone is free-form
func (p *Participant) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(p.Email) == "" {
		return ErrEmailRequired
	}
	if p.RegistrationDate.IsZero() {
		return ErrDateRequired
	}
	return nil
}

// Row returns the participant as a sheet row: Name, Email, Date, Phone.
func (p *Participant) Row() []string {
	return []string{p.Name, p.Email, sheet.FormatDate(p.RegistrationDate), p.PhoneNumber}
}

// KnownEmails extracts participant emails from the Email column values.
// The first cell is the header and is skipped; blank cells are dropped.
// PRE: column holds the raw Email column, header first
// POST: Returns trimmed emails in store order, possibly with repeats
func KnownEmails(column []string) []string {
	if len(column) <= 1 {
		return []string{}
	}
	emails := make([]string, 0, len(column)-1)
	for _, v := range column[1:] {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		emails = append(emails, v)
	}
	return emails
}

// UniqueEmails returns emails with repeats removed, keeping first-seen order.
func UniqueEmails(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
