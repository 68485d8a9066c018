package email

import (
	"bytes"
	"fmt"
	"html/template"

	"ays/internal/domain/participant"
)

// RegistrationSubject is the subject line of the registration confirmation.
const RegistrationSubject = "Your attendance registration"

var registrationTmpl = template.Must(template.New("registration").Parse(
	`<p>Hi {{.Name}},</p>
<p>You are registered for attendance tracking as <strong>{{.Email}}</strong> from {{.RegistrationDate.Format "2006-01-02"}}.</p>
<p>Pick this address on the attendance page each day you attend.</p>`))

// RegistrationConfirmation builds the message sent to a newly registered participant.
// PRE: p.Validate() == nil
func RegistrationConfirmation(p participant.Participant) (SendRequest, error) {
	var buf bytes.Buffer
	if err := registrationTmpl.Execute(&buf, p); err != nil {
		return SendRequest{}, fmt.Errorf("render registration email: %w", err)
	}
	return SendRequest{
		To:      []string{p.Email},
		Subject: RegistrationSubject,
		HTML:    buf.String(),
	}, nil
}
