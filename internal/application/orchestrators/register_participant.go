package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ays/internal/adapters/email"
	"ays/internal/domain/participant"
)

// DefaultMailTimeout bounds the confirmation send.
const DefaultMailTimeout = 5 * time.Second

// ErrNameAndEmailRequired is returned when name or email is blank.
var ErrNameAndEmailRequired = errors.New("name and email are required")

// SheetAppender defines the store interface needed to add a row.
type SheetAppender interface {
	AppendRow(ctx context.Context, row []string) error
}

// RegisterParticipantInput carries input for the orchestrator.
type RegisterParticipantInput struct {
	Name  string `validate:"notblank"`
	Email string `validate:"notblank"`
	Phone string
	Date  time.Time
}

// RegisterParticipantDeps holds dependencies for RegisterParticipant.
type RegisterParticipantDeps struct {
	Sheet       SheetAppender
	Mailer      email.Sender  // optional
	MailTimeout time.Duration // 0 selects DefaultMailTimeout
}

// ExecuteRegisterParticipant appends a participant row.
// PRE: none; input is trimmed before validation
// POST: on success exactly one row [name, email, date, phone] is appended; on validation
// failure nothing is written
// INVARIANT: duplicate emails are not checked
func ExecuteRegisterParticipant(ctx context.Context, input RegisterParticipantInput, deps RegisterParticipantDeps) (participant.Participant, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)

	if err := validate.Struct(input); err != nil {
		return participant.Participant{}, ErrNameAndEmailRequired
	}

	p := participant.Participant{
		Name:             input.Name,
		Email:            input.Email,
		PhoneNumber:      input.Phone,
		RegistrationDate: input.Date,
	}
	if err := p.Validate(); err != nil {
		return participant.Participant{}, err
	}

	if err := deps.Sheet.AppendRow(ctx, p.Row()); err != nil {
		return participant.Participant{}, fmt.Errorf("register participant: %w", err)
	}
	slog.Info("registration_event", "event", "participant_registered", "email", p.Email, "date", p.Row()[2])

	if deps.Mailer != nil {
		timeout := deps.MailTimeout
		if timeout <= 0 {
			timeout = DefaultMailTimeout
		}
		sendConfirmation(ctx, deps.Mailer, p, timeout)
	}
	return p, nil
}

// sendConfirmation mails the participant; failures are logged only.
func sendConfirmation(ctx context.Context, mailer email.Sender, p participant.Participant, timeout time.Duration) {
	req, err := email.RegistrationConfirmation(p)
	if err != nil {
		slog.Error("registration_event", "event", "confirmation_render_failed", "email", p.Email, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := mailer.Send(ctx, req); err != nil {
		slog.Warn("registration_event", "event", "confirmation_failed", "email", p.Email, "error", err)
	}
}
