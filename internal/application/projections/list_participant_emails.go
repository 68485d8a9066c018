package projections

import (
	"context"
	"fmt"

	"ays/internal/domain/participant"
	"ays/internal/domain/sheet"
)

// ColumnReader defines the store interface needed to read one column.
type ColumnReader interface {
	ColumnValues(ctx context.Context, col int) ([]string, error)
}

// ListParticipantEmailsDeps holds dependencies for ListParticipantEmails.
type ListParticipantEmailsDeps struct {
	Sheet ColumnReader
}

// QueryListParticipantEmails returns the emails offered on the attendance form.
// PRE: none
// POST: header and blank cells are dropped; each email appears once, in first-seen order
func QueryListParticipantEmails(ctx context.Context, deps ListParticipantEmailsDeps) ([]string, error) {
	column, err := deps.Sheet.ColumnValues(ctx, sheet.ColEmail)
	if err != nil {
		return nil, fmt.Errorf("load participant emails: %w", err)
	}
	return participant.UniqueEmails(participant.KnownEmails(column)), nil
}
