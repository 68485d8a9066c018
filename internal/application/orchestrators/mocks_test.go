package orchestrators

import (
	"context"
	"errors"
	"time"

	"ays/internal/adapters/email"
	"ays/internal/domain/session"
	"ays/internal/domain/sheet"
)

var fixedDate = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

// mockSheet is an in-memory spreadsheet tab; the first row is the header.
type mockSheet struct {
	rows      [][]string
	err       error // returned by every read
	appendErr error
	appends   int
}

func newMockSheet(rows ...[]string) *mockSheet {
	return &mockSheet{rows: append([][]string{sheet.Columns}, rows...)}
}

// ColumnValues implements AttendanceSheet.
func (m *mockSheet) ColumnValues(_ context.Context, col int) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r[col-1])
	}
	return out, nil
}

// AllValues implements AttendanceSheet.
func (m *mockSheet) AllValues(_ context.Context) ([][]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

// AppendRow implements SheetAppender.
func (m *mockSheet) AppendRow(_ context.Context, row []string) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appends++
	m.rows = append(m.rows, row)
	return nil
}

// mockProvider implements IdentityProvider.
type mockProvider struct {
	profile   session.Profile
	err       error
	exchanged []string
}

func (m *mockProvider) AuthCodeURL(state string) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (m *mockProvider) Exchange(_ context.Context, code string) (session.Profile, error) {
	m.exchanged = append(m.exchanged, code)
	return m.profile, m.err
}

// mockMailer records sends.
type mockMailer struct {
	sent []email.SendRequest
	err  error
}

func (m *mockMailer) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	m.sent = append(m.sent, req)
	return email.SendResult{MessageID: "m-1"}, m.err
}

var errSheetDown = errors.New("sheet down")
