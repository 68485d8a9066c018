package sheet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ays/internal/adapters/storage"
	domain "ays/internal/domain/sheet"
)

// SQLiteStore emulates the attendance tab in a local SQLite table.
// The header is fixed to domain.Columns.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// Compile-time check that *SQLiteStore satisfies Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore.
// PRE: storage.InitDB has run against db
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// ColumnValues returns the header cell followed by every row's value in column col.
// PRE: 1 <= col <= len(domain.Columns)
// POST: len(result) == row count + 1
func (s *SQLiteStore) ColumnValues(ctx context.Context, col int) ([]string, error) {
	if col < 1 || col > len(domain.Columns) {
		return nil, fmt.Errorf("%w: %d", domain.ErrColumnOutOfRange, col)
	}
	values, err := s.AllValues(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, row := range values {
		out = append(out, row[col-1])
	}
	return out, nil
}

// AllValues returns the header row followed by every stored row in insertion order.
// PRE: none
// POST: every row has len(domain.Columns) cells
func (s *SQLiteStore) AllValues(ctx context.Context) ([][]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, email, date, phone FROM sheet_row ORDER BY row_num")
	if err != nil {
		return nil, fmt.Errorf("query sheet rows: %w", err)
	}
	defer rows.Close()

	values := [][]string{append([]string(nil), domain.Columns...)}
	for rows.Next() {
		var name, email, date, phone string
		if err := rows.Scan(&name, &email, &date, &phone); err != nil {
			return nil, fmt.Errorf("scan sheet row: %w", err)
		}
		values = append(values, []string{name, email, date, phone})
	}
	return values, rows.Err()
}

// AllRecords returns the stored rows keyed by header name.
func (s *SQLiteStore) AllRecords(ctx context.Context) (domain.Table, error) {
	values, err := s.AllValues(ctx)
	if err != nil {
		return domain.Table{}, err
	}
	return domain.TableFromValues(values), nil
}

// AppendRow inserts row as the new last row. Missing trailing cells are stored empty.
// PRE: len(row) <= len(domain.Columns)
// POST: exactly one row is added; concurrent appends never share a position
func (s *SQLiteStore) AppendRow(ctx context.Context, row []string) error {
	if len(row) > len(domain.Columns) {
		return fmt.Errorf("%w: %d cells", ErrRowTooWide, len(row))
	}
	cells := make([]string, len(domain.Columns))
	copy(cells, row)

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sheet_row (id, name, email, date, phone, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.New().String(), cells[0], cells[1], cells[2], cells[3], s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append sheet row: %w", err)
	}
	return nil
}
