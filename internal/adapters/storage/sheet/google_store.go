package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	domain "ays/internal/domain/sheet"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

var (
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")
	ErrNoWorksheet         = errors.New("spreadsheet has no worksheets")
	ErrNoSpreadsheet       = errors.New("spreadsheet id or name is required")
)

// GoogleConfig locates the spreadsheet and carries the service-account key.
type GoogleConfig struct {
	CredentialsJSON []byte
	SpreadsheetID   string // wins over SpreadsheetName when set
	SpreadsheetName string
}

// GoogleStore reads and appends to the first worksheet of a Google Sheets spreadsheet.
// The spreadsheet id and worksheet title are resolved on first use and cached.
type GoogleStore struct {
	sheets *sheets.Service
	drive  *drive.Service
	name   string

	mu  sync.Mutex
	id  string
	tab string
}

// Compile-time check that *GoogleStore satisfies Store.
var _ Store = (*GoogleStore)(nil)

// NewGoogleStore authenticates with a service-account key and prepares the API clients.
// PRE: cfg.CredentialsJSON is a service-account key; SpreadsheetID or SpreadsheetName is set
// POST: no network call is made until the first store operation
func NewGoogleStore(ctx context.Context, cfg GoogleConfig) (*GoogleStore, error) {
	jwt, err := google.JWTConfigFromJSON(cfg.CredentialsJSON,
		sheets.SpreadsheetsScope,
		drive.DriveMetadataReadonlyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	return newGoogleStore(ctx, cfg.SpreadsheetID, cfg.SpreadsheetName, option.WithHTTPClient(jwt.Client(ctx)))
}

func newGoogleStore(ctx context.Context, id, name string, opts ...option.ClientOption) (*GoogleStore, error) {
	if id == "" && name == "" {
		return nil, ErrNoSpreadsheet
	}
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive client: %w", err)
	}
	return &GoogleStore{sheets: sheetsSvc, drive: driveSvc, id: id, name: name}, nil
}

// resolve returns the spreadsheet id and first worksheet title, looking them up once.
// A failed lookup is retried on the next call.
func (s *GoogleStore) resolve(ctx context.Context) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tab != "" {
		return s.id, s.tab, nil
	}

	if s.id == "" {
		list, err := s.drive.Files.List().
			Q(fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(s.name), spreadsheetMimeType)).
			Fields("files(id, name)").
			PageSize(1).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx).
			Do()
		if err != nil {
			return "", "", fmt.Errorf("find spreadsheet %q: %w", s.name, err)
		}
		if len(list.Files) == 0 {
			return "", "", fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, s.name)
		}
		s.id = list.Files[0].Id
	}

	ss, err := s.sheets.Spreadsheets.Get(s.id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("open spreadsheet %s: %w", s.id, err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", "", ErrNoWorksheet
	}
	s.tab = ss.Sheets[0].Properties.Title
	return s.id, s.tab, nil
}

// ColumnValues returns column col of the first worksheet, header included.
// Trailing empty cells are not returned by the API.
// PRE: 1 <= col <= 26
func (s *GoogleStore) ColumnValues(ctx context.Context, col int) ([]string, error) {
	if col < 1 || col > 26 {
		return nil, fmt.Errorf("%w: %d", domain.ErrColumnOutOfRange, col)
	}
	id, tab, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}
	letter := string(rune('A' + col - 1))
	vr, err := s.sheets.Spreadsheets.Values.Get(id, a1(tab, letter+":"+letter)).
		MajorDimension("COLUMNS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read column %d: %w", col, err)
	}
	if len(vr.Values) == 0 {
		return []string{}, nil
	}
	return cells(vr.Values[0]), nil
}

// AllValues returns every row of the first worksheet, header first.
func (s *GoogleStore) AllValues(ctx context.Context) ([][]string, error) {
	id, tab, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}
	vr, err := s.sheets.Spreadsheets.Values.Get(id, a1(tab, "")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read all values: %w", err)
	}
	out := make([][]string, 0, len(vr.Values))
	for _, row := range vr.Values {
		out = append(out, cells(row))
	}
	return out, nil
}

// AllRecords returns the data rows of the first worksheet keyed by its header row.
func (s *GoogleStore) AllRecords(ctx context.Context) (domain.Table, error) {
	values, err := s.AllValues(ctx)
	if err != nil {
		return domain.Table{}, err
	}
	return domain.TableFromValues(values), nil
}

// AppendRow adds row after the last row of the worksheet's data table.
// Cells are written RAW so dates stay in DateLayout. INSERT_ROWS makes the server pick the
// position, so concurrent appends never collide.
func (s *GoogleStore) AppendRow(ctx context.Context, row []string) error {
	id, tab, err := s.resolve(ctx)
	if err != nil {
		return err
	}
	values := make([]any, len(row))
	for i, c := range row {
		values[i] = c
	}
	_, err = s.sheets.Spreadsheets.Values.Append(id, a1(tab, "A1"), &sheets.ValueRange{
		Values: [][]any{values},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// a1 builds an A1-notation range on the named worksheet.
func a1(tab, cellRange string) string {
	quoted := "'" + strings.ReplaceAll(tab, "'", "''") + "'"
	if cellRange == "" {
		return quoted
	}
	return quoted + "!" + cellRange
}

func cells(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
