// Package export writes career lists to external spreadsheets
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/pkg/logging"
)

// Header is the first row of every exported tab
var Header = []any{"ID", "Title", "Category", "Salary", "Skills", "Exported At"}

const defaultTab = "Favorites"

// ValuesWriter is the part of the Sheets client the exporter needs.
// *sheets.Client satisfies it.
type ValuesWriter interface {
	AppendValues(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	UpdateValues(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	ClearValues(ctx context.Context, spreadsheetID, rng string) error
}

// Target names the spreadsheet tab to write
type Target struct {
	SpreadsheetID string
	Tab           string
	// Replace clears the tab and rewrites it from the header down instead
	// of appending below existing rows
	Replace bool
}

// Result reports what an export wrote
type Result struct {
	SpreadsheetID string    `json:"spreadsheet_id"`
	Tab           string    `json:"tab"`
	RowsWritten   int       `json:"rows_written"`
	CompletedAt   time.Time `json:"completed_at"`
}

// SheetsExporter writes careers as rows to a Google Sheets tab
type SheetsExporter struct {
	writer ValuesWriter
	logger *logging.Logger
	clock  func() time.Time
}

// NewSheetsExporter creates an exporter; clock defaults to time.Now
func NewSheetsExporter(writer ValuesWriter, logger *logging.Logger, clock func() time.Time) (*SheetsExporter, error) {
	if writer == nil {
		return nil, fmt.Errorf("export: sheets client not configured")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &SheetsExporter{writer: writer, logger: logger.Named("export"), clock: clock}, nil
}

// Export writes careers to target
func (e *SheetsExporter) Export(ctx context.Context, target Target, careers []domain.Career) (Result, error) {
	if strings.TrimSpace(target.SpreadsheetID) == "" {
		return Result{}, fmt.Errorf("export: spreadsheet id is required")
	}
	tab := target.Tab
	if tab == "" {
		tab = defaultTab
	}

	now := e.clock().UTC()
	result := Result{SpreadsheetID: target.SpreadsheetID, Tab: tab}

	rows := Rows(careers, now)
	if target.Replace {
		if err := e.writer.ClearValues(ctx, target.SpreadsheetID, quoteTab(tab)+"!A:Z"); err != nil {
			return result, fmt.Errorf("export: clear tab: %w", err)
		}
		values := append([][]any{Header}, rows...)
		if err := e.writer.UpdateValues(ctx, target.SpreadsheetID, quoteTab(tab)+"!A1", values); err != nil {
			return result, fmt.Errorf("export: write rows: %w", err)
		}
	} else if len(rows) > 0 {
		if err := e.writer.AppendValues(ctx, target.SpreadsheetID, quoteTab(tab)+"!A1", rows); err != nil {
			return result, fmt.Errorf("export: append rows: %w", err)
		}
	}

	result.RowsWritten = len(rows)
	result.CompletedAt = now
	e.logger.Info("careers exported", "spreadsheet", target.SpreadsheetID, "tab", tab, "rows", len(rows))
	return result, nil
}

// Rows maps careers to sheet rows in Header order
func Rows(careers []domain.Career, exportedAt time.Time) [][]any {
	stamp := exportedAt.UTC().Format(time.RFC3339)
	rows := make([][]any, 0, len(careers))
	for _, c := range careers {
		category := c.CategoryName
		if category == "" {
			category = c.CategoryID.String()
		}
		rows = append(rows, []any{
			c.ID.String(),
			c.Title,
			category,
			c.DisplaySalary(),
			strings.Join(c.Skills, ", "),
			stamp,
		})
	}
	return rows
}

// quoteTab wraps tab names containing spaces or punctuation in A1 quotes
func quoteTab(tab string) string {
	if strings.ContainsAny(tab, " '!-") {
		return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
	}
	return tab
}
