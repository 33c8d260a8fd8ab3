package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/domain/career"
	"github.com/honeycarbs/career-compass/internal/export"
)

// FavoritesExporter writes careers to a spreadsheet. *export.SheetsExporter
// satisfies it.
type FavoritesExporter interface {
	Export(ctx context.Context, target export.Target, careers []domain.Career) (export.Result, error)
}

// FavoritesExportParams defines the arguments for the favorites_export tool
type FavoritesExportParams struct {
	SpreadsheetID string `json:"spreadsheet_id,omitempty" jsonschema:"Google Sheets document ID; defaults to the configured one"`
	Tab           string `json:"tab,omitempty" jsonschema:"Tab name, default Favorites"`
	Replace       bool   `json:"replace,omitempty" jsonschema:"Clear the tab and rewrite it instead of appending"`
}

type exportTool struct {
	service  career.Service
	session  SessionState
	exporter FavoritesExporter
	defaults export.Target
}

// WithFavoritesExport registers favorites_export; defaults fills the
// spreadsheet and tab when the caller omits them
func WithFavoritesExport(service career.Service, session SessionState, exporter FavoritesExporter, defaults export.Target) Option {
	return func(reg *registry) {
		t := exportTool{service: service, session: session, exporter: exporter, defaults: defaults}
		add(reg, "favorites_export", "Export the signed-in user's favorite careers to Google Sheets", t.handle)
	}
}

func (t exportTool) handle(ctx context.Context, _ *sdkmcp.CallToolRequest, params FavoritesExportParams) (*sdkmcp.CallToolResult, any, error) {
	if t.session != nil && !t.session.LoggedIn() {
		return nil, nil, ErrSignedOut
	}

	target := export.Target{
		SpreadsheetID: params.SpreadsheetID,
		Tab:           params.Tab,
		Replace:       params.Replace,
	}
	if target.SpreadsheetID == "" {
		target.SpreadsheetID = t.defaults.SpreadsheetID
	}
	if target.Tab == "" {
		target.Tab = t.defaults.Tab
	}

	favs, err := t.service.Favorites(ctx)
	if err != nil {
		if t.session != nil {
			t.session.HandleUnauthorized(ctx, err)
		}
		return nil, nil, fmt.Errorf("load favorites: %w", err)
	}

	res, err := t.exporter.Export(ctx, target, favs)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(res)
}
