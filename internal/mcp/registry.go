package mcp

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/career-compass/internal/app"
	"github.com/honeycarbs/career-compass/internal/export"
	"github.com/honeycarbs/career-compass/internal/mcp/tools"
	"github.com/honeycarbs/career-compass/pkg/logging"
)

type ToolRegistry struct {
	logger *logging.Logger
}

func NewToolRegistry(logger *logging.Logger) *ToolRegistry {
	return &ToolRegistry{logger: logger}
}

// RegisterAll installs the catalogue, favorites and cache tools, plus the
// export and graph tools when those integrations are configured
func (r *ToolRegistry) RegisterAll(server *sdkmcp.Server, res *app.Resources) []string {
	opts := []tools.Option{
		tools.WithCareerTools(res.Careers),
		tools.WithFavoriteTools(res.Careers, res.Session),
		tools.WithCacheTool(res.Careers),
	}

	if res.Exporter != nil {
		opts = append(opts, tools.WithFavoritesExport(res.Careers, res.Session, res.Exporter, export.Target{
			SpreadsheetID: res.Config.Sheets.SpreadsheetID,
			Tab:           res.Config.Sheets.Tab,
		}))
	} else {
		r.logger.Info("favorites_export disabled", "reason", "GOOGLE_SHEETS_CREDENTIALS_PATH not set")
	}

	if res.Snapshot != nil {
		opts = append(opts, tools.WithGraphSnapshot(res.Snapshot))
	} else {
		r.logger.Info("graph_snapshot disabled", "reason", "NEO4J_URI not set")
	}

	names := tools.Register(server, r.logger, opts...)
	r.logger.Info("MCP tools registered", "tools", names)
	return names
}
