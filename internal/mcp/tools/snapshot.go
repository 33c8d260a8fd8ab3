package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/career-compass/internal/domain/snapshot"
)

// SnapshotRunner copies portal data into the graph. *snapshot.Service
// satisfies it.
type SnapshotRunner interface {
	Run(ctx context.Context, req snapshot.Request) (snapshot.Report, error)
}

// GraphSnapshotParams defines the arguments for the graph_snapshot tool
type GraphSnapshotParams struct {
	Categories []string `json:"categories,omitempty" jsonschema:"Categories whose careers are copied into Neo4j"`
	UserID     string   `json:"user_id,omitempty" jsonschema:"Also copy this user's favorites as FAVORITED edges"`
}

type snapshotTool struct {
	runner SnapshotRunner
}

// WithGraphSnapshot registers graph_snapshot
func WithGraphSnapshot(runner SnapshotRunner) Option {
	return func(reg *registry) {
		t := snapshotTool{runner: runner}
		add(reg, "graph_snapshot", "Copy category careers and favorites into the Neo4j career graph", t.handle)
	}
}

func (t snapshotTool) handle(ctx context.Context, _ *sdkmcp.CallToolRequest, params GraphSnapshotParams) (*sdkmcp.CallToolResult, any, error) {
	report, err := t.runner.Run(ctx, snapshot.Request{Categories: params.Categories, UserID: params.UserID})
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(report)
}
