package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/career-compass/internal/domain/career"
)

// CacheInvalidateParams defines the arguments for the cache_invalidate tool
type CacheInvalidateParams struct {
	CategoryID string `json:"category_id,omitempty" jsonschema:"Category to drop; empty clears the whole cache"`
	TTL        string `json:"ttl,omitempty" jsonschema:"Optional new time-to-live such as 10m"`
}

type cacheTool struct {
	service career.Service
}

// WithCacheTool registers cache_invalidate
func WithCacheTool(service career.Service) Option {
	return func(reg *registry) {
		t := cacheTool{service: service}
		add(reg, "cache_invalidate", "Drop cached category lists and optionally change the cache time-to-live", t.handle)
	}
}

func (t cacheTool) handle(ctx context.Context, _ *sdkmcp.CallToolRequest, params CacheInvalidateParams) (*sdkmcp.CallToolResult, any, error) {
	var ttl time.Duration
	if params.TTL != "" {
		d, err := time.ParseDuration(params.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("ttl: %w", err)
		}
		if d <= 0 {
			return nil, nil, fmt.Errorf("ttl must be positive, got %s", d)
		}
		ttl = d
	}

	var msg string
	if id := strings.TrimSpace(params.CategoryID); id != "" {
		t.service.InvalidateCategory(ctx, id)
		msg = fmt.Sprintf("category %s dropped from the cache", id)
	} else {
		t.service.InvalidateAll(ctx)
		msg = "career cache cleared"
	}

	if ttl > 0 && t.service.SetCacheTTL(ttl) {
		msg += fmt.Sprintf("; ttl set to %s", ttl)
	}
	return textResult(msg), nil, nil
}
