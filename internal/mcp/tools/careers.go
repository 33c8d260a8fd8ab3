package tools

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/domain/career"
	"github.com/honeycarbs/career-compass/internal/normalize"
	"github.com/honeycarbs/career-compass/pkg/logging"
)

// CareerListParams defines the arguments for the career_list tool
type CareerListParams struct {
	Page     int    `json:"page,omitempty" jsonschema:"1-based page number, default 1"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"Careers per page, default 20"`
	SortBy   string `json:"sort_by,omitempty" jsonschema:"Backend sort key"`
}

// CareerSearchParams defines the arguments for the career_search tool
type CareerSearchParams struct {
	Keyword  string   `json:"keyword,omitempty" jsonschema:"Free text matched against titles and descriptions"`
	Skills   []string `json:"skills,omitempty" jsonschema:"Match careers requiring any of these skills instead of a keyword"`
	Page     int      `json:"page,omitempty" jsonschema:"1-based page number, default 1"`
	PageSize int      `json:"page_size,omitempty" jsonschema:"Careers per page, default 20"`
	SortBy   string   `json:"sort_by,omitempty" jsonschema:"Backend sort key"`
}

// CategoryCareersParams defines the arguments for the category_careers tool
type CategoryCareersParams struct {
	CategoryID           string `json:"category_id" jsonschema:"Career category identifier"`
	IncludeSubcategories bool   `json:"include_subcategories,omitempty" jsonschema:"Also list careers of child categories"`
	Page                 int    `json:"page,omitempty" jsonschema:"1-based page number, default 1"`
	PageSize             int    `json:"page_size,omitempty" jsonschema:"Careers per page, default 20"`
	SortBy               string `json:"sort_by,omitempty" jsonschema:"Backend sort key; sorted lists skip the cache"`
}

// CareerDetailParams defines the arguments for the career_detail tool
type CareerDetailParams struct {
	ID string `json:"id" jsonschema:"Career identifier"`
}

// CategoriesParams defines the arguments for the categories tool
type CategoriesParams struct {
	Tree            bool `json:"tree,omitempty" jsonschema:"Return the complete category tree"`
	IncludeChildren bool `json:"include_children,omitempty" jsonschema:"Embed direct children in the flat list"`
}

type careerTools struct {
	service career.Service
	logger  *logging.Logger
}

// WithCareerTools registers the catalogue tools
func WithCareerTools(service career.Service) Option {
	return func(reg *registry) {
		t := careerTools{service: service, logger: reg.logger}
		add(reg, "career_list", "List one page of the career catalogue", t.list)
		add(reg, "career_search", "Search careers by keyword or by required skills", t.search)
		add(reg, "category_careers", "List one page of a career category, served from the category cache when fresh", t.category)
		add(reg, "career_detail", "Fetch one career with salary, skills and outlook", t.detail)
		add(reg, "categories", "List career categories or the complete category tree", t.categories)
	}
}

func pageOf(page, size int) normalize.PaginationParams {
	return normalize.PaginationParams{Page: page, PageSize: size}
}

func (t careerTools) list(ctx context.Context, _ *sdkmcp.CallToolRequest, params CareerListParams) (*sdkmcp.CallToolResult, any, error) {
	res, err := t.service.List(ctx, pageOf(params.Page, params.PageSize), domain.CareerQuery{SortBy: params.SortBy})
	if err != nil {
		t.logger.Warn("career_list failed", "err", err)
		return nil, nil, err
	}
	return jsonResult(res)
}

func (t careerTools) search(ctx context.Context, _ *sdkmcp.CallToolRequest, params CareerSearchParams) (*sdkmcp.CallToolResult, any, error) {
	p := pageOf(params.Page, params.PageSize)
	q := domain.CareerQuery{SortBy: params.SortBy}

	var (
		res normalize.PaginatedResult[domain.Career]
		err error
	)
	switch {
	case strings.TrimSpace(params.Keyword) != "":
		res, err = t.service.Search(ctx, params.Keyword, p, q)
	case len(params.Skills) > 0:
		res, err = t.service.BySkills(ctx, params.Skills, p, q)
	default:
		return nil, nil, fmt.Errorf("keyword or skills is required")
	}
	if err != nil {
		t.logger.Warn("career_search failed", "err", err)
		return nil, nil, err
	}
	return jsonResult(res)
}

func (t careerTools) category(ctx context.Context, _ *sdkmcp.CallToolRequest, params CategoryCareersParams) (*sdkmcp.CallToolResult, any, error) {
	res, err := t.service.CategoryCareers(ctx, params.CategoryID, pageOf(params.Page, params.PageSize), domain.CareerQuery{
		SortBy:               params.SortBy,
		IncludeSubcategories: params.IncludeSubcategories,
	})
	if err != nil {
		t.logger.Warn("category_careers failed", "category", params.CategoryID, "err", err)
		return nil, nil, err
	}
	return jsonResult(res)
}

func (t careerTools) detail(ctx context.Context, _ *sdkmcp.CallToolRequest, params CareerDetailParams) (*sdkmcp.CallToolResult, any, error) {
	c, err := t.service.Detail(ctx, params.ID)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(c)
}

func (t careerTools) categories(ctx context.Context, _ *sdkmcp.CallToolRequest, params CategoriesParams) (*sdkmcp.CallToolResult, any, error) {
	var (
		cats []domain.Category
		err  error
	)
	if params.Tree {
		cats, err = t.service.CategoryTree(ctx)
	} else {
		cats, err = t.service.Categories(ctx, params.IncludeChildren)
	}
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(cats)
}
