package career

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/normalize"
	"github.com/honeycarbs/career-compass/pkg/portalapi"
)

type listFetch func(ctx context.Context, page portalapi.Page, opts portalapi.ListOptions) ([]byte, error)

// fetchPage runs one backend list call and normalizes whatever came back
func (s *service) fetchPage(
	ctx context.Context,
	op string,
	p normalize.PaginationParams,
	q domain.CareerQuery,
	fetch listFetch,
) (normalize.PaginatedResult[domain.Career], error) {
	p = p.Sanitize()
	ctx, finish := s.guard(ctx, op)

	raw, err := fetch(ctx, portalapi.Page(normalize.ConvertToAPIParams(p)), portalapi.ListOptions{SortBy: q.SortBy})
	if err = finish(err); err != nil {
		return normalize.Empty[domain.Career](p), fmt.Errorf("career: %s: %w", op, err)
	}

	res := normalize.Normalize[domain.Career](raw, p)
	s.observe(op, res)
	return res, nil
}

func (s *service) observe(op string, res normalize.PaginatedResult[domain.Career]) {
	if res.Shape == normalize.ShapeUnknown {
		s.logger.Warn("unrecognised list payload", "op", op)
	}
	if res.Dropped > 0 {
		s.logger.Warn("dropped undecodable list elements", "op", op, "dropped", res.Dropped)
	}
	s.logger.Debug("list fetched", "op", op, "shape", res.Shape.String(), "items", len(res.Items), "total", res.Total)
}

// List returns one page of the whole catalogue
func (s *service) List(ctx context.Context, p normalize.PaginationParams, q domain.CareerQuery) (normalize.PaginatedResult[domain.Career], error) {
	return s.fetchPage(ctx, "list", p, q, s.api.ListCareers)
}

// Search returns one page of careers matching keyword
func (s *service) Search(ctx context.Context, keyword string, p normalize.PaginationParams, q domain.CareerQuery) (normalize.PaginatedResult[domain.Career], error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return normalize.Empty[domain.Career](p), fmt.Errorf("career: search keyword is required")
	}
	return s.fetchPage(ctx, "search", p, q, func(ctx context.Context, page portalapi.Page, opts portalapi.ListOptions) ([]byte, error) {
		return s.api.SearchCareers(ctx, keyword, page, opts)
	})
}

// BySkills returns one page of careers requiring any of skills
func (s *service) BySkills(ctx context.Context, skills []string, p normalize.PaginationParams, q domain.CareerQuery) (normalize.PaginatedResult[domain.Career], error) {
	cleaned := make([]string, 0, len(skills))
	for _, sk := range skills {
		if sk = strings.TrimSpace(sk); sk != "" {
			cleaned = append(cleaned, sk)
		}
	}
	if len(cleaned) == 0 {
		return normalize.Empty[domain.Career](p), fmt.Errorf("career: at least one skill is required")
	}
	return s.fetchPage(ctx, "skills", p, q, func(ctx context.Context, page portalapi.Page, opts portalapi.ListOptions) ([]byte, error) {
		return s.api.CareersBySkills(ctx, cleaned, page, opts)
	})
}

// Detail fetches one career; a 404 becomes ErrNotFound
func (s *service) Detail(ctx context.Context, id string) (domain.Career, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Career{}, fmt.Errorf("career: id is required")
	}

	raw, err := s.api.CareerDetail(ctx, id)
	if err != nil {
		if portalapi.IsNotFound(err) {
			return domain.Career{}, fmt.Errorf("career %s: %w", id, ErrNotFound)
		}
		return domain.Career{}, fmt.Errorf("career: detail %s: %w", id, err)
	}

	var c domain.Career
	if err := json.Unmarshal(unwrapData(raw), &c); err != nil {
		return domain.Career{}, fmt.Errorf("career: decode detail %s: %w", id, err)
	}
	if c.ID == "" {
		return domain.Career{}, fmt.Errorf("career %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// Categories lists career categories
func (s *service) Categories(ctx context.Context, includeChildren bool) ([]domain.Category, error) {
	raw, err := s.api.Categories(ctx, portalapi.Page{Limit: categoryListLimit}, includeChildren)
	if err != nil {
		return nil, fmt.Errorf("career: categories: %w", err)
	}
	return normalize.DecodeList[domain.Category](raw), nil
}

// CategoryTree returns the roots of the complete category tree
func (s *service) CategoryTree(ctx context.Context) ([]domain.Category, error) {
	raw, err := s.api.CategoryTree(ctx)
	if err != nil {
		return nil, fmt.Errorf("career: category tree: %w", err)
	}
	return normalize.DecodeList[domain.Category](raw), nil
}

// Recommendations fetches the recommendation set for userID, or for the
// signed-in user when userID is empty
func (s *service) Recommendations(ctx context.Context, userID string) (domain.Recommendations, error) {
	raw, err := s.api.Recommendations(ctx, userID)
	if err != nil {
		return domain.Recommendations{}, fmt.Errorf("career: recommendations: %w", err)
	}

	raw = unwrapData(raw)
	if bytes.HasPrefix(raw, []byte("[")) {
		return domain.Recommendations{
			Status:          "success",
			Recommendations: normalize.DecodeList[domain.Recommendation](raw),
		}, nil
	}

	var out domain.Recommendations
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.Recommendations{}, fmt.Errorf("career: decode recommendations: %w", err)
	}
	return out, nil
}

// unwrapData returns the data field when the payload is a {"data": ...}
// wrapper around an object or array, otherwise the payload itself
func unwrapData(raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	if !bytes.HasPrefix(raw, []byte("{")) {
		return raw
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return raw
	}
	if _, hasID := fields["id"]; hasID {
		return raw
	}
	data := bytes.TrimSpace(fields["data"])
	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		return data
	}
	return raw
}
