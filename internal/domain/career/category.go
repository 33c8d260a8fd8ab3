package career

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/normalize"
	"github.com/honeycarbs/career-compass/pkg/portalapi"
)

// allCategories is the generation key bumped when the whole cache is cleared
const allCategories = "cache:*"

// categoryKey is the cache key for a category list; lists that include
// subcategories are kept apart from the plain ones
func categoryKey(id string, includeSub bool) string {
	if includeSub {
		return id + "/sub"
	}
	return id
}

// CategoryCareers returns one page of a category. The category is fetched
// whole, cached under its id and paged locally. Sorted requests and bypassed
// categories are fetched live one page at a time. A category larger than the
// cache window is never cached; pages past the window are fetched live.
func (s *service) CategoryCareers(
	ctx context.Context,
	categoryID string,
	p normalize.PaginationParams,
	q domain.CareerQuery,
) (normalize.PaginatedResult[domain.Career], error) {
	p = p.Sanitize()
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return normalize.Empty[domain.Career](p), fmt.Errorf("career: category id is required")
	}

	if q.SortBy != "" || s.CacheBypassed(categoryID) {
		return s.categoryPage(ctx, categoryID, p, q)
	}

	key := categoryKey(categoryID, q.IncludeSubcategories)
	if items, ok := s.cache.Get(key); ok {
		s.logger.Debug("category cache hit", "category", key, "items", len(items))
		return pageOf(items, len(items), p), nil
	}

	gctx, finish := s.guard(ctx, "category")
	load, err := s.loadCategory(gctx, categoryID, q.IncludeSubcategories)
	if err = finish(err); err != nil {
		return normalize.Empty[domain.Career](p), fmt.Errorf("career: category %s: %w", categoryID, err)
	}
	if !load.complete() && p.Page*p.PageSize > len(load.items) {
		return s.categoryPage(ctx, categoryID, p, q)
	}
	return pageOf(load.items, load.total, p), nil
}

// categoryPage fetches a single page of a category from the backend
func (s *service) categoryPage(
	ctx context.Context,
	categoryID string,
	p normalize.PaginationParams,
	q domain.CareerQuery,
) (normalize.PaginatedResult[domain.Career], error) {
	return s.fetchPage(ctx, "category", p, q,
		func(ctx context.Context, page portalapi.Page, opts portalapi.ListOptions) ([]byte, error) {
			return s.api.CategoryCareers(ctx, categoryID, page, q.IncludeSubcategories, opts)
		})
}

// RefreshCategory fetches a category live and stores it in the cache,
// returning the number of careers fetched
func (s *service) RefreshCategory(ctx context.Context, categoryID string) (int, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return 0, fmt.Errorf("career: category id is required")
	}
	if s.CacheBypassed(categoryID) {
		return 0, nil
	}
	load, err := s.loadCategory(ctx, categoryID, false)
	if err != nil {
		return 0, fmt.Errorf("career: refresh category %s: %w", categoryID, err)
	}
	return len(load.items), nil
}

// categoryLoad is one window of a category and the backend's total for it
type categoryLoad struct {
	items []domain.Career
	total int
}

// complete reports whether the window holds the whole category
func (l categoryLoad) complete() bool {
	return l.total <= len(l.items)
}

// loadCategory fetches a category window and caches it when it holds the
// whole category. Concurrent loads of the same key share one request; a load
// finishing after the key was invalidated or reloaded is returned to its
// callers but not written to the cache.
func (s *service) loadCategory(ctx context.Context, categoryID string, includeSub bool) (categoryLoad, error) {
	key := categoryKey(categoryID, includeSub)

	ch := s.group.DoChan(key, func() (any, error) {
		token := s.gens.Next("cache:" + key)
		epoch := s.gens.Peek(allCategories)
		// the shared request must outlive any single caller's cancellation
		load, err := s.fetchCategory(context.WithoutCancel(ctx), categoryID, includeSub)
		if err != nil {
			return categoryLoad{}, err
		}
		switch {
		case !load.complete():
			s.logger.Warn("category exceeds cache window, not cached",
				"category", key, "window", len(load.items), "total", load.total)
		case !s.gens.Current("cache:"+key, token) || !s.gens.Current(allCategories, epoch):
			s.logger.Debug("discarding superseded category load", "category", key)
		default:
			s.cache.Put(key, load.items)
			s.persist(context.WithoutCancel(ctx))
		}
		return load, nil
	})

	select {
	case <-ctx.Done():
		return categoryLoad{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return categoryLoad{}, res.Err
		}
		load := res.Val.(categoryLoad)
		load.items = slices.Clone(load.items)
		return load, nil
	}
}

func (s *service) fetchCategory(ctx context.Context, categoryID string, includeSub bool) (categoryLoad, error) {
	start := s.clock()
	window := normalize.PaginationParams{Page: 1, PageSize: s.window}
	raw, err := s.api.CategoryCareers(
		ctx,
		categoryID,
		portalapi.Page(normalize.ConvertToAPIParams(window)),
		includeSub,
		portalapi.ListOptions{},
	)
	if err != nil {
		return categoryLoad{}, err
	}
	res := normalize.Normalize[domain.Career](raw, window)
	s.observe("category", res)
	s.logger.Info("category fetched",
		"category", categoryID,
		"items", len(res.Items),
		"total", res.Total,
		"elapsed", s.clock().Sub(start).Round(time.Millisecond),
	)
	return categoryLoad{items: res.Items, total: max(res.Total, len(res.Items))}, nil
}

// pageOf slices one page out of a locally held list of a category with total
// careers
func pageOf(items []domain.Career, total int, p normalize.PaginationParams) normalize.PaginatedResult[domain.Career] {
	p = p.Sanitize()
	start := (p.Page - 1) * p.PageSize
	if start >= len(items) {
		return normalize.Paginate[domain.Career](nil, total, p)
	}
	end := min(start+p.PageSize, len(items))
	res := normalize.Paginate(slices.Clone(items[start:end]), total, p)
	res.Shape = normalize.ShapeArray
	return res
}

// InvalidateCategory drops a category from the cache. A load already in
// flight for it will not repopulate the entry.
func (s *service) InvalidateCategory(ctx context.Context, categoryID string) {
	categoryID = strings.TrimSpace(categoryID)
	for _, key := range []string{categoryKey(categoryID, false), categoryKey(categoryID, true)} {
		s.gens.Next("cache:" + key)
		s.cache.Invalidate(key)
	}
	s.logger.Info("category cache cleared", "category", categoryID)
	s.persist(ctx)
}

// InvalidateAll empties the cache
func (s *service) InvalidateAll(ctx context.Context) {
	s.gens.Next(allCategories)
	s.cache.InvalidateAll()
	s.logger.Info("career cache cleared")
	s.persist(ctx)
}

// SetCacheTTL changes the cache time-to-live; non-positive values are ignored
func (s *service) SetCacheTTL(ttl time.Duration) bool {
	ok := s.cache.SetTTL(ttl)
	if ok {
		s.logger.Info("career cache ttl changed", "ttl", ttl)
	}
	return ok
}

// CacheBypassed reports whether a category is always fetched live
func (s *service) CacheBypassed(categoryID string) bool {
	return s.cache.Bypassed(categoryID)
}
