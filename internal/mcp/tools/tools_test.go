package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/domain/career"
	"github.com/honeycarbs/career-compass/internal/domain/snapshot"
	"github.com/honeycarbs/career-compass/internal/export"
	"github.com/honeycarbs/career-compass/internal/normalize"
	"github.com/honeycarbs/career-compass/pkg/portalapi"
)

type stubCareers struct {
	career.Service

	mu          sync.Mutex
	page        normalize.PaginationParams
	query       domain.CareerQuery
	keyword     string
	skills      []string
	category    string
	invalidated []string
	clearedAll  bool
	ttl         time.Duration
	favorite    bool
	favs        []domain.Career
	favErr      error
	recsErr     error
	recsFor     []string
}

func (s *stubCareers) result(p normalize.PaginationParams) normalize.PaginatedResult[domain.Career] {
	return normalize.Paginate([]domain.Career{{ID: "1", Title: "Data Analyst"}}, 41, p)
}

func (s *stubCareers) List(_ context.Context, p normalize.PaginationParams, q domain.CareerQuery) (normalize.PaginatedResult[domain.Career], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page, s.query = p, q
	return s.result(p), nil
}

func (s *stubCareers) Search(_ context.Context, keyword string, p normalize.PaginationParams, _ domain.CareerQuery) (normalize.PaginatedResult[domain.Career], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyword = keyword
	return s.result(p), nil
}

func (s *stubCareers) BySkills(_ context.Context, skills []string, p normalize.PaginationParams, _ domain.CareerQuery) (normalize.PaginatedResult[domain.Career], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skills = skills
	return s.result(p), nil
}

func (s *stubCareers) CategoryCareers(_ context.Context, id string, p normalize.PaginationParams, q domain.CareerQuery) (normalize.PaginatedResult[domain.Career], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.category, s.page, s.query = id, p, q
	return s.result(p), nil
}

func (s *stubCareers) Detail(_ context.Context, id string) (domain.Career, error) {
	if id == "404" {
		return domain.Career{}, career.ErrNotFound
	}
	return domain.Career{ID: domain.ID(id), Title: "Nurse"}, nil
}

func (s *stubCareers) InvalidateCategory(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, id)
}

func (s *stubCareers) InvalidateAll(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearedAll = true
}

func (s *stubCareers) SetCacheTTL(ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttl = ttl
	return ttl > 0
}

func (s *stubCareers) Favorites(context.Context) ([]domain.Career, error) {
	return s.favs, s.favErr
}

func (s *stubCareers) ToggleFavorite(_ context.Context, _ string) (bool, error) {
	if s.favErr != nil {
		return false, s.favErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorite = !s.favorite
	return s.favorite, nil
}

func (s *stubCareers) Recommendations(_ context.Context, userID string) (domain.Recommendations, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recsFor = append(s.recsFor, userID)
	if s.recsErr != nil {
		return domain.Recommendations{}, s.recsErr
	}
	return domain.Recommendations{Status: "success", Recommendations: []domain.Recommendation{{Career: domain.Career{Title: "Data Analyst"}}}}, nil
}

type stubSession struct {
	mu       sync.Mutex
	loggedIn bool
}

func (s *stubSession) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

func (s *stubSession) HandleUnauthorized(_ context.Context, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn || !portalapi.IsUnauthorized(err) {
		return false
	}
	s.loggedIn = false
	return true
}

type recordingExporter struct {
	target export.Target
	rows   int
}

func (r *recordingExporter) Export(_ context.Context, target export.Target, careers []domain.Career) (export.Result, error) {
	r.target, r.rows = target, len(careers)
	return export.Result{SpreadsheetID: target.SpreadsheetID, Tab: target.Tab, RowsWritten: len(careers)}, nil
}

type recordingRunner struct {
	req snapshot.Request
}

func (r *recordingRunner) Run(_ context.Context, req snapshot.Request) (snapshot.Report, error) {
	r.req = req
	return snapshot.Report{Careers: 3, Favorites: 1}, nil
}

func connect(t *testing.T, opts ...Option) (*sdkmcp.ClientSession, []string) {
	t.Helper()
	ctx := context.Background()

	server := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "test-server", Version: "v0"}, nil)
	names := Register(server, nil, opts...)

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs, names
}

func call(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestRegister_ListsTools(t *testing.T) {
	svc := &stubCareers{}
	cs, names := connect(t,
		WithCareerTools(svc),
		WithFavoriteTools(svc, &stubSession{}),
		WithCacheTool(svc),
		nil,
	)

	assert.ElementsMatch(t, []string{
		"career_list", "career_search", "category_careers", "career_detail",
		"categories", "recommendations", "favorites_list", "favorite_toggle",
		"cache_invalidate",
	}, names)

	listed, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, listed.Tools, len(names))
}

func TestCareerList(t *testing.T) {
	svc := &stubCareers{}
	cs, _ := connect(t, WithCareerTools(svc))

	res := call(t, cs, "career_list", map[string]any{"page": 2, "page_size": 20, "sort_by": "title"})
	require.False(t, res.IsError, text(t, res))

	var page normalize.PaginatedResult[domain.Career]
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &page))
	assert.Equal(t, 41, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Data Analyst", page.Items[0].Title)

	assert.Equal(t, normalize.PaginationParams{Page: 2, PageSize: 20}, svc.page)
	assert.Equal(t, "title", svc.query.SortBy)
}

func TestCareerSearch(t *testing.T) {
	svc := &stubCareers{}
	cs, _ := connect(t, WithCareerTools(svc))

	res := call(t, cs, "career_search", map[string]any{"keyword": "nurse"})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, "nurse", svc.keyword)

	res = call(t, cs, "career_search", map[string]any{"skills": []string{"sql", "python"}})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, []string{"sql", "python"}, svc.skills)

	res = call(t, cs, "career_search", map[string]any{"keyword": "  "})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "keyword or skills is required")
}

func TestCategoryCareers(t *testing.T) {
	svc := &stubCareers{}
	cs, _ := connect(t, WithCareerTools(svc))

	res := call(t, cs, "category_careers", map[string]any{"category_id": "12", "include_subcategories": true})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, "12", svc.category)
	assert.True(t, svc.query.IncludeSubcategories)
	assert.Equal(t, normalize.PaginationParams{}, svc.page, "defaults are applied by the service")
}

func TestCareerDetail_NotFound(t *testing.T) {
	cs, _ := connect(t, WithCareerTools(&stubCareers{}))

	res := call(t, cs, "career_detail", map[string]any{"id": "404"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "not found")

	res = call(t, cs, "career_detail", map[string]any{"id": "7"})
	require.False(t, res.IsError)
	assert.Contains(t, text(t, res), "Nurse")
}

func TestCacheInvalidate(t *testing.T) {
	svc := &stubCareers{}
	cs, _ := connect(t, WithCacheTool(svc))

	res := call(t, cs, "cache_invalidate", map[string]any{"category_id": "5", "ttl": "10m"})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, []string{"5"}, svc.invalidated)
	assert.Equal(t, 10*time.Minute, svc.ttl)
	assert.Contains(t, text(t, res), "ttl set to 10m0s")

	res = call(t, cs, "cache_invalidate", map[string]any{})
	require.False(t, res.IsError, text(t, res))
	assert.True(t, svc.clearedAll)

	res = call(t, cs, "cache_invalidate", map[string]any{"ttl": "-1m"})
	assert.True(t, res.IsError)

	res = call(t, cs, "cache_invalidate", map[string]any{"ttl": "soon"})
	assert.True(t, res.IsError)
}

func TestFavorites_RequireSession(t *testing.T) {
	svc := &stubCareers{}
	cs, _ := connect(t, WithFavoriteTools(svc, &stubSession{}))

	res := call(t, cs, "favorites_list", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "portal login")

	res = call(t, cs, "favorite_toggle", map[string]any{"career_id": "3"})
	assert.True(t, res.IsError)
}

func TestFavoriteToggle(t *testing.T) {
	svc := &stubCareers{}
	cs, _ := connect(t, WithFavoriteTools(svc, &stubSession{loggedIn: true}))

	res := call(t, cs, "favorite_toggle", map[string]any{"career_id": "3"})
	require.False(t, res.IsError, text(t, res))

	var out FavoriteToggleResult
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, FavoriteToggleResult{CareerID: "3", IsFavorite: true}, out)
}

func TestFavorites_UnauthorizedEndsSession(t *testing.T) {
	session := &stubSession{loggedIn: true}
	svc := &stubCareers{favErr: &portalapi.StatusError{Status: http.StatusUnauthorized, Message: "token expired"}}
	cs, _ := connect(t, WithFavoriteTools(svc, session))

	res := call(t, cs, "favorites_list", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "portal login")
	assert.False(t, session.LoggedIn())
}

func TestRecommendations_RequireSession(t *testing.T) {
	svc := &stubCareers{}
	cs, _ := connect(t, WithFavoriteTools(svc, &stubSession{}))

	res := call(t, cs, "recommendations", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "portal login")
	assert.Empty(t, svc.recsFor, "no backend call without a session")
}

func TestRecommendations(t *testing.T) {
	svc := &stubCareers{}
	cs, _ := connect(t, WithFavoriteTools(svc, &stubSession{loggedIn: true}))

	res := call(t, cs, "recommendations", map[string]any{"user_id": "4"})
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), "Data Analyst")
	assert.Equal(t, []string{"4"}, svc.recsFor)
}

func TestRecommendations_UnauthorizedEndsSession(t *testing.T) {
	session := &stubSession{loggedIn: true}
	svc := &stubCareers{recsErr: &portalapi.StatusError{Status: http.StatusUnauthorized, Message: "token expired"}}
	cs, _ := connect(t, WithFavoriteTools(svc, session))

	res := call(t, cs, "recommendations", map[string]any{})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "portal login")
	assert.False(t, session.LoggedIn())
}

func TestFavoritesExport_UsesDefaults(t *testing.T) {
	svc := &stubCareers{favs: []domain.Career{{ID: "1"}, {ID: "2"}}}
	exporter := &recordingExporter{}
	cs, _ := connect(t, WithFavoritesExport(svc, &stubSession{loggedIn: true}, exporter, export.Target{
		SpreadsheetID: "sheet-1",
		Tab:           "Saved",
	}))

	res := call(t, cs, "favorites_export", map[string]any{"replace": true})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, export.Target{SpreadsheetID: "sheet-1", Tab: "Saved", Replace: true}, exporter.target)
	assert.Equal(t, 2, exporter.rows)

	res = call(t, cs, "favorites_export", map[string]any{"spreadsheet_id": "other"})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, "other", exporter.target.SpreadsheetID)
}

func TestGraphSnapshot(t *testing.T) {
	runner := &recordingRunner{}
	cs, _ := connect(t, WithGraphSnapshot(runner))

	res := call(t, cs, "graph_snapshot", map[string]any{"categories": []string{"1", "2"}, "user_id": "u1"})
	require.False(t, res.IsError, text(t, res))
	assert.Equal(t, snapshot.Request{Categories: []string{"1", "2"}, UserID: "u1"}, runner.req)

	var report snapshot.Report
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &report))
	assert.Equal(t, 3, report.Careers)
}
