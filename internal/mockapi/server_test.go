package mockapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/domain/auth"
	careerdomain "github.com/honeycarbs/career-compass/internal/domain/career"
	"github.com/honeycarbs/career-compass/internal/normalize"
	"github.com/honeycarbs/career-compass/internal/storage/kv"
	"github.com/honeycarbs/career-compass/pkg/portalapi"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	clock   *testClock
	session *auth.Session
	client  *portalapi.Client
	auth    *auth.Service
	careers careerdomain.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{clock: &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}}
	clock := h.clock.Now

	srv := httptest.NewServer(New(Config{Secret: "test", TokenTTL: time.Hour, Clock: clock}).Handler())
	t.Cleanup(srv.Close)

	var err error
	h.session, err = auth.NewSession(context.Background(), kv.NewMemoryStore(), auth.WithClock(clock))
	require.NoError(t, err)
	h.client, err = portalapi.NewClient(portalapi.Config{
		BaseURL: srv.URL + "/api/v1",
		Tokens:  h.session,
	})
	require.NoError(t, err)
	h.auth, err = auth.NewService(h.client, h.session, nil)
	require.NoError(t, err)
	h.careers, err = careerdomain.NewService(careerdomain.WithAPI(h.client), careerdomain.WithClock(clock))
	require.NoError(t, err)
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	user, err := h.auth.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	require.Equal(t, "admin", user.Username)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.auth.Login(ctx, "admin", "wrong")
	require.Error(t, err)
	assert.True(t, portalapi.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "Incorrect username or password")
	assert.False(t, h.session.LoggedIn())

	user, err := h.auth.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, domain.ID("1"), user.ID)
	assert.Equal(t, "admin", user.Username)
	assert.True(t, h.session.LoggedIn())
}

func TestLogin_ValidationError(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.PostForm(context.Background(), portalapi.APIPrefix+"/auth/login", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username: field required; password: field required")
}

func TestMe_RequiresValidToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Me(ctx)
	assert.True(t, portalapi.IsUnauthorized(err))

	require.NoError(t, h.session.SetToken(ctx, "not-a-jwt"))
	_, err = h.auth.FetchUser(ctx)
	assert.ErrorIs(t, err, auth.ErrNoToken)
	assert.False(t, h.session.LoggedIn(), "a rejected token ends the session")
}

func TestMe_ExpiredToken(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.clock.Advance(2 * time.Hour)
	assert.Equal(t, "", h.session.Token(), "the client drops the token once exp passes")

	_, err := h.client.Me(context.Background())
	assert.True(t, portalapi.IsUnauthorized(err))
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	user, err := h.auth.Register(ctx, portalapi.Registration{Username: "carol", Password: "pw", Email: "c@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)

	_, err = h.auth.Register(ctx, portalapi.Registration{Username: "carol", Password: "pw"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Username already registered")

	_, err = h.auth.Login(ctx, "carol", "pw")
	assert.NoError(t, err)
}

func TestEnvelopes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := normalize.PaginationParams{Page: 1, PageSize: 5}

	list, err := h.careers.List(ctx, p, domain.CareerQuery{})
	require.NoError(t, err)
	assert.Equal(t, normalize.ShapeItems, list.Shape)
	assert.Equal(t, 16, list.Total)
	assert.Len(t, list.Items, 5)
	assert.True(t, list.HasMore)

	search, err := h.careers.Search(ctx, "engineer", p, domain.CareerQuery{})
	require.NoError(t, err)
	assert.Equal(t, normalize.ShapeResults, search.Shape)
	assert.Equal(t, 7, search.Total)

	skills, err := h.careers.BySkills(ctx, []string{"go"}, p, domain.CareerQuery{})
	require.NoError(t, err)
	assert.Equal(t, normalize.ShapeCareers, skills.Shape)
	assert.Equal(t, 2, skills.Total)
	assert.ElementsMatch(t, []string{"Go", "SQL", "Docker"}, skills.Items[0].Skills)

	raw, err := h.client.CategoryCareers(ctx, "1", portalapi.Page{Limit: 50}, true, portalapi.ListOptions{})
	require.NoError(t, err)
	cat := normalize.Normalize[domain.Career](raw, normalize.PaginationParams{Page: 1, PageSize: 50})
	assert.Equal(t, normalize.ShapeData, cat.Shape)
	assert.Equal(t, 8, cat.Total, "category 1 plus its subcategories")
}

func TestCategoryCareers_Sorted(t *testing.T) {
	h := newHarness(t)
	res, err := h.careers.CategoryCareers(context.Background(), "12",
		normalize.PaginationParams{Page: 1, PageSize: 10},
		domain.CareerQuery{SortBy: "-salary"},
	)
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "Machine Learning Engineer", res.Items[0].Title)
	assert.Equal(t, "Data", res.Items[0].CategoryName)
}

func TestDetail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	c, err := h.careers.Detail(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, "Registered Nurse", c.Title)
	assert.Equal(t, "60000-95000", c.DisplaySalary())

	_, err = h.careers.Detail(ctx, "999")
	assert.ErrorIs(t, err, careerdomain.ErrNotFound)
}

func TestFavorites_RoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.careers.Favorites(ctx)
	assert.True(t, portalapi.IsUnauthorized(err))

	h.login(t)

	fav, err := h.careers.ToggleFavorite(ctx, "6")
	require.NoError(t, err)
	assert.True(t, fav)

	favs, err := h.careers.Favorites(ctx)
	require.NoError(t, err, "the client falls back past the missing first route")
	require.Len(t, favs, 1)
	assert.Equal(t, "Data Analyst", favs[0].Title)
	assert.True(t, favs[0].IsFavorite)

	recs, err := h.careers.Recommendations(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "success", recs.Status)
	require.NotEmpty(t, recs.Recommendations)
	assert.Greater(t, recs.Recommendations[0].Match, 0.0)

	fav, err = h.careers.ToggleFavorite(ctx, "6")
	require.NoError(t, err)
	assert.False(t, fav)

	favs, err = h.careers.Favorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, favs)

	err = h.careers.AddFavorite(ctx, "999")
	assert.True(t, portalapi.IsNotFound(err))
}

func TestCategories(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	flat, err := h.careers.Categories(ctx, false)
	require.NoError(t, err)
	assert.Len(t, flat, 7)

	tree, err := h.careers.CategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 4)
	assert.Equal(t, "Technology", tree[0].Name)
	assert.Len(t, tree[0].Children, 2)

	var seen int
	for _, root := range tree {
		root.Walk(func(domain.Category, int) { seen++ })
	}
	assert.Equal(t, 7, seen)
}

func TestRecoveryAndUnknownRoute(t *testing.T) {
	srv := New(Config{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
