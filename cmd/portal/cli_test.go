package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/career-compass/internal/mockapi"
)

type harness struct {
	t      *testing.T
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := httptest.NewServer(mockapi.New(mockapi.Config{Secret: "test"}).Handler())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("PORTAL_BASE_URL", srv.URL+"/api/v1")
	t.Setenv("PORTAL_STATE_FILE", filepath.Join(dir, "state.json"))
	t.Setenv("PORTAL_PASSWORD", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("NEO4J_URI", "")
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "")
	t.Setenv("LOG_LEVEL", "error")
	return &harness{t: t, config: filepath.Join(dir, "missing.yaml")}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", h.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) login() {
	h.t.Helper()
	out, err := h.run("", "login", "admin", "--password", "admin123")
	require.NoError(h.t, err)
	require.Contains(h.t, out, "signed in as admin")
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("wrong\n", "login", "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect username or password")

	out, err := h.run("admin123\n", "login", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "signed in as admin")

	out, err = h.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "admin@example.com")
}

func TestSessionCommands_RequireLogin(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{
		{"whoami"},
		{"recommend"},
		{"favorites", "list"},
		{"favorites", "add", "1"},
	} {
		_, err := h.run("", args...)
		assert.ErrorIs(t, err, errSignedOut, "%v", args)
	}
}

func TestCareers(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "careers", "list", "--page-size", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Backend Engineer")
	assert.Contains(t, out, "page 1, 3 of 16, next: --page 2")

	out, err = h.run("", "--json", "careers", "search", "nurse")
	require.NoError(t, err)
	var page struct {
		Items []struct {
			Title string `json:"title"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 2, page.Total)

	out, err = h.run("", "careers", "skills", "kotlin,swift")
	require.NoError(t, err)
	assert.Contains(t, out, "Mobile Developer")

	out, err = h.run("", "careers", "category", "1", "--include-subcategories", "--sort", "-salary", "--page-size", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Machine Learning Engineer")

	out, err = h.run("", "careers", "show", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered Nurse")
	assert.Contains(t, out, "60000-95000")

	_, err = h.run("", "careers", "show", "999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "career 999 does not exist")
}

func TestCategories(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "Technology")
	assert.Contains(t, out, "\n  Software")

	out, err = h.run("", "--json", "categories", "--flat")
	require.NoError(t, err)
	var cats []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cats))
	assert.Len(t, cats, 7)
}

func TestFavoritesAndRecommendations(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "favorites", "add", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "career 6 is a favorite")

	out, err = h.run("", "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Data Analyst")

	out, err = h.run("", "recommend")
	require.NoError(t, err)
	assert.Contains(t, out, "Recommended careers")

	out, err = h.run("", "--json", "favorites", "toggle", "6")
	require.NoError(t, err)
	var state favoriteState
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.False(t, state.IsFavorite)

	out, err = h.run("", "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no favorites yet")

	_, err = h.run("", "logout")
	require.NoError(t, err)
	_, err = h.run("", "favorites", "list")
	assert.ErrorIs(t, err, errSignedOut)
}

func TestCacheCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "cache", "refresh", "11", "33")
	require.NoError(t, err)
	assert.Contains(t, out, "category 11: 5 careers cached")
	assert.Contains(t, out, "category 33 bypasses the cache")

	out, err = h.run("", "cache", "clear", "--category", "11")
	require.NoError(t, err)
	assert.Contains(t, out, "category 11 dropped")

	out, err = h.run("", "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "cache cleared")
}

func TestIntegrations_NotConfigured(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "export", "sheets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_SHEETS_CREDENTIALS_PATH")

	_, err = h.run("", "snapshot", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEO4J_URI")
}

func TestReadSecret(t *testing.T) {
	t.Setenv("PORTAL_PASSWORD", "")

	got, err := readSecret(strings.NewReader("ignored\n"), "flag")
	require.NoError(t, err)
	assert.Equal(t, "flag", got)

	got, err = readSecret(strings.NewReader("from-stdin\r\n"), "")
	require.NoError(t, err)
	assert.Equal(t, "from-stdin", got)

	_, err = readSecret(strings.NewReader(""), "")
	assert.Error(t, err)

	t.Setenv("PORTAL_PASSWORD", "from-env")
	got, err = readSecret(strings.NewReader(""), "")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}

func TestTable_TruncatesLongCells(t *testing.T) {
	tbl := &table{headers: []string{"ID", "TITLE"}}
	tbl.add("1", strings.Repeat("x", 100))
	out := tbl.render()
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, strings.Repeat("x", maxCell))
}
