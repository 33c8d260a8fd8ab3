package portalapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// APIPrefix is the versioned root every endpoint lives under
const APIPrefix = "/api/v1"

// favoritesPaths are tried in order; deployments have exposed the list under
// each of them
var favoritesPaths = []string{
	APIPrefix + "/careers/favorites",
	APIPrefix + "/user/favorites/careers",
	APIPrefix + "/user/careers/favorites",
}

func pageQuery(page Page) url.Values {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(page.Skip))
	q.Set("limit", strconv.Itoa(page.Limit))
	return q
}

func withSort(q url.Values, opts ListOptions) url.Values {
	if opts.SortBy != "" {
		q.Set("sort", opts.SortBy)
	}
	return q
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func escapeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("portalapi: id is required")
	}
	return url.PathEscape(id), nil
}

// ListCareers fetches one page of the career catalogue
func (c *Client) ListCareers(ctx context.Context, page Page, opts ListOptions) ([]byte, error) {
	return c.get(ctx, APIPrefix+"/careers/", withSort(pageQuery(page), opts))
}

// CareerDetail fetches one career
func (c *Client) CareerDetail(ctx context.Context, id string) ([]byte, error) {
	esc, err := escapeID(id)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, APIPrefix+"/careers/"+esc, nil)
}

// SearchCareers runs a keyword search. The keyword goes out as both keyword
// and q since backend versions disagree on the parameter name.
func (c *Client) SearchCareers(ctx context.Context, keyword string, page Page, opts ListOptions) ([]byte, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, fmt.Errorf("portalapi: search keyword is required")
	}
	q := withSort(pageQuery(page), opts)
	q.Set("keyword", keyword)
	q.Set("q", keyword)
	return c.get(ctx, APIPrefix+"/careers/search/", q)
}

// CareersBySkills lists careers requiring any of skills
func (c *Client) CareersBySkills(ctx context.Context, skills []string, page Page, opts ListOptions) ([]byte, error) {
	if len(skills) == 0 {
		return nil, fmt.Errorf("portalapi: at least one skill is required")
	}
	q := withSort(pageQuery(page), opts)
	q.Set("skills", strings.Join(skills, ","))
	return c.get(ctx, APIPrefix+"/careers/skills/", q)
}

// CategoryCareers lists the careers filed under a category
func (c *Client) CategoryCareers(ctx context.Context, categoryID string, page Page, includeSub bool, opts ListOptions) ([]byte, error) {
	esc, err := escapeID(categoryID)
	if err != nil {
		return nil, err
	}
	q := withSort(pageQuery(page), opts)
	q.Set("include_subcategories", flag(includeSub))
	return c.get(ctx, APIPrefix+"/careers-sync/category/"+esc, q)
}

// Categories lists career categories
func (c *Client) Categories(ctx context.Context, page Page, includeChildren bool) ([]byte, error) {
	q := pageQuery(page)
	q.Set("include_children", strconv.FormatBool(includeChildren))
	return c.get(ctx, APIPrefix+"/career-categories/", q)
}

// RootCategories lists the top level of the category tree
func (c *Client) RootCategories(ctx context.Context, page Page, includeChildren, includeAllChildren bool) ([]byte, error) {
	q := pageQuery(page)
	q.Set("include_children", strconv.FormatBool(includeChildren))
	q.Set("include_all_children", strconv.FormatBool(includeAllChildren))
	return c.get(ctx, APIPrefix+"/career-categories/roots", q)
}

// CategoryTree fetches the complete category tree
func (c *Client) CategoryTree(ctx context.Context) ([]byte, error) {
	return c.get(ctx, APIPrefix+"/career-categories/complete-tree", nil)
}

// Category fetches one category
func (c *Client) Category(ctx context.Context, id string) ([]byte, error) {
	esc, err := escapeID(id)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, APIPrefix+"/career-categories/"+esc, nil)
}

// Subcategories lists the children of a category
func (c *Client) Subcategories(ctx context.Context, id string, page Page, includeChildren bool) ([]byte, error) {
	esc, err := escapeID(id)
	if err != nil {
		return nil, err
	}
	q := pageQuery(page)
	q.Set("include_children", strconv.FormatBool(includeChildren))
	return c.get(ctx, APIPrefix+"/career-categories/"+esc+"/subcategories", q)
}

// Recommendations fetches career recommendations, for userID when given
func (c *Client) Recommendations(ctx context.Context, userID string) ([]byte, error) {
	var q url.Values
	if userID = strings.TrimSpace(userID); userID != "" {
		q = url.Values{"user_id": {userID}}
	}
	return c.get(ctx, APIPrefix+"/careers/recommendations", q)
}

// FavoriteCareers fetches the signed-in user's favorites, trying each known
// route until one answers with a non-empty body. A 401 ends the search;
// otherwise the last error is returned when no route answers.
func (c *Client) FavoriteCareers(ctx context.Context) ([]byte, error) {
	var lastErr error
	for _, p := range favoritesPaths {
		raw, err := c.get(ctx, p, nil)
		if err != nil {
			if ctx.Err() != nil || IsUnauthorized(err) {
				return nil, err
			}
			c.logger.Debug("favorites path failed", "path", p, "err", err)
			lastErr = err
			continue
		}
		if len(strings.TrimSpace(string(raw))) > 0 && string(raw) != "null" {
			return raw, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoFavoritesPath
}

// AddFavorite marks a career as favorite
func (c *Client) AddFavorite(ctx context.Context, careerID int) ([]byte, error) {
	return c.do(ctx, request{method: http.MethodPost, path: favoritePath(careerID)})
}

// RemoveFavorite unmarks a career
func (c *Client) RemoveFavorite(ctx context.Context, careerID int) ([]byte, error) {
	return c.Delete(ctx, favoritePath(careerID))
}

// IsFavorite returns the raw favorite-check answer
func (c *Client) IsFavorite(ctx context.Context, careerID int) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf("%s/careers/%d/is_favorite", APIPrefix, careerID), nil)
}

func favoritePath(careerID int) string {
	return fmt.Sprintf("%s/careers/%d/favorite", APIPrefix, careerID)
}

// Register creates an account
func (c *Client) Register(ctx context.Context, reg Registration) ([]byte, error) {
	if reg.Username == "" || reg.Password == "" {
		return nil, fmt.Errorf("portalapi: username and password are required")
	}
	return c.PostJSON(ctx, APIPrefix+"/auth/register", reg)
}

// Login posts the OAuth2 password form and returns the raw token response
func (c *Client) Login(ctx context.Context, creds Credentials) ([]byte, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("portalapi: username and password are required")
	}
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)
	return c.PostForm(ctx, APIPrefix+"/auth/login", form)
}

// Me fetches the authenticated user
func (c *Client) Me(ctx context.Context) ([]byte, error) {
	return c.get(ctx, APIPrefix+"/auth/me", nil)
}

// ParseCareerID converts a career id to the integer form favorite routes
// require
func ParseCareerID(id string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil {
		return 0, fmt.Errorf("portalapi: career id must be an integer, got %q: %w", id, err)
	}
	return n, nil
}
