package career

import (
	"context"

	"github.com/honeycarbs/career-compass/pkg/portalapi"
)

// API is the slice of the portal backend the service consumes.
// *portalapi.Client satisfies it.
type API interface {
	ListCareers(ctx context.Context, page portalapi.Page, opts portalapi.ListOptions) ([]byte, error)
	CareerDetail(ctx context.Context, id string) ([]byte, error)
	SearchCareers(ctx context.Context, keyword string, page portalapi.Page, opts portalapi.ListOptions) ([]byte, error)
	CareersBySkills(ctx context.Context, skills []string, page portalapi.Page, opts portalapi.ListOptions) ([]byte, error)
	CategoryCareers(ctx context.Context, categoryID string, page portalapi.Page, includeSub bool, opts portalapi.ListOptions) ([]byte, error)
	Categories(ctx context.Context, page portalapi.Page, includeChildren bool) ([]byte, error)
	CategoryTree(ctx context.Context) ([]byte, error)
	Recommendations(ctx context.Context, userID string) ([]byte, error)
	FavoriteCareers(ctx context.Context) ([]byte, error)
	AddFavorite(ctx context.Context, careerID int) ([]byte, error)
	RemoveFavorite(ctx context.Context, careerID int) ([]byte, error)
	IsFavorite(ctx context.Context, careerID int) ([]byte, error)
}

var _ API = (*portalapi.Client)(nil)
