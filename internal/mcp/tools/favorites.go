package tools

import (
	"context"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/career-compass/internal/domain/career"
	"github.com/honeycarbs/career-compass/pkg/logging"
)

// ErrSignedOut is returned by tools that need a portal session
var ErrSignedOut = errors.New("not signed in to the portal; run `portal login` first")

// SessionState is the part of the auth session the tools consult.
// *auth.Session satisfies it.
type SessionState interface {
	LoggedIn() bool
	HandleUnauthorized(ctx context.Context, err error) bool
}

// FavoritesListParams defines the (empty) arguments for the favorites_list tool
type FavoritesListParams struct{}

// FavoriteToggleParams defines the arguments for the favorite_toggle tool
type FavoriteToggleParams struct {
	CareerID string `json:"career_id" jsonschema:"Numeric career identifier"`
}

// RecommendationsParams defines the arguments for the recommendations tool
type RecommendationsParams struct {
	UserID string `json:"user_id,omitempty" jsonschema:"User to recommend for; empty means the signed-in user"`
}

// FavoriteToggleResult reports the favorite state after the toggle
type FavoriteToggleResult struct {
	CareerID   string `json:"career_id"`
	IsFavorite bool   `json:"is_favorite"`
}

type favoriteTools struct {
	service career.Service
	session SessionState
	logger  *logging.Logger
}

// WithFavoriteTools registers the tools that need a portal session:
// favorites_list, favorite_toggle and recommendations
func WithFavoriteTools(service career.Service, session SessionState) Option {
	return func(reg *registry) {
		t := favoriteTools{service: service, session: session, logger: reg.logger}
		add(reg, "favorites_list", "List the signed-in user's favorite careers", t.list)
		add(reg, "favorite_toggle", "Add a career to favorites, or remove it if already there", t.toggle)
		add(reg, "recommendations", "Fetch career recommendations with match scores", t.recommendations)
	}
}

// sessionErr ends the session when err is a 401 for the held token
func (t favoriteTools) sessionErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if t.session != nil && t.session.HandleUnauthorized(ctx, err) {
		t.logger.Warn("portal session expired")
		return errors.Join(ErrSignedOut, err)
	}
	return err
}

func (t favoriteTools) list(ctx context.Context, _ *sdkmcp.CallToolRequest, _ FavoritesListParams) (*sdkmcp.CallToolResult, any, error) {
	if t.session != nil && !t.session.LoggedIn() {
		return nil, nil, ErrSignedOut
	}
	favs, err := t.service.Favorites(ctx)
	if err := t.sessionErr(ctx, err); err != nil {
		return nil, nil, err
	}
	return jsonResult(favs)
}

func (t favoriteTools) toggle(ctx context.Context, _ *sdkmcp.CallToolRequest, params FavoriteToggleParams) (*sdkmcp.CallToolResult, any, error) {
	if t.session != nil && !t.session.LoggedIn() {
		return nil, nil, ErrSignedOut
	}
	fav, err := t.service.ToggleFavorite(ctx, params.CareerID)
	if err := t.sessionErr(ctx, err); err != nil {
		return nil, nil, err
	}
	t.logger.Info("favorite toggled", "career", params.CareerID, "favorite", fav)
	return jsonResult(FavoriteToggleResult{CareerID: params.CareerID, IsFavorite: fav})
}

func (t favoriteTools) recommendations(ctx context.Context, _ *sdkmcp.CallToolRequest, params RecommendationsParams) (*sdkmcp.CallToolResult, any, error) {
	if t.session != nil && !t.session.LoggedIn() {
		return nil, nil, ErrSignedOut
	}
	recs, err := t.service.Recommendations(ctx, params.UserID)
	if err := t.sessionErr(ctx, err); err != nil {
		return nil, nil, err
	}
	return jsonResult(recs)
}
