package career

import (
	"context"
	"fmt"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/normalize"
	"github.com/honeycarbs/career-compass/pkg/portalapi"
)

// Favorites lists the signed-in user's favorite careers, each flagged as such
func (s *service) Favorites(ctx context.Context) ([]domain.Career, error) {
	raw, err := s.api.FavoriteCareers(ctx)
	if err != nil {
		return nil, fmt.Errorf("career: favorites: %w", err)
	}
	items := normalize.DecodeList[domain.Career](raw)
	for i := range items {
		items[i].IsFavorite = true
	}
	return items, nil
}

// AddFavorite marks a career as favorite
func (s *service) AddFavorite(ctx context.Context, careerID string) error {
	id, err := portalapi.ParseCareerID(careerID)
	if err != nil {
		return err
	}
	if _, err := s.api.AddFavorite(ctx, id); err != nil {
		return fmt.Errorf("career: add favorite %d: %w", id, err)
	}
	s.logger.Info("favorite added", "career", id)
	return nil
}

// RemoveFavorite unmarks a career
func (s *service) RemoveFavorite(ctx context.Context, careerID string) error {
	id, err := portalapi.ParseCareerID(careerID)
	if err != nil {
		return err
	}
	if _, err := s.api.RemoveFavorite(ctx, id); err != nil {
		return fmt.Errorf("career: remove favorite %d: %w", id, err)
	}
	s.logger.Info("favorite removed", "career", id)
	return nil
}

// IsFavorite reports whether the signed-in user has favorited a career
func (s *service) IsFavorite(ctx context.Context, careerID string) (bool, error) {
	id, err := portalapi.ParseCareerID(careerID)
	if err != nil {
		return false, err
	}
	raw, err := s.api.IsFavorite(ctx, id)
	if err != nil {
		return false, fmt.Errorf("career: check favorite %d: %w", id, err)
	}
	return normalize.ParseBool(raw), nil
}

// ToggleFavorite flips a career's favorite state and returns the new state
func (s *service) ToggleFavorite(ctx context.Context, careerID string) (bool, error) {
	fav, err := s.IsFavorite(ctx, careerID)
	if err != nil {
		return false, err
	}
	if fav {
		if err := s.RemoveFavorite(ctx, careerID); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.AddFavorite(ctx, careerID); err != nil {
		return false, err
	}
	return true, nil
}
