package repository

import (
	"context"

	"github.com/honeycarbs/career-compass/internal/domain"
)

// CareerRepository stores snapshots of the catalogue in a graph
type CareerRepository interface {
	UpsertCareers(ctx context.Context, careers []domain.Career) error
	UpsertFavorites(ctx context.Context, userID string, careerIDs []domain.ID) error
	FindByIDs(ctx context.Context, ids []domain.ID) ([]domain.Career, error)
}
