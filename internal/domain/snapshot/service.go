package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/domain/career"
	"github.com/honeycarbs/career-compass/internal/normalize"
	"github.com/honeycarbs/career-compass/internal/repository"
	"github.com/honeycarbs/career-compass/pkg/logging"
)

// Request selects what to copy into the graph
type Request struct {
	Categories []string
	// UserID enables the favorites copy for that user
	UserID string
}

// Report summarises a snapshot run
type Report struct {
	Careers     int       `json:"careers"`
	Favorites   int       `json:"favorites"`
	CompletedAt time.Time `json:"completed_at"`
}

// Service copies catalogue data from the portal into a graph repository
type Service struct {
	careers career.Service
	repo    repository.CareerRepository
	logger  *logging.Logger
	clock   func() time.Time
}

// NewService creates a snapshot service
func NewService(careers career.Service, repo repository.CareerRepository, logger *logging.Logger) (*Service, error) {
	if careers == nil {
		return nil, fmt.Errorf("snapshot.Service: career service is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("snapshot.Service: repository is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{careers: careers, repo: repo, logger: logger.Named("snapshot"), clock: time.Now}, nil
}

// Run copies each requested category and, when a user is given, their
// favorites
func (s *Service) Run(ctx context.Context, req Request) (Report, error) {
	var report Report

	for _, id := range req.Categories {
		res, err := s.careers.CategoryCareers(ctx, id,
			normalize.PaginationParams{Page: 1, PageSize: career.DefaultCategoryWindow},
			domain.CareerQuery{},
		)
		if err != nil {
			return report, err
		}
		if err := s.repo.UpsertCareers(ctx, res.Items); err != nil {
			return report, err
		}
		report.Careers += len(res.Items)
		s.logger.Info("category copied", "category", id, "careers", len(res.Items))
	}

	if req.UserID != "" {
		favs, err := s.careers.Favorites(ctx)
		if err != nil {
			return report, err
		}
		if err := s.repo.UpsertCareers(ctx, favs); err != nil {
			return report, err
		}
		ids := make([]domain.ID, 0, len(favs))
		for _, f := range favs {
			ids = append(ids, f.ID)
		}
		if err := s.repo.UpsertFavorites(ctx, req.UserID, ids); err != nil {
			return report, err
		}
		report.Favorites = len(ids)
	}

	report.CompletedAt = s.clock().UTC()
	return report, nil
}
