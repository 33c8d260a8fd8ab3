package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/domain/career"
	"github.com/honeycarbs/career-compass/internal/normalize"
)

// stubCareers implements the two career.Service calls a snapshot makes
type stubCareers struct {
	career.Service
	byCategory map[string][]domain.Career
	favorites  []domain.Career
}

func (s *stubCareers) CategoryCareers(_ context.Context, id string, p normalize.PaginationParams, _ domain.CareerQuery) (normalize.PaginatedResult[domain.Career], error) {
	items, ok := s.byCategory[id]
	if !ok {
		return normalize.Empty[domain.Career](p), errors.New("unknown category")
	}
	return normalize.Paginate(items, len(items), p), nil
}

func (s *stubCareers) Favorites(context.Context) ([]domain.Career, error) {
	return s.favorites, nil
}

type memoryRepo struct {
	careers   map[domain.ID]domain.Career
	favorites map[string][]domain.ID
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{careers: map[domain.ID]domain.Career{}, favorites: map[string][]domain.ID{}}
}

func (r *memoryRepo) UpsertCareers(_ context.Context, careers []domain.Career) error {
	for _, c := range careers {
		r.careers[c.ID] = c
	}
	return nil
}

func (r *memoryRepo) UpsertFavorites(_ context.Context, userID string, ids []domain.ID) error {
	r.favorites[userID] = ids
	return nil
}

func (r *memoryRepo) FindByIDs(_ context.Context, ids []domain.ID) ([]domain.Career, error) {
	out := make([]domain.Career, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.careers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestRun(t *testing.T) {
	careers := &stubCareers{
		byCategory: map[string][]domain.Career{
			"1": {{ID: "10", Title: "Nurse"}, {ID: "11", Title: "Medic"}},
			"2": {{ID: "20", Title: "Pilot"}},
		},
		favorites: []domain.Career{{ID: "20", Title: "Pilot"}, {ID: "30", Title: "Chef"}},
	}
	repo := newMemoryRepo()
	svc, err := NewService(careers, repo, nil)
	require.NoError(t, err)

	report, err := svc.Run(context.Background(), Request{Categories: []string{"1", "2"}, UserID: "7"})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Careers)
	assert.Equal(t, 2, report.Favorites)
	assert.Len(t, repo.careers, 4)
	assert.Equal(t, []domain.ID{"20", "30"}, repo.favorites["7"])
	assert.False(t, report.CompletedAt.IsZero())
}

func TestRun_SkipsFavoritesWithoutUser(t *testing.T) {
	repo := newMemoryRepo()
	svc, err := NewService(&stubCareers{byCategory: map[string][]domain.Career{}}, repo, nil)
	require.NoError(t, err)

	report, err := svc.Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.Zero(t, report.Favorites)
	assert.Empty(t, repo.favorites)
}

func TestRun_StopsOnCategoryError(t *testing.T) {
	svc, err := NewService(&stubCareers{byCategory: map[string][]domain.Career{}}, newMemoryRepo(), nil)
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), Request{Categories: []string{"missing"}})
	assert.Error(t, err)
}

func TestNewService_RequiresDeps(t *testing.T) {
	_, err := NewService(nil, newMemoryRepo(), nil)
	assert.Error(t, err)
	_, err = NewService(&stubCareers{}, nil, nil)
	assert.Error(t, err)
}
