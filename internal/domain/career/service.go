package career

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/honeycarbs/career-compass/internal/cache"
	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/normalize"
	"github.com/honeycarbs/career-compass/internal/storage/kv"
	"github.com/honeycarbs/career-compass/pkg/logging"
)

// ErrNotFound is returned when the backend has no such career
var ErrNotFound = errors.New("career: not found")

const (
	// DefaultCategoryWindow is how many careers one category fetch asks for.
	// Category lists are fetched whole and paged locally.
	DefaultCategoryWindow = 500

	// CacheStateKey is where the list cache snapshot is persisted
	CacheStateKey = "career_cache"

	categoryListLimit = 1000
)

type Service interface {
	List(ctx context.Context, p normalize.PaginationParams, q domain.CareerQuery) (normalize.PaginatedResult[domain.Career], error)
	Detail(ctx context.Context, id string) (domain.Career, error)
	Search(ctx context.Context, keyword string, p normalize.PaginationParams, q domain.CareerQuery) (normalize.PaginatedResult[domain.Career], error)
	BySkills(ctx context.Context, skills []string, p normalize.PaginationParams, q domain.CareerQuery) (normalize.PaginatedResult[domain.Career], error)

	CategoryCareers(ctx context.Context, categoryID string, p normalize.PaginationParams, q domain.CareerQuery) (normalize.PaginatedResult[domain.Career], error)
	RefreshCategory(ctx context.Context, categoryID string) (int, error)
	InvalidateCategory(ctx context.Context, categoryID string)
	InvalidateAll(ctx context.Context)
	SetCacheTTL(ttl time.Duration) bool
	CacheBypassed(categoryID string) bool

	Categories(ctx context.Context, includeChildren bool) ([]domain.Category, error)
	CategoryTree(ctx context.Context) ([]domain.Category, error)
	Recommendations(ctx context.Context, userID string) (domain.Recommendations, error)

	Favorites(ctx context.Context) ([]domain.Career, error)
	AddFavorite(ctx context.Context, careerID string) error
	RemoveFavorite(ctx context.Context, careerID string) error
	IsFavorite(ctx context.Context, careerID string) (bool, error)
	ToggleFavorite(ctx context.Context, careerID string) (bool, error)
}

// Option configures Service
type Option func(*config)

type config struct {
	api       API
	cache     *cache.TTL[domain.Career]
	store     kv.Store
	logger    *logging.Logger
	clock     func() time.Time
	window    int
	supersede bool
}

// WithAPI sets the backend client
func WithAPI(api API) Option {
	return func(c *config) {
		c.api = api
	}
}

// WithCache sets the category list cache
func WithCache(ttl *cache.TTL[domain.Career]) Option {
	return func(c *config) {
		c.cache = ttl
	}
}

// WithStore persists the list cache between runs
func WithStore(store kv.Store) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithClock sets a custom clock
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithCategoryWindow sets how many careers a category fetch requests
func WithCategoryWindow(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.window = n
		}
	}
}

// WithSupersede makes a new List, Search, BySkills or CategoryCareers call
// cancel the previous in-flight call of the same kind; the older call then
// returns ErrStale. Meant for single-user front ends.
func WithSupersede() Option {
	return func(c *config) {
		c.supersede = true
	}
}

// NewService builds Service from options
func NewService(opts ...Option) (Service, error) {
	cfg := &config{
		clock:  time.Now,
		window: DefaultCategoryWindow,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.api == nil {
		return nil, fmt.Errorf("career.Service: api is required")
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}
	if cfg.cache == nil {
		cfg.cache = cache.New[domain.Career](cache.WithClock(cfg.clock))
	}

	s := &service{
		api:       cfg.api,
		cache:     cfg.cache,
		store:     cfg.store,
		logger:    cfg.logger.Named("career"),
		clock:     cfg.clock,
		window:    cfg.window,
		supersede: cfg.supersede,
		gens:      NewGenerations(),
	}
	s.restore(context.Background())
	return s, nil
}

type service struct {
	api       API
	cache     *cache.TTL[domain.Career]
	store     kv.Store
	logger    *logging.Logger
	clock     func() time.Time
	window    int
	supersede bool

	gens  *Generations
	group singleflight.Group
}

// guard applies supersession for key when enabled. finish must be called
// with the operation's error and returns ErrStale for a superseded call.
func (s *service) guard(ctx context.Context, key string) (context.Context, func(error) error) {
	if !s.supersede {
		return ctx, func(err error) error { return err }
	}
	gctx, token := s.gens.Begin(ctx, "op:"+key)
	return gctx, func(err error) error {
		defer s.gens.Done("op:"+key, token)
		if !s.gens.Current("op:"+key, token) {
			return ErrStale
		}
		return err
	}
}

// restore loads a persisted cache snapshot; failures only cost a refetch
func (s *service) restore(ctx context.Context) {
	if s.store == nil {
		return
	}
	var snap map[string]cache.Entry[domain.Career]
	if err := kv.GetJSON(ctx, s.store, CacheStateKey, &snap); err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.Warn("failed to restore career cache", "err", err)
		}
		return
	}
	n := s.cache.Restore(snap)
	s.logger.Debug("restored career cache", "entries", n)
}

func (s *service) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := kv.SetJSON(ctx, s.store, CacheStateKey, s.cache.Snapshot()); err != nil {
		s.logger.Warn("failed to persist career cache", "err", err)
	}
}
