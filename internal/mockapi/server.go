// Package mockapi serves a fake portal backend over HTTP. Every list
// endpoint answers in a different envelope so clients exercise the whole
// normalizer.
package mockapi

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/honeycarbs/career-compass/pkg/logging"
)

const (
	defaultTokenTTL = time.Hour
	maxLimit        = 1000
)

// Config configures the mock backend
type Config struct {
	Addr     string
	Secret   string
	TokenTTL time.Duration
	Clock    func() time.Time
	Logger   *logging.Logger
}

// Server is an in-memory portal backend
type Server struct {
	secret []byte
	ttl    time.Duration
	clock  func() time.Time
	logger *logging.Logger
	engine *gin.Engine
	srv    *http.Server

	mu         sync.RWMutex
	careers    []career
	categories []category
	users      []user
	favorites  map[int]map[int]struct{}
}

// New builds the mock backend with its seed data
func New(cfg Config) *Server {
	if cfg.Secret == "" {
		cfg.Secret = "mock-secret"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	s := &Server{
		secret:     []byte(cfg.Secret),
		ttl:        cfg.TokenTTL,
		clock:      cfg.Clock,
		logger:     cfg.Logger.Named("mockapi"),
		categories: seedCategories(),
		users:      seedUsers(),
		favorites:  make(map[int]map[int]struct{}),
	}

	names := make(map[int]string, len(s.categories))
	for _, c := range s.categories {
		names[c.ID] = c.Name
	}
	for _, c := range seedCareers() {
		c.CategoryName = names[c.CategoryID]
		s.careers = append(s.careers, c)
	}

	s.engine = s.routes()
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router, e.g. for httptest
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on Config.Addr until Shutdown
func (s *Server) Run() error {
	s.logger.Info("mock portal listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(s.recovery(), s.requestLog())

	v1 := r.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/login", s.login)
	authGroup.POST("/register", s.register)
	authGroup.GET("/me", s.auth(), s.me)

	careers := v1.Group("/careers")
	careers.GET("/", s.listCareers)
	careers.GET("/search/", s.searchCareers)
	careers.GET("/skills/", s.careersBySkills)
	careers.GET("/recommendations", s.auth(), s.recommendations)
	careers.GET("/:id", s.careerDetail)
	careers.POST("/:id/favorite", s.auth(), s.addFavorite)
	careers.DELETE("/:id/favorite", s.auth(), s.removeFavorite)
	careers.GET("/:id/is_favorite", s.auth(), s.isFavorite)

	// the first favorites route the client tries is deliberately absent
	v1.GET("/user/favorites/careers", s.auth(), s.listFavorites)

	v1.GET("/careers-sync/category/:id", s.categoryCareers)

	cats := v1.Group("/career-categories")
	cats.GET("/", s.listCategories)
	cats.GET("/roots", s.rootCategories)
	cats.GET("/complete-tree", s.categoryTree)
	cats.GET("/:id", s.categoryDetail)
	cats.GET("/:id/subcategories", s.subcategories)

	return r
}

// page reads skip/limit, clamping limit to (0, maxLimit]
func page(c *gin.Context) (skip, limit int) {
	skip = queryInt(c, "skip", 0)
	limit = queryInt(c, "limit", 20)
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit
}

func window[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	return items[skip:min(skip+limit, len(items))]
}

// sortCareers applies ?sort=field or ?sort=-field
func sortCareers(items []career, spec string) {
	if spec == "" {
		return
	}
	desc := strings.HasPrefix(spec, "-")
	field := strings.TrimPrefix(spec, "-")

	slices.SortStableFunc(items, func(a, b career) int {
		var d int
		switch field {
		case "salary", "salary_max":
			d = cmpFloat(a.SalaryMax, b.SalaryMax)
		case "id":
			d = a.ID - b.ID
		default:
			d = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
		if desc {
			return -d
		}
		return d
	})
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// descendants returns id and every category below it
func (s *Server) descendants(id int) map[int]struct{} {
	out := map[int]struct{}{id: {}}
	for changed := true; changed; {
		changed = false
		for _, c := range s.categories {
			if c.ParentID == nil {
				continue
			}
			if _, ok := out[*c.ParentID]; !ok {
				continue
			}
			if _, seen := out[c.ID]; !seen {
				out[c.ID] = struct{}{}
				changed = true
			}
		}
	}
	return out
}

// tree nests the flat category list under its roots, depth levels deep;
// a negative depth nests everything
func (s *Server) tree(depth int) []category {
	var build func(parentID *int, level int) []category
	build = func(parentID *int, level int) []category {
		var out []category
		for _, c := range s.categories {
			if (parentID == nil) != (c.ParentID == nil) {
				continue
			}
			if parentID != nil && *c.ParentID != *parentID {
				continue
			}
			if depth < 0 || level < depth {
				c.Children = build(parent(c.ID), level+1)
			}
			out = append(out, c)
		}
		return out
	}
	return build(nil, 0)
}
