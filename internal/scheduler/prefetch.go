// Package scheduler runs the cron job that keeps hot categories warm in the
// career cache.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/honeycarbs/career-compass/pkg/logging"
)

const defaultParallelism = 4

// Refresher reloads one category into the cache. The career service
// satisfies it.
type Refresher interface {
	RefreshCategory(ctx context.Context, categoryID string) (int, error)
	CacheBypassed(categoryID string) bool
}

// Config defines the prefetch schedule
type Config struct {
	// Spec is a cron spec such as "@every 25m"
	Spec        string
	Categories  []string
	Parallelism int
	// RunOnStart triggers one cycle immediately
	RunOnStart bool
}

// Prefetcher wraps robfig/cron and refreshes the configured categories
type Prefetcher struct {
	cron      *cron.Cron
	refresher Refresher
	cfg       Config
	logger    *logging.Logger

	wg sync.WaitGroup
}

// New creates a Prefetcher; nothing runs until Start
func New(refresher Refresher, cfg Config, logger *logging.Logger) (*Prefetcher, error) {
	if refresher == nil {
		return nil, fmt.Errorf("scheduler: refresher is required")
	}
	if cfg.Spec == "" {
		return nil, fmt.Errorf("scheduler: cron spec is required")
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallelism
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Prefetcher{
		cron:      cron.New(),
		refresher: refresher,
		cfg:       cfg,
		logger:    logger.Named("prefetch"),
	}, nil
}

// Start registers the job and starts the scheduler
func (p *Prefetcher) Start(ctx context.Context) error {
	_, err := p.cron.AddFunc(p.cfg.Spec, func() {
		p.track(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	p.cron.Start()
	p.logger.Info("prefetch scheduled", "spec", p.cfg.Spec, "categories", len(p.cfg.Categories))

	if p.cfg.RunOnStart {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.track(ctx)
		}()
	}
	return nil
}

func (p *Prefetcher) track(ctx context.Context) {
	if _, err := p.RunOnce(ctx); err != nil {
		p.logger.Warn("prefetch cycle finished with errors", "err", err)
	}
}

// Stop stops scheduling and waits for a running cycle to finish
func (p *Prefetcher) Stop() {
	<-p.cron.Stop().Done()
	p.wg.Wait()
	p.logger.Info("prefetch stopped")
}

// RunOnce refreshes every configured category that is not bypassed, at most
// Parallelism at a time, and returns the number refreshed. Every category is
// attempted; the first error is returned.
func (p *Prefetcher) RunOnce(ctx context.Context) (int, error) {
	var (
		mu        sync.Mutex
		refreshed int
	)

	var g errgroup.Group
	g.SetLimit(p.cfg.Parallelism)

	for _, id := range p.cfg.Categories {
		if p.refresher.CacheBypassed(id) {
			p.logger.Debug("skipping bypassed category", "category", id)
			continue
		}
		g.Go(func() error {
			n, err := p.refresher.RefreshCategory(ctx, id)
			if err != nil {
				p.logger.Warn("category refresh failed", "category", id, "err", err)
				return err
			}
			mu.Lock()
			refreshed++
			mu.Unlock()
			p.logger.Debug("category refreshed", "category", id, "careers", n)
			return nil
		})
	}

	err := g.Wait()
	return refreshed, err
}
