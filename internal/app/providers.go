package app

import (
	"context"
	"fmt"

	"github.com/honeycarbs/career-compass/internal/cache"
	"github.com/honeycarbs/career-compass/internal/config"
	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/internal/domain/auth"
	"github.com/honeycarbs/career-compass/internal/domain/career"
	"github.com/honeycarbs/career-compass/internal/domain/snapshot"
	"github.com/honeycarbs/career-compass/internal/export"
	"github.com/honeycarbs/career-compass/internal/scheduler"
	"github.com/honeycarbs/career-compass/internal/storage/kv"
	storage "github.com/honeycarbs/career-compass/internal/storage/neo4j"
	"github.com/honeycarbs/career-compass/pkg/logging"
	n4j "github.com/honeycarbs/career-compass/pkg/neo4j"
	"github.com/honeycarbs/career-compass/pkg/portalapi"
	sheetsclient "github.com/honeycarbs/career-compass/pkg/sheets"
)

// provideStore opens Redis when a URL is configured, the state file otherwise
func provideStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (kv.Store, func(), error) {
	if cfg.State.RedisURL != "" {
		client, err := kv.NewRedisClient(ctx, cfg.State.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := kv.NewRedisStore(client, cfg.State.RedisPrefix)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.Debug("using redis state store", "prefix", cfg.State.RedisPrefix)
		return store, func() { _ = store.Close() }, nil
	}

	store, err := kv.NewFileStore(cfg.State.File)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("using file state store", "path", store.Path())
	return store, func() {}, nil
}

func provideSession(ctx context.Context, store kv.Store, cfg config.Config, logger *logging.Logger) (*auth.Session, error) {
	return auth.NewSession(ctx, store,
		auth.WithTokenKey(cfg.Auth.TokenKey),
		auth.WithLogger(logger),
	)
}

// providePortalConfig extracts the client config; the session is the token source
func providePortalConfig(cfg config.Config, session *auth.Session, logger *logging.Logger) portalapi.Config {
	return portalapi.Config{
		BaseURL:      cfg.Portal.BaseURL,
		Timeout:      cfg.Portal.Timeout,
		MaxRedirects: cfg.Portal.MaxRedirects,
		MaxRetries:   cfg.Portal.MaxRetries,
		UserAgent:    cfg.Portal.UserAgent,
		Tokens:       session,
		Logger:       logger,
	}
}

func provideCareerService(cfg config.Config, api career.API, store kv.Store, logger *logging.Logger) (career.Service, error) {
	ttl := cache.New[domain.Career](
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithBypass(cfg.Cache.Bypass...),
	)
	return career.NewService(
		career.WithAPI(api),
		career.WithCache(ttl),
		career.WithStore(store),
		career.WithLogger(logger),
		career.WithCategoryWindow(cfg.Cache.Window),
	)
}

// provideExporter returns nil when no Sheets credentials are configured
func provideExporter(ctx context.Context, cfg config.Config, logger *logging.Logger) (*export.SheetsExporter, error) {
	if cfg.Sheets.CredentialsPath == "" {
		return nil, nil
	}
	client, err := sheetsclient.NewClient(ctx, sheetsclient.Config{CredentialsPath: cfg.Sheets.CredentialsPath})
	if err != nil {
		return nil, err
	}
	return export.NewSheetsExporter(client, logger, nil)
}

// provideSnapshot returns nil when no Neo4j URI is configured
func provideSnapshot(ctx context.Context, cfg config.Config, careers career.Service, logger *logging.Logger) (*snapshot.Service, func(), error) {
	if cfg.Neo4j.URI == "" {
		return nil, func() {}, nil
	}
	client, err := n4j.NewClient(ctx, n4j.Config{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Warn("failed to close neo4j driver", "err", err)
		}
	}

	svc, err := snapshot.NewService(careers, storage.NewCareerRepository(client), logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Info("Neo4j client initialized", "uri", cfg.Neo4j.URI)
	return svc, cleanup, nil
}

func providePrefetcher(cfg config.Config, careers career.Service, logger *logging.Logger) (*scheduler.Prefetcher, error) {
	p, err := scheduler.New(careers, scheduler.Config{
		Spec:        cfg.Prefetch.Spec,
		Categories:  cfg.Prefetch.Categories,
		Parallelism: cfg.Prefetch.Parallelism,
		RunOnStart:  cfg.Prefetch.RunOnStart,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("prefetch: %w", err)
	}
	return p, nil
}
