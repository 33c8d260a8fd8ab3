package app

import (
	"github.com/honeycarbs/career-compass/internal/config"
	"github.com/honeycarbs/career-compass/internal/domain/auth"
	"github.com/honeycarbs/career-compass/internal/domain/career"
	"github.com/honeycarbs/career-compass/internal/domain/snapshot"
	"github.com/honeycarbs/career-compass/internal/export"
	"github.com/honeycarbs/career-compass/internal/scheduler"
	"github.com/honeycarbs/career-compass/internal/storage/kv"
	"github.com/honeycarbs/career-compass/pkg/logging"
	"github.com/honeycarbs/career-compass/pkg/portalapi"
)

// Core is what every portal command needs: persisted state, the session and
// the services talking to the backend
type Core struct {
	Config  config.Config
	Logger  *logging.Logger
	Store   kv.Store
	Session *auth.Session
	Client  *portalapi.Client
	Auth    *auth.Service
	Careers career.Service
}

// Resources adds the optional integrations. Exporter is nil without Sheets
// credentials, Snapshot is nil without a Neo4j URI.
type Resources struct {
	*Core
	Exporter   *export.SheetsExporter
	Snapshot   *snapshot.Service
	Prefetcher *scheduler.Prefetcher
}

func newCore(
	cfg config.Config,
	logger *logging.Logger,
	store kv.Store,
	session *auth.Session,
	client *portalapi.Client,
	authSvc *auth.Service,
	careers career.Service,
) *Core {
	return &Core{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Session: session,
		Client:  client,
		Auth:    authSvc,
		Careers: careers,
	}
}

func newResources(
	core *Core,
	exporter *export.SheetsExporter,
	snap *snapshot.Service,
	prefetcher *scheduler.Prefetcher,
) *Resources {
	return &Resources{
		Core:       core,
		Exporter:   exporter,
		Snapshot:   snap,
		Prefetcher: prefetcher,
	}
}
