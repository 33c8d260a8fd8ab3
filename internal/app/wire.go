//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/honeycarbs/career-compass/internal/config"
	"github.com/honeycarbs/career-compass/internal/domain/auth"
	"github.com/honeycarbs/career-compass/internal/domain/career"
	"github.com/honeycarbs/career-compass/pkg/logging"
	"github.com/honeycarbs/career-compass/pkg/portalapi"
)

var coreSet = wire.NewSet(
	// State
	provideStore,
	provideSession,

	// Backend client
	providePortalConfig,
	portalapi.NewClient,
	wire.Bind(new(career.API), new(*portalapi.Client)),
	wire.Bind(new(auth.API), new(*portalapi.Client)),

	// Services
	auth.NewService,
	provideCareerService,

	newCore,
)

// InitializeCore wires what the interactive commands need
func InitializeCore(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Core, func(), error) {
	wire.Build(coreSet)
	return nil, nil, nil
}

// InitializeResources wires Core plus the optional integrations used by serve
func InitializeResources(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Resources, func(), error) {
	wire.Build(
		coreSet,
		provideExporter,
		provideSnapshot,
		providePrefetcher,
		newResources,
	)
	return nil, nil, nil
}
