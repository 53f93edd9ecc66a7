//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"workspacediff/application/services"
	"workspacediff/infrastructure/config"
	"workspacediff/infrastructure/ontology"
	"workspacediff/pkg/errors"
	"workspacediff/pkg/observability"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Tracing      *observability.Tracing
	Backend      *Backend
	Ontology     *ontology.FileProvider
	Metrics      *observability.Collector
	Sessions     *services.SessionManager
	ErrorHandler *errors.ErrorHandler
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideTracing,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideHTTPClient,
	ProvideBackend,
	ProvideOntology,
	ProvideMetrics,
	ProvideStaleNotifier,
	ProvideSessionManager,
	ProvideErrorHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
