//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/ports"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/services"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/infrastructure/config"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Store    ports.PlanStore
	EventBus ports.EventBus
	Metrics  *observability.Metrics
	Tracer   *observability.Tracer
	Plans    *services.PlanService
}

// SuperSet is the main provider set containing all providers.
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideTracer,
	ProvideMetrics,
	ProvidePlanStore,
	ProvideEventBus,
	ProvidePlanService,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
