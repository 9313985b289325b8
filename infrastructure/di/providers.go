// Package di wires the application's dependencies.
package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/ports"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/application/services"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/infrastructure/config"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/infrastructure/messaging/eventbridge"
	dynamostore "github.com/ArthurHeitmann/satisfactory-architect-sub001/infrastructure/persistence/dynamodb"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/infrastructure/persistence/memory"
	"github.com/ArthurHeitmann/satisfactory-architect-sub001/pkg/observability"
)

// ProvideLogger creates a new logger instance.
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client.
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client.
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client.
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideTracer creates the tracer, or nil when tracing is disabled.
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer("architect")
}

// ProvideMetrics creates the metrics publisher. With metrics disabled the
// publisher gets no client and every call is a no-op.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return observability.NewMetrics(nil, "Architect", logger)
	}
	return observability.NewMetrics(client, "Architect", logger)
}

// ProvidePlanStore creates the plan store: in-memory when configured for
// local development, DynamoDB otherwise.
func ProvidePlanStore(client *awsdynamodb.Client, tracer *observability.Tracer, cfg *config.Config, logger *zap.Logger) ports.PlanStore {
	if cfg.UseMemoryStore {
		logger.Info("using in-memory plan store")
		return memory.NewStore()
	}
	return dynamostore.NewStore(client, cfg.DynamoDBTable, tracer, logger)
}

// ProvideEventBus creates the event bus. Without event infrastructure
// events are discarded.
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	if cfg.UseMemoryStore || cfg.EventBusName == "" {
		return ports.NoopEventBus{}
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvidePlanService creates the plan service.
func ProvidePlanService(
	store ports.PlanStore,
	bus ports.EventBus,
	metrics *observability.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *services.PlanService {
	return services.NewPlanService(store, bus, metrics, logger, cfg.AutosaveDelay, cfg.HistoryPushDelay)
}
