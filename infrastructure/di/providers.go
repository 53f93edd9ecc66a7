package di

import (
	"context"
	"net/http"
	"time"

	"workspacediff/application/ports"
	"workspacediff/application/services"
	"workspacediff/infrastructure/config"
	"workspacediff/infrastructure/messaging/eventbridge"
	"workspacediff/infrastructure/ontology"
	"workspacediff/infrastructure/persistence/dynamodb"
	"workspacediff/infrastructure/persistence/memory"
	"workspacediff/infrastructure/transport/rest"
	"workspacediff/pkg/errors"
	"workspacediff/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"
	"go.uber.org/zap"
)

// Backend bundles the ports served by the workspace backend. Without a
// configured base URL an in-memory store stands in for it.
type Backend struct {
	Source    ports.DiffSource
	Store     ports.ElementStore
	Transport ports.Transport
	Memory    *memory.WorkspaceStore
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return observability.NewLogger(cfg.Environment, cfg.LogLevel)
}

// ProvideTracing installs the OTLP tracer provider when tracing is enabled.
// The cleanup flushes buffered spans.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.Tracing, func(), error) {
	if !cfg.Tracing.Enabled {
		return nil, func() {}, nil
	}

	tracing, err := observability.NewTracing(ctx, observability.TracingConfig{
		ServiceName: "workspace-diff",
		Environment: cfg.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
		Lambda:      cfg.IsLambda,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Tracing enabled", zap.String("endpoint", cfg.Tracing.Endpoint))

	return tracing, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush spans", zap.Error(err))
		}
	}, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, err
	}
	if cfg.Tracing.XRay {
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBLocal != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBLocal)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideHTTPClient creates the client used to reach the workspace backend
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	client := &http.Client{Timeout: cfg.Backend.RequestTimeout}
	if cfg.Tracing.XRay {
		return xray.Client(client)
	}
	return client
}

// ProvideBackend selects the REST backend when configured, otherwise an
// in-memory one
func ProvideBackend(
	cfg *config.Config,
	httpClient *http.Client,
	dynamoClient *awsdynamodb.Client,
	logger *zap.Logger,
) *Backend {
	backend := &Backend{}

	if cfg.Backend.BaseURL != "" {
		client := rest.NewClient(cfg.Backend, httpClient, logger)
		backend.Source = client
		backend.Store = client
		backend.Transport = client
	} else {
		logger.Warn("No workspace backend configured, using in-memory store")
		store := memory.NewWorkspaceStore()
		backend.Memory = store
		backend.Source = store
		backend.Store = store
		backend.Transport = store
	}

	// Element records come from the read model table when one is configured
	if cfg.ElementTable != "" {
		backend.Store = dynamodb.NewElementStore(dynamoClient, cfg.ElementTable, logger)
	}

	return backend
}

// ProvideOntology loads the ontology file and starts watching it when asked
func ProvideOntology(cfg *config.Config, logger *zap.Logger) (*ontology.FileProvider, func(), error) {
	provider, err := ontology.NewFileProvider(cfg.OntologyFile, logger)
	if err != nil {
		return nil, nil, err
	}

	if cfg.OntologyReload && cfg.OntologyFile != "" {
		if err := provider.Watch(); err != nil {
			logger.Warn("Ontology hot reload disabled", zap.Error(err))
		}
	}

	return provider, provider.Stop, nil
}

// ProvideMetrics creates the metrics collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("workspace_diff")
}

// ProvideStaleNotifier publishes stale events when an event bus is configured
func ProvideStaleNotifier(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.StaleNotifier {
	if cfg.EventBusName == "" {
		return nil
	}
	return eventbridge.NewStaleNotifier(client, cfg.EventBusName, logger)
}

// ProvideSessionManager creates the workspace session manager
func ProvideSessionManager(
	cfg *config.Config,
	backend *Backend,
	provider *ontology.FileProvider,
	notifier ports.StaleNotifier,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.SessionManager {
	deps := services.SessionDeps{
		Source:      backend.Source,
		Store:       backend.Store,
		Ontology:    provider,
		Transport:   backend.Transport,
		Notifier:    notifier,
		Logger:      logger,
		Placeholder: cfg.PlaceholderTitle,
	}
	if cfg.EnableMetrics {
		deps.Recorder = metrics
		deps.Metrics = metrics
	}
	return services.NewSessionManager(deps)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	return errors.NewErrorHandler(logger, cfg.IsDevelopment())
}
