package main

import (
	"context"
	"log"
	"time"

	"workspacediff/infrastructure/config"
	"workspacediff/infrastructure/di"
	"workspacediff/interfaces/http/rest"
	"workspacediff/pkg/observability"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	// chiLambda wraps the Chi router for AWS Lambda integration
	chiLambda *chiadapter.ChiLambdaV2

	container *di.Container

	coldStart     = true
	coldStartTime time.Time
)

// init runs during cold start
func init() {
	coldStartTime = time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The ontology watcher is not started in Lambda; spans are flushed per
	// invocation so the cleanup is not needed
	cfg.OntologyReload = false

	container, _, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	router := rest.NewRouter(
		container.Sessions,
		container.ErrorHandler,
		container.Metrics,
		rest.RouterConfig{
			CORSOrigins:   cfg.CORSOrigins,
			EnableCORS:    cfg.EnableCORS,
			EnableMetrics: cfg.EnableMetrics,
			SubmitTimeout: cfg.Backend.RequestTimeout,
		},
		container.Logger,
	)

	// Create Lambda adapter - need to type assert to *chi.Mux
	chiRouter, ok := router.Setup().(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	container.Logger.Info("Lambda cold start completed",
		zap.Duration("duration", time.Since(coldStartTime)),
	)
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	ctx, span := observability.StartSpan(ctx, "lambda.invoke",
		attribute.String("http.request.method", req.RequestContext.HTTP.Method),
		attribute.String("url.path", req.RequestContext.HTTP.Path),
		attribute.Bool("faas.coldstart", coldStart),
	)
	resp, err := chiLambda.ProxyWithContextV2(ctx, req)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	observability.EndSpan(span, err)
	if flushErr := container.Tracing.ForceFlush(ctx); flushErr != nil {
		container.Logger.Warn("Failed to flush spans", zap.Error(flushErr))
	}

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	container.Logger.Info("Lambda response",
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.String("request_id", req.RequestContext.RequestID),
		zap.Int("status_code", resp.StatusCode),
	)
	if resp.StatusCode >= 500 {
		container.Logger.Error("Lambda error response",
			zap.String("body", resp.Body),
			zap.Int("status_code", resp.StatusCode),
		)
	}

	return resp, err
}

func main() {
	lambda.Start(Handler)
}
