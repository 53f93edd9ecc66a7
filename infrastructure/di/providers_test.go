package di

import (
	"context"
	"net/http"
	"testing"

	"workspacediff/infrastructure/config"
	"workspacediff/infrastructure/persistence/dynamodb"
	"workspacediff/infrastructure/persistence/memory"
	"workspacediff/infrastructure/transport/rest"

	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProvideBackend(t *testing.T) {
	logger := zap.NewNop()
	dynamo := awsdynamodb.New(awsdynamodb.Options{Region: "us-west-2"})

	t.Run("in-memory without base url", func(t *testing.T) {
		cfg := config.Defaults()
		backend := ProvideBackend(cfg, http.DefaultClient, dynamo, logger)

		require.NotNil(t, backend.Memory)
		assert.IsType(t, &memory.WorkspaceStore{}, backend.Source)
		assert.IsType(t, &memory.WorkspaceStore{}, backend.Transport)
	})

	t.Run("rest client with base url", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.Backend.BaseURL = "http://backend.local"
		backend := ProvideBackend(cfg, http.DefaultClient, dynamo, logger)

		assert.Nil(t, backend.Memory)
		assert.IsType(t, &rest.Client{}, backend.Source)
		assert.IsType(t, &rest.Client{}, backend.Store)
	})

	t.Run("element table overrides store", func(t *testing.T) {
		cfg := config.Defaults()
		cfg.ElementTable = "elements"
		backend := ProvideBackend(cfg, http.DefaultClient, dynamo, logger)

		assert.IsType(t, &dynamodb.ElementStore{}, backend.Store)
		assert.IsType(t, &memory.WorkspaceStore{}, backend.Source)
	})
}

func TestProvideStaleNotifier(t *testing.T) {
	client := awseventbridge.New(awseventbridge.Options{Region: "us-west-2"})
	cfg := config.Defaults()

	assert.NotNil(t, ProvideStaleNotifier(client, cfg, zap.NewNop()))

	cfg.EventBusName = ""
	assert.Nil(t, ProvideStaleNotifier(client, cfg, zap.NewNop()))
}

func TestProvideOntology_Empty(t *testing.T) {
	provider, cleanup, err := ProvideOntology(config.Defaults(), zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	lookup, err := provider.Ontology(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, lookup)
}

func TestProvideSessionManager(t *testing.T) {
	cfg := config.Defaults()
	cfg.EnableMetrics = true
	logger := zap.NewNop()

	backend := ProvideBackend(cfg, http.DefaultClient, awsdynamodb.New(awsdynamodb.Options{Region: "us-west-2"}), logger)
	provider, cleanup, err := ProvideOntology(cfg, logger)
	require.NoError(t, err)
	defer cleanup()

	sessions := ProvideSessionManager(cfg, backend, provider, nil, ProvideMetrics(), logger)
	session, err := sessions.Get("ws-1")
	require.NoError(t, err)
	assert.Equal(t, "ws-1", session.WorkspaceID())
	assert.Equal(t, 1, sessions.Len())
}

func TestProvideTracing_Disabled(t *testing.T) {
	tracing, cleanup, err := ProvideTracing(context.Background(), config.Defaults(), zap.NewNop())
	require.NoError(t, err)
	cleanup()

	assert.Nil(t, tracing)
	assert.NoError(t, tracing.ForceFlush(context.Background()))
}

func TestProvideHTTPClient_XRay(t *testing.T) {
	cfg := config.Defaults()
	assert.Nil(t, ProvideHTTPClient(cfg).Transport)

	cfg.Tracing.XRay = true
	client := ProvideHTTPClient(cfg)
	assert.NotNil(t, client.Transport)
	assert.Equal(t, cfg.Backend.RequestTimeout, client.Timeout)
}
