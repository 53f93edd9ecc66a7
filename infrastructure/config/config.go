package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"workspacediff/pkg/utils"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string   `yaml:"serverAddress" validate:"required"`
	Environment   string   `yaml:"environment" validate:"oneof=development staging production test"`
	CORSOrigins   []string `yaml:"corsOrigins"`

	// Workspace backend
	Backend BackendConfig `yaml:"backend"`

	// AWS configuration
	AWSRegion     string `yaml:"awsRegion"`
	ElementTable  string `yaml:"elementTable"`
	EventBusName  string `yaml:"eventBusName"`
	DynamoDBLocal string `yaml:"dynamodbEndpoint"`

	// Ontology
	OntologyFile   string `yaml:"ontologyFile"`
	OntologyReload bool   `yaml:"ontologyReload"`

	// Display
	PlaceholderTitle string `yaml:"placeholderTitle"`

	// Logging
	LogLevel string `yaml:"logLevel" validate:"oneof=debug info warn error"`

	// Tracing
	Tracing TracingConfig `yaml:"tracing"`

	// Feature flags
	EnableMetrics bool `yaml:"enableMetrics"`
	EnableCORS    bool `yaml:"enableCORS"`

	// IsLambda is set when running behind API Gateway
	IsLambda bool `yaml:"-"`
}

// BackendConfig describes the workspace backend the diffs are submitted to
type BackendConfig struct {
	BaseURL        string        `yaml:"baseURL" validate:"omitempty,url"`
	RequestTimeout time.Duration `yaml:"requestTimeout" validate:"min=0"`

	// Circuit breaker around submissions
	BreakerMaxRequests  uint32        `yaml:"breakerMaxRequests"`
	BreakerInterval     time.Duration `yaml:"breakerInterval"`
	BreakerTimeout      time.Duration `yaml:"breakerTimeout"`
	BreakerFailureRatio float64       `yaml:"breakerFailureRatio" validate:"min=0,max=1"`
	BreakerMinRequests  uint32        `yaml:"breakerMinRequests"`
}

// TracingConfig selects where spans are exported
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate" validate:"min=0,max=1"`
	// XRay instruments the backend HTTP client and AWS SDK calls with X-Ray
	XRay bool `yaml:"xray"`
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() *Config {
	return &Config{
		ServerAddress: ":8080",
		Environment:   "development",
		CORSOrigins:   []string{"*"},
		Backend: BackendConfig{
			RequestTimeout:      30 * time.Second,
			BreakerMaxRequests:  3,
			BreakerInterval:     60 * time.Second,
			BreakerTimeout:      30 * time.Second,
			BreakerFailureRatio: 0.6,
			BreakerMinRequests:  5,
		},
		AWSRegion:        "us-west-2",
		EventBusName:     "workspace-events",
		PlaceholderTitle: "Title not available",
		LogLevel:         "info",
		Tracing:          TracingConfig{SampleRate: 0.05},
		EnableCORS:       true,
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file named by
// CONFIG_FILE, then environment variables
func LoadConfig() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// LoadFrom loads configuration layering path (when set) and the environment
// over the defaults
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.CORSOrigins = getEnvList("CORS_ORIGINS", c.CORSOrigins)

	c.Backend.BaseURL = getEnv("BACKEND_BASE_URL", c.Backend.BaseURL)
	c.Backend.RequestTimeout = getEnvDuration("BACKEND_REQUEST_TIMEOUT", c.Backend.RequestTimeout)
	c.Backend.BreakerTimeout = getEnvDuration("BACKEND_BREAKER_TIMEOUT", c.Backend.BreakerTimeout)
	c.Backend.BreakerMinRequests = uint32(getEnvInt("BACKEND_BREAKER_MIN_REQUESTS", int(c.Backend.BreakerMinRequests)))

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.ElementTable = getEnv("TABLE_NAME", getEnv("ELEMENT_TABLE", c.ElementTable))
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.DynamoDBLocal = getEnv("DYNAMODB_ENDPOINT", c.DynamoDBLocal)

	c.OntologyFile = getEnv("ONTOLOGY_FILE", c.OntologyFile)
	c.OntologyReload = getEnvBool("ONTOLOGY_RELOAD", c.OntologyReload)
	c.PlaceholderTitle = getEnv("PLACEHOLDER_TITLE", c.PlaceholderTitle)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.IsLambda = getEnv("AWS_LAMBDA_FUNCTION_NAME", "") != ""

	c.Tracing.Enabled = getEnvBool("TRACING_ENABLED", c.Tracing.Enabled)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.SampleRate = getEnvFloat("TRACING_SAMPLE_RATE", c.Tracing.SampleRate)
	c.Tracing.XRay = getEnvBool("XRAY_ENABLED", c.Tracing.XRay || c.IsLambda)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" && !c.IsLambda {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when tracing is enabled")
	}

	if c.Environment == "production" {
		if c.Backend.BaseURL == "" {
			return fmt.Errorf("BACKEND_BASE_URL is required in production")
		}
		if c.ElementTable == "" {
			return fmt.Errorf("ELEMENT_TABLE is required in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
