package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config captures runtime configuration for the API service.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Commerce  CommerceConfig
	Solidgate SolidgateConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type HTTPConfig struct {
	Port          int
	ShutdownGrace int
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CommerceConfig struct {
	BaseURL        string
	AdminEmail     string
	AdminPassword  string
	PublishableKey string
	TokenTTL       time.Duration
	RequestTimeout time.Duration
}

type SolidgateConfig struct {
	PublicKey        string
	SecretKey        string
	APIURL           string
	SuccessURL       string
	FailURL          string
	VerifySignatures bool
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort       = 8080
	defaultShutdownGrace  = 15
	defaultMigrationsPath = "migrations"
	defaultAutoMigrate    = true
	defaultServiceName    = "payment-orchestrator"
	defaultServiceVersion = "0.1.0"
	defaultEnvironment    = "development"
	defaultLogLevel       = "info"
	defaultOTelSampleRate = 1.0
	defaultTokenTTL       = 20 * time.Minute
	defaultRequestTimeout = 30 * time.Second
	defaultSolidgateAPI   = "https://pay.solidgate.com/api/v1/"
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	dbCfg := loadDatabaseConfig()

	redisCfg, err := loadRedisConfig()
	if err != nil {
		return nil, fmt.Errorf("loading redis config: %w", err)
	}

	commerceCfg, err := loadCommerceConfig()
	if err != nil {
		return nil, fmt.Errorf("loading commerce config: %w", err)
	}

	solidgateCfg, err := loadSolidgateConfig()
	if err != nil {
		return nil, fmt.Errorf("loading solidgate config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	serviceCfg := loadServiceConfig()

	return &Config{
		HTTP:      httpCfg,
		Database:  dbCfg,
		Redis:     redisCfg,
		Commerce:  commerceCfg,
		Solidgate: solidgateCfg,
		Telemetry: telCfg,
		Service:   serviceCfg,
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port := defaultHTTPPort
	if value, ok := os.LookupEnv("API_HTTP_PORT"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid API_HTTP_PORT: %w", err)
		}
		port = parsed
	}

	shutdownGrace := defaultShutdownGrace
	if value, ok := os.LookupEnv("API_SHUTDOWN_GRACE_SECONDS"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return HTTPConfig{}, fmt.Errorf("invalid API_SHUTDOWN_GRACE_SECONDS: %w", err)
		}
		shutdownGrace = parsed
	}

	return HTTPConfig{
		Port:          port,
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadDatabaseConfig() DatabaseConfig {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	autoMigrate := defaultAutoMigrate
	if value, ok := os.LookupEnv("AUTO_MIGRATE"); ok {
		autoMigrate = value == "true"
	}

	migrationsPath := getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath)

	return DatabaseConfig{
		URL:            databaseURL,
		AutoMigrate:    autoMigrate,
		MigrationsPath: migrationsPath,
	}
}

func loadRedisConfig() (RedisConfig, error) {
	db := 0
	if value, ok := os.LookupEnv("REDIS_DB"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		db = parsed
	}

	return RedisConfig{
		Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func loadCommerceConfig() (CommerceConfig, error) {
	tokenTTL := defaultTokenTTL
	if value, ok := os.LookupEnv("MEDUSA_TOKEN_TTL"); ok {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return CommerceConfig{}, fmt.Errorf("invalid MEDUSA_TOKEN_TTL: %w", err)
		}
		tokenTTL = parsed
	}

	requestTimeout := defaultRequestTimeout
	if value, ok := os.LookupEnv("MEDUSA_REQUEST_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return CommerceConfig{}, fmt.Errorf("invalid MEDUSA_REQUEST_TIMEOUT: %w", err)
		}
		requestTimeout = parsed
	}

	return CommerceConfig{
		BaseURL:        getEnvOrDefault("MEDUSA_BASE_URL", "http://localhost:9000"),
		AdminEmail:     os.Getenv("MEDUSA_ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("MEDUSA_ADMIN_PASSWORD"),
		PublishableKey: os.Getenv("MEDUSA_PUBLISHABLE_KEY"),
		TokenTTL:       tokenTTL,
		RequestTimeout: requestTimeout,
	}, nil
}

func loadSolidgateConfig() (SolidgateConfig, error) {
	return SolidgateConfig{
		PublicKey:        os.Getenv("SOLIDGATE_PUBLIC_KEY"),
		SecretKey:        os.Getenv("SOLIDGATE_SECRET_KEY"),
		APIURL:           getEnvOrDefault("SOLIDGATE_API_URL", defaultSolidgateAPI),
		SuccessURL:       getEnvOrDefault("SOLIDGATE_SUCCESS_URL", "http://localhost:8000/checkout/success"),
		FailURL:          getEnvOrDefault("SOLIDGATE_FAIL_URL", "http://localhost:8000/checkout/fail"),
		VerifySignatures: getBoolEnv("SOLIDGATE_VERIFY_SIGNATURES", true),
	}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	logLevel := getEnvOrDefault("LOG_LEVEL", defaultLogLevel)
	otelEndpoint := getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	enableTracing := getBoolEnv("OTEL_ENABLE_TRACING", true)
	enableMetrics := getBoolEnv("OTEL_ENABLE_METRICS", true)

	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      logLevel,
		OTelEndpoint:  otelEndpoint,
		EnableTracing: enableTracing,
		EnableMetrics: enableMetrics,
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "payments")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}
