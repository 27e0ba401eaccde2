package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr     string
	MaxLogoBytes int64
	NodeID       int64

	Sessions  SessionConfig
	Templates TemplateStoreConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Chrome    ChromeConfig
	Push      MetricsPushConfig
	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// SessionConfig bounds how long an idle editing session is kept.
type SessionConfig struct {
	IdleTTLMinutes       int64
	SweepIntervalSeconds int64
}

// TemplateStoreConfig selects where named invoice templates live.
type TemplateStoreConfig struct {
	Backend string
}

// RateLimitConfig throttles document exports per session. Requires Redis.
type RateLimitConfig struct {
	Enabled                     bool
	ExportRate                  float64
	ExportBurst                 int
	ExportConcurrencyTTLSeconds int64
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig controls archiving of exported PDFs.
type StorageConfig struct {
	Backend  string
	LocalDir string
	Prefix   string

	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

// MetricsPushConfig forwards the Prometheus registry to a remote collector.
// An empty exporter disables pushing.
type MetricsPushConfig struct {
	Exporter        string
	Endpoint        string
	AuthToken       string
	IntervalSeconds int64
}

// TelemetryConfig carries logging and OpenTelemetry settings.
type TelemetryConfig struct {
	LogLevel      string
	LogFormat     string
	OtelEnabled   bool
	OtelEndpoint  string
	OtelProtocol  string
	SamplingRatio float64
}

type ChromeConfig struct {
	Enabled        bool
	RemoteURL      string
	NoSandbox      bool
	TimeoutSeconds int64
	Scale          float64
}

const (
	TemplateBackendMemory   = "memory"
	TemplateBackendDatabase = "database"
	TemplateBackendRedis    = "redis"

	StorageBackendNone  = "none"
	StorageBackendLocal = "local"
	StorageBackendS3    = "s3"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "invoicer"),
		AppVersion:   getenv("SERVICE_VERSION", getenv("APP_VERSION", "0.1.0")),
		Environment:  getenv("DEPLOYMENT_ENV", getenv("ENVIRONMENT", "development")),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		MaxLogoBytes: getenvInt64("MAX_LOGO_BYTES", 5<<20),
		NodeID:       getenvInt64("NODE_ID", 1),
		Sessions: SessionConfig{
			IdleTTLMinutes:       getenvInt64("SESSION_IDLE_TTL_MINUTES", 120),
			SweepIntervalSeconds: getenvInt64("SESSION_SWEEP_INTERVAL_SECONDS", 60),
		},
		Templates: TemplateStoreConfig{
			Backend: normalizeTemplateBackend(getenv("TEMPLATE_STORE", TemplateBackendMemory)),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "localhost:6379")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       int(getenvInt64("REDIS_DB", 0)),
		},
		RateLimit: RateLimitConfig{
			Enabled:                     getenvBool("RATE_LIMIT_ENABLED", false),
			ExportRate:                  getenvFloat("RATE_LIMIT_EXPORT_RATE", 0.2),
			ExportBurst:                 int(getenvInt64("RATE_LIMIT_EXPORT_BURST", 5)),
			ExportConcurrencyTTLSeconds: getenvInt64("RATE_LIMIT_EXPORT_CONCURRENCY_TTL_SECONDS", 60),
		},
		Storage: StorageConfig{
			Backend:        normalizeStorageBackend(getenv("EXPORT_STORAGE", StorageBackendNone)),
			LocalDir:       getenv("EXPORT_STORAGE_DIR", "./exports"),
			Prefix:         strings.Trim(getenv("EXPORT_STORAGE_PREFIX", "invoices"), "/"),
			S3Bucket:       strings.TrimSpace(getenv("S3_BUCKET", "")),
			S3Region:       getenv("S3_REGION", "us-east-1"),
			S3Endpoint:     strings.TrimSpace(getenv("S3_ENDPOINT", "")),
			S3AccessKey:    strings.TrimSpace(getenv("S3_ACCESS_KEY_ID", "")),
			S3SecretKey:    strings.TrimSpace(getenv("S3_SECRET_ACCESS_KEY", "")),
			S3UsePathStyle: getenvBool("S3_USE_PATH_STYLE", false),
		},
		Chrome: ChromeConfig{
			Enabled:        getenvBool("CHROME_ENABLED", true),
			RemoteURL:      strings.TrimSpace(getenv("CHROME_REMOTE_URL", "")),
			NoSandbox:      getenvBool("CHROME_NO_SANDBOX", false),
			TimeoutSeconds: getenvInt64("CHROME_TIMEOUT_SECONDS", 30),
			Scale:          getenvFloat("CHROME_SCALE", 1.5),
		},
		Push: MetricsPushConfig{
			Exporter:        strings.ToLower(strings.TrimSpace(getenv("METRICS_PUSH_EXPORTER", ""))),
			Endpoint:        strings.TrimSpace(getenv("METRICS_PUSH_ENDPOINT", "")),
			AuthToken:       strings.TrimSpace(getenv("METRICS_PUSH_AUTH_TOKEN", "")),
			IntervalSeconds: getenvInt64("METRICS_PUSH_INTERVAL_SECONDS", 60),
		},
		Telemetry: TelemetryConfig{
			LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			OtelEnabled:   getenvBool("OTEL_ENABLED", false),
			OtelEndpoint:  strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")),
			OtelProtocol:  otelProtocol(),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},
		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "invoicer.db"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 20)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// otelProtocol prefers the trace-specific protocol over the shared one.
func otelProtocol() string {
	protocol := getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))
	return strings.ToLower(strings.TrimSpace(protocol))
}

func normalizeTemplateBackend(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case TemplateBackendDatabase, "db", "sql":
		return TemplateBackendDatabase
	case TemplateBackendRedis:
		return TemplateBackendRedis
	default:
		return TemplateBackendMemory
	}
}

func normalizeStorageBackend(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case StorageBackendLocal, StorageBackendS3:
		return value
	default:
		return StorageBackendNone
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
