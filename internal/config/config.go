package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/docqa-backend/internal/pkg/retry"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// PostgresEmbeddingDimension is the width of the chunks.embedding vector column.
const PostgresEmbeddingDimension = 768

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr      string        `env:"SERVER_ADDR,notEmpty"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// Database configuration
	StoreDriver         string        `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	EmbeddingConnectorCfg  EmbeddingConnectorConfig  `envPrefix:"EMBEDDING_"`
	GenerationConnectorCfg GenerationConnectorConfig `envPrefix:"GENERATION_"`
	StorageConnectorCfg    StorageConnectorConfig    `envPrefix:"STORAGE_"`
	CallbackConnectorCfg   CallbackConnectorConfig   `envPrefix:"CALLBACK_"`

	// Pipeline configuration
	IngestCfg    IngestConfig    `envPrefix:"INGEST_"`
	RetrievalCfg RetrievalConfig `envPrefix:"RETRIEVAL_"`
	ChatCfg      ChatConfig      `envPrefix:"CHAT_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

type EmbeddingConnectorConfig struct {
	HTTPClientConfig
	Model     string  `env:"MODEL" envDefault:"text-embedding-004"`
	Dimension int     `env:"DIMENSION" envDefault:"768"`
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"10"`
	RateBurst int     `env:"RATE_BURST" envDefault:"5"`
}

type GenerationConnectorConfig struct {
	HTTPClientConfig
	Model           string  `env:"MODEL" envDefault:"gemini-2.5-flash"`
	Temperature     float64 `env:"TEMPERATURE" envDefault:"0.7"`
	TopP            float64 `env:"TOP_P" envDefault:"0.95"`
	TopK            int     `env:"TOP_K" envDefault:"40"`
	MaxOutputTokens int     `env:"MAX_OUTPUT_TOKENS" envDefault:"1024"`
	RateLimit       float64 `env:"RATE_LIMIT" envDefault:"2"`
	RateBurst       int     `env:"RATE_BURST" envDefault:"2"`
}

type StorageConnectorConfig struct {
	HTTPClientConfig
	Bucket string               `env:"BUCKET" envDefault:"documents"`
	Retry  pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type CallbackConnectorConfig struct {
	HTTPClientConfig
	Retry pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	TLSHandshakeTimeout   time.Duration `env:"TLS_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	MaxIdleConns          int           `env:"MAX_IDLE_CONNS" envDefault:"100"`
	MaxIdleConnsPerHost   int           `env:"MAX_IDLE_CONNS_PER_HOST" envDefault:"10"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"10485760"`   // 10 MiB
	MaxTotalSize  int64 `env:"MAX_TOTAL_SIZE" envDefault:"52428800"`  // 50 MiB
	MaxFileCount  int   `env:"MAX_FILE_COUNT" envDefault:"20"`        // Max 20 files
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"` // 32 MiB in memory
}

type IngestConfig struct {
	ChunkSize        int                  `env:"CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap     int                  `env:"CHUNK_OVERLAP" envDefault:"200"`
	FileConcurrency  int                  `env:"CONCURRENCY" envDefault:"2"`
	EmbedConcurrency int                  `env:"EMBED_CONCURRENCY" envDefault:"4"`
	Retry            pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type RetrievalConfig struct {
	TopK      int                  `env:"TOP_K" envDefault:"5"`
	Threshold float64              `env:"THRESHOLD" envDefault:"0.1"`
	CacheTTL  time.Duration        `env:"CACHE_TTL" envDefault:"10m"`
	Retry     pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type ChatConfig struct {
	HistoryTurns       int `env:"HISTORY_TURNS" envDefault:"5"`
	MaxMessageLength   int `env:"MAX_MESSAGE_LENGTH" envDefault:"2000"`
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	return Parse(*envFlag)
}

// Parse reads the configuration from the process environment and validates it.
func Parse(environment string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = environment
	applyRetryDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

func applyRetryDefaults(cfg *Config) {
	cfg.IngestCfg.Retry = cfg.IngestCfg.Retry.WithDefaults(pkgRetry.DefaultRetryConfig())
	// Query path fails fast unless configured otherwise.
	cfg.RetrievalCfg.Retry = cfg.RetrievalCfg.Retry.WithDefaults(pkgRetry.SingleAttemptConfig())
	cfg.StorageConnectorCfg.Retry = cfg.StorageConnectorCfg.Retry.WithDefaults(pkgRetry.DefaultRetryConfig())
	cfg.CallbackConnectorCfg.Retry = cfg.CallbackConnectorCfg.Retry.WithDefaults(pkgRetry.DefaultRetryConfig())
}

func validateConfig(cfg *Config) error {
	var errs []string

	// Validate store configuration
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when STORE_DRIVER=postgres")
		}
		if cfg.EmbeddingConnectorCfg.Dimension != PostgresEmbeddingDimension {
			errs = append(errs, fmt.Sprintf("EMBEDDING_DIMENSION must be %d with STORE_DRIVER=postgres, got %d", PostgresEmbeddingDimension, cfg.EmbeddingConnectorCfg.Dimension))
		}
		if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
		}
		if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, cfg.StoreDriver))
	}

	// Validate connectors
	if !cfg.EnableMocks {
		if cfg.EmbeddingConnectorCfg.Url == "" {
			errs = append(errs, "EMBEDDING_SERVICE_URL is required when mocks are disabled")
		}
		if cfg.GenerationConnectorCfg.Url == "" {
			errs = append(errs, "GENERATION_SERVICE_URL is required when mocks are disabled")
		}
		if cfg.StorageConnectorCfg.Url == "" {
			errs = append(errs, "STORAGE_SERVICE_URL is required when mocks are disabled")
		}
	}
	if cfg.EmbeddingConnectorCfg.Dimension < 1 {
		errs = append(errs, fmt.Sprintf("EMBEDDING_DIMENSION must be positive, got %d", cfg.EmbeddingConnectorCfg.Dimension))
	}

	// Validate ingestion configuration
	if cfg.IngestCfg.ChunkSize < 1 {
		errs = append(errs, fmt.Sprintf("INGEST_CHUNK_SIZE must be positive, got %d", cfg.IngestCfg.ChunkSize))
	}
	if cfg.IngestCfg.ChunkOverlap < 0 || cfg.IngestCfg.ChunkOverlap >= cfg.IngestCfg.ChunkSize {
		errs = append(errs, fmt.Sprintf("INGEST_CHUNK_OVERLAP must be between 0 and INGEST_CHUNK_SIZE(%d) exclusive, got %d", cfg.IngestCfg.ChunkSize, cfg.IngestCfg.ChunkOverlap))
	}
	if cfg.IngestCfg.FileConcurrency < 1 {
		errs = append(errs, fmt.Sprintf("INGEST_CONCURRENCY must be positive, got %d", cfg.IngestCfg.FileConcurrency))
	}
	if cfg.IngestCfg.EmbedConcurrency < 1 {
		errs = append(errs, fmt.Sprintf("INGEST_EMBED_CONCURRENCY must be positive, got %d", cfg.IngestCfg.EmbedConcurrency))
	}

	// Validate retrieval configuration
	if cfg.RetrievalCfg.TopK < 1 {
		errs = append(errs, fmt.Sprintf("RETRIEVAL_TOP_K must be positive, got %d", cfg.RetrievalCfg.TopK))
	}
	if cfg.RetrievalCfg.Threshold < -1 || cfg.RetrievalCfg.Threshold > 1 {
		errs = append(errs, fmt.Sprintf("RETRIEVAL_THRESHOLD must be within [-1, 1], got %v", cfg.RetrievalCfg.Threshold))
	}

	// Validate chat configuration
	if cfg.ChatCfg.HistoryTurns < 0 {
		errs = append(errs, fmt.Sprintf("CHAT_HISTORY_TURNS must not be negative, got %d", cfg.ChatCfg.HistoryTurns))
	}
	if cfg.ChatCfg.MaxMessageLength < 1 {
		errs = append(errs, fmt.Sprintf("CHAT_MAX_MESSAGE_LENGTH must be positive, got %d", cfg.ChatCfg.MaxMessageLength))
	}

	// Validate upload limits
	if cfg.FileUploadCfg.MaxFileSize < 1 {
		errs = append(errs, fmt.Sprintf("FILE_UPLOAD_MAX_FILE_SIZE must be positive, got %d", cfg.FileUploadCfg.MaxFileSize))
	}
	if cfg.FileUploadCfg.MaxFileCount < 1 {
		errs = append(errs, fmt.Sprintf("FILE_UPLOAD_MAX_FILE_COUNT must be positive, got %d", cfg.FileUploadCfg.MaxFileCount))
	}

	if len(errs) > 0 {
		return errors.New("configuration validation errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
