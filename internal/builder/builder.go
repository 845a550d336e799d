package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/docqa-backend/internal/api"
	chatapi "github.com/futig/docqa-backend/internal/api/chat"
	documentapi "github.com/futig/docqa-backend/internal/api/document"
	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/integration/callback"
	"github.com/futig/docqa-backend/internal/integration/embedding"
	"github.com/futig/docqa-backend/internal/integration/generation"
	"github.com/futig/docqa-backend/internal/integration/storage"
	"github.com/futig/docqa-backend/internal/pkg/extractor"
	"github.com/futig/docqa-backend/internal/pkg/formatter"
	pkglogger "github.com/futig/docqa-backend/internal/pkg/logger"
	"github.com/futig/docqa-backend/internal/pkg/metrics"
	"github.com/futig/docqa-backend/internal/pkg/validator"
	"github.com/futig/docqa-backend/internal/repository"
	"github.com/futig/docqa-backend/internal/repository/memory"
	"github.com/futig/docqa-backend/internal/usecase/chat"
	"github.com/futig/docqa-backend/internal/usecase/ingest"
	"github.com/futig/docqa-backend/internal/usecase/retrieval"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Embedder is implemented by the real and mock embedding connectors
type Embedder interface {
	ingest.Embedder
	retrieval.Embedder
}

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := pkglogger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.String("store_driver", cfg.StoreDriver),
	)

	// Metrics
	registry := metrics.NewRegistry()
	m := metrics.New(registry)

	// Initialize repositories
	var (
		db           *pgxpool.Pool
		documentRepo repository.DocumentRepository
		chunkRepo    repository.ChunkRepository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err = setupDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("setup database: %w", err)
		}
		documentRepo = repository.NewDocumentPostgres(db)
		chunkRepo = repository.NewChunkPostgres(db)
	default:
		logger.Warn("Using in-memory store, data is lost on restart")
		store := memory.NewStore()
		documentRepo = store
		chunkRepo = store
	}
	logger.Info("Repositories initialized")

	// Initialize external service connectors (with mock support)
	var (
		embedder      Embedder
		generator     chat.Generator
		objectStorage ingest.ObjectStorage
	)
	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embedder = embedding.NewMockConnector(cfg.EmbeddingConnectorCfg.Dimension, logger)
		generator = generation.NewMockConnector(logger)
		objectStorage = storage.NewMockConnector(logger)
	} else {
		logger.Info("Using real connectors for external services")
		embedder = embedding.NewConnector(cfg.EmbeddingConnectorCfg, logger)
		generator = generation.NewConnector(cfg.GenerationConnectorCfg, logger)
		objectStorage = storage.NewConnector(cfg.StorageConnectorCfg, logger)
	}
	callbackConnector := callback.NewConnector(cfg.CallbackConnectorCfg, logger)

	// Initialize validators
	requestValidator := validator.NewValidator(cfg.FileUploadCfg, cfg.ChatCfg)
	logger.Info("Validators initialized")

	// Initialize use cases
	ingestUC, err := ingest.NewUsecase(
		documentRepo,
		chunkRepo,
		objectStorage,
		embedder,
		extractor.New(),
		requestValidator,
		m,
		cfg.IngestCfg,
		logger,
	)
	if err != nil {
		closePool(db)
		return nil, fmt.Errorf("create ingest usecase: %w", err)
	}

	engine := retrieval.NewEngine(chunkRepo, embedder, m, cfg.RetrievalCfg, logger)

	genCfg := cfg.GenerationConnectorCfg
	chatUC := chat.NewUsecase(
		documentRepo,
		engine,
		generator,
		requestValidator,
		formatter.NewFactory(),
		m,
		entity.GenerationParams{
			Temperature:     genCfg.Temperature,
			TopP:            genCfg.TopP,
			TopK:            genCfg.TopK,
			MaxOutputTokens: genCfg.MaxOutputTokens,
		},
		cfg.ChatCfg.HistoryTurns,
		logger,
	)
	logger.Info("Use cases initialized")

	// Setup API handlers
	exposeDetails := !cfg.IsProduction()
	documentHandler := documentapi.NewHandler(ingestUC, cfg.FileUploadCfg, callbackConnector, exposeDetails)
	handlers := api.Handlers{
		Document: documentHandler,
		Chat:     chatapi.NewHandler(chatUC, exposeDetails),
		Metrics:  metrics.Handler(registry),
	}

	// Setup router
	router := api.SetupRouter(handlers, api.RouterConfig{
		CORSOrigins:        cfg.CORSOrigins,
		ChatRateLimit:      cfg.ChatCfg.RateLimitPerMinute,
		ChatRateLimitBurst: cfg.ChatCfg.RateLimitBurst,
	}, logger)
	logger.Info("HTTP router configured")

	// Uploads embed every chunk before answering, so writes get a long deadline
	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:          server,
		db:              db,
		background:      []BackgroundWork{documentHandler},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}, nil
}

func closePool(db *pgxpool.Pool) {
	if db != nil {
		db.Close()
	}
}
