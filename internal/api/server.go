package api

import (
	"net/http"
	"time"

	chatapi "github.com/futig/docqa-backend/internal/api/chat"
	"github.com/futig/docqa-backend/internal/api/docs"
	documentapi "github.com/futig/docqa-backend/internal/api/document"
	"github.com/futig/docqa-backend/internal/api/middleware"
	"github.com/futig/docqa-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Handlers groups the route handlers mounted on the router
type Handlers struct {
	Document *documentapi.Handler
	Chat     *chatapi.Handler
	Metrics  http.Handler
}

// RouterConfig holds cross-cutting HTTP settings
type RouterConfig struct {
	CORSOrigins        []string
	ChatRateLimit      int // requests per minute per client, 0 disables
	ChatRateLimitBurst int
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(h Handlers, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)          // Recover from panics
	r.Use(chimiddleware.RequestID)          // Add request ID
	r.Use(middleware.Logger(logger))        // Log requests
	r.Use(middleware.CORS(cfg.CORSOrigins)) // Handle CORS
	r.Use(chimiddleware.StripSlashes)       // /documents/ == /documents

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, map[string]string{"status": "healthy"})
	})

	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Uploads stream progress and may run for minutes, so only chat gets a deadline
	documentapi.RegisterRoutes(r, h.Document)
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Use(middleware.NewRateLimiter(cfg.ChatRateLimit, cfg.ChatRateLimitBurst).Handler)
		chatapi.RegisterRoutes(r, h.Chat)
	})

	return r
}
