package retrieval

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/metrics"
	pkgRetry "github.com/futig/docqa-backend/internal/pkg/retry"
	"github.com/futig/docqa-backend/internal/repository"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Engine finds the chunks of a folder most similar to a query.
type Engine struct {
	chunkRepo repository.ChunkRepository
	embedder  Embedder
	cache     *cache.Cache
	metrics   *metrics.Metrics
	cfg       config.RetrievalConfig
	logger    *zap.Logger
}

// NewEngine creates a retrieval engine. A non-positive CacheTTL disables the embedding cache.
func NewEngine(
	chunkRepo repository.ChunkRepository,
	embedder Embedder,
	m *metrics.Metrics,
	cfg config.RetrievalConfig,
	logger *zap.Logger,
) *Engine {
	var c *cache.Cache
	if cfg.CacheTTL > 0 {
		c = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}

	return &Engine{
		chunkRepo: chunkRepo,
		embedder:  embedder,
		cache:     c,
		metrics:   m,
		cfg:       cfg,
		logger:    logger,
	}
}

type options struct {
	topK      int
	threshold float64
}

type Option func(*options)

func WithTopK(k int) Option {
	return func(o *options) {
		o.topK = k
	}
}

func WithThreshold(threshold float64) Option {
	return func(o *options) {
		o.threshold = threshold
	}
}

// Retrieve returns at most topK matches with similarity >= threshold, ordered by
// similarity descending then chunk index ascending. No matches is not an error.
func (e *Engine) Retrieve(ctx context.Context, query, folderID string, opts ...Option) ([]entity.ChunkMatch, error) {
	o := options{topK: e.cfg.TopK, threshold: e.cfg.Threshold}
	for _, opt := range opts {
		opt(&o)
	}

	query = normalizeQuery(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query", entity.ErrMissingField)
	}
	if strings.TrimSpace(folderID) == "" {
		return nil, fmt.Errorf("%w: folder_id", entity.ErrMissingField)
	}
	if o.topK < 1 {
		return nil, fmt.Errorf("%w: top k must be positive, got %d", entity.ErrInvalidParameter, o.topK)
	}

	vec, err := e.embedQuery(ctx, query)
	if err != nil {
		e.metrics.EmbeddingFailed(metrics.PathQuery)
		return nil, fmt.Errorf("%w: embed query: %w", entity.ErrRetrieval, err)
	}

	matches, err := e.chunkRepo.SearchChunks(ctx, repository.SearchParams{
		FolderID:  folderID,
		Embedding: vec,
		Threshold: o.threshold,
		Limit:     o.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search chunks: %w", entity.ErrRetrieval, err)
	}

	matches = rank(matches, o.threshold, o.topK)
	e.metrics.RetrievalMatches(len(matches))

	ctxzap.Debug(ctx, "chunks retrieved",
		zap.String("folder_id", folderID),
		zap.Int("matches", len(matches)),
		zap.Int("top_k", o.topK),
		zap.Float64("threshold", o.threshold),
	)
	return matches, nil
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if e.cache != nil {
		if v, ok := e.cache.Get(query); ok {
			return v.([]float32), nil
		}
	}

	vec, err := pkgRetry.DoWithData(ctx, e.cfg.Retry, func(ctx context.Context) ([]float32, error) {
		return e.embedder.Embed(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Set(query, vec, cache.DefaultExpiration)
	}
	return vec, nil
}

// rank re-applies the threshold, ordering and cap so the result holds for any store.
func rank(matches []entity.ChunkMatch, threshold float64, topK int) []entity.ChunkMatch {
	out := make([]entity.ChunkMatch, 0, len(matches))
	for _, m := range matches {
		if m.Similarity >= threshold {
			out = append(out, m)
		}
	}

	slices.SortStableFunc(out, func(a, b entity.ChunkMatch) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.ChunkIndex, b.ChunkIndex)
	})

	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
