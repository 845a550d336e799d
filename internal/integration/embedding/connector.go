package embedding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/integration/common"
	pkghttp "github.com/futig/docqa-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.EmbeddingConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.EmbeddingConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewAPIKeyConnector(
			cfg.HTTPClientConfig,
			common.GeminiAPIKeyHeader,
			logger,
			pkghttp.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		),
		config: cfg,
		logger: logger,
	}
}

// Embed returns the vector for text.
// POST /v1beta/models/{model}:embedContent
func (c *Connector) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", entity.ErrEmbedding)
	}

	endpoint := fmt.Sprintf("/v1beta/models/%s:embedContent", c.config.Model)
	req := &entity.GeminiEmbedRequest{
		Model: "models/" + c.config.Model,
		Content: entity.GeminiContent{
			Parts: []entity.GeminiPart{{Text: text}},
		},
	}

	var resp entity.GeminiEmbedResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrEmbedding, err)
	}

	values := resp.Embedding.Values
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", entity.ErrEmbedding)
	}
	if c.config.Dimension > 0 && len(values) != c.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d dimensions, got %d", entity.ErrEmbedding, c.config.Dimension, len(values))
	}

	ctxzap.Debug(ctx, "embedding generated",
		zap.Int("text_length", len(text)),
		zap.Int("dimensions", len(values)),
	)

	return values, nil
}
