package generation

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/integration/common"
	pkghttp "github.com/futig/docqa-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.GenerationConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.GenerationConnectorConfig,
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

// Generate completes prompt with the configured model.
// POST /v1beta/models/{model}:generateContent
func (c *Connector) Generate(ctx context.Context, prompt string, params entity.GenerationParams) (string, error) {
	endpoint := fmt.Sprintf("/v1beta/models/%s:generateContent", c.config.Model)
	req := &entity.GeminiGenerateRequest{
		Contents: []entity.GeminiContent{
			{Role: "user", Parts: []entity.GeminiPart{{Text: prompt}}},
		},
		GenerationConfig: entity.GeminiGenerationConfig{
			Temperature:     params.Temperature,
			TopP:            params.TopP,
			TopK:            params.TopK,
			MaxOutputTokens: params.MaxOutputTokens,
		},
	}

	ctxzap.Debug(ctx, "generating answer",
		zap.String("model", c.config.Model),
		zap.Int("prompt_length", len(prompt)),
	)

	var resp entity.GeminiGenerateResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrGeneration, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty response from model", entity.ErrGeneration)
	}

	ctxzap.Debug(ctx, "answer generated", zap.Int("answer_length", len(text)))
	return text, nil
}
