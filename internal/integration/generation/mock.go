package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// contextMarker precedes the retrieved chunks in chat prompts.
const contextMarker = "Document Context:\n"

// MockConnector answers with the first retrieved chunk.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Generate(ctx context.Context, prompt string, params entity.GenerationParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", entity.ErrGeneration, err)
	}

	ctxzap.Info(ctx, "[MOCK] generating answer",
		zap.Int("prompt_length", len(prompt)),
		zap.Float64("temperature", params.Temperature),
	)

	snippet := ""
	if i := strings.Index(prompt, contextMarker); i >= 0 {
		rest := prompt[i+len(contextMarker):]
		if end := strings.Index(rest, "\n\n---\n\n"); end >= 0 {
			rest = rest[:end]
		} else if end := strings.Index(rest, "\n\nCurrent Question:"); end >= 0 {
			rest = rest[:end]
		}
		snippet = strings.TrimSpace(rest)
	}
	if snippet == "" {
		return "I don't have that information in the provided documents.", nil
	}

	return "Based on the documents: " + snippet, nil
}
