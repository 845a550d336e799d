package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector embeds text as a hashed bag of words.
// Texts sharing words get a positive cosine similarity, so retrieval works offline.
type MockConnector struct {
	dimension int
	logger    *zap.Logger
}

func NewMockConnector(dimension int, logger *zap.Logger) *MockConnector {
	return &MockConnector{
		dimension: dimension,
		logger:    logger,
	}
}

func (m *MockConnector) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrEmbedding, err)
	}

	vec := HashedBagOfWords(text, m.dimension)
	if vec == nil {
		return nil, fmt.Errorf("%w: no tokens in text", entity.ErrEmbedding)
	}

	ctxzap.Debug(ctx, "[MOCK] embedding generated",
		zap.Int("text_length", len(text)),
		zap.Int("dimensions", len(vec)),
	)
	return vec, nil
}

// HashedBagOfWords lowercases text, splits on non-alphanumerics, counts tokens into
// FNV-hashed buckets and L2-normalises. Returns nil when text has no tokens.
func HashedBagOfWords(text string, dimension int) []float32 {
	if dimension <= 0 {
		return nil
	}

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		return nil
	}

	counts := make([]float64, dimension)
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		counts[h.Sum32()%uint32(dimension)]++
	}

	var norm float64
	for _, v := range counts {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, dimension)
	for i, v := range counts {
		vec[i] = float32(v / norm)
	}
	return vec
}
