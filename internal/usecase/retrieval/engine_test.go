package retrieval

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/integration/embedding"
	pkgRetry "github.com/futig/docqa-backend/internal/pkg/retry"
	"github.com/futig/docqa-backend/internal/repository"
	"github.com/futig/docqa-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDimension = 256

type countingEmbedder struct {
	inner Embedder
	calls atomic.Int32
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.Embed(ctx, text)
}

type staticRepo struct {
	matches []entity.ChunkMatch
	err     error
}

func (s *staticRepo) InsertChunks(context.Context, []entity.Chunk) error { return nil }

func (s *staticRepo) SearchChunks(context.Context, repository.SearchParams) ([]entity.ChunkMatch, error) {
	return s.matches, s.err
}

func testConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		TopK:      5,
		Threshold: 0.1,
		CacheTTL:  time.Minute,
		Retry:     *pkgRetry.SingleAttemptConfig(),
	}
}

func seedStore(t *testing.T, texts map[string][]string) *memory.Store {
	t.Helper()

	ctx := context.Background()
	store := memory.NewStore()
	mock := embedding.NewMockConnector(testDimension, zap.NewNop())

	for docID, chunks := range texts {
		_, err := store.Create(ctx, entity.Document{ID: docID, FolderID: "folder-1", Name: docID + ".txt"})
		require.NoError(t, err)

		batch := make([]entity.Chunk, 0, len(chunks))
		for i, text := range chunks {
			vec, err := mock.Embed(ctx, text)
			require.NoError(t, err)
			batch = append(batch, entity.Chunk{
				FolderID:   "folder-1",
				DocumentID: docID,
				PageNumber: 1,
				ChunkIndex: i,
				Content:    text,
				Embedding:  vec,
			})
		}
		require.NoError(t, store.InsertChunks(ctx, batch))
	}
	return store
}

func TestRetrieveFindsRelevantChunk(t *testing.T) {
	store := seedStore(t, map[string][]string{
		"doc": {"The sky is blue", "Grass is green", "Bananas are yellow"},
	})
	engine := NewEngine(store, embedding.NewMockConnector(testDimension, zap.NewNop()), nil, testConfig(), zap.NewNop())

	matches, err := engine.Retrieve(context.Background(), "What color is the sky?", "folder-1")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "The sky is blue", matches[0].Content)
	assert.Equal(t, "doc.txt", matches[0].DocumentName)
	assert.Equal(t, 1, matches[0].PageNumber)
}

func TestRetrieveEmptyFolder(t *testing.T) {
	engine := NewEngine(memory.NewStore(), embedding.NewMockConnector(testDimension, zap.NewNop()), nil, testConfig(), zap.NewNop())

	matches, err := engine.Retrieve(context.Background(), "anything", "folder-1")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrieveThresholdMonotonic(t *testing.T) {
	store := seedStore(t, map[string][]string{
		"doc": {"sky blue", "sky blue grass", "sky blue grass green trees", "unrelated words entirely"},
	})
	engine := NewEngine(store, embedding.NewMockConnector(testDimension, zap.NewNop()), nil, testConfig(), zap.NewNop())

	prev := -1
	for _, threshold := range []float64{0.9, 0.5, 0.2, 0.0, -1} {
		matches, err := engine.Retrieve(context.Background(), "sky blue", "folder-1",
			WithThreshold(threshold), WithTopK(10))
		require.NoError(t, err)

		for _, m := range matches {
			assert.GreaterOrEqual(t, m.Similarity, threshold)
		}
		assert.GreaterOrEqual(t, len(matches), prev, "lowering the threshold must not drop matches")
		prev = len(matches)
	}
	assert.Equal(t, 4, prev)
}

func TestRetrieveOrderingAndCap(t *testing.T) {
	repo := &staticRepo{matches: []entity.ChunkMatch{
		{ChunkIndex: 3, Similarity: 0.5},
		{ChunkIndex: 1, Similarity: 0.9},
		{ChunkIndex: 0, Similarity: 0.5},
		{ChunkIndex: 2, Similarity: 0.05},
		{ChunkIndex: 4, Similarity: 0.7},
	}}
	engine := NewEngine(repo, embedding.NewMockConnector(testDimension, zap.NewNop()), nil, testConfig(), zap.NewNop())

	matches, err := engine.Retrieve(context.Background(), "query", "folder-1", WithTopK(3))
	require.NoError(t, err)

	indexes := make([]int, 0, len(matches))
	for _, m := range matches {
		indexes = append(indexes, m.ChunkIndex)
	}
	assert.Equal(t, []int{1, 4, 0}, indexes)
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	embedder := &countingEmbedder{err: entity.ErrEmbedding}
	engine := NewEngine(memory.NewStore(), embedder, nil, testConfig(), zap.NewNop())

	_, err := engine.Retrieve(context.Background(), "query", "folder-1")
	assert.ErrorIs(t, err, entity.ErrRetrieval)
	assert.ErrorIs(t, err, entity.ErrEmbedding)
	assert.EqualValues(t, 1, embedder.calls.Load())
}

func TestRetrieveSearchFailure(t *testing.T) {
	repo := &staticRepo{err: errors.New("connection refused")}
	engine := NewEngine(repo, embedding.NewMockConnector(testDimension, zap.NewNop()), nil, testConfig(), zap.NewNop())

	_, err := engine.Retrieve(context.Background(), "query", "folder-1")
	assert.ErrorIs(t, err, entity.ErrRetrieval)
}

func TestRetrieveCachesQueryEmbedding(t *testing.T) {
	embedder := &countingEmbedder{inner: embedding.NewMockConnector(testDimension, zap.NewNop())}
	engine := NewEngine(memory.NewStore(), embedder, nil, testConfig(), zap.NewNop())

	for _, q := range []string{"what is  the sky", " what is the sky ", "what is the sky"} {
		_, err := engine.Retrieve(context.Background(), q, "folder-1")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, embedder.calls.Load())

	_, err := engine.Retrieve(context.Background(), "something else", "folder-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, embedder.calls.Load())
}

func TestRetrieveValidation(t *testing.T) {
	engine := NewEngine(memory.NewStore(), embedding.NewMockConnector(testDimension, zap.NewNop()), nil, testConfig(), zap.NewNop())

	_, err := engine.Retrieve(context.Background(), "   ", "folder-1")
	assert.ErrorIs(t, err, entity.ErrMissingField)

	_, err = engine.Retrieve(context.Background(), "query", "")
	assert.ErrorIs(t, err, entity.ErrMissingField)

	_, err = engine.Retrieve(context.Background(), "query", "folder-1", WithTopK(0))
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}
