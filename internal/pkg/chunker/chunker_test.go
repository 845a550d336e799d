package chunker

import (
	"math"
	"strings"
	"testing"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesParameters(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"defaults", DefaultSize, DefaultOverlap, false},
		{"zero overlap", 10, 0, false},
		{"overlap equals size", 10, 10, true},
		{"overlap above size", 10, 11, true},
		{"negative overlap", 10, -1, true},
		{"zero size", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.overlap)
			if tt.wantErr {
				assert.ErrorIs(t, err, entity.ErrInvalidParameter)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestChunkSmallDocument(t *testing.T) {
	c, err := New(20, 5)
	require.NoError(t, err)

	chunks := c.Chunk([]string{"The sky is blue. Grass is green."})
	require.Len(t, chunks, 2)

	assert.Equal(t, entity.ChunkDraft{PageNumber: 1, ChunkIndex: 0, Text: "The sky is blue. Gra"}, chunks[0])
	assert.Equal(t, 1, chunks[1].PageNumber)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
	assert.Equal(t, ". Grass is green.", chunks[1].Text)
}

func TestChunkCountFormula(t *testing.T) {
	const size, overlap = 20, 5
	c, err := New(size, overlap)
	require.NoError(t, err)

	for l := 1; l <= 120; l++ {
		page := strings.Repeat("x", l)
		want := 1
		if l > overlap {
			want = int(math.Ceil(float64(l-overlap) / float64(size-overlap)))
		}
		assert.Len(t, c.Chunk([]string{page}), want, "length %d", l)
	}
}

func TestChunkIndexUniqueAndIncreasingAcrossPages(t *testing.T) {
	c, err := New(10, 3)
	require.NoError(t, err)

	pages := []string{
		strings.Repeat("a", 25),
		"   \n  ",
		strings.Repeat("b", 14),
	}
	chunks := c.Chunk(pages)
	require.NotEmpty(t, chunks)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.ChunkIndex)
		assert.NotEqual(t, 2, ch.PageNumber, "whitespace page must not produce chunks")
		assert.LessOrEqual(t, len([]rune(ch.Text)), 10)
	}
	assert.Equal(t, 3, chunks[len(chunks)-1].PageNumber)
	assert.Equal(t, 3, PageCount(chunks))
}

func TestChunkCountsRunes(t *testing.T) {
	c, err := New(4, 1)
	require.NoError(t, err)

	chunks := c.Chunk([]string{"привет"})
	require.Len(t, chunks, 2)
	assert.Equal(t, "прив", chunks[0].Text)
	assert.Equal(t, "вет", chunks[1].Text)
}

func TestChunkDropsWhitespaceWindows(t *testing.T) {
	c, err := New(5, 0)
	require.NoError(t, err)

	chunks := c.Chunk([]string{"abc" + strings.Repeat(" ", 7) + "xyz"})
	require.Len(t, chunks, 2)
	assert.Equal(t, "abc", chunks[0].Text)
	assert.Equal(t, "xyz", chunks[1].Text)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
}

func TestChunkEmptyInput(t *testing.T) {
	c, err := New(DefaultSize, DefaultOverlap)
	require.NoError(t, err)

	assert.Empty(t, c.Chunk(nil))
	assert.Empty(t, c.Chunk([]string{""}))
}
