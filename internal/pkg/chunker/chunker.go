// Package chunker splits page text into overlapping windows.
package chunker

import (
	"fmt"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", entity.ErrInvalidParameter, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", entity.ErrInvalidParameter, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk windows every page by runes, advancing size-overlap per step and
// stopping once a window reaches the page end. Whitespace-only windows are
// dropped. ChunkIndex runs across the whole document.
func (c *Chunker) Chunk(pages []string) []entity.ChunkDraft {
	var out []entity.ChunkDraft
	step := c.size - c.overlap
	index := 0

	for pageIdx, page := range pages {
		runes := []rune(page)
		for start := 0; start < len(runes); start += step {
			end := min(start+c.size, len(runes))

			if text := strings.TrimSpace(string(runes[start:end])); text != "" {
				out = append(out, entity.ChunkDraft{
					PageNumber: pageIdx + 1,
					ChunkIndex: index,
					Text:       text,
				})
				index++
			}

			if end == len(runes) {
				break
			}
		}
	}

	return out
}

// PageCount returns the highest page number referenced by chunks.
func PageCount(chunks []entity.ChunkDraft) int {
	n := 0
	for _, ch := range chunks {
		n = max(n, ch.PageNumber)
	}
	return n
}
