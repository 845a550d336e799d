// Package memory is an in-process document and chunk store with brute-force cosine search.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/repository"
	"github.com/google/uuid"
)

var (
	_ repository.DocumentRepository = &Store{}
	_ repository.ChunkRepository    = &Store{}
)

type Store struct {
	mu        sync.RWMutex
	documents map[string]entity.Document
	chunks    map[string][]entity.Chunk // by document id
	seq       int64
	order     map[string]int64 // insertion sequence, breaks uploaded_at ties
}

func NewStore() *Store {
	return &Store{
		documents: make(map[string]entity.Document),
		chunks:    make(map[string][]entity.Chunk),
		order:     make(map[string]int64),
	}
}

func (s *Store) Create(ctx context.Context, doc entity.Document) (*entity.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[doc.ID]; ok {
		return nil, fmt.Errorf("create document: duplicate id %s", doc.ID)
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	s.seq++
	s.order[doc.ID] = s.seq
	s.documents[doc.ID] = doc

	out := doc
	return &out, nil
}

func (s *Store) Get(ctx context.Context, id string) (*entity.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, entity.ErrDocumentNotFound
	}
	return &doc, nil
}

func (s *Store) ListByFolder(ctx context.Context, folderID string) ([]*entity.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*entity.Document, 0)
	for _, doc := range s.documents {
		if doc.FolderID == folderID {
			d := doc
			docs = append(docs, &d)
		}
	}

	slices.SortFunc(docs, func(a, b *entity.Document) int {
		if c := b.UploadedAt.Compare(a.UploadedAt); c != 0 {
			return c
		}
		return cmp.Compare(s.order[b.ID], s.order[a.ID])
	})
	return docs, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status entity.DocumentStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return entity.ErrDocumentNotFound
	}
	doc.Status = status
	s.documents[id] = doc
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return entity.ErrDocumentNotFound
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	delete(s.order, id)
	return nil
}

// InsertChunks is all-or-nothing: a duplicate (document, chunk index) pair rejects the whole batch.
func (s *Store) InsertChunks(ctx context.Context, chunks []entity.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]map[int]struct{})
	for _, ch := range chunks {
		if _, ok := s.documents[ch.DocumentID]; !ok {
			return fmt.Errorf("insert chunks: %w: %s", entity.ErrDocumentNotFound, ch.DocumentID)
		}
		if seen[ch.DocumentID] == nil {
			seen[ch.DocumentID] = make(map[int]struct{})
			for _, existing := range s.chunks[ch.DocumentID] {
				seen[ch.DocumentID][existing.ChunkIndex] = struct{}{}
			}
		}
		if _, dup := seen[ch.DocumentID][ch.ChunkIndex]; dup {
			return fmt.Errorf("insert chunks: duplicate chunk index %d for document %s", ch.ChunkIndex, ch.DocumentID)
		}
		seen[ch.DocumentID][ch.ChunkIndex] = struct{}{}
	}

	for _, ch := range chunks {
		if ch.ID == "" {
			ch.ID = uuid.NewString()
		}
		ch.Embedding = slices.Clone(ch.Embedding)
		s.chunks[ch.DocumentID] = append(s.chunks[ch.DocumentID], ch)
	}
	return nil
}

func (s *Store) SearchChunks(ctx context.Context, params repository.SearchParams) ([]entity.ChunkMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]entity.ChunkMatch, 0)
	for docID, chunks := range s.chunks {
		doc := s.documents[docID]
		for _, ch := range chunks {
			if ch.FolderID != params.FolderID {
				continue
			}
			sim := cosine(params.Embedding, ch.Embedding)
			if sim < params.Threshold {
				continue
			}
			matches = append(matches, entity.ChunkMatch{
				DocumentID:   docID,
				DocumentName: doc.Name,
				Content:      ch.Content,
				PageNumber:   ch.PageNumber,
				ChunkIndex:   ch.ChunkIndex,
				Similarity:   sim,
			})
		}
	}

	slices.SortStableFunc(matches, func(a, b entity.ChunkMatch) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		if c := cmp.Compare(a.ChunkIndex, b.ChunkIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.DocumentID, b.DocumentID)
	})

	if params.Limit > 0 && len(matches) > params.Limit {
		matches = matches[:params.Limit]
	}
	return matches, nil
}

// ChunksOf returns the stored chunks of a document in insertion order.
func (s *Store) ChunksOf(documentID string) []entity.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.chunks[documentID])
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
