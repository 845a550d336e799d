package repository

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
)

// DocumentRepository defines the interface for document persistence
type DocumentRepository interface {
	Create(ctx context.Context, doc entity.Document) (*entity.Document, error)
	Get(ctx context.Context, id string) (*entity.Document, error)
	ListByFolder(ctx context.Context, folderID string) ([]*entity.Document, error)
	UpdateStatus(ctx context.Context, id string, status entity.DocumentStatus) error
	Delete(ctx context.Context, id string) error
}

// ChunkRepository defines the interface for embedded chunk persistence and similarity search
type ChunkRepository interface {
	InsertChunks(ctx context.Context, chunks []entity.Chunk) error
	SearchChunks(ctx context.Context, params SearchParams) ([]entity.ChunkMatch, error)
}

// SearchParams scopes a cosine similarity search to one folder.
type SearchParams struct {
	FolderID  string
	Embedding []float32
	Threshold float64
	Limit     int
}
