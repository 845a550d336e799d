package ingest

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/extractor"
)

type ObjectStorage interface {
	Put(ctx context.Context, path string, content []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	PublicURL(path string) string
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type TextExtractor interface {
	Extract(content []byte, fileType entity.FileType) extractor.Result
}

type FileValidator interface {
	ValidateBatch(folderID string, files []entity.UploadFile) error
	ValidateFile(f entity.UploadFile) (entity.FileType, string, error)
}
