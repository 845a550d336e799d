package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ListDocuments returns the folder's documents, newest first.
func (uc *IngestUsecase) ListDocuments(ctx context.Context, folderID string) ([]*entity.Document, error) {
	if strings.TrimSpace(folderID) == "" {
		return nil, fmt.Errorf("%w: folder_id", entity.ErrMissingField)
	}

	docs, err := uc.documentRepo.ListByFolder(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes the stored object (best-effort) and the document with its chunks.
func (uc *IngestUsecase) DeleteDocument(ctx context.Context, documentID string) error {
	doc, err := uc.documentRepo.Get(ctx, documentID)
	if err != nil {
		return err
	}

	if err := uc.storage.Delete(ctx, doc.Path); err != nil {
		ctxzap.Warn(ctx, "failed to delete stored object",
			zap.String("document_id", documentID),
			zap.String("path", doc.Path),
			zap.Error(err),
		)
	}

	if err := uc.documentRepo.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	ctxzap.Info(ctx, "document deleted", zap.String("document_id", documentID))
	return nil
}
