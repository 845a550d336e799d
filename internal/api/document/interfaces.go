package document

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
)

type IngestUsecase interface {
	Ingest(ctx context.Context, req *entity.IngestRequest) (*entity.IngestResult, error)
	ListDocuments(ctx context.Context, folderID string) ([]*entity.Document, error)
	DeleteDocument(ctx context.Context, documentID string) error
}

type CallbackConnector interface {
	Validate(callbackURL string) error
	SendError(ctx context.Context, callbackURL string, requestID string, message string, details map[string]any)
	SendIngestCompleted(ctx context.Context, callbackURL string, requestID string, data *entity.CallbackIngestData)
}
