package chat

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/formatter"
	"github.com/futig/docqa-backend/internal/usecase/retrieval"
)

type DocumentGetter interface {
	Get(ctx context.Context, id string) (*entity.Document, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, query, folderID string, opts ...retrieval.Option) ([]entity.ChunkMatch, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string, params entity.GenerationParams) (string, error)
}

type RequestValidator interface {
	ValidateChatRequest(req *entity.ChatRequest) error
	ValidateExport(req *entity.ExportChatRequest, format entity.ResultFormat) error
}

type FormatterFactory interface {
	Create(format entity.ResultFormat) (formatter.Formatter, error)
}
