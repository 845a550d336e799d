package chat

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
)

type ChatUsecase interface {
	Ask(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error)
	Export(ctx context.Context, req *entity.ExportChatRequest, format entity.ResultFormat) (*entity.ExportedFile, error)
}
