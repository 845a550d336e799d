package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/formatter"
	"github.com/futig/docqa-backend/internal/pkg/logger"
	"github.com/futig/docqa-backend/internal/pkg/metrics"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ChatUsecase answers questions about uploaded documents
type ChatUsecase struct {
	documents        DocumentGetter
	retriever        Retriever
	generator        Generator
	validator        RequestValidator
	formatterFactory FormatterFactory
	metrics          *metrics.Metrics
	params           entity.GenerationParams
	historyTurns     int
	logger           *zap.Logger
}

// NewUsecase creates a new chat use case
func NewUsecase(
	documents DocumentGetter,
	retriever Retriever,
	generator Generator,
	validator RequestValidator,
	formatterFactory FormatterFactory,
	m *metrics.Metrics,
	params entity.GenerationParams,
	historyTurns int,
	logger *zap.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		documents:        documents,
		retriever:        retriever,
		generator:        generator,
		validator:        validator,
		formatterFactory: formatterFactory,
		metrics:          m,
		params:           params,
		historyTurns:     historyTurns,
		logger:           logger,
	}
}

// Ask resolves the target folder, retrieves context and composes an answer.
func (uc *ChatUsecase) Ask(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error) {
	if err := uc.validator.ValidateChatRequest(req); err != nil {
		return nil, err
	}

	folderID, err := uc.resolveFolder(ctx, req.TargetID())
	if err != nil {
		return nil, err
	}
	ctx = logger.AddFields(ctx, zap.String("folder_id", folderID))

	matches, err := uc.retriever.Retrieve(ctx, req.Message, folderID)
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "context retrieved", zap.Int("matches", len(matches)))

	return uc.Compose(ctx, req.Message, matches, req.History)
}

// Compose turns retrieved matches into an answer with citations.
// With no matches the fixed reply is returned and the model is not called.
func (uc *ChatUsecase) Compose(
	ctx context.Context,
	question string,
	matches []entity.ChunkMatch,
	history []entity.ChatMessage,
) (*entity.ChatResponse, error) {
	if len(matches) == 0 {
		return &entity.ChatResponse{
			Content:   NoRelevantInformation,
			Citations: []entity.Citation{},
			Chunks:    []string{},
		}, nil
	}

	prompt := BuildPrompt(question, matches, lastTurns(history, uc.historyTurns))

	text, err := uc.generator.Generate(ctx, prompt, uc.params)
	if err != nil {
		uc.metrics.GenerationFailed()
		if !errors.Is(err, entity.ErrGeneration) {
			err = fmt.Errorf("%w: %w", entity.ErrGeneration, err)
		}
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		uc.metrics.GenerationFailed()
		return nil, fmt.Errorf("%w: empty answer", entity.ErrGeneration)
	}

	citations, chunks := citationsFor(matches)
	return &entity.ChatResponse{
		Content:   text,
		Citations: citations,
		Chunks:    chunks,
	}, nil
}

// Export renders a client-held conversation as a downloadable transcript.
func (uc *ChatUsecase) Export(
	ctx context.Context,
	req *entity.ExportChatRequest,
	format entity.ResultFormat,
) (*entity.ExportedFile, error) {
	if err := uc.validator.ValidateExport(req, format); err != nil {
		return nil, err
	}

	fmtr, err := uc.formatterFactory.Create(format)
	if err != nil {
		return nil, err
	}

	content, err := fmtr.Format(formatter.Transcript{Title: req.Title, Messages: req.Messages})
	if err != nil {
		return nil, fmt.Errorf("format transcript: %w", err)
	}

	ctxzap.Info(ctx, "transcript exported",
		zap.String("format", string(format)),
		zap.Int("messages", len(req.Messages)),
		zap.Int("size", len(content)),
	)

	return &entity.ExportedFile{
		Name:        "chat-transcript" + fmtr.FileExtension(),
		ContentType: fmtr.ContentType(),
		Content:     content,
	}, nil
}

// resolveFolder maps a document id to its folder; any other id is taken as a folder id.
func (uc *ChatUsecase) resolveFolder(ctx context.Context, targetID string) (string, error) {
	doc, err := uc.documents.Get(ctx, targetID)
	switch {
	case err == nil:
		ctxzap.Debug(ctx, "target resolved to document", zap.String("document_id", doc.ID))
		return doc.FolderID, nil
	case errors.Is(err, entity.ErrDocumentNotFound):
		return targetID, nil
	default:
		return "", fmt.Errorf("%w: resolve target: %w", entity.ErrRetrieval, err)
	}
}
