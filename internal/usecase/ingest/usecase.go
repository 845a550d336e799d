package ingest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/chunker"
	"github.com/futig/docqa-backend/internal/pkg/logger"
	"github.com/futig/docqa-backend/internal/pkg/metrics"
	"github.com/futig/docqa-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// IngestUsecase stores, extracts, chunks and embeds uploaded documents
type IngestUsecase struct {
	documentRepo repository.DocumentRepository
	chunkRepo    repository.ChunkRepository
	storage      ObjectStorage
	embedder     Embedder
	extractor    TextExtractor
	chunker      *chunker.Chunker
	validator    FileValidator
	metrics      *metrics.Metrics
	cfg          config.IngestConfig
	logger       *zap.Logger

	now        func() time.Time
	pathMu     sync.Mutex
	lastMillis int64
}

// NewUsecase creates a new ingestion use case
func NewUsecase(
	documentRepo repository.DocumentRepository,
	chunkRepo repository.ChunkRepository,
	storage ObjectStorage,
	embedder Embedder,
	extractor TextExtractor,
	validator FileValidator,
	m *metrics.Metrics,
	cfg config.IngestConfig,
	logger *zap.Logger,
) (*IngestUsecase, error) {
	ch, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("create chunker: %w", err)
	}

	return &IngestUsecase{
		documentRepo: documentRepo,
		chunkRepo:    chunkRepo,
		storage:      storage,
		embedder:     embedder,
		extractor:    extractor,
		chunker:      ch,
		validator:    validator,
		metrics:      m,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Ingest runs every file through the pipeline independently. Only an invalid batch
// (missing folder, no files) is an error; per-file failures land in Failed.
func (uc *IngestUsecase) Ingest(ctx context.Context, req *entity.IngestRequest) (*entity.IngestResult, error) {
	if err := uc.validator.ValidateBatch(req.FolderID, req.Files); err != nil {
		return nil, err
	}

	ctx = logger.AddFields(ctx,
		zap.String("folder_id", req.FolderID),
		zap.Int("file_count", len(req.Files)),
	)
	ctxzap.Info(ctx, "ingestion started")

	var (
		mu     sync.Mutex
		result = &entity.IngestResult{
			Succeeded: []entity.IngestedFile{},
			Failed:    []entity.FailedFile{},
		}
	)

	g := &errgroup.Group{}
	g.SetLimit(max(uc.cfg.FileConcurrency, 1))
	for i, f := range req.Files {
		g.Go(func() error {
			ingested, failed := uc.ingestFile(ctx, req.FolderID, f, req.Progress)

			mu.Lock()
			defer mu.Unlock()
			if failed != nil {
				result.Failed = append(result.Failed, failed.WithPosition(i))
			} else {
				result.Succeeded = append(result.Succeeded, ingested.WithPosition(i))
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(result.Succeeded, func(a, b entity.IngestedFile) int { return a.Position() - b.Position() })
	slices.SortFunc(result.Failed, func(a, b entity.FailedFile) int { return a.Position() - b.Position() })

	ctxzap.Info(ctx, "ingestion finished",
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (uc *IngestUsecase) ingestFile(
	ctx context.Context,
	folderID string,
	f entity.UploadFile,
	progress chan<- entity.IngestProgress,
) (entity.IngestedFile, *entity.FailedFile) {
	start := time.Now()
	ctx = logger.AddFields(ctx, zap.String("file", f.Name))

	emit := func(stage entity.IngestStage, page, total int) {
		send(progress, entity.IngestProgress{File: f.Name, Stage: stage, Page: page, TotalPages: total})
	}
	fail := func(err error) (entity.IngestedFile, *entity.FailedFile) {
		ctxzap.Warn(ctx, "file ingestion failed", zap.Error(err))
		emit(entity.StageFailed, 0, 0)
		uc.metrics.FileIngested(string(entity.StageFailed), time.Since(start).Seconds())
		failed := entity.NewFailedFile(f.Name, err)
		return entity.IngestedFile{}, &failed
	}

	emit(entity.StageReceived, 0, 0)

	fileType, mimeType, err := uc.validator.ValidateFile(f)
	if err != nil {
		return fail(err)
	}
	emit(entity.StageValidated, 0, 0)

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	storedPath, err := uc.storage.Put(ctx, uc.storagePath(folderID, f.Name), f.Content, mimeType)
	if err != nil {
		return fail(err)
	}
	emit(entity.StageStored, 0, 0)

	extracted := uc.extractor.Extract(f.Content, fileType)
	if extracted.Degraded {
		ctxzap.Warn(ctx, "text extraction degraded",
			zap.Error(entity.ErrExtractionDegraded),
			zap.String("placeholder", extracted.Text()),
		)
	}
	emit(entity.StageExtracted, 0, 0)

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	doc, err := uc.documentRepo.Create(ctx, entity.Document{
		ID:         uuid.NewString(),
		FolderID:   folderID,
		Name:       f.Name,
		Path:       storedPath,
		Size:       f.Size(),
		Type:       fileType,
		MimeType:   mimeType,
		Content:    extracted.Text(),
		Status:     entity.DocumentStatusProcessing,
		UploadedAt: uc.now().UTC(),
	})
	if err != nil {
		uc.compensateUpload(ctx, storedPath)
		return fail(fmt.Errorf("%w: save document: %w", entity.ErrStorage, err))
	}
	ctx = logger.AddFields(ctx, zap.String("document_id", doc.ID))
	emit(entity.StagePersisted, 0, 0)

	// placeholder text of a degraded extraction is kept on the document but never indexed
	var drafts []entity.ChunkDraft
	stored, degraded := 0, extracted.Degraded
	if !extracted.Degraded {
		drafts = uc.chunker.Chunk(extracted.Pages)
		stored, degraded = uc.embedChunks(ctx, doc, drafts, func(page, total int) {
			emit(entity.StageEmbedding, page, total)
		})
	}

	if err := ctx.Err(); err != nil {
		uc.markFailed(ctx, doc.ID)
		return fail(err)
	}

	if err := uc.documentRepo.UpdateStatus(ctx, doc.ID, entity.DocumentStatusReady); err != nil {
		ctxzap.Error(ctx, "failed to mark document ready", zap.Error(err))
	} else {
		doc.Status = entity.DocumentStatusReady
	}

	stage := entity.StageEmbedded
	if degraded {
		stage = entity.StageEmbeddingDegraded
	}
	emit(stage, 0, 0)
	uc.metrics.FileIngested(string(stage), time.Since(start).Seconds())

	ctxzap.Info(ctx, "file ingested",
		zap.Int("pages", len(extracted.Pages)),
		zap.Int("chunks", len(drafts)),
		zap.Int("chunks_stored", stored),
		zap.Bool("embedding_degraded", degraded),
	)

	return entity.IngestedFile{
		Document:           *doc,
		URL:                uc.storage.PublicURL(storedPath),
		ChunkCount:         stored,
		ExtractionDegraded: extracted.Degraded,
		EmbeddingDegraded:  degraded,
	}, nil
}

// storagePath builds uploads/{folder}/{unixMillis}_{name}. Millis are kept strictly
// increasing within the process so upserts never overwrite a sibling upload.
func (uc *IngestUsecase) storagePath(folderID, name string) string {
	uc.pathMu.Lock()
	millis := max(uc.now().UnixMilli(), uc.lastMillis+1)
	uc.lastMillis = millis
	uc.pathMu.Unlock()

	return fmt.Sprintf("uploads/%s/%d_%s", folderID, millis, sanitize(name))
}

func send(ch chan<- entity.IngestProgress, ev entity.IngestProgress) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}
