package ingest

import (
	"context"
	"sync"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/metrics"
	pkgRetry "github.com/futig/docqa-backend/internal/pkg/retry"
	"github.com/futig/docqa-backend/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var sanitize = validator.SanitizeFilename

// embedChunks embeds drafts concurrently and persists the successful ones in one batch.
// onPage is called each time every chunk of a page has been attempted.
// Returns the number of stored chunks and whether anything was lost.
func (uc *IngestUsecase) embedChunks(
	ctx context.Context,
	doc *entity.Document,
	drafts []entity.ChunkDraft,
	onPage func(page, total int),
) (int, bool) {
	if len(drafts) == 0 {
		return 0, false
	}

	remaining := make(map[int]int)
	for _, s := range drafts {
		remaining[s.PageNumber]++
	}
	totalPages := len(remaining)

	var (
		mu        sync.Mutex
		pagesDone int
		failed    int
		embedded  = make([]*entity.Chunk, len(drafts))
	)

	g := &errgroup.Group{}
	g.SetLimit(max(uc.cfg.EmbedConcurrency, 1))
	for i, draft := range drafts {
		g.Go(func() error {
			vec, err := pkgRetry.DoWithData(ctx, uc.cfg.Retry, func(ctx context.Context) ([]float32, error) {
				return uc.embedder.Embed(ctx, draft.Text)
			})
			if err != nil {
				ctxzap.Warn(ctx, "chunk embedding failed, skipping",
					zap.Int("chunk_index", draft.ChunkIndex),
					zap.Int("page", draft.PageNumber),
					zap.Error(err),
				)
				uc.metrics.EmbeddingFailed(metrics.PathIngest)
			} else {
				embedded[i] = &entity.Chunk{
					FolderID:   doc.FolderID,
					DocumentID: doc.ID,
					PageNumber: draft.PageNumber,
					ChunkIndex: draft.ChunkIndex,
					Content:    draft.Text,
					Embedding:  vec,
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
			}
			remaining[draft.PageNumber]--
			if remaining[draft.PageNumber] == 0 {
				pagesDone++
				onPage(pagesDone, totalPages)
			}
			return nil
		})
	}
	_ = g.Wait()

	chunks := make([]entity.Chunk, 0, len(drafts))
	for _, ch := range embedded {
		if ch != nil {
			chunks = append(chunks, *ch)
		}
	}
	if len(chunks) == 0 {
		return 0, true
	}

	if err := uc.chunkRepo.InsertChunks(ctx, chunks); err != nil {
		ctxzap.Error(ctx, "failed to persist chunks", zap.Int("chunk_count", len(chunks)), zap.Error(err))
		return 0, true
	}
	uc.metrics.ChunksEmbedded(len(chunks))

	return len(chunks), failed > 0
}

// compensateUpload removes an object whose document row could not be written.
func (uc *IngestUsecase) compensateUpload(ctx context.Context, path string) {
	if err := uc.storage.Delete(context.WithoutCancel(ctx), path); err != nil {
		ctxzap.Warn(ctx, "failed to delete orphaned upload",
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	ctxzap.Info(ctx, "orphaned upload deleted", zap.String("path", path))
}

func (uc *IngestUsecase) markFailed(ctx context.Context, documentID string) {
	if err := uc.documentRepo.UpdateStatus(context.WithoutCancel(ctx), documentID, entity.DocumentStatusFailed); err != nil {
		ctxzap.Warn(ctx, "failed to mark document failed", zap.Error(err))
	}
}
