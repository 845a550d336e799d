package document

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/logger"
	"github.com/futig/docqa-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const progressBuffer = 256

type Handler struct {
	usecase       IngestUsecase
	cfg           config.FileUploadConfig
	callbackConn  CallbackConnector
	exposeDetails bool

	background sync.WaitGroup // async uploads still running
}

func NewHandler(
	usecase IngestUsecase,
	cfg config.FileUploadConfig,
	callbackConn CallbackConnector,
	exposeDetails bool,
) *Handler {
	return &Handler{
		usecase:       usecase,
		cfg:           cfg,
		callbackConn:  callbackConn,
		exposeDetails: exposeDetails,
	}
}

// UploadDocuments handles POST /documents
//
// Responds synchronously by default, as an NDJSON progress stream when the client
// accepts application/x-ndjson (or passes stream=true), and with 202 when callback_url is set.
func (h *Handler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadDocuments")
	requestID := chimiddleware.GetReqID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	folderID := strings.TrimSpace(r.FormValue("folder_id"))
	callbackURL := r.FormValue("callback_url")

	files, err := toUploadFiles(r.MultipartForm)
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "failed to read uploaded file", err)
		return
	}
	if len(files) == 0 {
		h.respondError(ctx, w, http.StatusBadRequest, "No file provided", nil)
		return
	}
	if folderID == "" {
		h.respondError(ctx, w, http.StatusBadRequest, "Folder ID is required", nil)
		return
	}

	if callbackURL != "" {
		if err := h.callbackConn.Validate(callbackURL); err != nil {
			h.respondError(ctx, w, http.StatusBadRequest, "Invalid callback_url", err)
			return
		}
	}

	ctx = logger.AddFields(ctx, zap.String("folder_id", folderID))
	ctxzap.Info(ctx, "upload received", zap.Int("file_count", len(files)))

	req := &entity.IngestRequest{FolderID: folderID, Files: files}

	switch {
	case callbackURL != "":
		h.ingestAsync(ctx, w, req, callbackURL, requestID)
	case wantsStream(r):
		h.ingestStream(ctx, w, req)
	default:
		h.ingestSync(ctx, w, req)
	}
}

func (h *Handler) ingestSync(ctx context.Context, w http.ResponseWriter, req *entity.IngestRequest) {
	res, err := h.usecase.Ingest(ctx, req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	resp, ok := toUploadResponse(res, h.exposeDetails)
	if !ok {
		ctxzap.Warn(ctx, "all uploads failed", zap.Int("failed", len(res.Failed)))
		response.JSON(w, http.StatusBadRequest, resp)
		return
	}

	response.Success(w, resp)
}

func (h *Handler) ingestStream(ctx context.Context, w http.ResponseWriter, req *entity.IngestRequest) {
	progress := make(chan entity.IngestProgress, progressBuffer)
	req.Progress = progress

	type outcome struct {
		res *entity.IngestResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := h.usecase.Ingest(ctx, req)
		done <- outcome{res: res, err: err}
	}()

	stream := response.NewNDJSONWriter(w)
	write := func(ev entity.StreamEvent) {
		if err := stream.Write(ev); err != nil {
			ctxzap.Debug(ctx, "failed to write stream event", zap.Error(err))
		}
	}

	for {
		select {
		case p := <-progress:
			write(toProgressEvent(p))
		case out := <-done:
			for drained := false; !drained; {
				select {
				case p := <-progress:
					write(toProgressEvent(p))
				default:
					drained = true
				}
			}

			if out.err != nil {
				ctxzap.Error(ctx, "streamed ingestion failed", zap.Error(out.err))
				write(entity.StreamEvent{Type: entity.StreamEventError, Message: h.errorMessage(out.err)})
				return
			}
			write(toCompleteEvent(out.res, h.exposeDetails))
			return
		}
	}
}

func (h *Handler) ingestAsync(ctx context.Context, w http.ResponseWriter, req *entity.IngestRequest, callbackURL, requestID string) {
	response.Accepted(w, &entity.UploadAcceptedResponse{
		Status:   "accepted",
		FolderID: req.FolderID,
		Files:    len(req.Files),
	})

	h.background.Add(1)
	go func() {
		defer h.background.Done()

		bgCtx := logger.AddFields(logger.Detach(ctx),
			zap.String("action", "UploadDocuments-async"),
		)

		res, err := h.usecase.Ingest(bgCtx, req)
		if err != nil {
			ctxzap.Error(bgCtx, "failed to ingest documents", zap.Error(err))
			details := map[string]any{
				"folder_id":  req.FolderID,
				"error":      h.errorMessage(err),
				"file_count": len(req.Files),
			}
			if h.exposeDetails {
				details["details"] = err.Error()
			}
			h.callbackConn.SendError(bgCtx, callbackURL, requestID, "failed to ingest documents", details)
			return
		}

		h.callbackConn.SendIngestCompleted(bgCtx, callbackURL, requestID, toCallbackIngest(req.FolderID, res, h.exposeDetails))
	}()
}

// ListDocuments handles GET /documents?folder_id=
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	folderID := r.URL.Query().Get("folder_id")

	ctx = logger.AddFields(ctx,
		zap.String("folder_id", folderID),
		zap.String("action", "ListDocuments"),
	)

	docs, err := h.usecase.ListDocuments(ctx, folderID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Debug(ctx, "documents listed", zap.Int("count", len(docs)))
	response.Success(w, &entity.ListDocumentsResponse{Documents: docs})
}

// DeleteDocument handles DELETE /documents/{document_id}
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentID := chi.URLParam(r, "document_id")

	ctx = logger.AddFields(ctx,
		zap.String("document_id", documentID),
		zap.String("action", "DeleteDocument"),
	)

	if err := h.usecase.DeleteDocument(ctx, documentID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, &entity.DeleteDocumentResponse{Status: "deleted"})
}

func wantsStream(r *http.Request) bool {
	return r.URL.Query().Get("stream") == "true" ||
		strings.Contains(r.Header.Get("Accept"), response.NDJSONContentType)
}

// Helper methods
func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if err == nil {
		ctxzap.Warn(ctx, message)
		response.Error(w, status, message)
		return
	}

	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Error(err))
	}

	if h.exposeDetails {
		response.ErrorWithDetails(w, status, message, err.Error())
		return
	}
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrDocumentNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "Document not found", err)
	case entity.IsValidation(err):
		h.respondError(ctx, w, http.StatusBadRequest, h.errorMessage(err), err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}

func (h *Handler) errorMessage(err error) string {
	if entity.IsValidation(err) {
		return err.Error()
	}
	return "internal server error"
}

// Wait blocks until accepted async uploads have finished or ctx is done.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
