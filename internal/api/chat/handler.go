package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/logger"
	"github.com/futig/docqa-backend/internal/pkg/response"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

type Handler struct {
	usecase       ChatUsecase
	exposeDetails bool
}

func NewHandler(usecase ChatUsecase, exposeDetails bool) *Handler {
	return &Handler{
		usecase:       usecase,
		exposeDetails: exposeDetails,
	}
}

// Chat handles POST /chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Chat")

	var req entity.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx = logger.AddFields(ctx, zap.String("target_id", req.TargetID()))
	ctxzap.Info(ctx, "chat request received",
		zap.Int("message_length", len(req.Message)),
		zap.Int("history_length", len(req.History)),
	)

	resp, err := h.usecase.Ask(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "chat answered", zap.Int("citations", len(resp.Citations)))
	response.Success(w, resp)
}

// Export handles POST /chat/export?format=markdown|docx|pdf
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ExportChat")

	format := entity.ResultFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = entity.FormatMarkdown
	}

	var req entity.ExportChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	file, err := h.usecase.Export(ctx, &req, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.File(w, file.ContentType, file.Name, file.Content)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

// Helper methods
func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Error(err))
	}

	if h.exposeDetails && err != nil {
		response.ErrorWithDetails(w, status, message, err.Error())
		return
	}
	response.Error(w, status, message)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case entity.IsValidation(err):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, entity.ErrRetrieval):
		h.respondError(ctx, w, http.StatusBadGateway, "Failed to search document embeddings", err)
	case errors.Is(err, entity.ErrGeneration):
		h.respondError(ctx, w, http.StatusBadGateway, "Failed to generate response. Please try again.", err)
	case errors.Is(err, context.Canceled):
		h.respondError(ctx, w, http.StatusRequestTimeout, "request cancelled", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
