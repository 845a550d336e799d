package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUsecase struct {
	mock.Mock
}

func (m *mockUsecase) Ask(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error) {
	args := m.Called(ctx, req)
	if resp, ok := args.Get(0).(*entity.ChatResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsecase) Export(ctx context.Context, req *entity.ExportChatRequest, format entity.ResultFormat) (*entity.ExportedFile, error) {
	args := m.Called(ctx, req, format)
	if f, ok := args.Get(0).(*entity.ExportedFile); ok {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}

func newRouter(uc ChatUsecase, exposeDetails bool) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(uc, exposeDetails))
	return r
}

func post(router http.Handler, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChat(t *testing.T) {
	page := 1
	sim := 0.6
	uc := &mockUsecase{}
	uc.On("Ask", mock.Anything, mock.MatchedBy(func(req *entity.ChatRequest) bool {
		return req.Message == "What color is the sky?" && req.TargetID() == "doc-1" && len(req.History) == 1
	})).Return(&entity.ChatResponse{
		Content:   "Blue.",
		Citations: []entity.Citation{{DocName: "sky.txt", Page: &page, Section: "Chunk 0", Similarity: &sim}},
		Chunks:    []string{"The sky is blue."},
	}, nil)

	rec := post(newRouter(uc, false), "/chat", `{
		"message": "What color is the sky?",
		"fileId": "doc-1",
		"conversationHistory": [{"role": "user", "content": "hi"}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Blue.", resp["content"])
	citation := resp["citations"].([]any)[0].(map[string]any)
	assert.Equal(t, "sky.txt", citation["docName"])
	assert.Equal(t, "Chunk 0", citation["section"])
	assert.EqualValues(t, 1, citation["page"])
	uc.AssertExpectations(t)
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "validation", err: fmt.Errorf("%w: message", entity.ErrMissingField), wantStatus: http.StatusBadRequest, wantError: "required field is missing: message"},
		{name: "retrieval", err: fmt.Errorf("%w: embed query: boom", entity.ErrRetrieval), wantStatus: http.StatusBadGateway, wantError: "Failed to search document embeddings"},
		{name: "generation", err: fmt.Errorf("%w: HTTP 503", entity.ErrGeneration), wantStatus: http.StatusBadGateway, wantError: "Failed to generate response. Please try again."},
		{name: "unexpected", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError, wantError: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUsecase{}
			uc.On("Ask", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := post(newRouter(uc, false), "/chat", `{"message":"q","documentOrFolderId":"f"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp response.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
			assert.Empty(t, resp.Details, "details are hidden in production")
		})
	}
}

func TestChatExposesDetailsOutsideProduction(t *testing.T) {
	uc := &mockUsecase{}
	uc.On("Ask", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: HTTP 503", entity.ErrGeneration))

	rec := post(newRouter(uc, true), "/chat", `{"message":"q","documentOrFolderId":"f"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Details, "HTTP 503")
}

func TestChatInvalidBody(t *testing.T) {
	uc := &mockUsecase{}

	rec := post(newRouter(uc, false), "/chat", `{"message":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")
	uc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestExport(t *testing.T) {
	uc := &mockUsecase{}
	uc.On("Export", mock.Anything, mock.Anything, entity.FormatPDF).Return(&entity.ExportedFile{
		Name:        "chat-transcript.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.3"),
	}, nil)
	uc.On("Export", mock.Anything, mock.Anything, entity.FormatMarkdown).Return(&entity.ExportedFile{
		Name:        "chat-transcript.md",
		ContentType: "text/markdown; charset=utf-8",
		Content:     []byte("# Chat transcript"),
	}, nil)

	router := newRouter(uc, false)
	body := `{"messages":[{"role":"user","content":"hi"}]}`

	rec := post(router, "/chat/export?format=pdf", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="chat-transcript.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3", rec.Body.String())

	rec = post(router, "/chat/export", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# Chat transcript", rec.Body.String())
}
