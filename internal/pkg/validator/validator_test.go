package validator

import (
	"strings"
	"testing"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() *Validator {
	return NewValidator(
		config.FileUploadConfig{MaxFileSize: 10, MaxTotalSize: 25, MaxFileCount: 3},
		config.ChatConfig{MaxMessageLength: 20, HistoryTurns: 5},
	)
}

func TestValidateFile(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name     string
		file     entity.UploadFile
		wantType entity.FileType
		wantMime string
		wantErr  error
	}{
		{
			name:     "declared pdf",
			file:     entity.UploadFile{Name: "a.bin", ContentType: "application/pdf", Content: []byte("x")},
			wantType: entity.FileTypePDF,
			wantMime: entity.MimePDF,
		},
		{
			name:     "text with charset",
			file:     entity.UploadFile{Name: "a.txt", ContentType: "text/plain; charset=utf-8", Content: []byte("x")},
			wantType: entity.FileTypeText,
			wantMime: entity.MimeText,
		},
		{
			name:     "sniffed by extension",
			file:     entity.UploadFile{Name: "notes.TXT", Content: []byte("x")},
			wantType: entity.FileTypeText,
			wantMime: entity.MimeText,
		},
		{
			name:    "declared type wins over extension",
			file:    entity.UploadFile{Name: "a.pdf", ContentType: "image/png", Content: []byte("x")},
			wantErr: entity.ErrInvalidFileType,
		},
		{
			name:    "octet-stream is not sniffed",
			file:    entity.UploadFile{Name: "notes.txt", ContentType: "application/octet-stream", Content: []byte("x")},
			wantErr: entity.ErrInvalidFileType,
		},
		{
			name:     "blank declared type is sniffed",
			file:     entity.UploadFile{Name: "a.pdf", ContentType: "  ", Content: []byte("x")},
			wantType: entity.FileTypePDF,
			wantMime: entity.MimePDF,
		},
		{
			name:    "docx rejected",
			file:    entity.UploadFile{Name: "a.docx", Content: []byte("x")},
			wantErr: entity.ErrInvalidFileType,
		},
		{
			name:    "too large",
			file:    entity.UploadFile{Name: "a.txt", ContentType: "text/plain", Content: []byte(strings.Repeat("x", 11))},
			wantErr: entity.ErrFileTooLarge,
		},
		{
			name:    "empty name",
			file:    entity.UploadFile{Name: " ", ContentType: "text/plain", Content: []byte("x")},
			wantErr: entity.ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fileType, mimeType, err := v.ValidateFile(tt.file)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, fileType)
			assert.Equal(t, tt.wantMime, mimeType)
		})
	}
}

func TestValidateBatch(t *testing.T) {
	v := newTestValidator()
	file := entity.UploadFile{Name: "a.txt", Content: []byte("hello")}

	assert.ErrorIs(t, v.ValidateBatch("", []entity.UploadFile{file}), entity.ErrMissingField)
	assert.ErrorIs(t, v.ValidateBatch("F1", nil), entity.ErrNoFiles)
	assert.ErrorIs(t, v.ValidateBatch("F1", []entity.UploadFile{file, file, file, file}), entity.ErrTooManyFiles)

	big := entity.UploadFile{Name: "b.txt", Content: []byte(strings.Repeat("x", 10))}
	assert.ErrorIs(t, v.ValidateBatch("F1", []entity.UploadFile{big, big, big}), entity.ErrTotalSizeTooLarge)

	assert.NoError(t, v.ValidateBatch("F1", []entity.UploadFile{file, file}))
}

func TestValidateChatRequest(t *testing.T) {
	v := newTestValidator()

	req := &entity.ChatRequest{Message: "   What color is the sky today, please?  ", FileID: "doc-1"}
	require.NoError(t, v.ValidateChatRequest(req))
	assert.Equal(t, "What color is the sk", req.Message)
	assert.Equal(t, "doc-1", req.TargetID())

	assert.ErrorIs(t, v.ValidateChatRequest(&entity.ChatRequest{Message: "  ", DocumentOrFolderID: "F1"}), entity.ErrMissingField)
	assert.ErrorIs(t, v.ValidateChatRequest(&entity.ChatRequest{Message: "hi"}), entity.ErrMissingField)

	bad := &entity.ChatRequest{
		Message:            "hi",
		DocumentOrFolderID: "F1",
		History:            []entity.ChatMessage{{Role: "robot", Content: "x"}},
	}
	assert.ErrorIs(t, v.ValidateChatRequest(bad), entity.ErrInvalidParameter)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "my_report__v2_.pdf", SanitizeFilename("my report (v2).pdf"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "file.txt", SanitizeFilename(`C:\Users\me\file.txt`))
	assert.Equal(t, "______2.txt", SanitizeFilename("отчёт_2.txt"))
}
