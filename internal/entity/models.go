package entity

import (
	"fmt"
	"time"
)

type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeText FileType = "text"
)

const (
	MimePDF  = "application/pdf"
	MimeText = "text/plain"
)

// FileTypeFromMime maps an allowed MIME type to its FileType.
func FileTypeFromMime(mime string) (FileType, error) {
	switch mime {
	case MimePDF:
		return FileTypePDF, nil
	case MimeText:
		return FileTypeText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFileType, mime)
	}
}

type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID         string         `json:"id"`
	FolderID   string         `json:"folderId"`
	Name       string         `json:"name"`
	Path       string         `json:"path"`
	Size       int64          `json:"size"`
	Type       FileType       `json:"type"`
	MimeType   string         `json:"mimeType"`
	Content    string         `json:"-"`
	Status     DocumentStatus `json:"status"`
	UploadedAt time.Time      `json:"uploadedAt"`
}

// Chunk is a persisted, embedded slice of a document page.
type Chunk struct {
	ID         string    `json:"id"`
	FolderID   string    `json:"folderId"`
	DocumentID string    `json:"documentId"`
	PageNumber int       `json:"pageNumber"`
	ChunkIndex int       `json:"chunkIndex"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
}

// ChunkDraft is a chunk before embedding.
type ChunkDraft struct {
	PageNumber int
	ChunkIndex int
	Text       string
}

type ChunkMatch struct {
	DocumentID   string  `json:"documentId"`
	DocumentName string  `json:"documentName"`
	Content      string  `json:"content"`
	PageNumber   int     `json:"pageNumber"`
	ChunkIndex   int     `json:"chunkIndex"`
	Similarity   float64 `json:"similarity"`
}

type Citation struct {
	DocName    string   `json:"docName"`
	Page       *int     `json:"page,omitempty"`
	Section    string   `json:"section,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`
}

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleSystem    ChatRole = "system"
)

func (r ChatRole) IsValid() bool {
	switch r {
	case ChatRoleUser, ChatRoleAssistant, ChatRoleSystem:
		return true
	default:
		return false
	}
}

type ChatMessage struct {
	Role      ChatRole   `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations,omitempty"`
	Chunks    []string   `json:"chunks,omitempty"`
}
