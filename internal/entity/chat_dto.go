package entity

type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}

type ChatRequest struct {
	Message            string        `json:"message"`
	DocumentOrFolderID string        `json:"documentOrFolderId"`
	FileID             string        `json:"fileId,omitempty"`
	History            []ChatMessage `json:"conversationHistory,omitempty"`
}

// TargetID returns the document or folder the question is scoped to.
func (r *ChatRequest) TargetID() string {
	if r.DocumentOrFolderID != "" {
		return r.DocumentOrFolderID
	}
	return r.FileID
}

type ChatResponse struct {
	Content   string     `json:"content"`
	Citations []Citation `json:"citations"`
	Chunks    []string   `json:"chunks"`
}

type ExportChatRequest struct {
	Title    string        `json:"title,omitempty"`
	Messages []ChatMessage `json:"messages"`
}

// ExportedFile is a rendered transcript ready for download.
type ExportedFile struct {
	Name        string
	ContentType string
	Content     []byte
}
