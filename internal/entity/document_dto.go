package entity

type UploadDocumentsResponse struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	UploadedFiles []IngestedFile `json:"uploadedFiles"`
	Errors        []FailedFile   `json:"errors"`
}

type UploadAcceptedResponse struct {
	Status   string `json:"status"`
	FolderID string `json:"folderId"`
	Files    int    `json:"files"`
}

type ListDocumentsResponse struct {
	Documents []*Document `json:"documents"`
}

// StreamEventType is the "type" discriminator of an NDJSON upload stream line.
type StreamEventType string

const (
	StreamEventProgress StreamEventType = "progress"
	StreamEventComplete StreamEventType = "complete"
	StreamEventError    StreamEventType = "error"
)

type StreamEvent struct {
	Type          StreamEventType `json:"type"`
	File          string          `json:"file,omitempty"`
	Stage         IngestStage     `json:"stage,omitempty"`
	Page          int             `json:"page,omitempty"`
	TotalPages    int             `json:"totalPages,omitempty"`
	UploadedFiles []IngestedFile  `json:"uploadedFiles,omitempty"`
	Errors        []FailedFile    `json:"errors,omitempty"`
	Message       string          `json:"message,omitempty"`
}

type DeleteDocumentResponse struct {
	Status string `json:"status"`
}
