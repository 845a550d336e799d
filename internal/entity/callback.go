package entity

// CallbackEventType represents the type of callback event
type CallbackEventType string

const (
	CallbackEventTypeIngestCompleted CallbackEventType = "ingestCompleted"
	CallbackEventTypeError           CallbackEventType = "error"
)

// CallbackEvent represents a callback event
type CallbackEvent struct {
	Event     CallbackEventType `json:"event"`
	Timestamp string            `json:"timestamp"` // ISO-8601 UTC
	Data      any               `json:"data"`
}

// CallbackIngestData is sent when an async upload finishes.
type CallbackIngestData struct {
	FolderID      string         `json:"folderId"`
	UploadedFiles []IngestedFile `json:"uploadedFiles"`
	Errors        []FailedFile   `json:"errors"`
}

// CallbackErrorData represents data for error event
type CallbackErrorData struct {
	Error CallbackErrorDetails `json:"error"`
}

// CallbackErrorDetails contains error information
type CallbackErrorDetails struct {
	Message string         `json:"message"`
	Details map[string]any `json:"details"` // Context like ids, files
}
