package entity

// IngestStage is a step of the per-file ingestion pipeline.
type IngestStage string

const (
	StageReceived          IngestStage = "received"
	StageValidated         IngestStage = "validated"
	StageStored            IngestStage = "stored"
	StageExtracted         IngestStage = "extracted"
	StagePersisted         IngestStage = "persisted"
	StageEmbedding         IngestStage = "embedding"
	StageEmbedded          IngestStage = "embedded"
	StageEmbeddingDegraded IngestStage = "embedding-degraded"
	StageFailed            IngestStage = "failed"
)

// UploadFile is a file received from the client, fully read in memory.
type UploadFile struct {
	Name        string
	ContentType string
	Content     []byte
}

func (f UploadFile) Size() int64 {
	return int64(len(f.Content))
}

type IngestRequest struct {
	FolderID string
	Files    []UploadFile
	// Progress is optional. Sends never block; events are dropped when the buffer is full.
	Progress chan<- IngestProgress
}

type IngestProgress struct {
	File       string      `json:"file"`
	Stage      IngestStage `json:"stage"`
	Page       int         `json:"page,omitempty"`
	TotalPages int         `json:"totalPages,omitempty"`
}

type IngestResult struct {
	Succeeded []IngestedFile `json:"uploadedFiles"`
	Failed    []FailedFile   `json:"errors"`
}

type IngestedFile struct {
	Document
	URL                string `json:"url,omitempty"`
	ChunkCount         int    `json:"chunkCount"`
	ExtractionDegraded bool   `json:"extractionDegraded,omitempty"`
	EmbeddingDegraded  bool   `json:"embeddingDegraded,omitempty"`

	position int
}

// FailedFile carries a client-safe message; the underlying error stays in cause.
type FailedFile struct {
	File  string `json:"file"`
	Error string `json:"error"`

	cause    error
	position int
}

func NewFailedFile(file string, err error) FailedFile {
	return FailedFile{File: file, Error: FailureMessage(err), cause: err}
}

// Cause returns the error the file failed with, for logs and development responses.
func (f FailedFile) Cause() error { return f.cause }

// WithDetails replaces the message with the underlying error text.
func (f FailedFile) WithDetails() FailedFile {
	if f.cause != nil {
		f.Error = f.cause.Error()
	}
	return f
}

// WithPosition tags a result with the index of its file in the request.
func (f IngestedFile) WithPosition(i int) IngestedFile {
	f.position = i
	return f
}

func (f IngestedFile) Position() int { return f.position }

func (f FailedFile) WithPosition(i int) FailedFile {
	f.position = i
	return f
}

func (f FailedFile) Position() int { return f.position }
