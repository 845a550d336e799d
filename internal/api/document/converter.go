package document

import (
	"fmt"
	"io"
	"mime/multipart"
	"slices"

	"github.com/futig/docqa-backend/internal/entity"
)

// toUploadFiles reads every part of the "file" field (alias "files") into memory.
func toUploadFiles(form *multipart.Form) ([]entity.UploadFile, error) {
	headers := slices.Concat(form.File["file"], form.File["files"])

	files := make([]entity.UploadFile, 0, len(headers))
	for _, fh := range headers {
		content, err := readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("read file '%s': %w", fh.Filename, err)
		}
		files = append(files, entity.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     content,
		})
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// toFailures returns the per-file errors clients see. The underlying error text is
// only sent when exposeDetails is set.
func toFailures(failed []entity.FailedFile, exposeDetails bool) []entity.FailedFile {
	out := make([]entity.FailedFile, len(failed))
	for i, f := range failed {
		if exposeDetails {
			f = f.WithDetails()
		}
		out[i] = f
	}
	return out
}

// toUploadResponse builds the synchronous upload body. ok is false when nothing succeeded.
func toUploadResponse(res *entity.IngestResult, exposeDetails bool) (resp *entity.UploadDocumentsResponse, ok bool) {
	resp = &entity.UploadDocumentsResponse{
		Success:       len(res.Succeeded) > 0,
		UploadedFiles: res.Succeeded,
		Errors:        toFailures(res.Failed, exposeDetails),
	}

	switch {
	case len(res.Succeeded) == 0:
		resp.Message = "All uploads failed"
	case len(res.Failed) == 0:
		resp.Message = fmt.Sprintf("%d file(s) uploaded successfully", len(res.Succeeded))
	default:
		resp.Message = fmt.Sprintf("%d file(s) uploaded, %d failed", len(res.Succeeded), len(res.Failed))
	}

	return resp, resp.Success
}

func toProgressEvent(p entity.IngestProgress) entity.StreamEvent {
	return entity.StreamEvent{
		Type:       entity.StreamEventProgress,
		File:       p.File,
		Stage:      p.Stage,
		Page:       p.Page,
		TotalPages: p.TotalPages,
	}
}

func toCompleteEvent(res *entity.IngestResult, exposeDetails bool) entity.StreamEvent {
	resp, _ := toUploadResponse(res, exposeDetails)
	return entity.StreamEvent{
		Type:          entity.StreamEventComplete,
		UploadedFiles: resp.UploadedFiles,
		Errors:        resp.Errors,
		Message:       resp.Message,
	}
}

func toCallbackIngest(folderID string, res *entity.IngestResult, exposeDetails bool) *entity.CallbackIngestData {
	return &entity.CallbackIngestData{
		FolderID:      folderID,
		UploadedFiles: res.Succeeded,
		Errors:        toFailures(res.Failed, exposeDetails),
	}
}
