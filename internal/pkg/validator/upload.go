package validator

import (
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
)

// AllowedMimeTypes is the upload allow-list.
var AllowedMimeTypes = map[string]entity.FileType{
	entity.MimePDF:  entity.FileTypePDF,
	entity.MimeText: entity.FileTypeText,
}

var extensionMimeTypes = map[string]string{
	".pdf": entity.MimePDF,
	".txt": entity.MimeText,
}

// Validator validates file uploads and chat requests
type Validator struct {
	cfg     config.FileUploadConfig
	chatCfg config.ChatConfig
}

func NewValidator(cfg config.FileUploadConfig, chatCfg config.ChatConfig) *Validator {
	return &Validator{cfg: cfg, chatCfg: chatCfg}
}

// ValidateBatch rejects a request as a whole: missing folder, no files or batch limits exceeded.
func (v *Validator) ValidateBatch(folderID string, files []entity.UploadFile) error {
	if strings.TrimSpace(folderID) == "" {
		return fmt.Errorf("%w: folder_id", entity.ErrMissingField)
	}
	if len(files) == 0 {
		return entity.ErrNoFiles
	}

	if v.cfg.MaxFileCount > 0 && len(files) > v.cfg.MaxFileCount {
		return fmt.Errorf("%w: maximum %d files allowed, got %d", entity.ErrTooManyFiles, v.cfg.MaxFileCount, len(files))
	}

	var totalSize int64
	for _, f := range files {
		totalSize += f.Size()
	}
	if v.cfg.MaxTotalSize > 0 && totalSize > v.cfg.MaxTotalSize {
		return fmt.Errorf("%w: total size is %d bytes (max %d)", entity.ErrTotalSizeTooLarge, totalSize, v.cfg.MaxTotalSize)
	}

	return nil
}

// ValidateFile checks a single file and resolves its MIME type.
// The declared content type wins; the extension is only consulted when none was declared.
func (v *Validator) ValidateFile(f entity.UploadFile) (entity.FileType, string, error) {
	if strings.TrimSpace(f.Name) == "" {
		return "", "", fmt.Errorf("%w: file name", entity.ErrMissingField)
	}

	mimeType := ResolveMimeType(f.Name, f.ContentType)
	fileType, ok := AllowedMimeTypes[mimeType]
	if !ok {
		return "", "", entity.ErrInvalidFileType
	}

	if v.cfg.MaxFileSize > 0 && f.Size() > v.cfg.MaxFileSize {
		return "", "", fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, f.Name, f.Size(), v.cfg.MaxFileSize)
	}

	return fileType, mimeType, nil
}

// ResolveMimeType normalises the declared content type, sniffing by extension when it is absent.
func ResolveMimeType(name, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return extensionMimeTypes[strings.ToLower(filepath.Ext(name))]
	}
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		return mediaType
	}
	return strings.ToLower(declared)
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeFilename sanitizes a filename for safe storage
func SanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	return unsafeFilenameChars.ReplaceAllString(filename, "_")
}
