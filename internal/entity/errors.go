package entity

import "errors"

// Domain errors
var (
	// Validation errors
	ErrValidation       = errors.New("validation failed")
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidFormat    = errors.New("invalid format")

	// File errors
	ErrNoFiles           = errors.New("no files provided")
	ErrInvalidFileType   = errors.New("only PDF and TXT files are allowed")
	ErrFileTooLarge      = errors.New("file too large")
	ErrTooManyFiles      = errors.New("too many files")
	ErrTotalSizeTooLarge = errors.New("total file size too large")

	// Document errors
	ErrDocumentNotFound = errors.New("document not found")

	// Pipeline errors
	ErrExtractionDegraded = errors.New("text extraction degraded")
	ErrEmbedding          = errors.New("embedding failed")
	ErrStorage            = errors.New("storage operation failed")
	ErrRetrieval          = errors.New("retrieval failed")
	ErrGeneration         = errors.New("generation failed")
)

// IsValidation reports whether err is a client input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrNoFiles) ||
		errors.Is(err, ErrInvalidFileType) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrTooManyFiles) ||
		errors.Is(err, ErrTotalSizeTooLarge)
}

// FailureMessage maps a per-file pipeline error to a stable client message.
// Input errors keep their own text; anything else is reduced to its class.
func FailureMessage(err error) string {
	switch {
	case IsValidation(err):
		return err.Error()
	case errors.Is(err, ErrStorage):
		return "failed to store file"
	default:
		return "internal error"
	}
}
