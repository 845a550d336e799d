package formatter

import (
	"fmt"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
)

const defaultTitle = "Chat transcript"

// Transcript is a client-held conversation to be rendered as a file.
type Transcript struct {
	Title    string
	Messages []entity.ChatMessage
}

func (t Transcript) title() string {
	if strings.TrimSpace(t.Title) == "" {
		return defaultTitle
	}
	return t.Title
}

type Formatter interface {
	Format(t Transcript) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format: %s", entity.ErrInvalidParameter, format)
	}
}

func roleLabel(role entity.ChatRole) string {
	switch role {
	case entity.ChatRoleUser:
		return "User"
	case entity.ChatRoleAssistant:
		return "Assistant"
	case entity.ChatRoleSystem:
		return "System"
	default:
		return string(role)
	}
}

// citationLine renders e.g. "report.pdf, page 3, Chunk 7 (0.82)".
func citationLine(c entity.Citation) string {
	parts := []string{c.DocName}
	if c.Page != nil {
		parts = append(parts, fmt.Sprintf("page %d", *c.Page))
	}
	if c.Section != "" {
		parts = append(parts, c.Section)
	}
	line := strings.Join(parts, ", ")
	if c.Similarity != nil {
		line += fmt.Sprintf(" (%.2f)", *c.Similarity)
	}
	return line
}
