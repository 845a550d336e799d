package formatter

import (
	"bytes"
	"fmt"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(t Transcript) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", t.title())

	for _, m := range t.Messages {
		fmt.Fprintf(&buf, "\n## %s\n\n%s\n", roleLabel(m.Role), m.Content)
		if len(m.Citations) == 0 {
			continue
		}
		buf.WriteString("\n**Sources:**\n\n")
		for _, c := range m.Citations {
			fmt.Fprintf(&buf, "- %s\n", citationLine(c))
		}
	}

	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
