package formatter

import (
	"bytes"

	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (df *DOCXFormatter) Format(t Transcript) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	titlePar := doc.AddParagraph()
	titlePar.SetStyle("Heading1")
	titlePar.AddRun().AddText(t.title())

	for _, m := range t.Messages {
		doc.AddParagraph()

		rolePar := doc.AddParagraph()
		rolePar.SetStyle("Heading2")
		rolePar.AddRun().AddText(roleLabel(m.Role))

		doc.AddParagraph().AddRun().AddText(m.Content)

		for _, c := range m.Citations {
			citPar := doc.AddParagraph()
			run := citPar.AddRun()
			run.Properties().SetItalic(true)
			run.AddText("• " + citationLine(c))
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (df *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (df *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
