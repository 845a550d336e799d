// Package extractor turns uploaded file bytes into per-page plain text.
//
// Extraction never fails: unreadable input yields a single placeholder page
// and Result.Degraded is set so callers can report it.
package extractor

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/ledongthuc/pdf"
)

const (
	EmptyTextPlaceholder  = "[empty text file]"
	EmptyPDFPlaceholder   = "[PDF appears to be empty or image-based]"
	ExtractionPlaceholder = "[content extraction failed]"
)

// sentenceCutRatio is how far into a page span a sentence end must lie to be used as the page break.
const sentenceCutRatio = 0.7

var sentenceEnds = []string{". ", "! ", "? "}

type Result struct {
	Pages    []string
	Degraded bool
}

// Text joins pages into the full document text.
func (r Result) Text() string {
	return strings.Join(r.Pages, "\n\n")
}

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract returns the pages of content. It is pure and safe for concurrent use.
func (e *Extractor) Extract(content []byte, fileType entity.FileType) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failed()
		}
	}()

	switch fileType {
	case entity.FileTypeText:
		return extractText(content)
	case entity.FileTypePDF:
		pages, err := extractPDF(content)
		if err != nil {
			return failed()
		}
		return pages
	default:
		return failed()
	}
}

func failed() Result {
	return Result{Pages: []string{ExtractionPlaceholder}, Degraded: true}
}

func extractText(content []byte) Result {
	text := strings.TrimSpace(strings.ToValidUTF8(string(content), "\uFFFD"))
	if text == "" {
		return Result{Pages: []string{EmptyTextPlaceholder}, Degraded: true}
	}
	return Result{Pages: []string{text}}
}

func extractPDF(content []byte) (Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}

	pageCount := r.NumPage()
	if pages, ok := readPages(r, pageCount); ok {
		return Result{Pages: pages}, nil
	}

	// Page-level text unavailable, fall back to splitting the full text.
	rd, err := r.GetPlainText()
	if err != nil {
		return Result{}, fmt.Errorf("read pdf text: %w", err)
	}
	raw, err := io.ReadAll(rd)
	if err != nil {
		return Result{}, fmt.Errorf("read pdf text: %w", err)
	}

	full := strings.TrimSpace(string(raw))
	if full == "" {
		return Result{Pages: []string{EmptyPDFPlaceholder}, Degraded: true}, nil
	}
	return Result{Pages: SplitApproximatePages(full, pageCount)}, nil
}

// readPages keeps empty pages so page numbers stay physical.
// ok is false when any page fails to decode or no page has text.
func readPages(r *pdf.Reader, pageCount int) ([]string, bool) {
	pages := make([]string, 0, pageCount)
	hasText := false

	for i := 1; i <= pageCount; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, false
		}
		text = strings.TrimSpace(text)
		if text != "" {
			hasText = true
		}
		pages = append(pages, text)
	}

	return pages, hasText
}

// SplitApproximatePages cuts text into pageCount spans of ceil(len/pageCount) runes,
// moving each cut back to the last sentence end when that lies past 70% of the span.
func SplitApproximatePages(text string, pageCount int) []string {
	runes := []rune(text)
	if pageCount <= 1 || len(runes) == 0 {
		return []string{text}
	}

	span := int(math.Ceil(float64(len(runes)) / float64(pageCount)))
	pages := make([]string, 0, pageCount)

	start := 0
	for start < len(runes) && len(pages) < pageCount {
		end := min(start+span, len(runes))
		if len(pages) == pageCount-1 {
			end = len(runes)
		} else if end < len(runes) {
			if cut := lastSentenceEnd(runes[start:end]); cut > int(float64(span)*sentenceCutRatio) {
				end = start + cut
			}
		}

		pages = append(pages, strings.TrimSpace(string(runes[start:end])))
		start = end
	}

	return pages
}

// lastSentenceEnd returns the offset just past the last sentence terminator, or -1.
func lastSentenceEnd(window []rune) int {
	s := string(window)
	best := -1
	for _, sep := range sentenceEnds {
		if i := strings.LastIndex(s, sep); i > best {
			best = i
		}
	}
	if best < 0 {
		return -1
	}
	// byte offset to rune offset, keeping the terminator in the current page
	return len([]rune(s[:best+1]))
}
