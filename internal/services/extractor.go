package services

import (
	"fmt"
	"os"
	"unicode"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDoc  = "application/msword"
	ContentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeText = "text/plain"
)

// ExtractionError reports that text could not be derived from a file's bytes,
// naming the content type that failed.
type ExtractionError struct {
	ContentType string
	Err         error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("text extraction failed for content type %q: %v", e.ContentType, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

type TextExtractor interface {
	Extract(filePath string, contentType string) (string, error)
}

type textExtractor struct {
	pdfParser PDFParserService
}

func NewTextExtractor(pdfParser PDFParserService) TextExtractor {
	return &textExtractor{pdfParser: pdfParser}
}

// Extract implements TextExtractor. Dispatch is purely on the declared content
// type; the output is always normalized.
func (t *textExtractor) Extract(filePath string, contentType string) (string, error) {
	var (
		text string
		err  error
	)

	switch contentType {
	case ContentTypePDF:
		text, err = t.pdfParser.ExtractText(filePath)
	case ContentTypeDocx:
		text, err = ExtractDocxText(filePath)
	case ContentTypeDoc:
		text, err = extractLegacyDocText(filePath)
	case ContentTypeText:
		var data []byte
		data, err = os.ReadFile(filePath)
		text = string(data)
	default:
		return "", &ExtractionError{
			ContentType: contentType,
			Err:         fmt.Errorf("unrecognized content type"),
		}
	}

	if err != nil {
		return "", &ExtractionError{ContentType: contentType, Err: err}
	}

	return NormalizeText(text), nil
}

// extractLegacyDocText salvages readable text from a legacy .doc binary by
// collecting printable runs. Crude, but legacy Word files carry their visible
// text as contiguous runs inside the OLE stream.
func extractLegacyDocText(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}

	const minRunLength = 4
	var out []rune
	var run []rune

	flush := func() {
		if len(run) >= minRunLength {
			out = append(out, run...)
			out = append(out, '\n')
		}
		run = run[:0]
	}

	for _, b := range data {
		r := rune(b)
		if r == '\t' || r == ' ' || unicode.IsPrint(r) && r < unicode.MaxASCII {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()

	if len(out) == 0 {
		return "", fmt.Errorf("no readable text found in document")
	}
	return string(out), nil
}
