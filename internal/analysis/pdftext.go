package analysis

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// TextExtractor turns a stored document into plain text. Injectable so tests
// can analyze plain-text fixtures without real PDFs.
type TextExtractor func(path string) (string, error)

// PDFText extracts the plain text of a PDF on disk
func PDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	r, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", path, err)
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted text: %w", err)
	}

	return string(b), nil
}
