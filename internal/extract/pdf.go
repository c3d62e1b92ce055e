// Package extract pulls plain text out of uploaded résumé PDFs.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hirescope/hirescope/internal/apperrors"
)

// MinTextChars is the shortest trimmed extraction accepted as a readable résumé.
// Anything of 100 characters or fewer is treated as a scan or an empty page.
const MinTextChars = 101

var (
	// ErrNoText is returned when a PDF yields less than MinTextChars of text.
	ErrNoText = errors.New("no readable text found in PDF")
	// ErrEmptyFile is returned for zero-byte uploads.
	ErrEmptyFile = errors.New("file is empty")
)

// PDFExtractor extracts text with github.com/ledongthuc/pdf.
type PDFExtractor struct {
	// plainText is swapped in tests.
	plainText func(data []byte) (string, error)
}

// NewPDFExtractor returns the default extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{plainText: readPlainText}
}

// Extract returns the trimmed text of data. Every failure is an extraction error
// (errors.Is(err, apperrors.ErrExtraction)).
func (e *PDFExtractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if len(data) == 0 {
		return "", apperrors.NewExternalError(apperrors.KindExtraction, filename, ErrEmptyFile)
	}

	text, err := e.plainText(data)
	if err != nil {
		return "", apperrors.NewExternalError(apperrors.KindExtraction, filename, err)
	}

	text = strings.TrimSpace(text)
	if len([]rune(text)) < MinTextChars {
		return "", apperrors.NewExternalError(apperrors.KindExtraction, filename, ErrNoText)
	}

	return text, nil
}

// readPlainText parses data as a PDF. The parser panics on some malformed inputs, so panics
// are converted to errors.
func readPlainText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read PDF text: %w", err)
	}

	return buf.String(), nil
}
