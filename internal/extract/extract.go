// Package extract converts stored document bytes into plain text for the
// extraction pipeline.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupported indicates the payload is neither a PDF nor readable text.
var ErrUnsupported = errors.New("unsupported document content")

// TextFromBytes extracts plain text from raw document bytes. PDFs are parsed
// page by page; anything else is accepted verbatim when it is valid UTF-8.
func TextFromBytes(data []byte, contentType, fileName string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrUnsupported)
	}

	if isPDF(data, contentType, fileName) {
		return textFromPDF(data)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, contentType)
}

func isPDF(data []byte, contentType, fileName string) bool {
	if contentType == "application/pdf" {
		return true
	}
	if strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func textFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var buf bytes.Buffer
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	if _, err := io.Copy(&buf, content); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", fmt.Errorf("%w: pdf contains no extractable text", ErrUnsupported)
	}
	return text, nil
}
