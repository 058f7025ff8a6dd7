// Package source turns user-supplied files into the source text a quiz is
// grounded in.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"smartquiz/internal/domain"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF-")

// ReadFile returns the text of the file at path. PDFs, recognised by
// extension or header, are reduced to their plain text; anything else is
// returned as is.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source text: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") || bytes.HasPrefix(data, pdfMagic) {
		return PDFText(bytes.NewReader(data), int64(len(data)))
	}
	return string(data), nil
}

// Read is ReadFile for a stream, such as stdin.
func Read(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read source text: %w", err)
	}
	if bytes.HasPrefix(data, pdfMagic) {
		return PDFText(bytes.NewReader(data), int64(len(data)))
	}
	return string(data), nil
}

// PDFText extracts the plain text of every page, pages separated by a blank
// line. A document with no extractable text is an INVALID_INPUT error.
func PDFText(r io.ReaderAt, size int64) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if p := recover(); p != nil {
			text, err = "", domain.NewError(domain.ErrInvalidInput, "unreadable PDF", fmt.Errorf("%v", p))
		}
	}()

	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", domain.NewError(domain.ErrInvalidInput, "unreadable PDF", err)
	}

	fonts := make(map[string]*pdf.Font)
	var pages []string
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		content, err := page.GetPlainText(fonts)
		if err != nil {
			return "", domain.NewError(domain.ErrInvalidInput, fmt.Sprintf("unreadable PDF page %d", i), err)
		}
		pages = append(pages, content)
	}

	text = strings.Join(pages, "\n\n")
	if strings.TrimSpace(text) == "" {
		return "", domain.NewError(domain.ErrInvalidInput, "uploaded file produced no extractable text", nil)
	}
	return text, nil
}
