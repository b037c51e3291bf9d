// Package pdftext turns uploaded PDF payloads into plain text.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrInvalidPDF means the payload could not be parsed as a PDF.
	ErrInvalidPDF = errors.New("invalid pdf")
	// ErrNoText means the PDF parsed but yielded no characters, which
	// usually indicates a scanned document.
	ErrNoText = errors.New("no extractable text, likely a scanned document")
)

// Extractor extracts text from PDF payloads. When PdftotextPath is set the
// poppler binary is tried first and the pure-Go reader is the fallback.
type Extractor struct {
	PdftotextPath string
}

// ExtractText returns the normalized text of the document. A non-empty pages
// slice restricts extraction to those 1-based pages.
func (e Extractor) ExtractText(data []byte, pages []int) (string, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return "", fmt.Errorf("%w: missing header", ErrInvalidPDF)
	}
	if e.PdftotextPath != "" {
		text, err := e.extractWithPdftotext(data, pages)
		if err == nil && text != "" {
			return text, nil
		}
	}
	return extractWithGoLib(data, pages)
}

// CountPages reports the number of pages without extracting text.
func CountPages(data []byte) (n int, err error) {
	reader, err := openReader(data)
	if err != nil {
		return 0, err
	}
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()
	return reader.NumPage(), nil
}

func openReader(data []byte) (reader *pdf.Reader, err error) {
	// the reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			reader, err = nil, fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()
	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return reader, nil
}

func extractWithGoLib(data []byte, pages []int) (text string, err error) {
	reader, err := openReader(data)
	if err != nil {
		return "", err
	}
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()
	total := reader.NumPage()
	if len(pages) == 0 {
		pages = make([]int, 0, total)
		for i := 1; i <= total; i++ {
			pages = append(pages, i)
		}
	}
	parts := make([]string, 0, len(pages))
	for _, num := range pages {
		if num < 1 || num > total {
			return "", fmt.Errorf("%w: page %d of %d", ErrInvalidPageRange, num, total)
		}
		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely
			continue
		}
		if content = normalizeTextPreserveNewlines(content); content != "" {
			parts = append(parts, content)
		}
	}
	text = strings.Join(parts, "\n\n")
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// extractWithPdftotext uses the system pdftotext tool (poppler-utils).
func (e Extractor) extractWithPdftotext(data []byte, pages []int) (string, error) {
	bin, err := exec.LookPath(e.PdftotextPath)
	if err != nil {
		return "", fmt.Errorf("pdftotext not found: %w", err)
	}
	tmp, err := os.CreateTemp("", "leilao-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	run := func(args ...string) (string, error) {
		args = append([]string{"-layout", "-enc", "UTF-8"}, args...)
		args = append(args, tmp.Name(), "-")
		out, err := exec.Command(bin, args...).Output()
		if err != nil {
			return "", fmt.Errorf("pdftotext failed: %w", err)
		}
		return normalizeTextPreserveNewlines(string(out)), nil
	}

	if len(pages) == 0 {
		return run()
	}
	parts := make([]string, 0, len(pages))
	for _, num := range pages {
		p := strconv.Itoa(num)
		text, err := run("-f", p, "-l", p)
		if err != nil {
			return "", err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
