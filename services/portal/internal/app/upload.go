package app

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"

	"leilaoai/pkg/pdftext"
	"leilaoai/pkg/storage"
)

// Upload is one file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

var pdfMagic = []byte("%PDF-")

// validatePDF accepts a declared application/pdf content type or, when the
// client sent a generic type, the PDF magic bytes.
func validatePDF(u *Upload) error {
	if u == nil || len(u.Data) == 0 {
		return ErrFileRequired
	}
	mediaType, _, _ := mime.ParseMediaType(u.ContentType)
	switch strings.ToLower(mediaType) {
	case "application/pdf":
		return nil
	case "", "application/octet-stream":
		if bytes.HasPrefix(u.Data, pdfMagic) {
			return nil
		}
	}
	return ErrInvalidFile
}

// storeUpload validates and persists a PDF, returning its object key and
// public URL.
func (a *App) storeUpload(ctx context.Context, folder string, u *Upload) (string, string, error) {
	if err := validatePDF(u); err != nil {
		return "", "", err
	}
	key := storage.UploadKey(folder, u.Filename, a.now())
	if err := a.objects.Put(ctx, key, bytes.NewReader(u.Data), int64(len(u.Data)), "application/pdf"); err != nil {
		return "", "", fmt.Errorf("save file: %w", err)
	}
	return key, a.objects.PublicURL(key), nil
}

// CountPages is the pre-flight check run before an edital upload.
func (a *App) CountPages(u *Upload) (int, error) {
	if err := validatePDF(u); err != nil {
		return 0, err
	}
	return pdftext.CountPages(u.Data)
}

// selectPages resolves an optional page expression against the document.
// An empty expression selects every page.
func selectPages(u *Upload, pages string) ([]int, error) {
	if strings.TrimSpace(pages) == "" {
		return nil, nil
	}
	total, err := pdftext.CountPages(u.Data)
	if err != nil {
		return nil, err
	}
	return pdftext.ParsePageSelection(pages, total)
}
