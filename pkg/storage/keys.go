package storage

import (
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Upload folders.
const (
	FolderEditais    = "editais"
	FolderMunicipal  = "municipal"
	FolderMatriculas = "matriculas"
)

const fallbackName = "documento.pdf"

var unsafeRun = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// UploadKey builds "{folder}/{unixMillis}_{sanitized name}".
func UploadKey(folder, filename string, now time.Time) string {
	name := SanitizeFilename(filepath.Base(filename))
	if name == "" || name == "." || name == ".." {
		name = fallbackName
	}
	return path.Join(folder, strconv.FormatInt(now.UnixMilli(), 10)+"_"+name)
}

// SanitizeFilename drops diacritics ("São" becomes "Sao") and replaces each
// run of characters outside [A-Za-z0-9._-] with one underscore.
func SanitizeFilename(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, name); err == nil {
		name = folded
	}
	return strings.Trim(unsafeRun.ReplaceAllString(strings.TrimSpace(name), "_"), "_")
}
