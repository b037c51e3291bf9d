package pdftext

import (
	"strings"
	"unicode"
)

// normalizeTextPreserveNewlines collapses horizontal whitespace inside each
// line, drops invisible and control characters, and keeps at most one blank
// line between paragraphs.
func normalizeTextPreserveNewlines(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.Map(func(r rune) rune {
		switch r {
		case '\n':
			return r
		case '\uFEFF', '\u200B', '\u200C', '\u200D', '\u2060', '\u00AD':
			return -1
		case '\u00A0', '\t', '\x00', '\f', '\v':
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
