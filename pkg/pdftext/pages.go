package pdftext

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxSelectedPages caps how many pages a single upload may send through the
// extraction pipeline.
const MaxSelectedPages = 15

var (
	ErrInvalidPageRange = errors.New("invalid page range")
	ErrTooManyPages     = fmt.Errorf("more than %d pages selected", MaxSelectedPages)
)

// ParsePageSelection parses expressions like "1-3,5" into sorted, unique
// 1-based page numbers. An empty expression selects nothing and returns nil.
func ParsePageSelection(expr string, total int) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	seen := make(map[int]struct{})
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPageRange, expr)
		}
		start, end := part, part
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, end = strings.TrimSpace(lo), strings.TrimSpace(hi)
		}
		from, err := strconv.Atoi(start)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPageRange, part)
		}
		to, err := strconv.Atoi(end)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPageRange, part)
		}
		if from < 1 || to < from || (total > 0 && to > total) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPageRange, part)
		}
		if to-from+1 > MaxSelectedPages {
			return nil, ErrTooManyPages
		}
		for p := from; p <= to; p++ {
			seen[p] = struct{}{}
		}
		if len(seen) > MaxSelectedPages {
			return nil, ErrTooManyPages
		}
	}
	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}
