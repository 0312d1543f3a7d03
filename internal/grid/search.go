package grid

import "strings"

// FindResult is the outcome of a circular scan.
type FindResult struct {
	Found   bool
	Pos     Cursor
	Wrapped bool
}

// ReplaceOutcome is the outcome of a single targeted replacement.
type ReplaceOutcome struct {
	Found     bool
	Replaced  bool
	Relocated bool
	Pos       Cursor
	Value     string
}

// indexFold returns the byte index of the first occurrence of substr in s,
// lowercase-folded unless caseSensitive. Simple folding only, no locale
// collation.
func indexFold(s, substr string, caseSensitive bool) int {
	if caseSensitive {
		return strings.Index(s, substr)
	}
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}

// containsFold reports whether s contains substr under the fold rules.
func containsFold(s, substr string, caseSensitive bool) bool {
	return indexFold(s, substr, caseSensitive) >= 0
}

// FindNext scans the grid in row-major order, header row included, starting
// one cell past the cursor (or at the origin when absent or out of bounds),
// wrapping past the end exactly once. Wrapped reports that the scan passed
// the end of the grid before hitting the match.
func FindNext(s Sheet, query string, caseSensitive bool, cursor *Cursor) FindResult {
	rows, cols := s.Rows(), s.Cols()
	total := rows * cols
	if query == "" || total == 0 {
		return FindResult{}
	}

	start := 0
	if cursor != nil {
		flat := cursor.Row*cols + cursor.Col + 1
		if flat > 0 && flat < total {
			start = flat
		}
	}

	for i := 0; i < total; i++ {
		flat := (start + i) % total
		row, col := flat/cols, flat%cols
		if containsFold(s.Cell(row, col), query, caseSensitive) {
			return FindResult{
				Found:   true,
				Pos:     Cursor{Row: row, Col: col},
				Wrapped: start+i >= total,
			}
		}
	}
	return FindResult{}
}

// ReplaceCurrent replaces the first occurrence of query inside the cell at
// the cursor. When the cursor is absent or its cell no longer contains the
// query, the nearest match starting right after the stale cursor is located
// instead and reported as a relocation; no replacement happens on that call.
// The sheet itself is not mutated; the caller applies Value at Pos.
func ReplaceCurrent(s Sheet, query, replacement string, caseSensitive bool, cursor *Cursor) ReplaceOutcome {
	if query == "" || s.Rows()*s.Cols() == 0 {
		return ReplaceOutcome{}
	}

	if cursor != nil {
		text := s.Cell(cursor.Row, cursor.Col)
		if idx := indexFold(text, query, caseSensitive); idx >= 0 {
			return ReplaceOutcome{
				Found:    true,
				Replaced: true,
				Pos:      *cursor,
				Value:    text[:idx] + replacement + text[idx+len(query):],
			}
		}
	}

	if res := FindNext(s, query, caseSensitive, cursor); res.Found {
		return ReplaceOutcome{Found: true, Relocated: true, Pos: res.Pos}
	}
	return ReplaceOutcome{}
}

// ReplaceAll replaces every occurrence of query across the grid, fold-aware,
// and returns the mutated copy plus the total occurrence count. Replacements
// never overlap: scanning resumes right after each substituted segment. Zero
// matches return the input sheet unchanged so the caller can skip recording
// history.
func ReplaceAll(s Sheet, query, replacement string, caseSensitive bool) (Sheet, int) {
	if query == "" {
		return s, 0
	}
	total := 0
	var out Sheet
	for r, row := range s {
		for c, text := range row {
			value, n := replaceAllInCell(text, query, replacement, caseSensitive)
			if n == 0 {
				continue
			}
			if out == nil {
				out = s.Clone()
			}
			out[r][c] = value
			total += n
		}
	}
	if total == 0 {
		return s, 0
	}
	return out, total
}

func replaceAllInCell(text, query, replacement string, caseSensitive bool) (string, int) {
	var b strings.Builder
	count := 0
	rest := text
	for {
		idx := indexFold(rest, query, caseSensitive)
		if idx < 0 {
			break
		}
		b.WriteString(rest[:idx])
		b.WriteString(replacement)
		rest = rest[idx+len(query):]
		count++
	}
	if count == 0 {
		return text, 0
	}
	b.WriteString(rest)
	return b.String(), count
}
