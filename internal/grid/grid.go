package grid

import (
	"fmt"
	"strings"
)

// Sheet is the 2D cell matrix. Row 0 is the header row; its values are the
// column names. All cells are text.
type Sheet [][]string

// Clone returns a deep copy of the sheet.
func (s Sheet) Clone() Sheet {
	if s == nil {
		return nil
	}
	out := make(Sheet, len(s))
	for i, row := range s {
		out[i] = make([]string, len(row))
		copy(out[i], row)
	}
	return out
}

// Rows returns the total row count, header included.
func (s Sheet) Rows() int {
	return len(s)
}

// Cols returns the header width, or 0 for an empty sheet.
func (s Sheet) Cols() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// Cell returns the cell text at (row, col), or "" when out of range.
func (s Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s) || col < 0 || col >= len(s[row]) {
		return ""
	}
	return s[row][col]
}

// Columns returns the header row values.
func (s Sheet) Columns() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s[0]))
	copy(out, s[0])
	return out
}

// SanitizeHeaders makes header names unique and non-empty while preserving
// first-seen order. Blank headers become column_N (1-based position);
// duplicates get a numeric suffix starting at _2. A suffixed name can itself
// collide with a literal header, so the suffix advances until the name is
// unused.
func SanitizeHeaders(header []string) []string {
	out := make([]string, len(header))
	counts := make(map[string]int, len(header))
	used := make(map[string]bool, len(header))
	for i, raw := range header {
		base := strings.TrimSpace(raw)
		if base == "" {
			base = fmt.Sprintf("column_%d", i+1)
		}
		name := base
		if counts[base] > 0 {
			name = fmt.Sprintf("%s_%d", base, counts[base]+1)
		}
		for used[name] {
			counts[base]++
			name = fmt.Sprintf("%s_%d", base, counts[base]+1)
		}
		counts[base]++
		used[name] = true
		out[i] = name
	}
	return out
}

// Normalize sanitizes the header row and pads or truncates every data row to
// the header width. Ragged input is tolerated, never rejected.
func Normalize(rows [][]string) Sheet {
	if len(rows) == 0 {
		return Sheet{}
	}
	header := SanitizeHeaders(rows[0])
	width := len(header)
	out := make(Sheet, 0, len(rows))
	out = append(out, header)
	for _, row := range rows[1:] {
		cells := make([]string, width)
		copy(cells, row)
		out = append(out, cells)
	}
	return out
}

// Cursor addresses a single cell.
type Cursor struct {
	Row int
	Col int
}

// FindState tracks the active find/replace session over the grid. The cursor
// is the last located match and seeds the next circular scan.
type FindState struct {
	Query         string
	Replacement   string
	CaseSensitive bool
	Cursor        *Cursor
}

// Store owns the live sheet and couples every content mutation to the
// history manager. One store is live per editing session.
type Store struct {
	sheet   Sheet
	history History
	find    FindState
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sheet: Sheet{}}
}

// Load replaces the sheet wholesale. Undo/redo history and any find cursor
// are discarded: the new sheet is a fresh timeline.
func (st *Store) Load(rows [][]string) {
	st.sheet = Normalize(rows)
	st.history.Reset()
	st.find = FindState{}
}

// Sheet returns the live sheet. Callers must treat it as read-only and go
// through the store for mutations.
func (st *Store) Sheet() Sheet {
	return st.sheet
}

// Columns returns the current header names.
func (st *Store) Columns() []string {
	return st.sheet.Columns()
}

// SetCell writes value at (row, col). Out-of-range indices grow the sheet
// instead of failing: missing rows are appended and the target row is padded
// out to col. Returns false without touching history when the write would not
// change anything.
func (st *Store) SetCell(row, col int, value string) bool {
	if row < 0 || col < 0 {
		return false
	}
	if row < len(st.sheet) && col < len(st.sheet[row]) && st.sheet[row][col] == value {
		return false
	}
	if row >= len(st.sheet) || col >= len(st.sheet[row]) {
		if value == "" {
			// Growing only to store an empty cell is not an observable change.
			return false
		}
	}
	st.history.Commit(st.sheet.Clone())
	for len(st.sheet) <= row {
		st.sheet = append(st.sheet, make([]string, st.sheet.Cols()))
	}
	for len(st.sheet[row]) <= col {
		st.sheet[row] = append(st.sheet[row], "")
	}
	st.sheet[row][col] = value
	return true
}

// AddRow appends an empty data row matching the current column count.
// No-op when the sheet has no columns.
func (st *Store) AddRow() bool {
	cols := st.sheet.Cols()
	if cols == 0 {
		return false
	}
	st.history.Commit(st.sheet.Clone())
	st.sheet = append(st.sheet, make([]string, cols))
	return true
}

// AddColumn appends one cell to every row. The header cell gets an
// auto-generated unique column name. On an empty sheet this creates a single
// header row.
func (st *Store) AddColumn() bool {
	st.history.Commit(st.sheet.Clone())
	name := st.nextColumnName()
	if len(st.sheet) == 0 {
		st.sheet = Sheet{{name}}
		return true
	}
	st.sheet[0] = append(st.sheet[0], name)
	for i := 1; i < len(st.sheet); i++ {
		st.sheet[i] = append(st.sheet[i], "")
	}
	return true
}

func (st *Store) nextColumnName() string {
	existing := make(map[string]bool)
	for _, name := range st.sheet.Columns() {
		existing[name] = true
	}
	for n := st.sheet.Cols() + 1; ; n++ {
		name := fmt.Sprintf("column_%d", n)
		if !existing[name] {
			return name
		}
	}
}

// Undo restores the previous snapshot. The find cursor is invalidated: the
// restored grid may no longer contain the located match.
func (st *Store) Undo() bool {
	restored, ok := st.history.Undo(st.sheet)
	if !ok {
		return false
	}
	st.sheet = restored
	st.find.Cursor = nil
	return true
}

// Redo restores the next snapshot, symmetric to Undo.
func (st *Store) Redo() bool {
	restored, ok := st.history.Redo(st.sheet)
	if !ok {
		return false
	}
	st.sheet = restored
	st.find.Cursor = nil
	return true
}

// CanUndo reports whether an undo snapshot exists.
func (st *Store) CanUndo() bool { return st.history.UndoLen() > 0 }

// CanRedo reports whether a redo snapshot exists.
func (st *Store) CanRedo() bool { return st.history.RedoLen() > 0 }

// Find returns the live find state.
func (st *Store) Find() *FindState {
	return &st.find
}

// SetQuery updates the query and case flag. Changing either resets the
// search cursor so the next scan starts from the top.
func (st *Store) SetQuery(query string, caseSensitive bool) {
	if query == st.find.Query && caseSensitive == st.find.CaseSensitive {
		return
	}
	st.find.Query = query
	st.find.CaseSensitive = caseSensitive
	st.find.Cursor = nil
}

// SetReplacement updates the replacement text.
func (st *Store) SetReplacement(replacement string) {
	st.find.Replacement = replacement
}

// FindNext advances the search cursor to the next match, wrapping past the
// end of the grid.
func (st *Store) FindNext() FindResult {
	res := FindNext(st.sheet, st.find.Query, st.find.CaseSensitive, st.find.Cursor)
	if res.Found {
		pos := res.Pos
		st.find.Cursor = &pos
	} else {
		st.find.Cursor = nil
	}
	return res
}

// ReplaceCurrent replaces the first occurrence inside the cell at the search
// cursor, or relocates the cursor when that cell no longer matches. A
// relocation performs no replacement.
func (st *Store) ReplaceCurrent() ReplaceOutcome {
	out := ReplaceCurrent(st.sheet, st.find.Query, st.find.Replacement, st.find.CaseSensitive, st.find.Cursor)
	if out.Replaced {
		st.history.Commit(st.sheet.Clone())
		st.sheet[out.Pos.Row][out.Pos.Col] = out.Value
		st.find.Cursor = nil
		if next := FindNext(st.sheet, st.find.Query, st.find.CaseSensitive, &out.Pos); next.Found {
			pos := next.Pos
			st.find.Cursor = &pos
		}
		return out
	}
	if out.Relocated {
		pos := out.Pos
		st.find.Cursor = &pos
	} else if !out.Found {
		st.find.Cursor = nil
	}
	return out
}

// ReplaceAll replaces every occurrence across the grid and returns the total
// occurrence count. Zero matches leave the sheet and history untouched.
func (st *Store) ReplaceAll() int {
	replaced, count := ReplaceAll(st.sheet, st.find.Query, st.find.Replacement, st.find.CaseSensitive)
	if count == 0 {
		return 0
	}
	st.history.Commit(st.sheet.Clone())
	st.sheet = replaced
	st.find.Cursor = nil
	return count
}
