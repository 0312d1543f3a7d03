package grid

import (
	"reflect"
	"testing"
)

func TestSanitizeHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   []string
	}{
		{"blank and duplicate", []string{"", "name", "name"}, []string{"column_1", "name", "name_2"}},
		{"all blank", []string{"", " ", ""}, []string{"column_1", "column_2", "column_3"}},
		{"triple duplicate", []string{"id", "id", "id"}, []string{"id", "id_2", "id_3"}},
		{"whitespace trimmed", []string{"  name  ", "name"}, []string{"name", "name_2"}},
		{"already clean", []string{"id", "name", "url"}, []string{"id", "name", "url"}},
		{"suffix collides with literal header", []string{"name_2", "name", "name"}, []string{"name_2", "name", "name_3"}},
		{"literal header after assigned suffix", []string{"name", "name", "name_2"}, []string{"name", "name_2", "name_2_2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeHeaders(tt.header)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SanitizeHeaders(%v) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestNormalizePadsAndTruncates(t *testing.T) {
	rows := [][]string{
		{"a", "b", "c"},
		{"1"},
		{"1", "2", "3", "4"},
		{},
	}

	sheet := Normalize(rows)

	if sheet.Cols() != 3 {
		t.Fatalf("Cols() = %d, want 3", sheet.Cols())
	}
	for i, row := range sheet {
		if len(row) != 3 {
			t.Errorf("row %d has %d cells, want 3", i, len(row))
		}
	}
	if sheet.Cell(2, 3) != "" {
		t.Errorf("truncated cell should read empty, got %q", sheet.Cell(2, 3))
	}
	if sheet.Cell(1, 0) != "1" || sheet.Cell(1, 2) != "" {
		t.Errorf("short row not padded correctly: %v", sheet[1])
	}
}

func TestStoreSetCell(t *testing.T) {
	st := NewStore()
	st.Load([][]string{{"a", "b"}, {"1", "2"}})

	if !st.SetCell(1, 0, "x") {
		t.Fatal("SetCell should report a change")
	}
	if st.Sheet().Cell(1, 0) != "x" {
		t.Errorf("cell = %q, want %q", st.Sheet().Cell(1, 0), "x")
	}
}

func TestStoreSetCellNoOpDoesNotGrowHistory(t *testing.T) {
	st := NewStore()
	st.Load([][]string{{"a", "b"}, {"1", "2"}})
	st.SetCell(1, 0, "x")

	before := st.history.UndoLen()
	if st.SetCell(1, 0, "x") {
		t.Error("setting a cell to its current value should be a no-op")
	}
	if st.history.UndoLen() != before {
		t.Errorf("undo stack grew from %d to %d on a no-op edit", before, st.history.UndoLen())
	}
}

func TestStoreSetCellGrowsOutOfRange(t *testing.T) {
	st := NewStore()
	st.Load([][]string{{"a", "b"}, {"1", "2"}})

	if !st.SetCell(3, 4, "far") {
		t.Fatal("out-of-range SetCell should grow the sheet")
	}
	if got := st.Sheet().Cell(3, 4); got != "far" {
		t.Errorf("cell = %q, want %q", got, "far")
	}
	if got := st.Sheet().Cell(2, 0); got != "" {
		t.Errorf("intermediate row should be empty, got %q", got)
	}
}

func TestStoreAddRow(t *testing.T) {
	st := NewStore()
	if st.AddRow() {
		t.Error("AddRow on a sheet with zero columns should be a no-op")
	}

	st.Load([][]string{{"a", "b"}})
	if !st.AddRow() {
		t.Fatal("AddRow failed")
	}
	if st.Sheet().Rows() != 2 || len(st.Sheet()[1]) != 2 {
		t.Errorf("unexpected shape after AddRow: %v", st.Sheet())
	}
}

func TestStoreAddColumn(t *testing.T) {
	st := NewStore()

	if !st.AddColumn() {
		t.Fatal("AddColumn on empty sheet failed")
	}
	if got := st.Columns(); !reflect.DeepEqual(got, []string{"column_1"}) {
		t.Fatalf("Columns() = %v, want [column_1]", got)
	}

	st.Load([][]string{{"a", "column_3"}, {"1", "2"}})
	st.AddColumn()
	cols := st.Columns()
	if len(cols) != 3 {
		t.Fatalf("Columns() = %v, want 3 entries", cols)
	}
	// column_3 is taken, so the generated name must skip it.
	if cols[2] == "column_3" || cols[2] == "" {
		t.Errorf("generated column name %q collides or is empty", cols[2])
	}
	if len(st.Sheet()[1]) != 3 {
		t.Errorf("data row not extended: %v", st.Sheet()[1])
	}
}

func TestLoadResetsHistoryAndFind(t *testing.T) {
	st := NewStore()
	st.Load([][]string{{"a"}, {"1"}})
	st.SetCell(1, 0, "2")
	st.SetQuery("2", false)
	st.FindNext()

	st.Load([][]string{{"b"}, {"3"}})

	if st.CanUndo() || st.CanRedo() {
		t.Error("Load should clear history")
	}
	if st.Find().Cursor != nil || st.Find().Query != "" {
		t.Error("Load should reset find state")
	}
}
