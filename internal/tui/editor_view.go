package tui

import (
	"fmt"
	"strings"

	"github.com/annotlab/sheetmap/internal/mapping"
)

const (
	cellWidth   = 14
	chromeLines = 6 // header + find bar + status + hints
)

func (m Editor) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.mode {
	case modePick:
		return m.picker.view()
	case modeMapping, modeEditField:
		return m.mappingView()
	case modePreview:
		return m.previewView()
	case modeResult:
		return m.resultView()
	}

	var b strings.Builder
	b.WriteString(m.headerView() + "\n")
	b.WriteString(m.gridView())
	if m.mode == modeCell {
		b.WriteString("\nEdit cell: " + m.cellInput.View())
	} else if m.mode == modeFind {
		b.WriteString("\n" + m.findBarView())
	}
	b.WriteString("\n" + m.statusView())
	b.WriteString("\n" + m.hintsView())
	return b.String()
}

func (m Editor) headerView() string {
	sheet := m.store.Sheet()
	title := m.source
	if title == "" {
		title = "untitled"
	}
	info := fmt.Sprintf("%d x %d", max(sheet.Rows()-1, 0), sheet.Cols())
	marks := ""
	if m.store.CanUndo() {
		marks += " u"
	}
	if m.store.CanRedo() {
		marks += " r"
	}
	return headerStyle.Render(title) + dimStyle.Render("  "+info+"  project "+fmt.Sprint(m.session.ProjectID())+"  "+m.session.State().String()+marks)
}

// viewport returns how many grid rows (header included) and columns fit in
// the current window.
func (m Editor) viewport() (visRows, visCols int) {
	visRows = m.height - chromeLines
	if visRows < 2 {
		visRows = 2
	}
	visCols = m.width / (cellWidth + 1)
	if visCols < 1 {
		visCols = 1
	}
	return visRows, visCols
}

// gridView renders the visible window of the sheet with the cursor cell
// highlighted. The header row is pinned; the window offsets are maintained by
// scrollToCursor.
func (m Editor) gridView() string {
	sheet := m.store.Sheet()
	if sheet.Rows() == 0 {
		return dimStyle.Render("(empty sheet; press A to add a column)")
	}

	visRows, visCols := m.viewport()
	rowOff, colOff := m.rowOff, m.colOff

	var b strings.Builder
	writeRow := func(r int) {
		for c := colOff; c < min(colOff+visCols, sheet.Cols()); c++ {
			cell := fit(sheet.Cell(r, c), cellWidth)
			switch {
			case r == m.cur.Row && c == m.cur.Col:
				cell = selectedStyle.Render(cell)
			case r == 0:
				cell = columnStyle.Render(cell)
			case m.isMatchCell(r, c):
				cell = matchStyle.Render(cell)
			}
			b.WriteString(cell + " ")
		}
		b.WriteString("\n")
	}

	writeRow(0)
	last := min(1+rowOff+visRows-1, sheet.Rows())
	for r := 1 + rowOff; r < last; r++ {
		writeRow(r)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Editor) isMatchCell(row, col int) bool {
	cur := m.store.Find().Cursor
	return cur != nil && cur.Row == row && cur.Col == col
}

func (m Editor) findBarView() string {
	caseLabel := "off"
	if m.caseSensitive {
		caseLabel = "on"
	}
	return fmt.Sprintf("Find: %s  Replace: %s  %s",
		m.findInput.View(), m.replaceInput.View(), dimStyle.Render("case "+caseLabel))
}

func (m Editor) statusView() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return statusErrStyle.Render(m.status)
	}
	return statusOKStyle.Render(m.status)
}

func (m Editor) hintsView() string {
	switch m.mode {
	case modeCell:
		return hintStyle.Render("enter: apply • esc: cancel")
	case modeFind:
		return hintStyle.Render("enter: next • ctrl+h: replace • ctrl+a: replace all • ctrl+t: case • tab: field • esc: close")
	}
	return hintStyle.Render("enter: edit • a/A: add row/col • u: undo • ctrl+r: redo • /: find • m: mapping • p: preview • w: save • q: quit")
}

func (m Editor) mappingView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Mapping") + "\n\n")

	line := func(row int, label, value string) {
		prefix := "  "
		if row == m.mapCursor {
			prefix = "> "
		}
		text := fmt.Sprintf("%s%-11s %s", prefix, label, value)
		if row == m.mapCursor {
			text = selectedStyle.Render(text)
		}
		b.WriteString(text + "\n")
	}

	line(mapRowTaskID, "task id", m.taskIDSummary())
	line(mapRowTaskName, "task name", columnSummary(m.model.TaskNameColumn, m.model.TaskNameTransforms))
	line(mapRowFileName, "file name", columnSummary(m.model.FileNameColumn, m.model.FileNameTransforms))
	b.WriteString("\n" + dimStyle.Render("  payload") + "\n")
	for i, p := range m.model.Payload {
		mark := "[ ]"
		if p.Enabled {
			mark = "[x]"
		}
		key := p.Key
		if key == "" {
			key = p.Column
		}
		value := fmt.Sprintf("%s %s -> %s%s", mark, p.Column, key, transformSuffix(p.Transforms))
		line(mapRowPayloadBase+i, "", value)
	}

	if m.mode == modeEditField {
		b.WriteString("\n" + m.editLabel() + ": " + m.editInput.View() + "\n")
		b.WriteString(hintStyle.Render("enter: apply • esc: cancel"))
	} else {
		b.WriteString("\n" + hintStyle.Render("enter: pick column • g: id mode • s: strategy • e: expression • space: toggle • k: key • t: transforms • esc: back"))
	}
	if m.statusErr && m.status != "" {
		b.WriteString("\n" + statusErrStyle.Render(m.status))
	}
	return b.String()
}

func (m Editor) editLabel() string {
	switch m.editing {
	case editExpression:
		return "Expression"
	case editPayloadKey:
		return "Payload key"
	default:
		return "Transforms"
	}
}

func (m Editor) taskIDSummary() string {
	if m.model.TaskIDMode == mapping.ModeColumn {
		return columnSummary(m.model.TaskIDColumn, m.model.TaskIDTransforms)
	}
	s := "generate " + string(m.model.TaskIDStrategy)
	if m.model.TaskIDStrategy == mapping.StrategyExpr {
		expr := m.model.TaskIDExpression
		if expr == "" {
			expr = "(unset)"
		}
		s += " " + expr
	}
	return s
}

func columnSummary(column string, transforms []string) string {
	if column == "" {
		return "(unset)"
	}
	return column + transformSuffix(transforms)
}

func transformSuffix(transforms []string) string {
	if len(transforms) == 0 {
		return ""
	}
	return " | " + strings.Join(transforms, ", ")
}

func (m Editor) previewView() string {
	p := m.preview
	var b strings.Builder
	b.WriteString(headerStyle.Render("Preview") + "\n\n")
	if p == nil {
		return b.String() + dimStyle.Render("No preview yet")
	}

	b.WriteString(fmt.Sprintf("Rows: %d   Issues: %d   Sheet: %s\n\n", p.TotalRows, len(p.Issues), p.SheetName))

	shown := min(len(p.PreviewRows), 8)
	for _, row := range p.PreviewRows[:shown] {
		b.WriteString(fmt.Sprintf("  %3d  %-20s %-24s %s\n", row.Row, fit(row.TaskID, 20), fit(row.TaskName, 24), fit(row.FileName, 30)))
	}
	if len(p.PreviewRows) > shown {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more\n", len(p.PreviewRows)-shown)))
	}

	if len(p.Issues) > 0 {
		b.WriteString("\n")
		for _, issue := range p.Issues[:min(len(p.Issues), 6)] {
			b.WriteString(issueStyle.Render(fmt.Sprintf("  row %d: %s", issue.Row, issue.Message)) + "\n")
		}
	}

	b.WriteString("\n" + hintStyle.Render("c: confirm import • p: re-preview • m: mapping • esc: back"))
	if m.status != "" {
		b.WriteString("\n" + m.statusView())
	}
	return b.String()
}

func (m Editor) resultView() string {
	r := m.result
	var b strings.Builder
	b.WriteString(headerStyle.Render("Import complete") + "\n\n")
	if r == nil {
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Inserted: %d\nSkipped:  %d\n", r.Inserted, r.Skipped))
	for _, e := range r.Errors {
		b.WriteString(issueStyle.Render(fmt.Sprintf("  row %d: %s", e.Row, e.Message)) + "\n")
	}
	b.WriteString("\n" + hintStyle.Render("enter/esc: back to grid • q: quit"))
	return b.String()
}

func fit(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(runes))
}
