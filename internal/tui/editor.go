package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/annotlab/sheetmap/internal/grid"
	"github.com/annotlab/sheetmap/internal/importer"
	"github.com/annotlab/sheetmap/internal/mapping"
	"github.com/annotlab/sheetmap/internal/runlog"
	"github.com/annotlab/sheetmap/internal/workbook"
)

type mode int

const (
	modeGrid mode = iota
	modeCell
	modeFind
	modeMapping
	modePick
	modeEditField
	modePreview
	modeResult
)

// editKind identifies what the inline field editor is editing.
type editKind int

const (
	editExpression editKind = iota
	editPayloadKey
	editTransforms
)

// Mapping panel rows 0..2 are the core fields; payload entries follow.
const (
	mapRowTaskID = iota
	mapRowTaskName
	mapRowFileName
	mapRowPayloadBase
)

type previewDoneMsg struct {
	seq  uint64
	resp *importer.PreviewResponse
	err  error
}

type confirmDoneMsg struct {
	seq   uint64
	sheet string
	resp  *importer.ConfirmResponse
	err   error
}

// Options configures an editor session.
type Options struct {
	Store         *grid.Store
	Model         *mapping.Model
	Session       *importer.Session
	Source        string // source file path, used for sheet naming and the run log
	SheetOverride string
	SavePath      string // target for workbook export
	Runs          *runlog.Log
}

// Editor is the interactive grid editor with the mapping panel and the
// preview/confirm flow.
type Editor struct {
	store         *grid.Store
	model         *mapping.Model
	session       *importer.Session
	source        string
	sheetOverride string
	savePath      string
	runs          *runlog.Log

	mode   mode
	cur    grid.Cursor
	rowOff int
	colOff int
	width  int
	height int

	cellInput     textinput.Model
	findInput     textinput.Model
	replaceInput  textinput.Model
	findFocus     int // 0 find, 1 replace
	caseSensitive bool

	mapCursor int
	picker    columnPicker

	editInput textinput.Model
	editing   editKind
	editRow   int

	preview *importer.PreviewResponse
	result  *importer.ConfirmResponse

	status    string
	statusErr bool
}

// New builds an editor over an already-loaded store and mapping model.
func New(opts Options) Editor {
	cell := textinput.New()
	cell.CharLimit = 0

	find := textinput.New()
	find.Placeholder = "find"
	replace := textinput.New()
	replace.Placeholder = "replace"

	edit := textinput.New()

	return Editor{
		store:         opts.Store,
		model:         opts.Model,
		session:       opts.Session,
		source:        opts.Source,
		sheetOverride: opts.SheetOverride,
		savePath:      opts.SavePath,
		runs:          opts.Runs,
		cellInput:     cell,
		findInput:     find,
		replaceInput:  replace,
		editInput:     edit,
	}
}

func (m Editor) Init() tea.Cmd {
	return nil
}

func (m Editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.mode == modePick {
			m.picker.list.SetSize(msg.Width-4, msg.Height-6)
		}
		m.scrollToCursor()
		return m, nil

	case previewDoneMsg:
		if msg.seq != m.session.Seq() {
			return m, nil
		}
		if msg.err != nil {
			m.setError(msg.err.Error())
			return m, nil
		}
		m.preview = msg.resp
		m.mode = modePreview
		m.setStatus(fmt.Sprintf("Preview ready: %d row(s), %d issue(s)", msg.resp.TotalRows, len(msg.resp.Issues)))
		return m, nil

	case confirmDoneMsg:
		if msg.seq != m.session.Seq() {
			return m, nil
		}
		if msg.err != nil {
			m.setError(msg.err.Error())
			return m, nil
		}
		m.result = msg.resp
		m.mode = modeResult
		m.setStatus(fmt.Sprintf("Imported %d row(s), skipped %d", msg.resp.Inserted, msg.resp.Skipped))
		if m.runs != nil {
			_, err := m.runs.Record(runlog.Run{
				ProjectID: m.session.ProjectID(),
				Source:    filepath.Base(m.source),
				Sheet:     msg.sheet,
				Inserted:  msg.resp.Inserted,
				Skipped:   msg.resp.Skipped,
			})
			if err != nil {
				m.setError(fmt.Sprintf("Import succeeded but run log write failed: %v", err))
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeGrid:
			return m.updateGrid(msg)
		case modeCell:
			return m.updateCell(msg)
		case modeFind:
			return m.updateFind(msg)
		case modeMapping:
			return m.updateMapping(msg)
		case modePick:
			return m.updatePick(msg)
		case modeEditField:
			return m.updateEditField(msg)
		case modePreview:
			return m.updatePreview(msg)
		case modeResult:
			return m.updateResult(msg)
		}
	}

	if m.mode == modePick {
		cmd := m.picker.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Editor) setStatus(text string) {
	m.status = text
	m.statusErr = false
}

func (m *Editor) setError(text string) {
	m.status = text
	m.statusErr = true
}

func (m Editor) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up":
		if m.cur.Row > 0 {
			m.cur.Row--
		}
	case "down":
		if m.cur.Row < m.store.Sheet().Rows()-1 {
			m.cur.Row++
		}
	case "left", "shift+tab":
		if m.cur.Col > 0 {
			m.cur.Col--
		}
	case "right", "tab":
		if m.cur.Col < m.store.Sheet().Cols()-1 {
			m.cur.Col++
		}

	case "enter":
		m.mode = modeCell
		m.cellInput.SetValue(m.store.Sheet().Cell(m.cur.Row, m.cur.Col))
		m.cellInput.CursorEnd()
		m.cellInput.Focus()

	case "a":
		if m.store.AddRow() {
			m.model.SetColumns(m.store.Columns())
			m.setStatus("Row added")
		}
	case "A":
		if m.store.AddColumn() {
			m.model.SetColumns(m.store.Columns())
			m.setStatus("Column added")
		}

	case "u", "ctrl+z":
		if m.store.Undo() {
			m.model.SetColumns(m.store.Columns())
			m.clampCursor()
			m.setStatus("Undone")
		} else {
			m.setStatus("Nothing to undo")
		}
	case "ctrl+r", "ctrl+y":
		if m.store.Redo() {
			m.model.SetColumns(m.store.Columns())
			m.clampCursor()
			m.setStatus("Redone")
		} else {
			m.setStatus("Nothing to redo")
		}

	case "/":
		m.mode = modeFind
		m.findFocus = 0
		m.findInput.SetValue(m.store.Find().Query)
		m.replaceInput.SetValue(m.store.Find().Replacement)
		m.caseSensitive = m.store.Find().CaseSensitive
		m.findInput.Focus()
		m.replaceInput.Blur()

	case "m":
		m.mode = modeMapping
		m.mapCursor = 0

	case "p":
		return m.startPreview()

	case "w":
		if m.savePath == "" {
			m.setError("No workbook output path configured")
			break
		}
		if err := m.saveWorkbook(); err != nil {
			m.setError(err.Error())
		} else {
			m.setStatus("Workbook saved to " + m.savePath)
		}
	}

	m.clampCursor()
	return m, nil
}

func (m Editor) updateCell(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeGrid
		m.cellInput.Blur()
		return m, nil
	case "enter":
		changed := m.store.SetCell(m.cur.Row, m.cur.Col, m.cellInput.Value())
		if changed && m.cur.Row == 0 {
			m.model.SetColumns(m.store.Columns())
		}
		m.mode = modeGrid
		m.cellInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.cellInput, cmd = m.cellInput.Update(msg)
	return m, cmd
}

func (m Editor) updateFind(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeGrid
		m.findInput.Blur()
		m.replaceInput.Blur()
		return m, nil

	case "tab", "shift+tab":
		m.findFocus = 1 - m.findFocus
		if m.findFocus == 0 {
			m.findInput.Focus()
			m.replaceInput.Blur()
		} else {
			m.replaceInput.Focus()
			m.findInput.Blur()
		}
		return m, nil

	case "ctrl+t":
		m.caseSensitive = !m.caseSensitive
		return m, nil

	case "enter":
		m.syncFind()
		res := m.store.FindNext()
		if !res.Found {
			m.setError("No matches")
			return m, nil
		}
		m.cur = res.Pos
		m.clampCursor()
		if res.Wrapped {
			m.setStatus("Search wrapped to the top")
		} else {
			m.setStatus(fmt.Sprintf("Match at row %d, column %d", res.Pos.Row, res.Pos.Col+1))
		}
		return m, nil

	case "ctrl+h":
		m.syncFind()
		out := m.store.ReplaceCurrent()
		switch {
		case out.Replaced:
			m.cur = out.Pos
			m.setStatus("Replaced")
			if next := m.store.Find().Cursor; next != nil {
				m.cur = *next
			}
		case out.Relocated:
			m.cur = out.Pos
			m.setStatus("Cell changed; moved to next match")
		default:
			m.setError("No matches")
		}
		m.clampCursor()
		return m, nil

	case "ctrl+a":
		m.syncFind()
		count := m.store.ReplaceAll()
		if count == 0 {
			m.setError("No matches")
		} else {
			m.setStatus(fmt.Sprintf("Replaced %d occurrence(s)", count))
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.findFocus == 0 {
		m.findInput, cmd = m.findInput.Update(msg)
	} else {
		m.replaceInput, cmd = m.replaceInput.Update(msg)
	}
	return m, cmd
}

// syncFind pushes the input fields into the store's find state.
func (m *Editor) syncFind() {
	m.store.SetQuery(m.findInput.Value(), m.caseSensitive)
	m.store.SetReplacement(m.replaceInput.Value())
}

func (m Editor) updateMapping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := mapRowPayloadBase + len(m.model.Payload)

	switch msg.String() {
	case "esc":
		m.mode = modeGrid
		return m, nil
	case "ctrl+c":
		return m, tea.Quit

	case "up":
		if m.mapCursor > 0 {
			m.mapCursor--
		}
	case "down":
		if m.mapCursor < rows-1 {
			m.mapCursor++
		}

	case "g":
		if m.mapCursor == mapRowTaskID {
			if m.model.TaskIDMode == mapping.ModeGenerate {
				m.model.TaskIDMode = mapping.ModeColumn
			} else {
				m.model.TaskIDMode = mapping.ModeGenerate
			}
			m.model.SetColumns(m.store.Columns())
		}

	case "s":
		if m.mapCursor == mapRowTaskID && m.model.TaskIDMode == mapping.ModeGenerate {
			switch m.model.TaskIDStrategy {
			case mapping.StrategyUUID:
				m.model.TaskIDStrategy = mapping.StrategySeq
			case mapping.StrategySeq:
				m.model.TaskIDStrategy = mapping.StrategyExpr
			default:
				m.model.TaskIDStrategy = mapping.StrategyUUID
			}
		}

	case "e":
		if m.mapCursor == mapRowTaskID && m.model.TaskIDMode == mapping.ModeGenerate && m.model.TaskIDStrategy == mapping.StrategyExpr {
			m.mode = modeEditField
			m.editing = editExpression
			m.editRow = m.mapCursor
			m.editInput.Placeholder = "expression"
			m.editInput.SetValue(m.model.TaskIDExpression)
			m.editInput.CursorEnd()
			m.editInput.Focus()
		}

	case "enter":
		switch m.mapCursor {
		case mapRowTaskID:
			if m.model.TaskIDMode == mapping.ModeColumn {
				m.openPicker(pickTaskID, "Select task id column")
			}
		case mapRowTaskName:
			m.openPicker(pickTaskName, "Select task name column")
		case mapRowFileName:
			m.openPicker(pickFileName, "Select file name column")
		}

	case " ":
		if i := m.payloadIndex(); i >= 0 {
			m.model.Payload[i].Enabled = !m.model.Payload[i].Enabled
		}

	case "k":
		if i := m.payloadIndex(); i >= 0 {
			m.mode = modeEditField
			m.editing = editPayloadKey
			m.editRow = m.mapCursor
			m.editInput.Placeholder = "payload key"
			m.editInput.SetValue(m.model.Payload[i].Key)
			m.editInput.CursorEnd()
			m.editInput.Focus()
		}

	case "t":
		m.mode = modeEditField
		m.editing = editTransforms
		m.editRow = m.mapCursor
		m.editInput.Placeholder = "trim, split('|'), lower"
		m.editInput.SetValue(strings.Join(m.transformsAt(m.mapCursor), ", "))
		m.editInput.CursorEnd()
		m.editInput.Focus()
	}

	return m, nil
}

// payloadIndex maps the mapping cursor to a payload entry, or -1 on a core
// row.
func (m *Editor) payloadIndex() int {
	i := m.mapCursor - mapRowPayloadBase
	if i < 0 || i >= len(m.model.Payload) {
		return -1
	}
	return i
}

func (m *Editor) transformsAt(row int) []string {
	switch row {
	case mapRowTaskID:
		return m.model.TaskIDTransforms
	case mapRowTaskName:
		return m.model.TaskNameTransforms
	case mapRowFileName:
		return m.model.FileNameTransforms
	default:
		if i := row - mapRowPayloadBase; i >= 0 && i < len(m.model.Payload) {
			return m.model.Payload[i].Transforms
		}
	}
	return nil
}

func (m *Editor) setTransformsAt(row int, chain []string) {
	switch row {
	case mapRowTaskID:
		m.model.TaskIDTransforms = chain
	case mapRowTaskName:
		m.model.TaskNameTransforms = chain
	case mapRowFileName:
		m.model.FileNameTransforms = chain
	default:
		if i := row - mapRowPayloadBase; i >= 0 && i < len(m.model.Payload) {
			m.model.Payload[i].Transforms = chain
		}
	}
}

func (m *Editor) openPicker(target pickTarget, title string) {
	roles := make(map[string]string)
	if m.model.TaskIDMode == mapping.ModeColumn && m.model.TaskIDColumn != "" {
		roles[m.model.TaskIDColumn] = "task id"
	}
	if m.model.TaskNameColumn != "" {
		roles[m.model.TaskNameColumn] = "task name"
	}
	if m.model.FileNameColumn != "" {
		roles[m.model.FileNameColumn] = "file name"
	}
	m.picker = newColumnPicker(m.store.Columns(), roles, target, title)
	if m.width > 0 {
		m.picker.list.SetSize(m.width-4, m.height-6)
	}
	m.mode = modePick
}

func (m Editor) updatePick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.list.FilterState() != list.Filtering {
		switch msg.String() {
		case "esc", "ctrl+c":
			m.mode = modeMapping
			return m, nil
		case "enter":
			if name, ok := m.picker.selected(); ok {
				switch m.picker.target {
				case pickTaskID:
					m.model.TaskIDColumn = name
				case pickTaskName:
					m.model.TaskNameColumn = name
				case pickFileName:
					m.model.FileNameColumn = name
				}
				m.model.SetColumns(m.store.Columns())
			}
			m.mode = modeMapping
			return m, nil
		}
	}
	cmd := m.picker.update(msg)
	return m, cmd
}

func (m Editor) updateEditField(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeMapping
		m.editInput.Blur()
		return m, nil
	case "enter":
		value := m.editInput.Value()
		switch m.editing {
		case editExpression:
			m.model.TaskIDExpression = strings.TrimSpace(value)
		case editPayloadKey:
			if i := m.editRow - mapRowPayloadBase; i >= 0 && i < len(m.model.Payload) {
				m.model.Payload[i].Key = strings.TrimSpace(value)
			}
		case editTransforms:
			chain, err := mapping.ParseChain(value)
			if err != nil {
				m.setError(err.Error())
				return m, nil
			}
			m.setTransformsAt(m.editRow, chain)
		}
		m.mode = modeMapping
		m.editInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

func (m Editor) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeGrid
		return m, nil
	case "ctrl+c", "q":
		return m, tea.Quit
	case "m":
		m.mode = modeMapping
		m.mapCursor = 0
		return m, nil
	case "p":
		return m.startPreview()
	case "c":
		return m.startConfirm()
	}
	return m, nil
}

func (m Editor) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.mode = modeGrid
		return m, nil
	case "ctrl+c", "q":
		return m, tea.Quit
	}
	return m, nil
}

// startPreview kicks off an async preview. A mapping that does not validate
// yet is sent as nil so the service replies with its suggestion.
func (m Editor) startPreview() (tea.Model, tea.Cmd) {
	if s := m.session.State(); s == importer.StatePreviewRequested || s == importer.StateConfirmRequested {
		m.setStatus("Request already in flight")
		return m, nil
	}

	records := mapping.BuildRecords(m.store.Sheet())
	cfg, err := m.model.Compile(m.sheetOverride, m.source)
	if err != nil {
		cfg = nil
		m.setStatus("Mapping incomplete; requesting a suggestion")
	} else {
		m.setStatus("Previewing...")
	}

	seq := m.session.NextSeq()
	sess := m.session
	return m, func() tea.Msg {
		resp, err := sess.RunPreview(context.Background(), records, cfg)
		return previewDoneMsg{seq: seq, resp: resp, err: err}
	}
}

// startConfirm compiles the final mapping and submits it. Unlike preview,
// confirmation refuses to run with an incomplete mapping.
func (m Editor) startConfirm() (tea.Model, tea.Cmd) {
	if s := m.session.State(); s == importer.StatePreviewRequested || s == importer.StateConfirmRequested {
		m.setStatus("Request already in flight")
		return m, nil
	}

	cfg, err := m.model.Compile(m.sheetOverride, m.source)
	if err != nil {
		m.setError(err.Error())
		return m, nil
	}
	records := mapping.BuildRecords(m.store.Sheet())

	m.setStatus("Confirming...")
	seq := m.session.NextSeq()
	sess := m.session
	sheet := cfg.Sheet
	return m, func() tea.Msg {
		resp, err := sess.RunConfirm(context.Background(), records, cfg)
		return confirmDoneMsg{seq: seq, sheet: sheet, resp: resp, err: err}
	}
}

func (m *Editor) saveWorkbook() error {
	name := m.sheetOverride
	if name == "" {
		name = m.model.SheetName
	}
	name = mapping.SanitizeSheetName(name)
	return workbook.Write(m.savePath, name, m.store.Sheet())
}

func (m *Editor) clampCursor() {
	sheet := m.store.Sheet()
	if m.cur.Row >= sheet.Rows() {
		m.cur.Row = sheet.Rows() - 1
	}
	if m.cur.Row < 0 {
		m.cur.Row = 0
	}
	if m.cur.Col >= sheet.Cols() {
		m.cur.Col = sheet.Cols() - 1
	}
	if m.cur.Col < 0 {
		m.cur.Col = 0
	}
	m.scrollToCursor()
}

// scrollToCursor moves the persisted grid window so the cursor stays inside
// the visible rows and columns.
func (m *Editor) scrollToCursor() {
	visRows, visCols := m.viewport()
	if m.cur.Row > 0 && m.cur.Row-1 < m.rowOff {
		m.rowOff = m.cur.Row - 1
	}
	if m.cur.Row-1 >= m.rowOff+visRows-1 {
		m.rowOff = m.cur.Row - visRows + 1
	}
	if m.rowOff < 0 {
		m.rowOff = 0
	}
	if m.cur.Col < m.colOff {
		m.colOff = m.cur.Col
	}
	if m.cur.Col >= m.colOff+visCols {
		m.colOff = m.cur.Col - visCols + 1
	}
	if m.colOff < 0 {
		m.colOff = 0
	}
}

// Run starts the editor program on the alternate screen. Rendering goes to
// stderr so stdout stays clean for shell pipelines.
func Run(opts Options) error {
	lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(os.Stderr, termenv.WithColorCache(true)))

	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithOutput(os.Stderr))
	_, err := p.Run()
	return err
}
