package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// pickTarget identifies which mapping slot a column pick lands in.
type pickTarget int

const (
	pickTaskID pickTarget = iota
	pickTaskName
	pickFileName
)

// columnItem is a list item for column selection.
type columnItem struct {
	name string
	role string
}

func (i columnItem) Title() string       { return i.name }
func (i columnItem) Description() string { return i.role }
func (i columnItem) FilterValue() string { return i.name }

type columnPicker struct {
	list   list.Model
	target pickTarget
}

func newColumnPicker(columns []string, roles map[string]string, target pickTarget, title string) columnPicker {
	items := make([]list.Item, 0, len(columns))
	for _, col := range columns {
		items = append(items, columnItem{name: col, role: roles[col]})
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(lipgloss.Color("212"))
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(lipgloss.Color("241"))

	l := list.New(items, delegate, 50, 14)
	l.Title = title
	l.Styles.Title = headerStyle
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return columnPicker{list: l, target: target}
}

func (p *columnPicker) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return cmd
}

func (p *columnPicker) selected() (string, bool) {
	item, ok := p.list.SelectedItem().(columnItem)
	if !ok {
		return "", false
	}
	return item.name, true
}

func (p *columnPicker) view() string {
	return p.list.View() + "\n" + hintStyle.Render("enter: select • /: search • esc: cancel")
}
