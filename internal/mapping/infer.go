package mapping

import "strings"

// Keyword priorities for the client-side column heuristics. Exact
// case-insensitive matches win over substring matches, and earlier hints win
// over later ones.
var (
	taskNameHints = []string{"task_name", "name", "title"}
	fileNameHints = []string{"file_name", "filename", "file", "url", "path"}
	taskIDHints   = []string{"task_id", "external", "id", "uid"}
)

// findColumn resolves a hint list against the column set: one exact
// case-insensitive pass over the hints, then one substring pass.
func findColumn(columns []string, hints []string) string {
	lowered := make(map[string]string, len(columns))
	for _, col := range columns {
		key := strings.ToLower(col)
		if _, seen := lowered[key]; !seen {
			lowered[key] = col
		}
	}
	for _, hint := range hints {
		if col, ok := lowered[hint]; ok {
			return col
		}
	}
	for _, col := range columns {
		for _, hint := range hints {
			if strings.Contains(strings.ToLower(col), hint) {
				return col
			}
		}
	}
	return ""
}

func hasColumn(columns []string, name string) bool {
	for _, col := range columns {
		if col == name {
			return true
		}
	}
	return false
}

// SetColumns re-derives mapping defaults for a new column set without
// discarding user choices that remain valid. Column references that vanished
// are dropped; unset core fields are filled by keyword priority; payload
// configs are rebuilt to cover every non-core column, preserving surviving
// entries.
func (m *Model) SetColumns(columns []string) {
	m.Columns = append([]string(nil), columns...)

	if m.TaskIDColumn != "" && !hasColumn(columns, m.TaskIDColumn) {
		m.TaskIDColumn = ""
	}
	if m.TaskNameColumn != "" && !hasColumn(columns, m.TaskNameColumn) {
		m.TaskNameColumn = ""
	}
	if m.FileNameColumn != "" && !hasColumn(columns, m.FileNameColumn) {
		m.FileNameColumn = ""
		m.FileNameTransforms = nil
	}

	if m.TaskNameColumn == "" {
		m.TaskNameColumn = findColumn(columns, taskNameHints)
		if m.TaskNameColumn == "" && len(columns) > 0 {
			m.TaskNameColumn = columns[0]
		}
	}

	if m.FileNameColumn == "" {
		m.FileNameColumn = findColumn(columns, fileNameHints)
		if m.FileNameColumn == "" && len(columns) > 0 {
			m.FileNameColumn = columns[0]
		}
		lower := strings.ToLower(m.FileNameColumn)
		if len(m.FileNameTransforms) == 0 && (strings.Contains(lower, "url") || strings.Contains(lower, "path")) {
			m.FileNameTransforms = []string{"basename"}
		}
	}

	// task_id is only inferred in COLUMN mode; an empty pick stays empty and
	// requires an explicit user choice before the mapping is valid.
	if m.TaskIDMode == ModeColumn && m.TaskIDColumn == "" {
		m.TaskIDColumn = findColumn(columns, taskIDHints)
	}

	m.rebuildPayload(columns)
}

func (m *Model) rebuildPayload(columns []string) {
	previous := make(map[string]PayloadColumn, len(m.Payload))
	for _, p := range m.Payload {
		previous[p.Column] = p
	}

	rebuilt := make([]PayloadColumn, 0, len(columns))
	for _, col := range columns {
		if m.IsCore(col) {
			continue
		}
		if p, ok := previous[col]; ok {
			rebuilt = append(rebuilt, p)
			continue
		}
		rebuilt = append(rebuilt, PayloadColumn{
			Column:  col,
			Enabled: true,
			Key:     col,
		})
	}
	m.Payload = rebuilt
}

// ApplySuggestion merges a server-suggested mapping into the model,
// overwriting core field assignments. Payload entries named by the
// suggestion overwrite the matching columns; columns the suggestion does not
// mention keep their current configuration (the service's heuristic never
// proposes payload selections, so clearing them would wipe user work on
// every preview).
func (m *Model) ApplySuggestion(cfg *Config) {
	if cfg == nil {
		return
	}

	applyCore := func(spec CoreFieldConfig, column *string, transforms *[]string) {
		if spec.Mode != ModeColumn || spec.Name == "" {
			return
		}
		*column = spec.Name
		*transforms = append([]string(nil), spec.Transforms...)
	}

	switch cfg.Core.TaskID.Mode {
	case ModeGenerate:
		m.TaskIDMode = ModeGenerate
		if cfg.Core.TaskID.Strategy != "" {
			m.TaskIDStrategy = cfg.Core.TaskID.Strategy
		}
		m.TaskIDExpression = cfg.Core.TaskID.Expression
	case ModeColumn:
		m.TaskIDMode = ModeColumn
		applyCore(cfg.Core.TaskID, &m.TaskIDColumn, &m.TaskIDTransforms)
	}
	applyCore(cfg.Core.TaskName, &m.TaskNameColumn, &m.TaskNameTransforms)
	applyCore(cfg.Core.FileName, &m.FileNameColumn, &m.FileNameTransforms)

	for _, sel := range cfg.PayloadSelected {
		if p := m.PayloadFor(sel.Column); p != nil {
			p.Enabled = true
			p.Key = sel.Key
			p.Transforms = append([]string(nil), sel.Transforms...)
		}
	}

	if cfg.Sheet != "" {
		m.SheetName = cfg.Sheet
	}
	m.rebuildPayload(m.Columns)
}
