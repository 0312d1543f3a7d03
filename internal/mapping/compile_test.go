package mapping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annotlab/sheetmap/internal/grid"
)

func validModel() *Model {
	m := NewModel([]string{"id", "name", "file", "extra"})
	return m
}

func TestCompileValidMapping(t *testing.T) {
	cfg, err := validModel().Compile("", "tasks.json")
	require.NoError(t, err)

	assert.Equal(t, ModeGenerate, cfg.Core.TaskID.Mode)
	assert.Equal(t, StrategyUUID, cfg.Core.TaskID.Strategy)
	assert.Equal(t, "name", cfg.Core.TaskName.Name)
	assert.Equal(t, "file", cfg.Core.FileName.Name)
	assert.Equal(t, "tasks", cfg.Sheet, "sheet should derive from the source filename")

	require.Len(t, cfg.PayloadSelected, 2)
	assert.Equal(t, "id", cfg.PayloadSelected[0].Column)
	assert.Equal(t, "extra", cfg.PayloadSelected[1].Column)
}

func TestCompileValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Model)
		wantMsg string
	}{
		{"task name unset", func(m *Model) { m.TaskNameColumn = "" }, "task name column is not set"},
		{"file name unset", func(m *Model) { m.FileNameColumn = "" }, "file name column is not set"},
		{"task id column unset", func(m *Model) {
			m.TaskIDMode = ModeColumn
			m.TaskIDColumn = ""
		}, "task id column is not set"},
		{"task id expression empty", func(m *Model) {
			m.TaskIDStrategy = StrategyExpr
			m.TaskIDExpression = "  "
		}, "task id expression is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validModel()
			tt.mutate(m)
			_, err := m.Compile("", "")
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestCompileGenerateSpecOmitsColumnKeys(t *testing.T) {
	cfg, err := validModel().Compile("", "")
	require.NoError(t, err)

	data, err := json.Marshal(cfg.Core.TaskID)
	require.NoError(t, err)

	var keys map[string]any
	require.NoError(t, json.Unmarshal(data, &keys))
	assert.NotContains(t, keys, "name", "GENERATE specs must not carry column keys on the wire")
	assert.NotContains(t, keys, "transforms")
	assert.NotContains(t, keys, "expression")
}

func TestCompileDisabledPayloadOmitted(t *testing.T) {
	m := validModel()
	m.PayloadFor("extra").Enabled = false

	cfg, err := m.Compile("", "")
	require.NoError(t, err)

	require.Len(t, cfg.PayloadSelected, 1)
	assert.Equal(t, "id", cfg.PayloadSelected[0].Column)
}

func TestCompileSheetNameChain(t *testing.T) {
	m := validModel()

	cfg, _ := m.Compile("Override", "tasks.json")
	assert.Equal(t, "Override", cfg.Sheet)

	m.SheetName = "ServerSheet"
	cfg, _ = m.Compile("", "tasks.json")
	assert.Equal(t, "ServerSheet", cfg.Sheet)

	m.SheetName = ""
	cfg, _ = m.Compile("", "/tmp/batch one.json")
	assert.Equal(t, "batch one", cfg.Sheet)

	cfg, _ = m.Compile("", "")
	assert.Equal(t, FallbackSheetName, cfg.Sheet)
}

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Raw", "Raw"},
		{"a/b[c]", "a_b_c_"},
		{"", "Raw"},
		{"   ", "Raw"},
		{"0123456789012345678901234567890123456789", "0123456789012345678901234567890"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeSheetName(tt.in), "input %q", tt.in)
	}
}

func TestBuildRecords(t *testing.T) {
	sheet := grid.Normalize([][]string{
		{"id", "name"},
		{"1", "Alice"},
		{"", "  "},
		{"", "Bob"},
	})

	records := BuildRecords(sheet)
	require.Len(t, records, 2, "all-blank row must be dropped")
	assert.Equal(t, map[string]any{"id": "1", "name": "Alice"}, records[0])
	assert.Equal(t, map[string]any{"id": "", "name": "Bob"}, records[1])
}

func TestEndToEndScenario(t *testing.T) {
	sheet := grid.Normalize([][]string{
		{"id", "name"},
		{"1", "Alice"},
		{"", "  "},
	})

	m := NewModel(sheet.Columns())
	assert.Equal(t, "name", m.TaskNameColumn)

	records := BuildRecords(sheet)
	require.Len(t, records, 1)
	assert.Equal(t, map[string]any{"id": "1", "name": "Alice"}, records[0])

	m.FileNameColumn = "id"
	cfg, err := m.Compile("", "")
	require.NoError(t, err)
	assert.Equal(t, "id", cfg.Core.FileName.Name)
}

func TestConfigYAMLRoundTrip(t *testing.T) {
	m := validModel()
	cfg, err := m.Compile("Sheet1", "")
	require.NoError(t, err)

	path := t.TempDir() + "/mapping.yaml"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
