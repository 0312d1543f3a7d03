package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelInfersDefaults(t *testing.T) {
	m := NewModel([]string{"id", "name", "media_url", "notes"})

	assert.Equal(t, ModeGenerate, m.TaskIDMode)
	assert.Equal(t, StrategyUUID, m.TaskIDStrategy)
	assert.Equal(t, "name", m.TaskNameColumn)
	assert.Equal(t, "media_url", m.FileNameColumn)
	assert.Equal(t, []string{"basename"}, m.FileNameTransforms, "url-ish file column should get a basename transform")
}

func TestInferKeywordPriority(t *testing.T) {
	tests := []struct {
		name     string
		columns  []string
		wantName string
		wantFile string
	}{
		{"exact beats substring", []string{"nickname", "name"}, "name", "nickname"},
		{"task_name beats name", []string{"name", "task_name"}, "task_name", "name"},
		{"title fallback", []string{"title", "other"}, "title", "title"},
		{"file_name exact", []string{"name", "file", "file_name"}, "name", "file_name"},
		{"first column fallback", []string{"alpha", "beta"}, "alpha", "alpha"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(tt.columns)
			assert.Equal(t, tt.wantName, m.TaskNameColumn)
			assert.Equal(t, tt.wantFile, m.FileNameColumn)
		})
	}
}

func TestInferTaskIDColumnMode(t *testing.T) {
	m := NewModel([]string{"external_id", "name", "file"})
	m.TaskIDMode = ModeColumn
	m.TaskIDColumn = ""
	m.SetColumns(m.Columns)

	assert.Equal(t, "external_id", m.TaskIDColumn)

	// With no id-ish column the pick stays blank and requires an explicit
	// user choice.
	m2 := NewModel([]string{"alpha", "name", "file"})
	m2.TaskIDMode = ModeColumn
	m2.SetColumns(m2.Columns)
	assert.Equal(t, "", m2.TaskIDColumn)
}

func TestSetColumnsPreservesValidChoices(t *testing.T) {
	m := NewModel([]string{"id", "name", "file", "extra"})
	m.TaskNameColumn = "extra"

	p := m.PayloadFor("id")
	require.NotNil(t, p)
	p.Key = "external_ref"
	p.Enabled = false

	m.SetColumns([]string{"id", "name", "file", "extra", "added"})

	assert.Equal(t, "extra", m.TaskNameColumn, "valid user choice must survive")
	p = m.PayloadFor("id")
	require.NotNil(t, p)
	assert.Equal(t, "external_ref", p.Key)
	assert.False(t, p.Enabled)

	added := m.PayloadFor("added")
	require.NotNil(t, added)
	assert.True(t, added.Enabled)
	assert.Equal(t, "added", added.Key)
}

func TestSetColumnsDropsVanishedReferences(t *testing.T) {
	m := NewModel([]string{"id", "name", "file"})
	m.TaskNameColumn = "name"

	m.SetColumns([]string{"id", "title", "file"})

	assert.Equal(t, "title", m.TaskNameColumn, "vanished column should be dropped and re-inferred")
}

func TestPayloadExcludesCoreColumns(t *testing.T) {
	m := NewModel([]string{"id", "name", "file", "extra"})

	assert.Nil(t, m.PayloadFor("name"))
	assert.Nil(t, m.PayloadFor("file"))
	assert.NotNil(t, m.PayloadFor("id"))
	assert.NotNil(t, m.PayloadFor("extra"))
}

func TestApplySuggestionOverwritesCore(t *testing.T) {
	m := NewModel([]string{"id", "name", "file", "extra"})
	m.TaskNameColumn = "extra"

	suggestion := &Config{
		Sheet: "Imported",
		Core: CoreConfig{
			TaskID:   CoreFieldConfig{Mode: ModeColumn, Name: "id"},
			TaskName: CoreFieldConfig{Mode: ModeColumn, Name: "name", Transforms: []string{"trim"}},
			FileName: CoreFieldConfig{Mode: ModeColumn, Name: "file"},
		},
	}
	m.ApplySuggestion(suggestion)

	assert.Equal(t, ModeColumn, m.TaskIDMode)
	assert.Equal(t, "id", m.TaskIDColumn)
	assert.Equal(t, "name", m.TaskNameColumn)
	assert.Equal(t, []string{"trim"}, m.TaskNameTransforms)
	assert.Equal(t, "Imported", m.SheetName)

	// extra is no longer core and must reappear as a payload column.
	assert.NotNil(t, m.PayloadFor("extra"))
}

func TestApplySuggestionKeepsUnmentionedPayload(t *testing.T) {
	m := NewModel([]string{"id", "name", "file", "extra"})
	p := m.PayloadFor("extra")
	p.Key = "custom_key"

	m.ApplySuggestion(&Config{
		Core: CoreConfig{
			TaskID:   CoreFieldConfig{Mode: ModeGenerate, Strategy: StrategyUUID},
			TaskName: CoreFieldConfig{Mode: ModeColumn, Name: "name"},
			FileName: CoreFieldConfig{Mode: ModeColumn, Name: "file"},
		},
	})

	p = m.PayloadFor("extra")
	require.NotNil(t, p)
	assert.Equal(t, "custom_key", p.Key, "payload config not named by the suggestion must survive")
}
