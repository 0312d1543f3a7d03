package mapping

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/annotlab/sheetmap/internal/grid"
)

// Wire-format types for the import service. Core fields are a discriminated
// union on "mode": GENERATE carries strategy/expression, COLUMN carries
// name/transforms. The service rejects unknown keys, so every field is
// omitted when unset.

// CoreFieldConfig is one core field spec on the wire.
type CoreFieldConfig struct {
	Mode       Mode     `json:"mode" yaml:"mode"`
	Strategy   Strategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Expression string   `json:"expression,omitempty" yaml:"expression,omitempty"`
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Transforms []string `json:"transforms,omitempty" yaml:"transforms,omitempty"`
}

// CoreConfig holds the three mandatory mapping targets.
type CoreConfig struct {
	TaskID   CoreFieldConfig `json:"task_id" yaml:"task_id"`
	TaskName CoreFieldConfig `json:"task_name" yaml:"task_name"`
	FileName CoreFieldConfig `json:"file_name" yaml:"file_name"`
}

// PayloadFieldConfig is one enabled non-core column on the wire.
type PayloadFieldConfig struct {
	Mode       Mode     `json:"mode" yaml:"mode"`
	Column     string   `json:"column" yaml:"column"`
	Key        string   `json:"key" yaml:"key"`
	Transforms []string `json:"transforms,omitempty" yaml:"transforms,omitempty"`
}

// Config is the serialized mapping configuration sent to the import service.
type Config struct {
	Sheet           string               `json:"sheet" yaml:"sheet"`
	Core            CoreConfig           `json:"core" yaml:"core"`
	PayloadSelected []PayloadFieldConfig `json:"payload_selected" yaml:"payload_selected"`
}

// ValidationError reports an incomplete mapping, naming the missing field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// FallbackSheetName is used when no override, server-resolved name, or
// source filename is available.
const FallbackSheetName = "Raw"

// maxSheetNameLength is the Excel sheet-name limit.
const maxSheetNameLength = 31

const invalidSheetNameChars = `[]:*?/\`

// SanitizeSheetName normalizes a sheet name to satisfy Excel constraints:
// invalid characters replaced, length capped, blank falling back.
func SanitizeSheetName(name string) string {
	candidate := strings.TrimSpace(name)
	if candidate == "" {
		return FallbackSheetName
	}
	var b strings.Builder
	for _, ch := range candidate {
		if strings.ContainsRune(invalidSheetNameChars, ch) {
			b.WriteRune('_')
		} else {
			b.WriteRune(ch)
		}
	}
	out := b.String()
	if len(out) > maxSheetNameLength {
		out = out[:maxSheetNameLength]
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return FallbackSheetName
	}
	return out
}

// resolveSheetName picks the compiled sheet name: explicit override, then
// the server-resolved name, then a slug of the source filename, then the
// fixed fallback.
func (m *Model) resolveSheetName(override, sourceFilename string) string {
	for _, candidate := range []string{override, m.SheetName, fileStem(sourceFilename)} {
		if strings.TrimSpace(candidate) != "" {
			return SanitizeSheetName(candidate)
		}
	}
	return FallbackSheetName
}

func fileStem(filename string) string {
	if filename == "" {
		return ""
	}
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Compile validates the model and produces the wire-format mapping config.
// It is pure: the model is not modified and no transform is executed.
func (m *Model) Compile(sheetOverride, sourceFilename string) (*Config, error) {
	if m.TaskNameColumn == "" {
		return nil, &ValidationError{Field: "task name", Reason: "column is not set"}
	}
	if m.FileNameColumn == "" {
		return nil, &ValidationError{Field: "file name", Reason: "column is not set"}
	}

	var taskID CoreFieldConfig
	switch m.TaskIDMode {
	case ModeGenerate:
		if m.TaskIDStrategy == StrategyExpr && strings.TrimSpace(m.TaskIDExpression) == "" {
			return nil, &ValidationError{Field: "task id", Reason: "expression is empty"}
		}
		taskID = CoreFieldConfig{
			Mode:       ModeGenerate,
			Strategy:   m.TaskIDStrategy,
			Expression: strings.TrimSpace(m.TaskIDExpression),
		}
		if taskID.Strategy != StrategyExpr {
			taskID.Expression = ""
		}
	case ModeColumn:
		if m.TaskIDColumn == "" {
			return nil, &ValidationError{Field: "task id", Reason: "column is not set"}
		}
		taskID = CoreFieldConfig{
			Mode:       ModeColumn,
			Name:       m.TaskIDColumn,
			Transforms: append([]string(nil), m.TaskIDTransforms...),
		}
	default:
		return nil, &ValidationError{Field: "task id", Reason: fmt.Sprintf("has unknown mode %q", m.TaskIDMode)}
	}

	cfg := &Config{
		Sheet: m.resolveSheetName(sheetOverride, sourceFilename),
		Core: CoreConfig{
			TaskID: taskID,
			TaskName: CoreFieldConfig{
				Mode:       ModeColumn,
				Name:       m.TaskNameColumn,
				Transforms: append([]string(nil), m.TaskNameTransforms...),
			},
			FileName: CoreFieldConfig{
				Mode:       ModeColumn,
				Name:       m.FileNameColumn,
				Transforms: append([]string(nil), m.FileNameTransforms...),
			},
		},
		PayloadSelected: []PayloadFieldConfig{},
	}

	for _, p := range m.Payload {
		if !p.Enabled || m.IsCore(p.Column) {
			continue
		}
		key := p.Key
		if key == "" {
			key = p.Column
		}
		cfg.PayloadSelected = append(cfg.PayloadSelected, PayloadFieldConfig{
			Mode:       ModeColumn,
			Column:     p.Column,
			Key:        key,
			Transforms: append([]string(nil), p.Transforms...),
		})
	}

	return cfg, nil
}

// BuildRecords turns data rows into column-keyed records. Missing cells
// default to the empty string; rows whose every cell is blank after trimming
// are dropped.
func BuildRecords(sheet grid.Sheet) []map[string]any {
	columns := sheet.Columns()
	if len(columns) == 0 {
		return nil
	}

	var records []map[string]any
	for r := 1; r < sheet.Rows(); r++ {
		record := make(map[string]any, len(columns))
		blank := true
		for c, col := range columns {
			value := sheet.Cell(r, c)
			if strings.TrimSpace(value) != "" {
				blank = false
			}
			record[col] = value
		}
		if blank {
			continue
		}
		records = append(records, record)
	}
	return records
}
