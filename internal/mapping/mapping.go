// Package mapping models how grid columns become normalized task records:
// the user-editable mapping state, the client-side column inference, and the
// compiler that turns grid rows plus mapping state into the wire-format
// config consumed by the import service.
package mapping

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode discriminates core field variants on the wire.
type Mode string

const (
	ModeGenerate Mode = "GENERATE"
	ModeColumn   Mode = "COLUMN"
)

// Strategy selects how a GENERATE task_id is produced server-side.
type Strategy string

const (
	StrategyUUID Strategy = "uuid_v4"
	StrategySeq  Strategy = "seq_per_batch"
	StrategyExpr Strategy = "expr"
)

// PayloadColumn configures one non-core grid column. Disabled columns are
// omitted from generated payload objects.
type PayloadColumn struct {
	Column     string
	Enabled    bool
	Key        string
	Transforms []string
}

// Model is the user-editable mapping state for the current column set.
// task_name and file_name are always column-backed; task_id may instead be
// generated by the service.
type Model struct {
	Columns []string

	TaskIDMode       Mode
	TaskIDStrategy   Strategy
	TaskIDExpression string
	TaskIDColumn     string
	TaskIDTransforms []string

	TaskNameColumn     string
	TaskNameTransforms []string

	FileNameColumn     string
	FileNameTransforms []string

	Payload []PayloadColumn

	// SheetName is the sheet name last resolved by the import service, used
	// as a default when compiling.
	SheetName string
}

// NewModel builds a model for the given column set with inferred defaults.
// task_id starts in GENERATE/uuid_v4 mode, matching the service's own
// suggestion default.
func NewModel(columns []string) *Model {
	m := &Model{
		TaskIDMode:     ModeGenerate,
		TaskIDStrategy: StrategyUUID,
	}
	m.SetColumns(columns)
	return m
}

// IsCore reports whether the named column is claimed by a core field.
func (m *Model) IsCore(column string) bool {
	if m.TaskIDMode == ModeColumn && m.TaskIDColumn == column {
		return true
	}
	return m.TaskNameColumn == column || m.FileNameColumn == column
}

// PayloadFor returns the payload config for a column, or nil.
func (m *Model) PayloadFor(column string) *PayloadColumn {
	for i := range m.Payload {
		if m.Payload[i].Column == column {
			return &m.Payload[i]
		}
	}
	return nil
}

// knownTransforms is the fixed transform vocabulary. The value is the
// maximum argument count; transforms are serialized as data and executed by
// the import service, never client-side.
var knownTransforms = map[string]int{
	"trim":     0,
	"lower":    0,
	"upper":    0,
	"basename": 0,
	"to_int":   1,
	"split":    1,
	"join":     1,
}

// ParseTransform splits a transform spec like "split('|')" into its name and
// arguments, validating against the vocabulary.
func ParseTransform(spec string) (string, []string, error) {
	text := strings.TrimSpace(spec)
	if text == "" {
		return "", nil, fmt.Errorf("empty transform")
	}
	name := text
	var args []string
	if open := strings.Index(text, "("); open >= 0 {
		if !strings.HasSuffix(text, ")") {
			return "", nil, fmt.Errorf("malformed transform %q", spec)
		}
		name = strings.TrimSpace(text[:open])
		args = splitArgs(text[open+1 : len(text)-1])
	}
	name = strings.ToLower(name)
	maxArgs, ok := knownTransforms[name]
	if !ok {
		return "", nil, fmt.Errorf("unknown transform %q", name)
	}
	if len(args) > maxArgs {
		return "", nil, fmt.Errorf("transform %q takes at most %d argument(s)", name, maxArgs)
	}
	return name, args, nil
}

// splitArgs splits a transform argument list on commas, honoring single and
// double quotes so a literal comma can be passed as a separator argument.
func splitArgs(source string) []string {
	var args []string
	var buf strings.Builder
	inQuote := false
	var quote rune
	flush := func() {
		arg := strings.TrimSpace(buf.String())
		if arg != "" {
			args = append(args, arg)
		}
		buf.Reset()
	}
	for _, ch := range source {
		switch {
		case inQuote && ch == quote:
			inQuote = false
		case inQuote:
			buf.WriteRune(ch)
		case ch == '\'' || ch == '"':
			inQuote = true
			quote = ch
		case ch == ',':
			flush()
		default:
			buf.WriteRune(ch)
		}
	}
	flush()
	return args
}

// ParseChain splits a comma-separated transform chain like
// "trim, split('|'), lower" into validated specs. Commas inside transform
// arguments do not split; each spec is checked against the vocabulary.
func ParseChain(text string) ([]string, error) {
	var chain []string
	var buf strings.Builder
	depth := 0
	inQuote := false
	var quote rune
	flush := func() error {
		spec := strings.TrimSpace(buf.String())
		buf.Reset()
		if spec == "" {
			return nil
		}
		if _, _, err := ParseTransform(spec); err != nil {
			return err
		}
		chain = append(chain, spec)
		return nil
	}
	for _, ch := range text {
		switch {
		case inQuote:
			if ch == quote {
				inQuote = false
			}
			buf.WriteRune(ch)
		case ch == '\'' || ch == '"':
			inQuote = true
			quote = ch
			buf.WriteRune(ch)
		case ch == '(':
			depth++
			buf.WriteRune(ch)
		case ch == ')':
			depth--
			buf.WriteRune(ch)
		case ch == ',' && depth == 0:
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			buf.WriteRune(ch)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return chain, nil
}

// ValidateTransforms checks every entry of a transform chain.
func ValidateTransforms(chain []string) error {
	for _, spec := range chain {
		if _, _, err := ParseTransform(spec); err != nil {
			return err
		}
	}
	return nil
}

// SaveConfig writes a compiled mapping config to path as YAML, so mappings
// can be reused as templates across runs.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding mapping config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadConfig reads a YAML mapping config from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing mapping config: %w", err)
	}
	return &cfg, nil
}
