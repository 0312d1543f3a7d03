package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/annotlab/sheetmap/internal/config"
	"github.com/annotlab/sheetmap/internal/grid"
	"github.com/annotlab/sheetmap/internal/mapping"
)

var (
	mappingSheet string
	mappingOut   string
)

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Inspect and manage column mappings",
}

var mappingSuggestCmd = &cobra.Command{
	Use:   "suggest <file>",
	Short: "Infer a column mapping from a file's headers",
	Long: `Reads the file's header row and infers a mapping by keyword heuristics:
task_name from name/title columns, file_name from file/url/path columns,
with a basename transform added for url- and path-like columns.

The result is printed as YAML, or written with --out for reuse as a
template with 'sheetmap import --mapping'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		rows, resolvedSheet, err := loadRows(context.Background(), cfg, args[0], mappingSheet)
		if err != nil {
			return err
		}

		sheet := grid.Normalize(rows)
		model := mapping.NewModel(sheet.Columns())
		if resolvedSheet != "" {
			model.SheetName = resolvedSheet
		}

		compiled, err := model.Compile(mappingSheet, args[0])
		if err != nil {
			return err
		}

		if mappingOut != "" {
			if err := mapping.SaveConfig(compiled, mappingOut); err != nil {
				return err
			}
			fmt.Printf("Mapping written to %s\n", mappingOut)
			return nil
		}

		if jsonOut {
			return outputJSON(compiled)
		}
		data, err := yaml.Marshal(compiled)
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
		return nil
	},
}

var mappingValidateCmd = &cobra.Command{
	Use:   "validate <mapping.yaml>",
	Short: "Check a saved mapping config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := mapping.LoadConfig(args[0])
		if err != nil {
			return err
		}

		for _, field := range []struct {
			name string
			spec mapping.CoreFieldConfig
		}{
			{"task_id", cfg.Core.TaskID},
			{"task_name", cfg.Core.TaskName},
			{"file_name", cfg.Core.FileName},
		} {
			if err := mapping.ValidateTransforms(field.spec.Transforms); err != nil {
				return fmt.Errorf("%s: %w", field.name, err)
			}
		}
		for _, sel := range cfg.PayloadSelected {
			if err := mapping.ValidateTransforms(sel.Transforms); err != nil {
				return fmt.Errorf("payload %s: %w", sel.Column, err)
			}
		}

		fmt.Printf("%s: ok (%d payload column(s), sheet %q)\n", args[0], len(cfg.PayloadSelected), cfg.Sheet)
		return nil
	},
}

func init() {
	mappingSuggestCmd.Flags().StringVar(&mappingSheet, "sheet", "", "sheet to read")
	mappingSuggestCmd.Flags().StringVar(&mappingOut, "out", "", "write the mapping to this file instead of stdout")
	mappingCmd.AddCommand(mappingSuggestCmd)
	mappingCmd.AddCommand(mappingValidateCmd)
	rootCmd.AddCommand(mappingCmd)
}
