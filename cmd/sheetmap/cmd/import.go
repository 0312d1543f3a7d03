package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/annotlab/sheetmap/internal/config"
	"github.com/annotlab/sheetmap/internal/grid"
	"github.com/annotlab/sheetmap/internal/importer"
	"github.com/annotlab/sheetmap/internal/mapping"
	"github.com/annotlab/sheetmap/internal/runlog"
)

var (
	importProject    int
	importSheet      string
	importMapping    string
	importTaskID     string
	importTaskName   string
	importFileName   string
	importIDStrategy string
	importYes        bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Preview and confirm an import without the editor",
	Long: `Runs the preview/confirm flow headlessly: reads the file, builds the
mapping (inferred, from --mapping, or from explicit column flags), previews
it against the import service, and confirms after approval.

Column flags support fuzzy matching, so --file-name url matches a
column named image_url.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		project := importProject
		if project == 0 {
			project = cfg.ProjectID
		}
		if project == 0 {
			return fmt.Errorf("no project set (use --project or set project_id in config)")
		}

		ctx := context.Background()
		path := args[0]
		rows, resolvedSheet, err := loadRows(ctx, cfg, path, importSheet)
		if err != nil {
			return err
		}

		sheet := grid.Normalize(rows)
		model := mapping.NewModel(sheet.Columns())
		if resolvedSheet != "" {
			model.SheetName = resolvedSheet
		}

		if importMapping != "" {
			saved, err := mapping.LoadConfig(importMapping)
			if err != nil {
				return fmt.Errorf("loading mapping %s: %w", importMapping, err)
			}
			model.ApplySuggestion(saved)
		}
		if err := applyColumnFlags(model, sheet.Columns()); err != nil {
			return err
		}

		records := mapping.BuildRecords(sheet)
		session := importer.NewSession(newClient(cfg), project, model)

		// An incomplete mapping previews as nil so the service suggests one.
		var previewCfg *mapping.Config
		if compiled, err := model.Compile(importSheet, path); err == nil {
			previewCfg = compiled
		}

		preview, err := session.RunPreview(ctx, records, previewCfg)
		if err != nil {
			return err
		}

		fmt.Printf("Preview: %d row(s), %d issue(s)\n", preview.TotalRows, len(preview.Issues))
		for _, issue := range preview.Issues {
			fmt.Printf("  row %d: %s\n", issue.Row, issue.Message)
		}

		final, err := model.Compile(importSheet, path)
		if err != nil {
			return err
		}

		if !importYes {
			fmt.Printf("Import %d row(s) into project %d as sheet %q? [y/N] ", preview.TotalRows, project, final.Sheet)
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		result, err := session.RunConfirm(ctx, records, final)
		if err != nil {
			return err
		}

		if runs, err := runlog.Open(cfg.RunLogPath); err != nil {
			fmt.Fprintf(os.Stderr, "warning: run log unavailable: %v\n", err)
		} else {
			_, err := runs.Record(runlog.Run{
				ProjectID: project,
				Source:    path,
				Sheet:     final.Sheet,
				Inserted:  result.Inserted,
				Skipped:   result.Skipped,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: recording run: %v\n", err)
			}
			runs.Close()
		}

		if jsonOut {
			return outputJSON(result)
		}
		fmt.Printf("Inserted: %d\nSkipped:  %d\n", result.Inserted, result.Skipped)
		for _, e := range result.Errors {
			fmt.Printf("  row %d: %s\n", e.Row, e.Message)
		}
		return nil
	},
}

// applyColumnFlags resolves explicit column flags against the header row and
// writes them into the model.
func applyColumnFlags(model *mapping.Model, columns []string) error {
	if importTaskName != "" {
		col, err := resolveColumn(importTaskName, columns)
		if err != nil {
			return err
		}
		model.TaskNameColumn = col
	}
	if importFileName != "" {
		col, err := resolveColumn(importFileName, columns)
		if err != nil {
			return err
		}
		model.FileNameColumn = col
	}
	if importTaskID != "" {
		col, err := resolveColumn(importTaskID, columns)
		if err != nil {
			return err
		}
		model.TaskIDMode = mapping.ModeColumn
		model.TaskIDColumn = col
	}
	if importIDStrategy != "" {
		if importTaskID != "" {
			return fmt.Errorf("--task-id and --id-strategy are mutually exclusive")
		}
		switch s := mapping.Strategy(importIDStrategy); s {
		case mapping.StrategyUUID, mapping.StrategySeq:
			model.TaskIDMode = mapping.ModeGenerate
			model.TaskIDStrategy = s
		default:
			return fmt.Errorf("unknown id strategy %q (want uuid_v4 or seq_per_batch)", importIDStrategy)
		}
	}
	model.SetColumns(columns)
	return nil
}

func resolveColumn(query string, columns []string) (string, error) {
	for _, col := range columns {
		if strings.EqualFold(col, query) {
			return col, nil
		}
	}

	matches := fuzzy.Find(query, columns)
	if len(matches) == 0 {
		return "", fmt.Errorf("no column found matching: %s", query)
	}
	return matches[0].Str, nil
}

func init() {
	importCmd.Flags().IntVar(&importProject, "project", 0, "target project id (default: config project_id)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "sheet to read (and target sheet name)")
	importCmd.Flags().StringVar(&importMapping, "mapping", "", "saved mapping config (yaml)")
	importCmd.Flags().StringVar(&importTaskID, "task-id", "", "column holding task ids")
	importCmd.Flags().StringVar(&importTaskName, "task-name", "", "column holding task names")
	importCmd.Flags().StringVar(&importFileName, "file-name", "", "column holding file names or urls")
	importCmd.Flags().StringVar(&importIDStrategy, "id-strategy", "", "generate task ids (uuid_v4 or seq_per_batch)")
	importCmd.Flags().BoolVar(&importYes, "yes", false, "confirm without prompting")
	rootCmd.AddCommand(importCmd)
}
