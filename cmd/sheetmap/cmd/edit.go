package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/annotlab/sheetmap/internal/config"
	"github.com/annotlab/sheetmap/internal/grid"
	"github.com/annotlab/sheetmap/internal/importer"
	"github.com/annotlab/sheetmap/internal/mapping"
	"github.com/annotlab/sheetmap/internal/runlog"
	"github.com/annotlab/sheetmap/internal/tui"
)

var (
	editSheet   string
	editProject int
	editOutput  string
)

var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Open a task batch in the grid editor",
	Long: `Opens an xlsx, csv, or json file in the interactive grid editor.

The editor supports cell editing with undo/redo, wrap-around find/replace,
a mapping panel for assigning columns to task fields, and previewing and
confirming the import against the configured project.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		project := editProject
		if project == 0 {
			project = cfg.ProjectID
		}
		if project == 0 {
			return fmt.Errorf("no project set (use --project or set project_id in config)")
		}

		path := args[0]
		rows, resolvedSheet, err := loadRows(context.Background(), cfg, path, editSheet)
		if err != nil {
			return err
		}

		store := grid.NewStore()
		store.Load(rows)
		model := mapping.NewModel(store.Columns())
		if resolvedSheet != "" {
			model.SheetName = resolvedSheet
		}
		session := importer.NewSession(newClient(cfg), project, model)

		runs, err := runlog.Open(cfg.RunLogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: run log unavailable: %v\n", err)
			runs = nil
		} else {
			defer runs.Close()
		}

		return tui.Run(tui.Options{
			Store:         store,
			Model:         model,
			Session:       session,
			Source:        path,
			SheetOverride: editSheet,
			SavePath:      editOutput,
			Runs:          runs,
		})
	},
}

func init() {
	editCmd.Flags().StringVar(&editSheet, "sheet", "", "sheet to open (and target sheet name)")
	editCmd.Flags().IntVar(&editProject, "project", 0, "target project id (default: config project_id)")
	editCmd.Flags().StringVar(&editOutput, "output", "", "path for saving the edited grid as a workbook")
	rootCmd.AddCommand(editCmd)
}
