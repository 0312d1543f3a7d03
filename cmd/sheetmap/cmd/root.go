package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/annotlab/sheetmap/internal/config"
	"github.com/annotlab/sheetmap/internal/importer"
	"github.com/annotlab/sheetmap/internal/workbook"
)

var (
	cfgFile string
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "sheetmap",
	Short: "Spreadsheet editor and column mapper for task imports",
	Long: `sheetmap opens tabular task batches (xlsx, csv, or json via the import
service) in an interactive grid editor, maps columns onto task fields, and
drives the preview/confirm import flow against the import service.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/sheetmap/config.json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
}

func newClient(cfg *config.Config) *importer.Client {
	return importer.NewClient(cfg.ServiceURL, cfg.APIToken)
}

// loadRows reads a tabular source into raw rows. xlsx and csv are read
// locally; json is converted by the import service first.
func loadRows(ctx context.Context, cfg *config.Config, path, sheet string) ([][]string, string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		name, rows, err := workbook.ReadFile(path, sheet)
		return rows, name, err

	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			return nil, "", fmt.Errorf("parsing %s: %w", path, err)
		}
		return rows, "", nil

	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", err
		}
		client := newClient(cfg)
		result, err := client.ConvertJSON(ctx, filepath.Base(path), data, "", sheet)
		if err != nil {
			return nil, "", err
		}
		contents, err := client.DownloadWorkbook(ctx, result.ExcelUploadID)
		if err != nil {
			return nil, "", err
		}
		name, rows, err := workbook.Read(contents, result.SheetName)
		return rows, name, err

	default:
		return nil, "", fmt.Errorf("unsupported file type %q (want .xlsx, .csv, or .json)", filepath.Ext(path))
	}
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
