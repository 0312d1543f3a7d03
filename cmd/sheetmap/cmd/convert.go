package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/annotlab/sheetmap/internal/config"
)

var (
	convertRecordsPath string
	convertSheet       string
	convertOutput      string
)

var convertCmd = &cobra.Command{
	Use:   "convert <file.json>",
	Short: "Convert a JSON document to a workbook via the import service",
	Long: `Uploads a JSON document to the import service for conversion into an
xlsx workbook. The records path selects where the record array lives inside
the document ("$" for the root, "$.data.items" for a nested array).

With --output the converted workbook is downloaded and written to disk.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		ctx := context.Background()
		client := newClient(cfg)
		result, err := client.ConvertJSON(ctx, filepath.Base(path), data, convertRecordsPath, convertSheet)
		if err != nil {
			return err
		}

		if convertOutput != "" {
			contents, err := client.DownloadWorkbook(ctx, result.ExcelUploadID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(convertOutput, contents, 0644); err != nil {
				return fmt.Errorf("writing workbook: %w", err)
			}
		}

		if jsonOut {
			return outputJSON(result)
		}

		fmt.Printf("Upload:  %s\n", result.ExcelUploadID)
		fmt.Printf("Sheet:   %s\n", result.SheetName)
		fmt.Printf("Rows:    %d\n", result.TotalRows)
		fmt.Printf("Columns: %v\n", result.Columns)
		if convertOutput != "" {
			fmt.Printf("Saved:   %s\n", convertOutput)
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertRecordsPath, "records-path", "", `path to the record array inside the document (default "$")`)
	convertCmd.Flags().StringVar(&convertSheet, "sheet", "", "sheet name for the converted workbook")
	convertCmd.Flags().StringVar(&convertOutput, "output", "", "download the converted workbook to this path")
	rootCmd.AddCommand(convertCmd)
}
