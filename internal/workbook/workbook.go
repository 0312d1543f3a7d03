// Package workbook converts between xlsx workbooks and the editor's cell
// matrix. Given bytes, produce a 2D array of cell values; given a sheet,
// produce a workbook.
package workbook

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Read parses workbook bytes and returns the resolved sheet name plus its
// cell matrix. An empty sheet argument selects the first sheet. Rows come
// back ragged exactly as stored; callers normalize them.
func Read(data []byte, sheet string) (string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()
	return readSheet(f, sheet)
}

// ReadFile is Read over a file on disk.
func ReadFile(path, sheet string) (string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()
	return readSheet(f, sheet)
}

func readSheet(f *excelize.File, sheet string) (string, [][]string, error) {
	names := f.GetSheetList()
	if len(names) == 0 {
		return "", nil, fmt.Errorf("workbook has no sheets")
	}

	selected := names[0]
	if sheet != "" {
		found := false
		for _, name := range names {
			if name == sheet {
				selected = name
				found = true
				break
			}
		}
		if !found {
			return "", nil, fmt.Errorf("sheet %q not found in workbook", sheet)
		}
	}

	rows, err := f.GetRows(selected)
	if err != nil {
		return "", nil, fmt.Errorf("reading sheet %q: %w", selected, err)
	}
	return selected, rows, nil
}

// Write saves a cell matrix as a single-sheet workbook at path.
func Write(path, sheet string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}
