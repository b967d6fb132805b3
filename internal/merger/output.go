package merger

import (
	"os"
	"path/filepath"

	"github.com/nconklindev/sheetmerge/internal/types"

	"github.com/xuri/excelize/v2"
)

// writeTable saves table as the only sheet of a new workbook at path.
// The workbook is written to a temporary file beside path and renamed
// into place, so a failed write never leaves a partial output behind.
func writeTable(path, sheet string, table *types.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return &IOError{Op: "write", Path: path, Err: err}
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = excelize.Cell{Value: h, StyleID: headerStyle}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return &IOError{Op: "write", Path: path, Err: err}
		}
		if err := sw.SetRow(cell, row); err != nil {
			return &IOError{Op: "write", Path: path, Err: err}
		}
	}

	if err := sw.Flush(); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sheetmerge-*.xlsx")
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &IOError{Op: "write", Path: path, Err: err}
	}

	return nil
}
