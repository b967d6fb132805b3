package workbook

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxBook struct {
	f *excelize.File
}

func openXLSX(path string) (*xlsxBook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &xlsxBook{f: f}, nil
}

func (b *xlsxBook) SheetNames() []string {
	return b.f.GetSheetList()
}

// ReadSheet reads both the displayed and the stored value of each cell so
// that plain numbers and booleans keep their type while formatted values
// (dates, currency) keep the text a user sees.
func (b *xlsxBook) ReadSheet(name string) ([][]any, error) {
	formatted, err := b.f.GetRows(name)
	if err != nil {
		return nil, err
	}
	raw, err := b.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	rows := make([][]any, len(formatted))
	for r, row := range formatted {
		values := make([]any, len(row))
		for c, text := range row {
			stored := text
			if r < len(raw) && c < len(raw[r]) {
				stored = raw[r][c]
			}
			values[c] = b.cellValue(name, c+1, r+1, text, stored)
		}
		rows[r] = values
	}

	return rows, nil
}

func (b *xlsxBook) cellValue(sheet string, col, row int, text, stored string) any {
	if text == "" && stored == "" {
		return nil
	}

	cellRef, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return text
	}
	cellType, err := b.f.GetCellType(sheet, cellRef)
	if err != nil {
		return text
	}

	switch cellType {
	case excelize.CellTypeBool:
		return stored == "1" || strings.EqualFold(stored, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if text != stored {
			return text
		}
		if n, err := strconv.ParseFloat(stored, 64); err == nil {
			return n
		}
	}

	return text
}

func (b *xlsxBook) Close() error {
	return b.f.Close()
}
