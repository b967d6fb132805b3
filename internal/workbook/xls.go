package workbook

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/extrame/xls"
)

// xlsBook reads legacy BIFF workbooks. All cell values come back as text.
type xlsBook struct {
	wb     *xls.WorkBook
	closer io.Closer
}

func openXLS(path string) (*xlsBook, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	wb, err := xls.OpenReader(fh, "utf-8")
	if err == nil && wb == nil {
		err = errors.New("no workbook stream found")
	}
	if err != nil {
		fh.Close()
		return nil, err
	}
	return &xlsBook{wb: wb, closer: fh}, nil
}

func (b *xlsBook) SheetNames() []string {
	names := make([]string, 0, b.wb.NumSheets())
	for i := 0; i < b.wb.NumSheets(); i++ {
		if sheet := b.wb.GetSheet(i); sheet != nil {
			names = append(names, sheet.Name)
		}
	}
	return names
}

func (b *xlsBook) ReadSheet(name string) ([][]any, error) {
	for i := 0; i < b.wb.NumSheets(); i++ {
		sheet := b.wb.GetSheet(i)
		if sheet == nil || sheet.Name != name {
			continue
		}

		rows := make([][]any, 0, int(sheet.MaxRow)+1)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheetRow(sheet, r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}

			values := make([]any, 0, row.LastCol()+1)
			for c := 0; c <= row.LastCol(); c++ {
				if text := row.Col(c); text != "" {
					values = append(values, text)
				} else {
					values = append(values, nil)
				}
			}
			rows = append(rows, trimTrailingNil(values))
		}
		return rows, nil
	}

	return nil, fmt.Errorf("sheet %s does not exist", name)
}

func (b *xlsBook) Close() error {
	return b.closer.Close()
}

// sheetRow returns row r of sheet, or nil when the sheet has no record
// for it. WorkSheet.Row panics on absent rows.
func sheetRow(sheet *xls.WorkSheet, r int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(r)
}

func trimTrailingNil(values []any) []any {
	n := len(values)
	for n > 0 && values[n-1] == nil {
		n--
	}
	return values[:n]
}
