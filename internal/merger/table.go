package merger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nconklindev/sheetmerge/internal/types"
	"github.com/nconklindev/sheetmerge/internal/workbook"
)

// readTable reads sheet from wb, using the row at headerIdx (0-based) as
// column names. Blank rows below the header are dropped and every data
// row is padded or cut to the header width. clipped counts the non-blank
// cells that were cut because they sit right of the last named column.
func readTable(wb workbook.Workbook, sheet string, headerIdx int) (table *types.Table, clipped int, err error) {
	rows, err := wb.ReadSheet(sheet)
	if err != nil {
		return nil, 0, err
	}

	if headerIdx >= len(rows) {
		return &types.Table{}, 0, nil
	}

	table = &types.Table{Headers: headerNames(rows[headerIdx])}

	for _, row := range rows[headerIdx+1:] {
		if len(row) > len(table.Headers) {
			for _, v := range row[len(table.Headers):] {
				if strings.TrimSpace(cellText(v)) != "" {
					clipped++
				}
			}
		}

		values := make([]any, len(table.Headers))
		copy(values, row)
		if isBlank(values) {
			continue
		}
		table.Rows = append(table.Rows, values)
	}

	return table, clipped, nil
}

// headerNames turns a header row into column names. Blank cells become
// "Unnamed: <index>"; trailing blank cells are dropped.
func headerNames(row []any) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(cellText(row[end-1])) == "" {
		end--
	}

	names := make([]string, end)
	for i := 0; i < end; i++ {
		name := cellText(row[i])
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		names[i] = name
	}
	return names
}

func cellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strings.ToUpper(strconv.FormatBool(val))
	default:
		return fmt.Sprint(val)
	}
}

func isBlank(values []any) bool {
	for _, v := range values {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		if v != nil {
			return false
		}
	}
	return true
}

// missingColumns returns the selected columns absent from table, in
// selection order.
func missingColumns(table *types.Table, selected []string) []string {
	var missing []string
	for _, col := range selected {
		if table.Index(col) < 0 {
			missing = append(missing, col)
		}
	}
	return missing
}

// project restricts table to selected, in selection order, and appends
// source to every row.
func project(table *types.Table, selected []string, source string) [][]any {
	indices := make([]int, len(selected))
	for i, col := range selected {
		indices[i] = table.Index(col)
	}

	rows := make([][]any, len(table.Rows))
	for r, row := range table.Rows {
		out := make([]any, len(selected)+1)
		for i, idx := range indices {
			out[i] = row[idx]
		}
		out[len(selected)] = source
		rows[r] = out
	}
	return rows
}
