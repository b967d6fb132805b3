package cli

import (
	"fmt"

	"github.com/nconklindev/sheetmerge/internal/types"

	"github.com/spf13/cobra"
)

func newColumnsCommand(a *app) *cobra.Command {
	var (
		dir       string
		sheet     string
		headerRow string
	)

	cmd := &cobra.Command{
		Use:   "columns",
		Short: "List the columns of a sheet, read from the first workbook in a folder",
		Example: `  sheetmerge columns -d ./reports -s Data
  sheetmerge columns -d ./reports -s Data -r 3 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := a.headerRow(headerRow)
			if err != nil {
				return err
			}

			cols, err := a.newMerger().DiscoverColumns(types.ColumnRequest{
				Directory: dir,
				SheetName: sheet,
				HeaderRow: row,
			})
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return emitJSON(cmd.OutOrStdout(), cols)
			}
			for _, col := range cols {
				fmt.Fprintln(cmd.OutOrStdout(), col)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Folder containing the workbooks")
	cmd.Flags().StringVarP(&sheet, "sheet", "s", "", "Sheet name to read")
	cmd.Flags().StringVarP(&headerRow, "header-row", "r", "", "Row holding the column names, counting from 1 (default from config)")

	return cmd
}
