package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/nconklindev/sheetmerge/internal/merger"
	"github.com/nconklindev/sheetmerge/internal/types"

	"github.com/spf13/cobra"
)

type mergeOutput struct {
	Success     bool            `json:"success"`
	OutputFile  string          `json:"output_file,omitempty"`
	RowCount    int             `json:"row_count,omitempty"`
	MergedFiles []string        `json:"merged_files,omitempty"`
	Warnings    []warningOutput `json:"warnings,omitempty"`
	Error       string          `json:"error,omitempty"`
	Duration    string          `json:"duration"`
}

type warningOutput struct {
	File    string   `json:"file"`
	Reason  string   `json:"reason"`
	Missing []string `json:"missing,omitempty"`
	Message string   `json:"message"`
}

func newMergeCommand(a *app) *cobra.Command {
	var (
		req            types.MergeRequest
		headerRow      string
		skipUnreadable bool
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge selected columns of a sheet from every workbook in a folder",
		Long: `Reads the sheet from every workbook in the folder, keeps the selected
columns, appends a column naming the source file and writes the rows to a
single new workbook. Files missing the sheet or a selected column are
skipped with a warning. Nothing is written if no rows remain.`,
		Example: `  sheetmerge merge -d ./reports -s Data -c ID -c Name -o merged.xlsx
  sheetmerge merge -d ./reports -s Data -r 2 -c ID --skip-unreadable --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()

			if cmd.Flags().Changed("skip-unreadable") {
				a.cfg.Merge.SkipUnreadable = skipUnreadable
			}

			row, err := a.headerRow(headerRow)
			if err != nil {
				return a.reportMergeError(cmd, err, start)
			}
			req.HeaderRow = row

			if req.OutputPath == "" && req.Directory != "" {
				req.OutputPath = merger.DefaultOutputPath(req.Directory, a.cfg.Output.Suffix)
			}

			result, err := a.newMerger().Merge(req, nil)
			if err != nil {
				return a.reportMergeError(cmd, err, start)
			}

			if a.jsonOutput {
				out := mergeOutput{
					Success:     true,
					OutputFile:  result.OutputPath,
					RowCount:    result.RowsWritten,
					MergedFiles: result.FilesMerged,
					Duration:    time.Since(start).String(),
				}
				for _, w := range result.Skipped {
					out.Warnings = append(out.Warnings, warningOutput{
						File:    w.File,
						Reason:  w.Kind.String(),
						Missing: w.Missing,
						Message: w.Message(),
					})
				}
				return emitJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			for _, skip := range result.Skipped {
				fmt.Fprintf(w, "Warning: %s\n", skip.Message())
			}
			fmt.Fprintf(w, "Merged %d rows from %d file(s): %s\n",
				result.RowsWritten, len(result.FilesMerged), strings.Join(result.FilesMerged, ", "))
			fmt.Fprintf(w, "Saved to %s\n", result.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Directory, "dir", "d", "", "Folder containing the workbooks")
	cmd.Flags().StringVarP(&req.SheetName, "sheet", "s", "", "Sheet name to merge")
	cmd.Flags().StringVarP(&headerRow, "header-row", "r", "", "Row holding the column names, counting from 1 (default from config)")
	cmd.Flags().StringArrayVarP(&req.Columns, "column", "c", nil, "Column to keep; repeat for several, in output order")
	cmd.Flags().StringVarP(&req.OutputPath, "out", "o", "", "Output workbook (default: <dir>_merged.xlsx next to the folder)")
	cmd.Flags().BoolVar(&skipUnreadable, "skip-unreadable", false, "Skip files that cannot be read instead of aborting")

	return cmd
}

func (a *app) reportMergeError(cmd *cobra.Command, err error, start time.Time) error {
	if a.jsonOutput {
		if jerr := emitJSON(cmd.OutOrStdout(), mergeOutput{
			Success:  false,
			Error:    err.Error(),
			Duration: time.Since(start).String(),
		}); jerr != nil {
			return jerr
		}
	}
	return err
}
