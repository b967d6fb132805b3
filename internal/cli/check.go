package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type checkOutput struct {
	Sheet           string          `json:"sheet"`
	MissingFiles    []string        `json:"missing_files"`
	UnreadableFiles []warningOutput `json:"unreadable_files,omitempty"`
}

func newCheckCommand(a *app) *cobra.Command {
	var (
		dir            string
		sheet          string
		skipUnreadable bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report workbooks in a folder that lack a sheet",
		Long: `Opens every workbook in the folder and lists those that do not contain
the sheet. Such files are skipped by merge; this command only warns.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("skip-unreadable") {
				a.cfg.Merge.SkipUnreadable = skipUnreadable
			}

			check, err := a.newMerger().CheckSheets(dir, sheet)
			if err != nil {
				return err
			}

			if a.jsonOutput {
				out := checkOutput{Sheet: check.Sheet, MissingFiles: check.Missing}
				for _, w := range check.Unreadable {
					out.UnreadableFiles = append(out.UnreadableFiles, warningOutput{
						File:    w.File,
						Reason:  w.Kind.String(),
						Message: w.Message(),
					})
				}
				return emitJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			for _, skip := range check.Unreadable {
				fmt.Fprintf(w, "Warning: %s\n", skip.Message())
			}
			if len(check.Missing) == 0 {
				fmt.Fprintf(w, "Sheet %q found in all files.\n", sheet)
				return nil
			}
			fmt.Fprintf(w, "Warning: sheet %q is missing in: %s.\nThese files will be skipped when merging.\n",
				sheet, strings.Join(check.Missing, ", "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Folder containing the workbooks")
	cmd.Flags().StringVarP(&sheet, "sheet", "s", "", "Sheet name to look for")
	cmd.Flags().BoolVar(&skipUnreadable, "skip-unreadable", false, "Report files that cannot be read instead of failing")

	return cmd
}
