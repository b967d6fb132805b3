package types

import (
	"fmt"
	"strings"
)

// ColumnRequest selects the sheet and header row used to discover columns.
// HeaderRow is 1-based.
type ColumnRequest struct {
	Directory string
	SheetName string
	HeaderRow int
}

// MergeRequest carries every input of a single merge invocation.
type MergeRequest struct {
	Directory  string
	SheetName  string
	HeaderRow  int
	Columns    []string
	OutputPath string
}

// Discovery returns the part of the request that identifies the sheet layout.
func (r MergeRequest) Discovery() ColumnRequest {
	return ColumnRequest{
		Directory: r.Directory,
		SheetName: r.SheetName,
		HeaderRow: r.HeaderRow,
	}
}

// Table is one sheet read from its header row down.
// Cell values are string, float64, bool or nil.
type Table struct {
	Headers []string
	Rows    [][]any
}

// Index returns the position of the first header named name, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

type SkipKind int

const (
	SkipSheetMissing SkipKind = iota + 1
	SkipColumnsMissing
	SkipUnreadable
)

func (k SkipKind) String() string {
	switch k {
	case SkipSheetMissing:
		return "sheet_missing"
	case SkipColumnsMissing:
		return "columns_missing"
	case SkipUnreadable:
		return "unreadable"
	}
	return "unknown"
}

// SkipWarning records a file that contributed no rows to a merge.
type SkipWarning struct {
	File    string
	Kind    SkipKind
	Sheet   string
	Missing []string
	Err     error
}

// SheetCheck is the outcome of checking a folder for a sheet. Unreadable
// is only populated when unreadable files are being skipped.
type SheetCheck struct {
	Sheet      string
	Missing    []string
	Unreadable []SkipWarning
}

type MergeResult struct {
	OutputPath  string
	RowsWritten int
	FilesMerged []string
	Skipped     []SkipWarning
}

// Message renders the warning for display to a user.
func (w SkipWarning) Message() string {
	switch w.Kind {
	case SkipSheetMissing:
		return fmt.Sprintf("%s: sheet %q not found, file skipped", w.File, w.Sheet)
	case SkipColumnsMissing:
		return fmt.Sprintf("%s: missing columns %s, file skipped", w.File, strings.Join(w.Missing, ", "))
	case SkipUnreadable:
		return fmt.Sprintf("%s: could not be read (%v), file skipped", w.File, w.Err)
	}
	return fmt.Sprintf("%s: file skipped", w.File)
}
