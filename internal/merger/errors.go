package merger

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrInputMissing indicates a required input (directory, sheet name,
	// column selection or output path) was not supplied.
	ErrInputMissing = errors.New("input missing")

	// ErrInvalidHeaderRow indicates the header row is not an integer >= 1.
	ErrInvalidHeaderRow = errors.New("invalid header row")

	// ErrNoFilesFound indicates the directory holds no spreadsheet files.
	ErrNoFilesFound = errors.New("no spreadsheet files found")

	// ErrSheetMissing indicates the requested sheet is absent from a file.
	ErrSheetMissing = errors.New("sheet missing")

	// ErrColumnsMissing indicates selected columns are absent from a file.
	ErrColumnsMissing = errors.New("columns missing")

	// ErrEmptyResult indicates no rows survived the per-file checks.
	ErrEmptyResult = errors.New("no data to merge")

	// ErrIOFailure indicates a file could not be listed, read or written.
	ErrIOFailure = errors.New("i/o failure")
)

// SheetMissingError names the file that lacks the requested sheet.
type SheetMissingError struct {
	File  string
	Sheet string
}

func (e *SheetMissingError) Error() string {
	return fmt.Sprintf("sheet %q not found in %s", e.Sheet, e.File)
}

func (e *SheetMissingError) Is(target error) bool {
	return target == ErrSheetMissing
}

// ColumnsMissingError names the file and the selected columns it lacks.
type ColumnsMissingError struct {
	File    string
	Columns []string
}

func (e *ColumnsMissingError) Error() string {
	return fmt.Sprintf("%s is missing columns: %s", e.File, strings.Join(e.Columns, ", "))
}

func (e *ColumnsMissingError) Is(target error) bool {
	return target == ErrColumnsMissing
}

// IOError wraps a lower-level failure on a file or directory.
type IOError struct {
	Op   string // list, open, read, write
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, filepath.Base(e.Path), e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIOFailure
}

// asIOError leaves classified errors alone and wraps anything else.
func asIOError(op, path string, err error) error {
	var ioErr *IOError
	if errors.As(err, &ioErr) || errors.Is(err, ErrSheetMissing) || errors.Is(err, ErrColumnsMissing) {
		return err
	}
	return &IOError{Op: op, Path: path, Err: err}
}
