package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Workbook is a read-only handle on a spreadsheet document.
type Workbook interface {
	// SheetNames lists the sheets in workbook order.
	SheetNames() []string
	// ReadSheet returns every row of the named sheet, top to bottom.
	// Rows are not padded: trailing empty cells may be missing.
	ReadSheet(name string) ([][]any, error)
	Close() error
}

// SupportedExtensions lists the file extensions Open can read.
var SupportedExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm", ".xls"}

// IsSupported reports whether Open can read files with extension ext.
// The comparison ignores case.
func IsSupported(ext string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(ext))
}

// Open opens the workbook at path, choosing a reader by file extension.
func Open(path string) (Workbook, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".xls":
		return openXLS(path)
	case IsSupported(ext):
		return openXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// With opens the workbook at path, runs fn against it and closes it on
// every exit path. A panic raised while decoding the file is returned as
// an error.
func With(path string, fn func(Workbook) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode %s: %v", filepath.Base(path), r)
		}
	}()

	wb, err := Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(wb)
}

// HasSheet reports whether wb contains a sheet named exactly name.
func HasSheet(wb Workbook, name string) bool {
	return slices.Contains(wb.SheetNames(), name)
}

// ListEligible returns the full paths of the files in dir whose extension
// is one of exts, sorted by file name. Subdirectories are not visited and
// Office lock files (~$name.xlsx) are ignored.
func ListEligible(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = true
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "~$") {
			continue
		}
		if allowed[strings.ToLower(filepath.Ext(name))] {
			files = append(files, filepath.Join(dir, name))
		}
	}

	return files, nil
}
