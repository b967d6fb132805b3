package merger

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/nconklindev/sheetmerge/internal/config"
	"github.com/nconklindev/sheetmerge/internal/types"
	"github.com/nconklindev/sheetmerge/internal/workbook"

	"go.uber.org/zap"
)

// Options control file discovery and the shape of the merged output.
type Options struct {
	Extensions       []string
	ProvenanceColumn string
	OutputSheet      string
	SkipUnreadable   bool
}

// OptionsFromConfig maps the merge section of the config file to Options.
func OptionsFromConfig(cfg config.MergeConfig) Options {
	return Options{
		Extensions:       slices.Clone(cfg.Extensions),
		ProvenanceColumn: cfg.ProvenanceColumn,
		OutputSheet:      cfg.OutputSheet,
		SkipUnreadable:   cfg.SkipUnreadable,
	}
}

// Merger discovers columns and merges one sheet across a folder of
// workbooks. It holds no per-run state; each call is independent.
type Merger struct {
	opts   Options
	logger *zap.Logger
}

// New returns a Merger. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{opts: opts, logger: logger}
}

// ParseHeaderRow parses a user-supplied 1-based header row number.
func ParseHeaderRow(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q is not a positive integer", ErrInvalidHeaderRow, s)
	}
	return n, nil
}

// ValidateColumnRequest checks the inputs shared by discovery and merge.
func ValidateColumnRequest(req types.ColumnRequest) error {
	if strings.TrimSpace(req.Directory) == "" {
		return fmt.Errorf("%w: directory", ErrInputMissing)
	}
	if strings.TrimSpace(req.SheetName) == "" {
		return fmt.Errorf("%w: sheet name", ErrInputMissing)
	}
	if req.HeaderRow < 1 {
		return fmt.Errorf("%w: %d is not a positive integer", ErrInvalidHeaderRow, req.HeaderRow)
	}
	return nil
}

// ValidateMergeRequest checks every input of a merge.
func ValidateMergeRequest(req types.MergeRequest) error {
	if err := ValidateColumnRequest(req.Discovery()); err != nil {
		return err
	}
	if len(req.Columns) == 0 {
		return fmt.Errorf("%w: select at least one column", ErrInputMissing)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return fmt.Errorf("%w: output path", ErrInputMissing)
	}
	return nil
}

// DefaultOutputPath suggests an output file next to dir, named after it.
func DefaultOutputPath(dir, suffix string) string {
	dir = filepath.Clean(dir)
	return filepath.Join(filepath.Dir(dir), filepath.Base(dir)+suffix)
}

// DiscoverColumns returns the header names found in the first eligible
// file of the directory, in file order. When unreadable files are being
// skipped, the first file that can be opened is used instead.
func (m *Merger) DiscoverColumns(req types.ColumnRequest) ([]string, error) {
	if err := ValidateColumnRequest(req); err != nil {
		return nil, err
	}

	files, err := m.listFiles(req.Directory, "")
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, sample := range files {
		headers, err := m.sampleHeaders(sample, req)
		if err == nil {
			return headers, nil
		}
		if !m.opts.SkipUnreadable || !errors.Is(err, ErrIOFailure) {
			return nil, err
		}
		m.logger.Warn("Skipping unreadable sample",
			zap.String("file", filepath.Base(sample)),
			zap.Error(err))
		lastErr = err
	}

	return nil, lastErr
}

func (m *Merger) sampleHeaders(sample string, req types.ColumnRequest) ([]string, error) {
	var headers []string
	err := workbook.With(sample, func(wb workbook.Workbook) error {
		if !workbook.HasSheet(wb, req.SheetName) {
			return &SheetMissingError{File: filepath.Base(sample), Sheet: req.SheetName}
		}
		table, clipped, err := readTable(wb, req.SheetName, req.HeaderRow-1)
		if err != nil {
			return &IOError{Op: "read", Path: sample, Err: err}
		}
		logClipped(m.logger, sample, clipped)
		headers = table.Headers
		return nil
	})
	if err != nil {
		return nil, asIOError("open", sample, err)
	}

	m.logger.Debug("Columns discovered",
		zap.String("file", filepath.Base(sample)),
		zap.String("sheet", req.SheetName),
		zap.Int("columns", len(headers)))

	if headers == nil {
		headers = []string{}
	}
	return headers, nil
}

// CheckSheetPresence returns the names of eligible files that lack sheet.
// An empty result means every file has it.
func (m *Merger) CheckSheetPresence(dir, sheet string) ([]string, error) {
	check, err := m.CheckSheets(dir, sheet)
	if err != nil {
		return nil, err
	}
	return check.Missing, nil
}

// CheckSheets opens every eligible file in dir and reports those lacking
// sheet. A file that cannot be opened fails the check unless unreadable
// files are being skipped, in which case it is listed in Unreadable.
func (m *Merger) CheckSheets(dir, sheet string) (*types.SheetCheck, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: directory", ErrInputMissing)
	}
	if strings.TrimSpace(sheet) == "" {
		return nil, fmt.Errorf("%w: sheet name", ErrInputMissing)
	}

	files, err := m.listFiles(dir, "")
	if err != nil {
		return nil, err
	}

	check := &types.SheetCheck{Sheet: sheet, Missing: []string{}}
	for _, path := range files {
		name := filepath.Base(path)
		err := workbook.With(path, func(wb workbook.Workbook) error {
			if !workbook.HasSheet(wb, sheet) {
				check.Missing = append(check.Missing, name)
			}
			return nil
		})
		if err == nil {
			continue
		}

		err = asIOError("open", path, err)
		if !m.opts.SkipUnreadable {
			return nil, err
		}
		m.logger.Warn("Skipping unreadable file", zap.String("file", name), zap.Error(err))
		check.Unreadable = append(check.Unreadable, types.SkipWarning{
			File: name,
			Kind: types.SkipUnreadable,
			Err:  err,
		})
	}

	m.logger.Debug("Sheet presence checked",
		zap.String("sheet", sheet),
		zap.Int("files", len(files)),
		zap.Int("missing", len(check.Missing)),
		zap.Int("unreadable", len(check.Unreadable)))

	return check, nil
}

// Merge combines the selected columns of one sheet across every eligible
// file into a single workbook at req.OutputPath. Files lacking the sheet
// or any selected column are skipped and reported in the result.
// Nothing is written unless at least one row was collected.
//
// If progressChan is non-nil it receives the fraction of files processed.
// Sends never block.
func (m *Merger) Merge(req types.MergeRequest, progressChan chan<- float64) (*types.MergeResult, error) {
	if err := ValidateMergeRequest(req); err != nil {
		return nil, err
	}

	outputPath := normalizeOutputPath(req.OutputPath)
	files, err := m.listFiles(req.Directory, outputPath)
	if err != nil {
		return nil, err
	}

	m.logger.Info("Merging sheet",
		zap.String("directory", req.Directory),
		zap.String("sheet", req.SheetName),
		zap.Int("header_row", req.HeaderRow),
		zap.Strings("columns", req.Columns),
		zap.Int("files", len(files)))

	result := &types.MergeResult{OutputPath: outputPath}
	merged := &types.Table{
		Headers: append(slices.Clone(req.Columns), m.opts.ProvenanceColumn),
	}

	for i, path := range files {
		name := filepath.Base(path)

		rows, skip, err := m.mergeFile(path, req)
		if err != nil {
			if !m.opts.SkipUnreadable {
				m.logger.Error("Merge aborted", zap.String("file", name), zap.Error(err))
				return nil, err
			}
			skip = &types.SkipWarning{File: name, Kind: types.SkipUnreadable, Err: err}
		}

		if skip != nil {
			m.logger.Warn("Skipping file",
				zap.String("file", name),
				zap.Stringer("reason", skip.Kind),
				zap.Strings("missing", skip.Missing),
				zap.Error(skip.Err))
			result.Skipped = append(result.Skipped, *skip)
		} else {
			m.logger.Debug("File merged", zap.String("file", name), zap.Int("rows", len(rows)))
			merged.Rows = append(merged.Rows, rows...)
			result.FilesMerged = append(result.FilesMerged, name)
		}

		reportProgress(progressChan, float64(i+1)/float64(len(files)))
	}

	if len(merged.Rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q yielded no rows in %d file(s)", ErrEmptyResult, req.SheetName, len(files))
	}

	if err := writeTable(outputPath, m.opts.OutputSheet, merged); err != nil {
		return nil, err
	}

	result.RowsWritten = len(merged.Rows)

	m.logger.Info("Merge complete",
		zap.String("output", outputPath),
		zap.Int("rows", result.RowsWritten),
		zap.Int("merged_files", len(result.FilesMerged)),
		zap.Int("skipped_files", len(result.Skipped)))

	return result, nil
}

// mergeFile reads one file. It returns either its projected rows or a skip
// warning; a non-nil error means the file could not be read at all.
func (m *Merger) mergeFile(path string, req types.MergeRequest) ([][]any, *types.SkipWarning, error) {
	name := filepath.Base(path)

	var (
		rows [][]any
		skip *types.SkipWarning
	)
	err := workbook.With(path, func(wb workbook.Workbook) error {
		if !workbook.HasSheet(wb, req.SheetName) {
			skip = &types.SkipWarning{
				File:  name,
				Kind:  types.SkipSheetMissing,
				Sheet: req.SheetName,
				Err:   &SheetMissingError{File: name, Sheet: req.SheetName},
			}
			return nil
		}

		table, clipped, err := readTable(wb, req.SheetName, req.HeaderRow-1)
		if err != nil {
			return &IOError{Op: "read", Path: path, Err: err}
		}
		logClipped(m.logger, path, clipped)

		if missing := missingColumns(table, req.Columns); len(missing) > 0 {
			skip = &types.SkipWarning{
				File:    name,
				Kind:    types.SkipColumnsMissing,
				Sheet:   req.SheetName,
				Missing: missing,
				Err:     &ColumnsMissingError{File: name, Columns: missing},
			}
			return nil
		}

		rows = project(table, req.Columns, name)
		return nil
	})
	if err != nil {
		return nil, nil, asIOError("open", path, err)
	}

	return rows, skip, nil
}

// listFiles returns the eligible files of dir, leaving out exclude.
func (m *Merger) listFiles(dir, exclude string) ([]string, error) {
	files, err := workbook.ListEligible(dir, m.opts.Extensions)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s does not exist", ErrInputMissing, dir)
		}
		return nil, &IOError{Op: "list", Path: dir, Err: err}
	}

	if exclude != "" {
		if excluded, err := filepath.Abs(exclude); err == nil {
			files = slices.DeleteFunc(files, func(path string) bool {
				abs, err := filepath.Abs(path)
				return err == nil && abs == excluded
			})
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFilesFound, dir)
	}
	return files, nil
}

func logClipped(logger *zap.Logger, path string, clipped int) {
	if clipped > 0 {
		logger.Debug("Ignoring cells right of the last named column",
			zap.String("file", filepath.Base(path)),
			zap.Int("cells", clipped))
	}
}

func normalizeOutputPath(path string) string {
	if filepath.Ext(path) == "" {
		return path + ".xlsx"
	}
	return path
}

func reportProgress(progressChan chan<- float64, fraction float64) {
	if progressChan == nil {
		return
	}
	select {
	case progressChan <- fraction:
	default:
	}
}
