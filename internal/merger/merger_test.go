package merger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/sheetmerge/internal/config"
	"github.com/nconklindev/sheetmerge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// writeBook saves a workbook with one sheet per entry of sheets.
func writeBook(t *testing.T, path string, sheets map[string][][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func readOutput(t *testing.T, path string) (string, [][]string) {
	t.Helper()

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 1)
	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	return sheets[0], rows
}

// exampleDir builds the two-file directory used throughout: a.xlsx has
// ID, Name, Amount with three rows and b.xlsx has ID, Name with two.
func exampleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeBook(t, filepath.Join(dir, "a.xlsx"), map[string][][]any{
		"Data": {
			{"ID", "Name", "Amount"},
			{1, "Alice", 10.5},
			{2, "Bob", 20},
			{3, "Carol", 30},
		},
	})
	writeBook(t, filepath.Join(dir, "b.xlsx"), map[string][][]any{
		"Data": {
			{"ID", "Name"},
			{4, "Dave"},
			{5, "Eve"},
		},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	return dir
}

func newTestMerger() *Merger {
	return New(OptionsFromConfig(config.DefaultConfig().Merge), nil)
}

func TestParseHeaderRow(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		wantErr  bool
	}{
		{"One", "1", 1, false},
		{"Padded", " 3 ", 3, false},
		{"Zero", "0", 0, true},
		{"Negative", "-2", 0, true},
		{"Empty", "", 0, true},
		{"Decimal", "1.5", 0, true},
		{"Text", "first", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeaderRow(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidHeaderRow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDefaultOutputPath(t *testing.T) {
	got := DefaultOutputPath(filepath.Join("data", "reports")+string(filepath.Separator), "_merged.xlsx")
	assert.Equal(t, filepath.Join("data", "reports_merged.xlsx"), got)
}

func TestDiscoverColumns(t *testing.T) {
	dir := exampleDir(t)

	cols, err := newTestMerger().DiscoverColumns(types.ColumnRequest{Directory: dir, SheetName: "Data", HeaderRow: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Name", "Amount"}, cols)
}

func TestDiscoverColumns_HeaderRowOffsetAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeBook(t, filepath.Join(dir, "report.xlsx"), map[string][][]any{
		"Data": {
			{"Quarterly report"},
			{},
			{"Region", "Total", nil, "Total", 2024},
			{"North", 1, 2, 3, 4},
		},
	})

	cols, err := newTestMerger().DiscoverColumns(types.ColumnRequest{Directory: dir, SheetName: "Data", HeaderRow: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"Region", "Total", "Unnamed: 2", "Total", "2024"}, cols)
}

func TestDiscoverColumns_HeaderBeyondSheet(t *testing.T) {
	dir := exampleDir(t)

	cols, err := newTestMerger().DiscoverColumns(types.ColumnRequest{Directory: dir, SheetName: "Data", HeaderRow: 50})
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestDiscoverColumns_SheetMissingInSample(t *testing.T) {
	dir := exampleDir(t)

	_, err := newTestMerger().DiscoverColumns(types.ColumnRequest{Directory: dir, SheetName: "Summary", HeaderRow: 1})
	require.ErrorIs(t, err, ErrSheetMissing)

	var sheetErr *SheetMissingError
	require.True(t, errors.As(err, &sheetErr))
	assert.Equal(t, "a.xlsx", sheetErr.File)
	assert.Equal(t, "Summary", sheetErr.Sheet)
}

func TestDiscoverColumns_InvalidInputs(t *testing.T) {
	dir := exampleDir(t)
	emptyDir := t.TempDir()

	tests := []struct {
		name string
		req  types.ColumnRequest
		want error
	}{
		{"No directory", types.ColumnRequest{SheetName: "Data", HeaderRow: 1}, ErrInputMissing},
		{"No sheet", types.ColumnRequest{Directory: dir, HeaderRow: 1}, ErrInputMissing},
		{"Zero header", types.ColumnRequest{Directory: dir, SheetName: "Data"}, ErrInvalidHeaderRow},
		{"Nonexistent directory", types.ColumnRequest{Directory: filepath.Join(dir, "nope"), SheetName: "Data", HeaderRow: 1}, ErrInputMissing},
		{"No spreadsheets", types.ColumnRequest{Directory: emptyDir, SheetName: "Data", HeaderRow: 1}, ErrNoFilesFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestMerger().DiscoverColumns(tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDiscoverColumns_CorruptSample(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.xlsx"), []byte("garbage"), 0o644))

	_, err := newTestMerger().DiscoverColumns(types.ColumnRequest{Directory: dir, SheetName: "Data", HeaderRow: 1})
	require.ErrorIs(t, err, ErrIOFailure)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, filepath.Join(dir, "a.xlsx"), ioErr.Path)
}

func TestCheckSheetPresence(t *testing.T) {
	dir := exampleDir(t)
	writeBook(t, filepath.Join(dir, "c.xlsx"), map[string][][]any{
		"Other": {{"ID"}, {1}},
	})

	m := newTestMerger()

	missing, err := m.CheckSheetPresence(dir, "Data")
	require.NoError(t, err)
	assert.Equal(t, []string{"c.xlsx"}, missing)

	missing, err = m.CheckSheetPresence(dir, "Other")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.xlsx", "b.xlsx"}, missing)

	_, err = m.CheckSheetPresence(dir, "")
	assert.ErrorIs(t, err, ErrInputMissing)
}

func TestCheckSheetPresence_AllPresent(t *testing.T) {
	missing, err := newTestMerger().CheckSheetPresence(exampleDir(t), "Data")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestMerge_SharedColumns(t *testing.T) {
	dir := exampleDir(t)
	out := filepath.Join(t.TempDir(), "merged.xlsx")

	result, err := newTestMerger().Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"ID", "Name"},
		OutputPath: out,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, result.RowsWritten)
	assert.Equal(t, []string{"a.xlsx", "b.xlsx"}, result.FilesMerged)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, out, result.OutputPath)

	sheet, rows := readOutput(t, out)
	assert.Equal(t, "Sheet1", sheet)
	assert.Equal(t, [][]string{
		{"ID", "Name", "Source"},
		{"1", "Alice", "a.xlsx"},
		{"2", "Bob", "a.xlsx"},
		{"3", "Carol", "a.xlsx"},
		{"4", "Dave", "b.xlsx"},
		{"5", "Eve", "b.xlsx"},
	}, rows)
}

func TestMerge_SkipsFileMissingSelectedColumn(t *testing.T) {
	dir := exampleDir(t)
	out := filepath.Join(t.TempDir(), "merged.xlsx")

	result, err := newTestMerger().Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"ID", "Amount"},
		OutputPath: out,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.RowsWritten)
	assert.Equal(t, []string{"a.xlsx"}, result.FilesMerged)
	require.Len(t, result.Skipped, 1)

	skip := result.Skipped[0]
	assert.Equal(t, "b.xlsx", skip.File)
	assert.Equal(t, types.SkipColumnsMissing, skip.Kind)
	assert.Equal(t, []string{"Amount"}, skip.Missing)
	assert.ErrorIs(t, skip.Err, ErrColumnsMissing)

	_, rows := readOutput(t, out)
	assert.Equal(t, [][]string{
		{"ID", "Amount", "Source"},
		{"1", "10.5", "a.xlsx"},
		{"2", "20", "a.xlsx"},
		{"3", "30", "a.xlsx"},
	}, rows)
}

func TestMerge_ColumnOrderFollowsSelection(t *testing.T) {
	dir := exampleDir(t)
	out := filepath.Join(t.TempDir(), "merged.xlsx")

	_, err := newTestMerger().Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"Name", "ID"},
		OutputPath: out,
	}, nil)
	require.NoError(t, err)

	_, rows := readOutput(t, out)
	assert.Equal(t, []string{"Name", "ID", "Source"}, rows[0])
	assert.Equal(t, []string{"Alice", "1", "a.xlsx"}, rows[1])
}

func TestMerge_SheetMissingIsSkipped(t *testing.T) {
	dir := exampleDir(t)
	writeBook(t, filepath.Join(dir, "c.xlsx"), map[string][][]any{
		"Other": {{"ID", "Name"}, {9, "Zed"}},
	})
	out := filepath.Join(t.TempDir(), "merged.xlsx")

	result, err := newTestMerger().Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"ID", "Name"},
		OutputPath: out,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, result.RowsWritten)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "c.xlsx", result.Skipped[0].File)
	assert.Equal(t, types.SkipSheetMissing, result.Skipped[0].Kind)
	assert.ErrorIs(t, result.Skipped[0].Err, ErrSheetMissing)
}

func TestMerge_MultipleMissingColumnsYieldOneWarning(t *testing.T) {
	dir := exampleDir(t)
	writeBook(t, filepath.Join(dir, "c.xlsx"), map[string][][]any{
		"Data": {{"ID"}, {6}},
	})
	out := filepath.Join(t.TempDir(), "merged.xlsx")

	result, err := newTestMerger().Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"ID", "Name", "Amount"},
		OutputPath: out,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.RowsWritten)

	require.Len(t, result.Skipped, 2)
	assert.Equal(t, "b.xlsx", result.Skipped[0].File)
	assert.Equal(t, []string{"Amount"}, result.Skipped[0].Missing)
	assert.Equal(t, "c.xlsx", result.Skipped[1].File)
	assert.Equal(t, []string{"Name", "Amount"}, result.Skipped[1].Missing)
}

func TestMerge_AllFilesSkippedIsEmptyResult(t *testing.T) {
	dir := exampleDir(t)
	out := filepath.Join(t.TempDir(), "merged.xlsx")

	result, err := newTestMerger().Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"Region", "ID"},
		OutputPath: out,
	}, nil)
	require.ErrorIs(t, err, ErrEmptyResult)
	assert.Nil(t, result)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestMerge_RowCountAndProvenance(t *testing.T) {
	dir := t.TempDir()
	counts := map[string]int{"one.xlsx": 4, "three.xlsx": 1, "two.xlsx": 7}
	for name, n := range counts {
		rows := [][]any{{"Key", "Value"}}
		for i := 0; i < n; i++ {
			rows = append(rows, []any{name, i})
		}
		writeBook(t, filepath.Join(dir, name), map[string][][]any{"Data": rows})
	}
	out := filepath.Join(t.TempDir(), "merged.xlsx")

	result, err := newTestMerger().Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"Key", "Value"},
		OutputPath: out,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 12, result.RowsWritten)
	assert.Equal(t, []string{"one.xlsx", "three.xlsx", "two.xlsx"}, result.FilesMerged)

	_, rows := readOutput(t, out)
	require.Len(t, rows, 13)

	lastSeen := -1
	order := map[string]int{"one.xlsx": 0, "three.xlsx": 1, "two.xlsx": 2}
	for _, row := range rows[1:] {
		assert.Equal(t, row[0], row[2], "provenance must match the file the row came from")
		pos := order[row[2]]
		assert.GreaterOrEqual(t, pos, lastSeen, "files must not interleave")
		lastSeen = pos
	}
}

func TestMerge_IsRepeatable(t *testing.T) {
	dir := exampleDir(t)
	outDir := t.TempDir()
	m := newTestMerger()

	req := types.MergeRequest{
		Directory: dir,
		SheetName: "Data",
		HeaderRow: 1,
		Columns:   []string{"ID", "Name"},
	}

	req.OutputPath = filepath.Join(outDir, "first.xlsx")
	_, err := m.Merge(req, nil)
	require.NoError(t, err)

	req.OutputPath = filepath.Join(outDir, "second.xlsx")
	_, err = m.Merge(req, nil)
	require.NoError(t, err)

	_, first := readOutput(t, filepath.Join(outDir, "first.xlsx"))
	_, second := readOutput(t, filepath.Join(outDir, "second.xlsx"))
	assert.Equal(t, first, second)
}

func TestMerge_NoFilesFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.csv"), []byte("ID\n1\n"), 0o644))
	out := filepath.Join(t.TempDir(), "merged.xlsx")

	_, err := newTestMerger().Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"ID"},
		OutputPath: out,
	}, nil)
	require.ErrorIs(t, err, ErrNoFilesFound)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestMerge_InvalidRequests(t *testing.T) {
	dir := exampleDir(t)
	valid := types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"ID"},
		OutputPath: filepath.Join(t.TempDir(), "out.xlsx"),
	}

	tests := []struct {
		name   string
		mutate func(*types.MergeRequest)
		want   error
	}{
		{"No directory", func(r *types.MergeRequest) { r.Directory = "" }, ErrInputMissing},
		{"Blank sheet", func(r *types.MergeRequest) { r.SheetName = "  " }, ErrInputMissing},
		{"Negative header", func(r *types.MergeRequest) { r.HeaderRow = -1 }, ErrInvalidHeaderRow},
		{"No columns", func(r *types.MergeRequest) { r.Columns = nil }, ErrInputMissing},
		{"No output", func(r *types.MergeRequest) { r.OutputPath = "" }, ErrInputMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			req.Columns = append([]string(nil), valid.Columns...)
			tt.mutate(&req)
			_, err := newTestMerger().Merge(req, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMerge_UnreadableFileAbortsByDefault(t *testing.T) {
	dir := exampleDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.xlsx"), []byte("not a zip"), 0o644))
	out := filepath.Join(t.TempDir(), "merged.xlsx")

	_, err := newTestMerger().Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"ID"},
		OutputPath: out,
	}, nil)
	require.ErrorIs(t, err, ErrIOFailure)
	assert.Contains(t, err.Error(), "c.xlsx")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output after a fatal error")

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files left behind")
}

func TestMerge_UnreadableFileSkippedWhenConfigured(t *testing.T) {
	dir := exampleDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.xlsx"), []byte("not a zip"), 0o644))
	out := filepath.Join(t.TempDir(), "merged.xlsx")

	opts := OptionsFromConfig(config.DefaultConfig().Merge)
	opts.SkipUnreadable = true

	result, err := New(opts, nil).Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"ID"},
		OutputPath: out,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, result.RowsWritten)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "c.xlsx", result.Skipped[0].File)
	assert.Equal(t, types.SkipUnreadable, result.Skipped[0].Kind)
	assert.ErrorIs(t, result.Skipped[0].Err, ErrIOFailure)
}

func TestMerge_OutputInsideSourceDirIsNotReingested(t *testing.T) {
	dir := exampleDir(t)
	out := filepath.Join(dir, "merged.xlsx")

	m := newTestMerger()
	req := types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"ID", "Name"},
		OutputPath: out,
	}

	_, err := m.Merge(req, nil)
	require.NoError(t, err)

	result, err := m.Merge(req, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, result.RowsWritten)
	assert.Equal(t, []string{"a.xlsx", "b.xlsx"}, result.FilesMerged)
}

func TestMerge_AppendsExtensionAndHonoursOptions(t *testing.T) {
	dir := exampleDir(t)
	out := filepath.Join(t.TempDir(), "combined")

	opts := OptionsFromConfig(config.DefaultConfig().Merge)
	opts.ProvenanceColumn = "Источник"
	opts.OutputSheet = "Merged"

	result, err := New(opts, nil).Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"Name"},
		OutputPath: out,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, out+".xlsx", result.OutputPath)

	sheet, rows := readOutput(t, out+".xlsx")
	assert.Equal(t, "Merged", sheet)
	assert.Equal(t, []string{"Name", "Источник"}, rows[0])
}

func TestMerge_HeaderOffsetAndBlankRows(t *testing.T) {
	dir := t.TempDir()
	writeBook(t, filepath.Join(dir, "report.xlsx"), map[string][][]any{
		"Data": {
			{"Export 2024"},
			{"ID", "Name"},
			{1, "Alice"},
			{},
			{2, "Bob"},
			{nil, nil, "stray"},
		},
	})
	out := filepath.Join(t.TempDir(), "merged.xlsx")

	result, err := newTestMerger().Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  2,
		Columns:    []string{"ID", "Name"},
		OutputPath: out,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowsWritten)

	_, rows := readOutput(t, out)
	assert.Equal(t, [][]string{
		{"ID", "Name", "Source"},
		{"1", "Alice", "report.xlsx"},
		{"2", "Bob", "report.xlsx"},
	}, rows)
}

func TestMerge_ReportsProgress(t *testing.T) {
	dir := exampleDir(t)
	progress := make(chan float64, 10)

	_, err := newTestMerger().Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"ID"},
		OutputPath: filepath.Join(t.TempDir(), "merged.xlsx"),
	}, progress)
	require.NoError(t, err)
	close(progress)

	var got []float64
	for p := range progress {
		got = append(got, p)
	}
	assert.Equal(t, []float64{0.5, 1}, got)
}

func skippingMerger() *Merger {
	opts := OptionsFromConfig(config.DefaultConfig().Merge)
	opts.SkipUnreadable = true
	return New(opts, nil)
}

// copyLegacyBook places the checked-in BIFF workbook in dir. Its Data
// sheet holds ID, Name, Amount for Alice, Bob and Carol.
func copyLegacyBook(t *testing.T, dir string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "workbook", "testdata", "legacy.xls"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legacy.xls"), data, 0o644))
}

func TestCheckSheets_UnreadableFollowsPolicy(t *testing.T) {
	dir := exampleDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "z.xlsx"), []byte("junk"), 0o644))

	_, err := newTestMerger().CheckSheets(dir, "Data")
	require.ErrorIs(t, err, ErrIOFailure)

	_, err = newTestMerger().CheckSheetPresence(dir, "Data")
	require.ErrorIs(t, err, ErrIOFailure)

	check, err := skippingMerger().CheckSheets(dir, "Data")
	require.NoError(t, err)
	assert.Equal(t, "Data", check.Sheet)
	assert.Empty(t, check.Missing)
	require.Len(t, check.Unreadable, 1)
	assert.Equal(t, "z.xlsx", check.Unreadable[0].File)
	assert.Equal(t, types.SkipUnreadable, check.Unreadable[0].Kind)
	assert.ErrorIs(t, check.Unreadable[0].Err, ErrIOFailure)

	missing, err := skippingMerger().CheckSheetPresence(dir, "Data")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestDiscoverColumns_SkipsUnreadableSample(t *testing.T) {
	dir := exampleDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.xlsx"), []byte("junk"), 0o644))
	req := types.ColumnRequest{Directory: dir, SheetName: "Data", HeaderRow: 1}

	_, err := newTestMerger().DiscoverColumns(req)
	require.ErrorIs(t, err, ErrIOFailure)

	cols, err := skippingMerger().DiscoverColumns(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Name", "Amount"}, cols)
}

func TestDiscoverColumns_AllSamplesUnreadable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.xlsx"), []byte("junk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.xlsx"), []byte("junk"), 0o644))

	_, err := skippingMerger().DiscoverColumns(types.ColumnRequest{Directory: dir, SheetName: "Data", HeaderRow: 1})
	require.ErrorIs(t, err, ErrIOFailure)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, filepath.Join(dir, "b.xlsx"), ioErr.Path)
}

func TestMerge_LegacyXLSAlongsideXLSX(t *testing.T) {
	dir := t.TempDir()
	writeBook(t, filepath.Join(dir, "a.xlsx"), map[string][][]any{
		"Data": {
			{"ID", "Name", "Amount"},
			{7, "Zoe", 1.25},
		},
	})
	copyLegacyBook(t, dir)
	out := filepath.Join(t.TempDir(), "merged.xlsx")

	cols, err := newTestMerger().DiscoverColumns(types.ColumnRequest{Directory: dir, SheetName: "Data", HeaderRow: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Name", "Amount"}, cols)

	result, err := newTestMerger().Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"Name", "Amount"},
		OutputPath: out,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, result.RowsWritten)
	assert.Equal(t, []string{"a.xlsx", "legacy.xls"}, result.FilesMerged)
	assert.Empty(t, result.Skipped)

	_, rows := readOutput(t, out)
	assert.Equal(t, [][]string{
		{"Name", "Amount", "Source"},
		{"Zoe", "1.25", "a.xlsx"},
		{"Alice", "10.5", "legacy.xls"},
		{"Bob", "20", "legacy.xls"},
		{"Carol", "", "legacy.xls"},
	}, rows)
}

func TestMerge_LogsCellsOutsideNamedColumns(t *testing.T) {
	dir := t.TempDir()
	writeBook(t, filepath.Join(dir, "a.xlsx"), map[string][][]any{
		"Data": {
			{"ID", "Name"},
			{1, "Alice", "stray"},
			{nil, nil, "orphan"},
		},
	})
	out := filepath.Join(t.TempDir(), "merged.xlsx")

	core, logs := observer.New(zap.DebugLevel)
	m := New(OptionsFromConfig(config.DefaultConfig().Merge), zap.New(core))

	result, err := m.Merge(types.MergeRequest{
		Directory:  dir,
		SheetName:  "Data",
		HeaderRow:  1,
		Columns:    []string{"ID"},
		OutputPath: out,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RowsWritten)

	entries := logs.FilterMessage("Ignoring cells right of the last named column").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a.xlsx", entries[0].ContextMap()["file"])
	assert.Equal(t, int64(2), entries[0].ContextMap()["cells"])
}
