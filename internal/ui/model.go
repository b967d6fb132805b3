package ui

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nconklindev/sheetmerge/internal/config"
	"github.com/nconklindev/sheetmerge/internal/merger"
	"github.com/nconklindev/sheetmerge/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateFolderPicker state = iota
	stateForm
	stateLoadingColumns
	stateColumnSelection
	stateOutputPath
	stateProcessing
	stateComplete
	stateError
)

const (
	fieldSheet = iota
	fieldHeaderRow
	fieldCount
)

type Model struct {
	state   state
	merger  *merger.Merger
	cfg     *config.Config
	folder  string
	request types.ColumnRequest

	filepicker  filepicker.Model
	sheetInput  textinput.Model
	headerInput textinput.Model
	outputInput textinput.Model
	focus       int
	formErr     string

	columns      []string
	missingFiles []string
	unreadable   []types.SkipWarning
	selectedCols map[int]bool
	cursor       int

	result *types.MergeResult
	err    error
	width  int
	height int

	progress     progress.Model
	progressChan chan float64
	resultChan   chan mergeResultMsg
}

type columnsLoadedMsg struct {
	columns    []string
	missing    []string
	unreadable []types.SkipWarning
	err        error
}

type mergeResultMsg struct {
	result *types.MergeResult
	err    error
}

type mergeCompleteMsg mergeResultMsg

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel(m *merger.Merger, cfg *config.Config) Model {
	fp := filepicker.New()
	fp.DirAllowed = false
	fp.FileAllowed = false
	fp.CurrentDirectory, _ = os.Getwd()

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(accentColor)
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(softColor)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(softColor)
	fp.Styles.File = lipgloss.NewStyle().Foreground(mutedColor)
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(mutedColor)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(mutedColor)

	sheet := textinput.New()
	sheet.Placeholder = "Sheet1"
	sheet.CharLimit = 31
	sheet.Width = 32

	header := textinput.New()
	header.Placeholder = "1"
	header.CharLimit = 7
	header.Width = 8
	header.SetValue(strconv.Itoa(cfg.Merge.DefaultHeaderRow))

	output := textinput.New()
	output.Width = 60

	return Model{
		state:        stateFolderPicker,
		merger:       m,
		cfg:          cfg,
		filepicker:   fp,
		sheetInput:   sheet,
		headerInput:  header,
		outputInput:  output,
		selectedCols: make(map[int]bool),
		progress:     progress.New(progress.WithGradient(string(accentColor), string(softColor))),
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for the title, hints and padding.
		height := msg.Height - 14
		if height < 5 {
			height = 5
		}
		m.filepicker.Height = height

		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.state {
		case stateFolderPicker:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "s":
				return m.chooseFolder(m.filepicker.CurrentDirectory)
			}

		case stateForm:
			return m.updateForm(msg)

		case stateColumnSelection:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "esc":
				m.state = stateForm
				cmd := m.focusField(m.focus)
				return m, cmd
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.columns)-1 {
					m.cursor++
				}
			case " ":
				m.selectedCols[m.cursor] = !m.selectedCols[m.cursor]
			case "a":
				all := len(m.selectedColumns()) < len(m.columns)
				for i := range m.columns {
					m.selectedCols[i] = all
				}
			case "enter":
				if len(m.selectedColumns()) > 0 {
					m.state = stateOutputPath
					if m.outputInput.Value() == "" {
						m.outputInput.SetValue(merger.DefaultOutputPath(m.folder, m.cfg.Output.Suffix))
					}
					cmd := m.outputInput.Focus()
					return m, cmd
				}
			}
			return m, nil

		case stateOutputPath:
			switch msg.String() {
			case "esc":
				m.outputInput.Blur()
				m.state = stateColumnSelection
				return m, nil
			case "enter":
				if strings.TrimSpace(m.outputInput.Value()) == "" {
					return m, nil
				}
				m.outputInput.Blur()
				m.state = stateProcessing
				return m.startMerge()
			}
			var cmd tea.Cmd
			m.outputInput, cmd = m.outputInput.Update(msg)
			return m, cmd

		case stateComplete, stateError:
			switch msg.String() {
			case "q", "enter", "esc":
				return m, tea.Quit
			}
			return m, nil
		}

	case columnsLoadedMsg:
		if msg.err != nil {
			m.state = stateForm
			m.formErr = describeError(msg.err)
			cmd := m.focusField(m.focus)
			return m, cmd
		}
		if len(msg.columns) == 0 {
			m.state = stateForm
			m.formErr = fmt.Sprintf("No column names found in row %d.", m.request.HeaderRow)
			cmd := m.focusField(fieldHeaderRow)
			return m, cmd
		}
		m.columns = msg.columns
		m.missingFiles = msg.missing
		m.unreadable = msg.unreadable
		m.selectedCols = make(map[int]bool)
		m.cursor = 0
		m.state = stateColumnSelection
		return m, nil

	case mergeCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	switch m.state {
	case stateFolderPicker:
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)
		return m, cmd
	case stateForm:
		return m.updateInputs(msg)
	case stateOutputPath:
		var cmd tea.Cmd
		m.outputInput, cmd = m.outputInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) chooseFolder(dir string) (Model, tea.Cmd) {
	if m.folder != dir {
		m.columns = nil
		m.missingFiles = nil
		m.unreadable = nil
		m.selectedCols = make(map[int]bool)
		m.outputInput.SetValue("")
	}
	m.folder = dir
	m.formErr = ""
	m.state = stateForm
	cmd := m.focusField(fieldSheet)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateFolderPicker
		m.sheetInput.Blur()
		m.headerInput.Blur()
		return m, nil
	case "tab", "down":
		cmd := m.focusField((m.focus + 1) % fieldCount)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.focusField((m.focus + fieldCount - 1) % fieldCount)
		return m, cmd
	case "enter":
		sheet := strings.TrimSpace(m.sheetInput.Value())
		if sheet == "" {
			m.formErr = "Enter a sheet name."
			cmd := m.focusField(fieldSheet)
			return m, cmd
		}
		row, err := merger.ParseHeaderRow(m.headerInput.Value())
		if err != nil {
			m.formErr = "Enter a valid header row number (a positive integer)."
			cmd := m.focusField(fieldHeaderRow)
			return m, cmd
		}
		m.formErr = ""
		m.request = types.ColumnRequest{Directory: m.folder, SheetName: sheet, HeaderRow: row}
		m.state = stateLoadingColumns
		return m, m.loadColumns(m.request)
	}
	return m.updateInputs(msg)
}

func (m *Model) focusField(field int) tea.Cmd {
	m.focus = field
	if field == fieldSheet {
		m.headerInput.Blur()
		return m.sheetInput.Focus()
	}
	m.sheetInput.Blur()
	return m.headerInput.Focus()
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var sheetCmd, headerCmd tea.Cmd
	m.sheetInput, sheetCmd = m.sheetInput.Update(msg)
	m.headerInput, headerCmd = m.headerInput.Update(msg)
	return m, tea.Batch(sheetCmd, headerCmd)
}

func (m Model) loadColumns(req types.ColumnRequest) tea.Cmd {
	mg := m.merger
	return func() tea.Msg {
		check, err := mg.CheckSheets(req.Directory, req.SheetName)
		if err != nil {
			return columnsLoadedMsg{err: err}
		}
		cols, err := mg.DiscoverColumns(req)
		return columnsLoadedMsg{
			columns:    cols,
			missing:    check.Missing,
			unreadable: check.Unreadable,
			err:        err,
		}
	}
}

// selectedColumns returns the chosen column names in sheet order.
func (m Model) selectedColumns() []string {
	var cols []string
	for i, col := range m.columns {
		if m.selectedCols[i] {
			cols = append(cols, col)
		}
	}
	return cols
}

func (m Model) mergeRequest() types.MergeRequest {
	return types.MergeRequest{
		Directory:  m.request.Directory,
		SheetName:  m.request.SheetName,
		HeaderRow:  m.request.HeaderRow,
		Columns:    m.selectedColumns(),
		OutputPath: strings.TrimSpace(m.outputInput.Value()),
	}
}

func (m Model) startMerge() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan mergeResultMsg, 1)

	// Captured for the goroutine so it never touches the model.
	mg := m.merger
	req := m.mergeRequest()
	progressChan := m.progressChan
	resultChan := m.resultChan

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				result, err := mg.Merge(req, progressChan)

				resultChan <- mergeResultMsg{result: result, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		m.progress.Init(),
	)

	return m, cmd
}

func waitForProgress(progressChan chan float64, resultChan chan mergeResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			res, ok := <-resultChan
			if ok {
				return mergeCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

// describeError turns an engine error into a message for the form.
func describeError(err error) string {
	switch {
	case errors.Is(err, merger.ErrNoFilesFound):
		return "The folder contains no Excel files."
	case errors.Is(err, merger.ErrSheetMissing):
		var sheetErr *merger.SheetMissingError
		if errors.As(err, &sheetErr) {
			return fmt.Sprintf("Sheet %q is missing in %s.", sheetErr.Sheet, sheetErr.File)
		}
	}
	return err.Error()
}
