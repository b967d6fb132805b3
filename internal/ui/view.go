package ui

import (
	"fmt"
	"strings"
)

func (m Model) View() string {
	switch m.state {
	case stateFolderPicker:
		return m.viewFolderPicker()
	case stateForm, stateLoadingColumns:
		return m.viewForm()
	case stateColumnSelection:
		return m.viewColumnSelection()
	case stateOutputPath:
		return m.viewOutputPath()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFolderPicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▦ Sheetmerge - Combine one sheet from many workbooks"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Browse to the folder that holds the Excel files"))
	s.WriteString("\n")
	s.WriteString(LabelStyle.Render("Current folder: "))
	s.WriteString(m.filepicker.CurrentDirectory)
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("enter/→: open • ←/esc: up • s: use this folder • q: quit"))

	return s.String()
}

func (m Model) viewForm() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▦ Sheet and header row"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Folder: %s", truncatePath(m.folder, m.maxPathLen()))))
	s.WriteString("\n\n")

	s.WriteString(LabelStyle.Render("Sheet name"))
	s.WriteString("\n")
	s.WriteString(m.sheetInput.View())
	s.WriteString("\n\n")
	s.WriteString(LabelStyle.Render("Header row (counting from 1)"))
	s.WriteString("\n")
	s.WriteString(m.headerInput.View())
	s.WriteString("\n")

	if m.state == stateLoadingColumns {
		s.WriteString("\n")
		s.WriteString(SubtitleStyle.Render("Checking files and loading columns..."))
	}
	if m.formErr != "" {
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render("✗ " + m.formErr))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("tab: next field • enter: load columns • esc: change folder • ctrl+c: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewColumnSelection() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▦ Select Columns to Merge"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Sheet %q, header row %d", m.request.SheetName, m.request.HeaderRow)))
	s.WriteString("\n\n")

	if len(m.missingFiles) == 0 {
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("✓ Sheet %q found in all files", m.request.SheetName)))
	} else {
		s.WriteString(WarningStyle.Render(fmt.Sprintf("! Sheet %q is missing in: %s. These files will be skipped.",
			m.request.SheetName, strings.Join(m.missingFiles, ", "))))
	}
	s.WriteString("\n")
	for _, skip := range m.unreadable {
		s.WriteString(WarningStyle.Render("! " + skip.Message()))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	for i, col := range m.columns {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}

		checked := " "
		if m.selectedCols[i] {
			checked = "✓"
		}

		line := fmt.Sprintf("%s [%s] %s", cursor, checked, col)

		switch {
		case m.cursor == i:
			line = SelectedStyle.Render(line)
		case m.selectedCols[i]:
			line = CheckedStyle.Render(line)
		default:
			line = UnselectedStyle.Render(line)
		}

		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Selected: %d of %d\n", len(m.selectedColumns()), len(m.columns)))
	s.WriteString(HelpStyle.Render("↑/↓: navigate • space: toggle • a: all/none • enter: continue • esc: back • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewOutputPath() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▦ Save Merged Workbook"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Columns: %s + %s",
		strings.Join(m.selectedColumns(), ", "), m.cfg.Merge.ProvenanceColumn)))
	s.WriteString("\n\n")
	s.WriteString(LabelStyle.Render("Output file"))
	s.WriteString("\n")
	s.WriteString(m.outputInput.View())
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("enter: merge • esc: back • ctrl+c: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▦ Merging..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Reading sheet %q from each workbook...", m.request.SheetName))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Merge Complete!"))
	s.WriteString("\n\n")

	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s", truncatePath(m.result.OutputPath, m.maxPathLen()))))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Rows written: %d\n", m.result.RowsWritten))
	s.WriteString(fmt.Sprintf("Files merged: %d\n", len(m.result.FilesMerged)))

	if len(m.result.Skipped) > 0 {
		s.WriteString("\n")
		s.WriteString(WarningStyle.Render(fmt.Sprintf("Skipped %d file(s):", len(m.result.Skipped))))
		s.WriteString("\n")
		for _, skip := range m.result.Skipped {
			s.WriteString(WarningStyle.Render("  • " + skip.Message()))
			s.WriteString("\n")
		}
	}

	s.WriteString(HelpStyle.Render("Press enter to exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press enter to exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) maxPathLen() int {
	// Leave room for padding and borders.
	n := m.width - 20
	if n < 30 {
		n = 30
	}
	return n
}

func truncatePath(path string, max int) string {
	r := []rune(path)
	if len(r) <= max {
		return path
	}
	return "..." + string(r[len(r)-max+3:])
}
