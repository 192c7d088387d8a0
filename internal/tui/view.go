package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/buildlog-dashboard/internal/edit"
	"github.com/handiism/buildlog-dashboard/internal/markdown"
	"github.com/handiism/buildlog-dashboard/internal/model"
	"github.com/handiism/buildlog-dashboard/internal/project"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8B500"))
)

// mandatoryCount is the number of checks MissingFields can report.
var mandatoryCount = 8 + len(model.DefaultTests)

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("Android OS Build Logs"))
	b.WriteString("\n")
	if ws := m.manager.Workspace(); ws != "" {
		b.WriteString(dimStyle.Render("Workspace: " + ws))
	} else {
		b.WriteString(dimStyle.Render("No workspace selected"))
	}
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateLoading:
		b.WriteString(m.viewLoading())
	case StateBrowsing:
		b.WriteString(m.viewBrowsing())
	case StateEditing:
		b.WriteString(m.viewBrowsing())
		b.WriteString(m.viewEditing())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter workspace directory:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")
	if m.inputErr != nil {
		b.WriteString(errorStyle.Render(m.inputErr.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewLoading() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(m.busyLabel + "..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewBrowsing() string {
	var b strings.Builder

	list := paneStyle.Width(listWidth).Height(m.preview.Height).Render(m.renderList())
	preview := paneStyle.Render(m.preview.View())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, preview))
	b.WriteString("\n")

	if m.showValidation {
		b.WriteString(m.renderValidation())
	}

	// Status line
	if m.busy {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render(m.busyLabel + "..."))
	} else {
		b.WriteString(infoStyle.Render(fmt.Sprintf("%d build(s)", len(m.records))))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewEditing() string {
	var b strings.Builder

	b.WriteString(m.editInput.View())
	b.WriteString("\n")
	if m.editErr != nil {
		b.WriteString(errorStyle.Render(m.editErr.Error()))
	} else {
		b.WriteString(dimStyle.Render("commands: " + strings.Join(edit.Verbs, ", ") + " • fields: set name=value"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

// renderList draws the visible window of the build list around the cursor.
func (m Model) renderList() string {
	if len(m.records) == 0 {
		return dimStyle.Render("No builds found.")
	}

	rows := max(m.preview.Height, 1)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.records))

	var b strings.Builder
	for i := start; i < end; i++ {
		rec := m.records[i]
		line := fmt.Sprintf("%s %s", stateMark(rec), truncate(rec.DisplayName(), listWidth-4))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderValidation shows how complete the selected record is.
func (m Model) renderValidation() string {
	rec := m.selected()
	if rec == nil {
		return ""
	}

	var b strings.Builder
	missing := rec.MissingFields()
	percent := float64(mandatoryCount-len(missing)) / float64(mandatoryCount)

	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")
	if len(missing) == 0 {
		b.WriteString(successStyle.Render("✓ Ready for release"))
	} else {
		b.WriteString(warningStyle.Render("Missing: " + strings.Join(missing, ", ")))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Last updated: " + rec.LastUpdated.Format(markdown.TimestampLayout)))
	b.WriteString("\n\n")

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case project.LevelError:
			style = errorStyle
			prefix = "✗"
		case project.LevelWarning:
			style = warningStyle
			prefix = "!"
		case project.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case project.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: open workspace • esc: back/quit"
	case StateLoading:
		return "esc: cancel • q: quit"
	case StateBrowsing:
		return "↑/↓: select • :: edit • r: reload • c: checksums • s: save • e/h/p: export md/html/pdf • v: validation • w: workspace • q: quit"
	case StateEditing:
		return "enter: apply • esc: done"
	case StateError:
		return "r: retry • w: workspace • q: quit"
	}
	return ""
}

func stateMark(rec *model.Record) string {
	switch {
	case rec.AutoCompleted:
		return infoStyle.Render("+")
	case rec.IsValid():
		return successStyle.Render("✓")
	default:
		return warningStyle.Render("•")
	}
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
