// Package tui provides a Bubble Tea terminal user interface for browsing and
// maintaining the build logs of a workspace.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/buildlog-dashboard/internal/config"
	"github.com/handiism/buildlog-dashboard/internal/edit"
	"github.com/handiism/buildlog-dashboard/internal/model"
	"github.com/handiism/buildlog-dashboard/internal/project"
)

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateLoading
	StateBrowsing
	StateEditing
	StateError
)

const (
	maxLogs   = 6
	listWidth = 44
)

// exportKeys maps export keys to formats.
var exportKeys = map[string]string{
	"e": project.FormatMarkdown,
	"h": project.FormatHTML,
	"p": project.FormatPDF,
}

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   project.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	editInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	preview   viewport.Model
	settings  *config.Settings
	logs      []LogEntry
	err       error

	// Context of the running operation
	ctx    context.Context
	cancel context.CancelFunc

	manager *project.Manager
	events  chan project.ProgressEvent

	records        []*model.Record
	cursor         int
	busy           bool
	busyLabel      string
	showValidation bool
	inputErr       error
	editErr        error

	width  int
	height int
}

// Message types
type (
	// ProgressMsg carries a manager progress event.
	ProgressMsg struct {
		Event project.ProgressEvent
	}

	// LoadDoneMsg is sent when the workspace has been (re)loaded.
	LoadDoneMsg struct {
		Records []*model.Record
		Err     error
	}

	// OpDoneMsg is sent when a checksum, save or export run finishes.
	// Updated replaces Original in the build list when set.
	OpDoneMsg struct {
		Label    string
		Path     string
		Original *model.Record
		Updated  *model.Record
		Err      error
	}
)

// NewModel creates a new TUI model.
//
// When settings name a workspace the model starts loading it; otherwise it
// asks for a workspace directory first.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "/path/to/builds"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	ei := textinput.New()
	ei.Placeholder = "test Boot Test=Pass"
	ei.Prompt = ": "
	ei.CharLimit = 500
	ei.Width = 70

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = listWidth - 4

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		state:     StateInput,
		textInput: ti,
		editInput: ei,
		spinner:   sp,
		progress:  prog,
		preview:   viewport.New(80, 20),
		settings:  settings,
		logs:      make([]LogEntry, 0),
		ctx:       ctx,
		cancel:    cancel,
		events:    make(chan project.ProgressEvent, 64),
	}
	m.manager = project.NewManager(settings, m.forward)

	if settings.WorkspacePath != "" {
		if err := m.manager.SetWorkspace(settings.WorkspacePath); err != nil {
			m.inputErr = err
			m.textInput.SetValue(settings.WorkspacePath)
		} else {
			m.state = StateLoading
			m.busy = true
			m.busyLabel = "Loading workspace"
		}
	}

	return m
}

// forward hands manager events to the UI without ever blocking a worker.
func (m Model) forward(event project.ProgressEvent) {
	select {
	case m.events <- event:
	default:
	}
}

// waitForEvent delivers the next manager event as a ProgressMsg.
func waitForEvent(events <-chan project.ProgressEvent) tea.Cmd {
	return func() tea.Msg {
		return ProgressMsg{Event: <-events}
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForEvent(m.events), m.spinner.Tick}
	if m.state == StateInput {
		cmds = append(cmds, textinput.Blink)
	}
	if m.state == StateLoading {
		cmds = append(cmds, m.loadRecords())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
		switch m.state {
		case StateInput:
			return m.updateInput(msg)
		case StateEditing:
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		m.addLog(msg.Event)
		cmds = append(cmds, waitForEvent(m.events))

	case LoadDoneMsg:
		m.finishOp()
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			return m, nil
		}
		m.state = StateBrowsing
		m.err = nil
		m.records = msg.Records
		if m.cursor >= len(m.records) {
			m.cursor = max(len(m.records)-1, 0)
		}
		m.refreshPreview()

	case OpDoneMsg:
		m.finishOp()
		if msg.Err != nil {
			m.addLog(project.ProgressEvent{Message: fmt.Sprintf("%s failed: %v", msg.Label, msg.Err), Level: project.LevelError})
		}
		if msg.Updated != nil {
			for i, rec := range m.records {
				if rec == msg.Original {
					m.records[i] = msg.Updated
				}
			}
			m.refreshPreview()
		}
	}

	// Update text input
	switch m.state {
	case StateInput:
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	case StateEditing:
		var cmd tea.Cmd
		m.editInput, cmd = m.editInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.manager.Workspace() == "" {
			return m, tea.Quit
		}
		m.state = StateBrowsing
		return m, nil

	case "enter":
		dir := strings.TrimSpace(m.textInput.Value())
		if dir == "" {
			return m, nil
		}
		if err := m.manager.SetWorkspace(dir); err != nil {
			m.inputErr = err
			return m, nil
		}
		m.inputErr = nil
		m.state = StateLoading
		m.cursor = 0
		m.startOp("Loading workspace")
		return m, tea.Batch(m.loadRecords(), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "q":
		m.cancel()
		return m, tea.Quit

	case "esc":
		if m.busy {
			m.cancel()
		}
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.refreshPreview()
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.records)-1 {
			m.cursor++
			m.refreshPreview()
		}
		return m, nil

	case "v":
		m.showValidation = !m.showValidation
		m.resize()
		return m, nil

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}

	if !strings.Contains("rwcsehp:", key) || len(key) != 1 {
		return m, nil
	}
	if m.busy {
		m.addLog(project.ProgressEvent{Message: fmt.Sprintf("Busy: %s", m.busyLabel), Level: project.LevelWarning})
		return m, nil
	}

	switch key {
	case "r":
		m.startOp("Loading workspace")
		return m, tea.Batch(m.loadRecords(), m.spinner.Tick)

	case "w":
		m.state = StateInput
		m.textInput.SetValue(m.manager.Workspace())
		m.textInput.Focus()
		return m, textinput.Blink
	}

	rec := m.selected()
	if rec == nil {
		return m, nil
	}

	switch key {
	case ":":
		m.state = StateEditing
		m.editErr = nil
		m.editInput.SetValue("")
		m.editInput.Focus()
		m.resize()
		return m, textinput.Blink

	case "c":
		m.startOp("Computing checksums")
		return m, tea.Batch(m.computeChecksums(rec), m.spinner.Tick)

	case "s":
		if !m.checkValid(rec, "save") {
			return m, nil
		}
		m.startOp("Saving")
		return m, tea.Batch(m.save(rec), m.spinner.Tick)

	case "e", "h", "p":
		format := exportKeys[key]
		if !m.checkValid(rec, "export") {
			return m, nil
		}
		m.startOp("Exporting " + strings.ToUpper(format))
		return m, tea.Batch(m.export(rec, format), m.spinner.Tick)
	}

	return m, nil
}

// updateEditing applies edit commands to the selected record.
//
// Each command runs on a copy that replaces the record only when the command
// succeeds, so a failed command leaves the record untouched. The prompt stays
// open for further commands until esc.
func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = StateBrowsing
		m.editInput.Blur()
		m.editErr = nil
		m.resize()
		return m, nil

	case "enter":
		command := strings.TrimSpace(m.editInput.Value())
		rec := m.selected()
		if command == "" || rec == nil {
			return m, nil
		}

		work := rec.Clone()
		if err := edit.Apply(work, command); err != nil {
			m.editErr = err
			return m, nil
		}
		m.records[m.cursor] = work
		m.editErr = nil
		m.editInput.SetValue("")
		m.addLog(project.ProgressEvent{Message: fmt.Sprintf("Edited %s: %s", work.DisplayName(), command), Level: project.LevelInfo})
		m.refreshPreview()
		return m, nil
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, cmd
}

// checkValid logs the missing fields and opens the validation view when
// rec may not be saved or exported.
func (m *Model) checkValid(rec *model.Record, action string) bool {
	missing := rec.MissingFields()
	if len(missing) == 0 {
		return true
	}

	m.addLog(project.ProgressEvent{
		Message: fmt.Sprintf("Cannot %s %s: missing %s", action, rec.DisplayName(), strings.Join(missing, ", ")),
		Level:   project.LevelError,
	})
	m.showValidation = true
	m.resize()
	return false
}

func (m *Model) startOp(label string) {
	m.busy = true
	m.busyLabel = label
}

// finishOp clears the busy flag and replaces a cancelled context.
func (m *Model) finishOp() {
	m.busy = false
	m.busyLabel = ""
	if m.ctx.Err() != nil {
		m.ctx, m.cancel = context.WithCancel(context.Background())
	}
}

func (m *Model) addLog(event project.ProgressEvent) {
	// Filter verbose messages if not in verbose mode
	if event.Level == project.LevelVerbose && !m.settings.Verbose {
		return
	}
	m.logs = append(m.logs, LogEntry{Message: event.Message, Level: event.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m Model) selected() *model.Record {
	if m.cursor < 0 || m.cursor >= len(m.records) {
		return nil
	}
	return m.records[m.cursor]
}

func (m *Model) refreshPreview() {
	rec := m.selected()
	if rec == nil {
		m.preview.SetContent(dimStyle.Render("No builds in this workspace."))
		return
	}
	m.preview.SetContent(m.manager.Preview(rec))
	m.preview.GotoTop()
}

// resize fits the preview pane into the window.
func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.preview.Width = max(m.width-listWidth-6, 20)
	m.preview.Height = max(m.height-m.chromeHeight(), 5)
}

// chromeHeight is the number of lines around the panes: header, status,
// validation panel, logs and help.
func (m Model) chromeHeight() int {
	h := 3 + 2 + maxLogs + 2 + 2
	if m.showValidation {
		h += 4
	}
	if m.state == StateEditing {
		h += 3
	}
	return h
}

// loadRecords reloads the workspace in the background.
func (m Model) loadRecords() tea.Cmd {
	manager, ctx := m.manager, m.ctx
	return func() tea.Msg {
		records, err := manager.LoadAll(ctx)
		return LoadDoneMsg{Records: records, Err: err}
	}
}

// computeChecksums hashes a copy of rec so the view never reads a record
// that a worker is writing.
func (m Model) computeChecksums(rec *model.Record) tea.Cmd {
	manager, ctx := m.manager, m.ctx
	work := rec.Clone()
	return func() tea.Msg {
		err := manager.ComputeChecksums(ctx, work)
		return OpDoneMsg{Label: "Checksums", Original: rec, Updated: work, Err: err}
	}
}

func (m Model) save(rec *model.Record) tea.Cmd {
	manager, ctx := m.manager, m.ctx
	work := rec.Clone()
	return func() tea.Msg {
		path, err := manager.Save(ctx, work)
		if err != nil {
			return OpDoneMsg{Label: "Save", Err: err}
		}
		return OpDoneMsg{Label: "Save", Path: path, Original: rec, Updated: work}
	}
}

func (m Model) export(rec *model.Record, format string) tea.Cmd {
	manager, ctx := m.manager, m.ctx
	work := rec.Clone()
	return func() tea.Msg {
		path, err := manager.Export(ctx, work, format, "")
		if err != nil {
			return OpDoneMsg{Label: "Export", Err: err}
		}
		return OpDoneMsg{Label: "Export", Path: path, Original: rec, Updated: work}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
