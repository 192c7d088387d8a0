package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/handiism/buildlog-dashboard/internal/config"
	"github.com/handiism/buildlog-dashboard/internal/edit"
	"github.com/handiism/buildlog-dashboard/internal/model"
	"github.com/handiism/buildlog-dashboard/internal/project"
)

const artifact = "gpn600_001-AAL-AA-07009-01.20260130.062740.zip"

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", next)
	}
	return nm, cmd
}

func completeRecord(build string) *model.Record {
	approved := time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local)
	rec := model.NewRecord(time.Date(2026, 1, 30, 0, 0, 0, 0, time.Local))
	rec.BuildNumber = build
	rec.Device = "GPN600-001"
	rec.AndroidVersion = "14"
	rec.BuiltBy = "Alice"
	rec.ReviewedBy = "Bob"
	rec.ApprovedForRelease = &approved
	for _, tr := range rec.TestResults {
		tr.Result = model.ResultPass
	}
	return rec
}

func browsingModel(t *testing.T, records ...*model.Record) Model {
	t.Helper()
	settings := config.DefaultSettings()
	settings.WorkspacePath = t.TempDir()

	m := NewModel(settings)
	m, _ = update(t, m, LoadDoneMsg{Records: records})
	return m
}

func hasLog(m Model, level project.ProgressLevel, substr string) bool {
	for _, entry := range m.logs {
		if entry.Level == level && strings.Contains(entry.Message, substr) {
			return true
		}
	}
	return false
}

func TestNewModel_States(t *testing.T) {
	m := NewModel(config.DefaultSettings())
	if m.state != StateInput {
		t.Errorf("without workspace state = %v, want StateInput", m.state)
	}

	settings := config.DefaultSettings()
	settings.WorkspacePath = t.TempDir()
	m = NewModel(settings)
	if m.state != StateLoading || !m.busy {
		t.Errorf("with workspace state = %v busy = %v, want loading and busy", m.state, m.busy)
	}

	settings.WorkspacePath = filepath.Join(t.TempDir(), "missing")
	m = NewModel(settings)
	if m.state != StateInput || !errors.Is(m.inputErr, project.ErrNotFound) {
		t.Errorf("missing workspace state = %v err = %v, want input with ErrNotFound", m.state, m.inputErr)
	}
}

func TestLoadRecords(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, artifact), []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	settings := config.DefaultSettings()
	settings.WorkspacePath = dir

	m := NewModel(settings)
	msg, ok := m.loadRecords()().(LoadDoneMsg)
	if !ok {
		t.Fatal("loadRecords() should produce a LoadDoneMsg")
	}
	if msg.Err != nil || len(msg.Records) != 1 {
		t.Fatalf("LoadDoneMsg = %+v, want one record", msg)
	}

	m, _ = update(t, m, msg)
	if m.state != StateBrowsing || m.busy {
		t.Errorf("after load state = %v busy = %v, want browsing and idle", m.state, m.busy)
	}
	if !strings.Contains(m.View(), "AAL-AA-07009-01") {
		t.Error("view should list the discovered build")
	}
}

func TestLoadDone_Error(t *testing.T) {
	m := browsingModel(t)
	m.busy = true
	m, _ = update(t, m, LoadDoneMsg{Err: errors.New("boom")})
	if m.state != StateError || m.busy {
		t.Errorf("state = %v busy = %v, want error and idle", m.state, m.busy)
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("view should show the error")
	}
}

func TestCursor(t *testing.T) {
	m := browsingModel(t, completeRecord("B1"), completeRecord("B2"), completeRecord("B3"))

	m, _ = update(t, m, key("up"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0 at top", m.cursor)
	}
	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("j"))
	m, _ = update(t, m, key("down"))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2 at bottom", m.cursor)
	}
	if m.selected().BuildNumber != "B3" {
		t.Errorf("selected = %s, want B3", m.selected().BuildNumber)
	}
	m, _ = update(t, m, key("k"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestSave_RefusesInvalidRecord(t *testing.T) {
	m := browsingModel(t, model.NewRecord(time.Now()))

	m, cmd := update(t, m, key("s"))
	if m.busy || cmd != nil {
		t.Error("invalid record should not start a save")
	}
	if !hasLog(m, project.LevelError, "Cannot save") {
		t.Errorf("missing validation log: %+v", m.logs)
	}
	if !m.showValidation {
		t.Error("validation view should open")
	}

	m, _ = update(t, m, key("p"))
	if m.busy || !hasLog(m, project.LevelError, "Cannot export") {
		t.Error("invalid record should not start an export")
	}
}

func TestSave_BusyBlocksOtherOperations(t *testing.T) {
	m := browsingModel(t, completeRecord("B1"))

	m, cmd := update(t, m, key("s"))
	if !m.busy || cmd == nil {
		t.Fatal("save should start a background operation")
	}

	m, cmd = update(t, m, key("c"))
	if cmd != nil {
		t.Error("busy model should not start another operation")
	}
	if !hasLog(m, project.LevelWarning, "Busy: Saving") {
		t.Errorf("missing busy log: %+v", m.logs)
	}

	// Failure still clears busy
	m, _ = update(t, m, OpDoneMsg{Label: "Save", Err: errors.New("disk full")})
	if m.busy {
		t.Error("busy should be cleared when the operation fails")
	}
	if !hasLog(m, project.LevelError, "Save failed: disk full") {
		t.Errorf("missing failure log: %+v", m.logs)
	}
}

func TestSave_WritesInBackground(t *testing.T) {
	m := browsingModel(t, completeRecord("B1"))
	original := m.records[0]

	msg, ok := m.save(original)().(OpDoneMsg)
	if !ok {
		t.Fatal("save() should produce an OpDoneMsg")
	}
	if msg.Err != nil {
		t.Fatalf("save failed: %v", msg.Err)
	}
	if _, err := os.Stat(msg.Path); err != nil {
		t.Errorf("saved file missing: %v", err)
	}
	if original.SourcePath != "" {
		t.Error("the displayed record should not be written by the worker")
	}

	m.busy = true
	m, _ = update(t, m, msg)
	if m.busy {
		t.Error("busy should be cleared")
	}
	if m.records[0] != msg.Updated || m.records[0].SourcePath != msg.Path {
		t.Error("the saved copy should replace the displayed record")
	}
}

func TestComputeChecksums(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, artifact)
	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}

	rec := completeRecord("B1")
	rec.Files = []*model.BuildFile{{Name: artifact, Size: "3 B", SHA256: model.PlaceholderHash, Path: path}}
	m := browsingModel(t, rec)

	msg := m.computeChecksums(rec)().(OpDoneMsg)
	if msg.Err != nil {
		t.Fatalf("checksums failed: %v", msg.Err)
	}
	if rec.Files[0].SHA256 != model.PlaceholderHash {
		t.Error("the displayed record should keep its hash until the result arrives")
	}

	m, _ = update(t, m, msg)
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := m.records[0].Files[0].SHA256; got != want {
		t.Errorf("SHA256 = %q, want %q", got, want)
	}
}

func TestEditPrompt_CompletesDiscoveredBuild(t *testing.T) {
	discovered := model.NewRecord(time.Date(2026, 1, 30, 0, 0, 0, 0, time.Local))
	discovered.BuildNumber = "AAL-AA-07009-01.20260130.062740"
	discovered.Device = "GPN600-001"
	discovered.AutoCompleted = true
	m := browsingModel(t, discovered)

	m, _ = update(t, m, key(":"))
	if m.state != StateEditing {
		t.Fatalf("state = %v, want StateEditing", m.state)
	}

	for _, command := range []string{
		"set android=14",
		"set built_by=Alice",
		"set reviewed_by=Bob",
		"approve 2026-02-01",
		"test Boot Test=Pass",
		"test Basic Functionality=Pass",
		"test OTA Update Test=Skipped",
		"issue Wi-Fi drops|High|Open|toggle airplane mode",
	} {
		m.editInput.SetValue(command)
		m, _ = update(t, m, key("enter"))
		if m.editErr != nil {
			t.Fatalf("%q failed: %v", command, m.editErr)
		}
	}

	if discovered.AndroidVersion != "" || discovered.TestResults[0].Result != model.ResultPending {
		t.Error("edits should replace the record instead of changing it in place")
	}
	rec := m.selected()
	if !rec.IsValid() {
		t.Fatalf("edited record still missing %v", rec.MissingFields())
	}
	if len(rec.KnownIssues) != 1 || rec.KnownIssues[0].Severity != model.SeverityHigh {
		t.Errorf("KnownIssues = %+v, want the added issue", rec.KnownIssues)
	}

	m, _ = update(t, m, key("esc"))
	if m.state != StateBrowsing {
		t.Fatalf("esc should close the prompt, state = %v", m.state)
	}

	m, cmd := update(t, m, key("s"))
	if !m.busy || cmd == nil {
		t.Error("the completed record should be saved")
	}
}

func TestEditPrompt_RejectsBadCommand(t *testing.T) {
	m := browsingModel(t, completeRecord("B1"))
	original := m.records[0]

	m, _ = update(t, m, key(":"))
	m.editInput.SetValue("test Boot Test=Passed")
	m, _ = update(t, m, key("enter"))

	if !errors.Is(m.editErr, edit.ErrInvalidValue) {
		t.Errorf("editErr = %v, want ErrInvalidValue", m.editErr)
	}
	if m.records[0] != original || original.TestResults[0].Result != model.ResultPass {
		t.Error("a failed command should leave the record unchanged")
	}
	if m.state != StateEditing || !strings.Contains(m.View(), "invalid value") {
		t.Error("the prompt should stay open and show the error")
	}
}

func TestEditPrompt_BlockedWhileBusy(t *testing.T) {
	m := browsingModel(t, completeRecord("B1"))
	m.busy = true
	m.busyLabel = "Saving"

	m, _ = update(t, m, key(":"))
	if m.state != StateBrowsing {
		t.Errorf("state = %v, want browsing while busy", m.state)
	}
	if !hasLog(m, project.LevelWarning, "Busy: Saving") {
		t.Errorf("missing busy log: %+v", m.logs)
	}
}

func TestToggleValidation(t *testing.T) {
	m := browsingModel(t, model.NewRecord(time.Now()))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 50})
	height := m.preview.Height

	m, _ = update(t, m, key("v"))
	if !m.showValidation {
		t.Fatal("v should open the validation view")
	}
	if m.preview.Height >= height {
		t.Error("preview should shrink to make room for the validation panel")
	}
	if !strings.Contains(m.View(), "Missing: Build Number") {
		t.Error("validation view should list missing fields")
	}

	m, _ = update(t, m, key("v"))
	if m.showValidation {
		t.Error("v should close the validation view")
	}
}

func TestProgressMsg_FiltersVerbose(t *testing.T) {
	m := browsingModel(t)

	m, cmd := update(t, m, ProgressMsg{Event: project.ProgressEvent{Message: "hashing", Level: project.LevelVerbose}})
	if cmd == nil {
		t.Error("progress messages should re-arm the event listener")
	}
	if hasLog(m, project.LevelVerbose, "hashing") {
		t.Error("verbose events should be hidden unless verbose is set")
	}

	for i := 0; i < maxLogs+3; i++ {
		m, _ = update(t, m, ProgressMsg{Event: project.ProgressEvent{Message: "saved", Level: project.LevelSuccess}})
	}
	if len(m.logs) != maxLogs {
		t.Errorf("len(logs) = %d, want %d", len(m.logs), maxLogs)
	}
}

func TestQuit(t *testing.T) {
	m := browsingModel(t)
	_, cmd := update(t, m, key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestWorkspaceInput(t *testing.T) {
	m := NewModel(config.DefaultSettings())

	m.textInput.SetValue(filepath.Join(t.TempDir(), "missing"))
	m, _ = update(t, m, key("enter"))
	if m.state != StateInput || m.inputErr == nil {
		t.Errorf("missing directory should keep the input open, state = %v", m.state)
	}

	dir := t.TempDir()
	m.textInput.SetValue(dir)
	m, cmd := update(t, m, key("enter"))
	if m.state != StateLoading || !m.busy || cmd == nil {
		t.Errorf("valid directory should start loading, state = %v busy = %v", m.state, m.busy)
	}
	if m.manager.Workspace() != dir {
		t.Errorf("workspace = %q, want %q", m.manager.Workspace(), dir)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate() = %q, want %q", got, "abc…")
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("truncate() = %q, want %q", got, "abc")
	}
}
