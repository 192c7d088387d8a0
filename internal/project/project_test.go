package project

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/handiism/buildlog-dashboard/internal/config"
	"github.com/handiism/buildlog-dashboard/internal/markdown"
	"github.com/handiism/buildlog-dashboard/internal/model"
)

var fixedNow = time.Date(2026, 1, 30, 6, 27, 40, 0, time.Local)

const (
	zipA  = "gpn600_001-AAL-AA-07009-01.20260130.062740.zip"
	jsonA = "gpn600_001-AAL-AA-07009-01.20260130.062740.json"
	zipB  = "gpn600_001-AAL-AA-07010-01.20260205.101500.zip"
	idA   = "AAL-AA-07009-01.20260130.062740"
	idB   = "AAL-AA-07010-01.20260205.101500"
)

type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (l *eventLog) record(event ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) has(level ProgressLevel, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func newTestManager(t *testing.T, workspace string) (*Manager, *eventLog) {
	t.Helper()
	log := &eventLog{}
	m := NewManager(config.DefaultSettings(), log.record)
	m.now = func() time.Time { return fixedNow }
	if workspace != "" {
		if err := m.SetWorkspace(workspace); err != nil {
			t.Fatalf("SetWorkspace() error = %v", err)
		}
	}
	return m, log
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeDocument(t *testing.T, dir, name string, rec *model.Record) {
	t.Helper()
	writeFile(t, dir, name, markdown.NewGenerator().Generate(rec))
}

func newRecord(build, device string, date time.Time) *model.Record {
	rec := model.NewRecord(fixedNow)
	rec.BuildNumber = build
	rec.Device = device
	rec.BuildDate = date
	return rec
}

// createWorkspace lays out two builds: A is documented, B has artifacts only.
func createWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, zipA, "zip a")
	writeFile(t, dir, jsonA, "{}")
	writeFile(t, dir, zipB, "zip b")
	writeFile(t, dir, "notes.txt", "not an artifact")

	rec := newRecord(idA, "GPN600-001", time.Date(2026, 1, 30, 0, 0, 0, 0, time.Local))
	rec.Files = []*model.BuildFile{
		model.NewBuildFile(zipA, "5 B"),
		model.NewBuildFile("missing.zip", "1 GB"),
	}
	rec.BuiltBy = "Alice"
	writeDocument(t, dir, "BUILD_LOG_A.md", rec)
	return dir
}

func TestSetWorkspace(t *testing.T) {
	m, _ := newTestManager(t, "")

	err := m.SetWorkspace(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("SetWorkspace(missing) error = %v, want ErrNotFound", err)
	}

	file := writeFile(t, t.TempDir(), "plain.txt", "x")
	if err := m.SetWorkspace(file); err == nil {
		t.Error("SetWorkspace(file) should fail")
	}

	dir := t.TempDir()
	if err := m.SetWorkspace(dir); err != nil {
		t.Fatalf("SetWorkspace() error = %v", err)
	}
	if m.Workspace() != dir {
		t.Errorf("Workspace() = %q, want %q", m.Workspace(), dir)
	}
	if m.settings.WorkspacePath != dir {
		t.Errorf("settings.WorkspacePath = %q, want %q", m.settings.WorkspacePath, dir)
	}
}

func TestLoadAll_NoWorkspace(t *testing.T) {
	m, _ := newTestManager(t, "")
	if _, err := m.LoadAll(context.Background()); !errors.Is(err, ErrNoWorkspace) {
		t.Errorf("LoadAll() error = %v, want ErrNoWorkspace", err)
	}
}

func TestLoadAll_MergesDocumentsAndArtifacts(t *testing.T) {
	dir := createWorkspace(t)
	m, log := newTestManager(t, dir)

	records, err := m.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("LoadAll() returned %d records, want 2", len(records))
	}

	// Newest build date first
	discovered, documented := records[0], records[1]

	if discovered.BuildNumber != idB {
		t.Errorf("records[0].BuildNumber = %q, want %q", discovered.BuildNumber, idB)
	}
	if !discovered.AutoCompleted {
		t.Error("artifact-only build should be AutoCompleted")
	}
	if discovered.Device != "GPN600-001" {
		t.Errorf("discovered Device = %q, want GPN600-001", discovered.Device)
	}
	if len(discovered.Files) != 1 || discovered.Files[0].Path != filepath.Join(dir, zipB) {
		t.Errorf("discovered Files = %+v, want %s with path", discovered.Files, zipB)
	}

	if documented.BuildNumber != idA {
		t.Errorf("records[1].BuildNumber = %q, want %q", documented.BuildNumber, idA)
	}
	if documented.AutoCompleted {
		t.Error("documented build should not be AutoCompleted")
	}
	if documented.BuiltBy != "Alice" {
		t.Errorf("documented BuiltBy = %q, want Alice", documented.BuiltBy)
	}
	if documented.SourcePath != filepath.Join(dir, "BUILD_LOG_A.md") {
		t.Errorf("documented SourcePath = %q", documented.SourcePath)
	}
	if got := documented.Files[0].Path; got != filepath.Join(dir, zipA) {
		t.Errorf("resolved path = %q, want %q", got, filepath.Join(dir, zipA))
	}
	if got := documented.Files[1].Path; got != "" {
		t.Errorf("missing file path = %q, want empty", got)
	}

	if !log.has(LevelSuccess, "Loaded 2 builds (1 documented, 1 discovered)") {
		t.Errorf("missing load summary event: %+v", log.events)
	}
}

func TestLoadAll_DuplicateBuildNumberLastWins(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2026, 1, 10, 0, 0, 0, 0, time.Local)
	writeDocument(t, dir, "README.md", newRecord("DUP", "README", date))
	writeDocument(t, dir, "BUILD_LOG_a.md", newRecord("DUP", "FIRST", date))
	writeDocument(t, dir, "BUILD_LOG_b.md", newRecord("DUP", "SECOND", date))
	writeDocument(t, dir, "BUILD_LOG_other.md", newRecord("OTHER", "OTHER", date.AddDate(0, 0, -1)))

	m, log := newTestManager(t, dir)
	records, err := m.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("LoadAll() returned %d records, want 2", len(records))
	}
	if records[0].BuildNumber != "DUP" || records[0].Device != "SECOND" {
		t.Errorf("records[0] = %s/%s, want DUP/SECOND", records[0].BuildNumber, records[0].Device)
	}
	if records[1].BuildNumber != "OTHER" {
		t.Errorf("records[1].BuildNumber = %q, want OTHER", records[1].BuildNumber)
	}
	if !log.has(LevelWarning, "Duplicate build DUP") {
		t.Error("duplicate build numbers should be reported")
	}
}

func TestLoadAll_SkipsDocumentsWithoutBuildNumber(t *testing.T) {
	dir := t.TempDir()
	writeDocument(t, dir, "README.md", model.NewRecord(fixedNow))
	writeFile(t, dir, "CHANGES.md", "# not a build log")

	m, _ := newTestManager(t, dir)
	records, err := m.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("LoadAll() returned %d records, want 0", len(records))
	}
}

func TestLoadAll_Cancelled(t *testing.T) {
	m, _ := newTestManager(t, createWorkspace(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.LoadAll(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("LoadAll() error = %v, want context.Canceled", err)
	}
}

func TestCreateNew(t *testing.T) {
	dir := createWorkspace(t)
	m, _ := newTestManager(t, dir)

	rec, err := m.CreateNew()
	if err != nil {
		t.Fatalf("CreateNew() error = %v", err)
	}
	if len(rec.Files) != 3 {
		t.Fatalf("CreateNew() has %d files, want 3", len(rec.Files))
	}
	for _, f := range rec.Files {
		if !f.HasPath() {
			t.Errorf("file %s has no path", f.Name)
		}
	}
	if rec.BuildNumber != "" || !rec.BuildDate.Equal(fixedNow) {
		t.Errorf("CreateNew() = %q dated %v, want empty build dated now", rec.BuildNumber, rec.BuildDate)
	}
	if len(rec.TestResults) != len(model.DefaultTests) {
		t.Errorf("CreateNew() has %d tests, want defaults", len(rec.TestResults))
	}
}

func TestSave(t *testing.T) {
	tests := []struct {
		name     string
		build    string
		wantFile string
	}{
		{name: "build number", build: "AAL-AA-07009-01", wantFile: "BUILD_LOG_AAL-AA-07009-01.md"},
		{name: "sanitized", build: "AAL/01", wantFile: "BUILD_LOG_AAL_01.md"},
		{name: "no build number", build: "", wantFile: "BUILD_LOG_20260130_062740.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			m, _ := newTestManager(t, dir)

			rec := newRecord(tt.build, "GPN600-001", fixedNow)
			rec.LastUpdated = time.Time{}

			path, err := m.Save(context.Background(), rec)
			if err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if want := filepath.Join(dir, tt.wantFile); path != want {
				t.Errorf("Save() path = %q, want %q", path, want)
			}
			if rec.SourcePath != path {
				t.Errorf("SourcePath = %q, want %q", rec.SourcePath, path)
			}
			if !rec.LastUpdated.Equal(fixedNow) {
				t.Errorf("LastUpdated = %v, want %v", rec.LastUpdated, fixedNow)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read saved file: %v", err)
			}
			if string(data) != m.Preview(rec) {
				t.Error("saved content differs from Preview()")
			}
		})
	}
}

func TestSave_NoWorkspace(t *testing.T) {
	m, _ := newTestManager(t, "")
	if _, err := m.Save(context.Background(), newRecord("B1", "D", fixedNow)); !errors.Is(err, ErrNoWorkspace) {
		t.Errorf("Save() error = %v, want ErrNoWorkspace", err)
	}
}

func TestExport_Formats(t *testing.T) {
	tests := []struct {
		format     string
		wantFile   string
		wantPrefix string
	}{
		{format: "md", wantFile: "BUILD_LOG_B1.md", wantPrefix: "# Android OS Image Build Log - B1"},
		{format: "html", wantFile: "BUILD_LOG_B1.html", wantPrefix: "<!DOCTYPE html>"},
		{format: "pdf", wantFile: "BUILD_LOG_B1.pdf", wantPrefix: "%PDF-"},
		{format: "json", wantFile: "BUILD_LOG_B1.json", wantPrefix: "{"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := t.TempDir()
			m, _ := newTestManager(t, dir)
			rec := newRecord("B1", "GPN600-001", fixedNow)
			rec.LastUpdated = time.Time{}

			path, err := m.Export(context.Background(), rec, tt.format, "")
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			if want := filepath.Join(dir, tt.wantFile); path != want {
				t.Errorf("Export() path = %q, want %q", path, want)
			}
			if !rec.LastUpdated.Equal(fixedNow) {
				t.Errorf("LastUpdated = %v, want %v", rec.LastUpdated, fixedNow)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read export: %v", err)
			}
			if !bytes.HasPrefix(data, []byte(tt.wantPrefix)) {
				t.Errorf("export starts with %q, want %q", data[:min(len(data), 40)], tt.wantPrefix)
			}
		})
	}
}

func TestExport_DefaultPaths(t *testing.T) {
	dir := t.TempDir()
	m, _ := newTestManager(t, dir)
	out := filepath.Join(t.TempDir(), "exports", "nested")
	m.settings.ExportPath = out

	path, err := m.ExportMarkdown(context.Background(), model.NewRecord(fixedNow), "")
	if err != nil {
		t.Fatalf("ExportMarkdown() error = %v", err)
	}
	if want := filepath.Join(out, "BUILD_LOG.md"); path != want {
		t.Errorf("ExportMarkdown() path = %q, want %q", path, want)
	}

	explicit := filepath.Join(dir, "custom.html")
	path, err = m.ExportHTML(context.Background(), newRecord("B1", "D", fixedNow), explicit)
	if err != nil {
		t.Fatalf("ExportHTML() error = %v", err)
	}
	if path != explicit {
		t.Errorf("ExportHTML() path = %q, want %q", path, explicit)
	}
}

func TestExport_Errors(t *testing.T) {
	m, _ := newTestManager(t, "")
	if _, err := m.ExportPDF(context.Background(), newRecord("B1", "D", fixedNow), ""); !errors.Is(err, ErrNoWorkspace) {
		t.Errorf("ExportPDF() without workspace error = %v, want ErrNoWorkspace", err)
	}

	m, _ = newTestManager(t, t.TempDir())
	if _, err := m.Export(context.Background(), newRecord("B1", "D", fixedNow), "docx", ""); err == nil {
		t.Error("Export() should reject an unknown format")
	}

	m.pdf.PageSize = "B5"
	_, err := m.ExportPDF(context.Background(), newRecord("B1", "D", fixedNow), "")
	if err == nil || !strings.HasPrefix(err.Error(), "pdf generation: ") {
		t.Errorf("ExportPDF() error = %v, want pdf generation error", err)
	}
}

func TestImport(t *testing.T) {
	dir := createWorkspace(t)
	m, _ := newTestManager(t, dir)
	ctx := context.Background()

	rec := newRecord("B1", "GPN600-001", time.Date(2026, 1, 30, 0, 0, 0, 0, time.Local))
	rec.Files = []*model.BuildFile{model.NewBuildFile(zipA, "5 B")}
	rec.BuiltBy = "Alice"

	elsewhere := t.TempDir()
	for _, format := range []string{"md", "json"} {
		t.Run(format, func(t *testing.T) {
			path, err := m.Export(ctx, rec, format, filepath.Join(elsewhere, "export."+format))
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			got, err := m.Import(ctx, path)
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if got.BuildNumber != "B1" || got.BuiltBy != "Alice" {
				t.Errorf("Import() = %s/%s, want B1/Alice", got.BuildNumber, got.BuiltBy)
			}
			if len(got.Files) != 1 || got.Files[0].Path != filepath.Join(dir, zipA) {
				t.Errorf("Import() files = %+v, want path resolved in workspace", got.Files)
			}
		})
	}
}

func TestImport_Errors(t *testing.T) {
	dir := t.TempDir()
	m, _ := newTestManager(t, dir)
	ctx := context.Background()

	if _, err := m.Import(ctx, filepath.Join(dir, "missing.md")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Import(missing) error = %v, want ErrNotFound", err)
	}

	txt := writeFile(t, dir, "notes.txt", "hello")
	if _, err := m.Import(ctx, txt); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Import(txt) error = %v, want unsupported file type", err)
	}

	bad := writeFile(t, dir, "bad.json", "{not json")
	if _, err := m.Import(ctx, bad); err == nil {
		t.Error("Import(bad json) should fail")
	}
}

func TestComputeChecksums(t *testing.T) {
	dir := t.TempDir()
	abc := writeFile(t, dir, "abc.zip", "abc")
	gone := writeFile(t, dir, "gone.zip", "gone")
	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}

	m, log := newTestManager(t, dir)
	m.settings.ChecksumConcurrency = 2

	rec := newRecord("B1", "D", fixedNow)
	rec.Files = []*model.BuildFile{
		{Name: "abc.zip", Size: "3 B", SHA256: model.PlaceholderHash, Path: abc},
		{Name: "gone.zip", Size: "4 B", SHA256: "keep", Path: gone},
		{Name: "remote.zip", Size: "1 GB", SHA256: model.PlaceholderHash},
	}

	if err := m.ComputeChecksums(context.Background(), rec); err != nil {
		t.Fatalf("ComputeChecksums() error = %v", err)
	}

	want := []string{
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		"keep",
		model.PlaceholderHash,
	}
	for i, f := range rec.Files {
		if f.SHA256 != want[i] {
			t.Errorf("%s SHA256 = %q, want %q", f.Name, f.SHA256, want[i])
		}
	}
	if !log.has(LevelSuccess, "Computed 1 checksums") {
		t.Errorf("missing checksum summary: %+v", log.events)
	}
}

func TestComputeChecksums_Cancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "abc.zip", "abc")
	m, _ := newTestManager(t, dir)

	rec := newRecord("B1", "D", fixedNow)
	rec.Files = []*model.BuildFile{{Name: "abc.zip", SHA256: model.PlaceholderHash, Path: path}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.ComputeChecksums(ctx, rec); err == nil {
		t.Error("ComputeChecksums() should fail on a cancelled context")
	}
	if rec.Files[0].SHA256 != model.PlaceholderHash {
		t.Errorf("SHA256 = %q, want placeholder kept", rec.Files[0].SHA256)
	}
}

func TestPreviewImages(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())
	m.settings.PreviewDPI = 72

	pages, err := m.PreviewImages(context.Background(), newRecord("B1", "D", fixedNow), 0)
	if err != nil {
		t.Fatalf("PreviewImages() error = %v", err)
	}
	if len(pages) == 0 || !bytes.HasPrefix(pages[0], []byte("\x89PNG")) {
		t.Error("PreviewImages() should return PNG pages")
	}

	if _, err := m.PreviewImages(context.Background(), newRecord("B1", "D", fixedNow), 5000); err == nil {
		t.Error("PreviewImages() should reject an out-of-range DPI")
	}
}

func TestThumbnails(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())
	ctx := context.Background()

	pages, err := m.PreviewImages(ctx, newRecord("B1", "D", fixedNow), 72)
	if err != nil {
		t.Fatalf("PreviewImages() error = %v", err)
	}
	thumbs, err := m.Thumbnails(ctx, pages, 120)
	if err != nil {
		t.Fatalf("Thumbnails() error = %v", err)
	}
	if len(thumbs) != len(pages) {
		t.Fatalf("Thumbnails() = %d images, want %d", len(thumbs), len(pages))
	}
	img, err := png.Decode(bytes.NewReader(thumbs[0]))
	if err != nil {
		t.Fatalf("thumbnail is not PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() > 120 || b.Dy() > 120 {
		t.Errorf("thumbnail is %dx%d, want within 120x120", b.Dx(), b.Dy())
	}

	if _, err := m.Thumbnails(ctx, pages, 0); err == nil {
		t.Error("Thumbnails() should reject a zero size")
	}
	if _, err := m.Thumbnails(ctx, [][]byte{[]byte("not an image")}, 120); err == nil {
		t.Error("Thumbnails() should fail on undecodable pages")
	}
}

func TestDeleteDocument(t *testing.T) {
	dir := createWorkspace(t)
	m, _ := newTestManager(t, dir)

	doc := filepath.Join(dir, "BUILD_LOG_A.md")
	if err := m.DeleteDocument(doc); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if _, err := os.Stat(doc); !os.IsNotExist(err) {
		t.Error("document should be deleted")
	}

	if err := m.DeleteDocument(doc); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteDocument(again) error = %v, want ErrNotFound", err)
	}

	for _, name := range []string{zipA, jsonA, "notes.txt"} {
		if err := m.DeleteDocument(filepath.Join(dir, name)); err == nil {
			t.Errorf("DeleteDocument(%s) should be refused", name)
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s should still exist: %v", name, err)
		}
	}
}

func TestEngineerHistory(t *testing.T) {
	names := [][2]string{
		{"alice", "carol"},
		{" Alice ", "Carol"},
		{"Bob", "dave"},
		{"TBD", ""},
		{"", " "},
	}
	var records []*model.Record
	for _, n := range names {
		rec := model.NewRecord(fixedNow)
		rec.BuiltBy, rec.ReviewedBy = n[0], n[1]
		records = append(records, rec)
	}

	builtBy, reviewedBy := EngineerHistory(records)
	if want := []string{"alice", "Bob"}; !reflect.DeepEqual(builtBy, want) {
		t.Errorf("builtBy = %q, want %q", builtBy, want)
	}
	if want := []string{"carol", "dave"}; !reflect.DeepEqual(reviewedBy, want) {
		t.Errorf("reviewedBy = %q, want %q", reviewedBy, want)
	}

	builtBy, reviewedBy = EngineerHistory(nil)
	if len(builtBy) != 0 || len(reviewedBy) != 0 {
		t.Errorf("EngineerHistory(nil) = %q, %q, want empty", builtBy, reviewedBy)
	}
}

func TestFind(t *testing.T) {
	records := []*model.Record{
		newRecord(idA, "D", fixedNow),
		newRecord("AAL-AA-07010-01.20260205.101500", "D", fixedNow),
		newRecord("AAL-AA-07010-01.20260206.080000", "D", fixedNow),
		newRecord("B1", "D", fixedNow),
	}

	tests := []struct {
		build string
		want  *model.Record
	}{
		{build: "B1", want: records[3]},
		{build: idA, want: records[0]},
		{build: "AAL-AA-07009-01", want: records[0]},
		{build: "AAL-AA-07010-01", want: nil},
		{build: "AAL", want: nil},
		{build: " ", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.build, func(t *testing.T) {
			if got := Find(records, tt.build); got != tt.want {
				t.Errorf("Find(%q) = %v, want %v", tt.build, got, tt.want)
			}
		})
	}
}
