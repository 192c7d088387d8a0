package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/buildlog-dashboard/internal/config"
	"github.com/handiism/buildlog-dashboard/internal/dto"
	"github.com/handiism/buildlog-dashboard/internal/export"
	ioutils "github.com/handiism/buildlog-dashboard/internal/io"
	"github.com/handiism/buildlog-dashboard/internal/markdown"
	"github.com/handiism/buildlog-dashboard/internal/model"
	"github.com/handiism/buildlog-dashboard/internal/scanner"
)

var (
	// ErrNotFound is returned when an import, delete or workspace target
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoWorkspace is returned by operations that need a workspace
	// before one has been set.
	ErrNoWorkspace = errors.New("no workspace selected")
)

// Export formats and their file extensions.
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
	FormatPDF      = "pdf"
	FormatJSON     = "json"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a status update from a Manager operation.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Manager coordinates the build logs of one workspace.
type Manager struct {
	settings  *config.Settings
	workspace string

	scanner   *scanner.Scanner
	parser    *markdown.Parser
	generator *markdown.Generator
	html      *export.HTMLGenerator
	pdf       *export.PDFGenerator
	preview   *export.PreviewRenderer

	now        func() time.Time
	onProgress func(ProgressEvent)
}

// NewManager creates a new Manager.
//
// The workspace is taken from settings.WorkspacePath when set; it is not
// checked until an operation needs it. onProgress may be nil.
func NewManager(settings *config.Settings, onProgress func(ProgressEvent)) *Manager {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	m := &Manager{
		settings:   settings,
		workspace:  settings.WorkspacePath,
		generator:  markdown.NewGenerator(),
		html:       export.NewHTMLGenerator(),
		pdf:        export.NewPDFGenerator(settings.PDFPageSize),
		preview:    export.NewPreviewRenderer(settings.PDFPageSize),
		now:        time.Now,
		onProgress: onProgress,
	}
	m.scanner = &scanner.Scanner{Now: m.clock}
	m.parser = &markdown.Parser{Now: m.clock}

	return m
}

// Workspace returns the current workspace directory, or "".
func (m *Manager) Workspace() string {
	return m.workspace
}

// SetWorkspace selects the directory that holds artifacts and build logs.
func (m *Manager) SetWorkspace(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("workspace %s: %w", abs, ErrNotFound)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace %s is not a directory", abs)
	}

	m.workspace = abs
	m.settings.WorkspacePath = abs
	m.progress(ProgressEvent{Message: fmt.Sprintf("Workspace: %s", abs), Level: LevelVerbose})
	return nil
}

// LoadAll returns every build of the workspace, newest build date first.
//
// Documents named README*.md and BUILD_LOG*.md are parsed first, README
// files before build logs, each group in file name order. Documents without
// a build number are skipped. When two documents share a build number the
// later one replaces the earlier one in place. File entries are resolved
// against the workspace by name.
//
// Then every artifact identifier that no document claims, compared by exact
// string equality, becomes an auto-completed record synthesized from its
// files.
func (m *Manager) LoadAll(ctx context.Context) ([]*model.Record, error) {
	if m.workspace == "" {
		return nil, ErrNoWorkspace
	}

	docs, err := m.documentPaths()
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error reading workspace: %v", err), Level: LevelError})
		return nil, err
	}

	var records []*model.Record
	index := make(map[string]int)

	for _, path := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := m.parser.ParseFile(path)
		if err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error reading %s: %v", filepath.Base(path), err), Level: LevelWarning})
			continue
		}
		if rec.BuildNumber == "" {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Skipping %s: no build number", filepath.Base(path)), Level: LevelVerbose})
			continue
		}
		m.resolvePaths(rec, m.workspace)

		if i, ok := index[rec.BuildNumber]; ok {
			m.progress(ProgressEvent{
				Message: fmt.Sprintf("Duplicate build %s: %s replaces %s", rec.BuildNumber, filepath.Base(path), filepath.Base(records[i].SourcePath)),
				Level:   LevelWarning,
			})
			records[i] = rec
			continue
		}
		index[rec.BuildNumber] = len(records)
		records = append(records, rec)
	}
	documented := len(records)

	ids, err := m.scanner.UniqueIdentifiers(m.workspace)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error scanning workspace: %v", err), Level: LevelError})
		return nil, err
	}

	for _, id := range ids {
		if _, ok := index[id]; ok {
			continue
		}
		rec, err := m.scanner.BuildRecordFromFiles(m.workspace, id)
		if err != nil {
			return nil, err
		}
		if rec.BuildNumber == "" {
			continue
		}
		rec.AutoCompleted = true
		index[id] = len(records)
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].BuildDate.After(records[j].BuildDate)
	})

	m.progress(ProgressEvent{
		Message: fmt.Sprintf("Loaded %d builds (%d documented, %d discovered)", len(records), documented, len(records)-documented),
		Level:   LevelSuccess,
	})
	return records, nil
}

// CreateNew returns an empty record listing every artifact in the workspace.
func (m *Manager) CreateNew() (*model.Record, error) {
	rec := model.NewRecord(m.now())
	if m.workspace == "" {
		return rec, nil
	}

	files, err := m.scanner.Scan(m.workspace)
	if err != nil {
		return nil, err
	}
	rec.Files = files
	return rec, nil
}

// Save writes rec as Markdown into the workspace and returns the path.
//
// The file is BUILD_LOG_{build}.md, or BUILD_LOG_{yyyyMMdd_HHmmss}.md from
// the current time when the build number is empty. LastUpdated is stamped
// and SourcePath is set on success. Validation is up to the caller.
func (m *Manager) Save(ctx context.Context, rec *model.Record) (string, error) {
	if m.workspace == "" {
		return "", ErrNoWorkspace
	}

	now := m.now()
	name := "BUILD_LOG_" + now.Format("20060102_150405") + ".md"
	if rec.BuildNumber != "" {
		name = "BUILD_LOG_" + ioutils.SanitizeFileName(rec.BuildNumber) + ".md"
	}
	path := filepath.Join(m.workspace, name)

	rec.LastUpdated = now
	if err := ioutils.WriteFile(ctx, path, []byte(m.generator.Generate(rec))); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error saving %s: %v", name, err), Level: LevelError})
		return "", fmt.Errorf("save %s: %w", name, err)
	}

	rec.SourcePath = path
	m.progress(ProgressEvent{Message: fmt.Sprintf("Saved %s", name), Level: LevelSuccess})
	return path, nil
}

// DefaultExportPath returns where an export of rec in format goes when no
// path is given: BUILD_LOG_{build}.{ext} (BUILD_LOG.{ext} without a build
// number) in the export directory, falling back to the workspace.
func (m *Manager) DefaultExportPath(rec *model.Record, format string) (string, error) {
	dir := m.settings.ExportDir()
	if dir == "" {
		return "", ErrNoWorkspace
	}

	name := "BUILD_LOG." + format
	if rec.BuildNumber != "" {
		name = "BUILD_LOG_" + ioutils.SanitizeFileName(rec.BuildNumber) + "." + format
	}
	return filepath.Join(dir, name), nil
}

// Export renders rec in format (md, html, pdf or json) and writes it to
// path, or to DefaultExportPath when path is empty. It returns the path
// written.
func (m *Manager) Export(ctx context.Context, rec *model.Record, format, path string) (string, error) {
	switch strings.ToLower(format) {
	case FormatMarkdown, "markdown":
		return m.ExportMarkdown(ctx, rec, path)
	case FormatHTML:
		return m.ExportHTML(ctx, rec, path)
	case FormatPDF:
		return m.ExportPDF(ctx, rec, path)
	case FormatJSON:
		return m.ExportJSON(ctx, rec, path)
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
}

// ExportMarkdown writes the Markdown document of rec.
func (m *Manager) ExportMarkdown(ctx context.Context, rec *model.Record, path string) (string, error) {
	return m.export(ctx, rec, FormatMarkdown, path, func() ([]byte, error) {
		return []byte(m.generator.Generate(rec)), nil
	})
}

// ExportHTML writes rec as a standalone HTML page.
func (m *Manager) ExportHTML(ctx context.Context, rec *model.Record, path string) (string, error) {
	return m.export(ctx, rec, FormatHTML, path, func() ([]byte, error) {
		return m.html.Generate(rec)
	})
}

// ExportPDF writes rec as a PDF document.
func (m *Manager) ExportPDF(ctx context.Context, rec *model.Record, path string) (string, error) {
	return m.export(ctx, rec, FormatPDF, path, func() ([]byte, error) {
		return m.pdf.Generate(rec)
	})
}

// ExportJSON writes rec as a JSON document.
func (m *Manager) ExportJSON(ctx context.Context, rec *model.Record, path string) (string, error) {
	return m.export(ctx, rec, FormatJSON, path, func() ([]byte, error) {
		return dto.Marshal(rec)
	})
}

func (m *Manager) export(ctx context.Context, rec *model.Record, format, path string, render func() ([]byte, error)) (string, error) {
	if path == "" {
		var err error
		path, err = m.DefaultExportPath(rec, format)
		if err != nil {
			return "", err
		}
	}

	rec.LastUpdated = m.now()
	data, err := render()
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Export failed: %v", err), Level: LevelError})
		return "", err
	}

	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating directory: %v", err), Level: LevelError})
		return "", err
	}
	if err := ioutils.WriteFile(ctx, path, data); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error writing %s: %v", filepath.Base(path), err), Level: LevelError})
		return "", fmt.Errorf("export %s: %w", filepath.Base(path), err)
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Exported %s", path), Level: LevelSuccess})
	return path, nil
}

// Import reads a build log from a Markdown (.md) or JSON (.json) document.
//
// File entries are resolved against the document's directory and then the
// workspace. A missing file returns an error wrapping ErrNotFound.
func (m *Manager) Import(ctx context.Context, path string) (*model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("import %s: %w", path, ErrNotFound)
		}
		return nil, err
	}

	var rec *model.Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		var err error
		rec, err = m.parser.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", path, err)
		}
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", path, err)
		}
		rec, err = dto.Unmarshal(data, m.now())
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("import %s: unsupported file type", path)
	}

	m.resolvePaths(rec, filepath.Dir(path))
	if m.workspace != "" {
		m.resolvePaths(rec, m.workspace)
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Imported %s", rec.DisplayName()), Level: LevelSuccess})
	return rec, nil
}

// ComputeChecksums replaces the hash of every file of rec that exists on
// disk with its SHA-256.
//
// Files are hashed concurrently, at most settings.ChecksumConcurrency at a
// time. Files without a resolved path, or whose path no longer exists, keep
// their hash. A failing file is reported and does not stop the others; the
// returned error counts the failures.
func (m *Manager) ComputeChecksums(ctx context.Context, rec *model.Record) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(m.settings.ChecksumConcurrency, 1))

	var hashed, failed int32
	var mu sync.Mutex
	var firstErr error

	for _, f := range rec.Files {
		if !f.HasPath() {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Skipping %s: not in workspace", f.Name), Level: LevelVerbose})
			continue
		}
		if _, err := os.Stat(f.Path); err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Skipping %s: %v", f.Name, err), Level: LevelVerbose})
			continue
		}

		f := f
		g.Go(func() error {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Hashing %s", f.Name), Level: LevelVerbose})

			sum, err := scanner.ComputeHash(ctx, f.Path, nil)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				m.progress(ProgressEvent{Message: fmt.Sprintf("Error hashing %s: %v", f.Name, err), Level: LevelError})
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil // Continue with other files
			}

			f.SHA256 = sum
			atomic.AddInt32(&hashed, 1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("checksums: %d file(s) failed: %w", failed, firstErr)
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Computed %d checksums", hashed), Level: LevelSuccess})
	return nil
}

// Preview returns the Markdown document of rec.
func (m *Manager) Preview(rec *model.Record) string {
	return m.generator.Generate(rec)
}

// PreviewImages renders rec into PNG page images. dpi <= 0 uses
// settings.PreviewDPI.
func (m *Manager) PreviewImages(ctx context.Context, rec *model.Record, dpi int) ([][]byte, error) {
	if dpi <= 0 {
		dpi = m.settings.PreviewDPI
	}

	pages, err := m.preview.RenderPNG(ctx, rec, dpi)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Preview failed: %v", err), Level: LevelError})
		return nil, fmt.Errorf("pdf generation: %w", err)
	}
	return pages, nil
}

// Thumbnails scales PNG pages so each fits within maxSize pixels.
func (m *Manager) Thumbnails(ctx context.Context, pages [][]byte, maxSize int) ([][]byte, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("thumbnail size must be positive, got %d", maxSize)
	}

	thumbs := make([][]byte, 0, len(pages))
	for i, page := range pages {
		thumb, err := m.preview.Thumbnail(ctx, page, maxSize)
		if err != nil {
			return nil, fmt.Errorf("thumbnail of page %d: %w", i+1, err)
		}
		thumbs = append(thumbs, thumb)
	}
	return thumbs, nil
}

// DeleteDocument removes a generated document (.md, .html, .pdf or .json).
// Build artifacts are never deleted.
func (m *Manager) DeleteDocument(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".html", ".pdf", ".json":
	default:
		return fmt.Errorf("delete %s: not a build log document", path)
	}

	if _, ok := scanner.ParseFileName(filepath.Base(path)); ok {
		return fmt.Errorf("delete %s: file is a build artifact", path)
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", path, ErrNotFound)
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error deleting %s: %v", filepath.Base(path), err), Level: LevelError})
		return err
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Deleted %s", filepath.Base(path)), Level: LevelSuccess})
	return nil
}

// documentPaths lists README*.md then BUILD_LOG*.md files of the workspace.
func (m *Manager) documentPaths() ([]string, error) {
	entries, err := os.ReadDir(m.workspace)
	if err != nil {
		return nil, err
	}

	var readmes, logs []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		upper := strings.ToUpper(name)
		if !strings.HasSuffix(upper, ".MD") {
			continue
		}
		switch {
		case strings.HasPrefix(upper, "README"):
			readmes = append(readmes, filepath.Join(m.workspace, name))
		case strings.HasPrefix(upper, "BUILD_LOG"):
			logs = append(logs, filepath.Join(m.workspace, name))
		}
	}

	return append(readmes, logs...), nil
}

// resolvePaths sets the path of every unresolved file entry that exists
// in dir under its name.
func (m *Manager) resolvePaths(rec *model.Record, dir string) {
	for _, f := range rec.Files {
		if f.HasPath() || f.Name == "" {
			continue
		}
		candidate := filepath.Join(dir, filepath.Base(f.Name))
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			if abs, err := filepath.Abs(candidate); err == nil {
				f.Path = abs
			}
		}
	}
}

func (m *Manager) clock() time.Time {
	return m.now()
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
