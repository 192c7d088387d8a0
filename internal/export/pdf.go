package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/handiism/buildlog-dashboard/internal/markdown"
	"github.com/handiism/buildlog-dashboard/internal/model"
)

const (
	pdfMargin     = 15.0
	pdfLineHeight = 5.0
	pdfFont       = "Helvetica"
)

// PDFGenerator lays a record out as a printable PDF document.
//
// The layout follows the Markdown document section by section: a title,
// then Build Information, Files, Changelog, Known Issues, Testing Status,
// Dependencies, Recommended For, Customer Release Notes and Build Engineer.
// Tables wrap long cells (such as SHA-256 hashes) onto several lines. Every
// page carries a footer with the last-updated time and the page number.
//
// Text is set in the PDF core fonts, so characters outside Windows-1252 are
// replaced; test results are printed without their status glyphs.
//
// Example:
//
//	gen := NewPDFGenerator("A4")
//	data, err := gen.Generate(rec)
type PDFGenerator struct {
	// PageSize is a name accepted by LookupPageSize.
	PageSize string
}

// NewPDFGenerator creates a PDFGenerator for the given paper size.
func NewPDFGenerator(pageSize string) *PDFGenerator {
	return &PDFGenerator{PageSize: pageSize}
}

// Generate renders rec as PDF bytes.
func (g *PDFGenerator) Generate(rec *model.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.Write(&buf, rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders rec as PDF into w.
func (g *PDFGenerator) Write(w io.Writer, rec *model.Record) error {
	size, err := LookupPageSize(g.PageSize)
	if err != nil {
		return fmt.Errorf("pdf generation: %w", err)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: size.Width, Ht: size.Height},
	})
	pw := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pw.layout(rec)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf generation: %w", err)
	}
	return nil
}

// pdfWriter holds the document being built and the text translator.
type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (w *pdfWriter) layout(rec *model.Record) {
	pdf := w.pdf
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle("Build Log - "+rec.BuildNumber, true)
	pdf.SetCreator("buildlog", true)
	pdf.AliasNbPages("")

	updated := rec.LastUpdated.Format(markdown.TimestampLayout)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin + 3)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 5, fmt.Sprintf("Last updated: %s", updated), "", 0, "L", false, 0, "")
		pdf.SetX(pdfMargin)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 8, w.tr("Android OS Image Build Log - "+rec.BuildNumber), "", "L", false)
	pdf.Ln(2)

	w.heading(markdown.SectionBuildInfo)
	w.table([]string{"Property", "Value"}, []float64{0.3, 0.7}, [][]string{
		{"Build Number", rec.BuildNumber},
		{"Build Date", rec.BuildDate.Format(markdown.DateLayout)},
		{"Device", rec.Device},
		{"Build Type", string(rec.BuildType)},
		{"Android Version", rec.AndroidVersion},
		{"Security Patch", rec.SecurityPatch},
		{"Kernel Version", rec.KernelVersion},
		{"Previous Build", rec.PreviousBuild},
	})

	w.heading(markdown.SectionFiles)
	files := make([][]string, 0, len(rec.Files))
	for _, f := range rec.Files {
		files = append(files, []string{f.Name, f.Size, f.SHA256})
	}
	w.table([]string{"File", "Size", "SHA256"}, []float64{0.4, 0.12, 0.48}, files)

	w.heading(markdown.SectionChangelog)
	if len(rec.AppUpdates) > 0 {
		w.subheading(markdown.SubsectionAppUpdates)
		apps := make([][]string, 0, len(rec.AppUpdates))
		for _, app := range rec.AppUpdates {
			apps = append(apps, []string{app.Name, app.Path, app.Version, app.Changes})
		}
		w.table([]string{"App", "Path", "Version", "Changes"}, []float64{0.2, 0.3, 0.15, 0.35}, apps)

		for _, app := range rec.AppUpdates {
			if len(app.Details) > 0 {
				w.subheading(app.Name + " Details")
				w.bullets(app.Details)
			}
		}
	}
	w.bulletBlock(markdown.SubsectionSystemMods, rec.SystemModifications)
	w.bulletBlock(markdown.SubsectionKernelDrivers, rec.KernelDriverChanges)
	w.bulletBlock(markdown.SubsectionConfiguration, rec.ConfigurationChanges)
	w.bulletBlock(markdown.SubsectionRemoved, rec.RemovedComponents)

	if len(rec.KnownIssues) > 0 {
		w.heading(markdown.SectionKnownIssues)
		issues := make([][]string, 0, len(rec.KnownIssues))
		for _, issue := range rec.KnownIssues {
			issues = append(issues, []string{issue.Issue, string(issue.Severity), string(issue.Status), issue.Workaround})
		}
		w.table([]string{"Issue", "Severity", "Status", "Workaround"}, []float64{0.4, 0.13, 0.15, 0.32}, issues)
	}

	if len(rec.TestResults) > 0 {
		w.heading(markdown.SectionTesting)
		tests := make([][]string, 0, len(rec.TestResults))
		for _, tr := range rec.TestResults {
			tests = append(tests, []string{tr.Name, string(tr.Result), tr.Notes})
		}
		w.table([]string{"Test", "Result", "Notes"}, []float64{0.35, 0.15, 0.5}, tests)
	}

	w.heading(markdown.SectionDependencies)
	w.bullets([]string{
		"Bootloader Version: " + rec.BootloaderVersion,
		"Compatible OTA Builds: " + rec.CompatibleOTABuilds,
	})

	w.heading(markdown.SectionRecommended)
	recommended := []string{
		"[x] Internal Testing",
		"[" + checkMark(rec.CustomerRelease) + "] Customer Release",
	}
	if strings.TrimSpace(rec.SpecificCustomer) != "" {
		recommended = append(recommended, "Specific Customer: "+rec.SpecificCustomer)
	}
	w.bullets(recommended)

	if strings.TrimSpace(rec.CustomerReleaseNotes) != "" {
		w.heading(markdown.SectionReleaseNotes)
		w.paragraph(rec.CustomerReleaseNotes)
	}

	w.heading(markdown.SectionBuildEngineer)
	engineer := []string{"Built by: " + rec.BuiltBy, "Reviewed by: " + rec.ReviewedBy}
	if rec.ApprovedForRelease != nil {
		engineer = append(engineer, "Approved for release: "+rec.ApprovedForRelease.Format(markdown.DateLayout))
	}
	w.bullets(engineer)
}

func (w *pdfWriter) heading(text string) {
	w.pdf.Ln(3)
	w.pdf.SetFont(pdfFont, "B", 13)
	w.pdf.SetFillColor(235, 238, 242)
	w.pdf.CellFormat(0, 8, w.tr(text), "", 1, "L", true, 0, "")
	w.pdf.Ln(1)
}

func (w *pdfWriter) subheading(text string) {
	w.pdf.SetFont(pdfFont, "B", 11)
	w.pdf.CellFormat(0, 7, w.tr(text), "", 1, "L", false, 0, "")
}

func (w *pdfWriter) paragraph(text string) {
	w.pdf.SetFont(pdfFont, "", 10)
	w.pdf.MultiCell(0, pdfLineHeight, w.tr(text), "", "L", false)
}

func (w *pdfWriter) bullets(lines []string) {
	w.pdf.SetFont(pdfFont, "", 10)
	left, _, _, _ := w.pdf.GetMargins()
	for _, line := range lines {
		w.pdf.SetX(left + 2)
		w.pdf.CellFormat(4, pdfLineHeight, w.tr("-"), "", 0, "L", false, 0, "")
		w.pdf.MultiCell(0, pdfLineHeight, w.tr(line), "", "L", false)
	}
}

func (w *pdfWriter) bulletBlock(title, block string) {
	if strings.TrimSpace(block) == "" {
		return
	}
	w.subheading(title)
	w.bullets(model.SplitLines(block))
}

// table draws a bordered table. fractions give each column's share of the
// printable width.
func (w *pdfWriter) table(headers []string, fractions []float64, rows [][]string) {
	pageW, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	usable := pageW - left - right

	widths := make([]float64, len(fractions))
	for i, f := range fractions {
		widths[i] = usable * f
	}

	w.pdf.SetFont(pdfFont, "B", 9)
	w.pdf.SetFillColor(246, 248, 250)
	w.row(widths, headers, true)

	w.pdf.SetFont(pdfFont, "", 9)
	for _, cells := range rows {
		w.row(widths, cells, false)
	}
	w.pdf.Ln(2)
}

// row draws one table row, wrapping each cell and growing the row to the
// tallest cell. Rows are moved whole to the next page when they do not fit.
func (w *pdfWriter) row(widths []float64, cells []string, fill bool) {
	pdf := w.pdf

	split := make([][]string, len(widths))
	lines := 1
	for i := range widths {
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		split[i] = w.split(text, widths[i]-2)
		if len(split[i]) > lines {
			lines = len(split[i])
		}
	}
	height := float64(lines) * pdfLineHeight

	_, pageH := pdf.GetPageSize()
	left, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+height > pageH-bottom {
		pdf.AddPage()
	}

	x, y := left, pdf.GetY()
	style := "D"
	if fill {
		style = "FD"
	}
	for i, width := range widths {
		pdf.Rect(x, y, width, height, style)
		for j, line := range split[i] {
			pdf.SetXY(x+1, y+float64(j)*pdfLineHeight)
			pdf.CellFormat(width-2, pdfLineHeight, line, "", 0, "L", false, 0, "")
		}
		x += width
	}
	pdf.SetXY(left, y+height)
}

// split wraps text to width and returns the lines in the font encoding.
//
// SplitText measures runes against the 256-entry width table of the core
// fonts, so the encoded bytes are widened to runes for measuring and
// narrowed back afterwards.
func (w *pdfWriter) split(text string, width float64) []string {
	encoded := w.tr(text)
	runes := make([]rune, len(encoded))
	for i := 0; i < len(encoded); i++ {
		runes[i] = rune(encoded[i])
	}

	lines := w.pdf.SplitText(string(runes), width)
	for i, line := range lines {
		b := make([]byte, 0, len(line))
		for _, r := range line {
			b = append(b, byte(r))
		}
		lines[i] = string(b)
	}
	return lines
}

func checkMark(checked bool) string {
	if checked {
		return "x"
	}
	return " "
}
