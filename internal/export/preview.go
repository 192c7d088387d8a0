package export

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	ioutils "github.com/handiism/buildlog-dashboard/internal/io"
	"github.com/handiism/buildlog-dashboard/internal/markdown"
	"github.com/handiism/buildlog-dashboard/internal/model"
)

// Preview pages are laid out at baseDPI with a fixed 7x13 face and then
// scaled to the requested resolution.
const (
	baseDPI     = 96
	MinDPI      = 36
	MaxDPI      = 600
	lineSpacing = 16
	pageMargin  = 48
)

var (
	headingColor = color.RGBA{R: 0x1f, G: 0x3a, B: 0x5f, A: 0xff}
	textColor    = color.RGBA{R: 0x24, G: 0x29, B: 0x2f, A: 0xff}
	ruleColor    = color.RGBA{R: 0xd0, G: 0xd7, B: 0xde, A: 0xff}
)

// PreviewRenderer rasterizes a record into page images.
//
// Pages show the Markdown document text, paginated to the configured paper
// size, so a reviewer can glance at a build log without opening a viewer.
// Headings are drawn in a darker colour with a rule underneath.
//
// Example:
//
//	r := NewPreviewRenderer("A4")
//	pages, err := r.RenderPNG(ctx, rec, 150)
//	for i, page := range pages {
//	    os.WriteFile(fmt.Sprintf("page-%d.png", i+1), page, 0644)
//	}
type PreviewRenderer struct {
	PageSize string

	markdown *markdown.Generator
	images   *ioutils.ImageService
}

// NewPreviewRenderer creates a PreviewRenderer for the given paper size.
func NewPreviewRenderer(pageSize string) *PreviewRenderer {
	return &PreviewRenderer{
		PageSize: pageSize,
		markdown: markdown.NewGenerator(),
		images:   ioutils.NewImageService(),
	}
}

// Render returns one image per page at dpi.
func (r *PreviewRenderer) Render(ctx context.Context, rec *model.Record, dpi int) ([]image.Image, error) {
	if dpi < MinDPI || dpi > MaxDPI {
		return nil, fmt.Errorf("preview dpi %d out of range [%d, %d]", dpi, MinDPI, MaxDPI)
	}
	size, err := LookupPageSize(r.PageSize)
	if err != nil {
		return nil, err
	}

	baseW, baseH := size.Pixels(baseDPI)
	cols := (baseW - 2*pageMargin) / basicfont.Face7x13.Advance
	rows := (baseH - 2*pageMargin) / lineSpacing
	if rows < 1 {
		rows = 1
	}

	lines := wrapLines(strings.Split(r.markdown.Generate(rec), "\n"), cols)

	var pages []image.Image
	for start := 0; start < len(lines) || start == 0; start += rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + rows
		if end > len(lines) {
			end = len(lines)
		}
		page := drawPage(baseW, baseH, lines[start:end])

		if dpi != baseDPI {
			w, h := size.Pixels(dpi)
			scaled := image.NewRGBA(image.Rect(0, 0, w, h))
			draw.CatmullRom.Scale(scaled, scaled.Bounds(), page, page.Bounds(), draw.Src, nil)
			pages = append(pages, scaled)
		} else {
			pages = append(pages, page)
		}
	}

	return pages, nil
}

// RenderPNG renders the pages and encodes each as PNG.
func (r *PreviewRenderer) RenderPNG(ctx context.Context, rec *model.Record, dpi int) ([][]byte, error) {
	pages, err := r.Render(ctx, rec, dpi)
	if err != nil {
		return nil, err
	}

	encoded := make([][]byte, 0, len(pages))
	for _, page := range pages {
		data, err := r.images.EncodePNG(ctx, page)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, data)
	}
	return encoded, nil
}

// Thumbnail scales a PNG page to fit within maxSize pixels.
func (r *PreviewRenderer) Thumbnail(ctx context.Context, page []byte, maxSize int) ([]byte, error) {
	return r.images.ResizeImage(ctx, page, maxSize, maxSize)
}

func drawPage(width, height int, lines []string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Face: face}

	for i, line := range lines {
		baseline := pageMargin + i*lineSpacing + face.Ascent
		d.Src = image.NewUniform(textColor)
		if strings.HasPrefix(line, "#") {
			d.Src = image.NewUniform(headingColor)
			rule := image.Rect(pageMargin, baseline+face.Descent+1, width-pageMargin, baseline+face.Descent+2)
			draw.Draw(img, rule, image.NewUniform(ruleColor), image.Point{}, draw.Src)
		}
		d.Dot = fixed.P(pageMargin, baseline)
		d.DrawString(line)
	}

	return img
}

// wrapLines hard-wraps lines at cols characters. Continuation lines are
// indented by two spaces when there is room for it.
func wrapLines(lines []string, cols int) []string {
	if cols < 1 {
		cols = 1
	}
	indent := ""
	if cols > 8 {
		indent = "  "
	}

	var wrapped []string
	for _, line := range lines {
		for utf8.RuneCountInString(line) > cols {
			runes := []rune(line)
			wrapped = append(wrapped, string(runes[:cols]))
			line = indent + string(runes[cols:])
		}
		wrapped = append(wrapped, line)
	}
	return wrapped
}
