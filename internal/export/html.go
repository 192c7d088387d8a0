package export

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/handiism/buildlog-dashboard/internal/markdown"
	"github.com/handiism/buildlog-dashboard/internal/model"
)

// stylesheet is embedded in every exported page.
const stylesheet = `body {
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif;
  max-width: 960px;
  margin: 2em auto;
  padding: 0 1em;
  color: #24292f;
  line-height: 1.5;
}
h1 { border-bottom: 2px solid #d0d7de; padding-bottom: .3em; }
h2 { border-bottom: 1px solid #d0d7de; padding-bottom: .2em; margin-top: 1.6em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
th, td { border: 1px solid #d0d7de; padding: 6px 12px; text-align: left; vertical-align: top; }
th { background: #f6f8fa; }
tr:nth-child(even) td { background: #fbfcfd; }
code { font-family: SFMono-Regular, Consolas, "Liberation Mono", monospace; font-size: 90%; word-break: break-all; }
ul.contains-task-list { list-style: none; padding-left: 1em; }
hr { border: 0; border-top: 1px solid #d0d7de; }
@media print { body { max-width: none; margin: 0; } }
`

// HTMLGenerator renders a record as a standalone HTML page.
//
// The record is serialized to Markdown first, then converted with goldmark
// (GitHub Flavored Markdown: tables, task lists, autolinks) and wrapped in a
// page with a fixed stylesheet. Raw HTML in the source is not passed through.
//
// Example:
//
//	gen := NewHTMLGenerator()
//	page, err := gen.Generate(rec)
//	os.WriteFile("BUILD_LOG_B1.html", page, 0644)
type HTMLGenerator struct {
	md       goldmark.Markdown
	markdown *markdown.Generator
}

// NewHTMLGenerator creates a new HTMLGenerator.
func NewHTMLGenerator() *HTMLGenerator {
	return &HTMLGenerator{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithXHTML()),
		),
		markdown: markdown.NewGenerator(),
	}
}

// Generate renders rec as an HTML page.
func (g *HTMLGenerator) Generate(rec *model.Record) ([]byte, error) {
	return g.Convert(rec.BuildNumber, g.markdown.Generate(rec))
}

// Convert renders a Markdown document as an HTML page titled
// "Build Log - {buildNumber}".
func (g *HTMLGenerator) Convert(buildNumber, source string) ([]byte, error) {
	var body bytes.Buffer
	if err := g.md.Convert([]byte(source), &body); err != nil {
		return nil, fmt.Errorf("html generation: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n")
	page.WriteString("<html lang=\"en\">\n<head>\n")
	page.WriteString("<meta charset=\"utf-8\">\n")
	page.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	page.WriteString(fmt.Sprintf("<title>Build Log - %s</title>\n", html.EscapeString(buildNumber)))
	page.WriteString("<style>\n" + stylesheet + "</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	return page.Bytes(), nil
}
