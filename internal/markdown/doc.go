// Package markdown converts build records to and from the build log
// Markdown document, the system's persistent format.
//
// # Generating
//
//	gen := markdown.NewGenerator()
//	content := gen.Generate(rec)
//
// The document has a fixed layout: a title, then the sections
//   - Build Information, Files (always)
//   - Changelog with App Updates and four free-text subsections
//   - Known Issues, Testing Status (when non-empty)
//   - Dependencies, Recommended For (always)
//   - Customer Release Notes (when non-empty)
//   - Build Engineer (always)
//
// and a "Last updated" footer.
//
// # Parsing
//
//	p := markdown.NewParser()
//	rec := p.Parse(content)
//	rec, err := p.ParseFile("BUILD_LOG_AAL-AA-07009-01.md")
//
// The parser is a single pass over the lines of the document. It tracks the
// current section and subsection and dispatches each line to the handler of
// that section. It accepts hand-edited documents: bold markers and backticks
// are optional, unknown lines are skipped and unparseable dates keep their
// defaults.
//
// # Limitations
//
// Table cells are not escaped. A value containing "|" produces an extra
// cell and shifts the remaining columns when parsed back. Bold markers and
// backticks inside table values are stripped on parse.
package markdown
