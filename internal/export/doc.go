// Package export renders build records into shareable formats.
//
// # HTML
//
// HTMLGenerator converts the record's Markdown document with goldmark (GFM
// tables and task lists) and wraps it in a page with a fixed stylesheet:
//
//	page, err := export.NewHTMLGenerator().Generate(rec)
//
// # PDF
//
// PDFGenerator lays the record out directly with fpdf, one bordered table
// or bullet list per section:
//
//	data, err := export.NewPDFGenerator("A4").Generate(rec)
//
// # Page Previews
//
// PreviewRenderer rasterizes the document into page images at a chosen DPI
// and can scale a page down to a thumbnail:
//
//	r := export.NewPreviewRenderer("A4")
//	pages, err := r.RenderPNG(ctx, rec, 150)
//	thumb, err := r.Thumbnail(ctx, pages[0], 200)
//
// Supported paper sizes are A3, A4, A5, Letter and Legal. Generation
// failures are wrapped with an "html generation:" or "pdf generation:"
// prefix.
package export
