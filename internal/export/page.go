package export

import (
	"fmt"
	"strings"
)

// PageSize is a paper size in millimetres.
type PageSize struct {
	Name   string
	Width  float64
	Height float64
}

var pageSizes = []PageSize{
	{Name: "A3", Width: 297, Height: 420},
	{Name: "A4", Width: 210, Height: 297},
	{Name: "A5", Width: 148, Height: 210},
	{Name: "Letter", Width: 215.9, Height: 279.4},
	{Name: "Legal", Width: 215.9, Height: 355.6},
}

// LookupPageSize finds a paper size by name, case-insensitively.
func LookupPageSize(name string) (PageSize, error) {
	for _, ps := range pageSizes {
		if strings.EqualFold(ps.Name, strings.TrimSpace(name)) {
			return ps, nil
		}
	}
	return PageSize{}, fmt.Errorf("unknown page size %q", name)
}

// Pixels returns the page dimensions in pixels at dpi.
func (ps PageSize) Pixels(dpi int) (width, height int) {
	width = int(ps.Width / 25.4 * float64(dpi))
	height = int(ps.Height / 25.4 * float64(dpi))
	return width, height
}
