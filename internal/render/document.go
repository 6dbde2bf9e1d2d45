package render

import (
	"strconv"

	"github.com/Lllllllleong/pdfviewerbridge/internal/viewer"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Document is a parsed, validated PDF.
type Document struct {
	locator string
	pdf     *model.Context
	pages   []*Page
}

func newDocument(locator string, pdf *model.Context, pageCount int) *Document {
	d := &Document{locator: locator, pdf: pdf}
	d.pages = make([]*Page, pageCount)
	for i := range d.pages {
		d.pages[i] = &Page{doc: d, index: i}
	}
	return d
}

// Locator is where the document was loaded from.
func (d *Document) Locator() string { return d.locator }

// PageCount implements viewer.Document.
func (d *Document) PageCount() int { return len(d.pages) }

// Page returns the handle for the zero-based index.
func (d *Document) Page(index int) (*Page, bool) {
	if index < 0 || index >= len(d.pages) {
		return nil, false
	}
	return d.pages[index], true
}

// IndexOf implements viewer.Document.
func (d *Document) IndexOf(page viewer.Page) int {
	p, ok := page.(*Page)
	if !ok || p == nil || p.doc != d {
		return -1
	}
	return p.index
}

// Page is a page handle within a Document.
type Page struct {
	doc   *Document
	index int
}

// Label is the one-based page number.
func (p *Page) Label() string { return strconv.Itoa(p.index + 1) }
