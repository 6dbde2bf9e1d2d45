// Package render is a headless renderer: it parses documents with pdfcpu and
// tracks which page is centered in its view.
package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Lllllllleong/pdfviewerbridge/internal/models"
	"github.com/Lllllllleong/pdfviewerbridge/internal/viewer"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Fetcher turns a locator into document bytes.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

type subscription struct{ id uint64 }

func (s subscription) ID() uint64 { return s.id }

// Viewer implements viewer.Renderer.
type Viewer struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu       sync.Mutex
	doc      *Document
	current  int
	frame    models.Rect
	display  models.DisplayOptions
	handlers map[uint64]func()
	nextID   uint64
}

// NewViewer creates a renderer that loads documents through fetcher.
func NewViewer(fetcher Fetcher, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Viewer{
		fetcher:  fetcher,
		logger:   logger,
		handlers: make(map[uint64]func()),
	}
}

// Load fetches and parses the document at locator. It does not change what the
// viewer is showing.
func (v *Viewer) Load(ctx context.Context, locator string) (viewer.Document, error) {
	data, err := v.fetcher.Fetch(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := Parse(locator, data)
	if err != nil {
		return nil, err
	}
	v.logger.Debug("Document parsed.", "locator", locator, "pageCount", doc.PageCount(), "bytes", len(data))
	return doc, nil
}

// UseBuiltinConfig makes pdfcpu use its compiled-in defaults instead of a
// config directory under the user's home, which may not be writable.
func UseBuiltinConfig() {
	api.DisableConfigDir()
}

// Parse validates data as a PDF and counts its pages.
func Parse(locator string, data []byte) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdf, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := api.ValidateContext(pdf); err != nil {
		return nil, fmt.Errorf("failed to validate PDF: %w", err)
	}
	if err := pdf.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	if pdf.PageCount < 0 {
		return nil, fmt.Errorf("invalid page count %d", pdf.PageCount)
	}
	return newDocument(locator, pdf, pdf.PageCount), nil
}

// Document implements viewer.Renderer.
func (v *Viewer) Document() viewer.Document {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.doc == nil {
		return nil
	}
	return v.doc
}

// SetDocument shows doc from its first page. A nil doc clears the view.
func (v *Viewer) SetDocument(doc viewer.Document) {
	d, _ := doc.(*Document)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.doc = d
	v.current = 0
}

// SetDisplay implements viewer.Renderer.
func (v *Viewer) SetDisplay(opts models.DisplayOptions) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.display = opts
}

// Display returns the current display options.
func (v *Viewer) Display() models.DisplayOptions {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.display
}

// Frame implements viewer.View.
func (v *Viewer) Frame() models.Rect {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frame
}

// SetFrame implements viewer.View.
func (v *Viewer) SetFrame(frame models.Rect) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frame = frame
}

// CurrentPage returns the page centered in the view.
func (v *Viewer) CurrentPage() (viewer.Page, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.doc == nil {
		return nil, false
	}
	p, ok := v.doc.Page(v.current)
	if !ok {
		return nil, false
	}
	return p, true
}

// GoToPage scrolls so that the page at index is centered, clamping to the
// document. Handlers are notified when the centered page changes.
func (v *Viewer) GoToPage(index int) {
	v.mu.Lock()
	if v.doc == nil || v.doc.PageCount() == 0 {
		v.mu.Unlock()
		return
	}
	if index < 0 {
		index = 0
	}
	if last := v.doc.PageCount() - 1; index > last {
		index = last
	}
	if index == v.current {
		v.mu.Unlock()
		return
	}
	v.current = index
	handlers := make([]func(), 0, len(v.handlers))
	for _, h := range v.handlers {
		handlers = append(handlers, h)
	}
	v.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

// OnPageChanged registers handler for centered-page changes.
func (v *Viewer) OnPageChanged(handler func()) viewer.Subscription {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextID++
	v.handlers[v.nextID] = handler
	return subscription{id: v.nextID}
}

// Unsubscribe implements viewer.Renderer. Unknown subscriptions are ignored.
func (v *Viewer) Unsubscribe(sub viewer.Subscription) {
	if sub == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.handlers, sub.ID())
}

// Subscribers reports how many handlers are registered.
func (v *Viewer) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.handlers)
}
