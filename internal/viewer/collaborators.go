package viewer

import (
	"context"

	"github.com/Lllllllleong/pdfviewerbridge/internal/models"
)

// View is anything that can be placed on a MountPoint.
type View interface {
	Frame() models.Rect
	SetFrame(frame models.Rect)
}

// MountPoint is the host's top-level visible surface.
type MountPoint interface {
	IsAttached(v View) bool
	Attach(v View) error
	Detach(v View) error
	BringToFront(v View) error
	SendToBack(v View) error
	Bounds() models.Rect
}

// Page is an opaque page handle issued by a Renderer.
type Page interface {
	Label() string
}

// Document is a loaded document owned by the session that opened it.
type Document interface {
	PageCount() int
	// IndexOf returns the zero-based index of page, or -1 if the page does
	// not belong to this document.
	IndexOf(page Page) int
}

// Subscription is a handle to a page-change registration.
type Subscription interface {
	ID() uint64
}

// Renderer draws documents into its own view. Page-change handlers may be
// invoked on any goroutine.
type Renderer interface {
	View
	Load(ctx context.Context, locator string) (Document, error)
	Document() Document
	SetDocument(doc Document)
	SetDisplay(opts models.DisplayOptions)
	CurrentPage() (Page, bool)
	GoToPage(index int)
	OnPageChanged(handler func()) Subscription
	Unsubscribe(sub Subscription)
}
