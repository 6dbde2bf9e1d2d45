package viewer

import (
	"time"

	"github.com/Lllllllleong/pdfviewerbridge/internal/models"
	"github.com/google/uuid"
)

// session is the live state of the one open document.
type session struct {
	id          string
	locator     string
	title       string
	doc         Document
	pageCount   int
	currentPage int
	openedAt    time.Time
	sub         Subscription
}

func newSession(opts OpenOptions, doc Document) *session {
	return &session{
		id:       uuid.NewString(),
		locator:  opts.Locator,
		title:    opts.Title,
		doc:      doc,
		openedAt: time.Now(),
	}
}

// release drops the page-change subscription. Safe to call more than once.
func (s *session) release(r Renderer) {
	if s.sub == nil {
		return
	}
	r.Unsubscribe(s.sub)
	s.sub = nil
}

// clamp keeps currentPage inside [0, pageCount).
func (s *session) clamp() {
	switch {
	case s.pageCount <= 0:
		s.pageCount = 0
		s.currentPage = 0
	case s.currentPage >= s.pageCount:
		s.currentPage = s.pageCount - 1
	case s.currentPage < 0:
		s.currentPage = 0
	}
}

func (s *session) snapshot(isOpen bool) models.StatusSnapshot {
	if s == nil || !isOpen {
		return models.StatusSnapshot{}
	}
	return models.StatusSnapshot{
		IsOpen:    true,
		IsAtEnd:   s.pageCount > 0 && s.currentPage >= s.pageCount-1,
		Page:      s.currentPage,
		PageCount: s.pageCount,
	}
}
