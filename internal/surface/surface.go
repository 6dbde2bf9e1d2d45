// Package surface is a headless mount point: a fixed-size surface holding a
// z-ordered stack of views.
package surface

import (
	"errors"
	"slices"
	"sync"

	"github.com/Lllllllleong/pdfviewerbridge/internal/models"
	"github.com/Lllllllleong/pdfviewerbridge/internal/viewer"
)

// ErrNotAttached is returned when reordering a view that is not on the surface.
var ErrNotAttached = errors.New("surface: view not attached")

// Surface implements viewer.MountPoint.
type Surface struct {
	mu     sync.Mutex
	bounds models.Rect
	stack  []viewer.View // bottom to top
}

// New creates an empty surface.
func New(bounds models.Rect) *Surface {
	return &Surface{bounds: bounds}
}

func (s *Surface) indexOf(v viewer.View) int {
	for i, sv := range s.stack {
		if sv == v {
			return i
		}
	}
	return -1
}

// IsAttached implements viewer.MountPoint.
func (s *Surface) IsAttached(v viewer.View) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(v) >= 0
}

// Attach adds v on top. Attaching an attached view is a no-op.
func (s *Surface) Attach(v viewer.View) error {
	if v == nil {
		return errors.New("surface: nil view")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(v) >= 0 {
		return nil
	}
	s.stack = append(s.stack, v)
	return nil
}

// Detach removes v. Detaching a detached view is a no-op.
func (s *Surface) Detach(v viewer.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(v); i >= 0 {
		s.stack = slices.Delete(s.stack, i, i+1)
	}
	return nil
}

// BringToFront implements viewer.MountPoint.
func (s *Surface) BringToFront(v viewer.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(v)
	if i < 0 {
		return ErrNotAttached
	}
	s.stack = append(slices.Delete(s.stack, i, i+1), v)
	return nil
}

// SendToBack implements viewer.MountPoint.
func (s *Surface) SendToBack(v viewer.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(v)
	if i < 0 {
		return ErrNotAttached
	}
	s.stack = slices.Insert(slices.Delete(s.stack, i, i+1), 0, v)
	return nil
}

// Bounds implements viewer.MountPoint.
func (s *Surface) Bounds() models.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

// SetBounds resizes the surface, e.g. on rotation.
func (s *Surface) SetBounds(bounds models.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = bounds
}

// Stack returns the attached views, bottom first.
func (s *Surface) Stack() []viewer.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.stack)
}

// Front returns the topmost view, if any.
func (s *Surface) Front() (viewer.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) == 0 {
		return nil, false
	}
	return s.stack[len(s.stack)-1], true
}
