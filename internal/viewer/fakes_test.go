package viewer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/Lllllllleong/pdfviewerbridge/internal/models"
)

var errNoDocument = errors.New("no such document")

type fakeDoc struct {
	locator string
	pages   int
}

func (d *fakeDoc) PageCount() int { return d.pages }

func (d *fakeDoc) IndexOf(page Page) int {
	p, ok := page.(fakePage)
	if !ok || p.doc != d {
		return -1
	}
	return p.index
}

type fakePage struct {
	doc   *fakeDoc
	index int
}

func (p fakePage) Label() string { return strconv.Itoa(p.index + 1) }

type fakeSub uint64

func (s fakeSub) ID() uint64 { return uint64(s) }

// fakeRenderer serves documents from a locator→page-count table. When gate is
// set, Load signals started and blocks until gate is closed.
type fakeRenderer struct {
	mu       sync.Mutex
	docs     map[string]int
	gate     chan struct{}
	started  chan struct{}
	doc      *fakeDoc
	current  int
	frame    models.Rect
	display  models.DisplayOptions
	handlers map[uint64]func()
	nextID   uint64
}

func newFakeRenderer(docs map[string]int) *fakeRenderer {
	return &fakeRenderer{docs: docs, handlers: make(map[uint64]func())}
}

func (r *fakeRenderer) hold() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = make(chan struct{})
	r.started = make(chan struct{}, 1)
}

func (r *fakeRenderer) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	close(r.gate)
}

func (r *fakeRenderer) Load(ctx context.Context, locator string) (Document, error) {
	r.mu.Lock()
	gate, started := r.gate, r.started
	pages, ok := r.docs[locator]
	r.mu.Unlock()

	if gate != nil {
		started <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", locator, errNoDocument)
	}
	return &fakeDoc{locator: locator, pages: pages}, nil
}

func (r *fakeRenderer) Document() Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doc == nil {
		return nil
	}
	return r.doc
}

func (r *fakeRenderer) SetDocument(doc Document) {
	d, _ := doc.(*fakeDoc)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = d
	r.current = 0
}

func (r *fakeRenderer) SetDisplay(opts models.DisplayOptions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.display = opts
}

func (r *fakeRenderer) Frame() models.Rect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

func (r *fakeRenderer) SetFrame(frame models.Rect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame = frame
}

func (r *fakeRenderer) CurrentPage() (Page, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doc == nil || r.doc.pages == 0 {
		return nil, false
	}
	return fakePage{doc: r.doc, index: r.current}, true
}

func (r *fakeRenderer) GoToPage(index int) {
	r.mu.Lock()
	if r.doc == nil || index < 0 || index >= r.doc.pages || index == r.current {
		r.mu.Unlock()
		return
	}
	r.current = index
	handlers := make([]func(), 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}

func (r *fakeRenderer) OnPageChanged(handler func()) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.handlers[r.nextID] = handler
	return fakeSub(r.nextID)
}

func (r *fakeRenderer) Unsubscribe(sub Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, sub.ID())
}

func (r *fakeRenderer) subscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers)
}

func (r *fakeRenderer) displayOptions() models.DisplayOptions {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.display
}

// fakeMount records the view stack and can be told to fail detaches.
type fakeMount struct {
	mu        sync.Mutex
	bounds    models.Rect
	stack     []View
	detachErr error
	calls     []string
}

func newFakeMount(bounds models.Rect) *fakeMount {
	return &fakeMount{bounds: bounds}
}

func (m *fakeMount) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *fakeMount) IsAttached(v View) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.stack, v)
}

func (m *fakeMount) Attach(v View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("attach")
	if !slices.Contains(m.stack, v) {
		m.stack = append(m.stack, v)
	}
	return nil
}

func (m *fakeMount) Detach(v View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("detach")
	if m.detachErr != nil {
		return m.detachErr
	}
	m.stack = slices.DeleteFunc(m.stack, func(sv View) bool { return sv == v })
	return nil
}

func (m *fakeMount) BringToFront(v View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("front")
	m.stack = append(slices.DeleteFunc(m.stack, func(sv View) bool { return sv == v }), v)
	return nil
}

func (m *fakeMount) SendToBack(v View) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("back")
	m.stack = append([]View{v}, slices.DeleteFunc(m.stack, func(sv View) bool { return sv == v })...)
	return nil
}

func (m *fakeMount) Bounds() models.Rect {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bounds
}

func (m *fakeMount) front() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

func (m *fakeMount) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}
