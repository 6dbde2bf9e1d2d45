package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Lllllllleong/pdfviewerbridge/internal/models"
)

// ReplacePolicy decides what happens when Open is called while a document is
// already being shown.
type ReplacePolicy string

const (
	// ReplaceOnLoad swaps in the new document once it has loaded.
	ReplaceOnLoad ReplacePolicy = "replace"
	// RejectWhileOpen drops the open request.
	RejectWhileOpen ReplacePolicy = "reject"
)

// ParseReplacePolicy validates a policy name.
func ParseReplacePolicy(name string) (ReplacePolicy, error) {
	switch p := ReplacePolicy(name); p {
	case ReplaceOnLoad, RejectWhileOpen:
		return p, nil
	case "":
		return ReplaceOnLoad, nil
	default:
		return "", fmt.Errorf("unknown replace policy %q", name)
	}
}

// OpenOptions describe one open request.
type OpenOptions struct {
	Locator      string
	Title        string
	Top          float64
	DefaultToEnd bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReplacePolicy sets the policy for opening over an active session.
func WithReplacePolicy(policy ReplacePolicy) Option {
	return func(c *Controller) {
		c.policy = policy
	}
}

// WithDisplay overrides the display options applied on every open.
func WithDisplay(opts models.DisplayOptions) Option {
	return func(c *Controller) {
		c.display = opts
	}
}

// Controller shows one document at a time in an overlay on a mount point.
// Fields below the collaborators are owned by the loop and only touched from
// loop tasks.
type Controller struct {
	loop     *Loop
	renderer Renderer
	mount    MountPoint
	logger   *slog.Logger
	policy   ReplacePolicy
	display  models.DisplayOptions

	session    *session
	mounted    bool
	generation uint64

	refreshPending atomic.Bool
}

// New creates a controller. The loop must be running for any call to make
// progress.
func New(loop *Loop, renderer Renderer, mount MountPoint, opts ...Option) *Controller {
	c := &Controller{
		loop:     loop,
		renderer: renderer,
		mount:    mount,
		logger:   slog.Default(),
		policy:   ReplaceOnLoad,
		display:  models.FitWidthContinuous(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open shows the document at opts.Locator. It returns immediately; the
// returned channel is closed once the open sequence has finished, whether or
// not a document ended up on screen. Load failures are logged and otherwise
// swallowed.
func (c *Controller) Open(ctx context.Context, opts OpenOptions) <-chan struct{} {
	done := make(chan struct{})
	ctx = detach(ctx)
	go func() {
		defer close(done)
		c.open(ctx, opts)
	}()
	return done
}

func (c *Controller) open(ctx context.Context, opts OpenOptions) {
	logCtx := c.logger.With("locator", opts.Locator, "top", opts.Top)

	var (
		gen      uint64
		rejected bool
	)
	err := c.loop.Sync(ctx, func(context.Context) {
		if c.session != nil && c.policy == RejectWhileOpen {
			rejected = true
			return
		}
		c.attach(logCtx)
		gen = c.generation
	})
	if err != nil {
		logCtx.Error("Could not reach the viewer loop.", "error", err)
		return
	}
	if rejected {
		logCtx.Warn("A document is already open. Dropping open request.", "policy", c.policy)
		return
	}

	doc, err := c.renderer.Load(ctx, opts.Locator)
	if err != nil {
		logCtx.Warn("Failed to load document. Open aborted.", "error", err)
		if err := c.loop.Sync(ctx, func(context.Context) { c.abandon(logCtx, gen) }); err != nil {
			logCtx.Error("Could not reach the viewer loop.", "error", err)
		}
		return
	}

	if err := c.loop.Sync(ctx, func(context.Context) { c.place(logCtx, gen, opts, doc) }); err != nil {
		logCtx.Error("Could not reach the viewer loop.", "error", err)
	}
}

// attach puts the overlay on the mount point if it is not there yet.
func (c *Controller) attach(logCtx *slog.Logger) {
	if c.mount.IsAttached(c.renderer) {
		c.mounted = true
		return
	}
	if err := c.mount.Attach(c.renderer); err != nil {
		logCtx.Error("Failed to attach overlay.", "error", err)
		return
	}
	c.mounted = true
}

// abandon undoes the attach of a failed open when nothing else is using the
// overlay.
func (c *Controller) abandon(logCtx *slog.Logger, gen uint64) {
	if gen != c.generation || c.session != nil || !c.mounted {
		return
	}
	if err := c.mount.Detach(c.renderer); err != nil {
		logCtx.Warn("Failed to detach unused overlay.", "error", err)
	}
	c.mounted = false
}

func (c *Controller) place(logCtx *slog.Logger, gen uint64, opts OpenOptions, doc Document) {
	if gen != c.generation {
		logCtx.Info("Viewer was closed while the document was loading. Discarding it.")
		return
	}
	if c.session != nil {
		if c.policy == RejectWhileOpen {
			logCtx.Warn("Another document was opened first. Discarding this one.", "sessionId", c.session.id)
			return
		}
		c.retire(logCtx)
	}

	c.attach(logCtx)
	if !c.mounted {
		return
	}

	c.renderer.SetFrame(c.mount.Bounds().InsetTop(opts.Top))
	if err := c.mount.BringToFront(c.renderer); err != nil {
		logCtx.Warn("Failed to bring overlay to front.", "error", err)
	}
	c.renderer.SetDisplay(c.display)
	c.renderer.SetDocument(doc)

	s := newSession(opts, doc)
	s.pageCount = doc.PageCount()
	if opts.DefaultToEnd && s.pageCount > 0 {
		s.currentPage = s.pageCount - 1
		c.renderer.GoToPage(s.currentPage)
	}
	s.sub = c.renderer.OnPageChanged(c.pageChanged)
	c.session = s

	logCtx.Info("Document opened.", "sessionId", s.id, "title", s.title, "pageCount", s.pageCount, "page", s.currentPage)
}

// retire ends the current session but leaves the overlay mounted.
func (c *Controller) retire(logCtx *slog.Logger) {
	s := c.session
	c.session = nil
	defer s.release(c.renderer)
	c.renderer.SetDocument(nil)
	logCtx.Info("Replacing open document.", "sessionId", s.id, "previousLocator", s.locator)
}

// Close hides and tears down the overlay. It returns immediately; the returned
// channel is closed once teardown has run.
func (c *Controller) Close() <-chan struct{} {
	done := make(chan struct{})
	err := c.loop.Post(func(context.Context) {
		defer close(done)
		c.close()
	})
	if err != nil {
		c.logger.Warn("Could not schedule viewer close.", "error", err)
		close(done)
	}
	return done
}

func (c *Controller) close() {
	c.generation++

	var errs []error
	attached := c.mount.IsAttached(c.renderer)
	if attached {
		if err := c.mount.SendToBack(c.renderer); err != nil {
			errs = append(errs, fmt.Errorf("send to back: %w", err))
		}
	}

	s := c.session
	c.session = nil
	if s != nil {
		defer s.release(c.renderer)
	}

	c.renderer.SetDocument(nil)
	if s != nil {
		s.release(c.renderer)
		s.pageCount = 0
		s.currentPage = 0
	}

	c.renderer.SetFrame(models.Rect{})
	if attached {
		if err := c.mount.Detach(c.renderer); err != nil {
			errs = append(errs, fmt.Errorf("detach: %w", err))
		}
	}
	c.mounted = false

	logCtx := c.logger
	if s != nil {
		logCtx = logCtx.With("sessionId", s.id, "locator", s.locator)
	}
	if err := errors.Join(errs...); err != nil {
		logCtx.Warn("Viewer closed with teardown errors.", "error", err)
		return
	}
	logCtx.Info("Viewer closed.")
}

// Status returns a snapshot of the viewer, refreshed from the renderer on the
// loop. It fails only when the loop is gone or ctx ends first.
func (c *Controller) Status(ctx context.Context) (models.StatusSnapshot, error) {
	var snap models.StatusSnapshot
	err := c.loop.Sync(ctx, func(context.Context) {
		c.refresh()
		snap = c.session.snapshot(c.renderer.Document() != nil)
	})
	if err != nil {
		return models.StatusSnapshot{}, fmt.Errorf("failed to read viewer status: %w", err)
	}
	return snap, nil
}

// pageChanged is the renderer's page-change handler. It may run on any
// goroutine; at most one refresh is queued at a time.
func (c *Controller) pageChanged() {
	if !c.refreshPending.CompareAndSwap(false, true) {
		return
	}
	err := c.loop.Post(func(context.Context) {
		c.refreshPending.Store(false)
		c.refresh()
	})
	if err != nil {
		c.refreshPending.Store(false)
	}
}

// refresh rereads page count and current page from the renderer.
func (c *Controller) refresh() {
	s := c.session
	if s == nil {
		return
	}
	doc := c.renderer.Document()
	if doc == nil {
		s.pageCount = 0
		s.currentPage = 0
		return
	}
	s.pageCount = doc.PageCount()
	if page, ok := c.renderer.CurrentPage(); ok {
		if idx := doc.IndexOf(page); idx >= 0 {
			s.currentPage = idx
		}
	}
	s.clamp()
}
