package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/pdfviewerbridge/internal/gcp"
	"github.com/Lllllllleong/pdfviewerbridge/internal/models"
	"github.com/Lllllllleong/pdfviewerbridge/internal/render"
	"github.com/Lllllllleong/pdfviewerbridge/internal/source"
	"github.com/Lllllllleong/pdfviewerbridge/internal/surface"
	"github.com/Lllllllleong/pdfviewerbridge/internal/viewer"
)

// App is the fully wired viewer: the loop that owns the UI state, the
// controller, its collaborators, and the bridge in front of them.
type App struct {
	Loop       *viewer.Loop
	Controller *viewer.Controller
	Renderer   *render.Viewer
	Surface    *surface.Surface
	Bridge     *Bridge
	closers    []func() error
}

// NewApp creates cloud clients as configured and wires the viewer.
func NewApp(ctx context.Context, config *ViewerConfig) (*App, error) {
	app := &App{}
	var fetchOpts []source.Option

	if config.EnableGCS {
		storageClient, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Storage client: %w", err)
		}
		app.closers = append(app.closers, storageClient.Close)
		fetchOpts = append(fetchOpts, source.WithObjectReader(gcp.NewStorageReader(storageClient)))
	}
	if config.ProjectID != "" {
		firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		app.closers = append(app.closers, firestoreClient.Close)
		fetchOpts = append(fetchOpts, source.WithCatalog(gcp.NewCatalog(firestoreClient, config.CatalogCollection)))
	}

	fetchOpts = append(fetchOpts,
		source.WithHTTPClient(source.NewHTTPClient(config.HTTPConnectTimeout, config.HTTPReadTimeout)),
		source.WithMaxBytes(config.MaxDocumentBytes),
	)

	if err := app.wire(config, source.NewFetcher(fetchOpts...)); err != nil {
		_ = app.Close()
		return nil, err
	}
	slog.Info("PDF viewer initialized.",
		"replacePolicy", config.ReplacePolicy,
		"gcs", config.EnableGCS,
		"catalog", config.ProjectID != "",
	)
	return app, nil
}

// NewLocalApp wires the viewer without creating cloud clients. It serves
// local files and HTTP(S); extra options can plug in other sources.
func NewLocalApp(config *ViewerConfig, opts ...source.Option) (*App, error) {
	app := &App{}
	fetchOpts := append([]source.Option{
		source.WithHTTPClient(source.NewHTTPClient(config.HTTPConnectTimeout, config.HTTPReadTimeout)),
		source.WithMaxBytes(config.MaxDocumentBytes),
	}, opts...)
	if err := app.wire(config, source.NewFetcher(fetchOpts...)); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) wire(config *ViewerConfig, fetcher render.Fetcher) error {
	policy, err := viewer.ParseReplacePolicy(config.ReplacePolicy)
	if err != nil {
		return err
	}
	logger := slog.Default().With("component", "viewer")
	render.UseBuiltinConfig()

	a.Loop = viewer.NewLoop(config.LoopQueue)
	a.Renderer = render.NewViewer(fetcher, logger)
	a.Surface = surface.New(models.Rect{Width: config.SurfaceWidth, Height: config.SurfaceHeight})
	a.Controller = viewer.New(a.Loop, a.Renderer, a.Surface,
		viewer.WithLogger(logger),
		viewer.WithReplacePolicy(policy),
	)
	a.Bridge = NewBridge(a.Controller, config.DefaultTop)
	return nil
}

// Close stops the loop and releases cloud clients.
func (a *App) Close() error {
	if a.Loop != nil {
		a.Loop.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
