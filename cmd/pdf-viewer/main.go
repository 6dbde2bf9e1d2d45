package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/Lllllllleong/pdfviewerbridge/internal/services"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("PDF viewer stopped with an error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := services.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := services.NewApp(ctx, config)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Bridge.Register()

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return app.Loop.Run(gctx)
	})

	served := make(chan error, 1)
	go func() {
		served <- funcframework.Start(config.Port)
	}()
	eg.Go(func() error {
		select {
		case err := <-served:
			return err
		case <-gctx.Done():
			return nil
		}
	})

	slog.Info("PDF viewer listening.", "port", config.Port)
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
