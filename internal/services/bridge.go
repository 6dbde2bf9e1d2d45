package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/pdfviewerbridge/internal/models"
	"github.com/Lllllllleong/pdfviewerbridge/internal/viewer"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Bridge translates host commands into controller calls.
type Bridge struct {
	controller *viewer.Controller
	defaultTop float64
}

// NewBridge creates a bridge in front of controller.
func NewBridge(controller *viewer.Controller, defaultTop float64) *Bridge {
	return &Bridge{controller: controller, defaultTop: defaultTop}
}

// Register registers the bridge's functions with the Functions Framework.
func (b *Bridge) Register() {
	functions.HTTP("Open", b.HandleOpen)
	functions.HTTP("Close", b.HandleClose)
	functions.HTTP("GetStatus", b.HandleGetStatus)
	functions.CloudEvent("OpenUploaded", b.OpenUploaded)
}

// HandleOpen dispatches an open and returns without waiting for the load.
func (b *Bridge) HandleOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode open request.", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}
	locator := req.Locator()
	if locator == "" {
		http.Error(w, "Bad Request: url is required", http.StatusBadRequest)
		return
	}

	b.controller.Open(r.Context(), viewer.OpenOptions{
		Locator:      locator,
		Title:        req.Title,
		Top:          req.TopInset(b.defaultTop),
		DefaultToEnd: req.DefaultToEnd,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleClose dispatches a close.
func (b *Bridge) HandleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	b.controller.Close()
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetStatus writes the current status snapshot as JSON.
func (b *Bridge) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	status, err := b.controller.Status(r.Context())
	if err != nil {
		slog.Error("Failed to read viewer status.", "error", err)
		code := http.StatusServiceUnavailable
		if errors.Is(err, context.Canceled) {
			// Client went away; nothing useful to send.
			code = http.StatusRequestTimeout
		}
		http.Error(w, "Service Unavailable: viewer is not running", code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		slog.Error("Failed to write status response.", "error", err)
	}
}

// OpenUploaded opens a PDF announced by a Cloud Storage finalize event.
// Non-PDF objects are ignored.
func (b *Bridge) OpenUploaded(ctx context.Context, e cloudevents.Event) error {
	var obj models.StorageObjectEvent
	if err := json.Unmarshal(e.Data(), &obj); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}
	logCtx := slog.With("eventId", e.ID(), "gcsBucket", obj.Bucket, "gcsObject", obj.Name)

	if obj.Bucket == "" || obj.Name == "" {
		logCtx.Warn("Storage event without bucket or object name. Skipping.")
		return nil
	}
	if !isPDF(obj) {
		logCtx.Info("Object is not a PDF. Skipping.", "contentType", obj.ContentType)
		return nil
	}

	b.controller.Open(ctx, viewer.OpenOptions{
		Locator: fmt.Sprintf("gs://%s/%s", obj.Bucket, obj.Name),
		Title:   path.Base(obj.Name),
		Top:     b.defaultTop,
	})
	logCtx.Info("Dispatched open for uploaded document.")
	return nil
}

func isPDF(obj models.StorageObjectEvent) bool {
	if strings.EqualFold(obj.ContentType, "application/pdf") {
		return true
	}
	return strings.EqualFold(path.Ext(obj.Name), ".pdf")
}
