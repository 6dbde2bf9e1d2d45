package gcp

import (
	"errors"
	"net/http"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/pdfviewerbridge/internal/source"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("VIEWER_TEST_KEY", "set")

	assert.Equal(t, "set", GetEnv("VIEWER_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("VIEWER_TEST_KEY_UNSET", "fallback"))
}

func TestClassifyStorageError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{"missing object", storage.ErrObjectNotExist, true},
		{"missing bucket", storage.ErrBucketNotExist, true},
		{"api 404", &googleapi.Error{Code: http.StatusNotFound}, true},
		{"api 403", &googleapi.Error{Code: http.StatusForbidden}, true},
		{"api 500", &googleapi.Error{Code: http.StatusInternalServerError}, false},
		{"other", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStorageError("bucket", "doc.pdf", tt.err)
			assert.Equal(t, tt.notFound, errors.Is(err, source.ErrNotFound), "got %v", err)
			assert.Contains(t, err.Error(), "gs://bucket/doc.pdf")
		})
	}
}
