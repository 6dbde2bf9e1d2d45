package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObjects map[string][]byte

func (m memObjects) ReadObject(_ context.Context, bucket, object string, limit int64) ([]byte, error) {
	data, ok := m[bucket+"/"+object]
	if !ok {
		return nil, ErrNotFound
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

type memCatalog map[string]string

func (m memCatalog) SourceURI(_ context.Context, id string) (string, error) {
	uri, ok := m[id]
	if !ok {
		return "", ErrNotFound
	}
	return uri, nil
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFetchLocalPathAndFileURL(t *testing.T) {
	path := writeTemp(t, "%PDF-1.4")
	f := NewFetcher()

	data, err := f.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	data, err = f.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestFetchLocalPathWithPercent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report 100%.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	f := NewFetcher()

	for _, locator := range []string{path, "file://" + path} {
		data, err := f.Fetch(context.Background(), locator)
		require.NoError(t, err, locator)
		assert.Equal(t, "%PDF-1.4", string(data), locator)
	}
}

func TestURLScheme(t *testing.T) {
	cases := []struct {
		locator string
		scheme  string
		ok      bool
	}{
		{"HTTPS://example.com/a.pdf", "https", true},
		{"gs://bucket/a.pdf", "gs", true},
		{"content://com.example/doc", "content", true},
		{"/data/report 100%.pdf", "", false},
		{"docs/a://b.pdf", "", false},
		{"://nothing", "", false},
	}
	for _, tc := range cases {
		scheme, ok := urlScheme(tc.locator)
		assert.Equal(t, tc.ok, ok, tc.locator)
		assert.Equal(t, tc.scheme, scheme, tc.locator)
	}
}

func TestNewHTTPClientHasNoOverallDeadline(t *testing.T) {
	client := NewHTTPClient(time.Second, 2*time.Second)

	assert.Zero(t, client.Timeout)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, transport.ResponseHeaderTimeout)
	assert.Equal(t, time.Second, transport.TLSHandshakeTimeout)
}

func TestFetchMissingFile(t *testing.T) {
	_, err := NewFetcher().Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doc.pdf":
			_, _ = w.Write([]byte("%PDF-1.7"))
		case "/broken.pdf":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	f := NewFetcher(WithHTTPClient(srv.Client()))

	data, err := f.Fetch(context.Background(), srv.URL+"/doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Fetch(context.Background(), srv.URL+"/broken.pdf")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestFetchTooLarge(t *testing.T) {
	path := writeTemp(t, "0123456789")
	f := NewFetcher(WithMaxBytes(4))

	_, err := f.Fetch(context.Background(), path)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFetchStorage(t *testing.T) {
	f := NewFetcher(WithObjectReader(memObjects{"bucket/a/b.pdf": []byte("pdf")}))

	data, err := f.Fetch(context.Background(), "gs://bucket/a/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf", string(data))

	_, err = f.Fetch(context.Background(), "gs://bucket/other.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Fetch(context.Background(), "gs://bucket")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFetchStorageWithoutClient(t *testing.T) {
	_, err := NewFetcher().Fetch(context.Background(), "gs://bucket/a.pdf")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFetchCatalog(t *testing.T) {
	path := writeTemp(t, "%PDF-1.4")
	f := NewFetcher(WithCatalog(memCatalog{
		"doc1": path,
		"loop": "catalog:doc1",
	}))

	data, err := f.Fetch(context.Background(), "catalog:doc1")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	_, err = f.Fetch(context.Background(), "catalog:missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.Fetch(context.Background(), "catalog:loop")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFetchUnsupported(t *testing.T) {
	f := NewFetcher()
	for _, locator := range []string{"", "   ", "content://com.example/doc", "catalog:doc1"} {
		_, err := f.Fetch(context.Background(), locator)
		assert.ErrorIs(t, err, ErrUnsupported, locator)
	}
}
