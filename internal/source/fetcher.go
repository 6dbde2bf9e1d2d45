// Package source resolves document locators to document bytes.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

var (
	// ErrUnsupported is returned for locators no configured backend can serve.
	ErrUnsupported = errors.New("source: unsupported locator")
	// ErrNotFound is returned when the locator points at nothing.
	ErrNotFound = errors.New("source: document not found")
	// ErrTooLarge is returned when a document exceeds the size limit.
	ErrTooLarge = errors.New("source: document too large")
)

// CatalogScheme prefixes locators that name a document record in the catalog.
const CatalogScheme = "catalog:"

// DefaultMaxBytes caps the size of a fetched document.
const DefaultMaxBytes int64 = 64 << 20

// ObjectReader reads objects from a blob store.
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, object string, limit int64) ([]byte, error)
}

// Catalog maps a catalog document ID to the URI of its source file.
type Catalog interface {
	SourceURI(ctx context.Context, documentID string) (string, error)
}

// Fetcher reads documents from local files, HTTP(S), Cloud Storage and the
// document catalog.
type Fetcher struct {
	client   *http.Client
	objects  ObjectReader
	catalog  Catalog
	maxBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the client used for http and https locators.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// WithObjectReader enables gs:// locators.
func WithObjectReader(objects ObjectReader) Option {
	return func(f *Fetcher) { f.objects = objects }
}

// WithCatalog enables catalog: locators.
func WithCatalog(catalog Catalog) Option {
	return func(f *Fetcher) { f.catalog = catalog }
}

// WithMaxBytes sets the document size limit.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewFetcher creates a Fetcher. Without options it serves local files and
// HTTP(S) with NewHTTPClient's default timeouts.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = NewHTTPClient(15*time.Second, 30*time.Second)
	}
	return f
}

// NewHTTPClient returns a client that gives up connecting after connect and
// waiting for response headers after read. The body download itself has no
// overall deadline; callers bound it with their context.
func NewHTTPClient(connect, read time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connect, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = connect
	transport.ResponseHeaderTimeout = read
	return &http.Client{Transport: transport}
}

// Fetch returns the bytes of the document at locator.
func (f *Fetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	return f.fetch(ctx, strings.TrimSpace(locator), true)
}

func (f *Fetcher) fetch(ctx context.Context, locator string, allowCatalog bool) ([]byte, error) {
	if locator == "" {
		return nil, fmt.Errorf("empty locator: %w", ErrUnsupported)
	}

	if strings.HasPrefix(locator, CatalogScheme) {
		if !allowCatalog || f.catalog == nil {
			return nil, fmt.Errorf("%s: %w", locator, ErrUnsupported)
		}
		id := strings.TrimPrefix(locator, CatalogScheme)
		uri, err := f.catalog.SourceURI(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve catalog document %s: %w", id, err)
		}
		return f.fetch(ctx, uri, false)
	}

	scheme, ok := urlScheme(locator)
	if !ok {
		return f.readFile(locator)
	}

	u, err := url.Parse(locator)
	if err != nil {
		if scheme == "file" {
			return f.readFile(locator[len("file://"):])
		}
		return nil, fmt.Errorf("invalid locator %q: %w", locator, err)
	}

	switch scheme {
	case "file":
		return f.readFile(u.Path)
	case "http", "https":
		return f.download(ctx, u.String())
	case "gs":
		if f.objects == nil {
			return nil, fmt.Errorf("%s: no storage client: %w", locator, ErrUnsupported)
		}
		object := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || object == "" {
			return nil, fmt.Errorf("invalid storage locator %q: %w", locator, ErrUnsupported)
		}
		return f.objects.ReadObject(ctx, u.Host, object, f.maxBytes)
	default:
		return nil, fmt.Errorf("scheme %q: %w", scheme, ErrUnsupported)
	}
}

// urlScheme reports the lower-cased scheme of a scheme://rest locator.
// Anything else is a local path, even if it contains characters that are not
// valid in a URL.
func urlScheme(locator string) (string, bool) {
	scheme, _, found := strings.Cut(locator, "://")
	if !found || scheme == "" {
		return "", false
	}
	for i, r := range scheme {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case i > 0 && ('0' <= r && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return "", false
		}
	}
	return strings.ToLower(scheme), true
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()
	return ReadLimited(file, f.maxBytes)
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("download %s: unexpected status %s", rawURL, resp.Status)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%s is %d bytes: %w", rawURL, resp.ContentLength, ErrTooLarge)
	}
	return ReadLimited(resp.Body, f.maxBytes)
}

// ReadLimited reads r fully, failing with ErrTooLarge past limit bytes.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("more than %d bytes: %w", limit, ErrTooLarge)
	}
	return data, nil
}
