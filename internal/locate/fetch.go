package locate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// MaxDocumentSize bounds how much of a response body is read.
const MaxDocumentSize = 10 * 1024 * 1024

// DefaultFetchTimeout applies to HTTPFetcher when no client is supplied.
const DefaultFetchTimeout = 10 * time.Second

// ErrInvalidCandidate is returned for a location a fetcher cannot address.
var ErrInvalidCandidate = errors.New("invalid candidate location")

// ErrDocumentTooLarge is returned when a body exceeds MaxDocumentSize.
var ErrDocumentTooLarge = errors.New("document too large")

// Response is the outcome of a fetch that reached the source.
// Location is the final location after any redirects.
type Response struct {
	Location   string
	StatusCode int
	Body       string
}

// Fetcher retrieves the document at location.
// A non-nil error means the source was unreachable; a reachable source
// reports failure through Response.StatusCode.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (Response, error)
}

// Compile-time interface checks.
var (
	_ Fetcher = (*HTTPFetcher)(nil)
	_ Fetcher = (*FSFetcher)(nil)
)

// ---------------------------------------------------------------------------
// HTTP
// ---------------------------------------------------------------------------

// HTTPFetcher fetches candidates relative to a base URL.
type HTTPFetcher struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPFetcher creates a fetcher resolving locations against baseURL.
// A nil client gets a default one with DefaultFetchTimeout.
func NewHTTPFetcher(baseURL string, client *http.Client) (*HTTPFetcher, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: base URL must be http or https, got %q", ErrInvalidCandidate, baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &HTTPFetcher{base: base, client: client}, nil
}

// Base returns the base URL locations are resolved against.
func (f *HTTPFetcher) Base() string {
	return f.base.String()
}

// Fetch issues a GET for location. The body is only read for 2xx responses.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) (Response, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}
	target := f.base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	final := target.String()
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	out := Response{Location: final, StatusCode: resp.StatusCode}
	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxDocumentSize))
		return out, nil
	}

	body, err := readLimited(resp.Body)
	if err != nil {
		return Response{}, err
	}
	out.Body = body
	return out, nil
}

// readLimited reads r, failing if it holds more than MaxDocumentSize bytes.
func readLimited(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxDocumentSize {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrDocumentTooLarge, MaxDocumentSize)
	}
	return string(data), nil
}

// ---------------------------------------------------------------------------
// Filesystem
// ---------------------------------------------------------------------------

// FSFetcher fetches candidates from a filesystem, usually os.DirFS(root).
// Absolute and relative candidates both resolve from the FS root.
type FSFetcher struct {
	fsys fs.FS
}

// NewFSFetcher creates a fetcher reading from fsys.
func NewFSFetcher(fsys fs.FS) *FSFetcher {
	return &FSFetcher{fsys: fsys}
}

// Fetch reads location from the filesystem. A missing file is reported
// as a 404 response, not an error.
func (f *FSFetcher) Fetch(ctx context.Context, location string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	name, err := fsName(location)
	if err != nil {
		return Response{}, err
	}

	info, err := fs.Stat(f.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return Response{Location: location, StatusCode: http.StatusNotFound}, nil
	}
	if err != nil {
		return Response{}, err
	}
	if info.IsDir() {
		return Response{Location: location, StatusCode: http.StatusNotFound}, nil
	}
	if info.Size() > MaxDocumentSize {
		return Response{}, fmt.Errorf("%w: %s is %d bytes", ErrDocumentTooLarge, location, info.Size())
	}

	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		return Response{}, err
	}
	return Response{Location: location, StatusCode: http.StatusOK, Body: string(data)}, nil
}

// fsName maps a candidate location onto an fs.FS path.
func fsName(location string) (string, error) {
	name := strings.TrimLeft(location, "/")
	if name == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidCandidate)
	}
	name = path.Clean(name)
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("%w: %q escapes the root", ErrInvalidCandidate, location)
	}
	return name, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
