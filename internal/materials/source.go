package materials

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Source is something that can be uploaded: a local file, a URL or pasted text.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads a local file (picked or dropped onto the terminal).
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return filepath.Base(s.Path) }

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	return f, nil
}

// URLSource downloads a remote document and uploads its body.
type URLSource struct {
	URL  string
	HTTP *http.Client // defaults to http.DefaultClient
}

// Name is the last path segment of the URL.
func (s URLSource) Name() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return "download"
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return "download"
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		return unescaped
	}
	return base
}

func (s URLSource) Open(ctx context.Context) (io.ReadCloser, error) {
	httpClient := s.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", s.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: HTTP %d", s.URL, resp.StatusCode)
	}
	return resp.Body, nil
}

// TextSource uploads pasted text as a .txt document.
type TextSource struct {
	Title string
	Text  string
}

func (s TextSource) Name() string {
	name := strings.TrimSpace(s.Title)
	if name == "" {
		name = "pasted-text"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".txt") {
		name += ".txt"
	}
	return name
}

func (s TextSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.Text)), nil
}

// IsArchive reports whether a file name routes to the expand-and-classify
// endpoint.
func IsArchive(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".zip")
}
