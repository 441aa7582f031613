package ingest

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

// Source holds a resolved input ready for reading.
type Source struct {
	// Name is the original filename (no directory).
	Name string
	// Size is the byte count if known in advance (-1 if unknown).
	Size int64
	// Open returns a new ReadCloser. May be called once.
	Open func() (io.ReadCloser, error)
}

// Resolve determines the type of input and returns a Source.
// Supported formats:
//
//	/path/to/export.xml             local file
//	https://example.com/export.xml  HTTP URL
func Resolve(ctx context.Context, input string, f *Fetcher) (*Source, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return resolveHTTP(ctx, input, f)
	}
	return resolveFile(input)
}

func resolveFile(p string) (*Source, error) {
	fi, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", p, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%q is a directory", p)
	}
	return &Source{
		Name: filepath.Base(p),
		Size: fi.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(p) },
	}, nil
}

func resolveHTTP(ctx context.Context, rawURL string, f *Fetcher) (*Source, error) {
	name := FilenameFromURL(rawURL)
	if name == "" {
		name = "export.xml"
	}
	return &Source{
		Name: name,
		Size: -1,
		Open: func() (io.ReadCloser, error) {
			resp, err := f.get(ctx, rawURL)
			if err != nil {
				return nil, err
			}
			return resp.Body, nil
		},
	}, nil
}

// FilenameFromURL returns the unescaped last path segment of rawURL, or ""
// when the URL has no usable path.
func FilenameFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// StatusError is returned for a non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}
