package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxBytes caps a single download.
const DefaultMaxBytes = 100 << 20

// Fetcher downloads remote content with a bounded per-request timeout.
type Fetcher struct {
	client    *http.Client
	userAgent string
	// MaxBytes caps one response body; 0 means DefaultMaxBytes.
	MaxBytes int64
}

// NewFetcher returns a Fetcher whose requests time out after timeout.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Download is a fully read response body.
type Download struct {
	Data        []byte
	SHA256      string
	ContentType string
}

// Size returns the number of bytes downloaded.
func (d *Download) Size() int64 { return int64(len(d.Data)) }

// Fetch GETs rawURL and reads the whole body. Any status other than 200 is
// a *StatusError; a timeout surfaces as the client's deadline error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Download, error) {
	resp, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	r := NewReader(resp.Body, limit)
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, fmt.Errorf("GET %s: %w", rawURL, err)
		}
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return &Download{
		Data:        buf.Bytes(),
		SHA256:      r.SHA256(),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}
	return resp, nil
}
