// Package sanity is a small client for the Sanity HTTP API covering the
// query, mutate and image asset endpoints.
package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const defaultAPIVersion = "2023-05-03"

// Options configures a Client.
type Options struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	// APIHost overrides https://<project>.api.sanity.io.
	APIHost string
	Token   string
	Timeout time.Duration
}

// Client is an authenticated Sanity API client.
type Client struct {
	token   string
	dataset string
	apiBase string
	http    *http.Client

	// assets memoizes filename -> asset id lookups.
	assets *gocache.Cache
}

// New creates a Client from opts.
func New(opts Options) *Client {
	version := opts.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}
	host := opts.APIHost
	if host == "" {
		host = fmt.Sprintf("https://%s.api.sanity.io", opts.ProjectID)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute // generous for large uploads
	}
	return &Client{
		token:   opts.Token,
		dataset: opts.Dataset,
		apiBase: strings.TrimRight(host, "/") + "/v" + strings.TrimPrefix(version, "v"),
		http:    &http.Client{Timeout: timeout},
		assets:  gocache.New(30*time.Minute, time.Hour),
	}
}

// Dataset returns the dataset the client writes to.
func (c *Client) Dataset() string { return c.dataset }

// do executes the request with the bearer token.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if req.Header.Get("Content-Type") == "" && req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// doJSON sends a request and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// url builds an API URL from path segments and an optional query.
func (c *Client) url(query url.Values, parts ...string) string {
	u := c.apiBase + "/" + strings.Join(parts, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// checkStatus returns a typed error for non-2xx responses.
func checkStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode, Description: strings.TrimSpace(string(body))}
		var payload struct {
			Error struct {
				Type        string `json:"type"`
				Description string `json:"description"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error.Description != "" {
			apiErr.Type = payload.Error.Type
			apiErr.Description = payload.Error.Description
		}
		return apiErr
	}
}
