package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gabriel-vasile/mimetype"
	gocache "github.com/patrickmn/go-cache"
)

// AssetMeta is the descriptive metadata sent with an upload.
type AssetMeta struct {
	Title       string
	Description string
	CreditLine  string
}

// Asset is a stored image asset document.
type Asset struct {
	ID               string `json:"_id"`
	URL              string `json:"url"`
	OriginalFilename string `json:"originalFilename"`
	MimeType         string `json:"mimeType"`
	Size             int64  `json:"size"`
}

// UploadImage uploads data as an image asset and returns the created asset.
func (c *Client) UploadImage(ctx context.Context, filename string, data []byte, meta AssetMeta) (*Asset, error) {
	q := url.Values{"filename": {filename}}
	if meta.Title != "" {
		q.Set("title", meta.Title)
	}
	if meta.Description != "" {
		q.Set("description", meta.Description)
	}
	if meta.CreditLine != "" {
		q.Set("creditLine", meta.CreditLine)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(q, "assets", "images", c.dataset), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mimetype.Detect(data).String())
	req.ContentLength = int64(len(data))

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var out struct {
		Document Asset `json:"document"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	c.assets.Set(filename, out.Document.ID, gocache.DefaultExpiration)
	return &out.Document, nil
}

// FindImageAsset returns the id of an image asset whose original filename
// matches, or "" when there is none. Results, including misses, are
// memoized per filename.
func (c *Client) FindImageAsset(ctx context.Context, filename string) (string, error) {
	if id, ok := c.assets.Get(filename); ok {
		return id.(string), nil
	}
	var id *string
	err := c.Query(ctx,
		`*[_type == "sanity.imageAsset" && originalFilename == $filename][0]._id`,
		map[string]interface{}{"filename": filename}, &id)
	if err != nil {
		return "", err
	}
	found := ""
	if id != nil {
		found = *id
	}
	c.assets.Set(filename, found, gocache.DefaultExpiration)
	return found, nil
}
