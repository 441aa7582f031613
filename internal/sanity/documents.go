package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Query runs a GROQ query and decodes its result into out. Params are
// JSON-encoded and passed as $name query parameters.
func (c *Client) Query(ctx context.Context, groq string, params map[string]interface{}, out interface{}) error {
	q := url.Values{"query": {groq}}
	for k, v := range params {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding param %s: %w", k, err)
		}
		q.Set("$"+k, string(b))
	}
	var resp struct {
		Result json.RawMessage `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.url(q, "data", "query", c.dataset), nil, &resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if len(resp.Result) == 0 {
		resp.Result = json.RawMessage("null")
	}
	return json.Unmarshal(resp.Result, out)
}

// GetDocument fetches the document with id into out. It reports false
// when no such document exists.
func (c *Client) GetDocument(ctx context.Context, id string, out interface{}) (bool, error) {
	var raw json.RawMessage
	if err := c.Query(ctx, `*[_id == $id][0]`, map[string]interface{}{"id": id}, &raw); err != nil {
		return false, err
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Count returns count(<filter>) for a GROQ filter such as *[_type == "post"].
func (c *Client) Count(ctx context.Context, filter string, params map[string]interface{}) (int, error) {
	var n int
	if err := c.Query(ctx, "count("+filter+")", params, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Mutation is one entry of a mutate request.
type Mutation map[string]interface{}

// CreateMutation creates doc, failing if its _id is taken.
func CreateMutation(doc interface{}) Mutation {
	return Mutation{"create": doc}
}

// PatchSetMutation sets fields on the document with id.
func PatchSetMutation(id string, set map[string]interface{}) Mutation {
	return Mutation{"patch": map[string]interface{}{"id": id, "set": set}}
}

// DeleteQueryMutation deletes every document matched by a GROQ query.
func DeleteQueryMutation(groq string, params map[string]interface{}) Mutation {
	del := map[string]interface{}{"query": groq}
	if len(params) > 0 {
		del["params"] = params
	}
	return Mutation{"delete": del}
}

// MutateResult is the response of a mutate request.
type MutateResult struct {
	TransactionID string `json:"transactionId"`
	Results       []struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
	} `json:"results"`
}

// Mutate applies mutations in one transaction.
func (c *Client) Mutate(ctx context.Context, mutations ...Mutation) (*MutateResult, error) {
	q := url.Values{"returnIds": {"true"}, "visibility": {"sync"}}
	body := map[string]interface{}{"mutations": mutations}
	var res MutateResult
	if err := c.doJSON(ctx, http.MethodPost, c.url(q, "data", "mutate", c.dataset), body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Create creates a new document.
func (c *Client) Create(ctx context.Context, doc interface{}) error {
	_, err := c.Mutate(ctx, CreateMutation(doc))
	return err
}

// PatchSet replaces the given fields of an existing document.
func (c *Client) PatchSet(ctx context.Context, id string, set map[string]interface{}) error {
	_, err := c.Mutate(ctx, PatchSetMutation(id, set))
	return err
}

// DeleteByQuery deletes the documents a GROQ query matches and returns
// how many were removed.
func (c *Client) DeleteByQuery(ctx context.Context, groq string, params map[string]interface{}) (int, error) {
	res, err := c.Mutate(ctx, DeleteQueryMutation(groq, params))
	if err != nil {
		return 0, err
	}
	return len(res.Results), nil
}
