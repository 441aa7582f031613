// Package sanitytest provides an in-memory stand-in for the Sanity HTTP
// API, recognizing the queries wpmigrate issues.
package sanitytest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var (
	pathFilter = regexp.MustCompile(`_id in path\("([^"]*)"\)`)
	typeFilter = regexp.MustCompile(`_type == "([^"]+)"`)
)

// Server is a fake dataset served over HTTP.
type Server struct {
	*httptest.Server

	// Token, when set, must be presented as a bearer token.
	Token string

	mu      sync.Mutex
	docs    map[string]map[string]interface{}
	uploads int
	queries int
}

// NewServer starts a fake store. Call Close when done.
func NewServer() *Server {
	s := &Server{docs: make(map[string]map[string]interface{})}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Doc returns a copy of the stored document, or nil.
func (s *Server) Doc(id string) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return nil
	}
	return clone(d)
}

// IDs returns the stored document ids in lexical order.
func (s *Server) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Put stores doc directly, bypassing the API.
func (s *Server) Put(doc map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc["_id"].(string)] = clone(doc)
}

// Uploads returns how many assets have been uploaded.
func (s *Server) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

// Queries returns how many queries have been served.
func (s *Server) Queries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 4 {
		writeError(w, http.StatusNotFound, "unknown endpoint")
		return
	}
	switch {
	case parts[1] == "data" && parts[2] == "query" && r.Method == http.MethodGet:
		s.query(w, r)
	case parts[1] == "data" && parts[2] == "mutate" && r.Method == http.MethodPost:
		s.mutate(w, r)
	case parts[1] == "assets" && parts[2] == "images" && r.Method == http.MethodPost:
		s.upload(w, r)
	default:
		writeError(w, http.StatusNotFound, "unknown endpoint")
	}
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	groq := q.Get("query")
	params := map[string]interface{}{}
	for k, v := range q {
		if strings.HasPrefix(k, "$") {
			var val interface{}
			if err := json.Unmarshal([]byte(v[0]), &val); err != nil {
				writeError(w, http.StatusBadRequest, "bad param "+k)
				return
			}
			params[k[1:]] = val
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++

	var result interface{}
	switch {
	case groq == `*[_id == $id][0]`:
		if d, ok := s.docs[fmt.Sprint(params["id"])]; ok {
			result = d
		}
	case strings.Contains(groq, `originalFilename == $filename`):
		for _, d := range s.docs {
			if d["_type"] == "sanity.imageAsset" && d["originalFilename"] == params["filename"] {
				result = d["_id"]
				break
			}
		}
	case strings.HasPrefix(groq, "count("):
		result = len(s.match(groq))
	default:
		writeError(w, http.StatusBadRequest, "unsupported query: "+groq)
		return
	}
	writeJSON(w, map[string]interface{}{"ms": 1, "query": groq, "result": result})
}

// match selects documents by the _id path prefix and _type filters found
// in groq. A bare * matches everything.
func (s *Server) match(groq string) []string {
	var ids []string
	prefix := ""
	if m := pathFilter.FindStringSubmatch(groq); m != nil {
		prefix = strings.TrimSuffix(m[1], "*")
	}
	typ := ""
	if m := typeFilter.FindStringSubmatch(groq); m != nil {
		typ = m[1]
	}
	for id, d := range s.docs {
		if prefix != "" && !strings.HasPrefix(id, prefix) {
			continue
		}
		if typ != "" && d["_type"] != typ {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Server) mutate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mutations []map[string]json.RawMessage `json:"mutations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type result struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
	}
	var results []result
	for _, m := range body.Mutations {
		switch {
		case m["create"] != nil:
			var doc map[string]interface{}
			if err := json.Unmarshal(m["create"], &doc); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			id, _ := doc["_id"].(string)
			if _, exists := s.docs[id]; exists {
				writeError(w, http.StatusConflict, "document already exists")
				return
			}
			s.docs[id] = doc
			results = append(results, result{ID: id, Operation: "create"})
		case m["patch"] != nil:
			var p struct {
				ID  string                 `json:"id"`
				Set map[string]interface{} `json:"set"`
			}
			if err := json.Unmarshal(m["patch"], &p); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			doc, ok := s.docs[p.ID]
			if !ok {
				writeError(w, http.StatusNotFound, "document not found")
				return
			}
			for k, v := range p.Set {
				doc[k] = v
			}
			results = append(results, result{ID: p.ID, Operation: "update"})
		case m["delete"] != nil:
			var d struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(m["delete"], &d); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			for _, id := range s.match(d.Query) {
				delete(s.docs, id)
				results = append(results, result{ID: id, Operation: "delete"})
			}
		default:
			writeError(w, http.StatusBadRequest, "unsupported mutation")
			return
		}
	}
	if results == nil {
		results = []result{}
	}
	writeJSON(w, map[string]interface{}{"transactionId": "tx", "results": results})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	id := fmt.Sprintf("image-upload%d", s.uploads)
	doc := map[string]interface{}{
		"_id":              id,
		"_type":            "sanity.imageAsset",
		"originalFilename": q.Get("filename"),
		"title":            q.Get("title"),
		"description":      q.Get("description"),
		"creditLine":       q.Get("creditLine"),
		"mimeType":         r.Header.Get("Content-Type"),
		"size":             len(data),
		"url":              "https://cdn.example/" + id,
	}
	s.docs[id] = doc
	writeJSON(w, map[string]interface{}{"document": doc})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{"type": "fakeError", "description": msg},
	})
}

func clone(d map[string]interface{}) map[string]interface{} {
	b, _ := json.Marshal(d)
	var out map[string]interface{}
	_ = json.Unmarshal(b, &out)
	return out
}
