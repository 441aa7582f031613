package ingest_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/wpmigrate/internal/ingest"
)

func TestReader_SHA256AndSize(t *testing.T) {
	data := "hello, wpmigrate"
	r := ingest.NewReader(strings.NewReader(data), 0)

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != data {
		t.Errorf("content mismatch: got %q", string(out))
	}
	if r.Size() != int64(len(data)) {
		t.Errorf("Size() = %d, want %d", r.Size(), len(data))
	}
	if len(r.SHA256()) != 64 {
		t.Errorf("SHA256() length = %d, want 64", len(r.SHA256()))
	}
}

func TestReader_EmptyInput(t *testing.T) {
	r := ingest.NewReader(strings.NewReader(""), 0)
	io.ReadAll(r) //nolint:errcheck
	if r.Size() != 0 {
		t.Errorf("Size() = %d, want 0", r.Size())
	}
	// sha256 of empty string is well-known
	const emptySHA = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if r.SHA256() != emptySHA {
		t.Errorf("SHA256('') = %q, want %q", r.SHA256(), emptySHA)
	}
}

func TestReader_Limit(t *testing.T) {
	r := ingest.NewReader(strings.NewReader(strings.Repeat("x", 100)), 10)
	_, err := io.ReadAll(r)
	if !errors.Is(err, ingest.ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestFetch_OK(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("pngbytes")) //nolint:errcheck
	}))
	defer srv.Close()

	f := ingest.NewFetcher(5*time.Second, "test-agent/1.0")
	d, err := f.Fetch(context.Background(), srv.URL+"/a.png")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(d.Data) != "pngbytes" || d.Size() != 8 {
		t.Errorf("data = %q", d.Data)
	}
	if d.ContentType != "image/png" {
		t.Errorf("ContentType = %q", d.ContentType)
	}
	if gotUA != "test-agent/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestFetch_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := ingest.NewFetcher(5*time.Second, "").Fetch(context.Background(), srv.URL+"/missing.jpg")
	var se *ingest.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Errorf("err = %v, want StatusError 404", err)
	}
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := ingest.NewFetcher(50*time.Millisecond, "").Fetch(context.Background(), srv.URL+"/slow.jpg")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestFetch_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64))) //nolint:errcheck
	}))
	defer srv.Close()

	f := ingest.NewFetcher(5*time.Second, "")
	f.MaxBytes = 16
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ingest.ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestResolve_LocalFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "export.xml")
	if err := os.WriteFile(p, []byte("<rss/>"), 0644); err != nil {
		t.Fatal(err)
	}
	src, err := ingest.Resolve(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if src.Name != "export.xml" || src.Size != 6 {
		t.Errorf("src = %+v", src)
	}
}

func TestResolve_LocalFile_NotFound(t *testing.T) {
	_, err := ingest.Resolve(context.Background(), "/nonexistent/path/export.xml", nil)
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestResolve_LocalFile_IsDirectory(t *testing.T) {
	_, err := ingest.Resolve(context.Background(), t.TempDir(), nil)
	if err == nil {
		t.Error("expected error for directory input, got nil")
	}
}

func TestResolve_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<rss/>") //nolint:errcheck
	}))
	defer srv.Close()

	f := ingest.NewFetcher(5*time.Second, "")
	src, err := ingest.Resolve(context.Background(), srv.URL+"/dump.xml", f)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if src.Name != "dump.xml" {
		t.Errorf("Name = %q", src.Name)
	}
	rc, err := src.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "<rss/>" {
		t.Errorf("body = %q", body)
	}
}
