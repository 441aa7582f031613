package catalog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/portable"
)

func sampleBundle() *catalog.Bundle {
	return &catalog.Bundle{
		Site: catalog.SiteInfo{Title: "Old Blog", Link: "https://old.site"},
		Authors: []catalog.Author{
			{ID: "author-1", Type: catalog.TypeAuthor, Name: "Ann", Email: "ann@old.site", Slug: catalog.Slug{Current: "ann"}},
		},
		Categories: []catalog.Category{
			{ID: "category-5", Type: catalog.TypeCategory, Title: "News", Slug: catalog.Slug{Current: "news"}},
		},
		Posts: []catalog.Post{
			{
				ID:    "post-42",
				Type:  catalog.TypePost,
				Title: "Hello",
				Slug:  catalog.Slug{Current: "hello"},
				Body: []portable.Block{
					portable.NewImageBlock("http://old.site/a.jpg", "A"),
				},
			},
		},
		Redirects: []catalog.Redirect{
			{Source: "/2020/01/hello/", Destination: "/posts/hello", Permanent: true},
		},
	}
}

// --- Save / Load round-trip ---

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	if err := catalog.Save(dir, sampleBundle()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	for _, name := range []string{
		catalog.AuthorsFile, catalog.CategoriesFile, catalog.PostsFile,
		catalog.AttachmentsFile, catalog.RedirectsFile, catalog.BundleFile,
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	raw, _ := os.ReadFile(filepath.Join(dir, catalog.AttachmentsFile))
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Errorf("attachments.json = %q, want []", raw)
	}

	got, err := catalog.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Posts) != 1 || got.Posts[0].ID != "post-42" {
		t.Fatalf("posts = %+v", got.Posts)
	}
	if !got.Posts[0].Body[0].Pending() {
		t.Error("image block lost its pending source across save/load")
	}
	if got.Site.Link != "https://old.site" {
		t.Errorf("Site.Link = %q", got.Site.Link)
	}
	if len(got.Redirects) != 1 {
		t.Errorf("redirects = %d, want 1", len(got.Redirects))
	}
}

func TestLoad_EmptyDir(t *testing.T) {
	got, err := catalog.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Posts) != 0 || got.Redirects != nil {
		t.Errorf("expected empty bundle, got %+v", got)
	}
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, catalog.PostsFile), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := catalog.Load(dir); err == nil {
		t.Error("expected error for malformed posts.json")
	}
}

// --- Lookups ---

func TestAuthorByEmail(t *testing.T) {
	b := sampleBundle()
	if a := catalog.AuthorByEmail(b.Authors, "ANN@old.site"); a == nil || a.ID != "author-1" {
		t.Errorf("AuthorByEmail = %v", a)
	}
	if catalog.AuthorByEmail(b.Authors, "") != nil {
		t.Error("empty email should not match")
	}
	if catalog.AuthorByEmail(b.Authors, "bob@old.site") != nil {
		t.Error("unknown email should not match")
	}
}

func TestCategoryBySlug(t *testing.T) {
	b := sampleBundle()
	if c := catalog.CategoryBySlug(b.Categories, "news"); c == nil || c.ID != "category-5" {
		t.Errorf("CategoryBySlug = %v", c)
	}
	if catalog.CategoryBySlug(b.Categories, "sports") != nil {
		t.Error("unknown slug should not match")
	}
}

func TestImageLocations(t *testing.T) {
	b := sampleBundle()
	locs := catalog.ImageLocations(b.Posts)
	got := locs["http://old.site/a.jpg"]
	if len(got) != 1 || got[0].PostID != "post-42" || got[0].BlockKey == "" {
		t.Errorf("ImageLocations = %+v", locs)
	}
}

func TestRedirectStatusCode(t *testing.T) {
	if (catalog.Redirect{Permanent: true}).StatusCode() != 301 {
		t.Error("permanent should be 301")
	}
	if (catalog.Redirect{}).StatusCode() != 302 {
		t.Error("temporary should be 302")
	}
}

func TestPendingImageSources(t *testing.T) {
	posts := []catalog.Post{
		{
			ID:        "post-1",
			MainImage: &catalog.Image{Type: "image", OriginalSrc: "http://old.site/main.jpg"},
			Body: []portable.Block{
				portable.NewImageBlock("http://old.site/a.jpg", ""),
				portable.NewImageBlock("http://old.site/main.jpg", ""),
			},
		},
		{
			ID:   "post-2",
			Body: []portable.Block{portable.NewImageBlock("http://old.site/a.jpg", "")},
		},
	}
	got := catalog.PendingImageSources(posts)
	want := []string{"http://old.site/main.jpg", "http://old.site/a.jpg"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPostRedirects(t *testing.T) {
	post := &catalog.Post{
		Title: "Hello",
		Slug:  catalog.Slug{Current: "hello"},
		Original: catalog.Provenance{
			WordPressID:  "7",
			WordPressURL: "https://old.site/2021/03/hello/",
		},
	}
	got := catalog.PostRedirects(post, "/posts/")
	if len(got) != 2 {
		t.Fatalf("got %d redirects, want 2: %+v", len(got), got)
	}
	if got[0].Source != "/2021/03/hello/" || got[0].Destination != "/posts/hello" || !got[0].Permanent {
		t.Errorf("permalink redirect = %+v", got[0])
	}
	if got[1].Source != "/?p=7" || got[1].Description != "WordPress post ID: Hello" {
		t.Errorf("id redirect = %+v", got[1])
	}

	// Same path and no usable link: only the id form remains.
	post.Original.WordPressURL = "https://old.site/posts/hello"
	if got := catalog.PostRedirects(post, "/posts/"); len(got) != 1 {
		t.Errorf("same path: got %+v", got)
	}
	post.Original.WordPressURL = "not a url"
	if got := catalog.PostRedirects(post, "/posts/"); len(got) != 1 {
		t.Errorf("bad link: got %+v", got)
	}
}

func TestPermalinkPath_KeepsEncoding(t *testing.T) {
	got := catalog.PermalinkPath("https://old.site/2020/01/caf%C3%A9%20au%20lait/")
	if got != "/2020/01/caf%C3%A9%20au%20lait/" {
		t.Errorf("PermalinkPath = %q", got)
	}
	if got := catalog.PermalinkPath("https://old.site"); got != "/" {
		t.Errorf("PermalinkPath(root) = %q, want /", got)
	}
}
