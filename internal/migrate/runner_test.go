package migrate_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/config"
	"github.com/blackwell-systems/wpmigrate/internal/images"
	"github.com/blackwell-systems/wpmigrate/internal/migrate"
	"github.com/blackwell-systems/wpmigrate/internal/sanity"
	"github.com/blackwell-systems/wpmigrate/internal/sanity/sanitytest"
)

const exportTemplate = `<?xml version="1.0" encoding="UTF-8" ?>
<rss version="2.0"
	xmlns:excerpt="http://wordpress.org/export/1.2/excerpt/"
	xmlns:content="http://purl.org/rss/1.0/modules/content/"
	xmlns:dc="http://purl.org/dc/elements/1.1/"
	xmlns:wp="http://wordpress.org/export/1.2/">
<channel>
	<title>Old Blog</title>
	<link>http://old.site</link>
	<wp:author>
		<wp:author_id>1</wp:author_id>
		<wp:author_login><![CDATA[ann]]></wp:author_login>
		<wp:author_email><![CDATA[ann@old.site]]></wp:author_email>
		<wp:author_display_name><![CDATA[Ann Writer]]></wp:author_display_name>
	</wp:author>
	<wp:category>
		<wp:term_id>5</wp:term_id>
		<wp:category_nicename><![CDATA[news]]></wp:category_nicename>
		<wp:cat_name><![CDATA[News]]></wp:cat_name>
	</wp:category>
	<item>
		<title>My First Post</title>
		<link>http://old.site/2020/01/my-first-post/</link>
		<dc:creator><![CDATA[ann@old.site]]></dc:creator>
		<content:encoded><![CDATA[<p>Hello there.</p><img src="{{IMG}}" alt="A">]]></content:encoded>
		<excerpt:encoded><![CDATA[]]></excerpt:encoded>
		<wp:post_id>42</wp:post_id>
		<wp:post_date_gmt><![CDATA[2020-01-05 10:00:00]]></wp:post_date_gmt>
		<wp:post_name><![CDATA[my-first-post]]></wp:post_name>
		<wp:status><![CDATA[publish]]></wp:status>
		<wp:post_type><![CDATA[post]]></wp:post_type>
		<category domain="category" nicename="news"><![CDATA[News]]></category>
	</item>
</channel>
</rss>
`

type env struct {
	cfg    *config.Config
	store  *sanitytest.Server
	imgURL string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(1, 1, color.Black)
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/a.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Write(buf.Bytes()) //nolint:errcheck
	}))
	t.Cleanup(site.Close)

	dir := t.TempDir()
	imgURL := site.URL + "/a.jpg"
	exportPath := filepath.Join(dir, "export.xml")
	if err := os.WriteFile(exportPath, []byte(strings.ReplaceAll(exportTemplate, "{{IMG}}", imgURL)), 0644); err != nil {
		t.Fatal(err)
	}

	store := sanitytest.NewServer()
	t.Cleanup(store.Close)

	cfg := &config.Config{
		Source: config.SourceConfig{ExportPath: exportPath},
		Output: config.OutputConfig{
			DataDir:    filepath.Join(dir, "data"),
			ImagesDir:  filepath.Join(dir, "images"),
			NextConfig: filepath.Join(dir, "next.config.ts"),
		},
		Sanity: config.SanityConfig{Dataset: "production", APIHost: store.URL},
		Images: config.ImagesConfig{Timeout: 5 * time.Second, UserAgent: "test", Quality: 90, VariantQuality: 85},
		Redirects: config.RedirectsConfig{
			PostPrefix:     "/posts/",
			CategoryPrefix: "/categories/",
			ImagePrefix:    "/images/",
		},
	}
	return &env{cfg: cfg, store: store, imgURL: imgURL}
}

func (e *env) runner() *migrate.Runner {
	r := migrate.NewRunner(e.cfg, zerolog.Nop())
	r.Store = sanity.New(sanity.Options{Dataset: "production", APIHost: e.store.URL})
	return r
}

func TestRun_EndToEnd(t *testing.T) {
	e := newEnv(t)
	sum, err := e.runner().Run(context.Background(), migrate.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	posts, err := catalog.Load(e.cfg.Output.DataDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts.Posts) != 1 || posts.Posts[0].ID != "post-42" {
		t.Fatalf("posts.json = %+v", posts.Posts)
	}

	mapping, err := images.LoadMapping(e.cfg.Output.DataDir)
	if err != nil {
		t.Fatal(err)
	}
	entry, ok := mapping[e.imgURL]
	if !ok || entry.Filename != "a.jpg" {
		t.Fatalf("mapping = %v", mapping.URLs())
	}
	if entry.AssetID == "" {
		t.Error("mapping was not saved with the uploaded asset id")
	}

	doc := e.store.Doc("post-42")
	if doc == nil {
		t.Fatalf("post-42 not imported; store has %v", e.store.IDs())
	}
	var imgBlock map[string]interface{}
	for _, b := range doc["body"].([]interface{}) {
		if m := b.(map[string]interface{}); m["_type"] == "image" {
			imgBlock = m
		}
	}
	if imgBlock == nil {
		t.Fatal("no image block in imported body")
	}
	if _, ok := imgBlock["_originalSrc"]; ok {
		t.Errorf("image block still pending: %v", imgBlock)
	}
	if ref := imgBlock["asset"].(map[string]interface{})["_ref"]; ref != entry.AssetID {
		t.Errorf("asset ref = %v, want %s", ref, entry.AssetID)
	}

	found := false
	for _, r := range sum.Redirects.Combined() {
		if r.Source == "/2020/01/my-first-post/" && r.Destination == "/posts/my-first-post" {
			found = true
		}
	}
	if !found {
		t.Errorf("permalink redirect missing: %+v", sum.Redirects.Posts)
	}
	if !sum.NextConfigCreated {
		t.Error("next.config.ts should have been created")
	}
	for _, f := range []string{"all-redirects.json", "vercel-redirects.json", ".htaccess", migrate.LedgerFile} {
		if _, err := os.Stat(filepath.Join(e.cfg.Output.DataDir, f)); err != nil {
			t.Errorf("%s not written", f)
		}
	}
}

func TestRun_SecondRunUpdates(t *testing.T) {
	e := newEnv(t)
	if _, err := e.runner().Run(context.Background(), migrate.Options{}); err != nil {
		t.Fatal(err)
	}
	sum, err := e.runner().Run(context.Background(), migrate.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Images.Summary.Skipped != 1 {
		t.Errorf("images = %+v", sum.Images.Summary)
	}
	if sum.Import.Posts.Updated != 1 || sum.Import.Posts.Created != 0 {
		t.Errorf("posts = %+v", sum.Import.Posts)
	}
	if e.store.Uploads() != 1 {
		t.Errorf("uploads = %d, want 1", e.store.Uploads())
	}
}

func TestRun_DryRunParsesOnly(t *testing.T) {
	e := newEnv(t)
	r := migrate.NewRunner(e.cfg, zerolog.Nop())
	sum, err := r.Run(context.Background(), migrate.Options{DryRun: true})
	if err != nil {
		t.Fatalf("dry run without a token should succeed: %v", err)
	}
	if sum.Images != nil || sum.Import != nil || sum.Redirects != nil {
		t.Errorf("dry run ran later stages: %+v", sum)
	}
	if _, err := os.Stat(filepath.Join(e.cfg.Output.DataDir, catalog.PostsFile)); err != nil {
		t.Error("posts.json not written")
	}
	if len(e.store.IDs()) != 0 {
		t.Error("dry run wrote to the store")
	}
}

func TestCheckPrerequisites(t *testing.T) {
	e := newEnv(t)
	r := migrate.NewRunner(e.cfg, zerolog.Nop())

	if err := r.CheckPrerequisites(migrate.Options{}); !errors.Is(err, migrate.ErrNoToken) {
		t.Errorf("no token: err = %v, want ErrNoToken", err)
	}
	if err := r.CheckPrerequisites(migrate.Options{SkipImport: true}); err != nil {
		t.Errorf("skip import: err = %v", err)
	}

	e.cfg.Source.ExportPath = filepath.Join(t.TempDir(), "missing.xml")
	if err := r.CheckPrerequisites(migrate.Options{SkipImport: true}); !errors.Is(err, migrate.ErrExportMissing) {
		t.Errorf("missing export: err = %v, want ErrExportMissing", err)
	}
}

func TestCleanup(t *testing.T) {
	store := sanitytest.NewServer()
	defer store.Close()
	for _, d := range []map[string]interface{}{
		{"_id": "post-1", "_type": "post"},
		{"_id": "post-2", "_type": "post"},
		{"_id": "category-5", "_type": "category"},
		{"_id": "author-1", "_type": "author"},
		{"_id": "image-x", "_type": "sanity.imageAsset"},
		{"_id": "siteSettings", "_type": "settings"},
	} {
		store.Put(d)
	}
	client := sanity.New(sanity.Options{Dataset: "production", APIHost: store.URL})

	preview, err := migrate.Cleanup(context.Background(), client, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(preview) != 3 || preview[0].Type != "post" || preview[0].Found != 2 || preview[0].Deleted != 0 {
		t.Errorf("preview = %+v", preview)
	}
	if len(store.IDs()) != 6 {
		t.Error("unconfirmed cleanup deleted documents")
	}

	done, err := migrate.Cleanup(context.Background(), client, true)
	if err != nil {
		t.Fatal(err)
	}
	if done[0].Deleted != 2 || done[1].Deleted != 1 || done[2].Deleted != 1 {
		t.Errorf("done = %+v", done)
	}
	if ids := store.IDs(); len(ids) != 2 || ids[0] != "image-x" || ids[1] != "siteSettings" {
		t.Errorf("remaining = %v", ids)
	}
}
