package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/wpmigrate/internal/catalog"
	"github.com/blackwell-systems/wpmigrate/internal/importer"
	"github.com/blackwell-systems/wpmigrate/internal/migrate"
	"github.com/blackwell-systems/wpmigrate/internal/redirects"
	"github.com/blackwell-systems/wpmigrate/internal/sanity/sanitytest"
)

const minimalExport = `<?xml version="1.0" encoding="UTF-8" ?>
<rss version="2.0"
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
		<wp:author_display_name><![CDATA[Ann]]></wp:author_display_name>
	</wp:author>
	<item>
		<title>Hello</title>
		<link>http://old.site/2020/01/hello/</link>
		<dc:creator><![CDATA[ann@old.site]]></dc:creator>
		<content:encoded><![CDATA[<p>Hi.</p>]]></content:encoded>
		<wp:post_id>1</wp:post_id>
		<wp:post_date_gmt><![CDATA[2020-01-05 10:00:00]]></wp:post_date_gmt>
		<wp:post_name><![CDATA[hello]]></wp:post_name>
		<wp:status><![CDATA[publish]]></wp:status>
		<wp:post_type><![CDATA[post]]></wp:post_type>
	</item>
</channel>
</rss>
`

// writeConfig writes an export and a config pointing every output into a
// temp dir, and returns the config path and the data dir.
func writeConfig(t *testing.T, apiHost string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "export.xml")
	if err := os.WriteFile(exportPath, []byte(minimalExport), 0644); err != nil {
		t.Fatal(err)
	}
	dataDir := filepath.Join(dir, "data")
	yml := strings.Join([]string{
		"source:",
		"  export_path: " + exportPath,
		"output:",
		"  data_dir: " + dataDir,
		"  images_dir: " + filepath.Join(dir, "images"),
		"  next_config: " + filepath.Join(dir, "next.config.ts"),
		"sanity:",
		"  project_id: test",
		"  dataset: production",
		"  api_host: " + apiHost,
		"",
	}, "\n")
	path := filepath.Join(dir, "wpmigrate.yml")
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	return path, dataDir
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd()
	root.SetArgs(append([]string{"--no-color", "--log-level", "off"}, args...))
	return root.Execute()
}

func TestMigrateDryRunCmd(t *testing.T) {
	t.Setenv("SANITY_API_TOKEN", "")
	path, dataDir := writeConfig(t, "http://127.0.0.1:1")

	if err := execute(t, "--config", path, "migrate", "--dry-run"); err != nil {
		t.Fatalf("migrate --dry-run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, catalog.PostsFile)); err != nil {
		t.Errorf("posts.json not written: %v", err)
	}
}

func TestMigrateWithoutTokenFails(t *testing.T) {
	t.Setenv("SANITY_API_TOKEN", "")
	path, _ := writeConfig(t, "http://127.0.0.1:1")

	t.Setenv("WPMIGRATE_SANITY_TOKEN", "")
	err := execute(t, "--config", path, "migrate")
	if !errors.Is(err, migrate.ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}

func TestStageCommandsNeedParse(t *testing.T) {
	t.Setenv("SANITY_API_TOKEN", "")
	path, _ := writeConfig(t, "http://127.0.0.1:1")

	err := execute(t, "--config", path, "redirects")
	if err == nil || !strings.Contains(err.Error(), "wpmigrate parse") {
		t.Errorf("redirects before parse: err = %v", err)
	}
}

func TestParseThenRedirectsTest(t *testing.T) {
	t.Setenv("SANITY_API_TOKEN", "")
	path, dataDir := writeConfig(t, "http://127.0.0.1:1")

	if err := execute(t, "--config", path, "parse"); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := execute(t, "--config", path, "redirects", "--test", "--site-url", "https://new.site"); err != nil {
		t.Fatalf("redirects --test: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, redirects.HtaccessFile)); err != nil {
		t.Errorf(".htaccess not written: %v", err)
	}
	if err := execute(t, "--config", path, "status"); err != nil {
		t.Errorf("status: %v", err)
	}
}

func TestCleanupCmd(t *testing.T) {
	store := sanitytest.NewServer()
	defer store.Close()
	store.Put(map[string]interface{}{"_id": "post-1", "_type": "post"})
	store.Put(map[string]interface{}{"_id": "author-1", "_type": "author"})

	t.Setenv("SANITY_API_TOKEN", "tok")
	path, _ := writeConfig(t, store.URL)

	if err := execute(t, "--config", path, "cleanup"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n := len(store.IDs()); n != 2 {
		t.Fatalf("cleanup without --confirm left %d of 2 documents", n)
	}
	if err := execute(t, "--config", path, "cleanup", "--confirm"); err != nil {
		t.Fatalf("cleanup --confirm: %v", err)
	}
	if ids := store.IDs(); len(ids) != 0 {
		t.Errorf("remaining = %v", ids)
	}
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wpmigrate.yml")
	if err := execute(t, "--config", path, "init", "--project-id", "abc"); err != nil {
		t.Fatalf("init: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "abc") {
		t.Errorf("config missing project id:\n%s", raw)
	}
	if err := execute(t, "--config", path, "init"); err == nil {
		t.Error("second init should refuse to overwrite")
	}
	if err := execute(t, "--config", path, "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestStageRows(t *testing.T) {
	sum := &migrate.Summary{
		Bundle: &catalog.Bundle{Posts: make([]catalog.Post, 3), Skipped: 1},
		Import: &importer.Result{
			Posts:  importer.Tally{Created: 2, Updated: 1},
			Images: importer.Tally{Created: 1, Errors: 1},
		},
	}
	rows := stageRows(sum)
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "parse" || rows[0][2] != "1" {
		t.Errorf("parse row = %v", rows[0])
	}
	if rows[1][1] != "2 created, 1 updated, 1 assets" || rows[1][2] != "1" {
		t.Errorf("import row = %v", rows[1])
	}
}
