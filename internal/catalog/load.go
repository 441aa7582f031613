package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/wpmigrate/internal/util"
)

// Artifact file names inside the data directory.
const (
	AuthorsFile     = "authors.json"
	CategoriesFile  = "categories.json"
	PostsFile       = "posts.json"
	AttachmentsFile = "attachments.json"
	RedirectsFile   = "redirects.json"
	BundleFile      = "migration-data.json"
)

// Load reads the per-entity artifacts from dir. A missing file yields an
// empty list; a malformed one is an error.
func Load(dir string) (*Bundle, error) {
	b := &Bundle{}
	files := []struct {
		name string
		into interface{}
	}{
		{AuthorsFile, &b.Authors},
		{CategoriesFile, &b.Categories},
		{PostsFile, &b.Posts},
		{AttachmentsFile, &b.Attachments},
	}
	for _, f := range files {
		if err := readOptional(filepath.Join(dir, f.name), f.into); err != nil {
			return nil, err
		}
	}

	redirects, err := LoadRedirects(dir)
	if err != nil {
		return nil, err
	}
	b.Redirects = redirects

	var meta struct {
		Site SiteInfo `json:"site"`
	}
	if err := readOptional(filepath.Join(dir, BundleFile), &meta); err != nil {
		return nil, err
	}
	b.Site = meta.Site
	return b, nil
}

// LoadRedirects reads redirects.json. It returns nil, nil when the file
// does not exist so callers can tell "absent" from "empty".
func LoadRedirects(dir string) ([]Redirect, error) {
	path := filepath.Join(dir, RedirectsFile)
	var out []Redirect
	if err := util.ReadJSON(path, &out); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading redirects: %w", err)
	}
	if out == nil {
		out = []Redirect{}
	}
	return out, nil
}

func readOptional(path string, into interface{}) error {
	if err := util.ReadJSON(path, into); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return nil
}
