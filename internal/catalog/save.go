package catalog

import (
	"path/filepath"

	"github.com/blackwell-systems/wpmigrate/internal/util"
)

// Save writes every artifact of b into dir, replacing earlier runs.
func Save(dir string, b *Bundle) error {
	if err := util.EnsureDir(dir); err != nil {
		return err
	}
	b.normalize()

	files := []struct {
		name string
		v    interface{}
	}{
		{AuthorsFile, b.Authors},
		{CategoriesFile, b.Categories},
		{PostsFile, b.Posts},
		{AttachmentsFile, b.Attachments},
		{RedirectsFile, b.Redirects},
		{BundleFile, b},
	}
	for _, f := range files {
		if err := util.WriteJSON(filepath.Join(dir, f.name), f.v); err != nil {
			return err
		}
	}
	return nil
}

// SavePosts rewrites posts.json only.
func SavePosts(dir string, posts []Post) error {
	if posts == nil {
		posts = []Post{}
	}
	return util.WriteJSON(filepath.Join(dir, PostsFile), posts)
}

// normalize replaces nil slices so artifacts hold [] rather than null.
func (b *Bundle) normalize() {
	if b.Authors == nil {
		b.Authors = []Author{}
	}
	if b.Categories == nil {
		b.Categories = []Category{}
	}
	if b.Posts == nil {
		b.Posts = []Post{}
	}
	if b.Attachments == nil {
		b.Attachments = []Attachment{}
	}
	if b.Redirects == nil {
		b.Redirects = []Redirect{}
	}
}
