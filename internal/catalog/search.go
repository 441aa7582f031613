package catalog

import (
	"strings"

	"github.com/blackwell-systems/wpmigrate/internal/portable"
)

// AuthorByEmail returns the author whose email matches (case-insensitive), or nil.
func AuthorByEmail(authors []Author, email string) *Author {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	for i := range authors {
		if strings.EqualFold(authors[i].Email, email) {
			return &authors[i]
		}
	}
	return nil
}

// CategoryBySlug returns the category with the given slug, or nil.
func CategoryBySlug(categories []Category, slug string) *Category {
	for i := range categories {
		if categories[i].Slug.Current == slug {
			return &categories[i]
		}
	}
	return nil
}

// ImageLocation identifies one image block inside a post body.
type ImageLocation struct {
	PostID   string `json:"postId"`
	BlockKey string `json:"blockKey"`
}

// ImageLocations indexes every pending image block by its source URL.
func ImageLocations(posts []Post) map[string][]ImageLocation {
	out := make(map[string][]ImageLocation)
	for _, p := range posts {
		for _, b := range p.Body {
			if !b.Pending() {
				continue
			}
			out[b.OriginalSrc] = append(out[b.OriginalSrc], ImageLocation{PostID: p.ID, BlockKey: b.Key})
		}
	}
	return out
}

// PendingImageSources returns the distinct image URLs still awaiting upload
// across all posts, in post order: main image first, then body order.
func PendingImageSources(posts []Post) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(src string) {
		if !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	}
	for _, p := range posts {
		if p.MainImage.Pending() {
			add(p.MainImage.OriginalSrc)
		}
		for _, src := range portable.PendingSources(p.Body) {
			add(src)
		}
	}
	return out
}
